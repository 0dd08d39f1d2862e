package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sbilibin2017/recipe-share/internal/services"
)

// Opener connects a Backend using the given config file.
type Opener func(ctx context.Context, configPath string) (Backend, error)

// CLI builds the recipe-admin command tree.
type CLI struct {
	open       Opener
	configPath string
}

// NewCLI creates the command tree on top of open.
func NewCLI(open Opener) *CLI {
	return &CLI{open: open}
}

// RootCommand returns the recipe-admin command.
func (cli *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "recipe-admin",
		Short: "Operator tool for the recipe-share database",
		Long: `Bulk status changes, duplication, like resets, statistics,
migrations and staff promotion. Actions run as the system operator.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "config.env", "Path to configuration file")

	root.AddCommand(
		cli.statusCommand("publish", "Mark recipes as published"),
		cli.statusCommand("draft", "Mark recipes as draft"),
		cli.duplicateCommand(),
		cli.resetLikesCommand(),
		cli.statsCommand(),
		cli.promoteCommand(),
		cli.migrateCommand(),
		versionCommand(),
	)
	return root
}

// withBackend opens the backend for the duration of fn.
func (cli *CLI) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b Backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := cli.open(ctx, cli.configPath)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(ctx, b)
}

func (cli *CLI) statusCommand(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " SLUG...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withBackend(cmd, func(ctx context.Context, b Backend) error {
				action := b.Publish
				if use == "draft" {
					action = b.Draft
				}
				n, err := action(ctx, services.SystemActor, args)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d recipe(s) marked as %s\n", n, pastTense(use))
				return nil
			})
		},
	}
}

func pastTense(use string) string {
	if use == "publish" {
		return "published"
	}
	return use
}

func (cli *CLI) duplicateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate SLUG",
		Short: "Copy a recipe into a new draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withBackend(cmd, func(ctx context.Context, b Backend) error {
				r, err := b.Duplicate(ctx, services.SystemActor, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created draft %q (%s)\n", r.Title, r.Slug)
				return nil
			})
		},
	}
}

func (cli *CLI) resetLikesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-likes SLUG",
		Short: "Remove every like of a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withBackend(cmd, func(ctx context.Context, b Backend) error {
				n, err := b.ResetLikes(ctx, services.SystemActor, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d like(s) from %s\n", n, args[0])
				return nil
			})
		},
	}
}

func (cli *CLI) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show recipe counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withBackend(cmd, func(ctx context.Context, b Backend) error {
				s, err := b.Stats(ctx, services.SystemActor)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Total recipes:     %d\n", s.Total)
				fmt.Fprintf(out, "Published recipes: %d\n", s.Published)
				fmt.Fprintf(out, "Draft recipes:     %d\n", s.Draft)
				return nil
			})
		},
	}
}

func (cli *CLI) promoteCommand() *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "promote USERNAME",
		Short: "Grant or revoke operator access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withBackend(cmd, func(ctx context.Context, b Backend) error {
				if err := b.Promote(ctx, services.SystemActor, args[0], !revoke); err != nil {
					return err
				}
				if revoke {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is no longer staff\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is now staff\n", args[0])
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "Remove staff access instead of granting it")
	return cmd
}

func (cli *CLI) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withBackend(cmd, func(ctx context.Context, b Backend) error {
				if err := b.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
				return nil
			})
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "recipe-admin version %s\n", buildVersion)
			fmt.Fprintf(out, "  Git commit: %s\n", buildCommit)
			fmt.Fprintf(out, "  Built:      %s\n", buildDate)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
		},
	}
}
