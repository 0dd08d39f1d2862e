package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/recipe-share/internal/config"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/middlewares"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/repositories"
	"github.com/sbilibin2017/recipe-share/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:generate mockgen -source=backend.go -destination=mock_backend.go -package=main

// Backend is what the commands operate on.
type Backend interface {
	Publish(ctx context.Context, actor *models.Viewer, slugs []string) (int64, error)
	Draft(ctx context.Context, actor *models.Viewer, slugs []string) (int64, error)
	Duplicate(ctx context.Context, actor *models.Viewer, recipeSlug string) (models.Recipe, error)
	ResetLikes(ctx context.Context, actor *models.Viewer, recipeSlug string) (int64, error)
	Stats(ctx context.Context, actor *models.Viewer) (models.RecipeStats, error)
	Promote(ctx context.Context, actor *models.Viewer, username string, staff bool) error
	Migrate(ctx context.Context) error
	Close() error
}

// dbBackend runs every admin action in its own transaction.
type dbBackend struct {
	db     *sqlx.DB
	admin  *services.AdminService
	writer *kafka.Writer
}

// openBackend connects to PostgreSQL and, when configured, Kafka.
func openBackend(ctx context.Context, configPath string) (Backend, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := logger.InitializeWithFile(cfg.LogLevel, logger.FileOptions{Path: cfg.LogFile}); err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("PostgreSQL connection error: %w", err)
	}

	b := &dbBackend{db: db}
	var events services.KafkaWriter
	if len(cfg.KafkaBrokers) > 0 {
		b.writer = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Topic:                  cfg.KafkaTopic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		}
		events = b.writer
	}

	txGetter := middlewares.GetTxFromContext
	b.admin = services.NewAdminService(
		repositories.NewRecipeReadRepository(db, txGetter),
		repositories.NewRecipeWriteRepository(db, txGetter),
		repositories.NewLikeRepository(db, txGetter),
		repositories.NewUserWriteRepository(db, txGetter),
		services.NewEventPublisher(events),
	)
	return b, nil
}

func (b *dbBackend) Publish(ctx context.Context, actor *models.Viewer, slugs []string) (n int64, err error) {
	err = middlewares.InTx(ctx, b.db, func(ctx context.Context) error {
		n, err = b.admin.Publish(ctx, actor, slugs)
		return err
	})
	return n, err
}

func (b *dbBackend) Draft(ctx context.Context, actor *models.Viewer, slugs []string) (n int64, err error) {
	err = middlewares.InTx(ctx, b.db, func(ctx context.Context) error {
		n, err = b.admin.Draft(ctx, actor, slugs)
		return err
	})
	return n, err
}

func (b *dbBackend) Duplicate(ctx context.Context, actor *models.Viewer, recipeSlug string) (r models.Recipe, err error) {
	err = middlewares.InTx(ctx, b.db, func(ctx context.Context) error {
		r, err = b.admin.Duplicate(ctx, actor, recipeSlug)
		return err
	})
	return r, err
}

func (b *dbBackend) ResetLikes(ctx context.Context, actor *models.Viewer, recipeSlug string) (n int64, err error) {
	err = middlewares.InTx(ctx, b.db, func(ctx context.Context) error {
		n, err = b.admin.ResetLikes(ctx, actor, recipeSlug)
		return err
	})
	return n, err
}

func (b *dbBackend) Stats(ctx context.Context, actor *models.Viewer) (models.RecipeStats, error) {
	return b.admin.Stats(ctx, actor)
}

func (b *dbBackend) Promote(ctx context.Context, actor *models.Viewer, username string, staff bool) error {
	return middlewares.InTx(ctx, b.db, func(ctx context.Context) error {
		return b.admin.Promote(ctx, actor, username, staff)
	})
}

func (b *dbBackend) Migrate(ctx context.Context) error {
	return repositories.Migrate(ctx, b.db)
}

func (b *dbBackend) Close() error {
	if b.writer != nil {
		b.writer.Close()
	}
	logger.Log.Sync()
	return b.db.Close()
}
