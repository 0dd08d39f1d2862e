package services

import (
	"context"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/models"
)

const copySuffix = " (copy)"

// AdminService implements the operator actions. Every call requires a staff actor.
type AdminService struct {
	reader RecipeReader
	writer RecipeWriter
	likes  EdgeRepository
	users  UserWriter
	events *EventPublisher
}

// NewAdminService creates a new AdminService.
func NewAdminService(reader RecipeReader, writer RecipeWriter, likes EdgeRepository, users UserWriter, events *EventPublisher) *AdminService {
	return &AdminService{
		reader: reader,
		writer: writer,
		likes:  likes,
		users:  users,
		events: events,
	}
}

func (s *AdminService) recipe(ctx context.Context, recipeSlug string) (models.Recipe, error) {
	recipe, err := s.reader.GetBySlug(ctx, recipeSlug, uuid.Nil)
	if err != nil {
		return models.Recipe{}, notFound(err)
	}
	return recipe, nil
}

// Publish marks the recipes as published and reports how many changed.
func (s *AdminService) Publish(ctx context.Context, actor *models.Viewer, slugs []string) (int64, error) {
	return s.setStatus(ctx, actor, slugs, models.StatusPublished)
}

// Draft marks the recipes as draft and reports how many changed.
func (s *AdminService) Draft(ctx context.Context, actor *models.Viewer, slugs []string) (int64, error) {
	return s.setStatus(ctx, actor, slugs, models.StatusDraft)
}

func (s *AdminService) setStatus(ctx context.Context, actor *models.Viewer, slugs []string, status models.Status) (int64, error) {
	if err := AuthorizeStaff(actor); err != nil {
		return 0, err
	}
	n, err := s.writer.SetStatus(ctx, slugs, status)
	if err != nil {
		logger.Log.Errorw("failed to set status", "slugs", slugs, "status", status, "error", err)
		return 0, err
	}
	logger.Log.Infow("status changed", "actor", actor.Username, "status", status, "changed", n)
	return n, nil
}

// Duplicate copies a recipe into a new draft with the same author and tags.
func (s *AdminService) Duplicate(ctx context.Context, actor *models.Viewer, recipeSlug string) (models.Recipe, error) {
	if err := AuthorizeStaff(actor); err != nil {
		return models.Recipe{}, err
	}

	original, err := s.recipe(ctx, recipeSlug)
	if err != nil {
		return models.Recipe{}, err
	}

	title := original.Title
	for utf8.RuneCountInString(title+copySuffix) > 255 {
		_, size := utf8.DecodeLastRuneInString(title)
		title = title[:len(title)-size]
	}
	title += copySuffix

	copySlug, err := allocateSlug(ctx, s.reader, title, uuid.Nil)
	if err != nil {
		return models.Recipe{}, err
	}

	dup := original.RecipeDB
	dup.RecipeID = uuid.New()
	dup.Title = title
	dup.Slug = copySlug
	dup.Status = models.StatusDraft

	if err := s.writer.Create(ctx, &dup, original.Tags); err != nil {
		logger.Log.Errorw("failed to duplicate recipe", "slug", recipeSlug, "error", err)
		return models.Recipe{}, conflict(err, "recipe")
	}

	s.events.Publish(ctx, newEvent(models.EventRecipeCreated, actor, dup))
	return s.recipe(ctx, dup.Slug)
}

// ResetLikes removes every like of a recipe and reports how many were removed.
func (s *AdminService) ResetLikes(ctx context.Context, actor *models.Viewer, recipeSlug string) (int64, error) {
	if err := AuthorizeStaff(actor); err != nil {
		return 0, err
	}

	recipe, err := s.recipe(ctx, recipeSlug)
	if err != nil {
		return 0, err
	}

	n, err := s.likes.Reset(ctx, recipe.RecipeID)
	if err != nil {
		logger.Log.Errorw("failed to reset likes", "slug", recipeSlug, "error", err)
		return 0, err
	}
	return n, nil
}

// Stats returns the recipe counters.
func (s *AdminService) Stats(ctx context.Context, actor *models.Viewer) (models.RecipeStats, error) {
	if err := AuthorizeStaff(actor); err != nil {
		return models.RecipeStats{}, err
	}
	stats, err := s.reader.Stats(ctx)
	if err != nil {
		logger.Log.Errorw("failed to load stats", "error", err)
		return models.RecipeStats{}, err
	}
	return stats, nil
}

// Promote grants or revokes the operator flag.
func (s *AdminService) Promote(ctx context.Context, actor *models.Viewer, username string, staff bool) error {
	if err := AuthorizeStaff(actor); err != nil {
		return err
	}
	if err := s.users.SetStaff(ctx, username, staff); err != nil {
		return notFound(err)
	}
	logger.Log.Infow("staff flag changed", "actor", actor.Username, "username", username, "staff", staff)
	return nil
}
