package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/validation"
)

//go:generate mockgen -source=social.go -destination=mock_social.go -package=services

// EdgeRepository toggles a presence row between a user and a recipe.
type EdgeRepository interface {
	Toggle(ctx context.Context, recipeID, userID uuid.UUID) (bool, int, error)
	Reset(ctx context.Context, recipeID uuid.UUID) (int64, error)
}

// CommentRepository defines comment persistence.
type CommentRepository interface {
	ListByRecipe(ctx context.Context, recipeID uuid.UUID) ([]models.Comment, error)
	GetByID(ctx context.Context, commentID uuid.UUID) (models.Comment, error)
	Create(ctx context.Context, comment *models.CommentDB) error
	Delete(ctx context.Context, commentID uuid.UUID) error
}

type commentInput struct {
	Text string `validate:"required,max=5000"`
}

var toggleEvents = map[models.ToggleKind]map[models.ToggleState]string{
	models.ToggleLike: {
		models.ToggleAdded:   models.EventRecipeLiked,
		models.ToggleRemoved: models.EventRecipeUnliked,
	},
	models.ToggleFavorite: {
		models.ToggleAdded:   models.EventRecipeFavorited,
		models.ToggleRemoved: models.EventRecipeUnfavorited,
	},
}

// SocialService implements likes, favorites and comments.
type SocialService struct {
	recipes  RecipeReader
	edges    map[models.ToggleKind]EdgeRepository
	comments CommentRepository
	events   *EventPublisher
}

// NewSocialService creates a new SocialService.
func NewSocialService(recipes RecipeReader, likes, favorites EdgeRepository, comments CommentRepository, events *EventPublisher) *SocialService {
	return &SocialService{
		recipes: recipes,
		edges: map[models.ToggleKind]EdgeRepository{
			models.ToggleLike:     likes,
			models.ToggleFavorite: favorites,
		},
		comments: comments,
		events:   events,
	}
}

// Toggle flips the viewer's like or favorite on a visible recipe and reports
// the new state with the recipe's fresh total for that kind.
func (s *SocialService) Toggle(ctx context.Context, viewer *models.Viewer, kind models.ToggleKind, ref models.RecipeRef) (models.ToggleResult, error) {
	if viewer == nil {
		return models.ToggleResult{}, ErrUnauthenticated
	}
	edges, ok := s.edges[kind]
	if !ok {
		return models.ToggleResult{}, fmt.Errorf("unknown toggle kind %q", kind)
	}

	recipe, err := resolve(ctx, s.recipes, viewer, ref)
	if err != nil {
		return models.ToggleResult{}, err
	}

	added, total, err := edges.Toggle(ctx, recipe.RecipeID, viewer.UserID)
	if err != nil {
		logger.Log.Errorw("failed to toggle", "kind", kind, "recipe_id", recipe.RecipeID, "user_id", viewer.UserID, "error", err)
		return models.ToggleResult{}, err
	}

	state := models.ToggleRemoved
	if added {
		state = models.ToggleAdded
	}
	switch kind {
	case models.ToggleLike:
		recipe.IsLiked = added
		recipe.LikesCount = total
	case models.ToggleFavorite:
		recipe.IsFavorited = added
	}

	event := newEvent(toggleEvents[kind][state], viewer, recipe.RecipeDB)
	event.Total = &total
	s.events.Publish(ctx, event)

	return models.ToggleResult{Kind: kind, State: state, Total: total, Recipe: recipe}, nil
}

// ToggleLike is Toggle for likes.
func (s *SocialService) ToggleLike(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef) (models.ToggleResult, error) {
	return s.Toggle(ctx, viewer, models.ToggleLike, ref)
}

// ToggleFavorite is Toggle for favorites.
func (s *SocialService) ToggleFavorite(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef) (models.ToggleResult, error) {
	return s.Toggle(ctx, viewer, models.ToggleFavorite, ref)
}

// Comments lists the comments of a visible recipe, newest first.
func (s *SocialService) Comments(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef) ([]models.Comment, error) {
	recipe, err := resolve(ctx, s.recipes, viewer, ref)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByRecipe(ctx, recipe.RecipeID)
	if err != nil {
		logger.Log.Errorw("failed to list comments", "recipe_id", recipe.RecipeID, "error", err)
		return nil, err
	}
	return comments, nil
}

// AddComment posts a comment on a visible recipe. Markup is stripped.
func (s *SocialService) AddComment(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef, text string) (models.Comment, error) {
	if viewer == nil {
		return models.Comment{}, ErrUnauthenticated
	}

	in := commentInput{Text: validation.CleanText(text)}
	if err := validation.Struct(in); err != nil {
		return models.Comment{}, err
	}

	recipe, err := resolve(ctx, s.recipes, viewer, ref)
	if err != nil {
		return models.Comment{}, err
	}

	comment := models.CommentDB{
		CommentID: uuid.New(),
		RecipeID:  recipe.RecipeID,
		AuthorID:  viewer.UserID,
		Text:      in.Text,
	}
	if err := s.comments.Create(ctx, &comment); err != nil {
		logger.Log.Errorw("failed to create comment", "recipe_id", recipe.RecipeID, "error", err)
		return models.Comment{}, err
	}

	event := newEvent(models.EventCommentCreated, viewer, recipe.RecipeDB)
	event.CommentID = comment.CommentID.String()
	s.events.Publish(ctx, event)

	created, err := s.comments.GetByID(ctx, comment.CommentID)
	if err != nil {
		return models.Comment{}, notFound(err)
	}
	return created, nil
}

// DeleteComment removes a comment written by the viewer. The recipe's author
// has no say over other people's comments.
func (s *SocialService) DeleteComment(ctx context.Context, viewer *models.Viewer, commentID uuid.UUID) (models.Comment, error) {
	if viewer == nil {
		return models.Comment{}, ErrUnauthenticated
	}

	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return models.Comment{}, notFound(err)
	}
	if err := AuthorizeMutation(viewer, comment.AuthorID, ActionDelete); err != nil {
		// The comment is still returned so callers can point back at its recipe.
		return comment, err
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		logger.Log.Errorw("failed to delete comment", "comment_id", commentID, "error", err)
		return models.Comment{}, notFound(err)
	}

	event := newEvent(models.EventCommentDeleted, viewer, models.RecipeDB{RecipeID: comment.RecipeID, Slug: comment.RecipeSlug})
	event.CommentID = commentID.String()
	s.events.Publish(ctx, event)

	return comment, nil
}
