package services

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/facades"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/repositories"
	"github.com/sbilibin2017/recipe-share/internal/slug"
	"github.com/sbilibin2017/recipe-share/internal/validation"
)

//go:generate mockgen -source=recipes.go -destination=mock_recipes.go -package=services

// Page sizes of the two surfaces.
const (
	WebPageSize     = 9
	APIPageSize     = 10
	MaxPageSize     = 100
	ProfilePreview  = 5
	DefaultTagLimit = 20
)

// RecipeReader defines read-only operations for recipes and tags.
type RecipeReader interface {
	GetBySlug(ctx context.Context, recipeSlug string, viewerID uuid.UUID) (models.Recipe, error)
	GetByID(ctx context.Context, recipeID, viewerID uuid.UUID) (models.Recipe, error)
	List(ctx context.Context, f models.RecipeFilter) ([]models.Recipe, int, error)
	SlugsWithBase(ctx context.Context, base string, exclude uuid.UUID) ([]string, error)
	ListTags(ctx context.Context, limit int) ([]models.Tag, error)
	GetTag(ctx context.Context, tagSlug string) (models.Tag, error)
	Stats(ctx context.Context) (models.RecipeStats, error)
}

// RecipeWriter defines write operations for recipes.
type RecipeWriter interface {
	Create(ctx context.Context, recipe *models.RecipeDB, tags []string) error
	Update(ctx context.Context, recipe *models.RecipeDB, tags []string) error
	Delete(ctx context.Context, recipeID uuid.UUID) error
	SetStatus(ctx context.Context, slugs []string, status models.Status) (int64, error)
}

// ImageStore persists uploaded images and returns their public URL.
type ImageStore interface {
	Put(ctx context.Context, kind facades.ImageKind, upload models.Upload) (string, error)
}

// RecipeService implements recipe browsing and authoring.
type RecipeService struct {
	reader RecipeReader
	writer RecipeWriter
	images ImageStore
	events *EventPublisher
}

// NewRecipeService creates a new RecipeService. A nil image store rejects uploads.
func NewRecipeService(reader RecipeReader, writer RecipeWriter, images ImageStore, events *EventPublisher) *RecipeService {
	return &RecipeService{
		reader: reader,
		writer: writer,
		images: images,
		events: events,
	}
}

// resolve loads a recipe the viewer is allowed to see. Hidden drafts are ErrNotFound.
func resolve(ctx context.Context, reader RecipeReader, viewer *models.Viewer, ref models.RecipeRef) (models.Recipe, error) {
	var (
		recipe models.Recipe
		err    error
	)
	if ref.Slug != "" {
		recipe, err = reader.GetBySlug(ctx, ref.Slug, viewer.ID())
	} else {
		recipe, err = reader.GetByID(ctx, ref.ID, viewer.ID())
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Recipe{}, ErrNotFound
		}
		logger.Log.Errorw("failed to load recipe", "ref", ref.String(), "error", err)
		return models.Recipe{}, err
	}
	if !CanView(recipe.RecipeDB, viewer) {
		return models.Recipe{}, ErrNotFound
	}
	return recipe, nil
}

// listPage runs a visibility-filtered listing and wraps it into a page.
func listPage(ctx context.Context, reader RecipeReader, viewer *models.Viewer, f models.RecipeFilter) (models.RecipePage, error) {
	f.ViewerID = viewer.ID()
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = APIPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	f.Tags = validation.CleanTags(f.Tags)
	// Offsets past MaxInt cannot address any row.
	if f.Page-1 > math.MaxInt/f.PageSize {
		return models.RecipePage{}, ErrNotFound
	}

	recipes, total, err := reader.List(ctx, f)
	if err != nil {
		logger.Log.Errorw("failed to list recipes", "filter", f, "error", err)
		return models.RecipePage{}, err
	}
	if len(recipes) == 0 && f.Page > 1 {
		return models.RecipePage{}, ErrNotFound
	}

	return models.RecipePage{Recipes: recipes, Count: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// List returns the recipes matching f that the viewer may see.
func (s *RecipeService) List(ctx context.Context, viewer *models.Viewer, f models.RecipeFilter) (models.RecipePage, error) {
	f.OnlyOwn = false
	return listPage(ctx, s.reader, viewer, f)
}

// Mine lists the viewer's own recipes.
func (s *RecipeService) Mine(ctx context.Context, viewer *models.Viewer, f models.RecipeFilter) (models.RecipePage, error) {
	if viewer == nil {
		return models.RecipePage{}, ErrUnauthenticated
	}
	f.OnlyOwn = true
	return listPage(ctx, s.reader, viewer, f)
}

// MyDrafts lists the viewer's unpublished recipes.
func (s *RecipeService) MyDrafts(ctx context.Context, viewer *models.Viewer, f models.RecipeFilter) (models.RecipePage, error) {
	if viewer == nil {
		return models.RecipePage{}, ErrUnauthenticated
	}
	f.OnlyOwn = true
	f.Status = models.StatusDraft
	return listPage(ctx, s.reader, viewer, f)
}

// MyFavorites lists the recipes the viewer favorited and can still see.
func (s *RecipeService) MyFavorites(ctx context.Context, viewer *models.Viewer, f models.RecipeFilter) (models.RecipePage, error) {
	if viewer == nil {
		return models.RecipePage{}, ErrUnauthenticated
	}
	f.OnlyOwn = false
	f.FavoritedBy = viewer.UserID
	return listPage(ctx, s.reader, viewer, f)
}

// Get returns a recipe by slug or id if the viewer may see it.
func (s *RecipeService) Get(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef) (models.Recipe, error) {
	return resolve(ctx, s.reader, viewer, ref)
}

// Tags returns the most used tags.
func (s *RecipeService) Tags(ctx context.Context, limit int) ([]models.Tag, error) {
	if limit <= 0 {
		limit = DefaultTagLimit
	}
	tags, err := s.reader.ListTags(ctx, limit)
	if err != nil {
		logger.Log.Errorw("failed to list tags", "error", err)
		return nil, err
	}
	return tags, nil
}

// ByTag lists the visible recipes carrying the tag.
func (s *RecipeService) ByTag(ctx context.Context, viewer *models.Viewer, tagSlug string, f models.RecipeFilter) (models.Tag, models.RecipePage, error) {
	tag, err := s.reader.GetTag(ctx, tagSlug)
	if err != nil {
		return models.Tag{}, models.RecipePage{}, notFound(err)
	}
	f.OnlyOwn = false
	f.TagSlug = tag.Slug
	page, err := listPage(ctx, s.reader, viewer, f)
	return tag, page, err
}

// allocateSlug picks a free slug for title. exclude is the recipe being edited.
func allocateSlug(ctx context.Context, reader RecipeReader, title string, exclude uuid.UUID) (string, error) {
	base := slug.Slugify(title)
	taken, err := reader.SlugsWithBase(ctx, base, exclude)
	if err != nil {
		logger.Log.Errorw("failed to read colliding slugs", "base", base, "error", err)
		return "", err
	}
	return slug.Next(base, taken), nil
}

func cleanInput(in models.RecipeInput) models.RecipeInput {
	in.Title = validation.CleanText(in.Title)
	in.Description = validation.CleanText(in.Description)
	in.Ingredients = validation.CleanText(in.Ingredients)
	in.Instructions = validation.CleanText(in.Instructions)
	in.Tags = validation.CleanTags(in.Tags)
	if in.Difficulty == "" {
		in.Difficulty = models.DifficultyMedium
	}
	return in
}

// storeImage uploads the image when one is attached and returns its URL.
func (s *RecipeService) storeImage(ctx context.Context, upload *models.Upload) (*string, error) {
	if upload == nil {
		return nil, nil
	}
	if s.images == nil {
		return nil, validation.New("image", "Image uploads are disabled.")
	}
	url, err := s.images.Put(ctx, facades.RecipeImage, *upload)
	if err != nil {
		if errors.Is(err, facades.ErrInvalidImage) {
			return nil, validation.New("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		}
		logger.Log.Errorw("failed to store recipe image", "error", err)
		return nil, err
	}
	return &url, nil
}

// Create stores a new recipe authored by the viewer. Status defaults to draft.
func (s *RecipeService) Create(ctx context.Context, viewer *models.Viewer, in models.RecipeInput) (models.Recipe, error) {
	if viewer == nil {
		return models.Recipe{}, ErrUnauthenticated
	}

	in = cleanInput(in)
	if in.Status == "" {
		in.Status = models.StatusDraft
	}
	if err := validation.Struct(in); err != nil {
		return models.Recipe{}, err
	}

	recipeSlug, err := allocateSlug(ctx, s.reader, in.Title, uuid.Nil)
	if err != nil {
		return models.Recipe{}, err
	}

	image, err := s.storeImage(ctx, in.Image)
	if err != nil {
		return models.Recipe{}, err
	}

	recipe := models.RecipeDB{
		RecipeID:     uuid.New(),
		Title:        in.Title,
		Slug:         recipeSlug,
		AuthorID:     viewer.UserID,
		Description:  in.Description,
		Ingredients:  in.Ingredients,
		Instructions: in.Instructions,
		CookingTime:  in.CookingTime,
		Servings:     in.Servings,
		Difficulty:   in.Difficulty,
		Image:        image,
		Status:       in.Status,
	}
	if err := s.writer.Create(ctx, &recipe, in.Tags); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			logger.Log.Infow("slug taken concurrently", "slug", recipeSlug)
			return models.Recipe{}, conflict(err, "recipe")
		}
		logger.Log.Errorw("failed to create recipe", "slug", recipeSlug, "error", err)
		return models.Recipe{}, err
	}

	s.events.Publish(ctx, newEvent(models.EventRecipeCreated, viewer, recipe))
	if recipe.Status == models.StatusPublished {
		s.events.Publish(ctx, newEvent(models.EventRecipePublished, viewer, recipe))
	}

	return resolve(ctx, s.reader, viewer, models.ByID(recipe.RecipeID))
}

// Update applies patch to a recipe owned by the viewer. A title change
// reallocates the slug. Published recipes cannot go back to draft.
func (s *RecipeService) Update(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef, patch models.RecipePatch) (models.Recipe, error) {
	if viewer == nil {
		return models.Recipe{}, ErrUnauthenticated
	}

	current, err := resolve(ctx, s.reader, viewer, ref)
	if err != nil {
		return models.Recipe{}, err
	}
	if err := AuthorizeMutation(viewer, current.AuthorID, ActionEdit); err != nil {
		return models.Recipe{}, err
	}

	in := cleanInput(patch.Apply(current))
	if err := validation.Struct(in); err != nil {
		return models.Recipe{}, err
	}
	if current.Status == models.StatusPublished && in.Status == models.StatusDraft {
		return models.Recipe{}, validation.New("status", "A published recipe cannot be moved back to draft.")
	}

	updated := current.RecipeDB
	if in.Title != current.Title {
		updated.Slug, err = allocateSlug(ctx, s.reader, in.Title, current.RecipeID)
		if err != nil {
			return models.Recipe{}, err
		}
	}

	if in.Image != nil {
		updated.Image, err = s.storeImage(ctx, in.Image)
		if err != nil {
			return models.Recipe{}, err
		}
	}

	updated.Title = in.Title
	updated.Description = in.Description
	updated.Ingredients = in.Ingredients
	updated.Instructions = in.Instructions
	updated.CookingTime = in.CookingTime
	updated.Servings = in.Servings
	updated.Difficulty = in.Difficulty
	updated.Status = in.Status

	if err := s.writer.Update(ctx, &updated, in.Tags); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return models.Recipe{}, conflict(err, "recipe")
		}
		logger.Log.Errorw("failed to update recipe", "recipe_id", updated.RecipeID, "error", err)
		return models.Recipe{}, notFound(err)
	}

	if current.Status == models.StatusDraft && updated.Status == models.StatusPublished {
		s.events.Publish(ctx, newEvent(models.EventRecipePublished, viewer, updated))
	}

	return resolve(ctx, s.reader, viewer, models.ByID(updated.RecipeID))
}

// Delete removes a recipe owned by the viewer together with its comments,
// likes, favorites and tag links.
func (s *RecipeService) Delete(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef) (models.Recipe, error) {
	if viewer == nil {
		return models.Recipe{}, ErrUnauthenticated
	}

	recipe, err := resolve(ctx, s.reader, viewer, ref)
	if err != nil {
		return models.Recipe{}, err
	}
	if err := AuthorizeMutation(viewer, recipe.AuthorID, ActionDelete); err != nil {
		return models.Recipe{}, err
	}

	if err := s.writer.Delete(ctx, recipe.RecipeID); err != nil {
		logger.Log.Errorw("failed to delete recipe", "recipe_id", recipe.RecipeID, "error", err)
		return models.Recipe{}, notFound(err)
	}

	s.events.Publish(ctx, newEvent(models.EventRecipeDeleted, viewer, recipe.RecipeDB))
	return recipe, nil
}

// Publish moves a draft owned by the viewer to published. Publishing a
// published recipe is a no-op.
func (s *RecipeService) Publish(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef) (models.Recipe, error) {
	if viewer == nil {
		return models.Recipe{}, ErrUnauthenticated
	}

	recipe, err := resolve(ctx, s.reader, viewer, ref)
	if err != nil {
		return models.Recipe{}, err
	}
	if err := AuthorizeMutation(viewer, recipe.AuthorID, ActionPublish); err != nil {
		return models.Recipe{}, err
	}
	if recipe.Status == models.StatusPublished {
		return recipe, nil
	}

	if _, err := s.writer.SetStatus(ctx, []string{recipe.Slug}, models.StatusPublished); err != nil {
		logger.Log.Errorw("failed to publish recipe", "slug", recipe.Slug, "error", err)
		return models.Recipe{}, err
	}
	recipe.Status = models.StatusPublished

	s.events.Publish(ctx, newEvent(models.EventRecipePublished, viewer, recipe.RecipeDB))
	return recipe, nil
}
