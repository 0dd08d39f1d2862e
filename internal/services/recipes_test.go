package services_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/facades"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/repositories"
	"github.com/sbilibin2017/recipe-share/internal/services"
	"github.com/sbilibin2017/recipe-share/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recipeMocks struct {
	reader *services.MockRecipeReader
	writer *services.MockRecipeWriter
	images *services.MockImageStore
	kafka  *services.MockKafkaWriter
}

func newRecipeService(t *testing.T) (*services.RecipeService, recipeMocks) {
	ctrl := gomock.NewController(t)
	m := recipeMocks{
		reader: services.NewMockRecipeReader(ctrl),
		writer: services.NewMockRecipeWriter(ctrl),
		images: services.NewMockImageStore(ctrl),
		kafka:  services.NewMockKafkaWriter(ctrl),
	}
	events := services.NewEventPublisher(m.kafka)
	return services.NewRecipeService(m.reader, m.writer, m.images, events), m
}

func viewerOf(id uuid.UUID) *models.Viewer {
	return &models.Viewer{UserID: id, Username: "user-" + id.String()[:4]}
}

func recipeOf(author uuid.UUID, recipeSlug string, status models.Status) models.Recipe {
	return models.Recipe{RecipeDB: models.RecipeDB{
		RecipeID:     uuid.New(),
		Title:        "Tomato Soup",
		Slug:         recipeSlug,
		AuthorID:     author,
		Ingredients:  "tomatoes",
		Instructions: "simmer",
		CookingTime:  30,
		Servings:     2,
		Difficulty:   models.DifficultyEasy,
		Status:       status,
	}, Tags: []string{"soup"}}
}

func validInput() models.RecipeInput {
	return models.RecipeInput{
		Title:        "Pasta",
		Ingredients:  "pasta, salt",
		Instructions: "boil",
		CookingTime:  12,
		Servings:     2,
		Difficulty:   models.DifficultyEasy,
		Tags:         []string{"Italian", " quick "},
	}
}

func TestCanView(t *testing.T) {
	author := uuid.New()
	draft := recipeOf(author, "d", models.StatusDraft).RecipeDB
	published := recipeOf(author, "p", models.StatusPublished).RecipeDB

	assert.False(t, services.CanView(draft, nil))
	assert.False(t, services.CanView(draft, viewerOf(uuid.New())))
	assert.True(t, services.CanView(draft, viewerOf(author)))
	assert.True(t, services.CanView(published, nil))
	assert.True(t, services.CanView(published, viewerOf(uuid.New())))
}

func TestAuthorizeMutation(t *testing.T) {
	owner := uuid.New()

	assert.ErrorIs(t, services.AuthorizeMutation(nil, owner, services.ActionEdit), services.ErrUnauthenticated)
	assert.ErrorIs(t, services.AuthorizeMutation(viewerOf(uuid.New()), owner, services.ActionDelete), services.ErrPermissionDenied)
	assert.NoError(t, services.AuthorizeMutation(viewerOf(owner), owner, services.ActionPublish))

	assert.ErrorIs(t, services.AuthorizeStaff(viewerOf(owner)), services.ErrPermissionDenied)
	assert.NoError(t, services.AuthorizeStaff(services.SystemActor))
}

func TestRecipeService_GetDraftVisibility(t *testing.T) {
	author := uuid.New()
	draft := recipeOf(author, "secret", models.StatusDraft)

	t.Run("anonymous gets not found", func(t *testing.T) {
		svc, m := newRecipeService(t)
		m.reader.EXPECT().GetBySlug(gomock.Any(), "secret", uuid.Nil).Return(draft, nil)

		_, err := svc.Get(context.Background(), nil, models.BySlug("secret"))
		assert.ErrorIs(t, err, services.ErrNotFound)
	})

	t.Run("other user gets not found", func(t *testing.T) {
		svc, m := newRecipeService(t)
		other := viewerOf(uuid.New())
		m.reader.EXPECT().GetBySlug(gomock.Any(), "secret", other.UserID).Return(draft, nil)

		_, err := svc.Get(context.Background(), other, models.BySlug("secret"))
		assert.ErrorIs(t, err, services.ErrNotFound)
	})

	t.Run("author sees draft", func(t *testing.T) {
		svc, m := newRecipeService(t)
		m.reader.EXPECT().GetBySlug(gomock.Any(), "secret", author).Return(draft, nil)

		got, err := svc.Get(context.Background(), viewerOf(author), models.BySlug("secret"))
		require.NoError(t, err)
		assert.Equal(t, draft.RecipeID, got.RecipeID)
	})

	t.Run("missing", func(t *testing.T) {
		svc, m := newRecipeService(t)
		id := uuid.New()
		m.reader.EXPECT().GetByID(gomock.Any(), id, uuid.Nil).Return(models.Recipe{}, repositories.ErrNotFound)

		_, err := svc.Get(context.Background(), nil, models.ByID(id))
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}

func TestRecipeService_Create(t *testing.T) {
	author := viewerOf(uuid.New())

	t.Run("anonymous", func(t *testing.T) {
		svc, _ := newRecipeService(t)
		_, err := svc.Create(context.Background(), nil, validInput())
		assert.ErrorIs(t, err, services.ErrUnauthenticated)
	})

	t.Run("validation", func(t *testing.T) {
		svc, _ := newRecipeService(t)
		in := validInput()
		in.Title = "<b></b>"
		in.CookingTime = 0

		_, err := svc.Create(context.Background(), author, in)
		var verr *validation.Error
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "title")
		assert.Contains(t, verr.Fields, "cooking_time")
	})

	t.Run("second pasta gets pasta-2 as draft", func(t *testing.T) {
		svc, m := newRecipeService(t)

		m.reader.EXPECT().SlugsWithBase(gomock.Any(), "pasta", uuid.Nil).Return([]string{"pasta"}, nil)
		var created models.RecipeDB
		m.writer.EXPECT().
			Create(gomock.Any(), gomock.Any(), []string{"italian", "quick"}).
			DoAndReturn(func(_ context.Context, r *models.RecipeDB, _ []string) error {
				created = *r
				return nil
			})
		m.kafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(nil)
		m.reader.EXPECT().
			GetByID(gomock.Any(), gomock.Any(), author.UserID).
			DoAndReturn(func(_ context.Context, id, _ uuid.UUID) (models.Recipe, error) {
				return models.Recipe{RecipeDB: created}, nil
			})

		got, err := svc.Create(context.Background(), author, validInput())
		require.NoError(t, err)
		assert.Equal(t, "pasta-2", got.Slug)
		assert.Equal(t, models.StatusDraft, got.Status)
		assert.Equal(t, author.UserID, got.AuthorID)
	})

	t.Run("concurrent slug collision is a conflict", func(t *testing.T) {
		svc, m := newRecipeService(t)

		m.reader.EXPECT().SlugsWithBase(gomock.Any(), "pasta", uuid.Nil).Return(nil, nil)
		m.writer.EXPECT().
			Create(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&repositories.DuplicateError{Constraint: "recipes_slug_key", Err: errors.New("23505")})

		_, err := svc.Create(context.Background(), author, validInput())
		assert.ErrorIs(t, err, services.ErrConflict)
	})

	t.Run("image is stored", func(t *testing.T) {
		svc, m := newRecipeService(t)
		in := validInput()
		in.Image = &models.Upload{Filename: "p.png", Content: strings.NewReader("png")}

		m.reader.EXPECT().SlugsWithBase(gomock.Any(), "pasta", uuid.Nil).Return(nil, nil)
		m.images.EXPECT().Put(gomock.Any(), facades.RecipeImage, gomock.Any()).Return("http://cdn/recipes/x.jpg", nil)
		m.writer.EXPECT().
			Create(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, r *models.RecipeDB, _ []string) error {
				require.NotNil(t, r.Image)
				assert.Equal(t, "http://cdn/recipes/x.jpg", *r.Image)
				return nil
			})
		m.kafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(nil)
		m.reader.EXPECT().GetByID(gomock.Any(), gomock.Any(), author.UserID).Return(recipeOf(author.UserID, "pasta", models.StatusDraft), nil)

		_, err := svc.Create(context.Background(), author, in)
		require.NoError(t, err)
	})

	t.Run("invalid image", func(t *testing.T) {
		svc, m := newRecipeService(t)
		in := validInput()
		in.Image = &models.Upload{Filename: "x.txt", Content: strings.NewReader("text")}

		m.reader.EXPECT().SlugsWithBase(gomock.Any(), "pasta", uuid.Nil).Return(nil, nil)
		m.images.EXPECT().Put(gomock.Any(), facades.RecipeImage, gomock.Any()).Return("", facades.ErrInvalidImage)

		_, err := svc.Create(context.Background(), author, in)
		var verr *validation.Error
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "image")
	})

	t.Run("kafka failure does not fail the request", func(t *testing.T) {
		svc, m := newRecipeService(t)

		m.reader.EXPECT().SlugsWithBase(gomock.Any(), "pasta", uuid.Nil).Return(nil, nil)
		m.writer.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		m.kafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
		m.reader.EXPECT().GetByID(gomock.Any(), gomock.Any(), author.UserID).Return(recipeOf(author.UserID, "pasta", models.StatusDraft), nil)

		_, err := svc.Create(context.Background(), author, validInput())
		assert.NoError(t, err)
	})
}

func TestRecipeService_Update(t *testing.T) {
	author := viewerOf(uuid.New())

	t.Run("title change reallocates slug excluding itself", func(t *testing.T) {
		svc, m := newRecipeService(t)
		current := recipeOf(author.UserID, "tomato-soup", models.StatusDraft)
		title := "Pasta"

		m.reader.EXPECT().GetBySlug(gomock.Any(), "tomato-soup", author.UserID).Return(current, nil)
		m.reader.EXPECT().SlugsWithBase(gomock.Any(), "pasta", current.RecipeID).Return([]string{"pasta", "pasta-3"}, nil)
		m.writer.EXPECT().
			Update(gomock.Any(), gomock.Any(), []string{"soup"}).
			DoAndReturn(func(_ context.Context, r *models.RecipeDB, _ []string) error {
				assert.Equal(t, "pasta-4", r.Slug)
				assert.Equal(t, "Pasta", r.Title)
				assert.Equal(t, 30, r.CookingTime)
				return nil
			})
		m.reader.EXPECT().GetByID(gomock.Any(), current.RecipeID, author.UserID).Return(current, nil)

		_, err := svc.Update(context.Background(), author, models.BySlug("tomato-soup"), models.RecipePatch{Title: &title})
		require.NoError(t, err)
	})

	t.Run("same title keeps slug", func(t *testing.T) {
		svc, m := newRecipeService(t)
		current := recipeOf(author.UserID, "tomato-soup", models.StatusDraft)
		servings := 4

		m.reader.EXPECT().GetBySlug(gomock.Any(), "tomato-soup", author.UserID).Return(current, nil)
		m.writer.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, r *models.RecipeDB, _ []string) error {
				assert.Equal(t, "tomato-soup", r.Slug)
				assert.Equal(t, 4, r.Servings)
				return nil
			})
		m.reader.EXPECT().GetByID(gomock.Any(), current.RecipeID, author.UserID).Return(current, nil)

		_, err := svc.Update(context.Background(), author, models.BySlug("tomato-soup"), models.RecipePatch{Servings: &servings})
		require.NoError(t, err)
	})

	t.Run("other user is denied on published recipe", func(t *testing.T) {
		svc, m := newRecipeService(t)
		other := viewerOf(uuid.New())
		current := recipeOf(author.UserID, "tomato-soup", models.StatusPublished)

		m.reader.EXPECT().GetBySlug(gomock.Any(), "tomato-soup", other.UserID).Return(current, nil)

		_, err := svc.Update(context.Background(), other, models.BySlug("tomato-soup"), models.RecipePatch{})
		assert.ErrorIs(t, err, services.ErrPermissionDenied)
	})

	t.Run("published cannot go back to draft", func(t *testing.T) {
		svc, m := newRecipeService(t)
		current := recipeOf(author.UserID, "tomato-soup", models.StatusPublished)
		draft := models.StatusDraft

		m.reader.EXPECT().GetBySlug(gomock.Any(), "tomato-soup", author.UserID).Return(current, nil)

		_, err := svc.Update(context.Background(), author, models.BySlug("tomato-soup"), models.RecipePatch{Status: &draft})
		var verr *validation.Error
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "status")
	})
}

func TestRecipeService_DeleteAndPublish(t *testing.T) {
	author := viewerOf(uuid.New())

	t.Run("delete by author", func(t *testing.T) {
		svc, m := newRecipeService(t)
		current := recipeOf(author.UserID, "tomato-soup", models.StatusPublished)

		m.reader.EXPECT().GetBySlug(gomock.Any(), "tomato-soup", author.UserID).Return(current, nil)
		m.writer.EXPECT().Delete(gomock.Any(), current.RecipeID).Return(nil)
		m.kafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(nil)

		_, err := svc.Delete(context.Background(), author, models.BySlug("tomato-soup"))
		assert.NoError(t, err)
	})

	t.Run("delete by other user", func(t *testing.T) {
		svc, m := newRecipeService(t)
		other := viewerOf(uuid.New())
		current := recipeOf(author.UserID, "tomato-soup", models.StatusPublished)

		m.reader.EXPECT().GetBySlug(gomock.Any(), "tomato-soup", other.UserID).Return(current, nil)

		_, err := svc.Delete(context.Background(), other, models.BySlug("tomato-soup"))
		assert.ErrorIs(t, err, services.ErrPermissionDenied)
	})

	t.Run("publish draft", func(t *testing.T) {
		svc, m := newRecipeService(t)
		current := recipeOf(author.UserID, "tomato-soup", models.StatusDraft)

		m.reader.EXPECT().GetBySlug(gomock.Any(), "tomato-soup", author.UserID).Return(current, nil)
		m.writer.EXPECT().SetStatus(gomock.Any(), []string{"tomato-soup"}, models.StatusPublished).Return(int64(1), nil)
		m.kafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(nil)

		got, err := svc.Publish(context.Background(), author, models.BySlug("tomato-soup"))
		require.NoError(t, err)
		assert.Equal(t, models.StatusPublished, got.Status)
	})

	t.Run("publish twice is a no-op", func(t *testing.T) {
		svc, m := newRecipeService(t)
		current := recipeOf(author.UserID, "tomato-soup", models.StatusPublished)

		m.reader.EXPECT().GetBySlug(gomock.Any(), "tomato-soup", author.UserID).Return(current, nil)

		_, err := svc.Publish(context.Background(), author, models.BySlug("tomato-soup"))
		assert.NoError(t, err)
	})
}

func TestRecipeService_Listings(t *testing.T) {
	viewer := viewerOf(uuid.New())

	t.Run("list clamps page size and carries viewer", func(t *testing.T) {
		svc, m := newRecipeService(t)
		m.reader.EXPECT().
			List(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, f models.RecipeFilter) ([]models.Recipe, int, error) {
				assert.Equal(t, viewer.UserID, f.ViewerID)
				assert.Equal(t, services.MaxPageSize, f.PageSize)
				assert.Equal(t, 1, f.Page)
				assert.Equal(t, []string{"soup"}, f.Tags)
				return []models.Recipe{{}}, 1, nil
			})

		page, err := svc.List(context.Background(), viewer, models.RecipeFilter{PageSize: 1000, Tags: []string{" Soup ", ""}})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Count)
	})

	t.Run("page past the end", func(t *testing.T) {
		svc, m := newRecipeService(t)
		m.reader.EXPECT().List(gomock.Any(), gomock.Any()).Return([]models.Recipe{}, 3, nil)

		_, err := svc.List(context.Background(), nil, models.RecipeFilter{Page: 5})
		assert.ErrorIs(t, err, services.ErrNotFound)
	})

	t.Run("page with overflowing offset", func(t *testing.T) {
		svc, _ := newRecipeService(t)

		_, err := svc.List(context.Background(), nil, models.RecipeFilter{Page: math.MaxInt/9 + 2, PageSize: 9})
		assert.ErrorIs(t, err, services.ErrNotFound)

		_, err = svc.List(context.Background(), nil, models.RecipeFilter{Page: math.MaxInt})
		assert.ErrorIs(t, err, services.ErrNotFound)
	})

	t.Run("my drafts requires login", func(t *testing.T) {
		svc, _ := newRecipeService(t)
		_, err := svc.MyDrafts(context.Background(), nil, models.RecipeFilter{})
		assert.ErrorIs(t, err, services.ErrUnauthenticated)

		_, err = svc.Mine(context.Background(), nil, models.RecipeFilter{})
		assert.ErrorIs(t, err, services.ErrUnauthenticated)

		_, err = svc.MyFavorites(context.Background(), nil, models.RecipeFilter{})
		assert.ErrorIs(t, err, services.ErrUnauthenticated)
	})

	t.Run("my drafts filter", func(t *testing.T) {
		svc, m := newRecipeService(t)
		m.reader.EXPECT().
			List(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, f models.RecipeFilter) ([]models.Recipe, int, error) {
				assert.True(t, f.OnlyOwn)
				assert.Equal(t, models.StatusDraft, f.Status)
				return nil, 0, nil
			})

		_, err := svc.MyDrafts(context.Background(), viewer, models.RecipeFilter{})
		assert.NoError(t, err)
	})

	t.Run("by unknown tag", func(t *testing.T) {
		svc, m := newRecipeService(t)
		m.reader.EXPECT().GetTag(gomock.Any(), "nope").Return(models.Tag{}, repositories.ErrNotFound)

		_, _, err := svc.ByTag(context.Background(), nil, "nope", models.RecipeFilter{})
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}
