// Package web serves the server-rendered pages: form posts, redirects with flash
// messages and error pages. It shares the services with the REST API.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/middlewares"
	"github.com/sbilibin2017/recipe-share/internal/models"
)

//go:generate mockgen -source=web.go -destination=mock_web.go -package=web

// RecipeService is the recipe side of the site.
type RecipeService interface {
	List(ctx context.Context, viewer *models.Viewer, f models.RecipeFilter) (models.RecipePage, error)
	Get(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef) (models.Recipe, error)
	Create(ctx context.Context, viewer *models.Viewer, in models.RecipeInput) (models.Recipe, error)
	Update(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef, patch models.RecipePatch) (models.Recipe, error)
	Delete(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef) (models.Recipe, error)
	Publish(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef) (models.Recipe, error)
	MyDrafts(ctx context.Context, viewer *models.Viewer, f models.RecipeFilter) (models.RecipePage, error)
	Tags(ctx context.Context, limit int) ([]models.Tag, error)
	ByTag(ctx context.Context, viewer *models.Viewer, tagSlug string, f models.RecipeFilter) (models.Tag, models.RecipePage, error)
}

// SocialService covers likes, favorites and comments.
type SocialService interface {
	Toggle(ctx context.Context, viewer *models.Viewer, kind models.ToggleKind, ref models.RecipeRef) (models.ToggleResult, error)
	Comments(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef) ([]models.Comment, error)
	AddComment(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef, text string) (models.Comment, error)
	DeleteComment(ctx context.Context, viewer *models.Viewer, commentID uuid.UUID) (models.Comment, error)
}

// UserService covers profile pages.
type UserService interface {
	Profile(ctx context.Context, viewer *models.Viewer, username string) (models.Profile, error)
	Recipes(ctx context.Context, viewer *models.Viewer, username string, f models.RecipeFilter) (models.UserDB, models.RecipePage, error)
	Favorites(ctx context.Context, viewer *models.Viewer, username string, f models.RecipeFilter) (models.UserDB, models.RecipePage, error)
	Me(ctx context.Context, viewer *models.Viewer) (models.UserDB, error)
	UpdateProfile(ctx context.Context, viewer *models.Viewer, in models.ProfileInput) (models.UserDB, error)
}

// AccountService covers signup, login and logout.
type AccountService interface {
	Register(ctx context.Context, in models.RegisterInput) (models.UserDB, error)
	Login(ctx context.Context, login, password string) (models.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// FlashStore queues one-shot messages under a browser key.
type FlashStore interface {
	AddFlash(ctx context.Context, id string, flash models.Flash) error
	PopFlashes(ctx context.Context, id string) ([]models.Flash, error)
}

// Options tune cookies written by the site.
type Options struct {
	SessionTTL   time.Duration
	SecureCookie bool
	AuthLimit    func(http.Handler) http.Handler // throttles signup and login posts; nil disables
}

// Handler renders the site.
type Handler struct {
	recipes  RecipeService
	social   SocialService
	users    UserService
	accounts AccountService
	flashes  FlashStore
	render   *Renderer
	opts     Options
}

// NewHandler parses the page templates and returns a Handler.
func NewHandler(recipes RecipeService, social SocialService, users UserService, accounts AccountService, flashes FlashStore, opts Options) (*Handler, error) {
	render, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Handler{
		recipes:  recipes,
		social:   social,
		users:    users,
		accounts: accounts,
		flashes:  flashes,
		render:   render,
		opts:     opts,
	}, nil
}

// Routes registers the pages on r. Every POST runs inside tx.
func (h *Handler) Routes(r chi.Router, tx func(http.Handler) http.Handler) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/recipes/", http.StatusFound)
	})

	r.Get("/recipes/", h.recipeList)
	r.Get("/recipes/tag/{tag}/", h.tagRecipes)
	r.Get("/recipes/{slug}/", h.recipeDetail)

	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireLogin)
		r.Get("/recipes/create", h.recipeCreateForm)
		r.Get("/recipes/my/drafts/", h.myDrafts)
		r.Get("/recipes/{slug}/edit", h.recipeEditForm)
		r.Get("/recipes/{slug}/delete", h.recipeDeleteConfirm)
		r.Get("/users/profile/edit", h.profileEditForm)

		r.Group(func(r chi.Router) {
			r.Use(tx)
			r.Post("/recipes/create", h.recipeCreate)
			r.Post("/recipes/{slug}/edit", h.recipeEdit)
			r.Post("/recipes/{slug}/delete", h.recipeDelete)
			r.Post("/recipes/{slug}/comment", h.addComment)
			r.Post("/recipes/{slug}/publish", h.publish)
			r.Post("/comments/{id}/delete", h.deleteComment)
			r.Post("/users/recipe/{id}/favorite", h.toggleFavorite)
			r.Post("/users/profile/edit", h.profileEdit)
		})
	})

	// Like answers JSON clients itself, so it is not behind RequireLogin.
	// The segment holds a recipe id; it keeps the {slug} name chi already
	// registered at this position.
	r.With(tx).Post("/recipes/{slug}/like", h.toggleLike)

	r.Get("/users/{username}/", h.profile)
	r.Get("/users/{username}/recipes/", h.userRecipes)
	r.Get("/users/{username}/favorites/", h.userFavorites)

	r.Get("/accounts/signup", h.signupForm)
	r.Get("/accounts/login", h.loginForm)
	r.Group(func(r chi.Router) {
		r.Use(tx)
		r.Post("/accounts/logout", h.logout)
		r.Group(func(r chi.Router) {
			if h.opts.AuthLimit != nil {
				r.Use(h.opts.AuthLimit)
			}
			r.Post("/accounts/signup", h.signup)
			r.Post("/accounts/login", h.login)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.errorPage(w, r, http.StatusNotFound)
	})
}

func viewerOf(r *http.Request) *models.Viewer {
	return middlewares.ViewerFromContext(r.Context())
}
