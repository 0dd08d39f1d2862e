package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/recipe-share/internal/models"
)

//go:generate mockgen -source=admin.go -destination=mock_admin.go -package=handlers

// Operator defines the staff-only actions.
type Operator interface {
	Publish(ctx context.Context, actor *models.Viewer, slugs []string) (int64, error)
	Draft(ctx context.Context, actor *models.Viewer, slugs []string) (int64, error)
	Duplicate(ctx context.Context, actor *models.Viewer, recipeSlug string) (models.Recipe, error)
	ResetLikes(ctx context.Context, actor *models.Viewer, recipeSlug string) (int64, error)
	Stats(ctx context.Context, actor *models.Viewer) (models.RecipeStats, error)
}

// SlugsRequest names the recipes of a bulk action.
// swagger:model SlugsRequest
type SlugsRequest struct {
	// required: true
	Slugs []string `json:"slugs"`
}

// CountResponse reports how many rows a bulk action changed.
// swagger:model CountResponse
type CountResponse struct {
	Updated int64 `json:"updated"`
}

func newBulkStatusHandler(action func(ctx context.Context, actor *models.Viewer, slugs []string) (int64, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SlugsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		n, err := action(r.Context(), viewerOf(r), req.Slugs)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, CountResponse{Updated: n})
	}
}

// NewAdminPublishHandler returns an HTTP handler that bulk publishes recipes.
// @Summary Mark recipes as published
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slugs body handlers.SlugsRequest true "Recipe slugs"
// @Success 200 {object} handlers.CountResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Router /admin/recipes/publish/ [post]
func NewAdminPublishHandler(svc Operator) http.HandlerFunc {
	return newBulkStatusHandler(svc.Publish)
}

// NewAdminDraftHandler returns an HTTP handler that bulk moves recipes to draft.
// @Summary Mark recipes as draft
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slugs body handlers.SlugsRequest true "Recipe slugs"
// @Success 200 {object} handlers.CountResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Router /admin/recipes/draft/ [post]
func NewAdminDraftHandler(svc Operator) http.HandlerFunc {
	return newBulkStatusHandler(svc.Draft)
}

// NewAdminDuplicateHandler returns an HTTP handler that copies a recipe into a new draft.
// @Summary Duplicate recipe
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Recipe slug"
// @Success 201 {object} handlers.RecipeResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /admin/recipes/{slug}/duplicate/ [post]
func NewAdminDuplicateHandler(svc Operator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipe, err := svc.Duplicate(r.Context(), viewerOf(r), chi.URLParam(r, "slug"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, newRecipeResponse(recipe))
	}
}

// NewAdminResetLikesHandler returns an HTTP handler that removes every like of a recipe.
// @Summary Reset likes
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Recipe slug"
// @Success 200 {object} handlers.CountResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /admin/recipes/{slug}/reset_likes/ [post]
func NewAdminResetLikesHandler(svc Operator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.ResetLikes(r.Context(), viewerOf(r), chi.URLParam(r, "slug"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, CountResponse{Updated: n})
	}
}

// NewAdminStatsHandler returns an HTTP handler for the recipe counters.
// @Summary Recipe statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.RecipeStats
// @Failure 403 {object} handlers.ErrorResponse
// @Router /admin/stats/ [get]
func NewAdminStatsHandler(svc Operator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context(), viewerOf(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
