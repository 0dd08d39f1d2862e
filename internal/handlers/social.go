package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/models"
)

//go:generate mockgen -source=social.go -destination=mock_social.go -package=handlers

// Toggler flips likes and favorites.
type Toggler interface {
	Toggle(ctx context.Context, viewer *models.Viewer, kind models.ToggleKind, ref models.RecipeRef) (models.ToggleResult, error)
}

// CommentLister lists a recipe's comments.
type CommentLister interface {
	Comments(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef) ([]models.Comment, error)
}

// CommentAdder posts comments.
type CommentAdder interface {
	AddComment(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef, text string) (models.Comment, error)
}

// CommentDeleter deletes comments.
type CommentDeleter interface {
	DeleteComment(ctx context.Context, viewer *models.Viewer, commentID uuid.UUID) (models.Comment, error)
}

// LikeResponse is the result of toggle_like.
// swagger:model LikeResponse
type LikeResponse struct {
	// liked or unliked
	// default: liked
	Status     string `json:"status"`
	Liked      bool   `json:"liked"`
	TotalLikes int    `json:"total_likes"`
}

// FavoriteResponse is the result of toggle_favorite.
// swagger:model FavoriteResponse
type FavoriteResponse struct {
	// favorited or unfavorited
	// default: favorited
	Status         string `json:"status"`
	Favorited      bool   `json:"favorited"`
	TotalFavorites int    `json:"total_favorites"`
}

// CommentRequest is the body of add_comment.
// swagger:model CommentRequest
type CommentRequest struct {
	// required: true
	// default: Lovely!
	Text string `json:"text"`
}

// toggleStatus answers 201 when the edge was created and 200 when removed.
func toggleStatus(res models.ToggleResult) int {
	if res.Active() {
		return http.StatusCreated
	}
	return http.StatusOK
}

// NewToggleLikeHandler returns an HTTP handler that likes or unlikes a recipe.
// @Summary Toggle like
// @Tags social
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Recipe slug"
// @Success 201 {object} handlers.LikeResponse "Liked"
// @Success 200 {object} handlers.LikeResponse "Unliked"
// @Failure 401 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /recipes/{slug}/toggle_like/ [post]
func NewToggleLikeHandler(svc Toggler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Toggle(r.Context(), viewerOf(r), models.ToggleLike, slugRef(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		status := "unliked"
		if res.Active() {
			status = "liked"
		}
		writeJSON(w, toggleStatus(res), LikeResponse{Status: status, Liked: res.Active(), TotalLikes: res.Total})
	}
}

// NewToggleFavoriteHandler returns an HTTP handler that adds or removes a favorite.
// @Summary Toggle favorite
// @Tags social
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Recipe slug"
// @Success 201 {object} handlers.FavoriteResponse "Favorited"
// @Success 200 {object} handlers.FavoriteResponse "Unfavorited"
// @Failure 401 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /recipes/{slug}/toggle_favorite/ [post]
func NewToggleFavoriteHandler(svc Toggler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Toggle(r.Context(), viewerOf(r), models.ToggleFavorite, slugRef(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		status := "unfavorited"
		if res.Active() {
			status = "favorited"
		}
		writeJSON(w, toggleStatus(res), FavoriteResponse{Status: status, Favorited: res.Active(), TotalFavorites: res.Total})
	}
}

// NewListCommentsHandler returns an HTTP handler for a recipe's comments.
// @Summary List comments
// @Tags social
// @Produce json
// @Param slug path string true "Recipe slug"
// @Success 200 {array} handlers.CommentResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /recipes/{slug}/comments/ [get]
func NewListCommentsHandler(svc CommentLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comments, err := svc.Comments(r.Context(), viewerOf(r), slugRef(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp := make([]CommentResponse, 0, len(comments))
		for _, c := range comments {
			resp = append(resp, newCommentResponse(c))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// NewAddCommentHandler returns an HTTP handler that posts a comment.
// @Summary Add comment
// @Tags social
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Recipe slug"
// @Param comment body handlers.CommentRequest true "Comment"
// @Success 201 {object} handlers.CommentResponse
// @Failure 400 {object} handlers.ValidationErrorResponse
// @Failure 401 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /recipes/{slug}/add_comment/ [post]
func NewAddCommentHandler(svc CommentAdder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CommentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		comment, err := svc.AddComment(r.Context(), viewerOf(r), slugRef(r), req.Text)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, newCommentResponse(comment))
	}
}

// NewDeleteCommentHandler returns an HTTP handler that deletes a comment.
// @Summary Delete comment
// @Description Only the comment's author may delete it
// @Tags social
// @Security BearerAuth
// @Param id path string true "Comment id"
// @Success 204 "Deleted"
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /comments/{id}/ [delete]
func NewDeleteCommentHandler(svc CommentDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		if _, err := svc.DeleteComment(r.Context(), viewerOf(r), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
