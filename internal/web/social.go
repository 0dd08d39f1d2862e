package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/middlewares"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/services"
	"github.com/sbilibin2017/recipe-share/internal/validation"
)

// LikeResponse is what JSON clients of the like toggle receive.
type LikeResponse struct {
	Liked      bool `json:"liked"`
	TotalLikes int  `json:"total_likes"`
}

// wantsJSON reports whether the client asked for JSON in Accept.
func wantsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == "application/json" {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request) {
	asJSON := wantsJSON(r)

	recipeID, err := uuid.Parse(chi.URLParam(r, "slug"))
	if err != nil {
		if asJSON {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		h.errorPage(w, r, http.StatusNotFound)
		return
	}

	res, err := h.social.Toggle(r.Context(), viewerOf(r), models.ToggleLike, models.ByID(recipeID))
	if err != nil {
		if asJSON {
			switch {
			case errors.Is(err, services.ErrUnauthenticated):
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			case errors.Is(err, services.ErrNotFound):
				writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			default:
				h.fail(w, r, err)
			}
			return
		}
		if errors.Is(err, services.ErrUnauthenticated) {
			// The like URL only accepts POST, so come back to the page the form was on.
			http.Redirect(w, r, middlewares.LoginURL+"?next="+url.QueryEscape(backTo(r)), http.StatusFound)
			return
		}
		h.fail(w, r, err)
		return
	}

	if asJSON {
		writeJSON(w, http.StatusOK, LikeResponse{Liked: res.Active(), TotalLikes: res.Total})
		return
	}
	http.Redirect(w, r, recipeURL(res.Recipe.Slug), http.StatusFound)
}

func (h *Handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	recipeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.errorPage(w, r, http.StatusNotFound)
		return
	}
	if err := parseForm(w, r, maxFormBytes); err != nil {
		h.errorPage(w, r, http.StatusBadRequest)
		return
	}

	res, err := h.social.Toggle(r.Context(), viewerOf(r), models.ToggleFavorite, models.ByID(recipeID))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if res.Active() {
		h.flash(w, r, models.FlashSuccess, fmt.Sprintf("'%s' added to favorites", res.Recipe.Title))
	} else {
		h.flash(w, r, models.FlashInfo, fmt.Sprintf("'%s' removed from favorites", res.Recipe.Title))
	}
	http.Redirect(w, r, backTo(r), http.StatusFound)
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	recipeSlug := chi.URLParam(r, "slug")
	if err := parseForm(w, r, maxFormBytes); err != nil {
		h.errorPage(w, r, http.StatusBadRequest)
		return
	}

	_, err := h.social.AddComment(r.Context(), viewerOf(r), models.BySlug(recipeSlug), r.PostFormValue("text"))
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		h.flash(w, r, models.FlashError, "Comment: "+verr.Fields["text"])
	case err != nil:
		h.fail(w, r, err)
		return
	default:
		h.flash(w, r, models.FlashSuccess, "Comment added successfully!")
	}
	http.Redirect(w, r, recipeURL(recipeSlug), http.StatusFound)
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.errorPage(w, r, http.StatusNotFound)
		return
	}

	comment, err := h.social.DeleteComment(r.Context(), viewerOf(r), commentID)
	switch {
	case errors.Is(err, services.ErrPermissionDenied):
		h.flash(w, r, models.FlashError, "You don't have permission to delete this comment!")
	case err != nil:
		h.fail(w, r, err)
		return
	default:
		h.flash(w, r, models.FlashSuccess, "Comment deleted!")
	}
	http.Redirect(w, r, recipeURL(comment.RecipeSlug), http.StatusFound)
}
