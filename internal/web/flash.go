package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/middlewares"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/services"
)

// FlashCookie holds the key flash messages are queued under.
const FlashCookie = "messages"

// flash queues a message for the next page this browser renders. The key
// cookie is created on first use.
func (h *Handler) flash(w http.ResponseWriter, r *http.Request, level, message string) {
	id := ""
	if c, err := r.Cookie(FlashCookie); err == nil && c.Value != "" {
		id = c.Value
	} else {
		id = strings.ReplaceAll(uuid.NewString(), "-", "")
		http.SetCookie(w, &http.Cookie{
			Name:     FlashCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.opts.SecureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}

	if err := h.flashes.AddFlash(r.Context(), id, models.Flash{Level: level, Message: message}); err != nil {
		logger.Log.Errorw("failed to queue flash", "error", err)
	}
}

// popFlashes returns the messages queued for this browser.
func (h *Handler) popFlashes(r *http.Request) []models.Flash {
	c, err := r.Cookie(FlashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	flashes, err := h.flashes.PopFlashes(r.Context(), c.Value)
	if err != nil {
		logger.Log.Errorw("failed to read flashes", "error", err)
		return nil
	}
	return flashes
}

// page renders a full page with the viewer and pending flashes filled in.
func (h *Handler) page(w http.ResponseWriter, r *http.Request, status int, name string, v view) {
	v.Viewer = viewerOf(r)
	v.Flashes = h.popFlashes(r)
	h.render.Render(w, r, status, name, v)
}

func (h *Handler) errorPage(w http.ResponseWriter, r *http.Request, status int) {
	v := view{Status: status, Title: http.StatusText(status)}
	switch status {
	case http.StatusNotFound:
		v.Message = "The page you are looking for does not exist."
	case http.StatusForbidden:
		v.Message = "You do not have permission to perform this action."
	default:
		v.Message = "Something went wrong on our side."
	}
	h.page(w, r, status, "error.html", v)
}

// fail turns a service error into the matching page or redirect.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		h.errorPage(w, r, http.StatusNotFound)
	case errors.Is(err, services.ErrPermissionDenied):
		h.errorPage(w, r, http.StatusForbidden)
	case errors.Is(err, services.ErrUnauthenticated):
		redirectToLogin(w, r)
	case errors.Is(err, services.ErrConflict):
		// A 4xx status also makes the transaction middleware roll back.
		h.page(w, r, http.StatusConflict, "error.html", view{
			Status:  http.StatusConflict,
			Title:   http.StatusText(http.StatusConflict),
			Message: strings.TrimPrefix(err.Error(), services.ErrConflict.Error()+": "),
		})
	default:
		logger.Log.Errorw("request failed",
			"path", r.URL.Path,
			"request_id", middlewares.RequestIDFromContext(r.Context()),
			"error", err,
		)
		h.errorPage(w, r, http.StatusInternalServerError)
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, middlewares.LoginURL+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
}

// localPath reports whether target stays on this site.
func localPath(target string) bool {
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.HasPrefix(target, "/\\")
}

// backTo picks the redirect target after a toggle: the next form value, the
// Referer when it points at this host, or the home page.
func backTo(r *http.Request) string {
	if next := r.PostFormValue("next"); localPath(next) {
		return next
	}
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" && (ref.Host == "" || ref.Host == r.Host) {
		if target := ref.RequestURI(); localPath(target) {
			return target
		}
	}
	return "/"
}

func recipeURL(slug string) string {
	return "/recipes/" + slug + "/"
}
