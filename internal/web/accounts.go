package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/sbilibin2017/recipe-share/internal/handlers"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/middlewares"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/services"
	"github.com/sbilibin2017/recipe-share/internal/validation"
)

func (h *Handler) signupForm(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, "signup.html", view{Title: "Sign up", Form: url.Values{}})
}

// signup registers the user and logs them straight in.
func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, maxFormBytes); err != nil {
		h.errorPage(w, r, http.StatusBadRequest)
		return
	}
	form := r.PostForm
	rerender := func(fields map[string]string) {
		if msg, ok := fields["password"]; ok {
			fields["password1"] = msg
		}
		form.Del("password1")
		form.Del("password2")
		h.page(w, r, http.StatusOK, "signup.html", view{Title: "Sign up", Form: form, Errors: fields})
	}

	if form.Get("password1") != form.Get("password2") {
		rerender(map[string]string{"password2": "The two password fields didn't match."})
		return
	}

	user, err := h.accounts.Register(r.Context(), models.RegisterInput{
		Username:  form.Get("username"),
		Email:     form.Get("email"),
		Password:  form.Get("password1"),
		FirstName: form.Get("first_name"),
		LastName:  form.Get("last_name"),
	})
	if err != nil {
		var verr *validation.Error
		switch {
		case errors.As(err, &verr):
			rerender(verr.Fields)
		case errors.Is(err, services.ErrConflict):
			rerender(map[string]string{"username": "A user with that username or email already exists."})
		default:
			h.fail(w, r, err)
		}
		return
	}

	session, err := h.accounts.Login(r.Context(), user.Username, form.Get("password1"))
	if err != nil {
		logger.Log.Errorw("failed to log in new user", "username", user.Username, "error", err)
		http.Redirect(w, r, middlewares.LoginURL, http.StatusFound)
		return
	}
	http.SetCookie(w, handlers.SessionCookie(session.ID, h.opts.SessionTTL, h.opts.SecureCookie))
	h.flash(w, r, models.FlashSuccess, "Welcome, "+user.Username+"!")
	http.Redirect(w, r, "/recipes/", http.StatusFound)
}

func (h *Handler) loginForm(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, "login.html", view{
		Title: "Log in",
		Form:  url.Values{},
		Next:  r.URL.Query().Get("next"),
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, maxFormBytes); err != nil {
		h.errorPage(w, r, http.StatusBadRequest)
		return
	}
	next := r.PostFormValue("next")

	session, err := h.accounts.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.page(w, r, http.StatusOK, "login.html", view{
				Title:  "Log in",
				Form:   url.Values{"username": {r.PostFormValue("username")}},
				Errors: map[string]string{"__all__": "Please enter a correct username and password. Note that both fields may be case-sensitive."},
				Next:   next,
			})
			return
		}
		h.fail(w, r, err)
		return
	}

	http.SetCookie(w, handlers.SessionCookie(session.ID, h.opts.SessionTTL, h.opts.SecureCookie))
	if !localPath(next) {
		next = "/recipes/"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(middlewares.SessionCookie); err == nil {
		if err := h.accounts.Logout(r.Context(), c.Value); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	http.SetCookie(w, handlers.ClearSessionCookie())
	http.Redirect(w, r, "/recipes/", http.StatusFound)
}
