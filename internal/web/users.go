package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/recipe-share/internal/facades"
	"github.com/sbilibin2017/recipe-share/internal/handlers"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/validation"
)

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.Profile(r.Context(), viewerOf(r), chi.URLParam(r, "username"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, http.StatusOK, "profile.html", view{Title: profile.User.Username, Profile: profile, User: profile.User})
}

func (h *Handler) userRecipes(w http.ResponseWriter, r *http.Request) {
	f := models.RecipeFilter{Page: atoi(r.URL.Query().Get("page")), PageSize: listPageSize}
	user, page, err := h.users.Recipes(r.Context(), viewerOf(r), chi.URLParam(r, "username"), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, http.StatusOK, "recipe_list.html", view{
		Title:   "Recipes by " + user.Username,
		Heading: "Recipes by " + fullName(user.FirstName, user.LastName, user.Username),
		User:    user,
		Recipes: page.Recipes,
		Page:    &page,
	})
}

func (h *Handler) userFavorites(w http.ResponseWriter, r *http.Request) {
	f := models.RecipeFilter{Page: atoi(r.URL.Query().Get("page")), PageSize: listPageSize}
	user, page, err := h.users.Favorites(r.Context(), viewerOf(r), chi.URLParam(r, "username"), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, http.StatusOK, "recipe_list.html", view{
		Title:   user.Username + "'s favorites",
		Heading: fullName(user.FirstName, user.LastName, user.Username) + "'s favorite recipes",
		User:    user,
		Recipes: page.Recipes,
		Page:    &page,
	})
}

func (h *Handler) profileEditForm(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Me(r.Context(), viewerOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, http.StatusOK, "profile_edit.html", view{
		Title: "Edit profile",
		User:  user,
		Form: url.Values{
			"first_name": {user.FirstName},
			"last_name":  {user.LastName},
			"email":      {user.Email},
			"bio":        {user.Bio},
		},
	})
}

func (h *Handler) profileEdit(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, facades.MaxImageBytes+maxFormBytes); err != nil {
		h.page(w, r, http.StatusOK, "profile_edit.html", view{
			Title:  "Edit profile",
			Form:   url.Values{},
			Errors: map[string]string{"profile_picture": "The submitted data was too large."},
		})
		return
	}

	in := models.ProfileInput{
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Email:     r.PostFormValue("email"),
		Bio:       r.PostFormValue("bio"),
	}
	if r.MultipartForm != nil {
		upload, closer, err := handlers.FormUpload(r.MultipartForm, "profile_picture")
		if err != nil {
			h.fail(w, r, err)
			return
		}
		defer closer()
		in.Picture = upload
	}

	user, err := h.users.UpdateProfile(r.Context(), viewerOf(r), in)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			h.page(w, r, http.StatusOK, "profile_edit.html", view{Title: "Edit profile", Form: r.PostForm, Errors: verr.Fields})
			return
		}
		h.fail(w, r, err)
		return
	}

	h.flash(w, r, models.FlashSuccess, "Your profile has been updated!")
	http.Redirect(w, r, "/users/"+url.PathEscape(user.Username)+"/", http.StatusFound)
}
