package web

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/recipe-share/internal/facades"
	"github.com/sbilibin2017/recipe-share/internal/handlers"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/services"
	"github.com/sbilibin2017/recipe-share/internal/validation"
)

const (
	maxFormBytes = 1 << 20
	listPageSize = 10 // drafts and profile listings
)

func (h *Handler) recipeList(w http.ResponseWriter, r *http.Request) {
	f := handlers.FilterFromQuery(r.URL.Query())
	f.PageSize = services.WebPageSize

	page, err := h.recipes.List(r.Context(), viewerOf(r), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tags, err := h.recipes.Tags(r.Context(), services.DefaultTagLimit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.page(w, r, http.StatusOK, "recipe_list.html", view{
		Title:   "Recipes",
		Heading: "Recipes",
		Recipes: page.Recipes,
		Page:    &page,
		Tags:    tags,
		Search:  true,
	})
}

func (h *Handler) tagRecipes(w http.ResponseWriter, r *http.Request) {
	f := handlers.FilterFromQuery(r.URL.Query())
	f.PageSize = services.WebPageSize

	tag, page, err := h.recipes.ByTag(r.Context(), viewerOf(r), chi.URLParam(r, "tag"), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.page(w, r, http.StatusOK, "recipe_list.html", view{
		Title:   "Recipes tagged " + tag.Name,
		Heading: fmt.Sprintf("Recipes tagged %q", tag.Name),
		Recipes: page.Recipes,
		Page:    &page,
		Tag:     tag,
	})
}

func (h *Handler) myDrafts(w http.ResponseWriter, r *http.Request) {
	f := models.RecipeFilter{Page: atoi(r.URL.Query().Get("page")), PageSize: listPageSize}

	page, err := h.recipes.MyDrafts(r.Context(), viewerOf(r), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.page(w, r, http.StatusOK, "recipe_list.html", view{
		Title:   "My drafts",
		Heading: "My drafts",
		Recipes: page.Recipes,
		Page:    &page,
	})
}

func (h *Handler) recipeDetail(w http.ResponseWriter, r *http.Request) {
	ref := models.BySlug(chi.URLParam(r, "slug"))
	viewer := viewerOf(r)

	recipe, err := h.recipes.Get(r.Context(), viewer, ref)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	comments, err := h.social.Comments(r.Context(), viewer, ref)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.page(w, r, http.StatusOK, "recipe_detail.html", view{
		Title:    recipe.Title,
		Recipe:   recipe,
		Comments: comments,
	})
}

func (h *Handler) recipeCreateForm(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, "recipe_form.html", view{
		Title: "New recipe",
		Form:  url.Values{"difficulty": {string(models.DifficultyMedium)}},
	})
}

func (h *Handler) recipeCreate(w http.ResponseWriter, r *http.Request) {
	form, upload, closer, err := parseRecipeForm(w, r)
	defer closer()
	if err != nil {
		h.formError(w, r, view{Title: "New recipe", Form: form.values}, err)
		return
	}

	in := form.input()
	in.Image = upload
	recipe, err := h.recipes.Create(r.Context(), viewerOf(r), in)
	if err != nil {
		h.formError(w, r, view{Title: "New recipe", Form: form.values}, err)
		return
	}

	h.flash(w, r, models.FlashSuccess, "Recipe created successfully!")
	http.Redirect(w, r, recipeURL(recipe.Slug), http.StatusFound)
}

// ownRecipe loads a recipe the viewer may change.
func (h *Handler) ownRecipe(r *http.Request, action services.Action) (models.Recipe, error) {
	viewer := viewerOf(r)
	recipe, err := h.recipes.Get(r.Context(), viewer, models.BySlug(chi.URLParam(r, "slug")))
	if err != nil {
		return models.Recipe{}, err
	}
	if err := services.AuthorizeMutation(viewer, recipe.AuthorID, action); err != nil {
		return models.Recipe{}, err
	}
	return recipe, nil
}

func (h *Handler) recipeEditForm(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.ownRecipe(r, services.ActionEdit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.page(w, r, http.StatusOK, "recipe_form.html", view{
		Title:   "Edit " + recipe.Title,
		Recipe:  recipe,
		Editing: true,
		Form:    recipeValues(recipe),
	})
}

func (h *Handler) recipeEdit(w http.ResponseWriter, r *http.Request) {
	ref := models.BySlug(chi.URLParam(r, "slug"))
	form, upload, closer, err := parseRecipeForm(w, r)
	defer closer()
	if err != nil {
		h.formError(w, r, view{Title: "Edit recipe", Editing: true, Form: form.values}, err)
		return
	}

	patch := form.input().Patch()
	patch.Image = upload
	recipe, err := h.recipes.Update(r.Context(), viewerOf(r), ref, patch)
	if err != nil {
		h.formError(w, r, view{Title: "Edit recipe", Editing: true, Form: form.values}, err)
		return
	}

	h.flash(w, r, models.FlashSuccess, "Recipe updated successfully!")
	http.Redirect(w, r, recipeURL(recipe.Slug), http.StatusFound)
}

func (h *Handler) recipeDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.ownRecipe(r, services.ActionDelete)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, http.StatusOK, "recipe_confirm_delete.html", view{Title: "Delete " + recipe.Title, Recipe: recipe})
}

func (h *Handler) recipeDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.recipes.Delete(r.Context(), viewerOf(r), models.BySlug(chi.URLParam(r, "slug"))); err != nil {
		h.fail(w, r, err)
		return
	}
	h.flash(w, r, models.FlashSuccess, "Recipe deleted successfully!")
	http.Redirect(w, r, "/recipes/", http.StatusFound)
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.recipes.Publish(r.Context(), viewerOf(r), models.BySlug(chi.URLParam(r, "slug")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.flash(w, r, models.FlashSuccess, fmt.Sprintf("'%s' published successfully!", recipe.Title))
	http.Redirect(w, r, recipeURL(recipe.Slug), http.StatusFound)
}

// formError re-renders the recipe form with field messages. Other errors go
// through fail.
func (h *Handler) formError(w http.ResponseWriter, r *http.Request, v view, err error) {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		h.fail(w, r, err)
		return
	}
	v.Errors = verr.Fields
	h.page(w, r, http.StatusOK, "recipe_form.html", v)
}

// recipeForm is a submitted recipe form.
type recipeForm struct {
	values url.Values
}

func (f recipeForm) input() models.RecipeInput {
	return models.RecipeInput{
		Title:        f.values.Get("title"),
		Description:  f.values.Get("description"),
		Ingredients:  f.values.Get("ingredients"),
		Instructions: f.values.Get("instructions"),
		CookingTime:  atoi(f.values.Get("cooking_time")),
		Servings:     atoi(f.values.Get("servings")),
		Difficulty:   models.Difficulty(f.values.Get("difficulty")),
		Tags:         validation.SplitTags(f.values.Get("tags")),
	}
}

// parseRecipeForm reads a urlencoded or multipart recipe form. Number fields
// that are present but not whole numbers are reported before the service runs.
func parseRecipeForm(w http.ResponseWriter, r *http.Request) (recipeForm, *models.Upload, func(), error) {
	noop := func() {}
	if err := parseForm(w, r, facades.MaxImageBytes+maxFormBytes); err != nil {
		return recipeForm{values: url.Values{}}, nil, noop, validation.New("image", "The submitted data was too large.")
	}
	form := recipeForm{values: r.PostForm}

	verr := &validation.Error{}
	for _, field := range []string{"cooking_time", "servings"} {
		if s := strings.TrimSpace(form.values.Get(field)); s != "" {
			if n, err := strconv.Atoi(s); err != nil || n < 1 {
				verr.Add(field, "Enter a whole number.")
			}
		}
	}
	if !verr.Empty() {
		return form, nil, noop, verr
	}

	if r.MultipartForm == nil {
		return form, nil, noop, nil
	}
	upload, closer, err := handlers.FormUpload(r.MultipartForm, "image")
	if err != nil {
		return form, nil, noop, err
	}
	return form, upload, closer, nil
}

// parseForm parses urlencoded and multipart bodies up to limit bytes.
func parseForm(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(maxFormBytes)
	}
	return r.ParseForm()
}

func recipeValues(r models.Recipe) url.Values {
	return url.Values{
		"title":        {r.Title},
		"description":  {r.Description},
		"ingredients":  {r.Ingredients},
		"instructions": {r.Instructions},
		"cooking_time": {strconv.Itoa(r.CookingTime)},
		"servings":     {strconv.Itoa(r.Servings)},
		"difficulty":   {string(r.Difficulty)},
		"tags":         {strings.Join(r.Tags, ", ")},
	}
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
