package handlers

import (
	"context"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/recipe-share/internal/facades"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/validation"
)

//go:generate mockgen -source=recipes.go -destination=mock_recipes.go -package=handlers

// RecipeLister lists recipes visible to the viewer.
type RecipeLister interface {
	List(ctx context.Context, viewer *models.Viewer, f models.RecipeFilter) (models.RecipePage, error)
}

// RecipeListerFunc adapts a listing method such as Mine or MyDrafts to RecipeLister.
type RecipeListerFunc func(ctx context.Context, viewer *models.Viewer, f models.RecipeFilter) (models.RecipePage, error)

// List calls fn.
func (fn RecipeListerFunc) List(ctx context.Context, viewer *models.Viewer, f models.RecipeFilter) (models.RecipePage, error) {
	return fn(ctx, viewer, f)
}

// RecipeGetter loads one recipe.
type RecipeGetter interface {
	Get(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef) (models.Recipe, error)
}

// RecipeCreator creates recipes.
type RecipeCreator interface {
	Create(ctx context.Context, viewer *models.Viewer, in models.RecipeInput) (models.Recipe, error)
}

// RecipeUpdater edits recipes.
type RecipeUpdater interface {
	Update(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef, patch models.RecipePatch) (models.Recipe, error)
}

// RecipeDeleter deletes recipes.
type RecipeDeleter interface {
	Delete(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef) (models.Recipe, error)
}

// RecipePublisher publishes drafts.
type RecipePublisher interface {
	Publish(ctx context.Context, viewer *models.Viewer, ref models.RecipeRef) (models.Recipe, error)
}

// RecipeRequest is the body of create and update calls. Absent fields are
// left unchanged by PATCH. Multipart forms use the same field names, with
// tags comma separated and the file in "image".
// swagger:model RecipeRequest
type RecipeRequest struct {
	// required: true
	// default: Tomato Soup
	Title        *string            `json:"title"`
	Description  *string            `json:"description"`
	Ingredients  *string            `json:"ingredients"`
	Instructions *string            `json:"instructions"`
	CookingTime  *int               `json:"cooking_time"`
	Servings     *int               `json:"servings"`
	Difficulty   *models.Difficulty `json:"difficulty"`
	Status       *models.Status     `json:"status"`
	Tags         *[]string          `json:"tags"`
}

func (req RecipeRequest) patch() models.RecipePatch {
	return models.RecipePatch{
		Title:        req.Title,
		Description:  req.Description,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		CookingTime:  req.CookingTime,
		Servings:     req.Servings,
		Difficulty:   req.Difficulty,
		Status:       req.Status,
		Tags:         req.Tags,
	}
}

func (req RecipeRequest) input() models.RecipeInput {
	var in models.RecipeInput
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Ingredients != nil {
		in.Ingredients = *req.Ingredients
	}
	if req.Instructions != nil {
		in.Instructions = *req.Instructions
	}
	if req.CookingTime != nil {
		in.CookingTime = *req.CookingTime
	}
	if req.Servings != nil {
		in.Servings = *req.Servings
	}
	if req.Difficulty != nil {
		in.Difficulty = *req.Difficulty
	}
	if req.Status != nil {
		in.Status = *req.Status
	}
	if req.Tags != nil {
		in.Tags = *req.Tags
	}
	return in
}

// decodeRecipeRequest reads a JSON or multipart body. The returned closer
// releases the uploaded file, if any.
func decodeRecipeRequest(w http.ResponseWriter, r *http.Request) (RecipeRequest, *models.Upload, func(), error) {
	var req RecipeRequest
	noop := func() {}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := decodeJSON(w, r, &req); err != nil {
			return req, nil, noop, err
		}
		return req, nil, noop, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, facades.MaxImageBytes+maxJSONBody)
	if err := r.ParseMultipartForm(maxJSONBody); err != nil {
		return req, nil, noop, err
	}

	form := r.MultipartForm.Value
	str := func(key string) *string {
		if v, ok := form[key]; ok && len(v) > 0 {
			return &v[0]
		}
		return nil
	}
	num := func(key string) (*int, error) {
		s := str(key)
		if s == nil {
			return nil, nil
		}
		n, err := strconv.Atoi(*s)
		if err != nil {
			return nil, validation.New(key, "A valid integer is required.")
		}
		return &n, nil
	}

	req.Title = str("title")
	req.Description = str("description")
	req.Ingredients = str("ingredients")
	req.Instructions = str("instructions")
	var err error
	if req.CookingTime, err = num("cooking_time"); err != nil {
		return req, nil, noop, err
	}
	if req.Servings, err = num("servings"); err != nil {
		return req, nil, noop, err
	}
	if s := str("difficulty"); s != nil {
		d := models.Difficulty(*s)
		req.Difficulty = &d
	}
	if s := str("status"); s != nil {
		st := models.Status(*s)
		req.Status = &st
	}
	if s := str("tags"); s != nil {
		tags := validation.SplitTags(*s)
		req.Tags = &tags
	}

	upload, closer, err := FormUpload(r.MultipartForm, "image")
	if err != nil {
		return req, nil, noop, err
	}
	return req, upload, closer, nil
}

// FormUpload opens the named file of a multipart form.
func FormUpload(form *multipart.Form, field string) (*models.Upload, func(), error) {
	files := form.File[field]
	if len(files) == 0 {
		return nil, func() {}, nil
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &models.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     f,
	}, func() { f.Close() }, nil
}

func slugRef(r *http.Request) models.RecipeRef {
	return models.BySlug(chi.URLParam(r, "slug"))
}

// NewListRecipesHandler returns an HTTP handler for recipe listings.
// @Summary List recipes
// @Description Published recipes plus the viewer's own drafts, newest first
// @Tags recipes
// @Produce json
// @Param search query string false "Search title, description, ingredients and tags"
// @Param difficulty query string false "easy, medium or hard"
// @Param cooking_time query int false "Exact cooking time in minutes"
// @Param max_cooking_time query int false "Maximum cooking time in minutes"
// @Param author query string false "Author id"
// @Param tags query string false "Comma separated tag names"
// @Param ordering query string false "created_at, cooking_time or title, prefix with - for descending"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size, at most 100"
// @Success 200 {object} handlers.PageResponse
// @Failure 404 {object} handlers.ErrorResponse "Invalid page"
// @Router /recipes/ [get]
func NewListRecipesHandler(svc RecipeLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.List(r.Context(), viewerOf(r), apiFilter(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newPageResponse(r, page))
	}
}

// NewCreateRecipeHandler returns an HTTP handler that creates a recipe.
// @Summary Create recipe
// @Description Creates a recipe authored by the caller. Status defaults to draft.
// @Tags recipes
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param recipe body handlers.RecipeRequest true "Recipe"
// @Success 201 {object} handlers.RecipeResponse
// @Failure 400 {object} handlers.ValidationErrorResponse
// @Failure 401 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse "Slug taken concurrently"
// @Router /recipes/ [post]
func NewCreateRecipeHandler(svc RecipeCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, upload, closeUpload, err := decodeRecipeRequest(w, r)
		defer closeUpload()
		if err != nil {
			writeBadRequest(w, r, err)
			return
		}

		in := req.input()
		in.Image = upload
		recipe, err := svc.Create(r.Context(), viewerOf(r), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, newRecipeResponse(recipe))
	}
}

// NewGetRecipeHandler returns an HTTP handler for recipe detail.
// @Summary Get recipe
// @Description Drafts are only visible to their author
// @Tags recipes
// @Produce json
// @Param slug path string true "Recipe slug"
// @Success 200 {object} handlers.RecipeResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /recipes/{slug}/ [get]
func NewGetRecipeHandler(svc RecipeGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipe, err := svc.Get(r.Context(), viewerOf(r), slugRef(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newRecipeResponse(recipe))
	}
}

// NewUpdateRecipeHandler returns an HTTP handler for PUT (partial=false) and PATCH.
// @Summary Update recipe
// @Description Author only. PUT replaces every field, PATCH only the given ones. A new title changes the slug.
// @Tags recipes
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Recipe slug"
// @Param recipe body handlers.RecipeRequest true "Recipe fields"
// @Success 200 {object} handlers.RecipeResponse
// @Failure 400 {object} handlers.ValidationErrorResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /recipes/{slug}/ [put]
// @Router /recipes/{slug}/ [patch]
func NewUpdateRecipeHandler(svc RecipeUpdater, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, upload, closeUpload, err := decodeRecipeRequest(w, r)
		defer closeUpload()
		if err != nil {
			writeBadRequest(w, r, err)
			return
		}

		patch := req.patch()
		if !partial {
			patch = req.input().Patch()
		}
		patch.Image = upload

		recipe, err := svc.Update(r.Context(), viewerOf(r), slugRef(r), patch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newRecipeResponse(recipe))
	}
}

// NewDeleteRecipeHandler returns an HTTP handler that deletes a recipe.
// @Summary Delete recipe
// @Description Author only. Comments, likes and favorites go with it.
// @Tags recipes
// @Security BearerAuth
// @Param slug path string true "Recipe slug"
// @Success 204 "Deleted"
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /recipes/{slug}/ [delete]
func NewDeleteRecipeHandler(svc RecipeDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := svc.Delete(r.Context(), viewerOf(r), slugRef(r)); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// NewPublishRecipeHandler returns an HTTP handler that publishes a draft.
// @Summary Publish recipe
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Recipe slug"
// @Success 200 {object} handlers.RecipeResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /recipes/{slug}/publish/ [post]
func NewPublishRecipeHandler(svc RecipePublisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipe, err := svc.Publish(r.Context(), viewerOf(r), slugRef(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newRecipeResponse(recipe))
	}
}

// writeBadRequest reports a body that could not be read.
func writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	if _, ok := err.(*validation.Error); ok {
		writeError(w, r, err)
		return
	}
	writeDetail(w, http.StatusBadRequest, "Invalid request body.")
}
