package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/middlewares"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/services"
	"github.com/sbilibin2017/recipe-share/internal/validation"
)

// ErrorResponse is the body of every non-validation error.
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Human readable reason
	// default: Not found.
	Detail string `json:"detail"`
}

// ValidationErrorResponse lists the fields that failed validation.
// swagger:model ValidationErrorResponse
type ValidationErrorResponse struct {
	// Field name to message
	Errors map[string]string `json:"errors"`
}

// AuthorResponse is the author summary embedded in recipes and comments.
type AuthorResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// RecipeResponse is the API representation of a recipe.
// swagger:model RecipeResponse
type RecipeResponse struct {
	ID            uuid.UUID         `json:"id"`
	Title         string            `json:"title"`
	Slug          string            `json:"slug"`
	Author        AuthorResponse    `json:"author"`
	Description   string            `json:"description"`
	Ingredients   string            `json:"ingredients"`
	Instructions  string            `json:"instructions"`
	CookingTime   int               `json:"cooking_time"`
	Servings      int               `json:"servings"`
	Difficulty    models.Difficulty `json:"difficulty"`
	Image         *string           `json:"image"`
	Status        models.Status     `json:"status"`
	Tags          []string          `json:"tags"`
	LikesCount    int               `json:"likes_count"`
	CommentsCount int               `json:"comments_count"`
	IsLiked       bool              `json:"is_liked"`
	IsFavorited   bool              `json:"is_favorited"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// CommentResponse is the API representation of a comment.
// swagger:model CommentResponse
type CommentResponse struct {
	ID        uuid.UUID      `json:"id"`
	Recipe    string         `json:"recipe"`
	Author    AuthorResponse `json:"author"`
	Text      string         `json:"text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// PageResponse is a page-number paginated list of recipes.
// swagger:model PageResponse
type PageResponse struct {
	Count    int              `json:"count"`
	Next     *string          `json:"next"`
	Previous *string          `json:"previous"`
	Results  []RecipeResponse `json:"results"`
}

func newRecipeResponse(r models.Recipe) RecipeResponse {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return RecipeResponse{
		ID:    r.RecipeID,
		Title: r.Title,
		Slug:  r.Slug,
		Author: AuthorResponse{
			ID:        r.AuthorID,
			Username:  r.AuthorUsername,
			FirstName: r.AuthorFirstName,
			LastName:  r.AuthorLastName,
		},
		Description:   r.Description,
		Ingredients:   r.Ingredients,
		Instructions:  r.Instructions,
		CookingTime:   r.CookingTime,
		Servings:      r.Servings,
		Difficulty:    r.Difficulty,
		Image:         r.Image,
		Status:        r.Status,
		Tags:          tags,
		LikesCount:    r.LikesCount,
		CommentsCount: r.CommentsCount,
		IsLiked:       r.IsLiked,
		IsFavorited:   r.IsFavorited,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func newCommentResponse(c models.Comment) CommentResponse {
	return CommentResponse{
		ID:     c.CommentID,
		Recipe: c.RecipeSlug,
		Author: AuthorResponse{
			ID:        c.AuthorID,
			Username:  c.AuthorUsername,
			FirstName: c.AuthorFirstName,
			LastName:  c.AuthorLastName,
		},
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func newPageResponse(r *http.Request, page models.RecipePage) PageResponse {
	resp := PageResponse{
		Count:   page.Count,
		Results: make([]RecipeResponse, 0, len(page.Recipes)),
	}
	for _, recipe := range page.Recipes {
		resp.Results = append(resp.Results, newRecipeResponse(recipe))
	}
	if page.HasNext() {
		next := pageURL(r, page.Page+1)
		resp.Next = &next
	}
	if page.HasPrevious() {
		prev := pageURL(r, page.Page-1)
		resp.Previous = &prev
	}
	return resp
}

// pageURL rebuilds the request URL with another page number. Page 1 drops
// the parameter.
func pageURL(r *http.Request, page int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	q := r.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	return u.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorw("failed to encode response", "err", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// NotFound answers unknown API paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusNotFound, "Not found.")
}

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{Errors: verr.Fields})
	case errors.Is(err, services.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, services.ErrUnauthenticated):
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeDetail(w, http.StatusUnauthorized, "Invalid username or password.")
	case errors.Is(err, services.ErrPermissionDenied):
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, services.ErrConflict):
		writeDetail(w, http.StatusConflict, strings.TrimPrefix(err.Error(), services.ErrConflict.Error()+": "))
	default:
		logger.Log.Errorw("internal server error",
			"request_id", middlewares.RequestIDFromContext(r.Context()),
			"method", r.Method,
			"uri", r.RequestURI,
			"err", err,
		)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v)
}

func viewerOf(r *http.Request) *models.Viewer {
	return middlewares.ViewerFromContext(r.Context())
}
