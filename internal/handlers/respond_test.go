package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/services"
	"github.com/sbilibin2017/recipe-share/internal/validation"
	"github.com/stretchr/testify/assert"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedBody string
	}{
		{"validation", validation.New("title", "This field is required."), http.StatusBadRequest, `{"errors":{"title":"This field is required."}}`},
		{"not found", services.ErrNotFound, http.StatusNotFound, `{"detail":"Not found."}`},
		{"unauthenticated", services.ErrUnauthenticated, http.StatusUnauthorized, `{"detail":"Authentication credentials were not provided."}`},
		{"forbidden", services.ErrPermissionDenied, http.StatusForbidden, `{"detail":"You do not have permission to perform this action."}`},
		{"conflict", fmt.Errorf("%w: a recipe with that slug already exists", services.ErrConflict), http.StatusConflict, `{"detail":"a recipe with that slug already exists"}`},
		{"wrapped not found", fmt.Errorf("loading: %w", services.ErrNotFound), http.StatusNotFound, `{"detail":"Not found."}`},
		{"internal", errors.New("boom"), http.StatusInternalServerError, `{"detail":"Internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.expectedCode, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.expectedBody, rr.Body.String())
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/recipes/?search=soup&page=2", nil)
	req.Host = "example.com"

	resp := newPageResponse(req, models.RecipePage{Recipes: []models.Recipe{{}}, Count: 25, Page: 2, PageSize: 10})
	if assert.NotNil(t, resp.Next) {
		assert.Equal(t, "http://example.com/api/recipes/?page=3&search=soup", *resp.Next)
	}
	if assert.NotNil(t, resp.Previous) {
		assert.Equal(t, "http://example.com/api/recipes/?search=soup", *resp.Previous)
	}

	last := newPageResponse(req, models.RecipePage{Count: 25, Page: 3, PageSize: 10})
	assert.Nil(t, last.Next)
	assert.NotNil(t, last.Results)
}

func TestFilterFromQuery(t *testing.T) {
	author := uuid.New()
	q := url.Values{
		"query":            {" soup "},
		"difficulty":       {"impossible"},
		"max_cooking_time": {"45"},
		"cooking_time":     {"x"},
		"tags":             {"Vegan, quick,,vegan"},
		"author":           {author.String()},
		"page":             {"-3"},
	}

	f := FilterFromQuery(q)
	assert.Equal(t, "soup", f.Query)
	assert.False(t, f.SearchTags)
	assert.Equal(t, models.Difficulty(""), f.Difficulty)
	assert.Equal(t, 45, f.MaxCookingTime)
	assert.Zero(t, f.CookingTime)
	assert.Equal(t, []string{"vegan", "quick"}, f.Tags)
	assert.Equal(t, author, f.AuthorID)
	assert.Zero(t, f.Page)

	f = FilterFromQuery(url.Values{"search": {"basil"}, "difficulty": {"hard"}})
	assert.Equal(t, "basil", f.Query)
	assert.True(t, f.SearchTags)
	assert.Equal(t, models.DifficultyHard, f.Difficulty)
}
