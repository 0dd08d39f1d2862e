package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/validation"
)

// FilterFromQuery reads the listing parameters shared by both surfaces.
// Unparseable numbers are ignored.
func FilterFromQuery(q url.Values) models.RecipeFilter {
	f := models.RecipeFilter{
		Query:          strings.TrimSpace(q.Get("query")),
		Difficulty:     models.Difficulty(q.Get("difficulty")),
		MaxCookingTime: atoi(q.Get("max_cooking_time")),
		CookingTime:    atoi(q.Get("cooking_time")),
		Tags:           validation.SplitTags(q.Get("tags")),
		Ordering:       q.Get("ordering"),
		Page:           atoi(q.Get("page")),
	}
	if search := strings.TrimSpace(q.Get("search")); search != "" {
		f.Query = search
		f.SearchTags = true
	}
	if !f.Difficulty.Valid() {
		f.Difficulty = ""
	}
	if author, err := uuid.Parse(q.Get("author")); err == nil {
		f.AuthorID = author
	}
	return f
}

// apiFilter is FilterFromQuery with the API page size rules.
func apiFilter(r *http.Request) models.RecipeFilter {
	f := FilterFromQuery(r.URL.Query())
	f.PageSize = atoi(r.URL.Query().Get("page_size"))
	return f
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
