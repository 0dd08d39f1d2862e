package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/middlewares"
	"github.com/sbilibin2017/recipe-share/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages lists every template rendered inside base.html.
var pages = []string{
	"recipe_list.html",
	"recipe_detail.html",
	"recipe_form.html",
	"recipe_confirm_delete.html",
	"profile.html",
	"profile_edit.html",
	"signup.html",
	"login.html",
	"error.html",
}

// Renderer executes the embedded page templates.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses base.html together with each page.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"add":      func(a, b int) int { return a + b },
		"lines":    lines,
		"date":     func(t time.Time) string { return t.Format("January 2, 2006") },
		"pageURL":  pageURL,
		"fullName": fullName,
		"isAuthor": func(v *models.Viewer, authorID uuid.UUID) bool { return v != nil && v.UserID == authorID },
		"deref":    derefString,
	}

	rd := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		t, err := template.New(page).Funcs(funcMap).ParseFS(templateFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		rd.templates[page] = t
	}
	return rd, nil
}

// view is the data every page receives. Pages read the fields they need.
type view struct {
	Title        string
	Heading      string
	Viewer       *models.Viewer
	Flashes      []models.Flash
	RequestURI   string
	Query        url.Values
	Form         url.Values
	Errors       map[string]string
	Recipe       models.Recipe
	Recipes      []models.Recipe
	Page         *models.RecipePage
	Comments     []models.Comment
	Tags         []models.Tag
	Tag          models.Tag
	Profile      models.Profile
	User         models.UserDB
	Difficulties []models.Difficulty
	Editing      bool
	Search       bool
	Next         string
	Status       int
	Message      string
}

// Render writes page with status. The template is executed into a buffer
// first so a failing template never leaves a half-written page.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, v view) {
	t, ok := rd.templates[page]
	if !ok {
		logger.Log.Errorw("unknown template", "page", page)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	v.RequestURI = r.URL.RequestURI()
	if v.Query == nil {
		v.Query = r.URL.Query()
	}
	if v.Difficulties == nil {
		v.Difficulties = models.Difficulties
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", v); err != nil {
		logger.Log.Errorw("failed to render template",
			"page", page,
			"request_id", middlewares.RequestIDFromContext(r.Context()),
			"error", err,
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// lines splits free text into its non-blank lines.
func lines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// pageURL rewrites the page parameter of the current query.
func pageURL(q url.Values, page int) string {
	next := url.Values{}
	for k, v := range q {
		next[k] = v
	}
	if page <= 1 {
		next.Del("page")
	} else {
		next.Set("page", strconv.Itoa(page))
	}
	if len(next) == 0 {
		return "?"
	}
	return "?" + next.Encode()
}

func fullName(first, last, username string) string {
	if name := strings.TrimSpace(first + " " + last); name != "" {
		return name
	}
	return username
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
