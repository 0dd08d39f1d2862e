package models

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty is how hard a recipe is to cook.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the accepted difficulty values in display order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Status is the publication state of a recipe.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// RecipeDB represents a recipe row in the database
type RecipeDB struct {
	RecipeID     uuid.UUID  `json:"id" db:"recipe_id"`
	Title        string     `json:"title" db:"title"`
	Slug         string     `json:"slug" db:"slug"`
	AuthorID     uuid.UUID  `json:"author_id" db:"author_id"`
	Description  string     `json:"description" db:"description"`
	Ingredients  string     `json:"ingredients" db:"ingredients"`
	Instructions string     `json:"instructions" db:"instructions"`
	CookingTime  int        `json:"cooking_time" db:"cooking_time"` // Minutes
	Servings     int        `json:"servings" db:"servings"`
	Difficulty   Difficulty `json:"difficulty" db:"difficulty"`
	Image        *string    `json:"image" db:"image"`
	Status       Status     `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Recipe is a recipe row joined with its author summary, aggregates
// and the viewer's relation to it.
type Recipe struct {
	RecipeDB
	AuthorUsername  string   `db:"author_username"`
	AuthorFirstName string   `db:"author_first_name"`
	AuthorLastName  string   `db:"author_last_name"`
	LikesCount      int      `db:"likes_count"`
	CommentsCount   int      `db:"comments_count"`
	IsLiked         bool     `db:"is_liked"`
	IsFavorited     bool     `db:"is_favorited"`
	Tags            []string `db:"-"`
}

// RecipeInput carries the editable fields of a recipe.
type RecipeInput struct {
	Title        string     `validate:"required,max=255"`
	Description  string     `validate:"max=10000"`
	Ingredients  string     `validate:"required"`
	Instructions string     `validate:"required"`
	CookingTime  int        `validate:"required,min=1"`
	Servings     int        `validate:"required,min=1"`
	Difficulty   Difficulty `validate:"required,oneof=easy medium hard"`
	Status       Status     `validate:"omitempty,oneof=draft published"`
	Tags         []string   `validate:"dive,max=100"`
	Image        *Upload    `validate:"-"`
}

// RecipePatch is a partial update; nil fields are left unchanged.
type RecipePatch struct {
	Title        *string
	Description  *string
	Ingredients  *string
	Instructions *string
	CookingTime  *int
	Servings     *int
	Difficulty   *Difficulty
	Status       *Status
	Tags         *[]string
	Image        *Upload
}

// Apply merges the patch over an existing recipe and returns the resulting input.
func (p RecipePatch) Apply(r Recipe) RecipeInput {
	in := RecipeInput{
		Title:        r.Title,
		Description:  r.Description,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
		CookingTime:  r.CookingTime,
		Servings:     r.Servings,
		Difficulty:   r.Difficulty,
		Status:       r.Status,
		Tags:         r.Tags,
		Image:        p.Image,
	}
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Ingredients != nil {
		in.Ingredients = *p.Ingredients
	}
	if p.Instructions != nil {
		in.Instructions = *p.Instructions
	}
	if p.CookingTime != nil {
		in.CookingTime = *p.CookingTime
	}
	if p.Servings != nil {
		in.Servings = *p.Servings
	}
	if p.Difficulty != nil {
		in.Difficulty = *p.Difficulty
	}
	if p.Status != nil {
		in.Status = *p.Status
	}
	if p.Tags != nil {
		in.Tags = *p.Tags
	}
	return in
}

// RecipeStats are the counters shown on the operator dashboard.
type RecipeStats struct {
	Total     int `json:"total_recipes" db:"total"`
	Published int `json:"published_recipes" db:"published"`
	Draft     int `json:"draft_recipes" db:"draft"`
}

// Patch converts a full input into a patch that sets every field.
func (in RecipeInput) Patch() RecipePatch {
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	p := RecipePatch{
		Title:        &in.Title,
		Description:  &in.Description,
		Ingredients:  &in.Ingredients,
		Instructions: &in.Instructions,
		CookingTime:  &in.CookingTime,
		Servings:     &in.Servings,
		Difficulty:   &in.Difficulty,
		Tags:         &tags,
		Image:        in.Image,
	}
	if in.Status != "" {
		p.Status = &in.Status
	}
	return p
}

// RecipeRef identifies a recipe either by id or by slug.
type RecipeRef struct {
	ID   uuid.UUID
	Slug string
}

// ByID references a recipe by its id.
func ByID(id uuid.UUID) RecipeRef { return RecipeRef{ID: id} }

// BySlug references a recipe by its slug.
func BySlug(s string) RecipeRef { return RecipeRef{Slug: s} }

func (r RecipeRef) String() string {
	if r.Slug != "" {
		return r.Slug
	}
	return r.ID.String()
}
