package models

import "github.com/google/uuid"

// RecipeFilter narrows a recipe listing. Zero values mean "no constraint".
type RecipeFilter struct {
	ViewerID       uuid.UUID  // Drafts of this user are visible; also drives is_liked/is_favorited
	Query          string     // icontains over title, description, ingredients
	SearchTags     bool       // Query also matches tag names
	Difficulty     Difficulty // Exact difficulty
	MaxCookingTime int        // cooking_time <= MaxCookingTime
	CookingTime    int        // cooking_time == CookingTime
	AuthorID       uuid.UUID  // Recipes by this author
	AuthorUsername string     // Recipes by this username
	Tags           []string   // Any of these tag names
	TagSlug        string     // Recipes carrying this tag
	FavoritedBy    uuid.UUID  // Recipes in this user's favorites
	Status         Status     // Exact status
	OnlyOwn        bool       // Restrict to ViewerID's recipes
	Ordering       string     // created_at, cooking_time, title, optionally prefixed with "-"
	Page           int        // 1-based
	PageSize       int
}

// Offset returns the row offset of the requested page.
func (f RecipeFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// RecipePage is one page of a recipe listing.
type RecipePage struct {
	Recipes  []Recipe
	Count    int
	Page     int
	PageSize int
}

// HasNext reports whether another page follows.
func (p RecipePage) HasNext() bool {
	return p.Page*p.PageSize < p.Count
}

// HasPrevious reports whether a page precedes this one.
func (p RecipePage) HasPrevious() bool {
	return p.Page > 1
}

// NumPages returns the number of pages for Count rows.
func (p RecipePage) NumPages() int {
	if p.PageSize <= 0 || p.Count == 0 {
		return 1
	}
	return (p.Count + p.PageSize - 1) / p.PageSize
}
