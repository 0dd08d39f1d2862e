package models

// Tag is a free-form label attached to recipes.
type Tag struct {
	TagID int64  `json:"id" db:"tag_id"`
	Name  string `json:"name" db:"name"`
	Slug  string `json:"slug" db:"slug"`
}
