package models

import (
	"time"

	"github.com/google/uuid"
)

// CommentDB represents a comment row in the database
type CommentDB struct {
	CommentID uuid.UUID `json:"id" db:"comment_id"`
	RecipeID  uuid.UUID `json:"recipe_id" db:"recipe_id"`
	AuthorID  uuid.UUID `json:"author_id" db:"author_id"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Comment is a comment joined with its author and recipe slug.
type Comment struct {
	CommentDB
	AuthorUsername  string `db:"author_username"`
	AuthorFirstName string `db:"author_first_name"`
	AuthorLastName  string `db:"author_last_name"`
	RecipeSlug      string `db:"recipe_slug"`
}
