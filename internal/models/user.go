package models

import (
	"time"

	"github.com/google/uuid"
)

// UserDB represents a user record in the database
type UserDB struct {
	UserID         uuid.UUID `json:"id" db:"user_id"`                      // Primary key
	Username       string    `json:"username" db:"username"`               // Unique username
	Email          string    `json:"email" db:"email"`                     // Unique email
	PasswordHash   string    `json:"-" db:"password_hash"`                 // Bcrypt hash
	FirstName      string    `json:"first_name" db:"first_name"`           // Given name
	LastName       string    `json:"last_name" db:"last_name"`             // Family name
	Bio            string    `json:"bio" db:"bio"`                         // Free-text profile
	ProfilePicture *string   `json:"profile_picture" db:"profile_picture"` // Public URL of the avatar
	IsStaff        bool      `json:"is_staff" db:"is_staff"`               // Operator flag
	CreatedAt      time.Time `json:"created_at" db:"created_at"`           // Creation timestamp
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`           // Last update timestamp
}

// Viewer is the authenticated identity behind a request.
// A nil *Viewer means the request is anonymous.
type Viewer struct {
	UserID   uuid.UUID
	Username string
	IsStaff  bool
}

// ID returns the viewer's user id, or uuid.Nil for anonymous requests.
func (v *Viewer) ID() uuid.UUID {
	if v == nil {
		return uuid.Nil
	}
	return v.UserID
}

// Profile is a user page: the user plus a preview of their recipes and favorites.
type Profile struct {
	User      UserDB
	Recipes   []Recipe
	Favorites []Recipe
}
