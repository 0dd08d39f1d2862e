package models

// RegisterInput is a signup request.
type RegisterInput struct {
	Username  string `validate:"required,min=3,max=150,username"`
	Email     string `validate:"required,email,max=254"`
	Password  string `validate:"required,min=8,max=72"`
	FirstName string `validate:"max=150"`
	LastName  string `validate:"max=150"`
}

// ProfileInput is a profile edit request.
type ProfileInput struct {
	FirstName string  `validate:"max=150"`
	LastName  string  `validate:"max=150"`
	Email     string  `validate:"required,email,max=254"`
	Bio       string  `validate:"max=5000"`
	Picture   *Upload `validate:"-"`
}

// Session is the result of a successful login.
type Session struct {
	ID    string // Opaque session id stored in the sessionid cookie
	Token string // JWT for API clients
	User  UserDB
}
