package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sbilibin2017/recipe-share/internal/repositories"
)

// Error taxonomy shared by both HTTP surfaces.
var (
	ErrNotFound           = errors.New("not found")
	ErrPermissionDenied   = errors.New("you do not have permission to perform this action")
	ErrUnauthenticated    = errors.New("authentication credentials were not provided")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("the username and/or password you specified are not correct")
)

// notFound maps a repository miss onto ErrNotFound and passes other errors through.
func notFound(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// conflict maps a unique violation onto ErrConflict with a readable message.
func conflict(err error, what string) error {
	var dup *repositories.DuplicateError
	if !errors.As(err, &dup) {
		return err
	}
	field := what
	switch {
	case strings.Contains(dup.Constraint, "email"):
		field = "email"
	case strings.Contains(dup.Constraint, "username"):
		field = "username"
	case strings.Contains(dup.Constraint, "slug"):
		field = "slug"
	}
	return fmt.Errorf("%w: a %s with that %s already exists", ErrConflict, what, field)
}
