package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/jwt"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/repositories"
	"github.com/sbilibin2017/recipe-share/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=auth.go -destination=mock_auth.go -package=services

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByID(ctx context.Context, userID uuid.UUID) (models.UserDB, error)
	GetByUsername(ctx context.Context, username string) (models.UserDB, error)
	GetByLogin(ctx context.Context, login string) (models.UserDB, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Create(ctx context.Context, user *models.UserDB) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, in models.ProfileInput, picture *string) (models.UserDB, error)
	SetStaff(ctx context.Context, username string, staff bool) error
}

// SessionStore keeps login sessions.
type SessionStore interface {
	Create(ctx context.Context, userID uuid.UUID) (string, error)
	Get(ctx context.Context, id string) (uuid.UUID, error)
	Delete(ctx context.Context, id string) error
}

// TokenIssuer issues and verifies API tokens.
type TokenIssuer interface {
	Generate(ctx context.Context, userID uuid.UUID) (string, error)
	GetClaims(ctx context.Context, token string) (*jwt.Claims, error)
}

// AuthService handles registration, login and request authentication.
type AuthService struct {
	reader   UserReader
	writer   UserWriter
	sessions SessionStore
	tokens   TokenIssuer
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(reader UserReader, writer UserWriter, sessions SessionStore, tokens TokenIssuer) *AuthService {
	return &AuthService{
		reader:   reader,
		writer:   writer,
		sessions: sessions,
		tokens:   tokens,
	}
}

// Register validates the input and creates a user with a bcrypt password hash.
func (svc *AuthService) Register(ctx context.Context, in models.RegisterInput) (models.UserDB, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = validation.CleanText(in.FirstName)
	in.LastName = validation.CleanText(in.LastName)

	if err := validation.Struct(in); err != nil {
		return models.UserDB{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return models.UserDB{}, err
	}

	user := models.UserDB{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hashedPassword),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if err := svc.writer.Create(ctx, &user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			logger.Log.Infow("user already exists", "username", in.Username, "email", in.Email)
			return models.UserDB{}, conflict(err, "user")
		}
		logger.Log.Errorw("failed to save user", "err", err)
		return models.UserDB{}, err
	}

	return user, nil
}

// Login accepts a username or an email, opens a session and issues an API token.
func (svc *AuthService) Login(ctx context.Context, login, password string) (models.Session, error) {
	user, err := svc.reader.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Log.Infow("user does not exist", "login", login)
			return models.Session{}, ErrInvalidCredentials
		}
		logger.Log.Errorw("failed to get user", "err", err)
		return models.Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Log.Infow("invalid credentials", "login", login)
		return models.Session{}, ErrInvalidCredentials
	}

	sessionID, err := svc.sessions.Create(ctx, user.UserID)
	if err != nil {
		logger.Log.Errorw("failed to create session", "err", err)
		return models.Session{}, err
	}

	token, err := svc.tokens.Generate(ctx, user.UserID)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "err", err)
		return models.Session{}, err
	}

	return models.Session{ID: sessionID, Token: token, User: user}, nil
}

// Logout ends a session.
func (svc *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := svc.sessions.Delete(ctx, sessionID); err != nil {
		logger.Log.Errorw("failed to delete session", "err", err)
		return err
	}
	return nil
}

// Authenticate resolves a session id to a viewer.
func (svc *AuthService) Authenticate(ctx context.Context, sessionID string) (*models.Viewer, error) {
	userID, err := svc.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return svc.viewer(ctx, userID)
}

// AuthenticateToken resolves a bearer token to a viewer.
func (svc *AuthService) AuthenticateToken(ctx context.Context, token string) (*models.Viewer, error) {
	claims, err := svc.tokens.GetClaims(ctx, token)
	if err != nil {
		logger.Log.Infow("rejected token", "err", err)
		return nil, ErrUnauthenticated
	}
	return svc.viewer(ctx, claims.UserID)
}

func (svc *AuthService) viewer(ctx context.Context, userID uuid.UUID) (*models.Viewer, error) {
	user, err := svc.reader.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		logger.Log.Errorw("failed to load user", "user_id", userID, "err", err)
		return nil, err
	}
	return &models.Viewer{UserID: user.UserID, Username: user.Username, IsStaff: user.IsStaff}, nil
}
