package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/middlewares"
	"github.com/sbilibin2017/recipe-share/internal/models"
)

//go:generate mockgen -source=auth.go -destination=mock_auth.go -package=handlers

// Registerer defines the interface that the service must implement.
type Registerer interface {
	Register(ctx context.Context, in models.RegisterInput) (models.UserDB, error)
}

// Loginer defines the interface that the login service must implement.
type Loginer interface {
	Login(ctx context.Context, login, password string) (models.Session, error)
}

// Logouter ends sessions.
type Logouter interface {
	Logout(ctx context.Context, sessionID string) error
}

// MeGetter returns the viewer's own record.
type MeGetter interface {
	Me(ctx context.Context, viewer *models.Viewer) (models.UserDB, error)
}

// RegisterRequest represents the JSON body for user registration
// swagger:model RegisterRequest
type RegisterRequest struct {
	// Username
	// required: true
	// default: john_doe
	Username string `json:"username"`

	// Email
	// required: true
	// default: john@example.com
	Email string `json:"email"`

	// Password
	// required: true
	// default: secret123
	Password string `json:"password"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserResponse is the public part of a user record.
// swagger:model UserResponse
type UserResponse struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Bio            string    `json:"bio"`
	ProfilePicture *string   `json:"profile_picture"`
	DateJoined     time.Time `json:"date_joined"`
}

func newUserResponse(u models.UserDB) UserResponse {
	return UserResponse{
		ID:             u.UserID,
		Username:       u.Username,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		DateJoined:     u.CreatedAt,
	}
}

// LoginRequest represents the JSON body for user login
// swagger:model LoginRequest
type LoginRequest struct {
	// Username or email
	// required: true
	// default: john_doe
	Login string `json:"login"`

	// Username, accepted when login is empty
	Username string `json:"username"`

	// Password
	// required: true
	// default: secret123
	Password string `json:"password"`
}

// LoginResponse represents a successful login response
// swagger:model LoginResponse
type LoginResponse struct {
	// JWT token
	// default: JWT_TOKEN
	Token string `json:"token"`
}

// SessionCookie builds the login cookie. SameSite=Lax keeps cross-site
// form posts from carrying it.
func SessionCookie(sessionID string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     middlewares.SessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie expires the login cookie.
func ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     middlewares.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewRegisterHandler returns an HTTP handler for user registration.
// @Summary Register a new user
// @Description Creates a new user account. Username and email must be unique. Password is hashed before storing.
// @Tags auth
// @Accept json
// @Produce json
// @Param registerRequest body handlers.RegisterRequest true "User registration request"
// @Success 201 {object} handlers.UserResponse "User successfully registered"
// @Failure 400 {object} handlers.ValidationErrorResponse "Invalid fields"
// @Failure 409 {object} handlers.ErrorResponse "Username or email already exists"
// @Router /auth/register [post]
func NewRegisterHandler(svc Registerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid request body.")
			return
		}

		user, err := svc.Register(r.Context(), models.RegisterInput{
			Username:  req.Username,
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, newUserResponse(user))
	}
}

// NewLoginHandler returns an HTTP handler for user login.
// @Summary User login
// @Description Authenticates by username or email, sets the session cookie and returns a JWT for API clients
// @Tags auth
// @Accept json
// @Produce json
// @Param loginRequest body handlers.LoginRequest true "Login Request"
// @Success 200 {object} handlers.LoginResponse "JWT token returned"
// @Failure 400 {object} handlers.ErrorResponse "Invalid request body"
// @Failure 401 {object} handlers.ErrorResponse "Invalid username or password"
// @Router /auth/login [post]
func NewLoginHandler(svc Loginer, sessionTTL time.Duration, secureCookie bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		login := req.Login
		if login == "" {
			login = req.Username
		}

		session, err := svc.Login(r.Context(), login, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}

		http.SetCookie(w, SessionCookie(session.ID, sessionTTL, secureCookie))
		writeJSON(w, http.StatusOK, LoginResponse{Token: session.Token})
	}
}

// NewLogoutHandler returns an HTTP handler that ends the session.
// @Summary User logout
// @Description Deletes the session and clears the session cookie
// @Tags auth
// @Success 204 "Logged out"
// @Router /auth/logout [post]
func NewLogoutHandler(svc Logouter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(middlewares.SessionCookie); err == nil {
			if err := svc.Logout(r.Context(), cookie.Value); err != nil {
				writeError(w, r, err)
				return
			}
		}
		http.SetCookie(w, ClearSessionCookie())
		w.WriteHeader(http.StatusNoContent)
	}
}

// NewMeHandler returns an HTTP handler for the current user.
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.UserResponse
// @Failure 401 {object} handlers.ErrorResponse
// @Router /auth/me [get]
func NewMeHandler(svc MeGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := svc.Me(r.Context(), viewerOf(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newUserResponse(user))
	}
}
