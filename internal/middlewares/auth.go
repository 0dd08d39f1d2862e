package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/sbilibin2017/recipe-share/internal/jwt"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/services"
)

//go:generate mockgen -source=auth.go -destination=mock_auth.go -package=middlewares

// SessionCookie is the name of the login session cookie.
const SessionCookie = "sessionid"

// LoginURL is where RequireLogin sends anonymous browsers.
const LoginURL = "/accounts/login"

// Tokener defines the minimal interface needed to read a bearer token
type Tokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
}

// Authenticator resolves credentials to a viewer.
type Authenticator interface {
	Authenticate(ctx context.Context, sessionID string) (*models.Viewer, error)
	AuthenticateToken(ctx context.Context, token string) (*models.Viewer, error)
}

type viewerKey struct{}

// WithViewer stores the viewer in the context.
func WithViewer(ctx context.Context, v *models.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// ViewerFromContext returns the request's viewer, or nil when anonymous.
func ViewerFromContext(ctx context.Context) *models.Viewer {
	v, _ := ctx.Value(viewerKey{}).(*models.Viewer)
	return v
}

// AuthMiddleware identifies the viewer from a bearer token or the session
// cookie. Anonymous requests pass through; a bad bearer token is rejected.
// A stale session cookie is treated as anonymous.
func AuthMiddleware(tokener Tokener, auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenString, err := tokener.GetTokenFromRequest(ctx, r)
			switch {
			case err == nil:
				viewer, err := auth.AuthenticateToken(ctx, tokenString)
				if err != nil {
					logger.Log.Infow("authorization failed", "err", err)
					writeDetail(w, http.StatusUnauthorized, "Invalid token.")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithViewer(ctx, viewer)))
				return
			case !errors.Is(err, jwt.ErrMissingHeader):
				logger.Log.Infow("authorization failed", "err", err)
				writeDetail(w, http.StatusUnauthorized, "Invalid token header.")
				return
			}

			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			viewer, err := auth.Authenticate(ctx, cookie.Value)
			if err != nil {
				if !errors.Is(err, services.ErrUnauthenticated) {
					logger.Log.Errorw("failed to resolve session", "err", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithViewer(ctx, viewer)))
		})
	}
}

// RequireAuth rejects anonymous API requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ViewerFromContext(r.Context()) == nil {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireLogin redirects anonymous browsers to the login page and brings
// them back afterwards.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ViewerFromContext(r.Context()) == nil {
			target := LoginURL + "?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff allows operator accounts only.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch err := services.AuthorizeStaff(ViewerFromContext(r.Context())); {
		case errors.Is(err, services.ErrUnauthenticated):
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		case err != nil:
			writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		default:
			next.ServeHTTP(w, r)
		}
	})
}
