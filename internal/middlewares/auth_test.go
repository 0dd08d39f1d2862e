package middlewares

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/jwt"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	alice := &models.Viewer{UserID: uuid.New(), Username: "alice"}

	tests := []struct {
		name           string
		cookie         string
		mockSetup      func(tok *MockTokener, auth *MockAuthenticator)
		expectedStatus int
		expectViewer   *models.Viewer
		expectNext     bool
	}{
		{
			name: "Anonymous",
			mockSetup: func(tok *MockTokener, auth *MockAuthenticator) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("", jwt.ErrMissingHeader)
			},
			expectedStatus: http.StatusOK,
			expectNext:     true,
		},
		{
			name: "ValidToken",
			mockSetup: func(tok *MockTokener, auth *MockAuthenticator) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("validtoken", nil)
				auth.EXPECT().AuthenticateToken(gomock.Any(), "validtoken").Return(alice, nil)
			},
			expectedStatus: http.StatusOK,
			expectViewer:   alice,
			expectNext:     true,
		},
		{
			name: "InvalidToken",
			mockSetup: func(tok *MockTokener, auth *MockAuthenticator) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("sometoken", nil)
				auth.EXPECT().AuthenticateToken(gomock.Any(), "sometoken").Return(nil, services.ErrUnauthenticated)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "MalformedHeader",
			mockSetup: func(tok *MockTokener, auth *MockAuthenticator) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("", jwt.ErrInvalidHeader)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "SessionCookie",
			cookie: "abc",
			mockSetup: func(tok *MockTokener, auth *MockAuthenticator) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("", jwt.ErrMissingHeader)
				auth.EXPECT().Authenticate(gomock.Any(), "abc").Return(alice, nil)
			},
			expectedStatus: http.StatusOK,
			expectViewer:   alice,
			expectNext:     true,
		},
		{
			name:   "StaleSessionIsAnonymous",
			cookie: "old",
			mockSetup: func(tok *MockTokener, auth *MockAuthenticator) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("", jwt.ErrMissingHeader)
				auth.EXPECT().Authenticate(gomock.Any(), "old").Return(nil, services.ErrUnauthenticated)
			},
			expectedStatus: http.StatusOK,
			expectNext:     true,
		},
		{
			name:   "SessionStoreDownIsAnonymous",
			cookie: "abc",
			mockSetup: func(tok *MockTokener, auth *MockAuthenticator) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("", jwt.ErrMissingHeader)
				auth.EXPECT().Authenticate(gomock.Any(), "abc").Return(nil, errors.New("redis down"))
			},
			expectedStatus: http.StatusOK,
			expectNext:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			tok := NewMockTokener(ctrl)
			auth := NewMockAuthenticator(ctrl)
			tt.mockSetup(tok, auth)

			nextCalled := false
			var viewer *models.Viewer
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				viewer = ViewerFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			handler := AuthMiddleware(tok, auth)(nextHandler)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectNext, nextCalled)
			assert.Equal(t, tt.expectViewer, viewer)
		})
	}
}

func TestRequireGuards(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	user := &models.Viewer{UserID: uuid.New(), Username: "bob"}
	staff := &models.Viewer{UserID: uuid.New(), Username: "root", IsStaff: true}

	serve := func(h http.Handler, v *models.Viewer, target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if v != nil {
			req = req.WithContext(WithViewer(req.Context(), v))
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	t.Run("RequireAuth", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(RequireAuth(ok), nil, "/").Code)
		assert.Equal(t, http.StatusNoContent, serve(RequireAuth(ok), user, "/").Code)
	})

	t.Run("RequireLogin", func(t *testing.T) {
		rr := serve(RequireLogin(ok), nil, "/recipes/create?x=1")
		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/accounts/login?next=%2Frecipes%2Fcreate%3Fx%3D1", rr.Header().Get("Location"))
		assert.Equal(t, http.StatusNoContent, serve(RequireLogin(ok), user, "/").Code)
	})

	t.Run("RequireStaff", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(RequireStaff(ok), nil, "/").Code)
		assert.Equal(t, http.StatusForbidden, serve(RequireStaff(ok), user, "/").Code)
		assert.Equal(t, http.StatusNoContent, serve(RequireStaff(ok), staff, "/").Code)
	})
}
