package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/services"
	"github.com/sbilibin2017/recipe-share/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLikeHandler(t *testing.T) {
	viewer := &models.Viewer{UserID: uuid.New()}

	tests := []struct {
		name         string
		viewer       *models.Viewer
		result       models.ToggleResult
		err          error
		expectedCode int
		expectedBody map[string]any
	}{
		{
			name:         "liked",
			viewer:       viewer,
			result:       models.ToggleResult{Kind: models.ToggleLike, State: models.ToggleAdded, Total: 1},
			expectedCode: http.StatusCreated,
			expectedBody: map[string]any{"status": "liked", "liked": true, "total_likes": float64(1)},
		},
		{
			name:         "unliked",
			viewer:       viewer,
			result:       models.ToggleResult{Kind: models.ToggleLike, State: models.ToggleRemoved, Total: 0},
			expectedCode: http.StatusOK,
			expectedBody: map[string]any{"status": "unliked", "liked": false, "total_likes": float64(0)},
		},
		{
			name:         "anonymous",
			err:          services.ErrUnauthenticated,
			expectedCode: http.StatusUnauthorized,
			expectedBody: map[string]any{"detail": "Authentication credentials were not provided."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockSvc := NewMockToggler(ctrl)
			mockSvc.EXPECT().
				Toggle(gomock.Any(), tt.viewer, models.ToggleLike, models.BySlug("tomato-soup")).
				Return(tt.result, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/api/recipes/tomato-soup/toggle_like/", nil)
			if tt.viewer != nil {
				req = asViewer(req, tt.viewer)
			}
			req = withURLParam(req, "slug", "tomato-soup")
			rr := httptest.NewRecorder()
			NewToggleLikeHandler(mockSvc)(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)
			assert.Equal(t, tt.expectedBody, decodeBody(t, rr))
		})
	}
}

func TestToggleFavoriteHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := NewMockToggler(ctrl)
	viewer := &models.Viewer{UserID: uuid.New()}
	mockSvc.EXPECT().
		Toggle(gomock.Any(), viewer, models.ToggleFavorite, models.BySlug("tomato-soup")).
		Return(models.ToggleResult{Kind: models.ToggleFavorite, State: models.ToggleAdded, Total: 2}, nil)

	req := withURLParam(asViewer(httptest.NewRequest(http.MethodPost, "/", nil), viewer), "slug", "tomato-soup")
	rr := httptest.NewRecorder()
	NewToggleFavoriteHandler(mockSvc)(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, map[string]any{"status": "favorited", "favorited": true, "total_favorites": float64(2)}, decodeBody(t, rr))
}

func TestCommentHandlers(t *testing.T) {
	viewer := &models.Viewer{UserID: uuid.New(), Username: "bob"}
	comment := models.Comment{
		CommentDB:      models.CommentDB{CommentID: uuid.New(), AuthorID: viewer.UserID, Text: "Lovely"},
		AuthorUsername: "bob",
		RecipeSlug:     "tomato-soup",
	}

	t.Run("list", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockSvc := NewMockCommentLister(ctrl)
		mockSvc.EXPECT().Comments(gomock.Any(), gomock.Nil(), models.BySlug("tomato-soup")).Return([]models.Comment{comment}, nil)

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "slug", "tomato-soup")
		rr := httptest.NewRecorder()
		NewListCommentsHandler(mockSvc)(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"text":"Lovely"`)
		assert.Contains(t, rr.Body.String(), `"recipe":"tomato-soup"`)
	})

	t.Run("add", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockSvc := NewMockCommentAdder(ctrl)
		mockSvc.EXPECT().AddComment(gomock.Any(), viewer, models.BySlug("tomato-soup"), "Lovely").Return(comment, nil)

		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"text":"Lovely"}`))
		req = withURLParam(asViewer(req, viewer), "slug", "tomato-soup")
		rr := httptest.NewRecorder()
		NewAddCommentHandler(mockSvc)(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "bob", decodeBody(t, rr)["author"].(map[string]any)["username"])
	})

	t.Run("add empty", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockSvc := NewMockCommentAdder(ctrl)
		mockSvc.EXPECT().AddComment(gomock.Any(), viewer, gomock.Any(), "").Return(models.Comment{}, validation.New("text", "This field is required."))

		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"text":""}`))
		req = withURLParam(asViewer(req, viewer), "slug", "tomato-soup")
		rr := httptest.NewRecorder()
		NewAddCommentHandler(mockSvc)(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("delete", func(t *testing.T) {
		tests := []struct {
			name         string
			id           string
			err          error
			expectedCode int
		}{
			{name: "author", id: comment.CommentID.String(), expectedCode: http.StatusNoContent},
			{name: "someone else", id: comment.CommentID.String(), err: services.ErrPermissionDenied, expectedCode: http.StatusForbidden},
			{name: "bad id", id: "nope", expectedCode: http.StatusNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ctrl := gomock.NewController(t)
				mockSvc := NewMockCommentDeleter(ctrl)
				if id, err := uuid.Parse(tt.id); err == nil {
					mockSvc.EXPECT().DeleteComment(gomock.Any(), viewer, id).Return(comment, tt.err)
				}

				req := withURLParam(asViewer(httptest.NewRequest(http.MethodDelete, "/", nil), viewer), "id", tt.id)
				rr := httptest.NewRecorder()
				NewDeleteCommentHandler(mockSvc)(rr, req)

				assert.Equal(t, tt.expectedCode, rr.Code)
			})
		}
	})
}
