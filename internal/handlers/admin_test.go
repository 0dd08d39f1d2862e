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
	"github.com/stretchr/testify/assert"
)

func TestAdminHandlers(t *testing.T) {
	staff := &models.Viewer{UserID: uuid.New(), Username: "root", IsStaff: true}

	t.Run("publish", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockSvc := NewMockOperator(ctrl)
		mockSvc.EXPECT().Publish(gomock.Any(), staff, []string{"a", "b"}).Return(int64(2), nil)

		req := asViewer(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"slugs":["a","b"]}`)), staff)
		rr := httptest.NewRecorder()
		NewAdminPublishHandler(mockSvc)(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, map[string]any{"updated": float64(2)}, decodeBody(t, rr))
	})

	t.Run("draft denied", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockSvc := NewMockOperator(ctrl)
		mockSvc.EXPECT().Draft(gomock.Any(), gomock.Any(), []string{"a"}).Return(int64(0), services.ErrPermissionDenied)

		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"slugs":["a"]}`))
		rr := httptest.NewRecorder()
		NewAdminDraftHandler(mockSvc)(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("duplicate", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockSvc := NewMockOperator(ctrl)
		dup := sampleRecipe(models.StatusDraft)
		dup.Title = "Tomato Soup (copy)"
		mockSvc.EXPECT().Duplicate(gomock.Any(), staff, "tomato-soup").Return(dup, nil)

		req := withURLParam(asViewer(httptest.NewRequest(http.MethodPost, "/", nil), staff), "slug", "tomato-soup")
		rr := httptest.NewRecorder()
		NewAdminDuplicateHandler(mockSvc)(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "Tomato Soup (copy)", decodeBody(t, rr)["title"])
	})

	t.Run("reset likes of unknown recipe", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockSvc := NewMockOperator(ctrl)
		mockSvc.EXPECT().ResetLikes(gomock.Any(), staff, "nope").Return(int64(0), services.ErrNotFound)

		req := withURLParam(asViewer(httptest.NewRequest(http.MethodPost, "/", nil), staff), "slug", "nope")
		rr := httptest.NewRecorder()
		NewAdminResetLikesHandler(mockSvc)(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("stats", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockSvc := NewMockOperator(ctrl)
		mockSvc.EXPECT().Stats(gomock.Any(), staff).Return(models.RecipeStats{Total: 3, Published: 2, Draft: 1}, nil)

		rr := httptest.NewRecorder()
		NewAdminStatsHandler(mockSvc)(rr, asViewer(httptest.NewRequest(http.MethodGet, "/", nil), staff))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, map[string]any{"total_recipes": float64(3), "published_recipes": float64(2), "draft_recipes": float64(1)}, decodeBody(t, rr))
	})
}
