package middlewares

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/recipe-share/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestTxMiddleware_Commit(t *testing.T) {
	sqlxDB, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		assert.NotNil(t, GetTxFromContext(r.Context()))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	})

	handler := TxMiddleware(sqlxDB)(next)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.True(t, nextCalled)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, `{"ok":true}`, rr.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxMiddleware_RollbackOnClientError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			sqlxDB, mock := newMockDB(t)

			mock.ExpectBegin()
			mock.ExpectRollback()

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			})

			rr := httptest.NewRecorder()
			TxMiddleware(sqlxDB)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))

			assert.Equal(t, status, rr.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTxMiddleware_BeginError(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	// Close db so Begin fails
	db.Close()

	handler := TxMiddleware(sqlxDB)(next)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestTxMiddleware_CommitError(t *testing.T) {
	sqlxDB, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(sql.ErrConnDone)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("created"))
	})

	rr := httptest.NewRecorder()
	TxMiddleware(sqlxDB)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "created")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxMiddleware_Panic(t *testing.T) {
	sqlxDB, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	handler := TxMiddleware(sqlxDB)(next)
	rr := httptest.NewRecorder()

	assert.Panics(t, func() {
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxMiddleware_CommitHooks(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		commit  error
		wantRun bool
	}{
		{name: "run after commit", status: http.StatusCreated, wantRun: true},
		{name: "dropped on rollback", status: http.StatusConflict},
		{name: "dropped on commit error", status: http.StatusOK, commit: sql.ErrConnDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sqlxDB, mock := newMockDB(t)
			mock.ExpectBegin()
			switch {
			case tt.status >= http.StatusBadRequest:
				mock.ExpectRollback()
			case tt.commit != nil:
				mock.ExpectCommit().WillReturnError(tt.commit)
			default:
				mock.ExpectCommit()
			}

			ran := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				repositories.AfterCommit(r.Context(), func() { ran = true })
				assert.False(t, ran)
				w.WriteHeader(tt.status)
			})

			TxMiddleware(sqlxDB)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

			assert.Equal(t, tt.wantRun, ran)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetTxFromContext_Missing(t *testing.T) {
	assert.Nil(t, GetTxFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestInTx(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		err := InTx(context.Background(), sqlxDB, func(ctx context.Context) error {
			assert.NotNil(t, GetTxFromContext(ctx))
			return nil
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on error", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := InTx(context.Background(), sqlxDB, func(ctx context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("hooks follow the outcome", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectRollback()

		committed := false
		err := InTx(context.Background(), sqlxDB, func(ctx context.Context) error {
			repositories.AfterCommit(ctx, func() { committed = true })
			return nil
		})
		require.NoError(t, err)
		assert.True(t, committed)

		rolledBack := false
		err = InTx(context.Background(), sqlxDB, func(ctx context.Context) error {
			repositories.AfterCommit(ctx, func() { rolledBack = true })
			return errors.New("boom")
		})
		assert.Error(t, err)
		assert.False(t, rolledBack)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin error", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

		called := false
		err := InTx(context.Background(), sqlxDB, func(ctx context.Context) error { called = true; return nil })
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.False(t, called)
	})
}
