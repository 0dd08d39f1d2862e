package middlewares

import (
	"bytes"
	"context"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/repositories"
)

// TxMiddleware wraps an HTTP handler with a database transaction. The
// response is held back until the outcome is known: a status below 400
// commits, anything else or a panic rolls back. Callbacks registered with
// repositories.AfterCommit run only after a successful commit.
func TxMiddleware(db *sqlx.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tx, err := db.BeginTxx(r.Context(), nil)
			if err != nil {
				logger.Log.Errorw("failed to begin transaction", "error", err)
				writeDetail(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			defer func() {
				if rec := recover(); rec != nil {
					tx.Rollback()
					panic(rec)
				}
			}()

			ctx, hooks := repositories.WithCommitHooks(setTxToContext(r.Context(), tx))
			bw := &bufferedWriter{header: http.Header{}, statusCode: http.StatusOK}
			next.ServeHTTP(bw, r.WithContext(ctx))

			if bw.statusCode >= http.StatusBadRequest {
				if err := tx.Rollback(); err != nil {
					logger.Log.Errorw("failed to rollback transaction", "error", err)
				}
				bw.flush(w)
				return
			}

			if err := tx.Commit(); err != nil {
				logger.Log.Errorw("failed to commit transaction", "error", err)
				writeDetail(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			bw.flush(w)
			hooks.Run()
		})
	}
}

// bufferedWriter records a response so it can be discarded if the commit fails.
type bufferedWriter struct {
	header     http.Header
	statusCode int
	body       bytes.Buffer
}

func (bw *bufferedWriter) Header() http.Header { return bw.header }

func (bw *bufferedWriter) WriteHeader(code int) { bw.statusCode = code }

func (bw *bufferedWriter) Write(b []byte) (int, error) { return bw.body.Write(b) }

func (bw *bufferedWriter) flush(w http.ResponseWriter) {
	for k, v := range bw.header {
		w.Header()[k] = v
	}
	w.WriteHeader(bw.statusCode)
	w.Write(bw.body.Bytes())
}

type txKey struct{}

func setTxToContext(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// InTx runs fn with a transaction in its context, for callers outside HTTP.
// It commits when fn returns nil and rolls back otherwise. Commit hooks run
// after a successful commit.
func InTx(ctx context.Context, db *sqlx.DB, fn func(ctx context.Context) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
			panic(rec)
		}
	}()

	txCtx, hooks := repositories.WithCommitHooks(setTxToContext(ctx, tx))
	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Log.Errorw("failed to rollback transaction", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	hooks.Run()
	return nil
}

// GetTxFromContext retrieves the transaction from the context. Returns nil if not present.
func GetTxFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx
}
