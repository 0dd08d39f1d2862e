package repositories

import (
	"context"
	"sync"
)

// CommitHooks collects callbacks that must only run once the surrounding
// transaction has committed.
type CommitHooks struct {
	mu  sync.Mutex
	fns []func()
}

type commitHooksKey struct{}

// WithCommitHooks attaches an empty hook list to ctx. The owner of the
// transaction calls Run after a successful commit and drops the list otherwise.
func WithCommitHooks(ctx context.Context) (context.Context, *CommitHooks) {
	hooks := &CommitHooks{}
	return context.WithValue(ctx, commitHooksKey{}, hooks), hooks
}

// AfterCommit defers fn until the transaction in ctx commits.
// Without a hook list in ctx there is nothing to wait for and fn runs now.
func AfterCommit(ctx context.Context, fn func()) {
	hooks, _ := ctx.Value(commitHooksKey{}).(*CommitHooks)
	if hooks == nil {
		fn()
		return
	}
	hooks.mu.Lock()
	hooks.fns = append(hooks.fns, fn)
	hooks.mu.Unlock()
}

// Run calls the collected callbacks in registration order.
func (h *CommitHooks) Run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
