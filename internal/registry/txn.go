package registry

import (
	"context"

	"github.com/fyrsmithlabs/dsproj/internal/logging"
	"go.uber.org/zap"
)

// txn collects undo steps for the side effects of one registry operation.
// Steps run in reverse order when the txn is closed without a commit.
// Undo is best-effort: failures are logged and never replace the error
// that caused the rollback.
type txn struct {
	ctx       context.Context
	logger    *logging.Logger
	steps     []undoStep
	committed bool
}

type undoStep struct {
	name string
	fn   func(ctx context.Context) error
}

func newTxn(ctx context.Context, logger *logging.Logger) *txn {
	return &txn{ctx: ctx, logger: logger}
}

// onRollback registers fn to run if the txn is not committed.
func (t *txn) onRollback(name string, fn func(ctx context.Context) error) {
	t.steps = append(t.steps, undoStep{name: name, fn: fn})
}

// commit marks the txn successful; close becomes a no-op.
func (t *txn) commit() {
	t.committed = true
}

// close rolls back uncommitted work. It is meant to be deferred right after
// newTxn so it runs on every exit path, cancellation included. Undo steps
// get a context that is not cancelled with the operation's.
func (t *txn) close() {
	if t.committed || len(t.steps) == 0 {
		return
	}
	ctx := context.WithoutCancel(t.ctx)
	t.logger.Debug(ctx, "rolling back", zap.Int("steps", len(t.steps)))
	for i := len(t.steps) - 1; i >= 0; i-- {
		step := t.steps[i]
		if err := step.fn(ctx); err != nil {
			t.logger.Warn(ctx, "rollback step failed", zap.String("step", step.name), zap.Error(err))
			continue
		}
		t.logger.Trace(ctx, "rollback step done", zap.String("step", step.name))
	}
	t.steps = nil
}
