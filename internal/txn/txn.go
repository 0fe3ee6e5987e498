// Package txn abstracts the unit of work the fulfillment service runs its
// multi-step mutations in. Postgres provides it through db.TxRunner; the
// in-memory backend provides it through an undo journal.
package txn

import (
	"context"
	"sync"
)

// Runner executes fn atomically: either every write fn performs becomes
// visible or none does.
type Runner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type journalKey struct{}

type journal struct {
	mu    sync.Mutex
	undos []func()
}

func (j *journal) add(undo func()) {
	j.mu.Lock()
	j.undos = append(j.undos, undo)
	j.mu.Unlock()
}

func (j *journal) rollback() {
	j.mu.Lock()
	undos := j.undos
	j.undos = nil
	j.mu.Unlock()
	for i := len(undos) - 1; i >= 0; i-- {
		undos[i]()
	}
}

// Memory is the Runner used with in-memory repositories. Writes register an
// inverse operation with OnRollback; a failing unit replays them in reverse.
type Memory struct{}

func (Memory) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}
	j := &journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		j.rollback()
		return err
	}
	return nil
}

// OnRollback registers undo with the journal bound to ctx. Outside a unit
// of work it is a no-op.
func OnRollback(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.add(undo)
	}
}
