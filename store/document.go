package store

import (
	"context"
	"errors"
	"sync"
)

// errUnchanged aborts a mutation that found nothing to change; mutate
// reports it as success without writing.
var errUnchanged = errors.New("unchanged")

// document is the single-writer owner of one persisted JSON document.
// Mutations run under the write lock on a private copy and are swapped in
// only after the copy has been saved, so readers always see the last
// committed value.
type document[T any] struct {
	mu    sync.RWMutex
	db    *DB
	name  string
	value T
	clone func(T) T
}

func (d *document[T]) read() T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.clone(d.value)
}

// mutate applies fn to a copy of the current value and persists the result.
// An error from fn aborts the mutation without writing.
func (d *document[T]) mutate(ctx context.Context, op string, fn func(*T) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	next := d.clone(d.value)
	if err := fn(&next); err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	if err := d.db.Save(ctx, d.name, next); err != nil {
		return &PersistenceError{Op: op, Err: err}
	}
	d.value = next
	return nil
}
