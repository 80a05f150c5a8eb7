package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Collection is a typed view over one stored collection. Every
// read-modify-write cycle runs under the collection's mutex so concurrent
// requests cannot overwrite each other's changes.
type Collection[T any] struct {
	name  string
	store Store
	mu    sync.Mutex
}

func NewCollection[T any](store Store, name string) *Collection[T] {
	return &Collection[T]{name: name, store: store}
}

func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Mutate loads the collection, applies fn and writes the result back when fn
// reports a change. An error from fn aborts without writing.
func (c *Collection[T]) Mutate(ctx context.Context, fn func(items []T) ([]T, bool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return err
	}
	out, changed, err := fn(items)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	docs := make([]json.RawMessage, 0, len(out))
	for _, it := range out {
		b, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("encode %s record: %w", c.name, err)
		}
		docs = append(docs, b)
	}
	return c.store.WriteAll(ctx, c.name, docs)
}

func (c *Collection[T]) load(ctx context.Context) ([]T, error) {
	docs, err := c.store.ReadAll(ctx, c.name)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(docs))
	for i, d := range docs {
		var it T
		if err := json.Unmarshal(d, &it); err != nil {
			return nil, fmt.Errorf("decode %s record %d: %w", c.name, i, err)
		}
		items = append(items, it)
	}
	return items, nil
}
