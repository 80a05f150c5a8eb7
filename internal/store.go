package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

const (
	CollectionRegistrations = "registrations"
	CollectionQuestions     = "questions"
)

// Store persists whole collections of JSON documents. ReadAll returns an
// empty slice for a collection that was never written.
type Store interface {
	ReadAll(ctx context.Context, collection string) ([]json.RawMessage, error)
	WriteAll(ctx context.Context, collection string, docs []json.RawMessage) error
}

func checkCollection(name string) error {
	switch name {
	case CollectionRegistrations, CollectionQuestions:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownCollection, name)
}

/* ===================== MEMORY ===================== */

type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]json.RawMessage{}}
}

func (s *MemoryStore) ReadAll(_ context.Context, collection string) ([]json.RawMessage, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDocs(s.data[collection]), nil
}

func (s *MemoryStore) WriteAll(_ context.Context, collection string, docs []json.RawMessage) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[collection] = cloneDocs(docs)
	return nil
}

func cloneDocs(in []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(in))
	for i, d := range in {
		out[i] = append(json.RawMessage(nil), d...)
	}
	return out
}
