// Package store persists review state, comments and metadata for the
// development audit service.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when a comment to delete does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence layer behind the audit service.
type Store interface {
	// Get returns the record for fileName, or an empty record if none exists.
	Get(ctx context.Context, fileName string) (*FileRecord, error)
	// Update runs fn on the current record and saves the result atomically.
	// Returning an error from fn discards the change.
	Update(ctx context.Context, fileName string, fn func(*FileRecord) error) error
	// List returns every stored record ordered by file name.
	List(ctx context.Context) ([]*FileRecord, error)
	// NextCommentID allocates a new comment id. IDs start at 1.
	NextCommentID(ctx context.Context) (int64, error)
	Close() error
}

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	files  map[string]*FileRecord
	nextID int64
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string]*FileRecord)}
}

func (s *MemoryStore) Get(ctx context.Context, fileName string) (*FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.files[fileName]; ok {
		return r.Clone(), nil
	}
	return NewFileRecord(fileName), nil
}

func (s *MemoryStore) Update(ctx context.Context, fileName string, fn func(*FileRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.files[fileName]
	if ok {
		r = r.Clone()
	} else {
		r = NewFileRecord(fileName)
	}
	if err := fn(r); err != nil {
		return err
	}
	s.files[fileName] = r
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*FileRecord, 0, len(s.files))
	for _, r := range s.files {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out, nil
}

func (s *MemoryStore) NextCommentID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return s.nextID, nil
}

func (s *MemoryStore) Close() error { return nil }
