// Package pending keeps per-user selections alive between a menu being shown
// and the user's button press. At most one selection exists per user; a newer
// Put overwrites the older entry.
package pending

import (
	"context"
	"sync"
	"time"

	"github.com/Conte777/ClipFlow/internal/domain/download/entities"
)

// MemoryStore is the in-memory backing for single-process deployments
type MemoryStore struct {
	mu         sync.Mutex
	selections map[int64]*entities.PendingSelection
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		selections: make(map[int64]*entities.PendingSelection),
	}
}

// Put stores a selection, overwriting any existing entry for the user
func (s *MemoryStore) Put(_ context.Context, sel *entities.PendingSelection) {
	if sel.CreatedAt.IsZero() {
		sel.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections[sel.UserID] = sel
}

// Get returns the selection for a user without consuming it
func (s *MemoryStore) Get(_ context.Context, userID int64) (*entities.PendingSelection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, ok := s.selections[userID]
	return sel, ok
}

// Pop consumes and returns the selection for a user.
// A miss is a normal outcome, not an error.
func (s *MemoryStore) Pop(_ context.Context, userID int64) (*entities.PendingSelection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, ok := s.selections[userID]
	if ok {
		delete(s.selections, userID)
	}
	return sel, ok
}
