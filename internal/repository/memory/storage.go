// Package memory keeps storage state in process memory.
// It is used for development runs without postgres and for service tests.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/nkiryanov/hrauth/internal/models"
	"github.com/nkiryanov/hrauth/internal/repository"
)

type state struct {
	users   map[uuid.UUID]models.User
	tokens  map[uuid.UUID]models.RefreshToken
	hashes  map[string]uuid.UUID
	configs map[uuid.UUID]string
}

func newState() *state {
	return &state{
		users:   make(map[uuid.UUID]models.User),
		tokens:  make(map[uuid.UUID]models.RefreshToken),
		hashes:  make(map[string]uuid.UUID),
		configs: make(map[uuid.UUID]string),
	}
}

func (s *state) clone() *state {
	return &state{
		users:   maps.Clone(s.users),
		tokens:  maps.Clone(s.tokens),
		hashes:  maps.Clone(s.hashes),
		configs: maps.Clone(s.configs),
	}
}

// Storage guards state with a single mutex.
// Transaction holds the mutex until fn returns, so transactions are serialized.
type Storage struct {
	mu   *sync.Mutex // nil when bound to a transaction, the lock is held by the owner
	data *state
}

func NewStorage() *Storage {
	return &Storage{mu: &sync.Mutex{}, data: newState()}
}

func (s *Storage) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{s: s}
}

func (s *Storage) Refresh() repository.RefreshTokenRepo {
	return &RefreshTokenRepo{s: s}
}

func (s *Storage) TenantConfig() repository.TenantConfigRepo {
	return &TenantConfigRepo{s: s}
}

// InTx runs fn over a snapshot of the state. The snapshot replaces the state only if fn succeeds
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	unlock := s.lock()
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.data.clone()
	if err := fn(&Storage{data: snapshot}); err != nil {
		return err
	}

	*s.data = *snapshot
	return nil
}
