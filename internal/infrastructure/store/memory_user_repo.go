package store

import (
	"context"
	"sync"

	"github.com/example/ec-orders/internal/domain/user"
)

// MemoryUserRepository is an in-memory user.Repository for tests and
// local runs.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*user.User
	byEmail map[string]*user.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]*user.User),
		byEmail: make(map[string]*user.User),
	}
}

func (r *MemoryUserRepository) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[u.Email]; exists {
		return user.ErrEmailTaken
	}

	clone := *u
	r.byID[u.ID] = &clone
	r.byEmail[u.Email] = &clone
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, exists := r.byID[id]
	if !exists {
		return nil, user.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, exists := r.byEmail[email]
	if !exists {
		return nil, user.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}
