package project

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	byID     map[string]ClientProject
	byToken  map[string]string
}

// NewMemoryRepository constructs an in-memory repository for tests and
// development mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:    make(map[string]ClientProject),
		byToken: make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, p ClientProject) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("project exists")
	}
	if _, exists := r.byToken[p.Token]; exists {
		return errors.New("token already assigned")
	}
	r.byID[p.ID] = p
	r.byToken[p.Token] = p.ID
	return nil
}

func (r *memoryRepository) FindByToken(_ context.Context, tok string) (ClientProject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byToken[tok]
	if !ok {
		return ClientProject{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (ClientProject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return ClientProject{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepository) UpdateStatus(_ context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	p.ProjectStatus = status
	r.byID[id] = p
	return nil
}

func (r *memoryRepository) UpdatePayment(_ context.Context, id string, status PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	p.PaymentStatus = status
	r.byID[id] = p
	return nil
}
