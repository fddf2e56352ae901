// Package tickets owns ticket storage, the knowledge base and cached analyses.
package tickets

import (
	"context"
	"errors"
	"sync"

	"ticket-triage/internal/models"
)

var ErrNotFound = errors.New("NOT_FOUND")

// Repository stores tickets created through the API.
type Repository interface {
	Create(ctx context.Context, t models.Ticket) error
	Get(ctx context.Context, id string) (*models.Ticket, error)
	List(ctx context.Context) ([]models.Ticket, error)
}

// MemoryRepository keeps tickets in process, in creation order.
type MemoryRepository struct {
	mu      sync.RWMutex
	tickets []models.Ticket
	index   map[string]int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{index: map[string]int{}}
}

func (r *MemoryRepository) Create(_ context.Context, t models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[t.ID]; ok {
		r.tickets[i] = t
		return nil
	}
	r.index[t.ID] = len(r.tickets)
	r.tickets = append(r.tickets, t)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	t := r.tickets[i]
	return &t, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Ticket(nil), r.tickets...), nil
}
