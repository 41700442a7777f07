package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kompox/knative-charms/domain"
	"github.com/kompox/knative-charms/domain/model"
)

// UnitStateRepository is a thread-safe in-memory implementation.
type UnitStateRepository struct {
	mu    sync.RWMutex
	items map[string]*model.UnitState
}

func NewUnitStateRepository() *UnitStateRepository {
	return &UnitStateRepository{items: make(map[string]*model.UnitState)}
}

func (r *UnitStateRepository) Get(_ context.Context, unitName string) (*model.UnitState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[unitName]
	if !ok {
		return nil, model.ErrUnitStateNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *UnitStateRepository) Save(_ context.Context, s *model.UnitState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if prev, ok := r.items[s.UnitName]; ok && s.CreatedAt.IsZero() {
		s.CreatedAt = prev.CreatedAt
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	cp := *s
	r.items[s.UnitName] = &cp
	return nil
}

func (r *UnitStateRepository) List(_ context.Context) ([]*model.UnitState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.UnitState, 0, len(r.items))
	for _, v := range r.items {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitName < out[j].UnitName })
	return out, nil
}

func (r *UnitStateRepository) Delete(_ context.Context, unitName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[unitName]; !ok {
		return model.ErrUnitStateNotFound
	}
	delete(r.items, unitName)
	return nil
}

var _ domain.UnitStateRepository = (*UnitStateRepository)(nil)
