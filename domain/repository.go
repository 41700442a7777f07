package domain

import (
	"context"

	"github.com/kompox/knative-charms/domain/model"
)

// UnitStateRepository stores and retrieves per-unit reconciliation state.
type UnitStateRepository interface {
	// Get returns model.ErrUnitStateNotFound when the unit has no record yet.
	Get(ctx context.Context, unitName string) (*model.UnitState, error)
	// Save creates or replaces the record for s.UnitName.
	Save(ctx context.Context, s *model.UnitState) error
	List(ctx context.Context) ([]*model.UnitState, error)
	Delete(ctx context.Context, unitName string) error
}
