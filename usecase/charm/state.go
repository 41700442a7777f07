package charm

import (
	"context"
	"errors"
	"fmt"

	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/internal/logging"
)

// StateOutput holds the stored record of the unit.
type StateOutput struct {
	// Found is false when the unit has never reconciled.
	Found bool
	State *model.UnitState
}

// State returns the stored record of the unit, or the default record when
// none exists yet.
func (u *UseCase) State(ctx context.Context) (*StateOutput, error) {
	s, err := u.Repos.State.Get(ctx, u.UnitName)
	if errors.Is(err, model.ErrUnitStateNotFound) {
		return &StateOutput{State: model.NewUnitState(u.UnitName, u.Charm.Name(), u.Namespace)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load unit state: %w", err)
	}
	return &StateOutput{Found: true, State: s}, nil
}

// StateList returns every stored record.
func (u *UseCase) StateList(ctx context.Context) ([]*model.UnitState, error) {
	items, err := u.Repos.State.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unit states: %w", err)
	}
	return items, nil
}

// ResetState deletes the stored record so the next event resubmits the
// descriptor. Deleting a missing record is not an error.
func (u *UseCase) ResetState(ctx context.Context) error {
	err := u.Repos.State.Delete(ctx, u.UnitName)
	if err != nil && !errors.Is(err, model.ErrUnitStateNotFound) {
		return fmt.Errorf("delete unit state: %w", err)
	}
	logging.FromContext(ctx).Info(ctx, "unit state reset", "unit", u.UnitName)
	return nil
}
