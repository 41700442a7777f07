// Package unit provides a UnitPort for runs outside a lifecycle framework.
package unit

import (
	"context"
	"sync"

	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/internal/logging"
)

// LocalUnit answers leadership from a fixed flag and keeps every status it is
// given. It is used by the apply command.
type LocalUnit struct {
	Leader bool

	mu      sync.Mutex
	history []model.Status
}

var _ model.UnitPort = (*LocalUnit)(nil)

// NewLocalUnit returns a LocalUnit with the given leadership.
func NewLocalUnit(leader bool) *LocalUnit {
	return &LocalUnit{Leader: leader}
}

func (u *LocalUnit) IsLeader(context.Context) (bool, error) {
	return u.Leader, nil
}

// SetStatus records status and logs the transition from the previous one.
func (u *LocalUnit) SetStatus(ctx context.Context, status model.Status) error {
	u.mu.Lock()
	prev := model.Status{}
	if n := len(u.history); n > 0 {
		prev = u.history[n-1]
	}
	u.history = append(u.history, status)
	u.mu.Unlock()

	logger := logging.FromContext(ctx)
	if status.Kind == model.StatusBlocked {
		logger.Warn(ctx, "Unit:status", "from", string(prev.Kind), "to", string(status.Kind), "message", status.Message)
		return nil
	}
	logger.Info(ctx, "Unit:status", "from", string(prev.Kind), "to", string(status.Kind), "message", status.Message)
	return nil
}

// History returns a copy of every status set so far, oldest first.
func (u *LocalUnit) History() []model.Status {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]model.Status, len(u.history))
	copy(out, u.history)
	return out
}

// Current returns the last status set and false when none was set.
func (u *LocalUnit) Current() (model.Status, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.history) == 0 {
		return model.Status{}, false
	}
	return u.history[len(u.history)-1], true
}
