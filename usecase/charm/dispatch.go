package charm

import (
	"context"
	"fmt"

	"github.com/kompox/knative-charms/charms"
	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/internal/logging"
)

// DispatchInput names the lifecycle event to handle.
type DispatchInput struct {
	Event model.Event `json:"event"`
}

// Dispatch handles one lifecycle event. A non-leader unit reports Waiting and
// does nothing else. Events the charm does not subscribe to are ignored.
func (u *UseCase) Dispatch(ctx context.Context, in *DispatchInput) (*ReconcileOutput, error) {
	if in == nil || in.Event == "" {
		return nil, fmt.Errorf("missing event")
	}
	ctx = logging.WithUnit(ctx, u.UnitName, string(u.Charm.Name()))
	logger := logging.FromContext(ctx).With("event", in.Event)
	ctx = logging.WithLogger(ctx, logger)

	leader, err := u.Unit.IsLeader(ctx)
	if err != nil {
		return nil, fmt.Errorf("check leadership: %w", err)
	}
	if !leader {
		st := model.WaitingStatus(model.MessageWaitingLeadership)
		if err := u.Unit.SetStatus(ctx, st); err != nil {
			return nil, fmt.Errorf("set status: %w", err)
		}
		logger.Info(ctx, "not the leader, waiting")
		return &ReconcileOutput{Event: in.Event, Action: ActionWaiting, Status: st}, nil
	}

	if !charms.Subscribes(u.Charm, in.Event) {
		logger.Debug(ctx, "event ignored")
		return &ReconcileOutput{Event: in.Event, Action: ActionIgnored}, nil
	}

	switch in.Event {
	case model.EventInstall:
		return u.Install(ctx)
	case model.EventConfigChanged:
		return u.ConfigChanged(ctx)
	}
	return &ReconcileOutput{Event: in.Event, Action: ActionIgnored}, nil
}
