package charm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kompox/knative-charms/charms"
	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/internal/confighash"
	"github.com/kompox/knative-charms/internal/logging"
)

// reconcile applies the reconciliation rule shared by install and
// config-changed:
//
//  1. invalid configuration blocks the unit and leaves the state untouched
//  2. a fingerprint change resets Started and stores the new fingerprint
//  3. a started unit is re-asserted Active without resubmitting
//  4. otherwise the descriptor is built, submitted and the unit marked started
func (u *UseCase) reconcile(ctx context.Context, ev model.Event) (*ReconcileOutput, error) {
	logger := logging.FromContext(ctx)
	out := &ReconcileOutput{Event: ev}
	if u.Namespace == "" {
		return nil, fmt.Errorf("%w for unit %s", model.ErrNamespaceMissing, u.UnitName)
	}

	cfg, err := u.Config.Config(ctx)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := u.Charm.Validate(cfg); err != nil {
		out.Action = ActionBlocked
		out.Status = model.BlockedStatus(blockedMessage(err))
		logger.Warn(ctx, "configuration rejected", "err", err)
		if err := u.Unit.SetStatus(ctx, out.Status); err != nil {
			return nil, fmt.Errorf("set status: %w", err)
		}
		return out, nil
	}

	digest, err := confighash.Compute(cfg.Subset(u.Charm.ConfigKeys()...))
	if err != nil {
		return nil, fmt.Errorf("config hash: %w", err)
	}
	out.Digest = digest

	state, err := u.loadState(ctx)
	if err != nil {
		return nil, err
	}
	if state.ConfigHash != digest {
		logger.Info(ctx, "configuration changed", "old", state.ConfigHash, "new", digest)
		state.Started = false
		state.ConfigHash = digest
		if err := u.saveState(ctx, state); err != nil {
			return nil, err
		}
	}

	if state.Started {
		out.Action = ActionSkipped
		out.Status = model.ActiveStatus(model.MessageReady)
		logger.Debug(ctx, "already started, nothing to submit")
		if err := u.Unit.SetStatus(ctx, out.Status); err != nil {
			return nil, fmt.Errorf("set status: %w", err)
		}
		return out, nil
	}

	if err := u.Unit.SetStatus(ctx, model.MaintenanceStatus(u.Charm.InstallMessage())); err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}

	img, err := u.resolveImage(ctx)
	if err != nil {
		out.Action = ActionBlocked
		out.Status = model.BlockedStatus(model.MessageImageFetchFailed)
		logger.Error(ctx, "image resource fetch failed", "resource", u.Charm.ImageResource(), "err", err)
		if err := u.Unit.SetStatus(ctx, out.Status); err != nil {
			return nil, fmt.Errorf("set status: %w", err)
		}
		return out, nil
	}

	spec, res, err := u.Charm.Build(&charms.BuildInput{
		Namespace: u.Namespace,
		Image:     *img,
		Config:    cfg,
		Files:     u.Files,
	})
	if err != nil {
		return nil, fmt.Errorf("build descriptor: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("pod spec: %w", err)
	}
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("k8s resources: %w", err)
	}

	if err := u.Spec.SetPodSpec(ctx, spec, res,
		model.WithConfigHash(digest),
		model.WithAppName(string(u.Charm.Name())),
	); err != nil {
		return nil, fmt.Errorf("set pod spec: %w", err)
	}
	logger.Info(ctx, "pod spec submitted", "image", spec.Containers[0].ImageRef(), "digest", digest)

	state.Started = true
	if err := u.saveState(ctx, state); err != nil {
		return nil, err
	}
	out.Action = ActionApplied
	out.Status = model.ActiveStatus(model.MessageReady)
	if err := u.Unit.SetStatus(ctx, out.Status); err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}
	return out, nil
}

func (u *UseCase) loadState(ctx context.Context) (*model.UnitState, error) {
	s, err := u.Repos.State.Get(ctx, u.UnitName)
	if errors.Is(err, model.ErrUnitStateNotFound) {
		return model.NewUnitState(u.UnitName, u.Charm.Name(), u.Namespace), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load unit state: %w", err)
	}
	return s, nil
}

func (u *UseCase) saveState(ctx context.Context, s *model.UnitState) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if err := u.Repos.State.Save(ctx, s); err != nil {
		return fmt.Errorf("save unit state: %w", err)
	}
	return nil
}

// blockedMessage strips the sentinel prefix so the status reads like the
// validation failure itself.
func blockedMessage(err error) string {
	msg := err.Error()
	if errors.Is(err, model.ErrConfigInvalid) {
		msg = strings.TrimPrefix(msg, model.ErrConfigInvalid.Error()+": ")
	}
	return msg
}
