package charm

import (
	"context"

	"github.com/kompox/knative-charms/domain/model"
)

// ConfigChanged handles the config-changed event. Leadership is checked by
// Dispatch.
func (u *UseCase) ConfigChanged(ctx context.Context) (*ReconcileOutput, error) {
	return u.reconcile(ctx, model.EventConfigChanged)
}
