package charm

import (
	"context"

	"github.com/kompox/knative-charms/domain/model"
)

// Install handles the install event. Leadership is checked by Dispatch.
func (u *UseCase) Install(ctx context.Context) (*ReconcileOutput, error) {
	return u.reconcile(ctx, model.EventInstall)
}
