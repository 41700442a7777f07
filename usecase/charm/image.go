package charm

import (
	"context"
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"

	"github.com/kompox/knative-charms/domain/model"
)

// resolveImage returns the image to deploy. Without an image port the charm's
// pinned image is used.
func (u *UseCase) resolveImage(ctx context.Context) (*model.ImageInfo, error) {
	if u.Image == nil || u.Charm.ImageResource() == "" {
		return &model.ImageInfo{Path: u.Charm.DefaultImage()}, nil
	}
	img, err := u.Image.FetchImage(ctx, u.Charm.ImageResource())
	if err != nil {
		return nil, err
	}
	if img == nil || img.Path == "" {
		return nil, fmt.Errorf("%w: %s: empty image path", model.ErrImageResource, u.Charm.ImageResource())
	}
	if _, err := name.ParseReference(img.Path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrImageResource, u.Charm.ImageResource(), err)
	}
	return img, nil
}
