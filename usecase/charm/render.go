package charm

import (
	"context"
	"fmt"

	"github.com/kompox/knative-charms/charms"
	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/domain/podspec"
	"github.com/kompox/knative-charms/internal/confighash"
)

// RenderInput selects the configuration to render with.
type RenderInput struct {
	// Config overrides the configuration port when non-nil.
	Config model.Config
	// Image overrides image resolution when non-nil.
	Image *model.ImageInfo
}

// RenderOutput is the descriptor the charm would submit.
type RenderOutput struct {
	Spec      *podspec.PodSpec
	Resources *podspec.K8sResources
	Digest    string
}

// Render builds and validates the descriptor without consulting leadership or
// state and without submitting anything.
func (u *UseCase) Render(ctx context.Context, in *RenderInput) (*RenderOutput, error) {
	if in == nil {
		in = &RenderInput{}
	}
	cfg := in.Config
	if cfg == nil {
		if u.Config == nil {
			return nil, fmt.Errorf("no configuration source")
		}
		c, err := u.Config.Config(ctx)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		cfg = c
	}
	if err := u.Charm.Validate(cfg); err != nil {
		return nil, err
	}
	digest, err := confighash.Compute(cfg.Subset(u.Charm.ConfigKeys()...))
	if err != nil {
		return nil, fmt.Errorf("config hash: %w", err)
	}

	img := in.Image
	if img == nil {
		img, err = u.resolveImage(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve image: %w", err)
		}
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
	return &RenderOutput{Spec: spec, Resources: res, Digest: digest}, nil
}
