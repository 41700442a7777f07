package model

import (
	"context"

	"github.com/kompox/knative-charms/domain/podspec"
)

// UnitPort reports leadership and receives status updates for the local unit.
type UnitPort interface {
	IsLeader(ctx context.Context) (bool, error)
	SetStatus(ctx context.Context, status Status) error
}

// ConfigPort reads the current charm configuration.
type ConfigPort interface {
	Config(ctx context.Context) (Config, error)
}

// ImagePort resolves the image attached to a charm resource.
type ImagePort interface {
	FetchImage(ctx context.Context, resourceName string) (*ImageInfo, error)
}

// SetPodSpecOptions carries optional metadata alongside a submission.
type SetPodSpecOptions struct {
	// ConfigHash is the fingerprint of the configuration the spec was built from.
	ConfigHash string
	// AppName overrides the application name used for generated objects.
	AppName string
}

type SetPodSpecOption func(*SetPodSpecOptions)

func WithConfigHash(h string) SetPodSpecOption {
	return func(o *SetPodSpecOptions) { o.ConfigHash = h }
}

func WithAppName(name string) SetPodSpecOption {
	return func(o *SetPodSpecOptions) { o.AppName = name }
}

// SpecPort submits the desired pod spec and auxiliary cluster resources to the
// orchestration layer in one call.
type SpecPort interface {
	SetPodSpec(ctx context.Context, spec *podspec.PodSpec, resources *podspec.K8sResources, opts ...SetPodSpecOption) error
}
