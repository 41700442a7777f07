package charm

import (
	"context"
	"errors"
	"sync"

	"github.com/kompox/knative-charms/adapters/store/inmem"
	"github.com/kompox/knative-charms/charms"
	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/domain/podspec"
)

type fakeUnit struct {
	mu       sync.Mutex
	leader   bool
	statuses []model.Status
}

func (f *fakeUnit) IsLeader(context.Context) (bool, error) { return f.leader, nil }

func (f *fakeUnit) SetStatus(_ context.Context, s model.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, s)
	return nil
}

func (f *fakeUnit) last() model.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return model.Status{}
	}
	return f.statuses[len(f.statuses)-1]
}

type fakeConfig struct {
	cfg   model.Config
	reads int
}

func (f *fakeConfig) Config(context.Context) (model.Config, error) {
	f.reads++
	cp := model.Config{}
	for k, v := range f.cfg {
		cp[k] = v
	}
	return cp, nil
}

type fakeSpec struct {
	calls     int
	err       error
	spec      *podspec.PodSpec
	resources *podspec.K8sResources
	opts      model.SetPodSpecOptions
}

func (f *fakeSpec) SetPodSpec(_ context.Context, spec *podspec.PodSpec, res *podspec.K8sResources, opts ...model.SetPodSpecOption) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.spec, f.resources = spec, res
	f.opts = model.SetPodSpecOptions{}
	for _, o := range opts {
		o(&f.opts)
	}
	return nil
}

type fakeImage struct {
	info *model.ImageInfo
	err  error
}

func (f *fakeImage) FetchImage(context.Context, string) (*model.ImageInfo, error) {
	return f.info, f.err
}

// installOnlyCharm wraps a charm and narrows its subscriptions.
type installOnlyCharm struct{ charms.Charm }

func (installOnlyCharm) Events() []model.Event { return []model.Event{model.EventInstall} }

var errSubmit = errors.New("pod-spec-set failed")

type fixture struct {
	uc     *UseCase
	unit   *fakeUnit
	config *fakeConfig
	spec   *fakeSpec
	repo   *inmem.UnitStateRepository
}

func newFixture(c charms.Charm, cfg model.Config) *fixture {
	f := &fixture{
		unit:   &fakeUnit{leader: true},
		config: &fakeConfig{cfg: cfg},
		spec:   &fakeSpec{},
		repo:   inmem.NewUnitStateRepository(),
	}
	f.uc = &UseCase{
		Charm:     c,
		Repos:     &Repos{State: f.repo},
		Unit:      f.unit,
		Config:    f.config,
		Spec:      f.spec,
		Namespace: "knative-serving",
		UnitName:  string(c.Name()) + "/0",
	}
	return f
}
