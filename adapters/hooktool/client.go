package hooktool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/domain/podspec"
	"github.com/kompox/knative-charms/internal/logging"
)

// Client talks to the lifecycle framework through its hook tools.
type Client struct {
	runner  Runner
	tempDir string
}

// Option configures a Client.
type Option func(*Client)

// WithRunner replaces the os/exec runner.
func WithRunner(r Runner) Option {
	return func(c *Client) { c.runner = r }
}

// WithTempDir sets the parent directory of the pod-spec-set scratch files.
func WithTempDir(dir string) Option {
	return func(c *Client) { c.tempDir = dir }
}

// New returns a Client running the hook tools found in PATH by default.
func New(opts ...Option) *Client {
	c := &Client{runner: &ExecRunner{}}
	for _, o := range opts {
		o(c)
	}
	return c
}

// IsLeader runs is-leader.
func (c *Client) IsLeader(ctx context.Context) (bool, error) {
	out, err := c.runner.Run(ctx, "is-leader", "--format=json")
	if err != nil {
		return false, err
	}
	var leader bool
	if err := json.Unmarshal(bytes.TrimSpace(out), &leader); err != nil {
		return false, fmt.Errorf("is-leader: parse %q: %w", strings.TrimSpace(string(out)), err)
	}
	return leader, nil
}

// SetStatus runs status-set.
func (c *Client) SetStatus(ctx context.Context, s model.Status) error {
	_, err := c.runner.Run(ctx, "status-set", string(s.Kind), s.Message)
	return err
}

// Config runs config-get. Numbers keep their literal text.
func (c *Client) Config(ctx context.Context) (model.Config, error) {
	out, err := c.runner.Run(ctx, "config-get", "--all", "--format=json")
	if err != nil {
		return nil, err
	}
	cfg := model.Config{}
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return cfg, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config-get: %w", err)
	}
	return cfg, nil
}

// imageResource is the content of an OCI image resource file.
type imageResource struct {
	RegistryPath string `yaml:"registrypath"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
}

// FetchImage runs resource-get and reads the OCI image resource it points at.
func (c *Client) FetchImage(ctx context.Context, resourceName string) (*model.ImageInfo, error) {
	out, err := c.runner.Run(ctx, "resource-get", resourceName)
	if err != nil {
		return nil, err
	}
	path := strings.TrimSpace(string(out))
	if path == "" {
		return nil, fmt.Errorf("%w: %s: resource-get returned no path", model.ErrImageResource, resourceName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrImageResource, resourceName, err)
	}
	var res imageResource
	if err := yaml.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrImageResource, resourceName, err)
	}
	if res.RegistryPath == "" {
		return nil, fmt.Errorf("%w: %s: registrypath is empty", model.ErrImageResource, resourceName)
	}
	return &model.ImageInfo{Path: res.RegistryPath, Username: res.Username, Password: res.Password}, nil
}

// SetPodSpec writes both documents to a scratch directory and runs
// pod-spec-set. The directory is removed afterwards.
func (c *Client) SetPodSpec(ctx context.Context, spec *podspec.PodSpec, resources *podspec.K8sResources, opts ...model.SetPodSpecOption) error {
	logger := logging.FromContext(ctx)
	o := model.SetPodSpecOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	dir, err := os.MkdirTemp(c.tempDir, "pod-spec-")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	specYAML, err := spec.YAML()
	if err != nil {
		return err
	}
	specPath := filepath.Join(dir, "spec.yaml")
	if err := os.WriteFile(specPath, specYAML, 0o600); err != nil {
		return fmt.Errorf("write pod spec: %w", err)
	}
	args := []string{"--file", specPath}

	if !resources.IsEmpty() {
		resYAML, err := resources.YAML()
		if err != nil {
			return err
		}
		resPath := filepath.Join(dir, "k8s-resources.yaml")
		if err := os.WriteFile(resPath, resYAML, 0o600); err != nil {
			return fmt.Errorf("write k8s resources: %w", err)
		}
		args = append(args, "--k8s-resources", resPath)
	}

	if _, err := c.runner.Run(ctx, "pod-spec-set", args...); err != nil {
		return err
	}
	logger.Info(ctx, "HookTool:pod-spec-set", "app", o.AppName, "config_hash", o.ConfigHash)
	return nil
}

var (
	_ model.UnitPort   = (*Client)(nil)
	_ model.ConfigPort = (*Client)(nil)
	_ model.ImagePort  = (*Client)(nil)
	_ model.SpecPort   = (*Client)(nil)
)
