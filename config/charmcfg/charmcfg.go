// Package charmcfg loads a charm's config.yaml and merges user overrides into
// its defaults.
package charmcfg

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kompox/knative-charms/domain/model"
)

// FileName is the charm configuration schema bundled with every charm.
const FileName = "config.yaml"

// Option types understood by the lifecycle framework.
const (
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeInt     = "int"
	TypeFloat   = "float"
)

// Option is one entry of the options map.
type Option struct {
	Type        string `yaml:"type"`
	Default     any    `yaml:"default,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// File is a parsed config.yaml.
type File struct {
	Options map[string]Option `yaml:"options"`
}

// Load reads and parses name from fsys.
func Load(fsys fs.FS, name string) (*File, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// Parse decodes a config.yaml document and checks every default against its
// declared type.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if f.Options == nil {
		f.Options = map[string]Option{}
	}
	for _, k := range f.Keys() {
		o := f.Options[k]
		switch o.Type {
		case TypeString, TypeBoolean, TypeInt, TypeFloat:
		default:
			return nil, fmt.Errorf("option %s: unsupported type %q", k, o.Type)
		}
		if o.Default == nil {
			continue
		}
		v, err := coerce(o.Type, o.Default)
		if err != nil {
			return nil, fmt.Errorf("option %s default: %w", k, err)
		}
		o.Default = v
		f.Options[k] = o
	}
	return &f, nil
}

// Keys returns the option names in sorted order.
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.Options))
	for k := range f.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Defaults returns the configuration a freshly deployed charm sees. Options
// without a default are absent, as with config-get.
func (f *File) Defaults() model.Config {
	cfg := model.Config{}
	for k, o := range f.Options {
		if o.Default != nil {
			cfg[k] = o.Default
		}
	}
	return cfg
}

// Merge returns the defaults with overrides applied. An unknown key or a value
// of the wrong type is an error wrapping model.ErrConfigInvalid.
func (f *File) Merge(overrides map[string]any) (model.Config, error) {
	cfg := f.Defaults()
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		o, ok := f.Options[k]
		if !ok {
			return nil, fmt.Errorf("%w: unknown option %q", model.ErrConfigInvalid, k)
		}
		v, err := coerce(o.Type, overrides[k])
		if err != nil {
			return nil, fmt.Errorf("%w: option %s: %v", model.ErrConfigInvalid, k, err)
		}
		cfg[k] = v
	}
	return cfg, nil
}

// LoadValues reads a plain `key: value` YAML override file.
func LoadValues(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse values %s: %w", path, err)
	}
	return values, nil
}

// Values is a fixed configuration served as a model.ConfigPort. It stands in
// for config-get outside the lifecycle framework.
type Values model.Config

var _ model.ConfigPort = Values(nil)

// Config returns a copy of v.
func (v Values) Config(context.Context) (model.Config, error) {
	out := make(model.Config, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out, nil
}

func coerce(typ string, v any) (any, error) {
	switch typ {
	case TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case TypeInt:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		}
	case TypeFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		}
	}
	return nil, fmt.Errorf("expected %s, got %T", typ, v)
}
