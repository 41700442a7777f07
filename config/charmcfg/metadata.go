package charmcfg

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MetadataFileName declares the charm's name and resources.
const MetadataFileName = "metadata.yaml"

// ResourceTypeOCIImage is the resource type of a container image.
const ResourceTypeOCIImage = "oci-image"

// Resource is one entry of the resources map.
type Resource struct {
	Type           string `yaml:"type"`
	Description    string `yaml:"description,omitempty"`
	UpstreamSource string `yaml:"upstream-source,omitempty"`
}

// Metadata is a parsed metadata.yaml.
type Metadata struct {
	Name        string              `yaml:"name"`
	Summary     string              `yaml:"summary,omitempty"`
	Description string              `yaml:"description,omitempty"`
	Series      []string            `yaml:"series,omitempty"`
	Resources   map[string]Resource `yaml:"resources,omitempty"`
}

// LoadMetadata reads metadata.yaml from fsys.
func LoadMetadata(fsys fs.FS) (*Metadata, error) {
	data, err := fs.ReadFile(fsys, MetadataFileName)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", MetadataFileName, err)
	}
	var m Metadata
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", MetadataFileName, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("%s: name is empty", MetadataFileName)
	}
	return &m, nil
}

// LoadDeployedMetadata prefers the metadata.yaml of the deployed charm
// directory and falls back to fallback when dir is empty or holds none.
func LoadDeployedMetadata(dir string, fallback fs.FS) (*Metadata, error) {
	if dir != "" {
		if _, err := os.Stat(filepath.Join(dir, MetadataFileName)); err == nil {
			return LoadMetadata(os.DirFS(dir))
		}
	}
	return LoadMetadata(fallback)
}

// DeclaresImage reports whether name is declared as an OCI image resource.
func (m *Metadata) DeclaresImage(name string) bool {
	r, ok := m.Resources[name]
	return ok && r.Type == ResourceTypeOCIImage
}
