package podspec

import (
	"bytes"
	"fmt"
	"io"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/runtime"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
)

// LoadCustomResourceDefinitions decodes a multi-document YAML stream of
// CustomResourceDefinition manifests and returns one {name, spec} entry per
// document. Other metadata is dropped. Empty documents are skipped.
func LoadCustomResourceDefinitions(data []byte) ([]K8sCustomResourceDefinition, error) {
	dec := utilyaml.NewYAMLOrJSONDecoder(bytes.NewReader(data), 4096)
	var out []K8sCustomResourceDefinition
	for i := 0; ; i++ {
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("decode crd document %d: %w", i, err)
		}
		if len(raw) == 0 {
			continue
		}
		var crd apiextensionsv1.CustomResourceDefinition
		if err := runtime.DefaultUnstructuredConverter.FromUnstructured(raw, &crd); err != nil {
			return nil, fmt.Errorf("convert crd document %d: %w", i, err)
		}
		if crd.Name == "" {
			return nil, fmt.Errorf("crd document %d: metadata.name is empty", i)
		}
		out = append(out, K8sCustomResourceDefinition{
			Meta: Meta{Name: crd.Name},
			Spec: crd.Spec,
		})
	}
	return out, nil
}
