package podspec

import (
	"encoding/json"
	"fmt"
)

// EnvKind selects the wire shape of an EnvValue.
type EnvKind int

const (
	// EnvLiteral renders as a bare string: `NAME: value`.
	EnvLiteral EnvKind = iota
	// EnvPlainValue renders as `NAME: {value: value}`.
	EnvPlainValue
	// EnvField renders as `NAME: {field: {path: metadata.name}}`.
	EnvField
)

// EnvValue is one entry of a container's envConfig.
type EnvValue struct {
	Kind      EnvKind
	Value     string
	FieldPath string
}

func Literal(v string) EnvValue   { return EnvValue{Kind: EnvLiteral, Value: v} }
func PlainValue(v string) EnvValue { return EnvValue{Kind: EnvPlainValue, Value: v} }
func FieldRef(path string) EnvValue {
	return EnvValue{Kind: EnvField, FieldPath: path}
}

type envField struct {
	Path string `json:"path"`
}

type envObject struct {
	Value *json.RawMessage `json:"value,omitempty"`
	Field *envField        `json:"field,omitempty"`
}

func (e EnvValue) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EnvLiteral:
		return json.Marshal(e.Value)
	case EnvPlainValue:
		return json.Marshal(map[string]string{"value": e.Value})
	case EnvField:
		return json.Marshal(map[string]envField{"field": {Path: e.FieldPath}})
	default:
		return nil, fmt.Errorf("unknown env value kind %d", e.Kind)
	}
}

func (e *EnvValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = Literal(s)
		return nil
	}
	var obj envObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("env value: %w", err)
	}
	switch {
	case obj.Field != nil:
		if obj.Field.Path == "" {
			return fmt.Errorf("env value: field.path is empty")
		}
		*e = FieldRef(obj.Field.Path)
	case obj.Value != nil:
		var v any
		if err := json.Unmarshal(*obj.Value, &v); err != nil {
			return fmt.Errorf("env value: %w", err)
		}
		if s, ok := v.(string); ok {
			*e = PlainValue(s)
		} else {
			*e = PlainValue(string(*obj.Value))
		}
	default:
		return fmt.Errorf("env value: expected string, value or field")
	}
	return nil
}
