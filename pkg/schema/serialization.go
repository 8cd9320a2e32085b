package schema

import (
	"encoding/json"
	"fmt"
)

type fieldJSON struct {
	Key      string         `json:"key"`
	Label    string         `json:"label"`
	Type     string         `json:"type"`
	Default  any            `json:"default,omitempty"`
	Docs     string         `json:"docs,omitempty"`
	Optional bool           `json:"optional,omitempty"`
	When     *Condition     `json:"when,omitempty"`
	Hints    map[string]any `json:"hints,omitempty"`
}

// MarshalJSON serializes the field with its type name and UI hints.
func (f Field) MarshalJSON() ([]byte, error) {
	if f.Type == nil {
		return nil, fmt.Errorf("field %s: type is nil", f.Key)
	}
	out := fieldJSON{
		Key:      f.Key,
		Label:    f.Label,
		Type:     f.Type.Name(),
		Default:  f.Default,
		Docs:     f.Docs,
		Optional: f.Optional,
		When:     f.When,
	}
	if d, ok := f.Type.(Describer); ok {
		out.Hints = d.Describe()
	}
	return json.Marshal(out)
}

// MarshalJSON serializes the schema as an ordered list of fields.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Field(s))
}
