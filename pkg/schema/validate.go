package schema

import (
	"errors"
	"fmt"
	"slices"
)

// Condition restricts a field to the cases where another (enum) field holds
// one of Values.
type Condition struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// Field is one declared input of a node.
type Field struct {
	Key      string
	Label    string
	Type     Type
	Default  any
	Docs     string
	Optional bool
	When     *Condition
}

// In declares a field.
func In(key, label string, typ Type) Field {
	return Field{Key: key, Label: label, Type: typ}
}

// WithDefault sets the value used when the field is absent.
func (f Field) WithDefault(v any) Field {
	f.Default = v
	return f
}

// WithDocs attaches help text rendered by hosts.
func (f Field) WithDocs(docs string) Field {
	f.Docs = docs
	return f
}

// Optionally marks the field as not required.
func (f Field) Optionally() Field {
	f.Optional = true
	return f
}

// VisibleWhen makes the field conditional on the enum field key holding one
// of values.
func (f Field) VisibleWhen(key string, values ...string) Field {
	f.When = &Condition{Key: key, Values: values}
	return f
}

// Schema is the ordered list of a node's inputs.
type Schema []Field

// Field returns the field declared under key.
func (s Schema) Field(key string) (Field, bool) {
	for _, f := range s {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Keys returns the field keys in declaration order.
func (s Schema) Keys() []string {
	keys := make([]string, len(s))
	for i, f := range s {
		keys[i] = f.Key
	}
	return keys
}

// Validate checks data against the schema and returns the normalised
// arguments: defaults applied, host values coerced, fields whose condition
// does not hold dropped. Unknown keys are ignored.
// Returns *AggregateError listing every failing field.
func Validate(s Schema, data map[string]any) (map[string]any, error) {
	if s == nil {
		return map[string]any{}, nil
	}

	out := make(map[string]any, len(s))
	var errs []error

	for _, field := range s {
		if field.Type == nil {
			errs = append(errs, &ValidationError{Key: field.Key, Reason: "type is nil"})
			continue
		}

		if field.When != nil {
			current, ok := out[field.When.Key].(string)
			if !ok || !slices.Contains(field.When.Values, current) {
				continue
			}
		}

		value, exists := data[field.Key]
		if !exists || value == nil {
			if field.Default == nil {
				if !field.Optional {
					errs = append(errs, &ValidationError{Key: field.Key, Reason: "required field missing"})
				}
				continue
			}
			value = field.Default
		}

		if n, ok := field.Type.(Normalizer); ok {
			normalized, err := n.Normalize(value)
			if err != nil {
				errs = append(errs, &ValidationError{Key: field.Key, Reason: err.Error(), Value: value})
				continue
			}
			value = normalized
		}

		if err := field.Type.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: field.Key, Reason: err.Error(), Value: value})
			continue
		}
		out[field.Key] = value
	}

	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}
	return out, nil
}

// Check validates the schema declaration itself: unique keys, non-nil
// types, conditions referencing an earlier enum field and defaults that
// pass their own type.
func (s Schema) Check() error {
	seen := make(map[string]Field, len(s))
	var errs []error
	for _, f := range s {
		if f.Key == "" {
			errs = append(errs, errors.New("field with empty key"))
			continue
		}
		if _, dup := seen[f.Key]; dup {
			errs = append(errs, fmt.Errorf("field %q declared twice", f.Key))
			continue
		}
		if f.Type == nil {
			errs = append(errs, fmt.Errorf("field %q: type is nil", f.Key))
			continue
		}
		if f.When != nil {
			ref, ok := seen[f.When.Key]
			if !ok {
				errs = append(errs, fmt.Errorf("field %q: condition references unknown or later field %q", f.Key, f.When.Key))
			} else if enum, isEnum := ref.Type.(*EnumType); !isEnum {
				errs = append(errs, fmt.Errorf("field %q: condition field %q is not an enum", f.Key, f.When.Key))
			} else {
				for _, v := range f.When.Values {
					if enum.Validate(v) != nil {
						errs = append(errs, fmt.Errorf("field %q: condition value %q is not an option of %q", f.Key, v, f.When.Key))
					}
				}
			}
		}
		if f.Default != nil {
			v := f.Default
			if n, ok := f.Type.(Normalizer); ok {
				var err error
				if v, err = n.Normalize(v); err != nil {
					errs = append(errs, fmt.Errorf("field %q: default: %w", f.Key, err))
					seen[f.Key] = f
					continue
				}
			}
			if err := f.Type.Validate(v); err != nil {
				errs = append(errs, fmt.Errorf("field %q: default: %w", f.Key, err))
			}
		}
		seen[f.Key] = f
	}
	return errors.Join(errs...)
}
