// Package schema declares the typed inputs of a node and validates host
// arguments against them.
//
// A Schema is an ordered list of fields. Order matters because hosts lay the
// inputs out in declaration order, and because a field can be made
// conditional on an earlier enum field (the host shows it only when the enum
// holds one of the listed values).
//
// Basic usage:
//
//	s := schema.Schema{
//	    schema.In("operation", "Operation", schema.Enum(
//	        schema.Opt("erosion", "Erosion"),
//	        schema.Opt("dilation", "Dilation"),
//	    )).WithDefault("erosion"),
//	    schema.In("radius", "Radius", schema.Slider(0, 1000, schema.LogScale())).WithDefault(1),
//	}
//
//	args, err := schema.Validate(s, map[string]any{"radius": "3"})
//	// args == {"operation": "erosion", "radius": 3}
//
// Validate applies defaults, coerces host values (strings from a CLI, floats
// from JSON) into canonical Go values, enforces declared ranges and returns
// every failure at once as an *AggregateError.
//
// Custom validators can be registered for domain-specific validation:
//
//	even := schema.Custom("even", func(v any) error {
//	    i, ok := v.(int)
//	    if !ok || i%2 != 0 {
//	        return fmt.Errorf("must be an even int")
//	    }
//	    return nil
//	})
package schema
