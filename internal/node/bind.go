package node

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/xeipuuv/gojsonschema"
)

// Inputs maps declared input names to concrete values.
type Inputs map[string]any

var jsonTypes = map[ValueType]string{
	TypeString:  "string",
	TypeInteger: "integer",
	TypeFloat:   "number",
	TypeBoolean: "boolean",
}

// Schema returns the JSON schema that bound inputs must satisfy.
func (d Descriptor) Schema() map[string]any {
	props := make(map[string]any, len(d.Inputs))
	required := make([]string, 0, len(d.Inputs))
	for _, p := range d.Inputs {
		prop := map[string]any{}
		if t, ok := jsonTypes[p.Type]; ok {
			prop["type"] = t
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		if len(p.Choices) > 0 {
			prop["enum"] = p.Choices
		}
		if p.Minimum != nil {
			prop["minimum"] = *p.Minimum
		}
		if p.Maximum != nil {
			prop["maximum"] = *p.Maximum
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// WithDefaults returns a copy of in with declared defaults filled in for absent or nil inputs.
func (d Descriptor) WithDefaults(in Inputs) Inputs {
	out := make(Inputs, len(in)+len(d.Inputs))
	for k, v := range in {
		if v != nil {
			out[k] = v
		}
	}
	for _, p := range d.Inputs {
		if _, ok := out[p.Name]; !ok && p.Default != nil {
			out[p.Name] = p.Default
		}
	}
	return out
}

// Validate checks inputs against the descriptor's schema.
func (d Descriptor) Validate(in Inputs) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(d.Schema()),
		gojsonschema.NewGoLoader(map[string]any(in)),
	)
	if err != nil {
		return Fail(KindValidation, fmt.Errorf("validate inputs: %w", err))
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		errs = append(errs, schemaErr.String())
	}
	sort.Strings(errs)

	return Fail(KindValidation, fmt.Errorf("input validation failed: %s", strings.Join(errs, "; ")))
}

// Bind applies defaults, validates, and decodes inputs into dst.
// Fields of dst are matched by their mapstructure tag.
func (d Descriptor) Bind(in Inputs, dst any) error {
	values := d.WithDefaults(in)
	if err := d.Validate(values); err != nil {
		return err
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: dst,
	})
	if err != nil {
		return Fail(KindValidation, fmt.Errorf("build input decoder: %w", err))
	}
	if err := dec.Decode(map[string]any(values)); err != nil {
		return Fail(KindValidation, fmt.Errorf("decode inputs: %w", err))
	}
	return nil
}
