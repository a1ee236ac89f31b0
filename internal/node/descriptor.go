// Package node defines the contract every task node exposes to a workflow host.
package node

import (
	"fmt"
	"slices"

	"github.com/spf13/cast"
)

// ValueType is the declared type of an input or output value.
type ValueType string

// Value types understood by hosts.
const (
	TypeString  ValueType = "STRING"
	TypeInteger ValueType = "INTEGER"
	TypeFloat   ValueType = "FLOAT"
	TypeBoolean ValueType = "BOOLEAN"
)

// Widget is a UI hint for rendering an input.
type Widget string

// Widgets used by the built-in nodes.
const (
	WidgetNone     Widget = ""
	WidgetTextArea Widget = "TEXTAREA"
	WidgetFile     Widget = "FILE"
	WidgetLLM      Widget = "LLM"
)

// Param declares one named input.
type Param struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Type        ValueType `json:"type"`
	Widget      Widget    `json:"widget,omitempty"`
	Required    bool      `json:"required"`
	Default     any       `json:"default,omitempty"`
	Choices     []string  `json:"choices,omitempty"`
	Minimum     *float64  `json:"minimum,omitempty"`
	Maximum     *float64  `json:"maximum,omitempty"`
}

// Output declares one named result.
type Output struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Type        ValueType `json:"type"`
}

// Descriptor is the static declaration of a node.
type Descriptor struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Icon        string `json:"icon,omitempty"`
	// FailurePrefix leads every failure message, e.g. "Image generation".
	FailurePrefix string   `json:"-"`
	Inputs        []Param  `json:"inputs"`
	Outputs       []Output `json:"outputs"`
}

// Bound returns a pointer to v, for Param.Minimum and Param.Maximum.
func Bound(v float64) *float64 {
	return &v
}

// Input returns the declared input with the given name.
func (d Descriptor) Input(name string) (Param, bool) {
	i := slices.IndexFunc(d.Inputs, func(p Param) bool { return p.Name == name })
	if i < 0 {
		return Param{}, false
	}
	return d.Inputs[i], true
}

// HasOutput reports whether the node declares the named output.
func (d Descriptor) HasOutput(name string) bool {
	return slices.ContainsFunc(d.Outputs, func(o Output) bool { return o.Name == name })
}

// Coerce converts a textual value to the declared type of the named input.
// Unknown inputs are kept as strings.
func (d Descriptor) Coerce(name, raw string) (any, error) {
	p, ok := d.Input(name)
	if !ok {
		return raw, nil
	}
	var (
		v   any
		err error
	)
	switch p.Type {
	case TypeInteger:
		v, err = cast.ToInt64E(raw)
	case TypeFloat:
		v, err = cast.ToFloat64E(raw)
	case TypeBoolean:
		v, err = cast.ToBoolE(raw)
	default:
		v = raw
	}
	if err != nil {
		return nil, fmt.Errorf("input %q: %w", name, err)
	}
	return v, nil
}
