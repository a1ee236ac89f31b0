package node

import (
	"errors"
	"io/fs"

	"github.com/metalagman/openainodes/internal/llmconfig"
)

// ErrorKind classifies a failed invocation.
type ErrorKind string

// Failure kinds.
const (
	KindConfigNotFound ErrorKind = "config_not_found"
	KindParameters     ErrorKind = "parameter_resolution"
	KindValidation     ErrorKind = "validation"
	KindTransport      ErrorKind = "transport"
	KindFilesystem     ErrorKind = "filesystem"
)

// Error is an error tagged with its failure kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Fail tags err with kind. A nil err stays nil.
func Fail(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf classifies err. Untagged errors are classified by their cause.
func KindOf(err error) ErrorKind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, llmconfig.ErrNotFound):
		return KindConfigNotFound
	case errors.Is(err, llmconfig.ErrNoParameters):
		return KindParameters
	case errors.As(err, &pathErr):
		return KindFilesystem
	default:
		return KindTransport
	}
}

// Outputs maps declared output names to values.
type Outputs map[string]any

// Outcome is the result of one invocation: success with outputs, or failure with a message.
type Outcome struct {
	Success bool
	Outputs Outputs
	Kind    ErrorKind
	Message string
}

// Succeeded builds a success outcome.
func Succeeded(out Outputs) Outcome {
	return Outcome{Success: true, Outputs: out}
}

// Failed builds a failure outcome.
func Failed(kind ErrorKind, message string) Outcome {
	return Outcome{Kind: kind, Message: message}
}

// Map renders the outcome in the host's wire shape. Nodes that declare
// success/error_message outputs get every declared output on every outcome.
func (o Outcome) Map(d Descriptor) map[string]any {
	full := d.HasOutput("error_message")
	m := map[string]any{"success": o.Success}
	if o.Success {
		for k, v := range o.Outputs {
			m[k] = v
		}
		if full {
			if _, ok := m["error_message"]; !ok {
				m["error_message"] = ""
			}
		}
		return m
	}

	if full {
		for _, out := range d.Outputs {
			m[out.Name] = zeroValue(out.Type)
		}
		m["success"] = false
	}
	m["error_message"] = o.Message
	m["error_kind"] = string(o.Kind)
	return m
}

func zeroValue(t ValueType) any {
	switch t {
	case TypeInteger:
		return 0
	case TypeFloat:
		return 0.0
	case TypeBoolean:
		return false
	default:
		return ""
	}
}
