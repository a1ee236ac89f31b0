// Package logging provides application-wide logging configuration.
package logging

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var debugEnabled bool

// Init initializes the global logger.
func Init(debug bool) {
	debugEnabled = debug
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
}

// DebugEnabled reports whether debug logging is enabled.
func DebugEnabled() bool {
	return debugEnabled
}

// Workflow is the logger handed to a node invocation.
type Workflow struct {
	logger zerolog.Logger
}

// NewWorkflow wraps logger.
func NewWorkflow(logger zerolog.Logger) Workflow {
	return Workflow{logger: logger}
}

// ForInvocation returns a workflow logger tagged with the node name and a fresh invocation id.
func ForInvocation(nodeName string) (Workflow, string) {
	id := uuid.NewString()
	return NewWorkflow(log.Logger.With().
		Str("node", nodeName).
		Str("invocation_id", id).
		Logger()), id
}

// Info logs at info level.
func (w Workflow) Info(msg string) {
	w.logger.Info().Msg(msg)
}

// Error logs at error level.
func (w Workflow) Error(msg string) {
	w.logger.Error().Msg(msg)
}
