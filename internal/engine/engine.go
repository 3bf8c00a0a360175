// Package engine is the boundary to the downstream execution engine that
// consumes a resolved configuration and drives the verification tools. The
// dispatcher treats an Engine as an opaque synchronous call; the default
// implementation hands the work to an external runner process.
package engine

import (
	"context"

	"svy/internal/events"
)

// Status values reported for a task run. The downstream engine's own
// status and return code pass through unreinterpreted.
const (
	StatusPass    = "PASS"
	StatusFail    = "FAIL"
	StatusUnknown = "UNKNOWN"
	StatusError   = "ERROR"
)

// ErrorReturnCode is the return code recorded for a task that fails before
// or outside the engine's own reporting.
const ErrorReturnCode = 16

// Result is the final outcome of an engine run.
type Result struct {
	Status     string
	ReturnCode int
}

// Job carries everything an engine needs for one task: the resolved
// configuration, the task name (empty for the bare task), a dedicated
// working directory, the startup log lines accumulated before the engine
// existed, and per-tool executable overrides.
type Job struct {
	Config   []string
	Task     string
	WorkDir  string
	EarlyLog []string
	ExePaths map[string]string
	Sink     *events.Sink
}

// Engine drives the downstream verification flow for one prepared job.
type Engine interface {
	Run(ctx context.Context) (Result, error)
}

// Factory creates an engine for a prepared job.
type Factory func(job Job) (Engine, error)
