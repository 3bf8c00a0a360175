package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultCommand is the downstream runner executable invoked when no
// override is configured under the "engine" tool key.
const DefaultCommand = "svy-engine"

// Names of the files materialized into the working directory before the
// runner starts.
const (
	ConfigFileName = "config.sby"
	LogFileName    = "logfile.txt"
)

// ProcessEngine runs the downstream engine as an external process. It writes
// the resolved configuration into the working directory, seeds the log file
// with the accumulated startup lines, and invokes the runner with the
// remaining tool path overrides on its command line. The runner's stdout is
// streamed line by line to the log sink; its exit code is the task's return
// code.
type ProcessEngine struct {
	job Job
	pm  *ProcessManager
}

// NewProcessEngine creates a process engine for a prepared job.
func NewProcessEngine(job Job, pm *ProcessManager) (*ProcessEngine, error) {
	if job.WorkDir == "" {
		return nil, fmt.Errorf("process engine requires a working directory")
	}
	return &ProcessEngine{job: job, pm: pm}, nil
}

// Run executes the runner synchronously and reports its outcome.
func (e *ProcessEngine) Run(ctx context.Context) (Result, error) {
	errResult := Result{Status: StatusError, ReturnCode: ErrorReturnCode}

	if err := e.materialize(); err != nil {
		return errResult, err
	}

	exe := DefaultCommand
	if p := e.job.ExePaths["engine"]; p != "" {
		exe = p
	}

	args := []string{ConfigFileName}
	if e.job.Task != "" {
		args = append(args, "--task", e.job.Task)
	}
	for _, tool := range sortedTools(e.job.ExePaths) {
		args = append(args, "--"+tool, e.job.ExePaths[tool])
	}

	cmd := newCommand(ctx, exe, args...)
	cmd.Dir = e.job.WorkDir

	rc, stderr, err := runStreaming(cmd, e.pm, func(line string) {
		if e.job.Sink != nil {
			e.job.Sink.Logf(e.job.WorkDir, e.job.Task, "%s", line)
		}
	})
	if err != nil {
		return errResult, fmt.Errorf("engine %s: %w (stderr: %s)", exe, err, strings.TrimSpace(string(stderr)))
	}

	return Result{Status: statusFromCode(rc), ReturnCode: rc}, nil
}

// materialize writes the resolved configuration and the startup log lines
// into the working directory.
func (e *ProcessEngine) materialize() error {
	cfgPath := filepath.Join(e.job.WorkDir, ConfigFileName)
	cfg := strings.Join(e.job.Config, "\n") + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", cfgPath, err)
	}

	if len(e.job.EarlyLog) > 0 {
		logPath := filepath.Join(e.job.WorkDir, LogFileName)
		log := strings.Join(e.job.EarlyLog, "\n") + "\n"
		if err := os.WriteFile(logPath, []byte(log), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", logPath, err)
		}
	}
	return nil
}

// statusFromCode maps the runner's exit code to a status.
func statusFromCode(rc int) string {
	switch rc {
	case 0:
		return StatusPass
	case 1:
		return StatusFail
	case 2:
		return StatusUnknown
	default:
		return StatusError
	}
}

// sortedTools returns the tool keys in deterministic order, skipping the
// runner's own "engine" entry.
func sortedTools(paths map[string]string) []string {
	tools := make([]string, 0, len(paths))
	for tool := range paths {
		if tool == "engine" {
			continue
		}
		tools = append(tools, tool)
	}
	sort.Strings(tools)
	return tools
}
