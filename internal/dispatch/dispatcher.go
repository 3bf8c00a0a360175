// Package dispatch runs one engine job per requested task: it resolves a
// working directory, applies the backup/force/temporary-directory policy,
// re-runs the preprocessor bound to the task, hands the resolved
// configuration to the engine, and aggregates return codes.
//
// Tasks run strictly sequentially; each task's full lifecycle completes
// before the next begins. No step is ever retried.
package dispatch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"svy/internal/engine"
	"svy/internal/events"
	"svy/internal/preprocess"
)

// Options configures a dispatcher run.
type Options struct {
	File     string            // description filename, empty when read from stdin
	Workdir  string            // explicit workdir, empty to derive per task
	Force    bool              // remove a pre-existing workdir
	Backup   bool              // move a pre-existing workdir aside first
	TmpDir   bool              // run in a private temporary directory
	ExePaths map[string]string // tool identifier -> executable path, forwarded to the engine
}

// TaskResult records the outcome of one task.
type TaskResult struct {
	Task       string
	Workdir    string
	Status     string
	ReturnCode int
	Started    time.Time
	Finished   time.Time
	Err        error
}

// Recorder persists task outcomes. A recorder failure never alters a task's
// status or return code.
type Recorder interface {
	Record(ctx context.Context, res TaskResult) error
}

// Dispatcher runs requested tasks sequentially against one raw description.
type Dispatcher struct {
	opts     Options
	lines    []string
	factory  engine.Factory
	sink     *events.Sink
	recorder Recorder
	log      zerolog.Logger
}

// New creates a dispatcher bound to one raw description.
func New(opts Options, lines []string, factory engine.Factory, sink *events.Sink, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		opts:    opts,
		lines:   lines,
		factory: factory,
		sink:    sink,
		log:     log,
	}
}

// SetRecorder attaches an outcome recorder (nil disables recording).
func (d *Dispatcher) SetRecorder(r Recorder) { d.recorder = r }

// RunAll resolves the task list and runs every task to completion, in order.
// With no explicit tasks, the [tasks] section is scanned for names, falling
// back to a single bare run when the section is absent or empty. Returns the
// per-task results and the summed return code.
func (d *Dispatcher) RunAll(ctx context.Context, tasks []string) ([]TaskResult, int, error) {
	if len(tasks) == 0 {
		res, err := preprocess.Run(d.lines, "")
		if err != nil {
			return nil, engine.ErrorReturnCode, fmt.Errorf("discovering tasks: %w", err)
		}
		tasks = res.Tasks
		if len(tasks) == 0 {
			tasks = []string{""}
		}
	}

	if d.opts.Workdir != "" && len(tasks) > 1 {
		return nil, engine.ErrorReturnCode,
			fmt.Errorf("explicit workdir %q cannot be combined with %d tasks", d.opts.Workdir, len(tasks))
	}

	results := make([]TaskResult, 0, len(tasks))
	total := 0
	for _, task := range tasks {
		res := d.runTask(ctx, task)
		results = append(results, res)
		total += res.ReturnCode

		if d.recorder != nil {
			if err := d.recorder.Record(ctx, res); err != nil {
				d.log.Warn().Err(err).Str("task", task).Msg("journal write failed")
			}
		}
	}
	return results, total, nil
}

// runTask drives one task through its full lifecycle. Every failure is fatal
// for this task only.
func (d *Dispatcher) runTask(ctx context.Context, task string) TaskResult {
	res := TaskResult{Task: task, Started: time.Now()}
	fail := func(err error) TaskResult {
		res.Status = engine.StatusError
		res.ReturnCode = engine.ErrorReturnCode
		res.Err = err
		res.Finished = time.Now()
		d.sink.Logf(res.Workdir, task, "ERROR: %v", err)
		return res
	}

	dir := d.opts.Workdir
	useTmp := d.opts.TmpDir
	if dir == "" && d.opts.File != "" && !useTmp {
		dir = deriveWorkdir(d.opts.File, task)
	}

	if dir != "" {
		res.Workdir = dir

		if d.opts.Backup {
			if _, err := os.Stat(dir); err == nil {
				bak, err := backupPath(dir)
				if err != nil {
					return fail(err)
				}
				d.sink.Logf(dir, task, "Moving directory '%s' to '%s'.", dir, bak)
				if err := os.Rename(dir, bak); err != nil {
					return fail(fmt.Errorf("backing up %s: %w", dir, err))
				}
			}
		}

		if d.opts.Force {
			d.sink.Logf(dir, task, "Removing directory '%s'.", dir)
			if err := os.RemoveAll(dir); err != nil {
				d.log.Warn().Err(err).Str("dir", dir).Msg("force-clean failed")
			}
		}

		// The create itself is the sole safety net against concurrent
		// invocations sharing a target.
		if err := createWorkdir(dir); err != nil {
			return fail(err)
		}
	} else {
		useTmp = true
		tmp, err := os.MkdirTemp("", "svy_")
		if err != nil {
			return fail(fmt.Errorf("creating temporary directory: %w", err))
		}
		dir = tmp
		res.Workdir = dir
	}

	pre, err := preprocess.Run(d.lines, task)
	if err != nil {
		out := fail(fmt.Errorf("preprocessing: %w", err))
		d.removeTmp(useTmp, dir, task)
		return out
	}

	job := engine.Job{
		Config:   pre.Config,
		Task:     task,
		WorkDir:  dir,
		EarlyLog: d.sink.Early(),
		ExePaths: d.opts.ExePaths,
		Sink:     d.sink,
	}
	eng, err := d.factory(job)
	if err != nil {
		out := fail(fmt.Errorf("constructing engine: %w", err))
		d.removeTmp(useTmp, dir, task)
		return out
	}

	result, err := eng.Run(ctx)
	if err != nil {
		d.log.Debug().Err(err).Str("task", task).Msg("engine reported error")
		if result.Status == "" {
			result = engine.Result{Status: engine.StatusError, ReturnCode: engine.ErrorReturnCode}
		}
		res.Err = err
	}
	res.Status = result.Status
	res.ReturnCode = result.ReturnCode

	d.removeTmp(useTmp, dir, task)

	res.Finished = time.Now()
	d.sink.Logf(dir, task, "DONE (%s, rc=%d)", res.Status, res.ReturnCode)
	return res
}

// removeTmp deletes a private temporary directory. Best-effort: a cleanup
// failure never masks the task's real status.
func (d *Dispatcher) removeTmp(useTmp bool, dir, task string) {
	if !useTmp {
		return
	}
	d.sink.Logf(dir, task, "Removing directory '%s'.", dir)
	if err := os.RemoveAll(dir); err != nil {
		d.log.Warn().Err(err).Str("dir", dir).Msg("temporary directory cleanup failed")
	}
}
