package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"svy/internal/config"
	"svy/internal/dispatch"
	"svy/internal/engine"
	"svy/internal/events"
	"svy/internal/journal"
)

// journalOff in a config file or -journal flag disables run recording.
const journalOff = "off"

// toolNames are the executables that can be overridden per invocation and
// are forwarded to the downstream runner. "engine" selects the runner itself.
var toolNames = []string{"yosys", "abc", "smtbmc", "suprove", "aigbmc", "avy", "engine"}

// taskList collects repeatable -T values.
type taskList []string

func (t *taskList) String() string     { return strings.Join(*t, ",") }
func (t *taskList) Set(v string) error { *t = append(*t, v); return nil }

var (
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	unknownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func statusLabel(status string) string {
	switch status {
	case engine.StatusPass:
		return passStyle.Render(status)
	case engine.StatusFail:
		return failStyle.Render(status)
	case engine.StatusUnknown:
		return unknownStyle.Render(status)
	default:
		return errorStyle.Render(status)
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		workdir     = flag.String("d", "", "run in this directory (single task only)")
		force       = flag.Bool("f", false, "remove a pre-existing working directory")
		backup      = flag.Bool("b", false, "move a pre-existing working directory aside before running")
		tmpdir      = flag.Bool("t", false, "run in a private temporary directory, removed afterwards")
		verbose     = flag.Bool("v", false, "enable debug diagnostics")
		journalPath = flag.String("journal", "", "run journal path ('off' disables)")
		recent      = flag.Int("recent", 0, "print the last N journaled runs and exit")
		saveConfig  = flag.Bool("save-config", false, "write the effective configuration to .svy/config.json and exit")
		tasks       taskList
	)
	flag.Var(&tasks, "T", "add a task to run (repeatable)")
	toolFlags := make(map[string]*string, len(toolNames))
	for _, tool := range toolNames {
		toolFlags[tool] = flag.String(tool, "", "path to the "+tool+" executable")
	}
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: svy [options] [<file>.sby] [tasknames...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(level)

	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "svy: %v\n", err)
		return engine.ErrorReturnCode
	}
	for tool, p := range toolFlags {
		if *p != "" {
			cfg.ExePaths[tool] = *p
		}
	}
	if *journalPath != "" {
		cfg.JournalPath = *journalPath
	}

	if *saveConfig {
		path := filepath.Join(".svy", "config.json")
		if err := config.Save(cfg, path); err != nil {
			fmt.Fprintf(os.Stderr, "svy: %v\n", err)
			return engine.ErrorReturnCode
		}
		fmt.Printf("wrote %s\n", path)
		return 0
	}

	if *recent > 0 {
		store := openJournal(cfg.JournalPath, log)
		if store == nil {
			fmt.Fprintln(os.Stderr, "svy: run journal is disabled")
			return engine.ErrorReturnCode
		}
		defer store.Close()
		runs, err := store.Recent(context.Background(), *recent)
		if err != nil {
			fmt.Fprintf(os.Stderr, "svy: %v\n", err)
			return engine.ErrorReturnCode
		}
		printRecent(os.Stdout, runs)
		return 0
	}

	file := ""
	if flag.NArg() > 0 {
		file = flag.Arg(0)
		if !strings.HasSuffix(file, ".sby") {
			fmt.Fprintf(os.Stderr, "svy: description file must have .sby extension: %s\n", file)
			return engine.ErrorReturnCode
		}
		tasks = append(tasks, flag.Args()[1:]...)
	}

	lines, err := readDescription(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "svy: %v\n", err)
		return engine.ErrorReturnCode
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pm := engine.NewProcessManager()
	go func() {
		<-ctx.Done()
		if err := pm.KillAll(); err != nil {
			log.Warn().Err(err).Msg("killing subprocesses")
		}
	}()

	sink := events.NewSink(os.Stdout)
	var watchDone <-chan struct{}
	if *verbose {
		watchDone = watchEvents(sink, log)
	}

	opts := dispatch.Options{
		File:     file,
		Workdir:  *workdir,
		Force:    *force || cfg.Force,
		Backup:   *backup || cfg.Backup,
		TmpDir:   *tmpdir || cfg.TmpDir,
		ExePaths: cfg.ExePaths,
	}
	factory := func(job engine.Job) (engine.Engine, error) {
		return engine.NewProcessEngine(job, pm)
	}
	d := dispatch.New(opts, lines, factory, sink, log)

	if store := openJournal(cfg.JournalPath, log); store != nil {
		defer store.Close()
		d.SetRecorder(journalRecorder{store})
	}

	results, total, err := d.RunAll(ctx, tasks)
	sink.Close()
	if watchDone != nil {
		<-watchDone
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "svy: %v\n", err)
		return total
	}

	if len(results) > 1 {
		printSummary(os.Stdout, results)
	}
	return total
}

// readDescription reads the raw description, from the named file or from
// stdin when no file was given.
func readDescription(file string) ([]string, error) {
	var r io.Reader = os.Stdin
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", file, err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading description: %w", err)
	}
	return lines, nil
}

// openJournal opens the run journal at the configured path, falling back to
// ~/.svy/journal.db. A journal that cannot be opened is logged and skipped;
// it never blocks the run.
func openJournal(path string, log zerolog.Logger) *journal.Store {
	if path == journalOff {
		return nil
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Warn().Err(err).Msg("journal disabled: no home directory")
			return nil
		}
		path = filepath.Join(home, ".svy", "journal.db")
	}
	store, err := journal.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("journal disabled")
		return nil
	}
	return store
}

// watchEvents mirrors every sink event into the debug log, carrying the
// directory and task as structured fields. The returned channel closes once
// the subscription has drained after Sink.Close.
func watchEvents(sink *events.Sink, log zerolog.Logger) <-chan struct{} {
	ch := sink.Subscribe(0)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range ch {
			log.Debug().Str("dir", ev.Dir).Str("task", ev.Task).Msg(ev.Message)
		}
	}()
	return done
}

// journalRecorder adapts the journal store to the dispatcher's Recorder.
type journalRecorder struct {
	store *journal.Store
}

func (r journalRecorder) Record(ctx context.Context, res dispatch.TaskResult) error {
	return r.store.Record(ctx, journal.Run{
		Task:       res.Task,
		Workdir:    res.Workdir,
		Status:     res.Status,
		ReturnCode: res.ReturnCode,
		Started:    res.Started,
		Finished:   res.Finished,
	})
}

func taskLabel(task string) string {
	if task == "" {
		return "(default)"
	}
	return task
}

func printSummary(w io.Writer, results []dispatch.TaskResult) {
	fmt.Fprintln(w)
	for _, res := range results {
		fmt.Fprintf(w, "  %s  %s  %s  rc=%d\n",
			statusLabel(res.Status), taskLabel(res.Task), res.Workdir, res.ReturnCode)
	}
}

// printRecent renders journaled runs, newest first.
func printRecent(w io.Writer, runs []journal.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no recorded runs")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "  %s  %s  %s  rc=%d  %s\n",
			statusLabel(r.Status), taskLabel(r.Task), r.Workdir, r.ReturnCode,
			r.Finished.Local().Format(time.DateTime))
	}
}
