// Package preprocess resolves a raw task-description into a flat sequence of
// configuration lines for one task: tag directives are applied, tag-gated
// blocks kept or dropped as a unit, and embedded code-generation regions
// executed and spliced in place.
//
// The scan is strictly single-pass and line-oriented. Tags are discovered
// while scanning the [tasks] section, so a tag is only recognized as a
// directive prefix below the line that declared it; earlier lines that happen
// to look like directives pass through verbatim.
package preprocess

import (
	"fmt"
	"strings"
)

// Result is the outcome of preprocessing one description for one task.
type Result struct {
	Config []string // resolved configuration lines, in order
	Tasks  []string // task names discovered in the [tasks] section, in order
}

// Run scans lines top-to-bottom exactly once and resolves them against the
// given task name (empty for the bare task). Line terminators are tolerated
// and stripped. Malformed input (unterminated block or code region, stray end
// marker, ambiguous tag prefix) aborts the pass.
func Run(lines []string, task string) (*Result, error) {
	reg := NewRegistry(task)
	var block BlockSkip
	var gen CodeGen
	var out []string
	tasksSection := false

	for i, raw := range lines {
		lineno := i + 1
		line := strings.TrimRight(raw, "\r\n")

		// Leaving [tasks] on a new section header. The header line itself
		// still flows through the rest of the pipeline.
		if tasksSection && strings.HasPrefix(line, "[") {
			tasksSection = false
		}

		if block.Inside() && line == "--" {
			block.Close()
			continue
		}
		if block.Suppressed() {
			continue
		}

		// Raw code-region source: no tag filtering until the end marker.
		if gen.Capturing() {
			if line == EndMarker {
				if err := gen.Execute(task, func(s string) { out = append(out, s) }); err != nil {
					return nil, err
				}
			} else {
				gen.Append(line)
			}
			continue
		}

		skipLine := false
		d, isDirective, err := ResolveTag(line, reg.Vocabulary(), reg.Active())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		if isDirective {
			if d.Block() {
				block.Open(d.Match, lineno)
				skipLine = true
			} else {
				line = d.Rest
				skipLine = !d.Match
			}
		}
		if skipLine {
			continue
		}

		switch {
		case tasksSection:
			reg.AddLine(line)
		case line == "[tasks]":
			tasksSection = true
		case line == BeginMarker:
			gen.Begin(lineno)
		case line == EndMarker:
			return nil, fmt.Errorf("line %d: %s without matching %s", lineno, EndMarker, BeginMarker)
		default:
			out = append(out, line)
		}
	}

	if block.Inside() {
		return nil, fmt.Errorf("unterminated tag block opened at line %d", block.OpenLine())
	}
	if gen.Capturing() {
		return nil, fmt.Errorf("unterminated code region opened at line %d", gen.OpenLine())
	}

	return &Result{Config: out, Tasks: reg.Tasks()}, nil
}
