package preprocess

import (
	"fmt"
	"sort"
	"strings"
)

// Vocabulary is the set of tag tokens discovered so far while scanning the
// [tasks] section. A tag becomes usable as a directive prefix only after it
// has appeared on some prior [tasks] line.
type Vocabulary map[string]struct{}

// Add inserts a tag into the vocabulary.
func (v Vocabulary) Add(tag string) { v[tag] = struct{}{} }

// Has reports whether tag is in the vocabulary.
func (v Vocabulary) Has(tag string) bool {
	_, ok := v[tag]
	return ok
}

// TagSet is the set of tags associated with the task currently being
// resolved. Empty for the bare task.
type TagSet map[string]struct{}

// Add inserts a tag into the set.
func (s TagSet) Add(tag string) { s[tag] = struct{}{} }

// Has reports whether tag is in the set.
func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Directive is a tag directive resolved on a single line.
type Directive struct {
	Tag     string
	Negated bool
	Rest    string // remainder after the prefix, leading whitespace stripped
	Match   bool   // whether the directive's polarity matches the active set
}

// Block reports whether the directive opens a block (empty remainder).
func (d Directive) Block() bool { return d.Rest == "" }

// ResolveTag checks whether line starts with `t:` or `~t:` for some tag t in
// the vocabulary. Lines matching no known tag are not directives and pass
// through unchanged. A line matched by more than one known tag is a
// malformed-input error: overlapping tag prefixes are forbidden rather than
// resolved by map iteration order.
func ResolveTag(line string, vocab Vocabulary, active TagSet) (Directive, bool, error) {
	var found []Directive
	for t := range vocab {
		if rest, ok := strings.CutPrefix(line, t+":"); ok {
			found = append(found, Directive{
				Tag:   t,
				Rest:  strings.TrimLeft(rest, " \t"),
				Match: active.Has(t),
			})
		} else if rest, ok := strings.CutPrefix(line, "~"+t+":"); ok {
			found = append(found, Directive{
				Tag:     t,
				Negated: true,
				Rest:    strings.TrimLeft(rest, " \t"),
				Match:   !active.Has(t),
			})
		}
	}

	switch len(found) {
	case 0:
		return Directive{}, false, nil
	case 1:
		return found[0], true, nil
	default:
		tags := make([]string, 0, len(found))
		for _, d := range found {
			tags = append(tags, d.Tag)
		}
		sort.Strings(tags)
		return Directive{}, false, fmt.Errorf("ambiguous tag directive: tags %s all match", strings.Join(tags, ", "))
	}
}
