package preprocess

import "strings"

// Registry scans the [tasks] section of a description. It accumulates the
// discovered task list in file order, the tag vocabulary, and the active tag
// set for the requested task. Task names are not deduplicated; the active set
// is the union of tokens across every line whose first token matches.
type Registry struct {
	requested string
	tasks     []string
	vocab     Vocabulary
	active    TagSet
}

// NewRegistry creates a registry resolving the given task name. An empty name
// means the bare task: no tag ever becomes active.
func NewRegistry(requested string) *Registry {
	return &Registry{
		requested: requested,
		vocab:     make(Vocabulary),
		active:    make(TagSet),
	}
}

// AddLine consumes one line from inside the [tasks] section. The first token
// is a task name; every token (name included) joins the vocabulary and, when
// the name matches the requested task, the active set.
func (r *Registry) AddLine(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	r.tasks = append(r.tasks, fields[0])
	for _, tok := range fields {
		r.vocab.Add(tok)
		if r.requested != "" && fields[0] == r.requested {
			r.active.Add(tok)
		}
	}
}

// Tasks returns the task names discovered so far, in file order.
func (r *Registry) Tasks() []string { return r.tasks }

// Vocabulary returns the tag vocabulary accumulated so far.
func (r *Registry) Vocabulary() Vocabulary { return r.vocab }

// Active returns the active tag set for the requested task.
func (r *Registry) Active() TagSet { return r.active }
