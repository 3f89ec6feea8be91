package runner

import (
	"fmt"

	"github.com/gobwas/glob"
)

// selectAll are the selection values that mean "every example".
var selectAll = map[string]bool{
	"":        true,
	"default": true,
	"all":     true,
}

// SelectionFilter decides which examples a run processes.
type SelectionFilter struct {
	only    string
	exclude []glob.Glob
}

// NewSelectionFilter builds a filter selecting only (exact name match, or
// everything for "", "default" and "all") minus names matching any exclude
// glob.
func NewSelectionFilter(only string, exclude []string) (*SelectionFilter, error) {
	f := &SelectionFilter{only: only}
	for _, pattern := range exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		f.exclude = append(f.exclude, g)
	}
	return f, nil
}

// All reports whether no specific example is selected.
func (f *SelectionFilter) All() bool {
	return selectAll[f.only]
}

// Include reports whether the example called name is processed.
func (f *SelectionFilter) Include(name string) bool {
	if !f.All() && f.only != name {
		return false
	}
	for _, g := range f.exclude {
		if g.Match(name) {
			return false
		}
	}
	return true
}
