// Package audit runs accessibility audits against a browser page and turns
// their results into pass/fail verdicts.
package audit

import (
	"slices"

	"github.com/entrhq/uiaudit/pkg/browser"
)

// Result is the outcome of one audit run.
type Result struct {
	Violations []Violation `json:"violations"`
}

// Violation is one failed accessibility rule.
type Violation struct {
	ID          string `json:"id"`
	Impact      string `json:"impact,omitempty"`
	Description string `json:"description"`
	Help        string `json:"help"`
	HelpURL     string `json:"helpUrl"`
	Nodes       []Node `json:"nodes"`
}

// Node is a DOM node affected by a violation.
type Node struct {
	HTML   string   `json:"html"`
	Target []string `json:"target,omitempty"`
}

// Options narrows an audit. Include, when non-empty, runs only the named
// rules; Exclude disables the named rules.
type Options struct {
	Include []string
	Exclude []string
}

// Apply drops violations for excluded rules and, when Include is set, for
// rules outside it. The input is not modified.
func (o Options) Apply(r Result) Result {
	if len(o.Include) == 0 && len(o.Exclude) == 0 {
		return r
	}
	out := Result{Violations: make([]Violation, 0, len(r.Violations))}
	for _, v := range r.Violations {
		if slices.Contains(o.Exclude, v.ID) {
			continue
		}
		if len(o.Include) > 0 && !slices.Contains(o.Include, v.ID) {
			continue
		}
		out.Violations = append(out.Violations, v)
	}
	return out
}

// Client runs an accessibility audit against the current page state.
type Client interface {
	Audit(page browser.Page, opts Options) (Result, error)
}

// RuleSkipMap maps a component or test name to the rule ids suppressed when auditing it.
type RuleSkipMap map[string][]string

// For returns the rules to skip for name; nil when there are none.
func (m RuleSkipMap) For(name string) []string {
	rules := m[name]
	if len(rules) == 0 {
		return nil
	}
	return slices.Clone(rules)
}

// DefaultSkipRules are the suppressions the demo site needs out of the box.
func DefaultSkipRules() RuleSkipMap {
	return RuleSkipMap{
		// Loading's color contrast check changes depending on whether snapshots are taken
		"Loading":     {"color-contrast"},
		"RadioButton": {"duplicate-id"},
	}
}

// DefaultIndexSkipRules are suppressed when auditing the index page itself.
func DefaultIndexSkipRules() []string {
	return []string{
		"aria-hidden-focus",
		"color-contrast",
		"duplicate-id-aria",
		"duplicate-id",
	}
}
