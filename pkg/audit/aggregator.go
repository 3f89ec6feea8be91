package audit

import (
	"fmt"

	"github.com/entrhq/uiaudit/pkg/logging"
)

// ViolationError is returned when an audit reports at least one violation.
type ViolationError struct {
	Scope      string
	Count      int
	Violations []Violation
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("expected no axe violations in %s but got %d violations", e.Scope, e.Count)
}

// Aggregator turns audit results into verdicts, logging the detail of failures.
type Aggregator struct {
	log *logging.Logger
}

// NewAggregator creates an aggregator that reports through log.
func NewAggregator(log *logging.Logger) *Aggregator {
	return &Aggregator{log: log}
}

// Evaluate returns nil iff r has no violations. Otherwise every violation is
// logged with its id, description, help text, help URL and affected nodes,
// and a *ViolationError naming scope is returned.
func (a *Aggregator) Evaluate(scope string, r Result) error {
	if len(r.Violations) == 0 {
		return nil
	}

	for _, v := range r.Violations {
		a.log.Failuref("\n\n %s : %s", v.ID, v.Description)
		a.log.Failuref("%s", v.Help)
		a.log.Failuref("%s", v.HelpURL)

		rows := make([][]string, 0, len(v.Nodes))
		for _, n := range v.Nodes {
			rows = append(rows, []string{n.HTML})
		}
		a.log.Table([]string{"html"}, rows)
	}

	return &ViolationError{
		Scope:      scope,
		Count:      len(r.Violations),
		Violations: r.Violations,
	}
}
