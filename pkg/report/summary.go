// Package report records the outcome of a harness run and writes it out as
// JSON and Markdown artifacts.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/uiaudit/pkg/audit"
	"github.com/entrhq/uiaudit/pkg/logging"
)

const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"

	ResultPassed = "passed"
	ResultFailed = "failed"
)

// Summary contains a complete summary of one run
type Summary struct {
	RunID     string        `json:"run_id"`
	Status    string        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Selection string        `json:"selection,omitempty"`
	BaseURL   string        `json:"base_url,omitempty"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Suites    []*Suite      `json:"suites"`
	Warnings  []string      `json:"warnings,omitempty"`
}

// Suite groups the examples processed from one index listing
type Suite struct {
	Name       string        `json:"name"`
	Discovered int           `json:"discovered"`
	Results    []*LinkResult `json:"results"`
}

// LinkResult is the verdict for one example page
type LinkResult struct {
	Name       string        `json:"name"`
	TestName   string        `json:"test_name,omitempty"`
	Location   string        `json:"location,omitempty"`
	Strategy   string        `json:"strategy"`
	Result     string        `json:"result"`
	Error      string        `json:"error,omitempty"`
	Violations int           `json:"violations"`
	Duration   time.Duration `json:"duration"`
}

// NewSummary starts a summary with a fresh run ID.
func NewSummary(selection string) *Summary {
	return &Summary{
		RunID:     uuid.NewString(),
		Status:    StatusRunning,
		Selection: selection,
		StartTime: time.Now(),
		Suites:    []*Suite{},
	}
}

// AddSuite appends a suite and returns it for recording.
func (s *Summary) AddSuite(name string, discovered int) *Suite {
	suite := &Suite{Name: name, Discovered: discovered, Results: []*LinkResult{}}
	s.Suites = append(s.Suites, suite)
	return suite
}

// Record appends the verdict for one example. err is the strategy's outcome.
func (s *Suite) Record(r *LinkResult, err error) {
	r.Result = ResultPassed
	if err != nil {
		r.Result = ResultFailed
		r.Error = err.Error()

		var verr *audit.ViolationError
		if errors.As(err, &verr) {
			r.Violations = verr.Count
		}
	}
	s.Results = append(s.Results, r)
}

// AddWarning records a problem that did not fail the run but left it
// incomplete, such as snapshots being skipped.
func (s *Summary) AddWarning(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// Finish stamps the end time and final status.
func (s *Summary) Finish(err error) {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
	s.Status = StatusSuccess
	if err != nil {
		s.Status = StatusFailed
		s.Error = err.Error()
	}
}

// Counts returns how many examples passed and failed.
func (s *Summary) Counts() (passed, failed int) {
	for _, suite := range s.Suites {
		for _, r := range suite.Results {
			if r.Result == ResultPassed {
				passed++
			} else {
				failed++
			}
		}
	}
	return passed, failed
}

// Print writes the summary to the console.
func Print(log *logging.Logger, s *Summary) {
	log.Section("Summary")

	rows := [][]string{}
	for _, suite := range s.Suites {
		for _, r := range suite.Results {
			name := r.Name
			if r.TestName != "" {
				name = r.TestName
			}
			rows = append(rows, []string{suite.Name, name, r.Strategy, r.Result, r.Duration.Round(time.Millisecond).String()})
		}
	}
	if len(rows) > 0 {
		log.Table([]string{"suite", "example", "strategy", "result", "duration"}, rows)
	}

	for _, w := range s.Warnings {
		log.Warningf("%s", w)
	}

	passed, failed := s.Counts()
	line := fmt.Sprintf("%d passed, %d failed in %s (run %s)", passed, failed, s.Duration.Round(time.Millisecond), s.RunID)
	if s.Status == StatusSuccess {
		log.Successf("%s", line)
		return
	}
	log.Failuref("%s", line)
	if s.Error != "" {
		log.Errorf("%s", firstLine(s.Error))
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
