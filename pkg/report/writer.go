package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Writer handles writing run artifacts
type Writer struct {
	outputDir string
}

// NewWriter creates a new artifact writer
func NewWriter(outputDir string) *Writer {
	return &Writer{
		outputDir: outputDir,
	}
}

// WriteAll writes every artifact format
func (w *Writer) WriteAll(summary *Summary) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := w.WriteJSON(summary); err != nil {
		return fmt.Errorf("failed to write report JSON: %w", err)
	}

	if err := w.WriteMarkdown(summary); err != nil {
		return fmt.Errorf("failed to write summary markdown: %w", err)
	}

	return nil
}

// WriteJSON writes the full run summary as JSON
func (w *Writer) WriteJSON(summary *Summary) error {
	path := filepath.Join(w.outputDir, "report.json")

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write report JSON: %w", writeErr)
	}

	return nil
}

// WriteMarkdown writes a human-readable markdown summary
func (w *Writer) WriteMarkdown(summary *Summary) error {
	path := filepath.Join(w.outputDir, "summary.md")

	var md strings.Builder

	md.WriteString("# UI Audit Summary\n\n")
	md.WriteString(fmt.Sprintf("**Run:** %s\n\n", summary.RunID))
	md.WriteString(fmt.Sprintf("**Status:** %s\n\n", summary.Status))
	if summary.Selection != "" {
		md.WriteString(fmt.Sprintf("**Selection:** %s\n\n", summary.Selection))
	}
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Completed:** %s\n\n", summary.EndTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", summary.Duration))

	md.WriteString("## Result\n\n")
	if summary.Error != "" {
		md.WriteString(fmt.Sprintf("❌ **Error:** %s\n\n", summary.Error))
	} else {
		md.WriteString("✅ **Success**\n\n")
	}

	if len(summary.Warnings) > 0 {
		md.WriteString("## Warnings\n\n")
		for _, w := range summary.Warnings {
			md.WriteString(fmt.Sprintf("- ⚠️ %s\n", w))
		}
		md.WriteString("\n")
	}

	for _, suite := range summary.Suites {
		md.WriteString(fmt.Sprintf("## %s\n\n", suite.Name))
		if len(suite.Results) == 0 {
			md.WriteString(fmt.Sprintf("No examples processed (%d discovered)\n\n", suite.Discovered))
			continue
		}
		for _, r := range suite.Results {
			status := "✅"
			if r.Result != ResultPassed {
				status = "❌"
			}
			name := r.Name
			if r.TestName != "" {
				name = r.TestName
			}
			md.WriteString(fmt.Sprintf("%s **%s** (%s)", status, name, r.Strategy))
			if r.Violations > 0 {
				md.WriteString(fmt.Sprintf(", %d violations", r.Violations))
			}
			md.WriteString("\n")
			if r.Error != "" {
				md.WriteString(fmt.Sprintf("   Error: %s\n", r.Error))
			}
		}
		md.WriteString("\n")
	}

	passed, failed := summary.Counts()
	md.WriteString("## Totals\n\n")
	md.WriteString(fmt.Sprintf("- **Passed:** %d\n", passed))
	md.WriteString(fmt.Sprintf("- **Failed:** %d\n", failed))

	if writeErr := os.WriteFile(path, []byte(md.String()), 0600); writeErr != nil {
		return fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}

	return nil
}
