package scenario

import (
	"fmt"
	"io"
	"time"
)

// TextReporter writes human-readable results.
type TextReporter struct {
	writer  io.Writer
	verbose bool
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(w io.Writer, verbose bool) *TextReporter {
	return &TextReporter{writer: w, verbose: verbose}
}

// Report writes one line per result followed by a summary, and returns
// the number of failed scenarios.
func (r *TextReporter) Report(results []*Result) int {
	failed := 0
	for _, res := range results {
		r.ReportResult(res)
		if !res.Passed {
			failed++
		}
	}

	fmt.Fprintf(r.writer, "\n--- Summary ---\n")
	fmt.Fprintf(r.writer, "Total:   %d\n", len(results))
	fmt.Fprintf(r.writer, "Passed:  %d\n", len(results)-failed)
	fmt.Fprintf(r.writer, "Failed:  %d\n", failed)
	return failed
}

// ReportResult writes a single result.
func (r *TextReporter) ReportResult(res *Result) {
	status := "PASS"
	if !res.Passed {
		status = "FAIL"
	}
	fmt.Fprintf(r.writer, "[%s] %s - %s (%s)\n",
		status, res.Scenario.ID, res.Scenario.Name, res.Duration.Round(time.Microsecond))

	if res.Err != nil {
		fmt.Fprintf(r.writer, "  error: %v\n", res.Err)
	}
	for _, f := range res.Failures {
		fmt.Fprintf(r.writer, "  %s\n", f)
	}
	if r.verbose {
		fmt.Fprintf(r.writer, "  steps: %d, delivered: %d, session: %s\n", res.Steps, res.Delivered, res.SessionID)
	}
}
