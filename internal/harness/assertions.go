package harness

import (
	"errors"
	"fmt"

	"github.com/roach88/emend/internal/engine"
)

// Verify checks the scenario's expectations against the result. All
// failures are collected, not just the first, so one run diagnoses every
// broken expectation.
func Verify(s *Scenario, result *Result) error {
	var failures []error

	if s.Expect != nil {
		failures = append(failures, verifyReport(s.Expect, result.Report)...)
	}
	if s.FinalState != nil {
		failures = append(failures, verifyFinalState(s.FinalState, result.FinalState)...)
	}

	return errors.Join(failures...)
}

func verifyReport(expect *ExpectClause, report *engine.RunReport) []error {
	var failures []error

	if expect.Outcome != "" && string(report.Outcome) != expect.Outcome {
		failures = append(failures,
			fmt.Errorf("outcome: expected %q, got %q", expect.Outcome, report.Outcome))
	}
	if expect.Attempts != 0 && report.Attempts != expect.Attempts {
		failures = append(failures,
			fmt.Errorf("attempts: expected %d, got %d", expect.Attempts, report.Attempts))
	}
	for _, key := range countKeys {
		want, ok := expect.Counts[key]
		if !ok {
			continue
		}
		if got := reportCount(report, key); got != want {
			failures = append(failures,
				fmt.Errorf("count %s: expected %d, got %d", key, want, got))
		}
	}

	return failures
}

func verifyFinalState(expected []StateRow, actual []StateRow) []error {
	if len(expected) != len(actual) {
		return []error{fmt.Errorf("final state: expected %d row(s), got %d", len(expected), len(actual))}
	}

	var failures []error
	for i, want := range expected {
		got := actual[i]
		if got.ID != want.ID {
			failures = append(failures,
				fmt.Errorf("final state row %d: expected id %d, got %d", i, want.ID, got.ID))
			continue
		}
		if got.Original != want.Original {
			failures = append(failures,
				fmt.Errorf("final state id %d: expected original %q, got %q", want.ID, want.Original, got.Original))
		}
		if got.Corrected != want.Corrected {
			failures = append(failures,
				fmt.Errorf("final state id %d: expected corrected %q, got %q", want.ID, want.Corrected, got.Corrected))
		}
	}
	return failures
}

// reportCount maps an expect-clause key to its report counter. Keys are
// validated when the scenario loads.
func reportCount(report *engine.RunReport, key string) int {
	switch key {
	case "reconciled":
		return report.Reconciled
	case "state_rows":
		return report.StateRows
	case "added":
		return report.Added
	case "invalidated":
		return report.Invalidated
	case "removed":
		return report.Removed
	case "pending":
		return report.Pending
	case "resolved":
		return report.Resolved
	case "unresolved":
		return report.Unresolved
	default:
		return -1
	}
}
