package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one engine run: the datasets going in, the backend
// replies, and the expected outcome.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description,omitempty"`

	// Source holds the live dataset rows. May be empty: an empty source
	// reconciles every state row away.
	Source []SourceRow `yaml:"source"`

	// State holds the prior snapshot rows. Empty means first run.
	State []StateRow `yaml:"state,omitempty"`

	// Replies scripts the backend, one entry per batch call in dispatch
	// order. Calls past the end of the script succeed with no corrections.
	Replies []ReplyStep `yaml:"replies,omitempty"`

	// Retry overrides the engine's retry knobs. Zero fields keep the
	// engine defaults.
	Retry RetryClause `yaml:"retry,omitempty"`

	// Expect validates the run report. Nil skips report validation.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// FinalState is the exact snapshot expected after the run, sorted by
	// id. Nil skips snapshot validation; an explicit empty list asserts an
	// empty table.
	FinalState []StateRow `yaml:"final_state,omitempty"`
}

// SourceRow is one live dataset row.
type SourceRow struct {
	ID   int64  `yaml:"id" json:"id"`
	Text string `yaml:"text" json:"text"`
}

// StateRow is one snapshot row. An empty Corrected means pending.
type StateRow struct {
	ID        int64  `yaml:"id" json:"id"`
	Original  string `yaml:"original" json:"original"`
	Corrected string `yaml:"corrected,omitempty" json:"corrected"`
}

// ReplyStep scripts one backend reply: either a transient failure or a list
// of corrections. Corrections may cover a subset of the batch, carry
// unknown ids, or be empty; the engine's validation is under test, not
// bypassed.
type ReplyStep struct {
	Fail        bool            `yaml:"fail,omitempty"`
	Corrections []CorrectionRow `yaml:"corrections,omitempty"`
}

// CorrectionRow is one scripted corrected text.
type CorrectionRow struct {
	ID   int64  `yaml:"id"`
	Text string `yaml:"text"`
}

// RetryClause overrides engine retry configuration per scenario.
type RetryClause struct {
	MaxAttempts int `yaml:"max_attempts,omitempty"`
	BatchSize   int `yaml:"batch_size,omitempty"`
}

// ExpectClause validates the run report.
type ExpectClause struct {
	// Outcome is the expected run outcome: done, exhausted or
	// nothing_pending. Empty skips the check.
	Outcome string `yaml:"outcome,omitempty"`

	// Attempts is the expected number of passes. Zero skips the check.
	Attempts int `yaml:"attempts,omitempty"`

	// Counts is a subset match on the report counters. Valid keys:
	// reconciled, state_rows, added, invalidated, removed, pending,
	// resolved, unresolved.
	Counts map[string]int `yaml:"counts,omitempty"`
}

// LoadScenario reads and validates a scenario file. Unknown YAML keys are
// rejected so a typo in an expectation fails the scenario instead of
// silently skipping the check.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks the scenario for problems a run could not surface
// cleanly.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.Expect != nil {
		for key := range s.Expect.Counts {
			if !validCountKey(key) {
				return fmt.Errorf("unknown count key %q in expect clause", key)
			}
		}
		switch s.Expect.Outcome {
		case "", "done", "exhausted", "nothing_pending":
		default:
			return fmt.Errorf("unknown outcome %q in expect clause", s.Expect.Outcome)
		}
	}
	return nil
}

// countKeys lists the report counters an expect clause may name.
var countKeys = []string{
	"reconciled", "state_rows", "added", "invalidated",
	"removed", "pending", "resolved", "unresolved",
}

func validCountKey(key string) bool {
	for _, k := range countKeys {
		if k == key {
			return true
		}
	}
	return false
}
