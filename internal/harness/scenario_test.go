package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenarioFile(t, `
name: sample
description: loads fine
source:
  - { id: 1, text: "hola" }
replies:
  - corrections:
      - { id: 1, text: "Hola." }
expect:
  outcome: done
  counts:
    resolved: 1
final_state:
  - { id: 1, original: "hola", corrected: "Hola." }
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", s.Name)
	require.Len(t, s.Source, 1)
	assert.Equal(t, int64(1), s.Source[0].ID)
	require.NotNil(t, s.Expect)
	assert.Equal(t, 1, s.Expect.Counts["resolved"])
}

func TestLoadScenario_UnknownKeyRejected(t *testing.T) {
	path := writeScenarioFile(t, `
name: typo
sorce:
  - { id: 1, text: "hola" }
`)

	_, err := LoadScenario(path)
	require.Error(t, err, "a typoed key must not silently skip a check")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name     string
		scenario Scenario
		wantErr  string
	}{
		{
			name:     "missing name",
			scenario: Scenario{},
			wantErr:  "name is required",
		},
		{
			name: "unknown count key",
			scenario: Scenario{
				Name:   "bad-count",
				Expect: &ExpectClause{Counts: map[string]int{"attemps": 2}},
			},
			wantErr: `unknown count key "attemps"`,
		},
		{
			name: "unknown outcome",
			scenario: Scenario{
				Name:   "bad-outcome",
				Expect: &ExpectClause{Outcome: "finished"},
			},
			wantErr: `unknown outcome "finished"`,
		},
		{
			name:     "minimal valid",
			scenario: Scenario{Name: "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scenario.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestScenarioFiles loads every checked-in scenario, so a format drift in
// testdata fails here instead of in an unrelated golden test.
func TestScenarioFiles(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)
			assert.NotEmpty(t, s.Name)
		})
	}
}
