package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/emend/internal/dataset"
)

// cliFixture wires a config file, a source dataset and capture buffers for
// end-to-end command tests against the offline mock backend.
type cliFixture struct {
	dir     string
	config  string
	source  string
	state   string
	journal string
}

func newCLIFixture(t *testing.T, sourceCSV string) *cliFixture {
	t.Helper()
	dir := t.TempDir()
	f := &cliFixture{
		dir:     dir,
		config:  filepath.Join(dir, "emend.yml"),
		source:  filepath.Join(dir, "source.csv"),
		state:   filepath.Join(dir, "state.csv"),
		journal: filepath.Join(dir, "runs.db"),
	}

	cfg := fmt.Sprintf(`source: %s
state: %s
journal: %s
oracle:
  backend: mock
retry:
  max_attempts: 2
  cooldown: "0s"
`, f.source, f.state, f.journal)
	require.NoError(t, os.WriteFile(f.config, []byte(cfg), 0o644))

	if sourceCSV != "" {
		require.NoError(t, os.WriteFile(f.source, []byte(sourceCSV), 0o644))
	}
	return f
}

// execute runs the CLI with the fixture's config and returns stdout.
func (f *cliFixture) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--config", f.config))
	err := cmd.Execute()
	return out.String(), err
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

func TestRunCommand_EndToEnd(t *testing.T) {
	f := newCLIFixture(t, "id,observaciones\n1,hola  mundo\n2,buenos dias\n")

	out, err := f.execute(t, "run", "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["run_id"])
	report := data["report"].(map[string]interface{})
	assert.Equal(t, "done", report["outcome"])
	assert.Equal(t, float64(2), report["resolved"])

	state, err := dataset.LoadState(f.state)
	require.NoError(t, err)
	require.Len(t, state, 2)
	assert.Equal(t, "Hola mundo.", state[0].Corrected, "mock backend tidies the text")
	assert.Equal(t, "Buenos dias.", state[1].Corrected)
}

func TestRunCommand_TextOutput(t *testing.T) {
	f := newCLIFixture(t, "id,observaciones\n1,hola\n")

	out, err := f.execute(t, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "Resolved:    1")
	assert.Contains(t, out, "Unresolved:  0")
}

func TestRunCommand_MissingSourceIsCommandError(t *testing.T) {
	f := newCLIFixture(t, "")

	_, err := f.execute(t, "run")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "input dataset rejected")
}

func TestRunCommand_MissingCredentialIsCommandError(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.csv")
	require.NoError(t, os.WriteFile(source, []byte("id,text\n1,hola\n"), 0o644))
	config := filepath.Join(dir, "emend.yml")
	cfg := fmt.Sprintf("source: %s\nstate: %s\njournal: \"\"\noracle:\n  api_key_env: EMEND_TEST_MISSING_KEY\n",
		source, filepath.Join(dir, "state.csv"))
	require.NoError(t, os.WriteFile(config, []byte(cfg), 0o644))
	t.Setenv("EMEND_TEST_MISSING_KEY", "")

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--config", config})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "credential")

	_, statErr := os.Stat(filepath.Join(dir, "state.csv"))
	assert.True(t, os.IsNotExist(statErr), "credential pre-flight must run before any dataset write")
}

func TestRunCommand_RecordsJournal(t *testing.T) {
	f := newCLIFixture(t, "id,text\n1,hola\n")

	_, err := f.execute(t, "run")
	require.NoError(t, err)

	out, err := f.execute(t, "history", "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]interface{})
	runs := data["runs"].([]interface{})
	require.Len(t, runs, 1)
	run := runs[0].(map[string]interface{})
	assert.Equal(t, "done", run["outcome"])
	assert.Equal(t, float64(1), run["resolved"])
}

func TestReconcileCommand_NoBackendTraffic(t *testing.T) {
	f := newCLIFixture(t, "id,text\n1,hola\n2,chau\n")

	out, err := f.execute(t, "reconcile", "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["added"])
	assert.Equal(t, float64(2), data["pending"])

	state, err := dataset.LoadState(f.state)
	require.NoError(t, err)
	require.Len(t, state, 2)
	for _, rec := range state {
		assert.True(t, rec.Pending(), "reconcile alone never fills corrections")
	}
}

func TestHistoryCommand_DisabledJournal(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "emend.yml")
	require.NoError(t, os.WriteFile(config, []byte("journal: \"\"\n"), 0o644))

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"history", "--config", config})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
