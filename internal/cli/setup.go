package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/emend/internal/config"
	"github.com/roach88/emend/internal/dataset"
	"github.com/roach88/emend/internal/journal"
	"github.com/roach88/emend/internal/logging"
	"github.com/roach88/emend/internal/oracle"
)

// defaultConfigFile is picked up from the working directory when --config
// is not given.
const defaultConfigFile = "emend.yml"

// loadConfig resolves the configuration for a command: the explicit
// --config path when set, else ./emend.yml when present, else built-in
// defaults. It also installs the process logger, so every command logs
// consistently from its first action.
func loadConfig(opts *RootOptions) (config.Config, *slog.Logger, error) {
	path := opts.Config
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	log := logging.Setup(cfg.Log, opts.Verbose)
	return cfg, log, nil
}

// buildCorrector resolves the oracle credential and constructs the
// configured backend. The credential check is the pre-flight gate: it runs
// before any dataset I/O, so a misconfigured run touches nothing.
func buildCorrector(cfg config.Config) (oracle.Corrector, error) {
	key, err := cfg.Oracle.Credential()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "oracle credential missing", err)
	}

	if cfg.Oracle.Backend == config.BackendMock {
		return oracle.NewMock(), nil
	}

	client, err := oracle.NewClient(oracle.ClientConfig{
		BaseURL:     cfg.Oracle.BaseURL,
		Model:       cfg.Oracle.Model,
		APIKey:      key,
		Temperature: cfg.Oracle.Temperature,
		Timeout:     time.Duration(cfg.Oracle.Timeout),
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build oracle client", err)
	}
	return client, nil
}

// datasetFiles applies the optional path override flags over the config.
func datasetFiles(cfg config.Config, sourceFlag, stateFlag string) dataset.Files {
	files := dataset.Files{SourcePath: cfg.Source, StatePath: cfg.State}
	if sourceFlag != "" {
		files.SourcePath = sourceFlag
	}
	if stateFlag != "" {
		files.StatePath = stateFlag
	}
	return files
}

// classifyRunError maps an engine run failure onto the exit code contract:
// bad inputs are command errors, everything that failed mid-flight is a
// run failure.
func classifyRunError(err error) error {
	switch {
	case dataset.IsSchemaError(err):
		return WrapExitError(ExitCommandError, "input dataset rejected", err)
	case dataset.IsWriteError(err):
		return WrapExitError(ExitFailure, "failed to write state snapshot", err)
	case errors.Is(err, context.Canceled):
		return WrapExitError(ExitFailure, "run interrupted", err)
	default:
		return WrapExitError(ExitFailure, "run failed", err)
	}
}

// newRunID generates the journal identifier for one run. UUIDv7 embeds the
// start time, so journal ids sort chronologically.
func newRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// recordRun appends the finished run to the journal when journaling is
// enabled. Journal trouble never fails a completed run: the snapshot on
// disk is already correct, so the error is logged and swallowed.
func recordRun(ctx context.Context, path string, rec journal.RunRecord, log *slog.Logger) {
	if path == "" {
		return
	}

	j, err := journal.Open(path)
	if err != nil {
		log.Warn("run journal unavailable",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	defer j.Close()

	if err := j.RecordRun(ctx, rec); err != nil {
		log.Warn("failed to journal run",
			slog.String("run_id", rec.ID),
			slog.String("error", err.Error()))
	}
}
