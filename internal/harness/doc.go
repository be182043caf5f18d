// Package harness runs declarative conformance scenarios against the
// engine.
//
// A scenario is a YAML file describing one engine run end to end: the
// source rows, the prior state snapshot, the scripted backend replies for
// each batch call, and what the run is expected to produce. The harness
// materializes the datasets in a scratch directory, wires a real Engine to
// a scripted corrector, executes the run, and hands back the report, the
// final snapshot, and every batch the backend saw.
//
// Scenarios exercise the actual engine: nothing is manufactured from the
// expectations. Cooldowns go through a recording sleeper, so a scenario
// with retries finishes immediately while still reporting how often the
// engine waited.
//
// Expectations come in two forms. Verify checks the scenario's expect
// clause (outcome, attempts, and a subset of the report counters) and its
// final_state rows. RunWithGolden additionally snapshots the report and
// final state as canonical JSON and compares it against a golden file under
// testdata/golden, regenerated with -update.
package harness
