// Package experiment holds the data model of an MLO parameter sweep: the experiment
// configuration, the sweep points derived from it, and the error kinds shared by the
// pipeline stages.
//
// # Reading Guide
//
//   - config.go: Config, its YAML loading and validation, path resolution
//   - sweep.go: GenerateSweep, the ordered list of per-run invocation parameters
//   - errors.go: sentinel errors identifying which invariant a failure broke
//
// The stages live in sub-packages:
//   - experiment/simulator: invokes the external ns-3 program once per sweep point
//   - experiment/results: parses the shared append-only result file
//   - experiment/reference: analytical-model curves per contention-window variant
//   - experiment/comparison: assembles and renders the four comparison plots
//   - experiment/artifacts: timestamped output directory and provenance
//   - experiment/pipeline: the linear state machine tying the stages together
package experiment
