package experiment

import "errors"

// Error kinds. Stages wrap these with fmt.Errorf("...: %w", ...) so callers can test the
// kind with errors.Is. Every kind is fatal to the pipeline.
var (
	// ErrMissingCollaborator means the simulator binary is not at its configured location.
	ErrMissingCollaborator = errors.New("missing collaborator")
	// ErrStaleState means a result file from a previous run exists and was not cleared.
	ErrStaleState = errors.New("stale result file")
	// ErrMalformedRecord means a result-file line is too short or a metric token is not numeric.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrLengthMismatch means the parsed series do not align with the sweep.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrUnknownVariant means no reference data exists for the contention-window setting.
	ErrUnknownVariant = errors.New("unknown variant")
	// ErrDivisionByZero means per-station loads were requested for zero stations.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrInvalidConfig means a configuration value is out of range.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInterrupted means the run context was cancelled.
	ErrInterrupted = errors.New("interrupted")
)
