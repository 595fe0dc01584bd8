// Package runlog records what happened to each simulator invocation of a sweep.
// This package has no dependencies on the other stages; it stores pure data types.
package runlog

// RunStatus captures one simulator invocation. The pipeline never aborts on a bad run;
// the aggregate length check on the result file remains the fatal gate, and these
// records attribute a mismatch to the runs that caused it.
type RunStatus struct {
	Index           int     `yaml:"index"`
	AggregateLoad   float64 `yaml:"aggregate_load"`
	PerStationLoad  float64 `yaml:"per_station_load"`
	Command         string  `yaml:"command"`
	ExitError       string  `yaml:"exit_error,omitempty"` // empty when the simulator exited 0
	LinesAppended   int     `yaml:"lines_appended"`       // result-file growth during the run
	DurationSeconds float64 `yaml:"duration_s"`
}

// OK reports whether the run exited cleanly and appended exactly one record.
func (r RunStatus) OK() bool {
	return r.ExitError == "" && r.LinesAppended == 1
}

// Log collects run statuses in invocation order.
type Log struct {
	Runs []RunStatus `yaml:"runs"`
}

// NewLog creates a Log ready for recording.
func NewLog() *Log {
	return &Log{Runs: make([]RunStatus, 0)}
}

// Record appends a run status.
func (l *Log) Record(status RunStatus) {
	l.Runs = append(l.Runs, status)
}
