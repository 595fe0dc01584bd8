package runlog

// Summary aggregates statistics from a Log.
type Summary struct {
	TotalRuns       int     `yaml:"total_runs"`
	Succeeded       int     `yaml:"succeeded"`
	ExitFailures    int     `yaml:"exit_failures"`   // non-zero exit status
	MissingRecords  int     `yaml:"missing_records"` // runs that appended nothing
	ExtraRecords    int     `yaml:"extra_records"`   // runs that appended more than one line
	TotalDurationS  float64 `yaml:"total_duration_s"`
	SuspectIndexes  []int   `yaml:"suspect_indexes,omitempty"` // runs that are not OK()
	AppendedRecords int     `yaml:"appended_records"`
}

// Summarize computes aggregate statistics from a Log.
// Safe for nil or empty logs (returns zero-value fields).
func Summarize(l *Log) *Summary {
	summary := &Summary{}
	if l == nil {
		return summary
	}

	summary.TotalRuns = len(l.Runs)
	for _, r := range l.Runs {
		summary.TotalDurationS += r.DurationSeconds
		summary.AppendedRecords += r.LinesAppended
		if r.ExitError != "" {
			summary.ExitFailures++
		}
		switch {
		case r.LinesAppended == 0:
			summary.MissingRecords++
		case r.LinesAppended > 1:
			summary.ExtraRecords++
		}
		if r.OK() {
			summary.Succeeded++
		} else {
			summary.SuspectIndexes = append(summary.SuspectIndexes, r.Index)
		}
	}
	return summary
}
