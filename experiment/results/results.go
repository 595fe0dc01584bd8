// Package results reads and writes the shared append-only result file produced by the
// simulator. Each run appends one comma-separated line; only tokens 5, 8, 11 and 14 carry
// meaning here (total throughput, queuing delay, access delay, end-to-end latency). All
// other positions are opaque.
package results

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mlo-sweep/mlo-sweep/experiment"
)

// Token positions of the metrics within one result line.
const (
	ThroughputToken   = 5
	QueuingDelayToken = 8
	AccessDelayToken  = 11
	E2ELatencyToken   = 14

	// MinTokens is the shortest line that still contains every metric token.
	MinTokens = E2ELatencyToken + 1
)

const maxLineBytes = 1 << 20

// Record holds the four metrics of one run.
type Record struct {
	Throughput   float64 // Mbps
	QueuingDelay float64 // ms
	AccessDelay  float64 // ms
	E2ELatency   float64 // ms
}

// Series holds the four metric series in file order. The slices always have equal length.
type Series struct {
	Throughput   []float64
	QueuingDelay []float64
	AccessDelay  []float64
	E2ELatency   []float64
}

// Len returns the number of runs in the series.
func (s *Series) Len() int {
	return len(s.Throughput)
}

// Record returns the metrics of run i.
func (s *Series) Record(i int) Record {
	return Record{
		Throughput:   s.Throughput[i],
		QueuingDelay: s.QueuingDelay[i],
		AccessDelay:  s.AccessDelay[i],
		E2ELatency:   s.E2ELatency[i],
	}
}

func (s *Series) append(r Record) {
	s.Throughput = append(s.Throughput, r.Throughput)
	s.QueuingDelay = append(s.QueuingDelay, r.QueuingDelay)
	s.AccessDelay = append(s.AccessDelay, r.AccessDelay)
	s.E2ELatency = append(s.E2ELatency, r.E2ELatency)
}

// CheckAligned verifies that the series has exactly one value per sweep point.
// A difference means a run is missing or duplicated; it is never padded or truncated.
func (s *Series) CheckAligned(sweepLen int) error {
	if s.Len() != sweepLen {
		return fmt.Errorf("%w: result file has %d records, sweep has %d points", experiment.ErrLengthMismatch, s.Len(), sweepLen)
	}
	return nil
}

// ParseFile reads the result file at path.
func ParseFile(path string) (*Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening result file: %w", err)
	}
	defer func() { _ = file.Close() }()

	series, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return series, nil
}

// Parse reads result lines from r. Any malformed line aborts the whole parse: skipping it
// would silently shift every later value onto the wrong load.
func Parse(r io.Reader) (*Series, error) {
	series := &Series{
		Throughput:   []float64{},
		QueuingDelay: []float64{},
		AccessDelay:  []float64{},
		E2ELatency:   []float64{},
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		rec, err := parseLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		series.append(rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading result lines: %w", err)
	}
	return series, nil
}

func parseLine(line string) (Record, error) {
	tokens := strings.Split(line, ",")
	if len(tokens) < MinTokens {
		return Record{}, fmt.Errorf("%w: expected at least %d tokens, got %d", experiment.ErrMalformedRecord, MinTokens, len(tokens))
	}

	var rec Record
	targets := []struct {
		idx int
		dst *float64
	}{
		{ThroughputToken, &rec.Throughput},
		{QueuingDelayToken, &rec.QueuingDelay},
		{AccessDelayToken, &rec.AccessDelay},
		{E2ELatencyToken, &rec.E2ELatency},
	}
	for _, t := range targets {
		val, err := strconv.ParseFloat(strings.TrimSpace(tokens[t.idx]), 64)
		if err != nil {
			return Record{}, fmt.Errorf("%w: token %d %q is not numeric", experiment.ErrMalformedRecord, t.idx, tokens[t.idx])
		}
		*t.dst = val
	}
	return rec, nil
}

// FormatRecord renders rec in the simulator's line layout. Opaque positions are written
// as 0. Values use the shortest representation that parses back exactly.
func FormatRecord(rec Record) string {
	tokens := make([]string, MinTokens)
	for i := range tokens {
		tokens[i] = "0"
	}
	tokens[ThroughputToken] = strconv.FormatFloat(rec.Throughput, 'g', -1, 64)
	tokens[QueuingDelayToken] = strconv.FormatFloat(rec.QueuingDelay, 'g', -1, 64)
	tokens[AccessDelayToken] = strconv.FormatFloat(rec.AccessDelay, 'g', -1, 64)
	tokens[E2ELatencyToken] = strconv.FormatFloat(rec.E2ELatency, 'g', -1, 64)
	return strings.Join(tokens, ",")
}

// AppendRecord writes rec as one line to w.
func AppendRecord(w io.Writer, rec Record) error {
	if _, err := io.WriteString(w, FormatRecord(rec)+"\n"); err != nil {
		return fmt.Errorf("writing result record: %w", err)
	}
	return nil
}

// AppendRecordToFile appends rec to the result file at path, creating it if needed.
func AppendRecordToFile(path string, rec Record) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening result file for append: %w", err)
	}
	if err := AppendRecord(file, rec); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// CountLines returns the number of lines currently in the result file. A missing file
// has zero lines.
func CountLines(path string) (int, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("opening result file: %w", err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	n := 0
	for scanner.Scan() {
		n++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("counting result lines: %w", err)
	}
	return n, nil
}
