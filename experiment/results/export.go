package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/mlo-sweep/mlo-sweep/experiment"
)

// CSV column headers for the aligned series export.
var seriesColumns = []string{
	"aggregate_load", "per_station_load",
	"throughput_mbps", "queuing_delay_ms", "access_delay_ms", "e2e_latency_ms",
}

// Point pairs one run's metrics with the load that produced it.
type Point struct {
	Load experiment.SweepPoint
	Record
}

// Points zips the series with the sweep. The caller must have checked alignment.
func (s *Series) Points(sweep []experiment.SweepPoint) ([]Point, error) {
	if err := s.CheckAligned(len(sweep)); err != nil {
		return nil, err
	}
	points := make([]Point, len(sweep))
	for i, sp := range sweep {
		points[i] = Point{Load: sp, Record: s.Record(i)}
	}
	return points, nil
}

// ExportCSV writes the aligned series, one row per sweep point, to path.
func ExportCSV(path string, sweep []experiment.SweepPoint, s *Series) error {
	points, err := s.Points(sweep)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating series CSV: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write(seriesColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, p := range points {
		row := []string{
			strconv.FormatFloat(p.Load.AggregateLoad, 'f', -1, 64),
			strconv.FormatFloat(p.Load.PerStationLoad, 'f', -1, 64),
			strconv.FormatFloat(p.Throughput, 'g', -1, 64),
			strconv.FormatFloat(p.QueuingDelay, 'g', -1, 64),
			strconv.FormatFloat(p.AccessDelay, 'g', -1, 64),
			strconv.FormatFloat(p.E2ELatency, 'g', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing series CSV: %w", err)
	}
	return file.Close()
}
