package lapdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pitstop-ai/pitsim/sim"
)

const (
	columnLap      = "lap"
	columnBasePace = "base_pace_s"
)

// CSVSource reads a CSV file with a header containing "lap" and "base_pace_s".
// Other columns are ignored and rows may appear in any lap order.
type CSVSource struct {
	Path string
}

// Load implements Source.
func (s *CSVSource) Load(_ context.Context) (*sim.LapTable, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open lap CSV: %w", err)
	}
	defer file.Close()
	return ReadCSV(file)
}

// ReadCSV parses lap records from r.
func ReadCSV(r io.Reader) (*sim.LapTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read lap CSV: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("lap CSV empty or missing header")
	}

	lapCol, paceCol := -1, -1
	for i, name := range records[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case columnLap:
			lapCol = i
		case columnBasePace:
			paceCol = i
		}
	}
	if lapCol < 0 || paceCol < 0 {
		return nil, fmt.Errorf("lap CSV header must contain %q and %q", columnLap, columnBasePace)
	}

	rows := make([]sim.LapRecord, 0, len(records)-1)
	for i, record := range records[1:] { // Skip header
		lap, err := strconv.Atoi(strings.TrimSpace(record[lapCol]))
		if err != nil {
			return nil, fmt.Errorf("lap CSV row %d: invalid lap: %w", i+2, err)
		}
		pace, err := strconv.ParseFloat(strings.TrimSpace(record[paceCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("lap CSV row %d: invalid base_pace_s: %w", i+2, err)
		}
		rows = append(rows, sim.LapRecord{Lap: lap, BasePaceS: pace})
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].Lap < rows[b].Lap })

	table, err := sim.NewLapTable(rows)
	if err != nil {
		return nil, fmt.Errorf("lap CSV: %w", err)
	}
	return table, nil
}

// WriteCSV writes a lap table in the format ReadCSV accepts.
func WriteCSV(w io.Writer, table *sim.LapTable) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{columnLap, columnBasePace}); err != nil {
		return err
	}
	for _, rec := range table.Records() {
		row := []string{strconv.Itoa(rec.Lap), strconv.FormatFloat(rec.BasePaceS, 'f', -1, 64)}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
