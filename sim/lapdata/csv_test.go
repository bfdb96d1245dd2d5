package lapdata

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitstop-ai/pitsim/internal/testutil"
	"github.com/pitstop-ai/pitsim/sim"
)

func TestReadCSV_ExtraColumnsAndUnorderedRows(t *testing.T) {
	// GIVEN a CSV with an extra column, mixed-case header and rows out of order
	in := "driver,Lap,base_pace_s\nVER,3,90.2\nVER,1,90.5\nVER,2, 90.4\n"

	// WHEN read
	table, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	// THEN rows are sorted by lap and the extra column is ignored
	assert.Equal(t, []sim.LapRecord{
		{Lap: 1, BasePaceS: 90.5},
		{Lap: 2, BasePaceS: 90.4},
		{Lap: 3, BasePaceS: 90.2},
	}, table.Records())
}

func TestReadCSV_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{"empty", "", "missing header"},
		{"missing pace column", "lap,pace\n1,90\n", "header must contain"},
		{"missing lap column", "base_pace_s\n90\n", "header must contain"},
		{"bad lap", "lap,base_pace_s\nx,90\n", "row 2: invalid lap"},
		{"bad pace", "lap,base_pace_s\n1,90\n2,fast\n", "row 3: invalid base_pace_s"},
		{"duplicate lap", "lap,base_pace_s\n1,90\n1,91\n", "invalid lap table"},
		{"ragged row", "lap,base_pace_s\n1\n", "read lap CSV"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestReadCSV_Duplicate_IsInvalidLapTable(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("lap,base_pace_s\n4,90\n4,91\n"))
	assert.ErrorIs(t, err, sim.ErrInvalidLapTable)
}

func TestWriteCSV_ReadBack(t *testing.T) {
	table, err := sim.NewLapTable([]sim.LapRecord{{Lap: 1, BasePaceS: 92.641}, {Lap: 2, BasePaceS: 92.5}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))
	assert.Equal(t, "lap,base_pace_s\n1,92.641\n2,92.5\n", buf.String())

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, table.Records(), back.Records())
}

func TestCSVSource_Load(t *testing.T) {
	path := testutil.WriteFile(t, "laps.csv", testutil.FlatLapsCSV(10, 30, 90))

	table, err := (&CSVSource{Path: path}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 21, table.Len())
	assert.Equal(t, 10, table.Records()[0].Lap)
}

func TestCSVSource_MissingFile(t *testing.T) {
	_, err := (&CSVSource{Path: "no-such-file.csv"}).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open lap CSV")
}

func TestCSVSource_RepoSample(t *testing.T) {
	table, err := (&CSVSource{Path: testutil.RepoPath(t, "data", "synth_race.csv")}).Load(context.Background())
	require.NoError(t, err)
	assert.Greater(t, table.Len(), 30)
}
