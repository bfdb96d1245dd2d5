package lapdata

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitstop-ai/pitsim/sim"
)

func testTable(t *testing.T, pace float64, laps ...int) *sim.LapTable {
	t.Helper()
	records := make([]sim.LapRecord, 0, len(laps))
	for _, lap := range laps {
		records = append(records, sim.LapRecord{Lap: lap, BasePaceS: pace + float64(lap)/100})
	}
	table, err := sim.NewLapTable(records)
	require.NoError(t, err)
	return table
}

func TestSQLite_ImportAndLoad(t *testing.T) {
	// GIVEN an empty database file
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "laps.db")
	db, err := OpenDB(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	// WHEN two races are imported
	monza := testTable(t, 82, 1, 2, 3, 5)
	spa := testTable(t, 106, 1, 2)
	require.NoError(t, Import(ctx, db, "monza", monza))
	require.NoError(t, Import(ctx, db, "spa", spa))

	// THEN each race reads back on its own, in lap order
	got, err := LoadRace(ctx, db, "monza")
	require.NoError(t, err)
	assert.Equal(t, monza.Records(), got.Records())

	got, err = LoadRace(ctx, db, "spa")
	require.NoError(t, err)
	assert.Equal(t, spa.Records(), got.Records())
}

func TestSQLite_ImportReplacesRace(t *testing.T) {
	ctx := context.Background()
	db, err := OpenDB(ctx, filepath.Join(t.TempDir(), "laps.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Import(ctx, db, "monza", testTable(t, 82, 1, 2, 3)))
	require.NoError(t, Import(ctx, db, "monza", testTable(t, 83, 7, 8)))

	got, err := LoadRace(ctx, db, "monza")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
	assert.Equal(t, 7, got.Records()[0].Lap)
}

func TestSQLite_UnknownRace(t *testing.T) {
	ctx := context.Background()
	db, err := OpenDB(ctx, filepath.Join(t.TempDir(), "laps.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = LoadRace(ctx, db, "imola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no laps stored for race "imola"`)
}

func TestOpen_PicksSourceByExtension(t *testing.T) {
	tests := []struct {
		path string
		want Source
	}{
		{"laps.csv", &CSVSource{Path: "laps.csv"}},
		{"laps.txt", &CSVSource{Path: "laps.txt"}},
		{"laps.db", &SQLiteSource{DSN: "laps.db", Race: "monza"}},
		{"laps.SQLite", &SQLiteSource{DSN: "laps.SQLite", Race: "monza"}},
		{"laps.sqlite3", &SQLiteSource{DSN: "laps.sqlite3", Race: "monza"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Open(tt.path, "monza"), tt.path)
	}
}

func TestSQLiteSource_Load(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "laps.db")
	db, err := OpenDB(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, Import(ctx, db, "default", testTable(t, 90, 10, 11, 12)))
	require.NoError(t, db.Close())

	table, err := Open(dsn, "default").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}
