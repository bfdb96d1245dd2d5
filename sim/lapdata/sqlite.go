package lapdata

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/pitstop-ai/pitsim/sim"
)

const schema = `
CREATE TABLE IF NOT EXISTS laps (
	race        TEXT    NOT NULL,
	lap         INTEGER NOT NULL,
	base_pace_s REAL    NOT NULL,
	PRIMARY KEY (race, lap)
);`

// SQLiteSource reads the laps of one race from a SQLite database.
type SQLiteSource struct {
	DSN  string
	Race string
}

// OpenDB opens the database at dsn and makes sure the laps table exists.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open lap database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create laps table: %w", err)
	}
	return db, nil
}

// Load implements Source.
func (s *SQLiteSource) Load(ctx context.Context) (*sim.LapTable, error) {
	db, err := OpenDB(ctx, s.DSN)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return LoadRace(ctx, db, s.Race)
}

// LoadRace reads the laps of race ordered by lap number.
func LoadRace(ctx context.Context, db *sql.DB, race string) (*sim.LapTable, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT lap, base_pace_s FROM laps WHERE race = ? ORDER BY lap", race)
	if err != nil {
		return nil, fmt.Errorf("query laps: %w", err)
	}
	defer rows.Close()

	var records []sim.LapRecord
	for rows.Next() {
		var rec sim.LapRecord
		if err := rows.Scan(&rec.Lap, &rec.BasePaceS); err != nil {
			return nil, fmt.Errorf("scan lap: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate laps: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no laps stored for race %q", race)
	}
	return sim.NewLapTable(records)
}

// Import replaces the stored laps of race with table in a single transaction.
func Import(ctx context.Context, db *sql.DB, race string, table *sim.LapTable) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM laps WHERE race = ?", race); err != nil {
		return fmt.Errorf("clear race %q: %w", race, err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO laps (race, lap, base_pace_s) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, rec := range table.Records() {
		if _, err := stmt.ExecContext(ctx, race, rec.Lap, rec.BasePaceS); err != nil {
			return fmt.Errorf("insert lap %d: %w", rec.Lap, err)
		}
	}
	return tx.Commit()
}
