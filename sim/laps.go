package sim

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidLapTable is returned when lap records are unordered, duplicated or malformed.
var ErrInvalidLapTable = errors.New("invalid lap table")

// LapRecord is the clean-air baseline pace of one lap, without wear or traffic.
type LapRecord struct {
	Lap       int     `json:"lap"`
	BasePaceS float64 `json:"base_pace_s"`
}

// LapTable is an immutable, lap-ordered sequence of LapRecords.
type LapTable struct {
	records []LapRecord
}

// NewLapTable copies records and checks that lap numbers are strictly increasing
// and paces are finite.
func NewLapTable(records []LapRecord) (*LapTable, error) {
	owned := make([]LapRecord, len(records))
	copy(owned, records)
	for i, r := range owned {
		if math.IsNaN(r.BasePaceS) || math.IsInf(r.BasePaceS, 0) {
			return nil, fmt.Errorf("%w: lap %d has non-finite base pace", ErrInvalidLapTable, r.Lap)
		}
		if i > 0 && r.Lap <= owned[i-1].Lap {
			return nil, fmt.Errorf("%w: lap %d follows lap %d", ErrInvalidLapTable, r.Lap, owned[i-1].Lap)
		}
	}
	return &LapTable{records: owned}, nil
}

// Len returns the number of laps in the table.
func (t *LapTable) Len() int {
	return len(t.records)
}

// Records returns a copy of all lap records.
func (t *LapTable) Records() []LapRecord {
	out := make([]LapRecord, len(t.records))
	copy(out, t.records)
	return out
}

// Window returns the records with lap >= baseLap. The returned slice shares
// storage with the table and must not be modified.
func (t *LapTable) Window(baseLap int) []LapRecord {
	i := sort.Search(len(t.records), func(i int) bool { return t.records[i].Lap >= baseLap })
	return t.records[i:len(t.records):len(t.records)]
}
