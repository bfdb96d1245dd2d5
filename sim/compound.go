package sim

import (
	"errors"
	"fmt"
	"strings"
)

// Compound is a tire type with its own wear characteristics.
type Compound string

const (
	CompoundSoft   Compound = "soft"
	CompoundMedium Compound = "medium"
	CompoundHard   Compound = "hard"
)

// ErrUnknownCompound is returned when a compound name is not soft, medium or hard.
var ErrUnknownCompound = errors.New("unknown compound")

// ValidCompounds is the set of recognized compound names.
var ValidCompounds = map[Compound]bool{CompoundSoft: true, CompoundMedium: true, CompoundHard: true}

// ParseCompound normalizes case and surrounding whitespace before matching.
func ParseCompound(s string) (Compound, error) {
	c := Compound(strings.ToLower(strings.TrimSpace(s)))
	if !ValidCompounds[c] {
		return "", fmt.Errorf("%w %q", ErrUnknownCompound, s)
	}
	return c, nil
}

// Valid reports whether c is one of the recognized compounds.
func (c Compound) Valid() bool {
	return ValidCompounds[c]
}

// UnmarshalText lets JSON and YAML decoders accept "Soft", " HARD " etc.
func (c *Compound) UnmarshalText(text []byte) error {
	parsed, err := ParseCompound(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// TireState is a vehicle's current set of tires.
type TireState struct {
	Compound Compound
	Age      int // laps already driven on this set
}

// Degradation is a two-piece linear wear model: no penalty up to StartLap,
// then PerLapS seconds for every lap of age beyond it.
type Degradation struct {
	StartLap int     `yaml:"start_lap" json:"start_lap"`
	PerLapS  float64 `yaml:"per_lap_s" json:"per_lap_s"`
}

// Penalty returns the wear time added to a lap driven on tires of the given age.
func (d Degradation) Penalty(age int) float64 {
	if age <= d.StartLap {
		return 0
	}
	return float64(age-d.StartLap) * d.PerLapS
}

func (d Degradation) String() string {
	return fmt.Sprintf("start=%d, +%.2fs/lap", d.StartLap, d.PerLapS)
}

// DegradationSet holds one wear model per compound.
type DegradationSet struct {
	Soft   Degradation `yaml:"soft" json:"soft"`
	Medium Degradation `yaml:"medium" json:"medium"`
	Hard   Degradation `yaml:"hard" json:"hard"`
}

// For returns the wear model of c. Callers validate c beforehand.
func (s DegradationSet) For(c Compound) Degradation {
	switch c {
	case CompoundSoft:
		return s.Soft
	case CompoundMedium:
		return s.Medium
	default:
		return s.Hard
	}
}
