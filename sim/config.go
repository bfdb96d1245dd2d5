package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// MinMCSamples and MaxMCSamples bound the Monte Carlo trial count.
	MinMCSamples = 10
	MaxMCSamples = 2000
	// DefaultMCSamples is used when a request does not override the sample count.
	DefaultMCSamples = 200
	// BurstMCSamples is the sample count of a high-accuracy burst run.
	BurstMCSamples = 2000
	// DefaultSCPitLossFactor applies when a safety-car window is given without a factor.
	DefaultSCPitLossFactor = 0.6
	// DefaultSeed keeps runs reproducible when no seed is supplied.
	DefaultSeed int64 = 42
)

// TargetModel describes the assumed stint of the competitor the gap is measured to.
// It is a simplifying default, not derived from the competitor's real data.
type TargetModel struct {
	Compound  Compound `yaml:"compound" json:"compound"`
	AgeOffset int      `yaml:"age_offset" json:"age_offset"` // target tires are this many laps younger than ours
}

// StartAge returns the assumed age of the target's tires given our own tire age.
func (m TargetModel) StartAge(ownAge int) int {
	return max(0, ownAge-m.AgeOffset)
}

// Constraints are advisory race rules. Violations produce warnings, never errors.
type Constraints struct {
	MaxTireAge          int  `yaml:"max_tire_age" json:"max_tire_age"` // 0 disables the check
	RequireTwoCompounds bool `yaml:"require_two_compounds" json:"require_two_compounds"`
}

// SimulationConfig groups the numeric model parameters of a simulation.
type SimulationConfig struct {
	PitLossMeanS float64        `yaml:"pit_loss_mean_s" json:"pit_loss_mean_s"`
	PitLossStdS  float64        `yaml:"pit_loss_std_s" json:"pit_loss_std_s"`
	Degradation  DegradationSet `yaml:"degradation" json:"degradation"`
	NoiseStdS    float64        `yaml:"noise_std_s" json:"noise_std_s"` // per-lap Gaussian noise
	MCSamples    int            `yaml:"mc_samples" json:"mc_samples"`
	Target       TargetModel    `yaml:"target" json:"target"`
	Constraints  Constraints    `yaml:"constraints" json:"constraints"`
}

// DefaultSimulationConfig returns the stock model: soft degrades earliest and
// fastest, hard latest and slowest.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		PitLossMeanS: 21.0,
		PitLossStdS:  0.5,
		Degradation: DegradationSet{
			Soft:   Degradation{StartLap: 12, PerLapS: 0.12},
			Medium: Degradation{StartLap: 18, PerLapS: 0.10},
			Hard:   Degradation{StartLap: 22, PerLapS: 0.08},
		},
		NoiseStdS: 0.03,
		MCSamples: DefaultMCSamples,
		Target:    TargetModel{Compound: CompoundMedium, AgeOffset: 3},
		Constraints: Constraints{
			MaxTireAge:          22,
			RequireTwoCompounds: true,
		},
	}
}

// ClampSamples forces n into [MinMCSamples, MaxMCSamples].
func ClampSamples(n int) int {
	return min(MaxMCSamples, max(MinMCSamples, n))
}

// Validate checks that all parameters are within their documented ranges.
func (c SimulationConfig) Validate() error {
	if c.PitLossMeanS < 0 {
		return fmt.Errorf("pit_loss_mean_s must be non-negative, got %f", c.PitLossMeanS)
	}
	if c.PitLossStdS < 0 {
		return fmt.Errorf("pit_loss_std_s must be non-negative, got %f", c.PitLossStdS)
	}
	if c.NoiseStdS < 0 {
		return fmt.Errorf("noise_std_s must be non-negative, got %f", c.NoiseStdS)
	}
	if c.MCSamples < MinMCSamples || c.MCSamples > MaxMCSamples {
		return fmt.Errorf("mc_samples must be in [%d, %d], got %d", MinMCSamples, MaxMCSamples, c.MCSamples)
	}
	for _, name := range []Compound{CompoundSoft, CompoundMedium, CompoundHard} {
		d := c.Degradation.For(name)
		if d.StartLap < 0 {
			return fmt.Errorf("degradation.%s.start_lap must be non-negative, got %d", name, d.StartLap)
		}
		if d.PerLapS < 0 {
			return fmt.Errorf("degradation.%s.per_lap_s must be non-negative, got %f", name, d.PerLapS)
		}
	}
	if !c.Target.Compound.Valid() {
		return fmt.Errorf("target.compound: %w %q", ErrUnknownCompound, c.Target.Compound)
	}
	if c.Target.AgeOffset < 0 {
		return fmt.Errorf("target.age_offset must be non-negative, got %d", c.Target.AgeOffset)
	}
	if c.Constraints.MaxTireAge < 0 {
		return fmt.Errorf("constraints.max_tire_age must be non-negative, got %d", c.Constraints.MaxTireAge)
	}
	return nil
}

// LoadSimulationConfig reads a YAML simulation config. Keys absent from the
// file keep their DefaultSimulationConfig values; unknown keys are an error.
func LoadSimulationConfig(path string) (SimulationConfig, error) {
	cfg := DefaultSimulationConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading simulation config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing simulation config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating simulation config: %w", err)
	}
	return cfg, nil
}
