package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/pitstop-ai/pitsim/sim"
)

// MaxCandidates bounds the candidates of a single request.
const MaxCandidates = 6

// ErrBadRequest marks request validation failures.
var ErrBadRequest = errors.New("bad request")

// CandidateRequest is one strategy to evaluate.
type CandidateRequest struct {
	PitLap   int          `json:"pit_lap" yaml:"pit_lap"`
	Compound sim.Compound `json:"compound" yaml:"compound"`
}

// SCWindowRequest is an inclusive safety-car lap range.
type SCWindowRequest struct {
	StartLap int `json:"start_lap" yaml:"start_lap"`
	EndLap   int `json:"end_lap" yaml:"end_lap"`
}

// RunSimRequest is the JSON body of POST /run_sim. Pointer fields are
// required or optional inputs whose absence must be distinguishable from zero.
type RunSimRequest struct {
	BaseLap         *int               `json:"base_lap" yaml:"base_lap"`
	BaseTargetGapS  *float64           `json:"base_target_gap_s" yaml:"base_target_gap_s"`
	CurrentCompound sim.Compound       `json:"current_compound" yaml:"current_compound"`
	CurrentTireAge  *int               `json:"current_tire_age" yaml:"current_tire_age"`
	Candidates      []CandidateRequest `json:"candidates" yaml:"candidates"`
	MCSamples       *int               `json:"mc_samples,omitempty" yaml:"mc_samples,omitempty"`
	SCWindow        *SCWindowRequest   `json:"sc_window,omitempty" yaml:"sc_window,omitempty"`
	SCPitLossFactor *float64           `json:"sc_pit_loss_factor,omitempty" yaml:"sc_pit_loss_factor,omitempty"`
}

// NormalizedRequest is a validated request with defaults applied and
// mc_samples clamped. Its JSON encoding is the cache key.
type NormalizedRequest struct {
	BaseLap         int                  `json:"base_lap"`
	BaseTargetGapS  float64              `json:"base_target_gap_s"`
	CurrentCompound sim.Compound         `json:"current_compound"`
	CurrentTireAge  int                  `json:"current_tire_age"`
	Candidates      []sim.Strategy       `json:"candidates"`
	MCSamples       int                  `json:"mc_samples"`
	SCWindow        *sim.SafetyCarWindow `json:"sc_window"`
	SCPitLossFactor float64              `json:"sc_pit_loss_factor"`
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// Normalize validates r and fills in defaults. defaultSamples is used when
// mc_samples is absent.
func (r *RunSimRequest) Normalize(defaultSamples int) (*NormalizedRequest, error) {
	if r.BaseLap == nil || *r.BaseLap < 1 {
		return nil, badRequest("base_lap is required and must be >= 1")
	}
	if r.BaseTargetGapS == nil {
		return nil, badRequest("base_target_gap_s is required")
	}
	if !r.CurrentCompound.Valid() {
		return nil, badRequest("current_compound must be one of soft, medium, hard")
	}
	if r.CurrentTireAge == nil || *r.CurrentTireAge < 0 {
		return nil, badRequest("current_tire_age is required and must be >= 0")
	}
	if len(r.Candidates) < 1 || len(r.Candidates) > MaxCandidates {
		return nil, badRequest("candidates must contain 1 to %d entries, got %d", MaxCandidates, len(r.Candidates))
	}
	for i, c := range r.Candidates {
		if c.PitLap < 1 {
			return nil, badRequest("candidates[%d].pit_lap must be >= 1", i)
		}
		if !c.Compound.Valid() {
			return nil, badRequest("candidates[%d].compound must be one of soft, medium, hard", i)
		}
	}

	n := &NormalizedRequest{
		BaseLap:         *r.BaseLap,
		BaseTargetGapS:  *r.BaseTargetGapS,
		CurrentCompound: r.CurrentCompound,
		CurrentTireAge:  *r.CurrentTireAge,
		Candidates: lo.Map(r.Candidates, func(c CandidateRequest, _ int) sim.Strategy {
			return sim.Strategy{PitLap: c.PitLap, Compound: c.Compound}
		}),
		MCSamples:       sim.ClampSamples(defaultSamples),
		SCPitLossFactor: sim.DefaultSCPitLossFactor,
	}
	if r.MCSamples != nil {
		n.MCSamples = sim.ClampSamples(*r.MCSamples)
	}
	if r.SCWindow != nil {
		w := r.SCWindow
		if w.StartLap < 1 || w.EndLap < 1 {
			return nil, badRequest("sc_window laps must be >= 1")
		}
		if w.StartLap > w.EndLap {
			return nil, badRequest("sc_window.start_lap %d is after end_lap %d", w.StartLap, w.EndLap)
		}
		n.SCWindow = &sim.SafetyCarWindow{StartLap: w.StartLap, EndLap: w.EndLap}
	}
	if r.SCPitLossFactor != nil {
		f := *r.SCPitLossFactor
		if f <= 0 || f > 1 {
			return nil, badRequest("sc_pit_loss_factor must be in (0, 1], got %g", f)
		}
		n.SCPitLossFactor = f
	}
	return n, nil
}

// CacheKey is the canonical serialization of the normalized request.
func (n *NormalizedRequest) CacheKey() string {
	// Marshalling plain structs of scalars and slices cannot fail.
	b, _ := json.Marshal(n)
	return string(b)
}

// SimRequest maps the normalized request onto the simulator's inputs.
func (n *NormalizedRequest) SimRequest(laps *sim.LapTable, cfg sim.SimulationConfig, seed int64) sim.Request {
	cfg.MCSamples = n.MCSamples
	return sim.Request{
		Laps:            laps,
		CurrentTire:     sim.TireState{Compound: n.CurrentCompound, Age: n.CurrentTireAge},
		BaseTargetGapS:  n.BaseTargetGapS,
		BaseLap:         n.BaseLap,
		Candidates:      n.Candidates,
		Config:          cfg,
		SafetyCar:       n.SCWindow,
		SCPitLossFactor: n.SCPitLossFactor,
		Seed:            seed,
	}
}
