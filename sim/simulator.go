package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrInvalidInput is returned when a request cannot be simulated at all,
// most notably when no lap exists at or after the base lap.
var ErrInvalidInput = errors.New("invalid input")

// Strategy is one candidate scenario: stop on PitLap and fit Compound.
type Strategy struct {
	PitLap   int      `json:"pit_lap" yaml:"pit_lap"`
	Compound Compound `json:"compound" yaml:"compound"`
}

// Request bundles every input of a simulation call.
type Request struct {
	Laps           *LapTable
	CurrentTire    TireState
	BaseTargetGapS float64 // positive = ahead of the target
	BaseLap        int
	Candidates     []Strategy
	Config         SimulationConfig
	SafetyCar      *SafetyCarWindow // optional
	// SCPitLossFactor multiplies the pit loss of stops inside SafetyCar.
	// Zero means DefaultSCPitLossFactor.
	SCPitLossFactor float64
	Seed            int64
}

// Assumptions echoes the model parameters a candidate was evaluated with.
type Assumptions struct {
	PitLossMeanS    float64  `json:"pit_loss_mean"`
	PitLossStdS     float64  `json:"pit_loss_std"`
	DegSoft         string   `json:"deg_soft"`
	DegMedium       string   `json:"deg_medium"`
	DegHard         string   `json:"deg_hard"`
	NoiseStdS       float64  `json:"noise_std_per_lap_s"`
	MCSamples       int      `json:"mc_samples"`
	TargetCompound  Compound `json:"target_compound"`
	TargetAgeOffset int      `json:"target_age_offset"`
	SCActive        bool     `json:"sc_active"`
	SCPitLossFactor *float64 `json:"sc_pit_loss_factor"`
	Seed            int64    `json:"seed"`
}

// PitLossStats summarizes the pit-loss values actually applied across trials.
type PitLossStats struct {
	MeanS   float64 `json:"mean_s"`
	StdS    float64 `json:"std_s"`
	Samples int     `json:"samples"`
}

// CandidateResult holds the projected gap bands and decision metrics of one candidate.
type CandidateResult struct {
	Candidate           Strategy     `json:"candidate"`
	P50ByLap            []float64    `json:"p50_by_lap"`
	P90ByLap            []float64    `json:"p90_by_lap"`
	P10ByLap            []float64    `json:"p10_by_lap"`
	MedianGapAfter5Laps float64      `json:"median_gap_after_5_laps"`
	PitIndex            *int         `json:"pit_index"`
	BreakevenLap        *int         `json:"breakeven_lap"`
	Assumptions         Assumptions  `json:"assumptions"`
	Warnings            []string     `json:"warnings,omitempty"`
	PitLoss             PitLossStats `json:"pit_loss_sampled"`
}

// SimulationResult lists candidate results in input order.
type SimulationResult struct {
	BaseLap        int               `json:"base_lap"`
	BaseTargetGapS float64           `json:"base_target_gap_s"`
	Candidates     []CandidateResult `json:"candidates"`
}

type options struct {
	parallelism int
	log         logrus.FieldLogger
}

// Option tunes how Simulate executes. Options never change results.
type Option func(*options)

// WithParallelism evaluates up to n candidates concurrently.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Simulate runs the Monte Carlo pit-strategy simulation for every candidate.
// It is deterministic given req.Seed. Either all candidates are computed or
// an error is returned.
func Simulate(req Request, opts ...Option) (*SimulationResult, error) {
	o := options{parallelism: 1, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	window := req.Laps.Window(req.BaseLap)
	if len(window) == 0 {
		return nil, fmt.Errorf("%w: no laps to simulate from base lap %d", ErrInvalidInput, req.BaseLap)
	}

	run := newStrategyRun(req, window)
	partitioned := NewPartitionedRNG(NewSimulationKey(req.Seed))
	results := make([]CandidateResult, len(req.Candidates))

	g := new(errgroup.Group)
	g.SetLimit(o.parallelism)
	for i, cand := range req.Candidates {
		stream := partitioned.ForSubsystem(SubsystemCandidate(i))
		g.Go(func() error {
			results[i] = run.evaluate(cand, stream)
			o.log.WithFields(logrus.Fields{
				"pit_lap":  cand.PitLap,
				"compound": cand.Compound,
				"gap_at_5": results[i].MedianGapAfter5Laps,
			}).Debug("candidate simulated")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &SimulationResult{
		BaseLap:        req.BaseLap,
		BaseTargetGapS: req.BaseTargetGapS,
		Candidates:     results,
	}, nil
}

func (r Request) validate() error {
	if r.Laps == nil {
		return fmt.Errorf("%w: lap table is required", ErrInvalidInput)
	}
	if len(r.Candidates) == 0 {
		return fmt.Errorf("%w: at least one candidate is required", ErrInvalidInput)
	}
	if !r.CurrentTire.Compound.Valid() {
		return fmt.Errorf("%w: current tire: %w %q", ErrInvalidInput, ErrUnknownCompound, r.CurrentTire.Compound)
	}
	if r.CurrentTire.Age < 0 {
		return fmt.Errorf("%w: current tire age must be non-negative, got %d", ErrInvalidInput, r.CurrentTire.Age)
	}
	for i, c := range r.Candidates {
		if !c.Compound.Valid() {
			return fmt.Errorf("%w: candidate %d: %w %q", ErrInvalidInput, i, ErrUnknownCompound, c.Compound)
		}
	}
	if err := r.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if r.SafetyCar != nil && r.SafetyCar.StartLap > r.SafetyCar.EndLap {
		return fmt.Errorf("%w: safety car window starts at lap %d after it ends at lap %d",
			ErrInvalidInput, r.SafetyCar.StartLap, r.SafetyCar.EndLap)
	}
	if r.SCPitLossFactor < 0 || r.SCPitLossFactor > 1 {
		return fmt.Errorf("%w: sc pit loss factor must be in (0, 1], got %f", ErrInvalidInput, r.SCPitLossFactor)
	}
	return nil
}

// strategyRun holds the per-request state shared read-only by all candidates.
type strategyRun struct {
	req         Request
	window      []LapRecord
	pace        []float64
	scFactor    float64
	assumptions Assumptions
}

func newStrategyRun(req Request, window []LapRecord) *strategyRun {
	pace := make([]float64, len(window))
	for i, rec := range window {
		pace[i] = rec.BasePaceS
	}
	scFactor := req.SCPitLossFactor
	if scFactor == 0 {
		scFactor = DefaultSCPitLossFactor
	}
	cfg := req.Config
	a := Assumptions{
		PitLossMeanS:    cfg.PitLossMeanS,
		PitLossStdS:     cfg.PitLossStdS,
		DegSoft:         cfg.Degradation.Soft.String(),
		DegMedium:       cfg.Degradation.Medium.String(),
		DegHard:         cfg.Degradation.Hard.String(),
		NoiseStdS:       cfg.NoiseStdS,
		MCSamples:       cfg.MCSamples,
		TargetCompound:  cfg.Target.Compound,
		TargetAgeOffset: cfg.Target.AgeOffset,
		SCActive:        req.SafetyCar != nil,
		Seed:            req.Seed,
	}
	if req.SafetyCar != nil {
		f := scFactor
		a.SCPitLossFactor = &f
	}
	return &strategyRun{req: req, window: window, pace: pace, scFactor: scFactor, assumptions: a}
}

// pitIndex returns the window position of the stop, or -1 when the pit lap
// lies outside [first window lap, last window lap].
func (s *strategyRun) pitIndex(pitLap int) int {
	first, last := s.window[0].Lap, s.window[len(s.window)-1].Lap
	if pitLap < first || pitLap > last {
		return -1
	}
	return sort.Search(len(s.window), func(i int) bool { return s.window[i].Lap >= pitLap })
}

func (s *strategyRun) evaluate(cand Strategy, stream *rand.Rand) CandidateResult {
	cfg := s.req.Config
	laps := len(s.pace)
	pitIdx := s.pitIndex(cand.PitLap)

	current := cfg.Degradation.For(s.req.CurrentTire.Compound)
	fitted := cfg.Degradation.For(cand.Compound)
	target := cfg.Degradation.For(cfg.Target.Compound)
	targetAge := cfg.Target.StartAge(s.req.CurrentTire.Age)

	pitFactor := 1.0
	if pitIdx >= 0 && s.req.SafetyCar.Contains(cand.PitLap) {
		pitFactor = s.scFactor
	}

	own := make([]float64, laps)
	rival := make([]float64, laps)
	trials := make([][]float64, cfg.MCSamples)
	var pitLosses []float64
	if pitIdx >= 0 {
		pitLosses = make([]float64, 0, cfg.MCSamples)
	}

	for t, seed := range TrialSeeds(stream, cfg.MCSamples) {
		rng := newRandFromSeed(seed)
		pitLoss := 0.0
		if pitIdx < 0 {
			projectStint(own, s.pace, current, s.req.CurrentTire.Age, cfg.NoiseStdS, rng)
		} else {
			projectStint(own[:pitIdx], s.pace[:pitIdx], current, s.req.CurrentTire.Age, cfg.NoiseStdS, rng)
			pitLoss = (cfg.PitLossMeanS + rng.NormFloat64()*cfg.PitLossStdS) * pitFactor
			projectStint(own[pitIdx:], s.pace[pitIdx:], fitted, 0, cfg.NoiseStdS, rng)
			pitLosses = append(pitLosses, pitLoss)
		}
		projectStint(rival, s.pace, target, targetAge, cfg.NoiseStdS, rng)

		gap := make([]float64, laps)
		floats.SubTo(gap, rival, own)
		floats.CumSum(gap, gap)
		if pitIdx >= 0 {
			floats.AddConst(-pitLoss, gap[pitIdx:])
		}
		floats.AddConst(s.req.BaseTargetGapS, gap)
		trials[t] = gap
	}

	p50, p10, p90 := Bands(trials)
	res := CandidateResult{
		Candidate:   cand,
		P50ByLap:    p50,
		P90ByLap:    p90,
		P10ByLap:    p10,
		Assumptions: s.assumptions,
		Warnings:    s.warnings(cand, pitIdx),
		PitLoss:     summarizePitLoss(pitLosses),
	}

	idx := min(4, laps-1)
	if pitIdx >= 0 {
		idx = min(pitIdx+5, laps-1)
		res.PitIndex = &pitIdx
	}
	res.MedianGapAfter5Laps = p50[idx]

	if pitIdx > 0 {
		prePit := p50[pitIdx-1]
		for i := pitIdx; i < laps; i++ {
			if p50[i] >= prePit {
				lap := s.window[i].Lap
				res.BreakevenLap = &lap
				break
			}
		}
	}
	return res
}

// warnings reports advisory constraint findings for a candidate.
func (s *strategyRun) warnings(cand Strategy, pitIdx int) []string {
	var out []string
	c := s.req.Config.Constraints
	laps := len(s.window)
	oldLaps := laps
	if pitIdx < 0 {
		out = append(out, fmt.Sprintf("pit lap %d is outside the simulated laps %d-%d; evaluated without a stop",
			cand.PitLap, s.window[0].Lap, s.window[laps-1].Lap))
	} else {
		oldLaps = pitIdx
		if c.RequireTwoCompounds && cand.Compound == s.req.CurrentTire.Compound {
			out = append(out, fmt.Sprintf("stop fits %s again; a second compound is still required", cand.Compound))
		}
	}
	if c.MaxTireAge > 0 {
		if peak := s.req.CurrentTire.Age + oldLaps - 1; oldLaps > 0 && peak > c.MaxTireAge {
			out = append(out, fmt.Sprintf("current %s tires reach age %d before the stop (max %d)",
				s.req.CurrentTire.Compound, peak, c.MaxTireAge))
		}
		if newLaps := laps - oldLaps; pitIdx >= 0 && newLaps-1 > c.MaxTireAge {
			out = append(out, fmt.Sprintf("new %s tires reach age %d by the final lap (max %d)",
				cand.Compound, newLaps-1, c.MaxTireAge))
		}
	}
	return out
}

func summarizePitLoss(losses []float64) PitLossStats {
	switch len(losses) {
	case 0:
		return PitLossStats{}
	case 1:
		return PitLossStats{MeanS: losses[0], Samples: 1}
	}
	mean, std := stat.MeanStdDev(losses, nil)
	return PitLossStats{MeanS: mean, StdS: std, Samples: len(losses)}
}
