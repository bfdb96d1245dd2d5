package sim

import (
	"fmt"
	"math"
	"slices"
)

// BurstCandidate is the best candidate of a burst run with its final-lap band.
type BurstCandidate struct {
	PitLap              int      `json:"pit_lap"`
	Compound            Compound `json:"compound"`
	MedianGapAfter5Laps float64  `json:"median_gap_after_5_laps"`
	P10                 float64  `json:"p10"`
	P90                 float64  `json:"p90"`
}

// BurstSummary condenses a high-sample simulation into a recommendation.
type BurstSummary struct {
	MCSamples       int            `json:"mc_samples"`
	Best            BurstCandidate `json:"best_candidate"`
	Confidence      float64        `json:"confidence"`       // percent, within [75, 98]
	ConfidenceRange float64        `json:"confidence_range"` // |p90 - p10| on the last lap
	Ranking         []Strategy     `json:"ranking"`
}

// RankCandidates returns the candidates ordered by median gap after five laps,
// best first. Ties keep input order.
func RankCandidates(res *SimulationResult) []CandidateResult {
	ranked := slices.Clone(res.Candidates)
	slices.SortStableFunc(ranked, func(a, b CandidateResult) int {
		switch {
		case a.MedianGapAfter5Laps > b.MedianGapAfter5Laps:
			return -1
		case a.MedianGapAfter5Laps < b.MedianGapAfter5Laps:
			return 1
		}
		return 0
	})
	return ranked
}

// Confidence maps the last-lap spread between the 10th and 90th percentile to
// a confidence score: tighter bands give higher confidence.
func Confidence(c CandidateResult) (confidence, spread float64) {
	var p10, p90 float64
	if n := len(c.P90ByLap); n > 0 {
		p90 = c.P90ByLap[n-1]
	}
	if n := len(c.P10ByLap); n > 0 {
		p10 = c.P10ByLap[n-1]
	}
	spread = math.Abs(p90 - p10)
	confidence = math.Max(75, math.Min(98, 98-spread*2.5))
	return confidence, spread
}

// Burst runs req with BurstMCSamples trials and summarizes the best candidate.
func Burst(req Request, opts ...Option) (*BurstSummary, error) {
	req.Config.MCSamples = BurstMCSamples
	res, err := Simulate(req, opts...)
	if err != nil {
		return nil, fmt.Errorf("burst simulation: %w", err)
	}
	ranked := RankCandidates(res)
	best := ranked[0]
	confidence, spread := Confidence(best)

	summary := &BurstSummary{
		MCSamples: BurstMCSamples,
		Best: BurstCandidate{
			PitLap:              best.Candidate.PitLap,
			Compound:            best.Candidate.Compound,
			MedianGapAfter5Laps: best.MedianGapAfter5Laps,
			P10:                 best.P10ByLap[len(best.P10ByLap)-1],
			P90:                 best.P90ByLap[len(best.P90ByLap)-1],
		},
		Confidence:      roundTo(confidence, 1),
		ConfidenceRange: roundTo(spread, 3),
	}
	for _, c := range ranked {
		summary.Ranking = append(summary.Ranking, c.Candidate)
	}
	return summary, nil
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
