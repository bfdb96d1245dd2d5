package sim

import "math/rand"

// projectStint fills dst with projected lap times for one stint: baseline pace
// of the same lap, plus wear for the tire age at that lap, plus Gaussian noise.
// pace must be at least as long as dst.
func projectStint(dst, pace []float64, deg Degradation, startAge int, noiseStd float64, rng *rand.Rand) {
	for k := range dst {
		dst[k] = pace[k] + deg.Penalty(startAge+k) + rng.NormFloat64()*noiseStd
	}
}

// SafetyCarWindow is an inclusive lap range in which pit stops lose less time.
type SafetyCarWindow struct {
	StartLap int `json:"start_lap" yaml:"start_lap"`
	EndLap   int `json:"end_lap" yaml:"end_lap"`
}

// Contains reports whether lap falls inside the window. A nil window contains nothing.
func (w *SafetyCarWindow) Contains(lap int) bool {
	if w == nil {
		return false
	}
	return w.StartLap <= lap && lap <= w.EndLap
}
