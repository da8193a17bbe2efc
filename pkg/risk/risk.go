// Package risk turns RawMetrics into a single Local Risk Score (LRS) via a
// fixed set of monotone, clipped transforms. The transforms exist so that
// one pathological dimension (say, FO=400 from a dispatch table) cannot
// alone dominate the score the way an unclipped sum would let it.
package risk

import (
	"math"

	"github.com/Stephen-Collins-tech/hotspots/internal/config"
	"github.com/Stephen-Collins-tech/hotspots/pkg/metrics"
)

// Components holds the per-dimension risk transforms that feed into LRS.
type Components struct {
	RCC float64
	RND float64
	RFO float64
	RNS float64
}

// Band classifies an LRS value into a fixed severity bucket.
type Band int

const (
	BandLow Band = iota
	BandModerate
	BandHigh
	BandCritical
)

func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandModerate:
		return "moderate"
	case BandHigh:
		return "high"
	case BandCritical:
		return "critical"
	}

	return "unknown"
}

// DefaultWeights are the LRS weights used when a caller passes a nil
// *config.Weights: 1.0/0.8/0.6/0.7 for CC/ND/FO/NS.
func DefaultWeights() config.Weights {
	return config.Weights{CC: 1.0, ND: 0.8, FO: 0.6, NS: 0.7}
}

// DefaultThresholds are the LRS band cutpoints used when a caller passes
// a nil *config.Thresholds: moderate=3, high=6, critical=9.
func DefaultThresholds() config.Thresholds {
	return config.Thresholds{Moderate: 3.0, High: 6.0, Critical: 9.0}
}

// ComputeComponents applies the fixed per-dimension clips:
//
//	R_cc = min(log2(CC + 1), 6)
//	R_nd = min(ND, 8)
//	R_fo = min(log2(FO + 1), 6)
//	R_ns = min(NS, 6)
//
// The clip ceilings themselves are not config-tunable — only the
// weights LRS applies to the clipped components are, per spec.
func ComputeComponents(m metrics.RawMetrics) Components {
	return Components{
		RCC: math.Min(math.Log2(float64(m.CC)+1.0), 6.0),
		RND: math.Min(float64(m.ND), 8.0),
		RFO: math.Min(math.Log2(float64(m.FO)+1.0), 6.0),
		RNS: math.Min(float64(m.NS), 6.0),
	}
}

// LRS computes the Local Risk Score from already-transformed components
// using w's per-dimension weights. A nil w falls back to DefaultWeights
// (1.0/0.8/0.6/0.7):
//
//	LRS = w.CC*R_cc + w.ND*R_nd + w.FO*R_fo + w.NS*R_ns
func LRS(c Components, w *config.Weights) float64 {
	weights := DefaultWeights()
	if w != nil {
		weights = *w
	}

	return weights.CC*c.RCC + weights.ND*c.RND + weights.FO*c.RFO + weights.NS*c.RNS
}

// AssignBand maps an LRS value to its severity band using th's cutpoints.
// A nil th falls back to DefaultThresholds (3/6/9).
func AssignBand(lrs float64, th *config.Thresholds) Band {
	thresholds := DefaultThresholds()
	if th != nil {
		thresholds = *th
	}

	switch {
	case lrs < thresholds.Moderate:
		return BandLow
	case lrs < thresholds.High:
		return BandModerate
	case lrs < thresholds.Critical:
		return BandHigh
	default:
		return BandCritical
	}
}

// Result bundles the full risk analysis for one function.
type Result struct {
	Components Components
	LRS        float64
	Band       Band
}

// Analyze runs the full metrics-to-band pipeline for one function,
// threading w/th through to LRS/AssignBand. Either may be nil to fall
// back to the fixed defaults.
func Analyze(m metrics.RawMetrics, w *config.Weights, th *config.Thresholds) Result {
	c := ComputeComponents(m)
	lrs := LRS(c, w)

	return Result{Components: c, LRS: lrs, Band: AssignBand(lrs, th)}
}
