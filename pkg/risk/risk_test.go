package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Stephen-Collins-tech/hotspots/internal/config"
	"github.com/Stephen-Collins-tech/hotspots/pkg/metrics"
)

func TestAnalyze_ZeroMetricsIsLowBand(t *testing.T) {
	t.Parallel()

	r := Analyze(metrics.RawMetrics{CC: 1, ND: 0, FO: 0, NS: 0}, nil, nil)

	assert.Equal(t, BandLow, r.Band)
	assert.Less(t, r.LRS, 3.0)
}

func TestAnalyze_ComponentsAreClipped(t *testing.T) {
	t.Parallel()

	r := Analyze(metrics.RawMetrics{CC: 100000, ND: 100, FO: 100000, NS: 100}, nil, nil)

	assert.Equal(t, 6.0, r.Components.RCC)
	assert.Equal(t, 8.0, r.Components.RND)
	assert.Equal(t, 6.0, r.Components.RFO)
	assert.Equal(t, 6.0, r.Components.RNS)
	assert.Equal(t, BandCritical, r.Band)
}

func TestAssignBand_Boundaries(t *testing.T) {
	t.Parallel()

	assert.Equal(t, BandLow, AssignBand(2.99, nil))
	assert.Equal(t, BandModerate, AssignBand(3.0, nil))
	assert.Equal(t, BandModerate, AssignBand(5.99, nil))
	assert.Equal(t, BandHigh, AssignBand(6.0, nil))
	assert.Equal(t, BandHigh, AssignBand(8.99, nil))
	assert.Equal(t, BandCritical, AssignBand(9.0, nil))
}

func TestAssignBand_UsesConfiguredCutpoints(t *testing.T) {
	t.Parallel()

	th := &config.Thresholds{Moderate: 1.0, High: 2.0, Critical: 3.0}

	assert.Equal(t, BandLow, AssignBand(0.9, th))
	assert.Equal(t, BandModerate, AssignBand(1.0, th))
	assert.Equal(t, BandHigh, AssignBand(2.0, th))
	assert.Equal(t, BandCritical, AssignBand(3.0, th))
}

func TestLRS_WeightedSum(t *testing.T) {
	t.Parallel()

	c := Components{RCC: 1, RND: 1, RFO: 1, RNS: 1}
	assert.InDelta(t, 3.1, LRS(c, nil), 1e-9)
}

func TestLRS_UsesConfiguredWeights(t *testing.T) {
	t.Parallel()

	c := Components{RCC: 1, RND: 1, RFO: 1, RNS: 1}
	w := &config.Weights{CC: 2.0, ND: 0, FO: 0, NS: 0}

	assert.InDelta(t, 2.0, LRS(c, w), 1e-9)
}

func TestAnalyze_ThreadsConfigIntoLRSAndBand(t *testing.T) {
	t.Parallel()

	w := &config.Weights{CC: 0, ND: 0, FO: 0, NS: 1.0}
	th := &config.Thresholds{Moderate: 0.5, High: 2.0, Critical: 4.0}

	r := Analyze(metrics.RawMetrics{CC: 50, ND: 0, FO: 0, NS: 1}, w, th)

	assert.InDelta(t, 1.0, r.LRS, 1e-9)
	assert.Equal(t, BandModerate, r.Band)
}
