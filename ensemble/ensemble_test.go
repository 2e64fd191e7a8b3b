package ensemble_test

import (
	"testing"

	"github.com/pipeintel/ilialign/ensemble"
	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }
func iptr(i int) *int        { return &i }

func TestCompute_BadWeights(t *testing.T) {
	_, err := ensemble.Compute(ensemble.Candidate{}, ensemble.Weights{})
	assert.ErrorIs(t, err, ensemble.ErrBadWeights)
}

// TestCompute_MissingClockRedistributes reproduces the literal scenario 5
// from the spec.
func TestCompute_MissingClockRedistributes(t *testing.T) {
	depth := 5.0
	c := ensemble.Candidate{
		DistanceResidualFt: 0.5,
		OlderType:          "METAL_LOSS",
		NewerType:          "METAL_LOSS",
		OlderDepthIn:       ptr(depth),
		NewerDepthIn:       ptr(depth),
	}
	score, err := ensemble.Compute(c, ensemble.DefaultWeights())
	assert.NoError(t, err)
	assert.False(t, score.Components.ClockAvailable)
	assert.InDelta(t, 77.9, score.Total, 1.0)
	assert.Equal(t, "HIGH", score.Category)
	assert.NotEmpty(t, score.Explanation)
}

func TestCompute_IdenticalPairPerfectScore(t *testing.T) {
	clk := 6.0
	depth := 10.0
	c := ensemble.Candidate{
		DistanceResidualFt: 0,
		OlderClockHr:       ptr(clk),
		NewerClockHr:       ptr(clk),
		OlderType:          "DENT",
		NewerType:          "DENT",
		OlderDepthIn:       ptr(depth),
		NewerDepthIn:       ptr(depth),
		DTWConfidence:      ptr(100),
		ICPRMSEFt:          ptr(0),
		TemporalMatchCount: iptr(2),
		TemporalTotalRuns:  iptr(2),
	}
	score, err := ensemble.Compute(c, ensemble.DefaultWeights())
	assert.NoError(t, err)
	assert.InDelta(t, 100, score.Total, 0.5)
	assert.Equal(t, "HIGH", score.Category)
}

func TestCompute_TypeCompatibleGroup(t *testing.T) {
	c := ensemble.Candidate{OlderType: "METAL_LOSS", NewerType: "CLUSTER"}
	score, err := ensemble.Compute(c, ensemble.DefaultWeights())
	assert.NoError(t, err)
	assert.InDelta(t, 0.7, score.Components.Type, 1e-9)
}

func TestCompute_TypeIncompatible(t *testing.T) {
	c := ensemble.Candidate{OlderType: "DENT", NewerType: "METAL_LOSS"}
	score, err := ensemble.Compute(c, ensemble.DefaultWeights())
	assert.NoError(t, err)
	assert.Equal(t, 0.0, score.Components.Type)
}

func TestCompute_UnavailableSignalsDefaultToHalf(t *testing.T) {
	c := ensemble.Candidate{DistanceResidualFt: 0, OlderType: "X", NewerType: "X"}
	score, err := ensemble.Compute(c, ensemble.DefaultWeights())
	assert.NoError(t, err)
	assert.Equal(t, 0.5, score.Components.Dimensional)
	assert.Equal(t, 0.5, score.Components.DTW)
	assert.Equal(t, 0.5, score.Components.ICP)
	assert.Equal(t, 0.5, score.Components.Temporal)
}
