package matcher_test

import (
	"testing"

	"github.com/pipeintel/ilialign/core"
	"github.com/pipeintel/ilialign/ensemble"
	"github.com/pipeintel/ilialign/matcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func depth(f *core.Feature, v float64) *core.Feature {
	f.DepthIn = &v
	return f
}

func TestMatch_SinglePairAutoMatched(t *testing.T) {
	older := &core.Feature{ID: "o1", CanonicalType: core.EventMetalLoss, LogDistanceFt: 50}
	newer := &core.Feature{ID: "n1", CanonicalType: core.EventMetalLoss, LogDistanceFt: 50.5}
	depth(older, 0.1)
	depth(newer, 0.12)

	in := matcher.Input{
		JobID:         "job1",
		OlderRunID:    "run-2015",
		NewerRunID:    "run-2022",
		Anchors:       []core.AnchorPair{{OlderDistance: 0, NewerDistance: 0}, {OlderDistance: 100, NewerDistance: 100}},
		OlderFeatures: []*core.Feature{older},
		NewerFeatures: []*core.Feature{newer},
		YearsBetween:  7,
		Weights:       ensemble.DefaultWeights(),
	}

	res := matcher.Match(in)
	require.Len(t, res.Pairs, 1)
	p := res.Pairs[0]
	assert.Equal(t, "o1", p.OlderFeatureID)
	assert.Equal(t, "n1", p.NewerFeatureID)
	assert.Equal(t, core.MatchAutoMatched, p.MatchCategory)
	assert.InDelta(t, 0.5, p.DistanceResidualFt, 1e-9)
	assert.Empty(t, res.Exceptions)
}

func TestMatch_UnmatchedEmitsExceptions(t *testing.T) {
	older := &core.Feature{ID: "o1", CanonicalType: core.EventDent, LogDistanceFt: 10}
	newer := &core.Feature{ID: "n1", CanonicalType: core.EventMetalLoss, LogDistanceFt: 900}

	in := matcher.Input{
		JobID:         "job1",
		Anchors:       []core.AnchorPair{{OlderDistance: 0, NewerDistance: 0}},
		OlderFeatures: []*core.Feature{older},
		NewerFeatures: []*core.Feature{newer},
		YearsBetween:  5,
		Weights:       ensemble.DefaultWeights(),
	}

	res := matcher.Match(in)
	assert.Empty(t, res.Pairs)
	require.Len(t, res.Exceptions, 2)
	var sawOlder, sawNewer bool
	for _, e := range res.Exceptions {
		assert.Equal(t, core.ExcUnmatched, e.Category)
		if e.FeatureID == "o1" {
			sawOlder = true
			assert.Equal(t, core.SeverityMedium, e.Severity)
		}
		if e.FeatureID == "n1" {
			sawNewer = true
			assert.Equal(t, core.SeverityLow, e.Severity)
		}
	}
	assert.True(t, sawOlder)
	assert.True(t, sawNewer)
}

func TestMatch_AmbiguousWhenTopTwoClose(t *testing.T) {
	older1 := &core.Feature{ID: "o1", CanonicalType: core.EventMetalLoss, LogDistanceFt: 50}
	older2 := &core.Feature{ID: "o2", CanonicalType: core.EventMetalLoss, LogDistanceFt: 52}
	newer := &core.Feature{ID: "n1", CanonicalType: core.EventMetalLoss, LogDistanceFt: 51}

	in := matcher.Input{
		Anchors:       []core.AnchorPair{{OlderDistance: 0, NewerDistance: 0}, {OlderDistance: 100, NewerDistance: 100}},
		OlderFeatures: []*core.Feature{older1, older2},
		NewerFeatures: []*core.Feature{newer},
		YearsBetween:  5,
		Weights:       ensemble.DefaultWeights(),
	}

	res := matcher.Match(in)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, core.MatchAmbiguous, res.Pairs[0].MatchCategory)
}
