package correction_test

import (
	"testing"

	"github.com/pipeintel/ilialign/core"
	"github.com/pipeintel/ilialign/correction"
	"github.com/stretchr/testify/assert"
)

// TestBuild_PerfectAlignment reproduces the literal scenario 1 from the
// spec: two zero-drift anchors at 100/200 ft produce a single flat segment,
// and an older anomaly at 150 ft is unchanged by correction.
func TestBuild_PerfectAlignment(t *testing.T) {
	anchors := []core.AnchorPair{
		{OlderFeatureID: "o1", NewerFeatureID: "n1", OlderDistance: 100, NewerDistance: 100, SegmentIndex: 0},
		{OlderFeatureID: "o2", NewerFeatureID: "n2", OlderDistance: 200, NewerDistance: 200, SegmentIndex: 1},
	}
	features := []*core.Feature{
		{ID: "f1", LogDistanceFt: 150},
	}

	res := correction.Build(anchors, features)
	if assert.Len(t, res.Segments, 1) {
		s := res.Segments[0]
		assert.Equal(t, 100.0, s.X0)
		assert.Equal(t, 200.0, s.X1)
		assert.Equal(t, 0.0, s.Offset0)
		assert.Equal(t, 0.0, s.Offset1)
		assert.Equal(t, 0.0, s.Slope)
	}
	assert.InDelta(t, 150.0, res.Corrected["f1"], 1e-9)
}

func TestBuild_DriftingOffsetInterpolates(t *testing.T) {
	anchors := []core.AnchorPair{
		{OlderFeatureID: "o1", NewerFeatureID: "n1", OlderDistance: 0, NewerDistance: 0},
		{OlderFeatureID: "o2", NewerFeatureID: "n2", OlderDistance: 100, NewerDistance: 110},
	}
	features := []*core.Feature{
		{ID: "mid", LogDistanceFt: 50},
		{ID: "before", LogDistanceFt: -10},
		{ID: "after", LogDistanceFt: 150},
	}

	res := correction.Build(anchors, features)
	assert.InDelta(t, 55.0, res.Corrected["mid"], 1e-9) // halfway: +5 ft offset
	assert.InDelta(t, -10.0, res.Corrected["before"], 1e-9)
	assert.InDelta(t, 160.0, res.Corrected["after"], 1e-9) // flat extrapolation at +10 ft
}

func TestBuild_ResetSeversInterpolation(t *testing.T) {
	anchors := []core.AnchorPair{
		{OlderFeatureID: "o1", NewerFeatureID: "n1", OlderDistance: 0, NewerDistance: 0},
		{OlderFeatureID: "o2", NewerFeatureID: "n2", OlderDistance: 40, NewerDistance: 40},
		{OlderFeatureID: "o4", NewerFeatureID: "n4", OlderDistance: 120, NewerDistance: 80, IsReset: true},
	}

	segs := correction.BuildSegments(anchors)
	// The reset anchor starts a fresh block; with nothing after it, no
	// segment spans across the reset boundary.
	assert.Len(t, segs, 1)
	assert.Equal(t, 0.0, segs[0].X0)
	assert.Equal(t, 40.0, segs[0].X1)
}

func TestBuild_NoAnchorsPassesThrough(t *testing.T) {
	features := []*core.Feature{{ID: "f1", LogDistanceFt: 77}}
	res := correction.Build(nil, features)
	assert.Empty(t, res.Segments)
	assert.InDelta(t, 77.0, res.Corrected["f1"], 1e-9)
}
