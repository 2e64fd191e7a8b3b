package visibility_test

import (
	"testing"

	"github.com/pipeintel/ilialign/core"
	"github.com/pipeintel/ilialign/visibility"
	"github.com/stretchr/testify/assert"
)

func TestScore_BaselineRunAlwaysFull(t *testing.T) {
	f := &core.Feature{ID: "b1", RunID: "run-base", CanonicalType: core.EventMetalLoss}
	res := visibility.Score(visibility.Input{Features: []*core.Feature{f}, BaselineRunID: "run-base"})
	out := res.ByFeatureID["b1"]
	assert.Equal(t, visibility.StateFull, out.State)
	assert.Equal(t, 100.0, out.Score)
	assert.True(t, out.Bypassed)
}

func TestScore_ControlPointAlwaysFull(t *testing.T) {
	f := &core.Feature{ID: "w1", RunID: "run-2015", CanonicalType: core.EventGirthWeld}
	res := visibility.Score(visibility.Input{Features: []*core.Feature{f}, BaselineRunID: "run-base"})
	assert.Equal(t, visibility.StateFull, res.ByFeatureID["w1"].State)
}

func TestScore_StrongMatchWithFullDataIsFull(t *testing.T) {
	depth, din, lin, win, clk := 40.0, 0.1, 2.0, 1.0, 3.0
	f1 := &core.Feature{
		ID: "f1", RunID: "run-2015", CanonicalType: core.EventMetalLoss,
		DepthPercent: &depth, DepthIn: &din, LengthIn: &lin, WidthIn: &win, ClockDecimal: &clk,
		LogDistanceFt: 100,
	}
	partner := &core.Feature{ID: "p1", RunID: "run-2022", CanonicalType: core.EventMetalLoss, LogDistanceFt: 100}
	neighbor := &core.Feature{ID: "n1", RunID: "run-2015", CanonicalType: core.EventMetalLoss, LogDistanceFt: 102}

	in := visibility.Input{
		Features:      []*core.Feature{f1, partner, neighbor},
		BaselineRunID: "run-base",
		MatchScores:   map[string]float64{"f1": 90},
		PartnerMap:    map[string][]string{"f1": {"p1"}, "p1": {"f1"}},
		TotalRuns:     2,
	}
	res := visibility.Score(in)
	out := res.ByFeatureID["f1"]
	assert.Equal(t, visibility.StateFull, out.State)
	assert.Equal(t, 100.0, out.Components.DataCompleteness)
	assert.Equal(t, 100.0, out.Components.TemporalPersistence)
}

func TestScore_NeighborhoodExcessForcesHidden(t *testing.T) {
	f := &core.Feature{ID: "f2", RunID: "run-2015", CanonicalType: core.EventMetalLoss}
	in := visibility.Input{
		Features:      []*core.Feature{f},
		BaselineRunID: "run-base",
		MatchScores:   map[string]float64{"f2": 100},
		TotalRuns:     3,
		Exceptions:    []core.Exception{{FeatureID: "f2", Category: core.ExcNeighborhoodExcess}},
	}
	res := visibility.Score(in)
	assert.Equal(t, visibility.StateHidden, res.ByFeatureID["f2"].State)
}

func TestScore_Run3UnsupportedDimsAFullFeature(t *testing.T) {
	depth, din, lin, win, clk := 40.0, 0.1, 2.0, 1.0, 3.0
	f3 := &core.Feature{
		ID: "f3", RunID: "run-2015", CanonicalType: core.EventMetalLoss,
		DepthPercent: &depth, DepthIn: &din, LengthIn: &lin, WidthIn: &win, ClockDecimal: &clk,
		LogDistanceFt: 100,
	}
	partner := &core.Feature{ID: "p3", RunID: "run-2022", CanonicalType: core.EventMetalLoss, LogDistanceFt: 100}
	neighbor := &core.Feature{ID: "n3", RunID: "run-2015", CanonicalType: core.EventMetalLoss, LogDistanceFt: 102}

	in := visibility.Input{
		Features:      []*core.Feature{f3, partner, neighbor},
		BaselineRunID: "run-base",
		MatchScores:   map[string]float64{"f3": 100},
		PartnerMap:    map[string][]string{"f3": {"p3"}, "p3": {"f3"}},
		TotalRuns:     2,
		Exceptions:    []core.Exception{{FeatureID: "f3", Category: core.ExcRun3Unsupported}},
	}
	res := visibility.Score(in)
	assert.Equal(t, visibility.StateDimmed, res.ByFeatureID["f3"].State)
}

func TestScore_UnmatchedLowDataIsHidden(t *testing.T) {
	f := &core.Feature{ID: "f4", RunID: "run-2015", CanonicalType: core.EventMetalLoss, LogDistanceFt: 9999}
	res := visibility.Score(visibility.Input{Features: []*core.Feature{f}, BaselineRunID: "run-base", TotalRuns: 3})
	assert.Equal(t, visibility.StateHidden, res.ByFeatureID["f4"].State)
}
