package visibility

import (
	"math"

	"github.com/pipeintel/ilialign/core"
)

// Score computes each feature's visibility outcome.
func Score(in Input) Result {
	full := in.FullThreshold
	if full <= 0 {
		full = DefaultFullThreshold
	}
	dimmed := in.DimmedThreshold
	if dimmed <= 0 {
		dimmed = DefaultDimmedThreshold
	}
	weights := in.Weights
	if weights == (Weights{}) {
		weights = DefaultWeights
	}

	byID := make(map[string]*core.Feature, len(in.Features))
	for _, f := range in.Features {
		byID[f.ID] = f
	}

	exceptionsByFeature := map[string]map[core.ExceptionCategory]bool{}
	for _, e := range in.Exceptions {
		if exceptionsByFeature[e.FeatureID] == nil {
			exceptionsByFeature[e.FeatureID] = map[core.ExceptionCategory]bool{}
		}
		exceptionsByFeature[e.FeatureID][e.Category] = true
	}

	runsByComponent := componentRunCounts(in.Features, byID, in.PartnerMap)
	neighborCounts := spatialNeighborCounts(in.Features)

	out := Result{ByFeatureID: make(map[string]FeatureVisibility, len(in.Features))}
	for _, f := range in.Features {
		if core.IsReferenceType(f.CanonicalType) || f.RunID == in.BaselineRunID {
			out.ByFeatureID[f.ID] = FeatureVisibility{FeatureID: f.ID, Score: 100, State: StateFull, Bypassed: true}
			continue
		}

		comp := Components{
			MatchConfidence:      matchConfidence(f.ID, in.MatchScores),
			TemporalPersistence:  temporalPersistence(f.ID, runsByComponent, in.TotalRuns),
			SpatialReinforcement: spatialReinforcement(neighborCounts[f.ID]),
			DataCompleteness:     dataCompleteness(f),
		}

		score := comp.MatchConfidence*weights.MatchConfidence +
			comp.TemporalPersistence*weights.TemporalPersistence +
			comp.SpatialReinforcement*weights.SpatialReinforcement +
			comp.DataCompleteness*weights.DataCompleteness

		state := stateFor(score, full, dimmed)

		exc := exceptionsByFeature[f.ID]
		if exc[core.ExcNeighborhoodExcess] {
			state = StateHidden
		} else if exc[core.ExcRun3Unsupported] && state == StateFull {
			state = StateDimmed
		}

		out.ByFeatureID[f.ID] = FeatureVisibility{FeatureID: f.ID, Score: score, State: state, Components: comp}
	}
	return out
}

func stateFor(score float64, full, dimmed int) State {
	switch {
	case score >= float64(full):
		return StateFull
	case score >= float64(dimmed):
		return StateDimmed
	default:
		return StateHidden
	}
}

func matchConfidence(featureID string, scores map[string]float64) float64 {
	if s, ok := scores[featureID]; ok {
		return s
	}
	return 0
}

// componentRunCounts groups features into connected components of the
// symmetric partner map (a BFS walk, grounded on the example pack's BFS
// visited-set/queue idiom) and returns, per feature, the distinct run
// count of its component.
func componentRunCounts(features []*core.Feature, byID map[string]*core.Feature, partnerMap map[string][]string) map[string]int {
	visited := map[string]bool{}
	result := map[string]int{}

	for _, f := range features {
		if visited[f.ID] {
			continue
		}
		queue := []string{f.ID}
		visited[f.ID] = true
		var componentIDs []string
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			componentIDs = append(componentIDs, id)
			for _, partner := range partnerMap[id] {
				if !visited[partner] {
					visited[partner] = true
					queue = append(queue, partner)
				}
			}
		}

		runs := map[string]bool{}
		for _, id := range componentIDs {
			if feat, ok := byID[id]; ok {
				runs[feat.RunID] = true
			}
		}
		for _, id := range componentIDs {
			result[id] = len(runs)
		}
	}
	return result
}

func temporalPersistence(featureID string, runsByComponent map[string]int, totalRuns int) float64 {
	runs := runsByComponent[featureID]
	if runs < 2 || totalRuns <= 0 {
		return 0
	}
	return 50 + 50*float64(runs)/float64(totalRuns)
}

// spatialNeighborCounts counts, per feature, how many other features in
// the same run fall within spatialNeighborRadiusFt.
func spatialNeighborCounts(features []*core.Feature) map[string]int {
	byRun := map[string][]*core.Feature{}
	for _, f := range features {
		byRun[f.RunID] = append(byRun[f.RunID], f)
	}
	counts := make(map[string]int, len(features))
	for _, feats := range byRun {
		for i := range feats {
			n := 0
			for j := range feats {
				if i == j {
					continue
				}
				if math.Abs(feats[i].EffectiveDistanceFt()-feats[j].EffectiveDistanceFt()) <= spatialNeighborRadiusFt {
					n++
				}
			}
			counts[feats[i].ID] = n
		}
	}
	return counts
}

func spatialReinforcement(neighbors int) float64 {
	if neighbors == 0 {
		return 0
	}
	return math.Min(100, 20+20*float64(neighbors))
}

func dataCompleteness(f *core.Feature) float64 {
	populated := 0
	if f.DepthPercent != nil {
		populated++
	}
	if f.DepthIn != nil {
		populated++
	}
	if f.LengthIn != nil {
		populated++
	}
	if f.WidthIn != nil {
		populated++
	}
	if f.ClockDecimal != nil {
		populated++
	}
	return 100 * float64(populated) / 5
}
