package run3

import (
	"math"

	"github.com/pipeintel/ilialign/core"
)

// Refine runs the four refinement steps in order over one job's
// baseline-run anomalies: neighborhood-duplicate suppression, dense-cluster
// flagging, completeness classification, then a multi-run match audit.
func Refine(in Input) Result {
	radius := in.NeighborhoodRadiusFt
	if radius <= 0 {
		radius = DefaultNeighborhoodRadiusFt
	}
	clusterThresh := in.ClusterThreshold
	if clusterThresh <= 0 {
		clusterThresh = DefaultClusterThreshold
	}
	minDims := in.MinDimensionalFields
	if minDims <= 0 {
		minDims = DefaultMinDimensionalFields
	}

	matchCountByFeature := map[string]int{}
	for _, p := range in.Pairs {
		matchCountByFeature[p.NewerFeatureID]++
	}
	isMatched := func(f *core.Feature) bool { return matchCountByFeature[f.ID] > 0 }

	flagged := map[string]bool{}
	var newExceptions []core.Exception

	// Step 1: neighborhood duplicate.
	for _, u := range in.BaselineFeatures {
		if isMatched(u) || flagged[u.ID] {
			continue
		}
		for _, m := range in.BaselineFeatures {
			if !isMatched(m) || m.CanonicalType != u.CanonicalType {
				continue
			}
			if math.Abs(u.EffectiveDistanceFt()-m.EffectiveDistanceFt()) <= radius {
				flagged[u.ID] = true
				newExceptions = append(newExceptions, core.Exception{
					FeatureID: u.ID,
					Category:  core.ExcNeighborhoodExcess,
					Severity:  core.SeverityLow,
					Details: map[string]interface{}{
						"classification":  "NEIGHBORHOOD_DUPLICATE",
						"near_feature_id": m.ID,
					},
				})
				break
			}
		}
	}

	// Step 2: dense cluster, among features step 1 left unflagged.
	for _, u := range in.BaselineFeatures {
		if isMatched(u) || flagged[u.ID] {
			continue
		}
		var unmatchedNeighbors, matchedNeighbors int
		for _, other := range in.BaselineFeatures {
			if other.ID == u.ID || math.Abs(other.EffectiveDistanceFt()-u.EffectiveDistanceFt()) > radius {
				continue
			}
			if isMatched(other) {
				matchedNeighbors++
			} else {
				unmatchedNeighbors++
			}
		}
		if unmatchedNeighbors >= clusterThresh && matchedNeighbors <= 1 {
			flagged[u.ID] = true
			newExceptions = append(newExceptions, core.Exception{
				FeatureID: u.ID,
				Category:  core.ExcNeighborhoodExcess,
				Severity:  core.SeverityMedium,
				Details: map[string]interface{}{
					"classification":      "DENSE_CLUSTER",
					"unmatched_neighbors": unmatchedNeighbors,
					"matched_neighbors":   matchedNeighbors,
				},
			})
		}
	}

	// Step 3: classification of whatever is still unflagged.
	for _, u := range in.BaselineFeatures {
		if isMatched(u) || flagged[u.ID] {
			continue
		}
		if dims := populatedDims(u); dims < minDims {
			flagged[u.ID] = true
			newExceptions = append(newExceptions, core.Exception{
				FeatureID: u.ID,
				Category:  core.ExcRun3Unsupported,
				Severity:  core.SeverityLow,
				Details:   map[string]interface{}{"populated_dimensional_fields": dims},
			})
		}
		// Otherwise it's a true-new anomaly; its original UNMATCHED
		// exception (already in in.Exceptions) stands as-is.
	}

	// Step 4: multi-run audit.
	pairs := append([]core.MatchedPair(nil), in.Pairs...)
	pairsByFeature := map[string][]int{}
	for i, p := range pairs {
		pairsByFeature[p.NewerFeatureID] = append(pairsByFeature[p.NewerFeatureID], i)
	}
	rank := make(map[string]int, len(in.OlderRunOrder))
	for i, id := range in.OlderRunOrder {
		rank[id] = i
	}

	for featureID, idxs := range pairsByFeature {
		if len(idxs) == 1 {
			pairs[idxs[0]].IsPrimaryMatch = true
			continue
		}
		primary := idxs[0]
		for _, idx := range idxs[1:] {
			if rank[pairs[idx].OlderRunID] > rank[pairs[primary].OlderRunID] {
				primary = idx
			}
		}
		for _, idx := range idxs {
			pairs[idx].IsPrimaryMatch = idx == primary
		}
		newExceptions = append(newExceptions, core.Exception{
			FeatureID: featureID,
			Category:  core.ExcMultiRunMatch,
			Severity:  core.SeverityLow,
			Details: map[string]interface{}{
				"match_count":          len(idxs),
				"primary_older_run_id": pairs[primary].OlderRunID,
			},
		})
	}

	exceptions := append([]core.Exception(nil), in.Exceptions...)
	exceptions = append(exceptions, newExceptions...)

	return Result{Pairs: pairs, Exceptions: exceptions}
}

func populatedDims(f *core.Feature) int {
	n := 0
	if f.DepthIn != nil {
		n++
	}
	if f.LengthIn != nil {
		n++
	}
	if f.WidthIn != nil {
		n++
	}
	return n
}
