package matcher

import (
	"fmt"
	"math"
	"sort"

	"github.com/pipeintel/ilialign/clock"
	"github.com/pipeintel/ilialign/core"
	"github.com/pipeintel/ilialign/ensemble"
	"github.com/pipeintel/ilialign/hungarian"
)

// Match assigns older-run anomalies to newer-run anomalies within each
// anchor-induced segment.
func Match(in Input) Result {
	segs := buildSegments(in.Anchors)
	years := in.YearsBetween
	if years < 0.01 {
		years = 0.01
	}

	var pairs []core.MatchedPair
	matchedOlder := map[string]bool{}
	matchedNewer := map[string]bool{}

	for _, seg := range segs {
		olderInSeg := filterBySegment(in.OlderFeatures, seg)
		newerInSeg := filterBySegment(in.NewerFeatures, seg)
		if len(olderInSeg) == 0 || len(newerInSeg) == 0 {
			continue
		}

		signal := in.SegmentSignals[seg.Index]

		scores := make([][]float64, len(olderInSeg))
		comps := make([][]ensemble.Components, len(olderInSeg))
		cost := make([][]float64, len(olderInSeg))
		for i, o := range olderInSeg {
			scores[i] = make([]float64, len(newerInSeg))
			comps[i] = make([]ensemble.Components, len(newerInSeg))
			cost[i] = make([]float64, len(newerInSeg))
			for j, nw := range newerInSeg {
				cand := buildCandidate(o, nw, years, signal, in.Temporal[o.ID])
				sc, err := ensemble.Compute(cand, in.Weights)
				if err != nil {
					scores[i][j] = 0
					cost[i][j] = hungarian.SentinelCost
					continue
				}
				scores[i][j] = sc.Total
				comps[i][j] = sc.Components
				cost[i][j] = 100 - sc.Total
			}
		}

		assigns, err := hungarian.Solve(cost)
		if err != nil {
			continue
		}

		for _, a := range assigns {
			score := scores[a.Row][a.Col]
			if score < minEnsembleScore {
				continue
			}
			o, nw := olderInSeg[a.Row], newerInSeg[a.Col]
			comp := comps[a.Row][a.Col]

			category, competing := classify(olderInSeg, scores, a.Row, a.Col)

			pair := core.MatchedPair{
				ID:                  fmt.Sprintf("mp-%s-%s", o.ID, nw.ID),
				JobID:               in.JobID,
				OlderFeatureID:      o.ID,
				NewerFeatureID:      nw.ID,
				OlderRunID:          in.OlderRunID,
				NewerRunID:          in.NewerRunID,
				DistanceResidualFt:  nw.EffectiveDistanceFt() - o.EffectiveDistanceFt(),
				TypeCompatibility:   comp.Type,
				DimensionalSimilarity: comp.Dimensional,
				ConfidenceScore:     score,
				ConfidenceCategory:  core.CategoryForScore(score),
				MatchCategory:       category,
				YearsBetween:        years,
				CompetingOlderIDs:   competing,
			}
			if comp.ClockAvailable && o.ClockDecimal != nil && nw.ClockDecimal != nil {
				d := clock.CircularDistance(*o.ClockDecimal, *nw.ClockDecimal)
				pair.ClockResidualHr = &d
			}
			pair.DepthGrowthPctPerYr = growth(o.DepthPercent, nw.DepthPercent, years)
			pair.LengthGrowthInPerYr = growth(o.LengthIn, nw.LengthIn, years)
			pair.WidthGrowthInPerYr = growth(o.WidthIn, nw.WidthIn, years)

			pairs = append(pairs, pair)
			matchedOlder[o.ID] = true
			matchedNewer[nw.ID] = true
		}
	}

	var exceptions []core.Exception
	for _, o := range in.OlderFeatures {
		if !matchedOlder[o.ID] {
			exceptions = append(exceptions, core.Exception{
				FeatureID: o.ID,
				JobID:     in.JobID,
				Category:  core.ExcUnmatched,
				Severity:  core.SeverityMedium,
				Details:   map[string]interface{}{"run_id": in.OlderRunID},
			})
		}
	}
	for _, nw := range in.NewerFeatures {
		if !matchedNewer[nw.ID] {
			exceptions = append(exceptions, core.Exception{
				FeatureID: nw.ID,
				JobID:     in.JobID,
				Category:  core.ExcUnmatched,
				Severity:  core.SeverityLow,
				Details:   map[string]interface{}{"run_id": in.NewerRunID},
			})
		}
	}

	return Result{Pairs: pairs, Exceptions: exceptions}
}

// buildSegments partitions the newer axis at each anchor's NewerDistance,
// including the open-ended segments before the first and after the last
// anchor.
func buildSegments(anchors []core.AnchorPair) []segment {
	segs := make([]segment, 0, len(anchors)+1)
	lower := math.Inf(-1)
	for i, a := range anchors {
		segs = append(segs, segment{Index: i, Lower: lower, Upper: a.NewerDistance})
		lower = a.NewerDistance
	}
	segs = append(segs, segment{Index: len(anchors), Lower: lower, Upper: math.Inf(1)})
	return segs
}

func filterBySegment(features []*core.Feature, seg segment) []*core.Feature {
	var out []*core.Feature
	for _, f := range features {
		d := f.EffectiveDistanceFt()
		if d >= seg.Lower && d < seg.Upper {
			out = append(out, f)
		}
	}
	return out
}

func buildCandidate(o, nw *core.Feature, years float64, sig SegmentSignal, temporal TemporalSignal) ensemble.Candidate {
	c := ensemble.Candidate{
		DistanceResidualFt: nw.EffectiveDistanceFt() - o.EffectiveDistanceFt(),
		OlderType:          string(o.CanonicalType),
		NewerType:          string(nw.CanonicalType),
		OlderDepthIn:       o.DepthIn,
		NewerDepthIn:       nw.DepthIn,
		OlderLengthIn:      o.LengthIn,
		NewerLengthIn:      nw.LengthIn,
		OlderWidthIn:       o.WidthIn,
		NewerWidthIn:       nw.WidthIn,
		DTWConfidence:      sig.DTWConfidence,
		ICPRMSEFt:          sig.ICPRMSEFt,
	}
	if o.ClockDecimal != nil && nw.ClockDecimal != nil {
		c.OlderClockHr = o.ClockDecimal
		c.NewerClockHr = nw.ClockDecimal
	}
	if temporal.TotalRuns > 0 {
		count, total := temporal.MatchCount, temporal.TotalRuns
		c.TemporalMatchCount = &count
		c.TemporalTotalRuns = &total
	}
	_ = years // years feeds growth(), not the candidate
	return c
}

// classify determines the match category for the newer feature at col,
// given the full older-candidate score column, and returns the ordered
// competing-older-feature ids.
func classify(olderInSeg []*core.Feature, scores [][]float64, row, col int) (core.MatchCategory, []string) {
	type scored struct {
		idx   int
		score float64
	}
	list := make([]scored, len(olderInSeg))
	for i := range olderInSeg {
		list[i] = scored{idx: i, score: scores[i][col]}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].score > list[j].score })

	var category core.MatchCategory
	switch {
	case len(list) == 1:
		category = core.MatchAutoMatched
	case list[0].score-list[1].score < 10:
		category = core.MatchAmbiguous
	default:
		category = core.MatchBestMatch
	}

	competing := make([]string, 0, len(list))
	for _, s := range list {
		if s.idx == row {
			continue
		}
		competing = append(competing, olderInSeg[s.idx].ID)
	}
	return category, competing
}

func growth(oldV, newV *float64, years float64) *float64 {
	if oldV == nil || newV == nil {
		return nil
	}
	g := (*newV - *oldV) / years
	return &g
}
