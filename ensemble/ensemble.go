package ensemble

import (
	"fmt"
	"math"
	"sort"
)

// compatibleGroups lists sets of canonical types; each set holds the types the "type" component
// treats as 0.7-compatible with one another (but not identical, which
// scores 1).
var compatibleGroups = [][]string{
	{"METAL_LOSS", "CLUSTER", "METAL_LOSS_MFG"},
	{"BEND", "FIELD_BEND"},
}

func inSameGroup(a, b string) bool {
	for _, g := range compatibleGroups {
		found := map[string]bool{}
		for _, t := range g {
			found[t] = true
		}
		if found[a] && found[b] {
			return true
		}
	}
	return false
}

func typeScore(a, b string) float64 {
	if a == b {
		return 1
	}
	if inSameGroup(a, b) {
		return 0.7
	}
	return 0
}

func dimScore(oldV, newV *float64) (float64, bool) {
	if oldV == nil || newV == nil {
		return 0, false
	}
	m := math.Max(math.Max(*oldV, *newV), 1e-9)
	return 1 - math.Abs(*oldV-*newV)/m, true
}

// Compute scores one candidate pair: each component in [0,1],
// clock weight redistributed proportionally across the rest when clock is
// unavailable, final total in [0,100].
func Compute(c Candidate, w Weights) (Score, error) {
	if err := w.Validate(); err != nil {
		return Score{}, err
	}

	var comp Components
	comp.Distance = math.Exp(-math.Abs(c.DistanceResidualFt) / 3)

	if c.OlderClockHr != nil && c.NewerClockHr != nil {
		d := circularDist(*c.OlderClockHr, *c.NewerClockHr)
		comp.Clock = math.Exp(-d / 1)
		comp.ClockAvailable = true
	}

	var dims []float64
	if s, ok := dimScore(c.OlderDepthIn, c.NewerDepthIn); ok {
		dims = append(dims, s)
	}
	if s, ok := dimScore(c.OlderLengthIn, c.NewerLengthIn); ok {
		dims = append(dims, s)
	}
	if s, ok := dimScore(c.OlderWidthIn, c.NewerWidthIn); ok {
		dims = append(dims, s)
	}
	if len(dims) == 0 {
		comp.Dimensional = 0.5
	} else {
		var sum float64
		for _, d := range dims {
			sum += d
		}
		comp.Dimensional = sum / float64(len(dims))
	}

	comp.Type = typeScore(c.OlderType, c.NewerType)

	if c.DTWConfidence != nil {
		comp.DTW = math.Min(1, *c.DTWConfidence/100)
	} else {
		comp.DTW = 0.5
	}

	if c.ICPRMSEFt != nil {
		comp.ICP = math.Exp(-*c.ICPRMSEFt / 3)
	} else {
		comp.ICP = 0.5
	}

	if c.TemporalMatchCount == nil || c.TemporalTotalRuns == nil || *c.TemporalTotalRuns <= 1 {
		comp.Temporal = 0.5
	} else {
		count, total := float64(*c.TemporalMatchCount), float64(*c.TemporalTotalRuns)
		comp.Temporal = math.Min(1, 0.1+0.9*(count-1)/(total-1))
	}

	type weighted struct {
		name       string
		weight     float64
		score      float64
		weightedPt float64
	}
	weights := []weighted{
		{"distance", w.Distance, comp.Distance, 0},
		{"dimensional", w.Dimensional, comp.Dimensional, 0},
		{"type", w.Type, comp.Type, 0},
		{"dtw", w.DTW, comp.DTW, 0},
		{"icp", w.ICP, comp.ICP, 0},
		{"temporal", w.Temporal, comp.Temporal, 0},
	}
	effectiveWeightSum := w.Distance + w.Dimensional + w.Type + w.DTW + w.ICP + w.Temporal
	if comp.ClockAvailable {
		weights = append(weights, weighted{"clock", w.Clock, comp.Clock, 0})
		effectiveWeightSum += w.Clock
	}
	// Redistribute the clock weight proportionally over the rest when
	// unavailable: each remaining weight scales by totalWeight/effectiveWeightSum.
	totalWeight := w.Distance + w.Clock + w.Dimensional + w.Type + w.DTW + w.ICP + w.Temporal
	scale := 1.0
	if !comp.ClockAvailable && effectiveWeightSum > 0 {
		scale = totalWeight / effectiveWeightSum
	}

	var weightedSum, weightTotal float64
	for i := range weights {
		adjW := weights[i].weight * scale
		weights[i].weightedPt = adjW * weights[i].score
		weightedSum += weights[i].weightedPt
		weightTotal += adjW
	}

	total := 0.0
	if weightTotal > 0 {
		total = 100 * weightedSum / weightTotal
	}
	total = math.Max(0, math.Min(100, total))

	category := "LOW"
	switch {
	case total >= 75:
		category = "HIGH"
	case total >= 50:
		category = "MEDIUM"
	}

	sorted := append([]weighted(nil), weights...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].weightedPt > sorted[j].weightedPt })
	explanation := ""
	if len(sorted) >= 4 {
		explanation = fmt.Sprintf("top: %s, %s; bottom: %s, %s",
			sorted[0].name, sorted[1].name, sorted[len(sorted)-2].name, sorted[len(sorted)-1].name)
	}

	return Score{Components: comp, Total: total, Category: category, Explanation: explanation}, nil
}

func circularDist(a, b float64) float64 {
	am := math.Mod(a, 12)
	bm := math.Mod(b, 12)
	d := math.Abs(am - bm)
	if 12-d < d {
		d = 12 - d
	}
	return d
}
