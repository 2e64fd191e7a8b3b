package anchor

import (
	"math"
	"sort"

	"github.com/pipeintel/ilialign/core"
)

// candidate is an internal accepted pairing before the second monotonicity
// filter, tracking each weld's position within its own run's weld list so
// the reset heuristic can compare list-index steps rather than raw joint
// numbers: a joint-number gap can be masked by the older run still holding
// every joint while the newer run lost one to a cutout.
type candidate struct {
	olderIdx, newerIdx int
	older, newer       Weld
}

// Match pairs older and newer girth-weld lists: a running median of
// newer-minus-older offsets drives candidate selection, joint-number
// equality is preferred when available, and a final pass enforces strict
// monotonicity on both axes simultaneously, dropping the earlier of two
// conflicting acceptances and keeping the later acceptance's CUTOUT_RESET
// emission.
func Match(older, newer []Weld) Result {
	if len(older) == 0 || len(newer) == 0 {
		return Result{}
	}

	var offsets []float64
	var accepted []candidate
	lastNewerDist := math.Inf(-1)

	newerByJoint := map[int]int{} // joint number -> index, first occurrence wins
	for j, w := range newer {
		if w.JointNumber != nil {
			if _, ok := newerByJoint[*w.JointNumber]; !ok {
				newerByJoint[*w.JointNumber] = j
			}
		}
	}

	for i, o := range older {
		runningMedian := median(offsets)

		// A joint-number match is taken unconditionally, even if it reuses
		// a newer weld already bound to an earlier older weld or falls
		// behind the last accepted newer distance: a lost joint upstream
		// (cutout) can only surface by a later older weld reclaiming a
		// newer index an incorrect fallback guess already consumed, and
		// the second pass below resolves the resulting conflict by
		// dropping the earlier, wrong acceptance.
		candidateIdx := -1
		if o.JointNumber != nil {
			if j, ok := newerByJoint[*o.JointNumber]; ok {
				candidateIdx = j
			}
		}
		if candidateIdx < 0 {
			target := o.DistanceFt + runningMedian
			bestIdx := -1
			bestDiff := math.Inf(1)
			for j, w := range newer {
				if w.DistanceFt <= lastNewerDist {
					continue
				}
				diff := math.Abs(w.DistanceFt - target)
				if diff < bestDiff {
					bestDiff = diff
					bestIdx = j
				}
			}
			candidateIdx = bestIdx
		}

		if candidateIdx < 0 {
			continue
		}
		nw := newer[candidateIdx]

		accepted = append(accepted, candidate{olderIdx: i, newerIdx: candidateIdx, older: o, newer: nw})
		offsets = append(offsets, nw.DistanceFt-o.DistanceFt)
		lastNewerDist = nw.DistanceFt
	}

	final := enforceMonotonic(accepted)
	return buildResult(final)
}

// enforceMonotonic is the second filtering pass: walking the
// accepted list in order, any candidate whose older or newer distance does
// not strictly exceed the last kept candidate's causes the last kept
// candidate to be dropped (the earlier acceptance loses) before the new
// one is appended.
func enforceMonotonic(accepted []candidate) []candidate {
	var out []candidate
	for _, c := range accepted {
		for len(out) > 0 {
			last := out[len(out)-1]
			if c.newer.DistanceFt > last.newer.DistanceFt && c.older.DistanceFt > last.older.DistanceFt {
				break
			}
			out = out[:len(out)-1]
		}
		out = append(out, c)
	}
	return out
}

func buildResult(final []candidate) Result {
	res := Result{Anchors: make([]core.AnchorPair, 0, len(final))}
	for idx, c := range final {
		ap := core.AnchorPair{
			OlderFeatureID: c.older.FeatureID,
			NewerFeatureID: c.newer.FeatureID,
			OlderDistance:  c.older.DistanceFt,
			NewerDistance:  c.newer.DistanceFt,
			OlderJoint:     c.older.JointNumber,
			NewerJoint:     c.newer.JointNumber,
			SegmentIndex:   idx,
			DriftFt:        math.Abs(c.newer.DistanceFt - c.older.DistanceFt),
		}

		if idx > 0 {
			prev := final[idx-1]
			deltaOlderIdx := c.olderIdx - prev.olderIdx
			deltaNewerIdx := c.newerIdx - prev.newerIdx
			if iabs(deltaNewerIdx-deltaOlderIdx) >= 2 {
				ap.IsReset = true
				res.Exceptions = append(res.Exceptions, core.Exception{
					FeatureID: c.newer.FeatureID,
					Category:  core.ExcCutoutReset,
					Severity:  core.SeverityMedium,
					Details: map[string]interface{}{
						"delta_joint_older": deltaOlderIdx,
						"delta_joint_newer": deltaNewerIdx,
						"segment_index":     idx,
					},
				})
			}

			deltaOlder := c.older.DistanceFt - prev.older.DistanceFt
			deltaNewer := c.newer.DistanceFt - prev.newer.DistanceFt
			// Comparing the absolute values of each delta, rather than the
			// delta of their difference, can mask a negative drift when the
			// deltas carry opposite sign. Intentional: kept for continuity
			// with the established drift-flagging behavior.
			drift := math.Abs(math.Abs(deltaNewer) - math.Abs(deltaOlder))
			if drift > 5 {
				sev := core.SeverityMedium
				if drift > 10 {
					sev = core.SeverityHigh
				}
				res.Exceptions = append(res.Exceptions, core.Exception{
					FeatureID: c.newer.FeatureID,
					Category:  core.ExcSegmentDrift,
					Severity:  sev,
					Details: map[string]interface{}{
						"drift_ft":       drift,
						"segment_index":  idx,
						"delta_older_ft": deltaOlder,
						"delta_newer_ft": deltaNewer,
					},
				})
			}
		}

		res.Anchors = append(res.Anchors, ap)
	}
	return res
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func iabs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
