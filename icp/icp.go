package icp

import "math"

// unwrapClock shifts clock values > 6 by -12 when more than 30% of the
// combined source+target clocks fall near the 0/12 boundary (< 2 or > 10),
// preventing a spurious 12-hour jump from dominating the 2-D metric.
func unwrapClock(points []Point) []Point {
	total := len(points)
	if total == 0 {
		return points
	}
	near := 0
	for _, p := range points {
		if p.ClockHr < 2 || p.ClockHr > 10 {
			near++
		}
	}
	if float64(near)/float64(total) <= 0.3 {
		return points
	}
	out := make([]Point, total)
	for i, p := range points {
		if p.ClockHr > 6 {
			p.ClockHr -= 12
		}
		out[i] = p
	}
	return out
}

// weightedDist2 returns the squared 2-D distance between p and q under the
// clock-to-feet weighting.
func weightedDist2(p, q Point, clockWeight float64) float64 {
	dd := p.DistanceFt - q.DistanceFt
	dc := (p.ClockHr - q.ClockHr) * clockWeight
	return dd*dd + dc*dc
}

// Refine runs translation-only ICP aligning source onto target within a
// single weld-to-weld segment. Returns a zero translation immediately if
// either input is empty.
func Refine(source, target []Point, opts *Options) (*Result, error) {
	if opts == nil {
		d := DefaultOptions()
		opts = &d
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(source) == 0 || len(target) == 0 {
		return &Result{}, nil
	}

	combined := unwrapClock(append(append([]Point(nil), source...), target...))
	src := combined[:len(source)]
	tgt := combined[len(source):]

	working := append([]Point(nil), src...)

	var iterations []IterationLog
	var totalDist, totalClk float64
	prevMeanResidual := math.Inf(1)
	converged := false
	var correspondences []Correspondence

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		correspondences = nil
		var sumDist, sumClk float64
		matched := 0
		var sumResidual float64

		for si, sp := range working {
			bestIdx := -1
			bestD2 := math.Inf(1)
			for ti, tp := range tgt {
				d2 := weightedDist2(sp, tp, opts.ClockWeightFtPerHour)
				if d2 < bestD2 {
					bestD2 = d2
					bestIdx = ti
				}
			}
			if bestIdx < 0 {
				continue
			}
			d := math.Sqrt(bestD2)
			if d > opts.MaxCorrespondenceFt {
				continue
			}
			tp := tgt[bestIdx]
			sumDist += tp.DistanceFt - sp.DistanceFt
			sumClk += tp.ClockHr - sp.ClockHr
			sumResidual += d
			matched++
			correspondences = append(correspondences, Correspondence{SourceIndex: si, TargetIndex: bestIdx, DistanceFt: d})
		}

		if matched == 0 {
			break
		}

		meanDist := sumDist / float64(matched)
		meanClk := sumClk / float64(matched)
		meanResidual := sumResidual / float64(matched)

		for i := range working {
			working[i].DistanceFt += meanDist
			working[i].ClockHr += meanClk
		}
		totalDist += meanDist
		totalClk += meanClk

		iterations = append(iterations, IterationLog{
			Iteration:      iter,
			TranslationFt:  meanDist,
			TranslationClk: meanClk,
			MeanResidual:   meanResidual,
		})

		if math.Abs(prevMeanResidual-meanResidual) < opts.ConvergenceFt {
			converged = true
			prevMeanResidual = meanResidual
			break
		}
		prevMeanResidual = meanResidual
	}

	rmse := 0.0
	if len(correspondences) > 0 {
		var sumSq float64
		for _, c := range correspondences {
			sumSq += c.DistanceFt * c.DistanceFt
		}
		rmse = math.Sqrt(sumSq / float64(len(correspondences)))
	}

	return &Result{
		TranslationFt:   totalDist,
		TranslationClk:  totalClk,
		Iterations:      iterations,
		Correspondences: correspondences,
		RMSE:            rmse,
		Converged:       converged,
		Confidence:      100 * math.Exp(-rmse/3),
	}, nil
}
