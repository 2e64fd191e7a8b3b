package dtw

import "math"

// Align computes the Dynamic Time Warping alignment between the spacing
// sequences derived from two reference-point distance sequences aDist and
// bDist: a[i] = aDist[i+1]-aDist[i], and analogously for b.
//
// Boundary behavior: if both aDist and bDist are empty, Confidence is
// 100 with no path; if exactly one is empty, Confidence is 0 with no
// anchors. Otherwise the full DP with a Sakoe-Chiba band of radius
// ceil(max(n,m)*opts.BandFraction) runs on the spacing sequences, ties
// broken diag < up < left during backtrace.
func Align(aDist, bDist []float64, opts *Options) (*Result, error) {
	if opts == nil {
		d := DefaultOptions()
		opts = &d
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if len(aDist) == 0 && len(bDist) == 0 {
		return &Result{Confidence: 100}, nil
	}
	if len(aDist) == 0 || len(bDist) == 0 {
		return &Result{Confidence: 0}, nil
	}
	if len(aDist) < 2 || len(bDist) < 2 {
		// Fewer than two reference points yields no spacing sequence to
		// align; treat as a degenerate low-confidence case without error.
		return &Result{Confidence: 0}, nil
	}

	aSpacing := spacings(aDist)
	bSpacing := spacings(bDist)

	n, m := len(aSpacing), len(bSpacing)
	band := int(math.Ceil(float64(max(n, m)) * opts.BandFraction))
	infinity := math.Inf(1)

	dp := make([][]float64, n+1)
	for i := range dp {
		dp[i] = make([]float64, m+1)
	}
	for j := 1; j <= m; j++ {
		dp[0][j] = infinity
	}
	for i := 1; i <= n; i++ {
		dp[i][0] = infinity
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if iabs(i-j) > band {
				dp[i][j] = infinity
				continue
			}
			localCost := math.Abs(aSpacing[i-1] - bSpacing[j-1])
			best := min3(dp[i-1][j-1], dp[i-1][j], dp[i][j-1])
			dp[i][j] = localCost + best
		}
	}

	totalCost := dp[n][m]
	path, err := backtrack(dp, aSpacing, bSpacing)
	if err != nil {
		return nil, err
	}

	pathLen := len(path)
	normalized := totalCost
	if pathLen > 0 {
		normalized = totalCost / float64(pathLen)
	}
	confidence := 100 * math.Exp(-normalized/3)

	drift := make([]float64, pathLen)
	for k, c := range path {
		drift[k] = bDist[c.J+1] - aDist[c.I+1]
	}

	anchors := extractAnchors(path, aSpacing, bSpacing)

	return &Result{
		Path:           path,
		TotalCost:      totalCost,
		NormalizedCost: normalized,
		DriftProfile:   drift,
		Confidence:     confidence,
		AnchorMappings: anchors,
	}, nil
}

func spacings(dist []float64) []float64 {
	out := make([]float64, len(dist)-1)
	for i := range out {
		out[i] = dist[i+1] - dist[i]
	}
	return out
}

// backtrack walks from (n,m) to (0,0), breaking ties diag < up < left.
func backtrack(dp [][]float64, a, b []float64) ([]Coord, error) {
	i, j := len(a), len(b)
	path := make([]Coord, 0, i+j)

	for i > 0 && j > 0 {
		path = append(path, Coord{I: i - 1, J: j - 1})

		diag := dp[i-1][j-1]
		up := dp[i-1][j]
		left := dp[i][j-1]

		switch {
		case diag <= up && diag <= left:
			i, j = i-1, j-1
		case up <= left:
			i--
		default:
			j--
		}
	}
	if i != 0 || j != 0 {
		return nil, ErrIncompletePath
	}

	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path, nil
}

// extractAnchors pulls 1:1 anchor mappings from diagonal path steps whose
// local spacing cost is <= 10, deduping by original point index and always
// including (0,0) if it was not otherwise produced.
func extractAnchors(path []Coord, aSpacing, bSpacing []float64) []Coord {
	usedI := map[int]bool{}
	usedJ := map[int]bool{}
	var anchors []Coord

	var prev *Coord
	for _, c := range path {
		isDiag := prev != nil && c.I == prev.I+1 && c.J == prev.J+1
		if isDiag {
			localCost := math.Abs(aSpacing[c.I] - bSpacing[c.J])
			oi, oj := c.I+1, c.J+1
			if localCost <= 10 && !usedI[oi] && !usedJ[oj] {
				anchors = append(anchors, Coord{I: oi, J: oj})
				usedI[oi] = true
				usedJ[oj] = true
			}
		}
		cc := c
		prev = &cc
	}

	if !usedI[0] && !usedJ[0] {
		anchors = append([]Coord{{I: 0, J: 0}}, anchors...)
	}
	return anchors
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func iabs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
