// Package oracle provides the optional canonicalization/date sidecar and
// the ML-augmentation provider. Both are invoked only
// after deterministic fast paths fail or have already produced a score;
// failures of either are always non-fatal.
package oracle

import (
	"context"
	"time"
)

// DefaultTimeout is the oracle_timeout_ms default.
const DefaultTimeout = 5 * time.Second

// DefaultMaxRetries allows up to 2 retries with exponential backoff.
const DefaultMaxRetries = 2

// readinessCacheTTL is the ML-provider readiness-probe cache window.
const readinessCacheTTL = 30 * time.Second

// Options configures a Client.
type Options struct {
	Model          string
	APIKey         string
	BaseURL        string
	Timeout        time.Duration
	RequestsPerMin int
	MaxRetries     int
}

// DefaultOptions returns gpt-4o-mini, DefaultTimeout, DefaultMaxRetries,
// and a conservative 60 requests/min cap.
func DefaultOptions() Options {
	return Options{
		Model:          "gpt-4o-mini",
		Timeout:        DefaultTimeout,
		MaxRetries:     DefaultMaxRetries,
		RequestsPerMin: 60,
	}
}

// MLCandidate is the minimal cross-section of ensemble/growth/interaction
// signals passed to an MLProvider call.
type MLCandidate struct {
	Kind        string // "feature_pair" | "growth_trend" | "interaction_subgraph"
	Description string
	DetScore    float64
}

// MLResult is the (adjustedScore, mlConfidence, explanation, modelId,
// modelVersion) tuple every MLProvider operation returns.
type MLResult struct {
	AdjustedScore float64
	Confidence    float64 // [0,1]
	Explanation   string
	ModelID       string
	ModelVersion  string
}

// MLProvider is the three-operation ML augmentation surface.
type MLProvider interface {
	ScoreFeaturePair(ctx context.Context, c MLCandidate) (MLResult, error)
	AssessGrowthTrend(ctx context.Context, c MLCandidate) (MLResult, error)
	ScoreInteractionSubgraph(ctx context.Context, c MLCandidate) (MLResult, error)
	Ready(ctx context.Context) bool
}

// Blend applies the blending rule: final = det*0.8 + ml*0.2, with the
// adjustment clamped to within 10 points of det, then to [0,100].
func Blend(det float64, ml MLResult) float64 {
	blended := det*0.8 + ml.AdjustedScore*0.2
	if blended > det+10 {
		blended = det + 10
	}
	if blended < det-10 {
		blended = det - 10
	}
	if blended < 0 {
		blended = 0
	}
	if blended > 100 {
		blended = 100
	}
	return blended
}
