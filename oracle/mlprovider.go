package oracle

import (
	"context"
	"sync"
)

// passthroughProvider is the default MLProvider: every operation reports
// not-ready so the deterministic score always stands unchanged ("on any
// error the deterministic score is used unchanged").
type passthroughProvider struct{}

func (passthroughProvider) ScoreFeaturePair(context.Context, MLCandidate) (MLResult, error) {
	return MLResult{}, errNotConfigured
}
func (passthroughProvider) AssessGrowthTrend(context.Context, MLCandidate) (MLResult, error) {
	return MLResult{}, errNotConfigured
}
func (passthroughProvider) ScoreInteractionSubgraph(context.Context, MLCandidate) (MLResult, error) {
	return MLResult{}, errNotConfigured
}
func (passthroughProvider) Ready(context.Context) bool { return false }

var errNotConfigured = errNotConfiguredError{}

type errNotConfiguredError struct{}

func (errNotConfiguredError) Error() string { return "oracle: ml provider not configured" }

// providerMu and currentProvider are the process-wide ML-provider
// singleton ("process-wide singleton with
// initialize/reset operations; only the orchestrator switches it").
var (
	providerMu      sync.RWMutex
	currentProvider MLProvider = passthroughProvider{}
)

// SetProvider installs p as the process-wide ML augmentation provider.
// Only the orchestrator should call this.
func SetProvider(p MLProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	if p == nil {
		currentProvider = passthroughProvider{}
		return
	}
	currentProvider = p
}

// ResetProvider restores the pass-through default.
func ResetProvider() {
	SetProvider(nil)
}

// CurrentProvider returns the active ML augmentation provider.
func CurrentProvider() MLProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return currentProvider
}
