// Package eventtype canonicalizes free-form inspection-sheet event strings
// to the closed set of fifteen canonical tokens (core's EventType
// constants, listed in knownTokens); no other token is ever returned.
// A process-wide memo
// table records lookups; unknown strings are delegated to an oracle.
package eventtype

import (
	"context"
	"strings"
	"sync"

	"github.com/pipeintel/ilialign/core"
)

// Oracle delegates canonicalization of an unknown raw string to an external
// sidecar. Implementations must return core.EventOther semantics via
// ok=false on any failure; failures are non-fatal.
type Oracle interface {
	ResolveEventType(ctx context.Context, raw string) (canonical string, ok bool)
}

// directMap is the case-insensitive table of ~30 common spellings.
// Keys are lowercase, trimmed raw strings.
var directMap = map[string]core.EventType{
	"girth weld":      core.EventGirthWeld,
	"gw":              core.EventGirthWeld,
	"weld":            core.EventGirthWeld,
	"valve":           core.EventValve,
	"tee":             core.EventTee,
	"tee joint":       core.EventTee,
	"tap":             core.EventTap,
	"tapping tee":     core.EventTap,
	"flange":          core.EventFlange,
	"launcher":        core.EventLauncher,
	"pig launcher":    core.EventLauncher,
	"receiver":        core.EventReceiver,
	"pig receiver":    core.EventReceiver,
	"support":         core.EventSupport,
	"pipe support":    core.EventSupport,
	"metal loss":      core.EventMetalLoss,
	"external metal loss": core.EventMetalLoss,
	"internal metal loss": core.EventMetalLoss,
	"corrosion":       core.EventMetalLoss,
	"ext corrosion":   core.EventMetalLoss,
	"int corrosion":   core.EventMetalLoss,
	"cluster":         core.EventCluster,
	"corrosion cluster": core.EventCluster,
	"mfg anomaly":     core.EventMetalLossMfg,
	"manufacturing":   core.EventMetalLossMfg,
	"mfg":             core.EventMetalLossMfg,
	"dent":            core.EventDent,
	"dent with metal loss": core.EventDent,
	"bend":            core.EventBend,
	"wrinkle bend":    core.EventBend,
	"field bend":      core.EventFieldBend,
	"other":           core.EventOther,
	"unknown":         core.EventOther,
}

// memo is the process-wide, atomically-updated memoization table shared by
// every canonicalizer instance.
var (
	memoMu sync.Mutex
	memo   = map[string]core.EventType{}
)

// ResetMemo clears the process-wide memo table. Called by the orchestrator
// at teardown.
func ResetMemo() {
	memoMu.Lock()
	defer memoMu.Unlock()
	memo = map[string]core.EventType{}
}

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// CanonicalizeSync never calls the oracle: a direct-map hit returns its
// token, the memo is checked next, and any remaining miss returns OTHER.
func CanonicalizeSync(raw string) core.EventType {
	key := normalize(raw)
	if t, ok := directMap[key]; ok {
		return t
	}
	memoMu.Lock()
	t, ok := memo[key]
	memoMu.Unlock()
	if ok {
		return t
	}
	return core.EventOther
}

// Canonicalize resolves raw to a canonical EventType, trying the direct
// map, then the memo, then delegating unknowns to oracle (which may be
// nil). Oracle results are memoized atomically before returning.
func Canonicalize(ctx context.Context, raw string, oracle Oracle) core.EventType {
	key := normalize(raw)
	if t, ok := directMap[key]; ok {
		return t
	}

	memoMu.Lock()
	t, ok := memo[key]
	memoMu.Unlock()
	if ok {
		return t
	}

	resolved := core.EventOther
	if oracle != nil {
		if canon, ok := oracle.ResolveEventType(ctx, raw); ok {
			if et := core.EventType(strings.ToUpper(strings.TrimSpace(canon))); isKnownToken(et) {
				resolved = et
			}
		}
	}

	memoMu.Lock()
	// Compare-and-set idiom: only the first writer's resolution for a given
	// key sticks, avoiding a torn update under concurrent normalization.
	if existing, already := memo[key]; already {
		resolved = existing
	} else {
		memo[key] = resolved
	}
	memoMu.Unlock()

	return resolved
}

var knownTokens = map[core.EventType]bool{
	core.EventGirthWeld: true, core.EventValve: true, core.EventTee: true,
	core.EventTap: true, core.EventFlange: true, core.EventLauncher: true,
	core.EventReceiver: true, core.EventSupport: true, core.EventMetalLoss: true,
	core.EventCluster: true, core.EventMetalLossMfg: true, core.EventDent: true,
	core.EventBend: true, core.EventFieldBend: true, core.EventOther: true,
}

func isKnownToken(t core.EventType) bool { return knownTokens[t] }
