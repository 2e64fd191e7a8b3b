package interaction

import (
	"math"
	"sort"

	"github.com/pipeintel/ilialign/clock"
	"github.com/pipeintel/ilialign/core"
)

var corrosionTypes = map[core.EventType]bool{
	core.EventMetalLoss:    true,
	core.EventCluster:      true,
	core.EventMetalLossMfg: true,
}

// Build constructs the full interaction graph and its INTERACTION_ZONE
// clusters for one job.
func Build(in Input) Result {
	byID := make(map[string]*core.Feature, len(in.Features))
	for _, f := range in.Features {
		byID[f.ID] = f
	}

	var edges []Edge

	// MATCH_LINK: one per matched pair.
	for _, p := range in.MatchPairs {
		edges = append(edges, Edge{From: p.OlderFeatureID, To: p.NewerFeatureID, Kind: EdgeMatchLink})
	}

	// Group by run for the within-run proximity and interaction-zone rules.
	byRun := map[string][]*core.Feature{}
	for _, f := range in.Features {
		byRun[f.RunID] = append(byRun[f.RunID], f)
	}
	runIDs := make([]string, 0, len(byRun))
	for r := range byRun {
		runIDs = append(runIDs, r)
	}
	sort.Strings(runIDs)

	zoneFlags := map[edgeKey]axisFlags{}
	for _, runID := range runIDs {
		feats := byRun[runID]
		sort.Slice(feats, func(i, j int) bool { return feats[i].ID < feats[j].ID })
		for i := 0; i < len(feats); i++ {
			for j := i + 1; j < len(feats); j++ {
				a, b := feats[i], feats[j]
				if math.Abs(a.EffectiveDistanceFt()-b.EffectiveDistanceFt()) <= proximityRadiusFt {
					edges = append(edges, Edge{From: a.ID, To: b.ID, Kind: EdgeSpatialProximity})
				}
				if corrosionTypes[a.CanonicalType] && corrosionTypes[b.CanonicalType] {
					if flags, ok := interactionZoneFlags(a, b); ok {
						edges = append(edges, Edge{From: a.ID, To: b.ID, Kind: EdgeInteractionZone})
						zoneFlags[edgeKey{a.ID, b.ID}] = flags
					}
				}
			}
		}
	}

	// TEMPORAL_CHAIN: components of MATCH_LINK edges spanning >= 3 runs.
	matchDSU := newUnionFind()
	for _, f := range in.Features {
		matchDSU.add(f.ID)
	}
	var matchEdges []Edge
	for _, e := range edges {
		if e.Kind == EdgeMatchLink {
			matchDSU.union(e.From, e.To)
			matchEdges = append(matchEdges, e)
		}
	}
	runsByComponent := map[string]map[string]bool{}
	for _, f := range in.Features {
		root := matchDSU.find(f.ID)
		if runsByComponent[root] == nil {
			runsByComponent[root] = map[string]bool{}
		}
		runsByComponent[root][f.RunID] = true
	}
	for _, e := range matchEdges {
		root := matchDSU.find(e.From)
		if len(runsByComponent[root]) >= temporalChainMinLength {
			edges = append(edges, Edge{From: e.From, To: e.To, Kind: EdgeTemporalChain})
		}
	}

	clusters := buildClusters(in.Features, byID, edges, zoneFlags)
	return Result{Edges: edges, Clusters: clusters}
}

type edgeKey struct{ a, b string }

// interactionZoneFlags evaluates the ASME B31.8S §A-4.3 axial and
// circumferential separation rules between two features of the same run.
func interactionZoneFlags(a, b *core.Feature) (axisFlags, bool) {
	t := averageWallThickness(a, b)
	if t <= 0 {
		return axisFlags{}, false
	}

	var flags axisFlags
	if lenThresh, ok := minLength(a, b); ok {
		threshold := math.Min(3*t, lenThresh)
		axialSepIn := math.Abs(a.EffectiveDistanceFt()-b.EffectiveDistanceFt()) * 12
		flags.axial = axialSepIn < threshold
	}
	if widthThresh, ok := minWidth(a, b); ok && a.ClockDecimal != nil && b.ClockDecimal != nil {
		threshold := math.Min(3*t, widthThresh)
		circumSepIn := clock.CircularDistance(*a.ClockDecimal, *b.ClockDecimal) * clockVelocityInPerHr
		flags.circum = circumSepIn < threshold
	}
	flags.combined = flags.axial && flags.circum
	return flags, flags.axial || flags.circum
}

func averageWallThickness(a, b *core.Feature) float64 {
	switch {
	case a.WallThicknessIn != nil && b.WallThicknessIn != nil:
		return (*a.WallThicknessIn + *b.WallThicknessIn) / 2
	case a.WallThicknessIn != nil:
		return *a.WallThicknessIn
	case b.WallThicknessIn != nil:
		return *b.WallThicknessIn
	default:
		return 0
	}
}

func minLength(a, b *core.Feature) (float64, bool) {
	if a.LengthIn == nil || b.LengthIn == nil {
		return 0, false
	}
	return math.Min(*a.LengthIn, *b.LengthIn), true
}

func minWidth(a, b *core.Feature) (float64, bool) {
	if a.WidthIn == nil || b.WidthIn == nil {
		return 0, false
	}
	return math.Min(*a.WidthIn, *b.WidthIn), true
}

// buildClusters runs union-find over INTERACTION_ZONE edges only and
// computes each cluster's combined length/depth and interaction type.
func buildClusters(features []*core.Feature, byID map[string]*core.Feature, edges []Edge, zoneFlags map[edgeKey]axisFlags) []Cluster {
	dsu := newUnionFind()
	for _, f := range features {
		dsu.add(f.ID)
	}
	for _, e := range edges {
		if e.Kind == EdgeInteractionZone {
			dsu.union(e.From, e.To)
		}
	}

	members := map[string][]string{}
	for _, f := range features {
		root := dsu.find(f.ID)
		members[root] = append(members[root], f.ID)
	}

	var clusters []Cluster
	for root, ids := range members {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)

		var totalLength float64
		var maxDepth *float64
		minDist, maxDist := math.Inf(1), math.Inf(-1)
		var anyAxial, anyCircum, anyCombined bool

		for _, id := range ids {
			f := byID[id]
			if f.LengthIn != nil {
				totalLength += *f.LengthIn
			}
			if f.DepthPercent != nil && (maxDepth == nil || *f.DepthPercent > *maxDepth) {
				d := *f.DepthPercent
				maxDepth = &d
			}
			dist := f.EffectiveDistanceFt()
			if dist < minDist {
				minDist = dist
			}
			if dist > maxDist {
				maxDist = dist
			}
		}
		for _, e := range edges {
			if e.Kind != EdgeInteractionZone {
				continue
			}
			if dsu.find(e.From) != root {
				continue
			}
			flags := zoneFlags[edgeKey{e.From, e.To}]
			anyAxial = anyAxial || flags.axial
			anyCircum = anyCircum || flags.circum
			anyCombined = anyCombined || flags.combined
		}

		span := 0.0
		if maxDist > minDist {
			span = maxDist - minDist
		}
		combinedLength := totalLength + span*12

		interactionType := InteractionAxial
		switch {
		case anyCombined:
			interactionType = InteractionCombined
		case anyCircum:
			interactionType = InteractionCircumferential
		}

		_ = root
		clusters = append(clusters, Cluster{
			FeatureIDs:     ids,
			CombinedLength: combinedLength,
			CombinedDepth:  maxDepth,
			Type:           interactionType,
		})
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].FeatureIDs[0] < clusters[j].FeatureIDs[0] })
	return clusters
}

// unionFind is a disjoint-set with path compression and union by rank,
// grounded on Kruskal's MST implementation in the example pack.
type unionFind struct {
	parent map[string]string
	rank   map[string]int
}

func newUnionFind() *unionFind {
	return &unionFind{parent: map[string]string{}, rank: map[string]int{}}
}

func (u *unionFind) add(id string) {
	if _, ok := u.parent[id]; !ok {
		u.parent[id] = id
		u.rank[id] = 0
	}
}

func (u *unionFind) find(id string) string {
	for u.parent[id] != id {
		u.parent[id] = u.parent[u.parent[id]]
		id = u.parent[id]
	}
	return id
}

func (u *unionFind) union(a, b string) {
	u.add(a)
	u.add(b)
	rootA, rootB := u.find(a), u.find(b)
	if rootA == rootB {
		return
	}
	if u.rank[rootA] < u.rank[rootB] {
		u.parent[rootA] = rootB
	} else {
		u.parent[rootB] = rootA
		if u.rank[rootA] == u.rank[rootB] {
			u.rank[rootA]++
		}
	}
}
