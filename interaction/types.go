// Package interaction builds the anomaly-interaction graph: an
// undirected multigraph over a job's non-reference anomalies with
// MATCH_LINK, SPATIAL_PROXIMITY, INTERACTION_ZONE, and TEMPORAL_CHAIN
// edges, clustered by union-find over the INTERACTION_ZONE subgraph.
package interaction

import "github.com/pipeintel/ilialign/core"

// EdgeKind is the closed edge-type set.
type EdgeKind string

const (
	EdgeMatchLink        EdgeKind = "MATCH_LINK"
	EdgeSpatialProximity EdgeKind = "SPATIAL_PROXIMITY"
	EdgeInteractionZone  EdgeKind = "INTERACTION_ZONE"
	EdgeTemporalChain    EdgeKind = "TEMPORAL_CHAIN"
)

// Edge is one connection between two feature ids.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
}

// InteractionType classifies an interaction cluster by which separation
// axis triggered its INTERACTION_ZONE edges.
type InteractionType string

const (
	InteractionCombined       InteractionType = "COMBINED"
	InteractionCircumferential InteractionType = "CIRCUMFERENTIAL"
	InteractionAxial          InteractionType = "AXIAL"
)

// axisFlags records which separation axis (or both) triggered an
// INTERACTION_ZONE edge, feeding the cluster's InteractionType.
type axisFlags struct {
	axial    bool
	circum   bool
	combined bool
}

// Cluster is one union-find component over INTERACTION_ZONE edges.
type Cluster struct {
	FeatureIDs     []string
	CombinedLength float64 // inches
	CombinedDepth  *float64
	Type           InteractionType
}

// proximityRadiusFt is the SPATIAL_PROXIMITY edge threshold.
const proximityRadiusFt = 10.0

// clockVelocityInPerHr converts a circumferential clock distance (hours)
// to an approximate wall-surface distance in inches, using the "~7.85
// in/hr" nominal pipe-circumference figure.
const clockVelocityInPerHr = 7.85

// temporalChainMinLength is the minimum MATCH_LINK chain length across
// runs that counts as a TEMPORAL_CHAIN.
const temporalChainMinLength = 3

// Input is everything Build needs for one job.
type Input struct {
	Features   []*core.Feature // non-reference anomalies, across all runs in the job
	MatchPairs []core.MatchedPair
}

// Result is Build's output: the full edge list and the INTERACTION_ZONE
// clusters.
type Result struct {
	Edges    []Edge
	Clusters []Cluster
}
