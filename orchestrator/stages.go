package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/pipeintel/ilialign/anchor"
	"github.com/pipeintel/ilialign/core"
	"github.com/pipeintel/ilialign/correction"
	"github.com/pipeintel/ilialign/export"
	"github.com/pipeintel/ilialign/interaction"
	"github.com/pipeintel/ilialign/matcher"
	"github.com/pipeintel/ilialign/oracle"
	"github.com/pipeintel/ilialign/run3"
	"github.com/pipeintel/ilialign/standards"
	"github.com/pipeintel/ilialign/visibility"
	"golang.org/x/sync/errgroup"
)

// maxPairConcurrency bounds how many older-run-vs-baseline pairs doAnchorCorrection
// processes at once, mirroring the host's MaxConcurrency-bounded errgroup fan-out.
const maxPairConcurrency = 4

// toolQualificationFor looks up the fixed API 1163 accuracy band for a
// tool type, falling back to the UNKNOWN band for anything the closed set
// doesn't recognize.
func toolQualificationFor(t core.ToolType) core.ToolQualification {
	if q, ok := standards.DefaultToolQualifications[t]; ok {
		return q
	}
	return standards.DefaultToolQualifications[core.ToolUnknown]
}

// doAnchorCorrection runs anchor matching and distance correction for
// every older run against the baseline: it matches girth welds into an
// anchor sequence, builds and persists the piecewise-linear correction,
// and rewrites each older feature's CorrectedDistanceFt in place so every
// later stage reads the corrected axis via Feature.EffectiveDistanceFt.
//
// The anchor match and correction build are pure functions of their
// inputs (no store access, no id minting), so this fans them out across
// older runs with a bounded errgroup — mirroring plugin.Host.InvokeAll's
// semaphore-limited concurrency. Every side effect that must stay
// deterministic across identical runs (exception/segment ids, insertion
// order) happens afterward in a single sequential commit pass over the
// ordered results, so concurrency never perturbs byte-identical
// round-trip output.
func (o *Orchestrator) doAnchorCorrection(ctx context.Context, jobID string, state *pipelineState) ([]pairState, error) {
	baseline := state.baseline()
	newerWelds := anchor.WeldsFromFeatures(state.featuresByRun[baseline.ID])
	olderRuns := state.runs[:len(state.runs)-1]

	type pairCompute struct {
		older  *core.Run
		anchor anchor.Result
		corr   correction.Result
	}
	computed := make([]pairCompute, len(olderRuns))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxPairConcurrency)
	for i, older := range olderRuns {
		i, older := i, older
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			olderFeatures := state.featuresByRun[older.ID]
			olderWelds := anchor.WeldsFromFeatures(olderFeatures)
			anchorRes := anchor.Match(olderWelds, newerWelds)
			corr := correction.Build(anchorRes.Anchors, olderFeatures)
			computed[i] = pairCompute{older: older, anchor: anchorRes, corr: corr}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("orchestrator: computing anchor corrections: %w", err)
	}

	var (
		out  []pairState
		logs []*core.AuditLog
	)

	for _, c := range computed {
		older, res, corr := c.older, c.anchor, c.corr

		for i := range res.Exceptions {
			res.Exceptions[i].ID = o.nextID("exc")
			res.Exceptions[i].JobID = jobID
		}
		if err := o.Store.InsertExceptions(ctx, jobID, toExceptionPtrs(res.Exceptions), o.Config.PersistBatchSize); err != nil {
			return nil, fmt.Errorf("orchestrator: persisting anchor exceptions for run %s: %w", older.ID, err)
		}

		segs := make([]*core.CorrectionSegment, len(corr.Segments))
		for i := range corr.Segments {
			seg := corr.Segments[i]
			segs[i] = &seg
		}
		if err := o.Store.InsertCorrectionSegments(ctx, jobID, segs); err != nil {
			return nil, fmt.Errorf("orchestrator: persisting correction segments for run %s: %w", older.ID, err)
		}
		if err := o.Store.BulkUpdateFeatureDistances(ctx, corr.Corrected, o.Config.PersistBatchSize); err != nil {
			return nil, fmt.Errorf("orchestrator: updating corrected distances for run %s: %w", older.ID, err)
		}
		for _, f := range state.featuresByRun[older.ID] {
			if d, ok := corr.Corrected[f.ID]; ok {
				v := d
				f.CorrectedDistanceFt = &v
			}
		}

		logs = append(logs, o.newAuditLog(StageNames[1], ActionAlgoEnsemble, "anchor match computed", map[string]interface{}{
			"older_run_id": older.ID, "anchors": len(res.Anchors), "exceptions": len(res.Exceptions),
		}))

		out = append(out, pairState{
			olderRun:     older,
			newerRun:     baseline,
			anchors:      res.Anchors,
			segments:     corr.Segments,
			yearsBetween: yearsBetween(older.InspectionDate, baseline.InspectionDate),
		})
	}

	return out, o.flushAuditLogs(ctx, jobID, logs)
}

func yearsBetween(older, newer time.Time) float64 {
	return newer.Sub(older).Hours() / (24 * 365.25)
}

func toExceptionPtrs(exs []core.Exception) []*core.Exception {
	out := make([]*core.Exception, len(exs))
	for i := range exs {
		out[i] = &exs[i]
	}
	return out
}

// doAnomalyMatching runs anomaly matching for every older-run/baseline
// pair: it builds the matcher.Input per pair (the temporal signal is left
// empty on the first pass; Run-3 recomputes match history) and accumulates
// MatchedPairs and UNMATCHED exceptions across all pairs for the job.
func (o *Orchestrator) doAnomalyMatching(ctx context.Context, jobID string, state *pipelineState, pairResults []pairState) ([]core.MatchedPair, []core.Exception, error) {
	var (
		pairs      []core.MatchedPair
		exceptions []core.Exception
	)
	weights := o.Config.ToEnsembleWeights()

	for _, pr := range pairResults {
		in := matcher.Input{
			JobID:          jobID,
			OlderRunID:     pr.olderRun.ID,
			NewerRunID:     pr.newerRun.ID,
			Anchors:        pr.anchors,
			OlderFeatures:  anomalyFeatures(state.featuresByRun[pr.olderRun.ID]),
			NewerFeatures:  anomalyFeatures(state.featuresByRun[pr.newerRun.ID]),
			YearsBetween:   pr.yearsBetween,
			Weights:        weights,
			SegmentSignals: pr.segmentSignals,
		}
		res := matcher.Match(in)
		o.augmentMatchConfidence(ctx, res.Pairs)
		for i := range res.Pairs {
			res.Pairs[i].ID = o.nextID("match")
			res.Pairs[i].JobID = jobID
		}
		for i := range res.Exceptions {
			res.Exceptions[i].ID = o.nextID("exc")
			res.Exceptions[i].JobID = jobID
		}
		pairs = append(pairs, res.Pairs...)
		exceptions = append(exceptions, res.Exceptions...)
	}

	if err := o.Store.InsertMatchedPairs(ctx, jobID, toMatchedPairPtrs(pairs), o.Config.PersistBatchSize); err != nil {
		return nil, nil, fmt.Errorf("orchestrator: persisting matched pairs: %w", err)
	}
	if err := o.Store.InsertExceptions(ctx, jobID, toExceptionPtrs(exceptions), o.Config.PersistBatchSize); err != nil {
		return nil, nil, fmt.Errorf("orchestrator: persisting unmatched exceptions: %w", err)
	}
	return pairs, exceptions, nil
}

// augmentMatchConfidence applies the ML-augmentation blend to every pair's
// deterministic ensemble score, using the process-wide provider installed
// for this job (a no-op passthrough when ML is disabled or the provider
// errors — the deterministic score always stands unchanged).
func (o *Orchestrator) augmentMatchConfidence(ctx context.Context, pairs []core.MatchedPair) {
	if !o.Config.EnableML {
		return
	}
	provider := oracle.CurrentProvider()
	for i := range pairs {
		p := &pairs[i]
		cand := oracle.MLCandidate{
			Kind: "feature_pair",
			Description: fmt.Sprintf("distance_residual_ft=%.2f type_compat=%.2f dimensional=%.2f",
				p.DistanceResidualFt, p.TypeCompatibility, p.DimensionalSimilarity),
			DetScore: p.ConfidenceScore,
		}
		res, err := provider.ScoreFeaturePair(ctx, cand)
		if err != nil {
			continue
		}
		p.ConfidenceScore = oracle.Blend(p.ConfidenceScore, res)
		p.ConfidenceCategory = core.CategoryForScore(p.ConfidenceScore)
	}
}

func toMatchedPairPtrs(pairs []core.MatchedPair) []*core.MatchedPair {
	out := make([]*core.MatchedPair, len(pairs))
	for i := range pairs {
		out[i] = &pairs[i]
	}
	return out
}

// doRun3 runs the post-match refinement pass once over the baseline run's
// anomalies, using every older run's matches and unmatched exceptions as
// its cross-run history.
func (o *Orchestrator) doRun3(ctx context.Context, jobID string, state *pipelineState, pairs []core.MatchedPair, exceptions []core.Exception) ([]core.MatchedPair, []core.Exception, error) {
	baseline := state.baseline()
	in := run3.Input{
		BaselineRunID:        baseline.ID,
		BaselineFeatures:     anomalyFeatures(state.featuresByRun[baseline.ID]),
		Pairs:                pairs,
		Exceptions:           exceptions,
		OlderRunOrder:        state.olderRunOrder(),
		NeighborhoodRadiusFt: o.Config.NeighborhoodRadiusFt,
		ClusterThreshold:     o.Config.ClusterUnmatchedThreshold,
		MinDimensionalFields: run3.DefaultMinDimensionalFields,
	}
	res := run3.Refine(in)
	for i := range res.Exceptions {
		if res.Exceptions[i].ID == "" {
			res.Exceptions[i].ID = o.nextID("exc")
		}
		res.Exceptions[i].JobID = jobID
	}
	if err := o.flushAuditLogs(ctx, jobID, []*core.AuditLog{
		o.newAuditLog(StageNames[4], ActionRun3Refinement, "run-3 refinement applied",
			map[string]interface{}{"pairs": len(res.Pairs), "exceptions": len(res.Exceptions)}),
	}); err != nil {
		return nil, nil, err
	}
	return res.Pairs, res.Exceptions, nil
}

// doStandards applies the standards engine to every MatchedPair, attaching
// the StandardsApplied annotation and emitting INTERACTION_ZONE /
// IMMEDIATE_SEVERITY / ACCELERATED_GROWTH exceptions. interactionResult
// supplies the combined-depth lookup the standards engine needs from the
// interaction graph (see the ordering note on RunJob).
func (o *Orchestrator) doStandards(ctx context.Context, jobID string, state *pipelineState, pairs []core.MatchedPair, exceptions []core.Exception, interactionResult interaction.Result) ([]core.MatchedPair, []core.Exception, error) {
	clusterByFeature := make(map[string]interaction.Cluster, len(interactionResult.Clusters))
	for _, c := range interactionResult.Clusters {
		for _, fid := range c.FeatureIDs {
			clusterByFeature[fid] = c
		}
	}

	for i := range pairs {
		p := pairs[i]
		older := state.featuresByID[p.OlderFeatureID]
		newer := state.featuresByID[p.NewerFeatureID]
		if older == nil || newer == nil {
			continue
		}
		run := runByID(state, p.NewerRunID)
		var qual core.ToolQualification
		if run != nil {
			qual = run.ToolQualification
		}

		inZone := false
		var combinedDepth *float64
		if c, ok := clusterByFeature[p.NewerFeatureID]; ok {
			inZone = true
			combinedDepth = c.CombinedDepth
		}

		in := standards.Input{
			Pair:                 p,
			OlderFeature:         older,
			NewerFeature:         newer,
			ToolQualification:    qual,
			InteractionZone:      inZone,
			CombinedDepthPercent: combinedDepth,
			OdometerDocumented:   run != nil && run.StartOdometerFt != 0,
			EnsembleScored:       true,
			MethodologySteps:     []string{"anchor_correction", "ensemble_matching", "run3_refinement"},
		}
		res := standards.Compute(in)
		pairs[i].StandardsApplied = &res.Standards
		for j := range res.Exceptions {
			res.Exceptions[j].ID = o.nextID("exc")
			res.Exceptions[j].JobID = jobID
		}
		exceptions = append(exceptions, res.Exceptions...)
	}

	if err := o.Store.InsertMatchedPairs(ctx, jobID, toMatchedPairPtrs(pairs), o.Config.PersistBatchSize); err != nil {
		return nil, nil, fmt.Errorf("orchestrator: persisting standards-annotated pairs: %w", err)
	}
	if err := o.Store.InsertExceptions(ctx, jobID, toExceptionPtrs(exceptions), o.Config.PersistBatchSize); err != nil {
		return nil, nil, fmt.Errorf("orchestrator: persisting standards exceptions: %w", err)
	}
	if err := o.flushAuditLogs(ctx, jobID, []*core.AuditLog{
		o.newAuditLog(StageNames[5], ActionStandardsAssessment, "standards assessment applied",
			map[string]interface{}{"pairs": len(pairs)}),
		o.newAuditLog(StageNames[5], ActionPHMSACompliance, "phmsa compliance record attached",
			map[string]interface{}{"pairs": len(pairs)}),
	}); err != nil {
		return nil, nil, err
	}
	return pairs, exceptions, nil
}

func runByID(state *pipelineState, runID string) *core.Run {
	for _, r := range state.runs {
		if r.ID == runID {
			return r
		}
	}
	return nil
}

// doVisibility scores every anomaly feature across the job's full run set,
// with MatchConfidence/PartnerMap derived from the final matched pairs.
func (o *Orchestrator) doVisibility(state *pipelineState, pairs []core.MatchedPair, exceptions []core.Exception) (visibility.Result, error) {
	partners := make(map[string][]string)
	scores := make(map[string]float64)
	for _, p := range pairs {
		partners[p.OlderFeatureID] = append(partners[p.OlderFeatureID], p.NewerFeatureID)
		partners[p.NewerFeatureID] = append(partners[p.NewerFeatureID], p.OlderFeatureID)
		scores[p.OlderFeatureID] = p.ConfidenceScore
		scores[p.NewerFeatureID] = p.ConfidenceScore
	}

	in := visibility.Input{
		Features:        state.allAnomalies(),
		BaselineRunID:   state.baseline().ID,
		PartnerMap:      partners,
		MatchScores:     scores,
		TotalRuns:       len(state.runs),
		Exceptions:      exceptions,
		FullThreshold:   o.Config.VisibilityFullThreshold,
		DimmedThreshold: o.Config.VisibilityDimmedThreshold,
		Weights:         visibility.DefaultWeights,
	}
	return visibility.Score(in), nil
}

// doExport flattens the job's matches, exceptions and audit logs to CSV
// plus a multi-sheet workbook in exportDir.
func (o *Orchestrator) doExport(ctx context.Context, jobID, exportDir string, pairs []core.MatchedPair, exceptions []core.Exception, state *pipelineState) error {
	matchRows := make([]map[string]string, len(pairs))
	for i, p := range pairs {
		matchRows[i] = export.FlattenMatch(p)
	}

	pairByNewerFeature := make(map[string]core.MatchedPair, len(pairs))
	for _, p := range pairs {
		pairByNewerFeature[p.NewerFeatureID] = p
	}

	exceptionRows := make([]map[string]string, len(exceptions))
	for i, e := range exceptions {
		var pairPtr *core.MatchedPair
		if p, ok := pairByNewerFeature[e.FeatureID]; ok {
			pairPtr = &p
		}
		feature := state.featuresByID[e.FeatureID]
		var run *core.Run
		if feature != nil {
			run = runByID(state, feature.RunID)
		}
		exceptionRows[i] = export.FlattenException(e, pairPtr, feature, run)
	}

	logs, err := o.Store.AuditLogsByJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("orchestrator: loading audit logs for export: %w", err)
	}
	auditRows := make([]map[string]string, len(logs))
	for i, l := range logs {
		auditRows[i] = export.FlattenAuditLog(*l)
	}

	if _, err := export.WriteMatchesCSV(exportDir, matchRows); err != nil {
		return fmt.Errorf("orchestrator: writing matches csv: %w", err)
	}
	if _, err := export.WriteExceptionsCSV(exportDir, exceptionRows); err != nil {
		return fmt.Errorf("orchestrator: writing exceptions csv: %w", err)
	}
	if _, err := export.WriteWorkbook(exportDir, jobID, matchRows, exceptionRows, auditRows); err != nil {
		return fmt.Errorf("orchestrator: writing workbook: %w", err)
	}
	return nil
}
