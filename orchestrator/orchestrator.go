package orchestrator

import (
	"context"
	"fmt"
	"sort"

	"github.com/pipeintel/ilialign/core"
	"github.com/pipeintel/ilialign/interaction"
	"github.com/pipeintel/ilialign/matcher"
	"github.com/pipeintel/ilialign/normalize"
	"github.com/pipeintel/ilialign/oracle"
	"github.com/pipeintel/ilialign/visibility"
)

// RunJob drives the full pipeline for one job: it ingests/normalizes every
// raw run, aligns each older run against the newest ("baseline") run,
// matches anomalies, refines and assesses the result, scores visibility,
// and exports the artifacts.
//
// Data flows ingest -> normalize -> (anchor, alignment) per pair ->
// correction -> matching -> refinement -> standards -> interaction graph
// -> visibility -> export. The interaction graph that the standards
// stage's interaction-zone lookup needs is computed once, ahead of that
// stage; its stage-status/audit bookkeeping is still emitted at its
// declared position in StageNames — the algorithm itself runs once, not
// twice.
//
// RunJob itself returns a non-nil error only for failures in job/audit
// bookkeeping against the store; a pipeline stage failure is recorded on
// the Job record (status FAILED, last stage, error message) and RunJob
// returns that Job with a nil error — a failed stage never blocks future
// jobs on the same dataset.
func (o *Orchestrator) RunJob(ctx context.Context, in RunInput) (*core.Job, error) {
	job := &core.Job{ID: in.JobID, DatasetID: in.DatasetID, Status: core.JobPending}
	if err := o.Store.UpsertJob(ctx, job); err != nil {
		return nil, fmt.Errorf("orchestrator: upserting job: %w", err)
	}
	if err := o.flushAuditLogs(ctx, in.JobID, []*core.AuditLog{
		o.newAuditLog("", ActionJobCreated, "job created", map[string]interface{}{"dataset_id": in.DatasetID}),
	}); err != nil {
		return nil, err
	}

	if o.Config.EnableML && o.ML != nil {
		oracle.SetProvider(o.ML)
	} else {
		oracle.ResetProvider()
	}
	defer oracle.ResetProvider()
	if err := o.flushAuditLogs(ctx, in.JobID, []*core.AuditLog{
		o.newAuditLog("", ActionMLHooksStatus, "ml augmentation hook status", map[string]interface{}{"enabled": o.Config.EnableML}),
	}); err != nil {
		return nil, err
	}

	var (
		state       *pipelineState
		pairResults []pairState
		pairs       []core.MatchedPair
		exceptions  []core.Exception
		visResult   visibility.Result
	)

	if ok, err := o.runStage(ctx, job, 1, func() (err error) {
		state, err = o.doIngestNormalize(ctx, in)
		return err
	}); err != nil {
		return nil, err
	} else if !ok {
		return job, nil
	}

	if ok, err := o.runStage(ctx, job, 2, func() (err error) {
		pairResults, err = o.doAnchorCorrection(ctx, job.ID, state)
		return err
	}); err != nil {
		return nil, err
	} else if !ok {
		return job, nil
	}

	var alignmentLogs []*core.AuditLog
	if ok, err := o.runStage(ctx, job, 3, func() error {
		for i := range pairResults {
			signals, logs := o.buildSegmentSignals(
				pairResults[i].anchors,
				referenceFeatures(state.featuresByRun[pairResults[i].olderRun.ID]),
				referenceFeatures(state.featuresByRun[pairResults[i].newerRun.ID]),
				anomalyFeatures(state.featuresByRun[pairResults[i].olderRun.ID]),
				anomalyFeatures(state.featuresByRun[pairResults[i].newerRun.ID]),
			)
			pairResults[i].segmentSignals = signals
			alignmentLogs = append(alignmentLogs, logs...)
		}
		return o.flushAuditLogs(ctx, job.ID, alignmentLogs)
	}); err != nil {
		return nil, err
	} else if !ok {
		return job, nil
	}

	if ok, err := o.runStage(ctx, job, 4, func() (err error) {
		pairs, exceptions, err = o.doAnomalyMatching(ctx, job.ID, state, pairResults)
		return err
	}); err != nil {
		return nil, err
	} else if !ok {
		return job, nil
	}

	if ok, err := o.runStage(ctx, job, 5, func() (err error) {
		pairs, exceptions, err = o.doRun3(ctx, job.ID, state, pairs, exceptions)
		return err
	}); err != nil {
		return nil, err
	} else if !ok {
		return job, nil
	}

	interactionResult := interaction.Build(interaction.Input{Features: state.allAnomalies(), MatchPairs: pairs})

	if ok, err := o.runStage(ctx, job, 6, func() (err error) {
		pairs, exceptions, err = o.doStandards(ctx, job.ID, state, pairs, exceptions, interactionResult)
		return err
	}); err != nil {
		return nil, err
	} else if !ok {
		return job, nil
	}

	if ok, err := o.runStage(ctx, job, 7, func() error {
		return o.flushAuditLogs(ctx, job.ID, []*core.AuditLog{
			o.newAuditLog(StageNames[6], "INTERACTION_GRAPH_BUILT", "interaction graph built",
				map[string]interface{}{"edges": len(interactionResult.Edges), "clusters": len(interactionResult.Clusters)}),
		})
	}); err != nil {
		return nil, err
	} else if !ok {
		return job, nil
	}

	if ok, err := o.runStage(ctx, job, 8, func() (err error) {
		visResult, err = o.doVisibility(state, pairs, exceptions)
		return err
	}); err != nil {
		return nil, err
	} else if !ok {
		return job, nil
	}

	if ok, err := o.runStage(ctx, job, 9, func() error {
		return o.doExport(ctx, job.ID, in.ExportDir, pairs, exceptions, state)
	}); err != nil {
		return nil, err
	} else if !ok {
		return job, nil
	}

	visibleCount := 0
	for _, fv := range visResult.ByFeatureID {
		if fv.State == visibility.StateFull {
			visibleCount++
		}
	}

	job.Status = core.JobDone
	job.ResultSummary = map[string]interface{}{
		"matched_pairs":    len(pairs),
		"exceptions":       len(exceptions),
		"visible_features": visibleCount,
	}
	if err := o.Store.UpsertJob(ctx, job); err != nil {
		return job, fmt.Errorf("orchestrator: finalizing job: %w", err)
	}
	return job, nil
}

// runStage wraps body with the standard stage bookkeeping: STAGE_STARTED,
// the body, then either STAGE_FINISHED (ok=true) or a FAILED stage status
// that short-circuits the job (ok=false, err=nil — the failure itself is
// not a Go error).
func (o *Orchestrator) runStage(ctx context.Context, job *core.Job, idx int, body func() error) (bool, error) {
	started, err := o.startStage(ctx, job.ID, idx)
	if err != nil {
		return false, err
	}
	if bodyErr := body(); bodyErr != nil {
		if err := o.failStage(ctx, job.ID, idx, started, bodyErr); err != nil {
			return false, err
		}
		job.Status = core.JobFailed
		job.CurrentStage = idx
		job.Error = bodyErr.Error()
		return false, nil
	}
	if err := o.finishStage(ctx, job.ID, idx, started); err != nil {
		return false, err
	}
	return true, nil
}

// pipelineState accumulates the per-run artifacts every later stage reads;
// each stage reads the persisted model of the prior stage only.
type pipelineState struct {
	runs          []*core.Run // ascending by InspectionYear; last is baseline
	featuresByRun map[string][]*core.Feature
	featuresByID  map[string]*core.Feature
	dataset       *core.Dataset
}

func (s *pipelineState) baseline() *core.Run { return s.runs[len(s.runs)-1] }

func (s *pipelineState) allAnomalies() []*core.Feature {
	var out []*core.Feature
	for _, run := range s.runs {
		out = append(out, anomalyFeatures(s.featuresByRun[run.ID])...)
	}
	return out
}

func (s *pipelineState) olderRunOrder() []string {
	ids := make([]string, 0, len(s.runs)-1)
	for _, r := range s.runs[:len(s.runs)-1] {
		ids = append(ids, r.ID)
	}
	return ids
}

func referenceFeatures(features []*core.Feature) []*core.Feature {
	var out []*core.Feature
	for _, f := range features {
		if f.IsReferencePoint {
			out = append(out, f)
		}
	}
	return out
}

func anomalyFeatures(features []*core.Feature) []*core.Feature {
	var out []*core.Feature
	for _, f := range features {
		if !f.IsReferencePoint {
			out = append(out, f)
		}
	}
	return out
}

// pairState is one older-run-vs-baseline alignment's intermediate output,
// threaded from anchor/correction through to anomaly matching.
type pairState struct {
	olderRun       *core.Run
	newerRun       *core.Run // always the baseline
	anchors        []core.AnchorPair
	segments       []core.CorrectionSegment
	yearsBetween   float64
	segmentSignals map[int]matcher.SegmentSignal
}

// doIngestNormalize ingests and normalizes every raw run via
// normalize.NormalizeRun and persists the resulting Run/Feature/Dataset
// records.
func (o *Orchestrator) doIngestNormalize(ctx context.Context, in RunInput) (*pipelineState, error) {
	ds := &core.Dataset{ID: in.DatasetID}
	state := &pipelineState{featuresByRun: map[string][]*core.Feature{}, featuresByID: map[string]*core.Feature{}, dataset: ds}

	for _, raw := range in.RawRuns {
		run, features := normalize.NormalizeRun(ctx, raw, o.Oracle)
		run.ToolQualification = toolQualificationFor(run.ToolType)

		if err := o.Store.InsertRun(ctx, run); err != nil {
			return nil, fmt.Errorf("orchestrator: persisting run %s: %w", run.ID, err)
		}
		if err := o.Store.InsertFeatures(ctx, features); err != nil {
			return nil, fmt.Errorf("orchestrator: persisting features for run %s: %w", run.ID, err)
		}
		normalize.AggregateDataset(ds, run)

		state.runs = append(state.runs, run)
		state.featuresByRun[run.ID] = features
		for _, f := range features {
			state.featuresByID[f.ID] = f
		}
	}

	if len(state.runs) < 1 {
		return nil, fmt.Errorf("orchestrator: no runs ingested")
	}

	if err := o.Store.InsertDataset(ctx, ds); err != nil {
		return nil, fmt.Errorf("orchestrator: persisting dataset: %w", err)
	}

	sort.SliceStable(state.runs, func(i, j int) bool {
		return state.runs[i].InspectionYear < state.runs[j].InspectionYear
	})
	return state, nil
}
