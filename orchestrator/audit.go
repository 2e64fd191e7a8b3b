package orchestrator

import (
	"context"
	"time"

	"github.com/pipeintel/ilialign/core"
)

func (o *Orchestrator) newAuditLog(stage, action, message string, details map[string]interface{}) *core.AuditLog {
	return &core.AuditLog{
		ID:        o.nextID("audit"),
		Stage:     stage,
		Action:    action,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Details:   details,
	}
}

// flushAuditLogs persists logs for jobID in batches of the configured
// persist batch size.
func (o *Orchestrator) flushAuditLogs(ctx context.Context, jobID string, logs []*core.AuditLog) error {
	for _, l := range logs {
		l.JobID = jobID
	}
	return o.Store.InsertAuditLogs(ctx, jobID, logs, o.Config.PersistBatchSize)
}

// startStage records STAGE_STARTED, marks the job RUNNING at the given
// stage index, and returns the started_at timestamp for finishStage.
func (o *Orchestrator) startStage(ctx context.Context, jobID string, idx int) (time.Time, error) {
	started := time.Now().UTC()
	name := StageNames[idx-1]
	if err := o.Store.AppendStageStatus(ctx, jobID, core.StageStatus{
		Stage: idx, Name: name, Status: core.StageRunning, StartedAt: &started,
	}); err != nil {
		return started, err
	}
	if err := o.flushAuditLogs(ctx, jobID, []*core.AuditLog{
		o.newAuditLog(name, ActionStageStarted, "stage started", map[string]interface{}{"stage": idx}),
	}); err != nil {
		return started, err
	}
	return started, o.Store.UpdateJobStatus(ctx, jobID, core.JobRunning, idx, float64(idx-1)/float64(len(StageNames)), "")
}

// finishStage records STAGE_FINISHED and advances progress to idx/N.
func (o *Orchestrator) finishStage(ctx context.Context, jobID string, idx int, started time.Time) error {
	finished := time.Now().UTC()
	name := StageNames[idx-1]
	if err := o.Store.AppendStageStatus(ctx, jobID, core.StageStatus{
		Stage: idx, Name: name, Status: core.StageDone, StartedAt: &started, FinishedAt: &finished,
	}); err != nil {
		return err
	}
	if err := o.flushAuditLogs(ctx, jobID, []*core.AuditLog{
		o.newAuditLog(name, ActionStageFinished, "stage finished", map[string]interface{}{"stage": idx}),
	}); err != nil {
		return err
	}
	return o.Store.UpdateJobStatus(ctx, jobID, core.JobRunning, idx, float64(idx)/float64(len(StageNames)), "")
}

// failStage records the stage as FAILED and marks the job FAILED,
// skipping every subsequent stage.
func (o *Orchestrator) failStage(ctx context.Context, jobID string, idx int, started time.Time, cause error) error {
	finished := time.Now().UTC()
	name := StageNames[idx-1]
	msg := cause.Error()
	_ = o.Store.AppendStageStatus(ctx, jobID, core.StageStatus{
		Stage: idx, Name: name, Status: core.StageFailed, Message: msg, StartedAt: &started, FinishedAt: &finished,
	})
	_ = o.flushAuditLogs(ctx, jobID, []*core.AuditLog{
		o.newAuditLog(name, ActionStageFinished, "stage failed: "+msg, map[string]interface{}{"stage": idx}),
	})
	return o.Store.UpdateJobStatus(ctx, jobID, core.JobFailed, idx, float64(idx-1)/float64(len(StageNames)), msg)
}
