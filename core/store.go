package core

import "context"

// Store is the persistence contract every stage depends on. It makes
// no SQL/ORM assumptions; insertion order is preserved only where
// documented (StageStatus and AuditLog ordering within a job).
//
// Implementations must be safe for concurrent use by multiple jobs; Runs
// and Features are shared read-only across jobs once persisted.
type Store interface {
	InsertRun(ctx context.Context, run *Run) error
	InsertDataset(ctx context.Context, ds *Dataset) error
	InsertFeatures(ctx context.Context, features []*Feature) error

	// BulkUpdateFeatureDistances applies corrected-distance updates (C7) in
	// batches of up to batchSize; a failure of one record never aborts the
	// batch (ordering guarantees).
	BulkUpdateFeatureDistances(ctx context.Context, updates map[string]float64, batchSize int) error

	FeaturesByRun(ctx context.Context, runID string) ([]*Feature, error)
	RunByID(ctx context.Context, runID string) (*Run, error)

	InsertMatchedPairs(ctx context.Context, jobID string, pairs []*MatchedPair, batchSize int) error
	InsertExceptions(ctx context.Context, jobID string, exceptions []*Exception, batchSize int) error
	InsertAuditLogs(ctx context.Context, jobID string, logs []*AuditLog, batchSize int) error

	MatchedPairsByJob(ctx context.Context, jobID string) ([]*MatchedPair, error)
	ExceptionsByJob(ctx context.Context, jobID string) ([]*Exception, error)
	AuditLogsByJob(ctx context.Context, jobID string) ([]*AuditLog, error)
	CorrectionSegmentsByJob(ctx context.Context, jobID string) ([]*CorrectionSegment, error)
	InsertCorrectionSegments(ctx context.Context, jobID string, segments []*CorrectionSegment) error

	UpsertJob(ctx context.Context, job *Job) error
	JobByID(ctx context.Context, jobID string) (*Job, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, currentStage int, progressPct float64, errMsg string) error
	AppendStageStatus(ctx context.Context, jobID string, ss StageStatus) error
}

// DefaultBatchSize is the fallback persist_batch_size.
const DefaultBatchSize = 1000
