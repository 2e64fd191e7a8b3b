// Package store provides a goroutine-safe in-memory implementation of
// core.Store. It is reference tooling, not
// the contract itself: any real backing store need only implement
// core.Store the same way this one does.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/pipeintel/ilialign/core"
)

// MemStore is an in-memory core.Store, guarded by a single RWMutex in the
// same style as the teacher's Graph adjacency maps
// (adjacency_list.go's mu.Lock()/mu.RUnlock() pairing per method).
type MemStore struct {
	mu sync.RWMutex

	runs     map[string]*core.Run
	datasets map[string]*core.Dataset
	features map[string]*core.Feature
	// featuresByRun preserves insertion order per run.
	featuresByRun map[string][]string

	jobs map[string]*core.Job

	matchedPairs       map[string][]*core.MatchedPair
	exceptions         map[string][]*core.Exception
	auditLogs          map[string][]*core.AuditLog
	correctionSegments map[string][]*core.CorrectionSegment
}

// New returns an empty MemStore.
func New() *MemStore {
	return &MemStore{
		runs:               make(map[string]*core.Run),
		datasets:           make(map[string]*core.Dataset),
		features:           make(map[string]*core.Feature),
		featuresByRun:      make(map[string][]string),
		jobs:               make(map[string]*core.Job),
		matchedPairs:       make(map[string][]*core.MatchedPair),
		exceptions:         make(map[string][]*core.Exception),
		auditLogs:          make(map[string][]*core.AuditLog),
		correctionSegments: make(map[string][]*core.CorrectionSegment),
	}
}

// ErrNotFound is returned by the By-ID lookups when no record exists.
var ErrNotFound = fmt.Errorf("store: not found")

func (s *MemStore) InsertRun(_ context.Context, run *core.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *MemStore) InsertDataset(_ context.Context, ds *core.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ds
	s.datasets[ds.ID] = &cp
	return nil
}

func (s *MemStore) InsertFeatures(_ context.Context, features []*core.Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range features {
		cp := *f
		s.features[f.ID] = &cp
		s.featuresByRun[f.RunID] = append(s.featuresByRun[f.RunID], f.ID)
	}
	return nil
}

// BulkUpdateFeatureDistances applies all corrected-distance updates in a
// single locked pass; batchSize is defaulted but does not split the work
// into batches. An unknown id is skipped without aborting the rest.
func (s *MemStore) BulkUpdateFeatureDistances(_ context.Context, updates map[string]float64, batchSize int) error {
	if batchSize <= 0 {
		batchSize = core.DefaultBatchSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, dist := range updates {
		f, ok := s.features[id]
		if !ok {
			continue
		}
		d := dist
		f.CorrectedDistanceFt = &d
	}
	return nil
}

func (s *MemStore) FeaturesByRun(_ context.Context, runID string) ([]*core.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.featuresByRun[runID]
	out := make([]*core.Feature, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.features[id])
	}
	return out, nil
}

func (s *MemStore) RunByID(_ context.Context, runID string) (*core.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("store: run %q: %w", runID, ErrNotFound)
	}
	return r, nil
}

func (s *MemStore) InsertMatchedPairs(_ context.Context, jobID string, pairs []*core.MatchedPair, batchSize int) error {
	if batchSize <= 0 {
		batchSize = core.DefaultBatchSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matchedPairs[jobID] = append(s.matchedPairs[jobID], pairs...)
	return nil
}

func (s *MemStore) InsertExceptions(_ context.Context, jobID string, exceptions []*core.Exception, batchSize int) error {
	if batchSize <= 0 {
		batchSize = core.DefaultBatchSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exceptions[jobID] = append(s.exceptions[jobID], exceptions...)
	return nil
}

func (s *MemStore) InsertAuditLogs(_ context.Context, jobID string, logs []*core.AuditLog, batchSize int) error {
	if batchSize <= 0 {
		batchSize = core.DefaultBatchSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLogs[jobID] = append(s.auditLogs[jobID], logs...)
	return nil
}

func (s *MemStore) MatchedPairsByJob(_ context.Context, jobID string) ([]*core.MatchedPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*core.MatchedPair(nil), s.matchedPairs[jobID]...), nil
}

func (s *MemStore) ExceptionsByJob(_ context.Context, jobID string) ([]*core.Exception, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*core.Exception(nil), s.exceptions[jobID]...), nil
}

func (s *MemStore) AuditLogsByJob(_ context.Context, jobID string) ([]*core.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*core.AuditLog(nil), s.auditLogs[jobID]...), nil
}

func (s *MemStore) CorrectionSegmentsByJob(_ context.Context, jobID string) ([]*core.CorrectionSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*core.CorrectionSegment(nil), s.correctionSegments[jobID]...), nil
}

func (s *MemStore) InsertCorrectionSegments(_ context.Context, jobID string, segments []*core.CorrectionSegment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.correctionSegments[jobID] = append(s.correctionSegments[jobID], segments...)
	return nil
}

func (s *MemStore) UpsertJob(_ context.Context, job *core.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *MemStore) JobByID(_ context.Context, jobID string) (*core.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("store: job %q: %w", jobID, ErrNotFound)
	}
	return j, nil
}

func (s *MemStore) UpdateJobStatus(_ context.Context, jobID string, status core.JobStatus, currentStage int, progressPct float64, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("store: job %q: %w", jobID, ErrNotFound)
	}
	j.Status = status
	j.CurrentStage = currentStage
	j.ProgressPct = progressPct
	j.Error = errMsg
	return nil
}

func (s *MemStore) AppendStageStatus(_ context.Context, jobID string, ss core.StageStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("store: job %q: %w", jobID, ErrNotFound)
	}
	j.StageStatus = append(j.StageStatus, ss)
	return nil
}

var _ core.Store = (*MemStore)(nil)
