// Package orchestrator drives the nine-stage alignment-and-assessment
// pipeline end to end for one job: ingest/normalize, per-pair
// anchor/correction/DTW/ICP/match, Run-3 refinement, standards assessment,
// interaction-graph analysis, visibility scoring, and export. Every stage
// transition is recorded as an AuditLog entry; a failed stage marks the
// job FAILED and skips everything after it.
package orchestrator

import (
	"log/slog"
	"sync"

	"github.com/pipeintel/ilialign/config"
	"github.com/pipeintel/ilialign/core"
	"github.com/pipeintel/ilialign/dtw"
	"github.com/pipeintel/ilialign/icp"
	"github.com/pipeintel/ilialign/ingest"
	"github.com/pipeintel/ilialign/normalize"
	"github.com/pipeintel/ilialign/oracle"
)

// StageNames is the fixed, ordered stage list this orchestrator drives;
// StageStatus.Stage is this slice's 1-based index, and ProgressPct after
// stage i is i/len(StageNames).
var StageNames = []string{
	"ingest_normalize",
	"anchor_correction",
	"alignment_refinement",
	"anomaly_matching",
	"run3_refinement",
	"standards_assessment",
	"interaction_graph",
	"visibility_scoring",
	"export",
}

// Audit action names.
const (
	ActionJobCreated         = "JOB_CREATED"
	ActionStageStarted       = "STAGE_STARTED"
	ActionStageFinished      = "STAGE_FINISHED"
	ActionAlgoDTW            = "ALGO_DTW"
	ActionAlgoICP            = "ALGO_ICP"
	ActionAlgoEnsemble       = "ALGO_ENSEMBLE"
	ActionStandardsAssessment = "STANDARDS_ASSESSMENT"
	ActionPHMSACompliance    = "PHMSA_COMPLIANCE"
	ActionRun3Refinement     = "RUN3_REFINEMENT"
	ActionMLHooksStatus      = "ML_HOOKS_STATUS"
)

// Orchestrator wires every stage package against one core.Store and
// config.Config. It holds no job-scoped state between RunJob calls other
// than a monotonic id counter for readability of generated ids.
type Orchestrator struct {
	Store  core.Store
	Config config.Config
	Oracle normalize.Oracle // optional; nil uses the deterministic fast paths only
	ML     oracle.MLProvider // optional; nil leaves the process-wide default (passthrough)
	Logger *slog.Logger

	seqMu sync.Mutex
	seq   int
}

// New builds an Orchestrator. logger defaults to slog.Default() when nil.
func New(store core.Store, cfg config.Config, o normalize.Oracle, ml oracle.MLProvider, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{Store: store, Config: cfg, Oracle: o, ML: ml, Logger: logger}
}

// nextID is safe for concurrent use. doAnchorCorrection's concurrent
// fan-out mints no ids itself; ids are minted afterwards in its sequential
// commit pass, so their order does not depend on goroutine scheduling.
func (o *Orchestrator) nextID(prefix string) string {
	o.seqMu.Lock()
	defer o.seqMu.Unlock()
	o.seq++
	return prefixID(prefix, o.seq)
}

// RunInput is everything RunJob needs to process one dataset's runs into
// export artifacts.
type RunInput struct {
	JobID     string
	DatasetID string
	RawRuns   []ingest.RawRun
	ExportDir string
}

func dtwOptionsFrom(cfg config.Config) *dtw.Options {
	return &dtw.Options{BandFraction: cfg.DTWBandFraction}
}

func icpOptionsFrom(cfg config.Config) *icp.Options {
	return &icp.Options{
		MaxIterations:        cfg.ICPMaxIterations,
		ConvergenceFt:        cfg.ICPConvergenceFt,
		MaxCorrespondenceFt:  cfg.ICPMaxCorrespondenceFt,
		ClockWeightFtPerHour: icp.DefaultOptions().ClockWeightFtPerHour,
	}
}
