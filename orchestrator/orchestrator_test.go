package orchestrator_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pipeintel/ilialign/config"
	"github.com/pipeintel/ilialign/core"
	"github.com/pipeintel/ilialign/ingest"
	"github.com/pipeintel/ilialign/orchestrator"
	"github.com/pipeintel/ilialign/store"
)

var headers2022 = []string{
	"joint_number", "joint_length_ft", "wall_thickness_in",
	"dist_to_upstream_weld_ft", "dist_to_downstream_weld_ft",
	"log_distance_ft", "event_type", "depth_percent", "depth_in",
	"length_in", "width_in", "clock_position", "elevation_ft", "comments",
}

func weldRow(joint int, dist float64) []interface{} {
	return []interface{}{joint, 40.0, 0.25, 0.0, 0.0, dist, "girth weld", nil, nil, nil, nil, "12:00", 0.0, ""}
}

func anomalyRow(joint int, dist, depth float64) []interface{} {
	return []interface{}{joint, 40.0, 0.25, 5.0, 35.0, dist, "metal loss", depth, 0.1, 2.0, 1.0, "3:00", 0.0, "corrosion"}
}

func sampleRun(year int, shiftFt float64) ingest.RawRun {
	rows := [][]interface{}{
		weldRow(1, 0+shiftFt),
		anomalyRow(1, 20+shiftFt, 15.0),
		weldRow(2, 40+shiftFt),
		anomalyRow(2, 60+shiftFt, 18.0),
		weldRow(3, 80+shiftFt),
	}
	return ingest.RawRun{
		Year:              year,
		Label:             "run",
		Vendor:            "acme",
		ToolTypeRaw:       "MFL",
		InspectionDateRaw: "2022-01-01",
		StartOdometerFt:   0,
		EndOdometerFt:     80,
		Headers:           headers2022,
		Rows:              rows,
	}
}

// TestRunJob_EndToEnd drives the full nine-stage pipeline over two
// synthetic runs (an older run and a baseline) and checks the job
// finishes DONE with export artifacts written.
func TestRunJob_EndToEnd(t *testing.T) {
	dir := t.TempDir()

	st := store.New()
	cfg := config.Default()
	orch := orchestrator.New(st, cfg, nil, nil, nil)

	job, err := orch.RunJob(context.Background(), orchestrator.RunInput{
		JobID:     "job-1",
		DatasetID: "dataset-1",
		RawRuns:   []ingest.RawRun{sampleRun(2019, 0), sampleRun(2022, 0.2)},
		ExportDir: dir,
	})
	require.NoError(t, err)
	require.Equal(t, core.JobDone, job.Status)
	require.NotNil(t, job.ResultSummary)

	for _, name := range []string{"matches.csv", "exceptions.csv"} {
		_, statErr := os.Stat(dir + "/" + name)
		require.NoErrorf(t, statErr, "expected export artifact %s", name)
	}

	logs, err := st.AuditLogsByJob(context.Background(), "job-1")
	require.NoError(t, err)
	require.NotEmpty(t, logs)
}

// TestRunJob_FailedStagePropagates checks that an ingest failure (no raw
// runs) marks the job FAILED rather than returning a Go error, per the
// "never block future jobs" contract.
func TestRunJob_FailedStagePropagates(t *testing.T) {
	st := store.New()
	cfg := config.Default()
	orch := orchestrator.New(st, cfg, nil, nil, nil)

	job, err := orch.RunJob(context.Background(), orchestrator.RunInput{
		JobID:     "job-2",
		DatasetID: "dataset-2",
		RawRuns:   nil,
		ExportDir: t.TempDir(),
	})
	require.NoError(t, err)
	require.Equal(t, core.JobFailed, job.Status)
	require.NotEmpty(t, job.Error)
}
