package export_test

import (
	"strings"
	"testing"

	"github.com/pipeintel/ilialign/core"
	"github.com/pipeintel/ilialign/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePair() core.MatchedPair {
	depthGrowth := 1.5
	return core.MatchedPair{
		ID:                 "m1",
		JobID:              "job-1",
		OlderFeatureID:     "run-2015-f1",
		NewerFeatureID:     "run-2022-f1",
		OlderRunID:         "run-2015",
		NewerRunID:         "run-2022",
		DistanceResidualFt: 0.5,
		ConfidenceScore:    82.3,
		ConfidenceCategory: core.ConfidenceHigh,
		MatchCategory:      core.MatchAutoMatched,
		DepthGrowthPctPerYr: &depthGrowth,
		YearsBetween:        7,
		CompetingOlderIDs:   []string{"run-2015-f2", "run-2015-f3"},
		StandardsApplied: &core.StandardsApplied{
			Severity:             "SCHEDULED",
			RepairRecommendation: "SLEEVE",
			AdjustedConfidence:   85,
			GrowthClass:          "growing",
			ReassessmentYears:    5,
			PHMSA: core.PHMSARecord{
				OdometerDocumented: true,
				EnsembleScored:     true,
				MethodologySteps:   []string{"ensemble", "hungarian"},
				StandardsApplied:   []string{"ASME_B31.8S", "NACE_SP0502"},
				AuditReady:         true,
			},
		},
	}
}

func TestFlattenMatchCoversAllColumns(t *testing.T) {
	row := export.FlattenMatch(samplePair())
	for _, c := range export.MatchColumns {
		_, ok := row[c]
		assert.True(t, ok, "missing column %s", c)
	}
	assert.Equal(t, "run-2015-f2;run-2015-f3", row["competing_older_ids"])
	assert.Equal(t, "ensemble;hungarian", row["standards_applied.phmsa.methodology_steps"])
	assert.Equal(t, "true", row["standards_applied.phmsa.audit_ready"])
}

func TestFlattenMatchNilStandardsLeavesEmptyKeys(t *testing.T) {
	p := samplePair()
	p.StandardsApplied = nil
	row := export.FlattenMatch(p)
	assert.Equal(t, "", row["standards_applied.severity"])
	assert.Equal(t, "", row["standards_applied.phmsa.audit_ready"])
}

func TestRenderCSVEscapesSpecialCharacters(t *testing.T) {
	rows := []map[string]string{
		{"a": "has,comma", "b": "has\"quote", "c": "plain"},
	}
	out := export.RenderCSV([]string{"a", "b", "c"}, rows)
	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\r\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"has,comma"`)
	assert.Contains(t, lines[1], `"has""quote"`)
}

func TestRenderCSVAppendsSortedExtraKeys(t *testing.T) {
	rows := []map[string]string{
		{"a": "1", "zeta": "z", "beta": "b"},
	}
	out := export.RenderCSV([]string{"a"}, rows)
	header := strings.Split(out, "\r\n")[0]
	assert.Equal(t, "a,beta,zeta", header)
}

func TestFlattenExceptionReusesMatchColumnsAndAppendsContext(t *testing.T) {
	pair := samplePair()
	feature := &core.Feature{
		CanonicalType: core.EventMetalLoss,
		LogDistanceFt: 150.0,
	}
	run := &core.Run{InspectionYear: 2022, Label: "2022 run", Vendor: "Acme", ToolType: core.ToolMFL}
	exc := core.Exception{Category: core.ExcMultiRunMatch, Severity: core.SeverityLow, Details: map[string]interface{}{"note": "secondary"}}

	row := export.FlattenException(exc, &pair, feature, run)
	assert.Equal(t, "82.3", row["confidence_score"])
	assert.Equal(t, "METAL_LOSS", row["feature_canonical_type"])
	assert.Equal(t, "2022", row["run_year"])
	assert.Equal(t, "MULTI_RUN_MATCH", row["exception_category"])
	assert.Contains(t, row["exception_details_json"], "secondary")
}

func TestFlattenExceptionWithoutPairLeavesMatchColumnsEmpty(t *testing.T) {
	exc := core.Exception{Category: core.ExcUnmatched, Severity: core.SeverityMedium}
	row := export.FlattenException(exc, nil, nil, nil)
	assert.Equal(t, "", row["confidence_score"])
	assert.Equal(t, "UNMATCHED", row["exception_category"])
}
