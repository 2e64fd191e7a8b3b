package run3_test

import (
	"testing"

	"github.com/pipeintel/ilialign/core"
	"github.com/pipeintel/ilialign/run3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dims(f *core.Feature, n int) *core.Feature {
	v := 1.0
	if n >= 1 {
		f.DepthIn = &v
	}
	if n >= 2 {
		f.LengthIn = &v
	}
	if n >= 3 {
		f.WidthIn = &v
	}
	return f
}

func TestRefine_NeighborhoodDuplicate(t *testing.T) {
	matched := dims(&core.Feature{ID: "m1", CanonicalType: core.EventMetalLoss, LogDistanceFt: 100}, 2)
	dup := &core.Feature{ID: "u1", CanonicalType: core.EventMetalLoss, LogDistanceFt: 101.5}

	in := run3.Input{
		BaselineFeatures: []*core.Feature{matched, dup},
		Pairs:            []core.MatchedPair{{NewerFeatureID: "m1", OlderRunID: "run-a"}},
		Exceptions:       []core.Exception{{FeatureID: "u1", Category: core.ExcUnmatched}},
		OlderRunOrder:    []string{"run-a"},
	}
	res := run3.Refine(in)

	var found bool
	for _, e := range res.Exceptions {
		if e.FeatureID == "u1" && e.Category == core.ExcNeighborhoodExcess {
			found = true
			assert.Equal(t, core.SeverityLow, e.Severity)
			assert.Equal(t, "NEIGHBORHOOD_DUPLICATE", e.Details["classification"])
		}
	}
	assert.True(t, found)
}

func TestRefine_DenseCluster(t *testing.T) {
	center := &core.Feature{ID: "c", CanonicalType: core.EventDent, LogDistanceFt: 200}
	neighbors := []*core.Feature{
		{ID: "n1", CanonicalType: core.EventDent, LogDistanceFt: 198},
		{ID: "n2", CanonicalType: core.EventDent, LogDistanceFt: 199},
		{ID: "n3", CanonicalType: core.EventDent, LogDistanceFt: 201},
	}
	in := run3.Input{
		BaselineFeatures: append([]*core.Feature{center}, neighbors...),
	}
	res := run3.Refine(in)
	require.NotEmpty(t, res.Exceptions)
	var found bool
	for _, e := range res.Exceptions {
		if e.FeatureID == "c" && e.Category == core.ExcNeighborhoodExcess && e.Details["classification"] == "DENSE_CLUSTER" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRefine_Run3Unsupported(t *testing.T) {
	sparse := &core.Feature{ID: "s1", CanonicalType: core.EventMetalLoss, LogDistanceFt: 500}
	in := run3.Input{
		BaselineFeatures: []*core.Feature{sparse},
		Exceptions:       []core.Exception{{FeatureID: "s1", Category: core.ExcUnmatched}},
	}
	res := run3.Refine(in)
	var found bool
	for _, e := range res.Exceptions {
		if e.FeatureID == "s1" && e.Category == core.ExcRun3Unsupported {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRefine_MultiRunAudit(t *testing.T) {
	pairs := []core.MatchedPair{
		{NewerFeatureID: "b1", OlderRunID: "run-2007"},
		{NewerFeatureID: "b1", OlderRunID: "run-2015"},
	}
	in := run3.Input{
		BaselineFeatures: []*core.Feature{{ID: "b1", CanonicalType: core.EventMetalLoss, LogDistanceFt: 10}},
		Pairs:            pairs,
		OlderRunOrder:    []string{"run-2007", "run-2015"},
	}
	res := run3.Refine(in)

	var primaryCount int
	for _, p := range res.Pairs {
		if p.IsPrimaryMatch {
			primaryCount++
			assert.Equal(t, "run-2015", p.OlderRunID)
		}
	}
	assert.Equal(t, 1, primaryCount)

	var auditFound bool
	for _, e := range res.Exceptions {
		if e.Category == core.ExcMultiRunMatch && e.FeatureID == "b1" {
			auditFound = true
		}
	}
	assert.True(t, auditFound)
}
