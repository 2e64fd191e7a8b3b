package icp_test

import (
	"testing"

	"github.com/pipeintel/ilialign/icp"
	"github.com/stretchr/testify/assert"
)

func TestRefine_EmptyInputs(t *testing.T) {
	opts := icp.DefaultOptions()
	res, err := icp.Refine(nil, []icp.Point{{DistanceFt: 1}}, &opts)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, res.TranslationFt)
	assert.Equal(t, 0.0, res.TranslationClk)

	res, err = icp.Refine([]icp.Point{{DistanceFt: 1}}, nil, &opts)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, res.TranslationFt)
}

func TestRefine_PerfectAlignment(t *testing.T) {
	opts := icp.DefaultOptions()
	pts := []icp.Point{{DistanceFt: 10, ClockHr: 3}, {DistanceFt: 20, ClockHr: 6}}
	res, err := icp.Refine(pts, pts, &opts)
	assert.NoError(t, err)
	assert.InDelta(t, 0, res.TranslationFt, 1e-6)
	assert.InDelta(t, 0, res.RMSE, 1e-6)
	assert.True(t, res.Converged)
	assert.InDelta(t, 100, res.Confidence, 1e-6)
}

func TestRefine_ConstantOffset(t *testing.T) {
	opts := icp.DefaultOptions()
	source := []icp.Point{{DistanceFt: 10, ClockHr: 3}, {DistanceFt: 20, ClockHr: 3}}
	target := []icp.Point{{DistanceFt: 12, ClockHr: 3}, {DistanceFt: 22, ClockHr: 3}}
	res, err := icp.Refine(source, target, &opts)
	assert.NoError(t, err)
	assert.InDelta(t, 2.0, res.TranslationFt, 0.05)
}

func TestRefine_BadOptions(t *testing.T) {
	bad := icp.Options{}
	_, err := icp.Refine([]icp.Point{{DistanceFt: 1}}, []icp.Point{{DistanceFt: 1}}, &bad)
	assert.ErrorIs(t, err, icp.ErrBadInput)
}

func TestRefine_ClockWrap(t *testing.T) {
	opts := icp.DefaultOptions()
	// Most points straddle the 0/12 boundary, so unwrapping kicks in.
	source := []icp.Point{{DistanceFt: 5, ClockHr: 11.5}, {DistanceFt: 6, ClockHr: 0.5}, {DistanceFt: 7, ClockHr: 11.8}}
	target := []icp.Point{{DistanceFt: 5, ClockHr: 11.5}, {DistanceFt: 6, ClockHr: 0.5}, {DistanceFt: 7, ClockHr: 11.8}}
	res, err := icp.Refine(source, target, &opts)
	assert.NoError(t, err)
	assert.InDelta(t, 0, res.RMSE, 1e-6)
}
