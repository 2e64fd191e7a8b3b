package dtw_test

import (
	"testing"

	"github.com/pipeintel/ilialign/dtw"
	"github.com/stretchr/testify/assert"
)

func TestAlign_BothEmpty(t *testing.T) {
	opts := dtw.DefaultOptions()
	res, err := dtw.Align(nil, nil, &opts)
	assert.NoError(t, err)
	assert.Equal(t, 100.0, res.Confidence)
	assert.Empty(t, res.Path)
}

func TestAlign_OneEmpty(t *testing.T) {
	opts := dtw.DefaultOptions()
	res, err := dtw.Align([]float64{0, 10}, nil, &opts)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, res.Confidence)
}

func TestAlign_IdenticalSpacing(t *testing.T) {
	opts := dtw.DefaultOptions()
	a := []float64{0, 10, 20, 30}
	res, err := dtw.Align(a, a, &opts)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, res.TotalCost)
	assert.InDelta(t, 100.0, res.Confidence, 1e-6)
}

// TestAlign_Stretch reproduces the literal scenario 3 from the spec:
// older spacings [10,10,10,10], newer [10,15,10,5].
func TestAlign_Stretch(t *testing.T) {
	opts := dtw.DefaultOptions() // BandFraction 0.25 -> band=1 for n=m=4
	older := []float64{0, 10, 20, 30, 40}
	newer := []float64{0, 10, 25, 35, 40}

	res, err := dtw.Align(older, newer, &opts)
	assert.NoError(t, err)
	assert.InDelta(t, 10.0, res.TotalCost, 1e-9)
	assert.Len(t, res.Path, 4)
	assert.InDelta(t, 2.5, res.NormalizedCost, 1e-9)
	assert.InDelta(t, 43.46, res.Confidence, 0.1)
}

func TestAlign_BadBandFraction(t *testing.T) {
	opts := dtw.Options{BandFraction: 0}
	_, err := dtw.Align([]float64{0, 1}, []float64{0, 1}, &opts)
	assert.ErrorIs(t, err, dtw.ErrBadInput)
}

func TestAlign_AnchorsIncludeOrigin(t *testing.T) {
	opts := dtw.DefaultOptions()
	a := []float64{0, 10, 20, 30}
	res, err := dtw.Align(a, a, &opts)
	assert.NoError(t, err)
	assert.NotEmpty(t, res.AnchorMappings)
	assert.Equal(t, dtw.Coord{I: 0, J: 0}, res.AnchorMappings[0])
}
