package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pipeintel/ilialign/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_OverridesMergeOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ilialign.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enable_ml: true\nneighborhood_radius_ft: 5\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.EnableML)
	assert.Equal(t, 5.0, cfg.NeighborhoodRadiusFt)
	assert.Equal(t, config.Default().ICPMaxIterations, cfg.ICPMaxIterations)
}

func TestValidate_RejectsZeroEnsembleWeights(t *testing.T) {
	cfg := config.Default()
	cfg.EnsembleWeights = config.EnsembleWeights{}
	assert.ErrorIs(t, cfg.Validate(), config.ErrBadEnsembleWeights)
}
