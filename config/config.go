// Package config loads the pipeline's YAML configuration, covering
// every tunable the pipeline exposes: ML augmentation toggle,
// DTW/ICP/run-3/visibility parameters, ensemble weights, persistence
// batching, and the oracle timeout.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pipeintel/ilialign/ensemble"
	"gopkg.in/yaml.v3"
)

// ErrBadEnsembleWeights is returned by Validate when ensemble_weights
// doesn't sum to a positive value.
var ErrBadEnsembleWeights = errors.New("config: ensemble_weights must sum > 0")

// Config is the full set of recognized options and their defaults.
type Config struct {
	EnableML bool `yaml:"enable_ml"`

	DTWBandFraction        float64 `yaml:"dtw_band_fraction"`
	ICPMaxIterations       int     `yaml:"icp_max_iterations"`
	ICPConvergenceFt       float64 `yaml:"icp_convergence_ft"`
	ICPMaxCorrespondenceFt float64 `yaml:"icp_max_correspondence_ft"`

	NeighborhoodRadiusFt      float64 `yaml:"neighborhood_radius_ft"`
	ClusterUnmatchedThreshold int     `yaml:"cluster_unmatched_threshold"`

	VisibilityFullThreshold   int `yaml:"visibility_full_threshold"`
	VisibilityDimmedThreshold int `yaml:"visibility_dimmed_threshold"`

	EnsembleWeights EnsembleWeights `yaml:"ensemble_weights"`

	PersistBatchSize int `yaml:"persist_batch_size"`
	OracleTimeoutMs  int `yaml:"oracle_timeout_ms"`
}

// EnsembleWeights mirrors ensemble.Weights with yaml tags for the 7-tuple
// config knob.
type EnsembleWeights struct {
	Distance    float64 `yaml:"distance"`
	Clock       float64 `yaml:"clock"`
	Dimensional float64 `yaml:"dimensional"`
	Type        float64 `yaml:"type"`
	DTW         float64 `yaml:"dtw"`
	ICP         float64 `yaml:"icp"`
	Temporal    float64 `yaml:"temporal"`
}

func (w EnsembleWeights) toEnsemble() ensemble.Weights {
	return ensemble.Weights{
		Distance: w.Distance, Clock: w.Clock, Dimensional: w.Dimensional,
		Type: w.Type, DTW: w.DTW, ICP: w.ICP, Temporal: w.Temporal,
	}
}

// ToEnsembleWeights converts to the ensemble package's own Weights type.
func (c Config) ToEnsembleWeights() ensemble.Weights {
	return c.EnsembleWeights.toEnsemble()
}

// OracleTimeout returns OracleTimeoutMs as a time.Duration.
func (c Config) OracleTimeout() time.Duration {
	return time.Duration(c.OracleTimeoutMs) * time.Millisecond
}

// Default returns the full default configuration.
func Default() Config {
	def := ensemble.DefaultWeights()
	return Config{
		EnableML: false,

		DTWBandFraction:        0.25,
		ICPMaxIterations:       20,
		ICPConvergenceFt:       0.01,
		ICPMaxCorrespondenceFt: 5.0,

		NeighborhoodRadiusFt:      3.0,
		ClusterUnmatchedThreshold: 3,

		VisibilityFullThreshold:   70,
		VisibilityDimmedThreshold: 40,

		EnsembleWeights: EnsembleWeights{
			Distance: def.Distance, Clock: def.Clock, Dimensional: def.Dimensional,
			Type: def.Type, DTW: def.DTW, ICP: def.ICP, Temporal: def.Temporal,
		},

		PersistBatchSize: 1000,
		OracleTimeoutMs:  5000,
	}
}

// Validate reports ErrBadEnsembleWeights if the 7-tuple doesn't sum > 0;
// all other numeric fields are defensively re-defaulted rather than
// rejected, since a partially-specified YAML file is the common case.
func (c *Config) Validate() error {
	if err := c.ToEnsembleWeights().Validate(); err != nil {
		return ErrBadEnsembleWeights
	}
	def := Default()
	if c.DTWBandFraction <= 0 {
		c.DTWBandFraction = def.DTWBandFraction
	}
	if c.ICPMaxIterations <= 0 {
		c.ICPMaxIterations = def.ICPMaxIterations
	}
	if c.ICPConvergenceFt <= 0 {
		c.ICPConvergenceFt = def.ICPConvergenceFt
	}
	if c.ICPMaxCorrespondenceFt <= 0 {
		c.ICPMaxCorrespondenceFt = def.ICPMaxCorrespondenceFt
	}
	if c.NeighborhoodRadiusFt <= 0 {
		c.NeighborhoodRadiusFt = def.NeighborhoodRadiusFt
	}
	if c.ClusterUnmatchedThreshold <= 0 {
		c.ClusterUnmatchedThreshold = def.ClusterUnmatchedThreshold
	}
	if c.VisibilityFullThreshold <= 0 {
		c.VisibilityFullThreshold = def.VisibilityFullThreshold
	}
	if c.VisibilityDimmedThreshold <= 0 {
		c.VisibilityDimmedThreshold = def.VisibilityDimmedThreshold
	}
	if c.PersistBatchSize <= 0 {
		c.PersistBatchSize = def.PersistBatchSize
	}
	if c.OracleTimeoutMs <= 0 {
		c.OracleTimeoutMs = def.OracleTimeoutMs
	}
	return nil
}

// Load reads a YAML config file at path. A missing file yields the
// default configuration with no error, since an absent project config
// file is not itself a failure.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
