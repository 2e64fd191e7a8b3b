// Package correction builds the piecewise-linear offset segments that map
// an older run's log distances onto the newer run's axis and applies them
// to older-run features (C7), using the anchor sequence the matcher (C6)
// produced.
package correction

import "github.com/pipeintel/ilialign/core"

// Result is the output of Build: the ordered segment list plus the
// corrected distance for every older-run feature supplied.
type Result struct {
	Segments []core.CorrectionSegment
	// Corrected maps a Feature ID to its corrected distance.
	Corrected map[string]float64
}
