// Package normalize wires the clock, dateparse, columnmap and eventtype
// packages together over one ingested run, producing the persisted Run and
// its Features.
package normalize

import (
	"context"

	"github.com/pipeintel/ilialign/dateparse"
	"github.com/pipeintel/ilialign/eventtype"
)

// Oracle satisfies both the date parser's and the event-type
// canonicalizer's fallback contracts, so a single ML-augmentation provider
// (oracle/) can be threaded through one normalization pass.
type Oracle interface {
	dateparse.Oracle
	eventtype.Oracle
}
