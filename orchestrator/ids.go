package orchestrator

import "fmt"

// prefixID formats a deterministic, monotonically increasing id. IDs are
// sequence-based rather than time- or random-derived so that two runs of
// the same job produce byte-identical output.
func prefixID(prefix string, seq int) string {
	return fmt.Sprintf("%s-%d", prefix, seq)
}
