package columnmap_test

import (
	"testing"

	"github.com/pipeintel/ilialign/columnmap"
	"github.com/stretchr/testify/assert"
)

func TestResolve_KnownYear2007(t *testing.T) {
	headers := []string{"Joint #", "Joint Len (ft)", "Feature", "O'Clock"}
	m := columnmap.Resolve("2007", headers)
	assert.Equal(t, "Joint #", m["joint_number"])
	assert.Equal(t, "Feature", m["event_type"])
	assert.Equal(t, "O'Clock", m["clock_position"])
}

func TestResolve_NormalizedHeaderMatch(t *testing.T) {
	headers := []string{"Depth  Percent", "Log_Distance_FT"}
	m := columnmap.Resolve("1999", headers)
	assert.Equal(t, "Depth  Percent", m["depth_percent"])
	assert.Equal(t, "Log_Distance_FT", m["log_distance_ft"])
}

func TestResolve_EditDistanceFallback(t *testing.T) {
	headers := []string{"Commnts"} // one edit away from "comments"
	m := columnmap.Resolve("1999", headers)
	assert.Equal(t, "Commnts", m["comments"])
}

func TestResolve_Unresolved(t *testing.T) {
	headers := []string{"Totally Unrelated Field Name Of Great Length"}
	m := columnmap.Resolve("1999", headers)
	assert.Equal(t, "", m["width_in"])
}

func TestResolve_TotalMapping(t *testing.T) {
	m := columnmap.Resolve("2022", []string{})
	for _, f := range columnmap.CanonicalFields {
		_, ok := m[f]
		assert.True(t, ok, "field %s missing from total mapping", f)
	}
}
