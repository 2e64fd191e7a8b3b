package dateparse_test

import (
	"context"
	"testing"
	"time"

	"github.com/pipeintel/ilialign/core"
	"github.com/pipeintel/ilialign/dateparse"
	"github.com/stretchr/testify/assert"
)

func TestParse_Empty(t *testing.T) {
	r := dateparse.Parse(context.Background(), nil, 2015, nil)
	assert.Equal(t, core.DateSourceContext, r.Source)
	assert.Equal(t, 0.3, r.Confidence)
	assert.Equal(t, 2015, r.When.Year())

	r = dateparse.Parse(context.Background(), "", 0, nil)
	assert.Equal(t, core.DateSourceNone, r.Source)
	assert.NotEmpty(t, r.Warning)
}

func TestParse_NativeDate(t *testing.T) {
	d := time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC)
	r := dateparse.Parse(context.Background(), d, 0, nil)
	assert.Equal(t, core.DateSourceNative, r.Source)
	assert.Equal(t, 1.0, r.Confidence)
}

func TestParse_ExcelSerial(t *testing.T) {
	// Serial 44000 corresponds to a date in 2020, with the leap-year
	// compensation subtracted since 44000 > 59.
	r := dateparse.Parse(context.Background(), float64(44000), 0, nil)
	assert.Equal(t, core.DateSourceSerial, r.Source)
	assert.Equal(t, 1.0, r.Confidence)
	assert.True(t, r.When.Year() >= 2020 && r.When.Year() <= 2021)
}

func TestParse_UnixSeconds(t *testing.T) {
	r := dateparse.Parse(context.Background(), float64(1600000000), 0, nil)
	assert.Equal(t, core.DateSourceUnix, r.Source)
	assert.Equal(t, 0.7, r.Confidence)
}

func TestParse_ISOString(t *testing.T) {
	r := dateparse.Parse(context.Background(), "2020-03-15", 0, nil)
	assert.Equal(t, core.DateSourceString, r.Source)
	assert.Equal(t, 2020, r.When.Year())
	assert.Equal(t, time.March, r.When.Month())
	assert.Equal(t, 15, r.When.Day())
}

func TestParse_USString(t *testing.T) {
	r := dateparse.Parse(context.Background(), "03/15/2020", 0, nil)
	assert.Equal(t, core.DateSourceString, r.Source)
	assert.Equal(t, 2020, r.When.Year())
	assert.Equal(t, time.March, r.When.Month())
	assert.Equal(t, 15, r.When.Day())
}

func TestParse_TextualMonth(t *testing.T) {
	r := dateparse.Parse(context.Background(), "March 15, 2020", 0, nil)
	assert.Equal(t, core.DateSourceString, r.Source)
	assert.Equal(t, time.March, r.When.Month())
}

func TestParse_DDMonYYYY(t *testing.T) {
	r := dateparse.Parse(context.Background(), "15 Mar 2020", 0, nil)
	assert.Equal(t, core.DateSourceString, r.Source)
	assert.Equal(t, 15, r.When.Day())
}

type fakeOracle struct {
	iso string
	ok  bool
}

func (f fakeOracle) ResolveDate(ctx context.Context, raw string) (string, bool) {
	return f.iso, f.ok
}

func TestParse_OracleFallback(t *testing.T) {
	r := dateparse.Parse(context.Background(), "sometime last spring", 0, fakeOracle{iso: "2019-04-01", ok: true})
	assert.Equal(t, core.DateSourceOracle, r.Source)
	assert.Equal(t, 0.8, r.Confidence)
}

func TestParse_Unresolvable(t *testing.T) {
	r := dateparse.Parse(context.Background(), "garbage input", 0, nil)
	assert.Equal(t, core.DateSourceNone, r.Source)
	assert.NotEmpty(t, r.Warning)
}

func TestParse_OutOfWindowRejected(t *testing.T) {
	r := dateparse.Parse(context.Background(), "2099-01-01", 0, nil)
	assert.Equal(t, core.DateSourceNone, r.Source)
}
