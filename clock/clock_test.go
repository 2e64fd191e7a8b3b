package clock_test

import (
	"testing"
	"time"

	"github.com/pipeintel/ilialign/clock"
	"github.com/stretchr/testify/assert"
)

func TestNormalize_Empty(t *testing.T) {
	v := clock.Normalize(nil)
	assert.Equal(t, "", v.Raw)
	assert.Nil(t, v.Decimal)

	v = clock.Normalize("")
	assert.Nil(t, v.Decimal)
}

func TestNormalize_DateTyped(t *testing.T) {
	d := time.Date(2020, 1, 1, 0, 30, 0, 0, time.UTC)
	v := clock.Normalize(d)
	assert.NotNil(t, v.Decimal)
	assert.InDelta(t, 0.5, *v.Decimal, 1e-9)
}

func TestNormalize_FractionalDay(t *testing.T) {
	v := clock.Normalize(0.5) // half a day -> 12:00 -> wraps to 12
	assert.NotNil(t, v.Decimal)
	assert.InDelta(t, 12.0, *v.Decimal, 1e-9)

	v = clock.Normalize(0.25) // quarter day -> 6:00
	assert.InDelta(t, 6.0, *v.Decimal, 1e-9)
}

func TestNormalize_NumericHour(t *testing.T) {
	v := clock.Normalize(13.0)
	assert.InDelta(t, 1.0, *v.Decimal, 1e-9)

	v = clock.Normalize(0.0)
	assert.InDelta(t, 12.0, *v.Decimal, 1e-9)
}

func TestNormalize_HourMinuteString(t *testing.T) {
	v := clock.Normalize("3:30")
	assert.InDelta(t, 3.5, *v.Decimal, 1e-9)

	v = clock.Normalize("12:00")
	assert.InDelta(t, 12.0, *v.Decimal, 1e-9)
}

func TestNormalize_NumericString(t *testing.T) {
	v := clock.Normalize("7.5")
	assert.InDelta(t, 7.5, *v.Decimal, 1e-9)
}

func TestNormalize_Unparseable(t *testing.T) {
	v := clock.Normalize("NOON-ISH")
	assert.Nil(t, v.Decimal)
	assert.Equal(t, "NOON-ISH", v.Raw)
}

func TestNormalize_Idempotent(t *testing.T) {
	v1 := clock.Normalize("9:15")
	v2 := clock.Normalize(v1.Raw)
	assert.Equal(t, *v1.Decimal, *v2.Decimal)
}

func TestCircularDistance(t *testing.T) {
	assert.InDelta(t, 0.0, clock.CircularDistance(12, 12), 1e-9)
	assert.InDelta(t, 1.0, clock.CircularDistance(11, 12), 1e-9)
	assert.InDelta(t, 6.0, clock.CircularDistance(3, 9), 1e-9)
	assert.InDelta(t, 5.0, clock.CircularDistance(1, 8), 1e-9)

	d := clock.CircularDistance(0.5, 11.5)
	assert.GreaterOrEqual(t, d, 0.0)
	assert.LessOrEqual(t, d, 6.0)
}
