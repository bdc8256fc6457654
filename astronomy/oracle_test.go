package astronomy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJulianDayRoundTrip(t *testing.T) {
	in := time.Date(2017, 6, 21, 13, 24, 0, 0, time.UTC)
	jd := TimeToJulianDay(in)
	out := JulianDayToTime(jd)
	assert.WithinDuration(t, in, out, time.Second)
}

func TestTimeToJulianDayJ2000(t *testing.T) {
	noon := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.InDelta(t, 2451545.0, TimeToJulianDay(noon), 1e-6)
}

func TestNormalizeDegrees(t *testing.T) {
	assert.InDelta(t, 10.0, normalizeDegrees(370.0), 1e-9)
	assert.InDelta(t, 350.0, normalizeDegrees(-10.0), 1e-9)
	assert.InDelta(t, 0.0, normalizeDegrees(360.0), 1e-9)
}
