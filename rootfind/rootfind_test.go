package rootfind

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// linearAngle simulates an angular quantity advancing at degreesPerDay from
// a reference epoch, wrapping at 360, e.g. solar longitude or lunar phase.
func linearAngle(epoch time.Time, degreesPerDay, startDeg float64) func(time.Time) (float64, error) {
	return func(t time.Time) (float64, error) {
		days := t.Sub(epoch).Hours() / 24.0
		deg := startDeg + degreesPerDay*days
		deg = float64(int(deg*1e9)) / 1e9 // stabilize float noise for tests
		r := deg - 360.0*float64(int(deg/360.0))
		if r < 0 {
			r += 360.0
		}
		return r, nil
	}
}

func TestFindCrossingsSingleSolarLongitudeTarget(t *testing.T) {
	epoch := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	g := linearAngle(epoch, 360.0/365.25, 280.0)

	a := epoch
	b := epoch.AddDate(1, 0, 0)

	crossings, err := FindCrossings(context.Background(), a, b, DefaultStep, 90.0, g)
	assert.NoError(t, err)
	assert.Len(t, crossings, 1)
}

func TestFindCrossingsLunarPhaseMultipleNewMoons(t *testing.T) {
	epoch := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	g := linearAngle(epoch, 360.0/29.530588853, 0.0)

	a := epoch
	b := epoch.AddDate(0, 6, 0)

	crossings, err := FindCrossings(context.Background(), a, b, DefaultStep, 0.0, g)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, len(crossings), 5)

	for i := 1; i < len(crossings); i++ {
		gap := crossings[i].Sub(crossings[i-1])
		assert.True(t, gap >= 27*24*time.Hour && gap <= 31*24*time.Hour,
			"gap between consecutive new moons out of range: %s", gap)
	}
}

func TestFindCrossingsAscendingOrder(t *testing.T) {
	epoch := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	g := linearAngle(epoch, 360.0/29.530588853, 0.0)

	crossings, err := FindCrossings(context.Background(), epoch, epoch.AddDate(1, 0, 0), DefaultStep, 0.0, g)
	assert.NoError(t, err)
	for i := 1; i < len(crossings); i++ {
		assert.True(t, crossings[i].After(crossings[i-1]))
	}
}

func TestFindCrossingsEmptyRangeFails(t *testing.T) {
	epoch := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	g := linearAngle(epoch, 1.0, 0.0)

	_, err := FindCrossings(context.Background(), epoch, epoch, DefaultStep, 0.0, g)
	assert.Error(t, err)
	var rf *ErrRootFindFailed
	assert.ErrorAs(t, err, &rf)
}

func TestFindCrossingsPropagatesProviderError(t *testing.T) {
	epoch := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	boom := errors.New("provider unavailable")
	g := func(t time.Time) (float64, error) { return 0, boom }

	_, err := FindCrossings(context.Background(), epoch, epoch.AddDate(0, 1, 0), DefaultStep, 0.0, g)
	assert.Error(t, err)
}

func TestFindCrossingsRespectsCancellation(t *testing.T) {
	epoch := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	g := linearAngle(epoch, 360.0/29.530588853, 0.0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FindCrossings(ctx, epoch, epoch.AddDate(1, 0, 0), DefaultStep, 0.0, g)
	assert.ErrorIs(t, err, context.Canceled)
}
