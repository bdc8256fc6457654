package lunisolar

import (
	"context"
	"testing"
	"time"

	"github.com/hsato/toki/astronomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderResolvesLeapMonth2017(t *testing.T) {
	provider := astronomy.NewAnalyticProvider()
	b := NewBuilder(provider)

	d := CivilDate{Year: 2017, Month: 6, Day: 24}
	months, err := b.Resolve(context.Background(), d, d)
	require.NoError(t, err)

	date, err := DateAt(months, d)
	require.NoError(t, err)

	assert.Equal(t, 5, date.Month)
	assert.Equal(t, 1, date.Day)
	assert.True(t, date.Leap)
}

func TestBuilderResolvesLunisolarNewYear2020(t *testing.T) {
	provider := astronomy.NewAnalyticProvider()
	b := NewBuilder(provider)

	d := CivilDate{Year: 2020, Month: 1, Day: 25}
	months, err := b.Resolve(context.Background(), d, d)
	require.NoError(t, err)

	date, err := DateAt(months, d)
	require.NoError(t, err)

	assert.Equal(t, 1, date.Month)
	assert.Equal(t, 1, date.Day)
	assert.False(t, date.Leap)
	assert.Equal(t, "先勝", Rokuyo(date.Month, date.Day))
}

func TestBuilderFindsExactlyOneLeapMonthAroundLeapSegment(t *testing.T) {
	provider := astronomy.NewAnalyticProvider()
	b := NewBuilder(provider)

	start := CivilDate{Year: 2017, Month: 5, Day: 1}
	end := CivilDate{Year: 2017, Month: 8, Day: 1}
	months, err := b.Resolve(context.Background(), start, end)
	require.NoError(t, err)

	leapCount := 0
	for _, m := range months {
		if m.Number == 0 {
			continue
		}
		if m.Leap {
			leapCount++
		}
	}
	assert.Equal(t, 1, leapCount, "expected exactly one leap month in the resolved window")
}

func TestBuilderFailsWhenNoNewMoonCrossesInWindow(t *testing.T) {
	fake := astronomy.NewFakeProvider()
	fake.MoonPhaseFunc = func(t time.Time) float64 { return 45.0 }
	fake.SunLonFunc = func(t time.Time) float64 { return 0.0 }

	b := NewBuilder(fake)
	d := CivilDate{Year: 2020, Month: 1, Day: 1}
	_, err := b.Resolve(context.Background(), d, d)

	var resolutionErr *ErrLunisolarResolutionFailed
	assert.ErrorAs(t, err, &resolutionErr)
}
