package record

import (
	"context"
	"testing"

	"github.com/hsato/toki/astronomy"
	"github.com/hsato/toki/lunisolar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayRecordLeapMonth2017(t *testing.T) {
	provider := astronomy.NewAnalyticProvider()
	a := NewAssembler(provider, "de440s.bsp", 35.681236, 139.767125)

	d := lunisolar.CivilDate{Year: 2017, Month: 6, Day: 24}
	rec, err := a.Day(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, 2017, rec.Lunisolar.Year)
	assert.Equal(t, 5, rec.Lunisolar.Month)
	assert.Equal(t, 1, rec.Lunisolar.Day)
	assert.True(t, rec.Lunisolar.Leap)
	assert.Equal(t, "閏05", rec.Lunisolar.MonthLabel)
	assert.Equal(t, "閏05/01", rec.Lunisolar.Label)
	assert.Equal(t, "閏五月", rec.Lunisolar.MonthName)
	assert.Equal(t, "大安", rec.Rokuyo)
	assert.Equal(t, "Asia/Tokyo", rec.Meta.TZ)
	assert.Equal(t, "jst", rec.Meta.DayBasis)
	require.NotNil(t, rec.Astronomy.PhaseEvent)
	assert.Equal(t, "new_moon", rec.Astronomy.PhaseEvent.Type)
	assert.Equal(t, "2017-06-24", rec.Astronomy.PhaseEvent.DateJST)
}

func TestDayRecordNewYear2020(t *testing.T) {
	provider := astronomy.NewAnalyticProvider()
	a := NewAssembler(provider, "de440s.bsp", 35.681236, 139.767125)

	d := lunisolar.CivilDate{Year: 2020, Month: 1, Day: 25}
	rec, err := a.Day(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.Lunisolar.Month)
	assert.Equal(t, 1, rec.Lunisolar.Day)
	assert.False(t, rec.Lunisolar.Leap)
	assert.Equal(t, "先勝", rec.Rokuyo)
}

func TestDayRecordSummerSolstice2017HasPrimarySekki(t *testing.T) {
	provider := astronomy.NewAnalyticProvider()
	a := NewAssembler(provider, "de440s.bsp", 35.681236, 139.767125)

	d := lunisolar.CivilDate{Year: 2017, Month: 6, Day: 21}
	rec, err := a.Day(context.Background(), d)
	require.NoError(t, err)

	require.NotNil(t, rec.Sekki)
	require.NotNil(t, rec.Sekki.Primary)
	assert.Equal(t, "夏至", rec.Sekki.Primary.Name)
	assert.Equal(t, 90, rec.Sekki.Primary.Degree)
}

func TestRangeRecordSolarTermSequenceSummerToAutumn2017(t *testing.T) {
	provider := astronomy.NewAnalyticProvider()
	a := NewAssembler(provider, "de440s.bsp", 35.681236, 139.767125)

	start := lunisolar.CivilDate{Year: 2017, Month: 6, Day: 1}
	end := lunisolar.CivilDate{Year: 2017, Month: 9, Day: 30}
	rec, err := a.Range(context.Background(), start, end)
	require.NoError(t, err)

	var names []string
	for _, ev := range rec.Events.Sekki {
		names = append(names, ev.Name)
	}
	assert.Equal(t, []string{"芒種", "夏至", "小暑", "大暑", "立秋", "処暑", "白露", "秋分"}, names)

	assert.Equal(t, "2017-06-01", rec.Days[0].Date)
	assert.Equal(t, "2017-09-30", rec.Days[len(rec.Days)-1].Date)
}

func TestRangeRecordDaySekkiIsSubsetOfTopLevel(t *testing.T) {
	provider := astronomy.NewAnalyticProvider()
	a := NewAssembler(provider, "de440s.bsp", 35.681236, 139.767125)

	start := lunisolar.CivilDate{Year: 2017, Month: 6, Day: 18}
	end := lunisolar.CivilDate{Year: 2017, Month: 6, Day: 24}
	rec, err := a.Range(context.Background(), start, end)
	require.NoError(t, err)

	for _, day := range rec.Days {
		if day.Sekki == nil {
			continue
		}
		for _, ev := range day.Sekki.Events {
			found := false
			for _, top := range rec.Events.Sekki {
				if top == ev {
					found = true
					break
				}
			}
			assert.True(t, found, "day event %v missing from top-level sekki", ev)
		}
	}
}

func TestDayRecordHighLatitudeMidwinterHasNoSunriseSunset(t *testing.T) {
	provider := astronomy.NewAnalyticProvider()
	a := NewAssembler(provider, "de440s.bsp", 80.0, 0.0)

	d := lunisolar.CivilDate{Year: 2017, Month: 12, Day: 21}
	rec, err := a.Day(context.Background(), d)
	require.NoError(t, err)

	assert.Nil(t, rec.Astronomy.Sunrise)
	assert.Nil(t, rec.Astronomy.Sunset)
}

func TestRangeRejectsReversedRange(t *testing.T) {
	provider := astronomy.NewAnalyticProvider()
	a := NewAssembler(provider, "de440s.bsp", 35.681236, 139.767125)

	start := lunisolar.CivilDate{Year: 2020, Month: 1, Day: 2}
	end := lunisolar.CivilDate{Year: 2020, Month: 1, Day: 1}
	_, err := a.Range(context.Background(), start, end)

	var invalidErr *lunisolar.ErrInvalidInput
	assert.ErrorAs(t, err, &invalidErr)
}
