package astronomy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAnalyticProviderSunEclipticLongitudeRange(t *testing.T) {
	p := NewAnalyticProvider()
	lon, err := p.SunEclipticLongitude(context.Background(), time.Date(2017, 6, 21, 4, 24, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, lon, 0.0)
	assert.Less(t, lon, 360.0)
	// Around the June solstice the Sun's ecliptic longitude is near 90 degrees.
	assert.InDelta(t, 90.0, lon, 2.0)
}

func TestAnalyticProviderMoonPhaseRange(t *testing.T) {
	p := NewAnalyticProvider()
	phase, err := p.MoonPhase(context.Background(), time.Now())
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, phase, 0.0)
	assert.Less(t, phase, 360.0)
}

func TestAnalyticProviderMoonAgeIsNonNegative(t *testing.T) {
	p := NewAnalyticProvider()
	age, err := p.MoonAge(context.Background(), time.Date(2020, 1, 25, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, age, 0.0)
	assert.Less(t, age, LunarSynodicMonth)
}

func TestAnalyticProviderSunriseSunsetOrdering(t *testing.T) {
	p := NewAnalyticProvider()
	sunrise, sunset, err := p.SunriseSunset(context.Background(), time.Date(2017, 6, 21, 0, 0, 0, 0, time.UTC), 35.681236, 139.767125)
	assert.NoError(t, err)
	if assert.NotNil(t, sunrise) && assert.NotNil(t, sunset) {
		assert.True(t, sunrise.Before(*sunset))
	}
}

func TestAnalyticProviderSunriseSunsetPolarNight(t *testing.T) {
	p := NewAnalyticProvider()
	sunrise, sunset, err := p.SunriseSunset(context.Background(), time.Date(2017, 12, 21, 0, 0, 0, 0, time.UTC), 80.0, 0.0)
	assert.NoError(t, err)
	assert.Nil(t, sunrise)
	assert.Nil(t, sunset)
}

func TestAnalyticProviderIsAlwaysAvailable(t *testing.T) {
	p := NewAnalyticProvider()
	assert.True(t, p.IsAvailable(context.Background()))

	status, err := p.HealthStatus(context.Background())
	assert.NoError(t, err)
	assert.True(t, status.Available)
}
