package astronomy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeProviderDelegatesToStubs(t *testing.T) {
	p := NewFakeProvider()
	p.SunLonFunc = func(t time.Time) float64 { return 90.0 }
	p.MoonPhaseFunc = func(t time.Time) float64 { return 0.0 }
	p.MoonAgeFunc = func(civilDateJST time.Time) float64 { return 1.5 }
	p.SunriseSunsetFunc = func(date time.Time, lat, lon float64) (*time.Time, *time.Time) {
		return nil, nil
	}

	ctx := context.Background()
	lon, err := p.SunEclipticLongitude(ctx, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, 90.0, lon)

	phase, err := p.MoonPhase(ctx, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, 0.0, phase)

	age, err := p.MoonAge(ctx, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, 1.5, age)

	sunrise, sunset, err := p.SunriseSunset(ctx, time.Now(), 35.0, 139.0)
	assert.NoError(t, err)
	assert.Nil(t, sunrise)
	assert.Nil(t, sunset)
}

func TestFakeProviderAvailability(t *testing.T) {
	p := NewFakeProvider()
	p.Available = false
	assert.False(t, p.IsAvailable(context.Background()))

	status, err := p.HealthStatus(context.Background())
	assert.NoError(t, err)
	assert.False(t, status.Available)
}
