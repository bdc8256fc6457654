package ephemeris

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hsato/toki/astronomy"
	"github.com/stretchr/testify/assert"
)

func newFixedFake(lon float64) *astronomy.FakeProvider {
	p := astronomy.NewFakeProvider()
	p.SunLonFunc = func(t time.Time) float64 { return lon }
	p.MoonPhaseFunc = func(t time.Time) float64 { return lon }
	p.MoonAgeFunc = func(t time.Time) float64 { return 1.0 }
	p.SunriseSunsetFunc = func(date time.Time, lat, lon float64) (*time.Time, *time.Time) {
		return nil, nil
	}
	return p
}

func TestManagerSunEclipticLongitudeUsesPrimary(t *testing.T) {
	primary := newFixedFake(90.0)
	fallback := newFixedFake(180.0)
	m := NewManager(primary, fallback, NewMemoryCache(100, time.Minute))

	lon, err := m.SunEclipticLongitude(context.Background(), time.Now())
	assert.NoError(t, err)
	assert.Equal(t, 90.0, lon)
}

func TestManagerFallsBackWhenPrimaryFails(t *testing.T) {
	failingPrimary := &erroringProvider{newFixedFake(90.0)}
	fallback := newFixedFake(180.0)

	m := NewManager(failingPrimary, fallback, NewMemoryCache(100, time.Minute))

	lon, err := m.SunEclipticLongitude(context.Background(), time.Now())
	assert.NoError(t, err)
	assert.Equal(t, 180.0, lon)
}

func TestManagerCachesResults(t *testing.T) {
	calls := 0
	primary := newFixedFake(90.0)
	primary.SunLonFunc = func(t time.Time) float64 {
		calls++
		return 90.0
	}
	m := NewManager(primary, nil, NewMemoryCache(100, time.Minute))

	fixed := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := m.SunEclipticLongitude(context.Background(), fixed)
	assert.NoError(t, err)
	_, err = m.SunEclipticLongitude(context.Background(), fixed)
	assert.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestManagerSatisfiesAstronomyProvider(t *testing.T) {
	var _ astronomy.Provider = (*Manager)(nil)
}

func TestManagerNameAndAvailabilityDelegateToPrimary(t *testing.T) {
	primary := newFixedFake(90.0)
	primary.NameValue = "primary-fake"
	m := NewManager(primary, nil, NewMemoryCache(100, time.Minute))

	assert.Equal(t, "primary-fake", m.Name())
	assert.True(t, m.IsAvailable(context.Background()))
}

// erroringProvider wraps a FakeProvider so SunEclipticLongitude fails,
// exercising Manager's primary-to-fallback path.
type erroringProvider struct {
	*astronomy.FakeProvider
}

func (e *erroringProvider) SunEclipticLongitude(ctx context.Context, t time.Time) (float64, error) {
	return 0, errors.New("primary unavailable")
}
