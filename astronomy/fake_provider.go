package astronomy

import (
	"context"
	"time"
)

// FakeProvider is a deterministic Provider double for tests. Each capability
// is backed by a caller-supplied function; a nil function panics if called,
// so a test failure points straight at the capability it forgot to stub.
type FakeProvider struct {
	SunLonFunc       func(t time.Time) float64
	MoonPhaseFunc    func(t time.Time) float64
	MoonAgeFunc      func(civilDateJST time.Time) float64
	SunriseSunsetFunc func(date time.Time, lat, lon float64) (*time.Time, *time.Time)

	NameValue    string
	VersionValue string
	RangeStart   time.Time
	RangeEnd     time.Time
	Available    bool
}

// NewFakeProvider returns a FakeProvider with sensible defaults for name,
// version, data range and availability. Its capability functions are left
// nil; the caller assigns the ones its test exercises.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		NameValue:    "fake",
		VersionValue: "test",
		RangeStart:   time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:     time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
		Available:    true,
	}
}

func (f *FakeProvider) Name() string    { return f.NameValue }
func (f *FakeProvider) Version() string { return f.VersionValue }

func (f *FakeProvider) DataRange() (start, end time.Time) {
	return f.RangeStart, f.RangeEnd
}

func (f *FakeProvider) IsAvailable(ctx context.Context) bool { return f.Available }

func (f *FakeProvider) HealthStatus(ctx context.Context) (*HealthStatus, error) {
	return &HealthStatus{
		Available: f.Available,
		LastCheck: time.Now(),
		Version:   f.VersionValue,
		Source:    f.NameValue,
	}, nil
}

func (f *FakeProvider) Close() error { return nil }

func (f *FakeProvider) SunEclipticLongitude(ctx context.Context, t time.Time) (float64, error) {
	return f.SunLonFunc(t), nil
}

func (f *FakeProvider) MoonPhase(ctx context.Context, t time.Time) (float64, error) {
	return f.MoonPhaseFunc(t), nil
}

func (f *FakeProvider) MoonAge(ctx context.Context, civilDateJST time.Time) (float64, error) {
	return f.MoonAgeFunc(civilDateJST), nil
}

func (f *FakeProvider) SunriseSunset(ctx context.Context, date time.Time, lat, lon float64) (*time.Time, *time.Time, error) {
	return f.SunriseSunsetFunc(date, lat, lon)
}
