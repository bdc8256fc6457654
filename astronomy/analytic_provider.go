package astronomy

import (
	"context"
	"time"
)

// AnalyticProvider answers Provider queries from the closed-form Meeus
// low-precision series in sunrise.go/lunar.go. It needs no backing file and
// is always available, so it is the default primary provider and the
// fallback behind SPKProvider.
type AnalyticProvider struct{}

// NewAnalyticProvider constructs an AnalyticProvider. It carries no state.
func NewAnalyticProvider() *AnalyticProvider {
	return &AnalyticProvider{}
}

func (p *AnalyticProvider) Name() string    { return "analytic" }
func (p *AnalyticProvider) Version() string { return "meeus-low-precision" }

// DataRange reports the window within which the truncated Meeus series
// stays within its documented few-arcminute accuracy.
func (p *AnalyticProvider) DataRange() (start, end time.Time) {
	return time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (p *AnalyticProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *AnalyticProvider) HealthStatus(ctx context.Context) (*HealthStatus, error) {
	start, end := p.DataRange()
	return &HealthStatus{
		Available:   true,
		LastCheck:   time.Now(),
		DataStartJD: TimeToJulianDay(start),
		DataEndJD:   TimeToJulianDay(end),
		Version:     p.Version(),
		Source:      "closed-form",
	}, nil
}

func (p *AnalyticProvider) Close() error { return nil }

func (p *AnalyticProvider) SunEclipticLongitude(ctx context.Context, t time.Time) (float64, error) {
	return sunEclipticLongitudeDeg(TimeToJulianDay(t)), nil
}

func (p *AnalyticProvider) MoonPhase(ctx context.Context, t time.Time) (float64, error) {
	jd := TimeToJulianDay(t)
	return moonPhaseDeg(sunEclipticLongitudeDeg(jd), moonEclipticLongitudeDeg(jd)), nil
}

// MoonAge approximates days elapsed since the preceding new moon as a
// fraction of the phase angle over the synodic month. This keeps the Oracle
// pure and avoids a circular dependency on the root finder.
func (p *AnalyticProvider) MoonAge(ctx context.Context, civilDateJST time.Time) (float64, error) {
	phase, err := p.MoonPhase(ctx, civilDateJST)
	if err != nil {
		return 0, err
	}
	return (phase / 360.0) * LunarSynodicMonth, nil
}

func (p *AnalyticProvider) SunriseSunset(ctx context.Context, date time.Time, lat, lon float64) (*time.Time, *time.Time, error) {
	return CalculateSunTimesWithContext(ctx, lat, lon, date)
}
