package astronomy

import (
	"context"
	"sync"
	"time"

	"github.com/anupshinde/goeph/coord"
	"github.com/anupshinde/goeph/spk"
)

// sunAltitudeThreshold is the standard altitude for sunrise/sunset: -50
// arcminutes (16' solar radius + 34' atmospheric refraction).
const sunAltitudeThreshold = -0.8333

// spkSearchStepDays is the coarse sampling step used when bracketing a
// sunrise/sunset crossing, about one hour.
const spkSearchStepDays = 0.04

// SPKProvider answers Provider queries from a binary SPK/DAF ephemeris
// kernel file (e.g. de440s.bsp), via goeph's DAF reader and Chebyshev
// segment evaluator.
type SPKProvider struct {
	path string

	mu  sync.RWMutex
	eph *spk.SPK
	err error
}

// NewSPKProvider opens the ephemeris kernel at path. Opening happens once,
// eagerly, so a bad file fails fast instead of on first query.
func NewSPKProvider(path string) (*SPKProvider, error) {
	p := &SPKProvider{path: path}
	eph, err := spk.Open(path)
	if err != nil {
		p.err = err
		return p, &ErrEphemerisUnavailable{Reason: err.Error()}
	}
	p.eph = eph
	return p, nil
}

func (p *SPKProvider) Name() string { return "spk:" + p.path }

func (p *SPKProvider) Version() string { return "de440s" }

func (p *SPKProvider) DataRange() (start, end time.Time) {
	// de440s.bsp covers roughly 1849-2150; goeph's SPK does not surface the
	// per-segment validity window directly, so this is the kernel's
	// documented coverage rather than a value read from the file.
	return time.Date(1849, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2150, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (p *SPKProvider) IsAvailable(ctx context.Context) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.eph != nil
}

func (p *SPKProvider) HealthStatus(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	p.mu.RLock()
	defer p.mu.RUnlock()

	status := &HealthStatus{
		LastCheck: start,
		Version:   p.Version(),
		Source:    p.path,
	}
	if p.eph == nil {
		status.Available = false
		if p.err != nil {
			status.ErrorMessage = p.err.Error()
		}
		status.ResponseTime = time.Since(start)
		return status, nil
	}

	dataStart, dataEnd := p.DataRange()
	status.Available = true
	status.DataStartJD = TimeToJulianDay(dataStart)
	status.DataEndJD = TimeToJulianDay(dataEnd)
	status.ResponseTime = time.Since(start)
	return status, nil
}

func (p *SPKProvider) Close() error {
	// goeph's SPK does not expose a Close method; the parsed segments are
	// plain in-memory slices with no open file handle to release.
	return nil
}

func (p *SPKProvider) ensureOpen() (*spk.SPK, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.eph == nil {
		return nil, &ErrEphemerisUnavailable{Reason: "spk kernel not loaded"}
	}
	return p.eph, nil
}

// SunEclipticLongitude returns the Sun's apparent geocentric ecliptic
// longitude computed from the kernel's Sun-SSB Chebyshev segments.
func (p *SPKProvider) SunEclipticLongitude(ctx context.Context, t time.Time) (float64, error) {
	eph, err := p.ensureOpen()
	if err != nil {
		return 0, err
	}
	jd := TimeToJulianDay(t)
	pos := eph.Apparent(spk.Sun, jd)
	_, lonDeg := coord.ICRFToEcliptic(pos[0], pos[1], pos[2])
	return normalizeDegrees(lonDeg), nil
}

func (p *SPKProvider) moonEclipticLongitude(eph *spk.SPK, jd float64) float64 {
	pos := eph.Apparent(spk.Moon, jd)
	_, lonDeg := coord.ICRFToEcliptic(pos[0], pos[1], pos[2])
	return normalizeDegrees(lonDeg)
}

// MoonPhase returns the Moon's phase angle derived from the Sun/Moon
// ecliptic longitude difference, consistent with the analytic provider's
// definition.
func (p *SPKProvider) MoonPhase(ctx context.Context, t time.Time) (float64, error) {
	eph, err := p.ensureOpen()
	if err != nil {
		return 0, err
	}
	jd := TimeToJulianDay(t)
	sunLon, lonErr := p.SunEclipticLongitude(ctx, t)
	if lonErr != nil {
		return 0, lonErr
	}
	moonLon := p.moonEclipticLongitude(eph, jd)
	return moonPhaseDeg(sunLon, moonLon), nil
}

// MoonAge approximates days elapsed since the preceding new moon from the
// current phase angle, the same closed-form relation the analytic provider
// uses, so callers see continuity across provider fallback.
func (p *SPKProvider) MoonAge(ctx context.Context, civilDateJST time.Time) (float64, error) {
	phase, err := p.MoonPhase(ctx, civilDateJST)
	if err != nil {
		return 0, err
	}
	return (phase / 360.0) * LunarSynodicMonth, nil
}

// sunAltitude returns the Sun's altitude in degrees for an observer at
// (lat, lon). The UT1 argument Altaz wants is approximated here by the TDB
// Julian day directly: the retrieved timescale package ships no TDB-to-UT1
// conversion, and the few tens of seconds of drift are well inside the
// one-minute bisection tolerance used below.
func (p *SPKProvider) sunAltitude(eph *spk.SPK, lat, lon, jd float64) float64 {
	pos := eph.Apparent(spk.Sun, jd)
	alt, _, _ := coord.Altaz(pos, lat, lon, jd)
	return alt
}

// SunriseSunset brackets the Sun-altitude crossing of sunAltitudeThreshold
// within the given date's UTC calendar day (00:00 to 24:00), then bisects to a
// one-minute tolerance. A nil pair means the threshold was not crossed in
// the window (polar day/night).
func (p *SPKProvider) SunriseSunset(ctx context.Context, date time.Time, lat, lon float64) (*time.Time, *time.Time, error) {
	eph, err := p.ensureOpen()
	if err != nil {
		return nil, nil, err
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	startJD := TimeToJulianDay(dayStart)
	endJD := TimeToJulianDay(dayStart.AddDate(0, 0, 1))

	above := func(jd float64) bool {
		return p.sunAltitude(eph, lat, lon, jd) >= sunAltitudeThreshold
	}

	const epsilonDays = 1.0 / 1440.0
	n := int((endJD-startJD)/spkSearchStepDays) + 2
	samples := make([]float64, n)
	values := make([]bool, n)
	dt := (endJD - startJD) / float64(n-1)
	for i := 0; i < n; i++ {
		samples[i] = startJD + float64(i)*dt
		values[i] = above(samples[i])
	}

	var sunrise, sunset *time.Time
	for i := 0; i < n-1; i++ {
		if values[i] == values[i+1] {
			continue
		}
		lo, hi := samples[i], samples[i+1]
		loAbove := values[i]
		for hi-lo > epsilonDays {
			mid := (lo + hi) / 2.0
			if above(mid) == loAbove {
				lo = mid
			} else {
				hi = mid
			}
		}
		crossing := JulianDayToTime(hi)
		if !loAbove {
			sunrise = &crossing
		} else {
			sunset = &crossing
		}
	}

	return sunrise, sunset, nil
}
