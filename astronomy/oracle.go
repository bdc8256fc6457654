// Package astronomy defines the Provider capability boundary — the only
// window the rest of the module has onto positions of the Sun and Moon —
// plus the providers that implement it: a closed-form analytic provider, a
// binary-ephemeris-file-backed provider, and a deterministic fake for tests.
package astronomy

import (
	"context"
	"math"
	"time"
)

// Provider is the astronomy capability boundary. Every method is pure given
// a fixed backing ephemeris: no provider may mutate shared state in
// response to a query. Implementations: NewAnalyticProvider (closed-form,
// always available), NewSPKProvider (binary SPK/DAF kernel file, high
// precision), NewFakeProvider (deterministic test double).
type Provider interface {
	// SunEclipticLongitude returns the Sun's apparent ecliptic longitude in
	// degrees, range [0, 360).
	SunEclipticLongitude(ctx context.Context, t time.Time) (float64, error)

	// MoonPhase returns the Moon's phase angle in degrees, range [0, 360),
	// where 0 = new, 90 = first quarter, 180 = full, 270 = last quarter.
	MoonPhase(ctx context.Context, t time.Time) (float64, error)

	// MoonAge returns days elapsed since the most recent new moon, sampled
	// at JST 00:00 of the given civil date.
	MoonAge(ctx context.Context, civilDateJST time.Time) (float64, error)

	// SunriseSunset returns sunrise/sunset instants for an observer at
	// (lat, lon) on the given civil date. A nil pointer means the event
	// does not occur that day (polar day/night); this is not an error.
	SunriseSunset(ctx context.Context, date time.Time, lat, lon float64) (sunrise, sunset *time.Time, err error)

	// Name identifies the provider for logging, caching and health checks.
	Name() string

	// Version identifies the backing data/algorithm revision.
	Version() string

	// DataRange reports the instants between which this provider's answers
	// are considered valid.
	DataRange() (start, end time.Time)

	// IsAvailable reports whether the provider can currently answer
	// queries (e.g. its backing file opened successfully).
	IsAvailable(ctx context.Context) bool

	// HealthStatus returns a detailed health snapshot.
	HealthStatus(ctx context.Context) (*HealthStatus, error)

	// Close releases any resources (open files, caches) held by the
	// provider.
	Close() error
}

// HealthStatus is a point-in-time snapshot of a Provider's availability.
type HealthStatus struct {
	Available    bool          `json:"available"`
	LastCheck    time.Time     `json:"last_check"`
	DataStartJD  float64       `json:"data_start_jd"`
	DataEndJD    float64       `json:"data_end_jd"`
	ResponseTime time.Duration `json:"response_time"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Version      string        `json:"version,omitempty"`
	Source       string        `json:"source,omitempty"`
}

// TimeToJulianDay converts a time.Time to a Julian day number.
func TimeToJulianDay(t time.Time) float64 {
	utc := t.UTC()

	year := utc.Year()
	month := int(utc.Month())
	day := utc.Day()

	if month <= 2 {
		year--
		month += 12
	}

	a := year / 100
	b := 2 - a + a/4

	jd := math.Floor(365.25*float64(year+4716)) +
		math.Floor(30.6001*float64(month+1)) +
		float64(day) + float64(b) - 1524.5

	hour := float64(utc.Hour())
	minute := float64(utc.Minute())
	second := float64(utc.Second())

	jd += hour/24.0 + minute/1440.0 + second/86400.0

	return jd
}

// JulianDayToTime converts a Julian day number back to a time.Time in UTC.
func JulianDayToTime(jd float64) time.Time {
	z := math.Floor(jd + 0.5)
	f := jd + 0.5 - z

	var a float64
	if z < 2299161 {
		a = z
	} else {
		alpha := math.Floor((z - 1867216.25) / 36524.25)
		a = z + 1 + alpha - math.Floor(alpha/4)
	}

	b := a + 1524
	c := math.Floor((b - 122.1) / 365.25)
	d := math.Floor(365.25 * c)
	e := math.Floor((b - d) / 30.6001)

	day := int(b - d - math.Floor(30.6001*e) + f)
	var month int
	if e < 14 {
		month = int(e - 1)
	} else {
		month = int(e - 13)
	}

	var year int
	if month > 2 {
		year = int(c - 4716)
	} else {
		year = int(c - 4715)
	}

	dayFraction := f
	hours := dayFraction * 24
	hour := int(hours)
	minutes := (hours - float64(hour)) * 60
	minute := int(minutes)
	seconds := (minutes - float64(minute)) * 60
	second := int(seconds)
	nanosecond := int((seconds - float64(second)) * 1e9)

	return time.Date(year, time.Month(month), day, hour, minute, second, nanosecond, time.UTC)
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360.0)
	if deg < 0 {
		deg += 360.0
	}
	return deg
}
