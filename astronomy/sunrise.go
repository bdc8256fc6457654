package astronomy

import (
	"context"
	"math"
	"time"

	"github.com/hsato/toki/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// SolarDepressionAngle is the geometric horizon correction (refraction +
	// semidiameter) applied to sunrise/sunset, in degrees below the
	// mathematical horizon.
	SolarDepressionAngle = 0.833

	DegToRad = math.Pi / 180
	RadToDeg = 180 / math.Pi
)

// SunTimes holds sunrise and sunset instants, both in UTC.
type SunTimes struct {
	Sunrise time.Time
	Sunset  time.Time
}

// sunEclipticLongitudeDeg returns the Sun's apparent ecliptic longitude for
// the given Julian day, degrees in [0, 360).
func sunEclipticLongitudeDeg(jd float64) float64 {
	n := jd - 2451545.0
	L := math.Mod(280.460+0.9856474*n, 360.0)
	g := math.Mod(357.528+0.9856003*n, 360.0) * DegToRad
	lambda := L + 1.915*math.Sin(g) + 0.020*math.Sin(2*g)
	return normalizeDegrees(lambda)
}

// CalculateSunTimesWithContext calculates sunrise and sunset (UTC) for a
// location and civil date. The pair brackets the solar noon that falls on
// the given UTC date, so east of about 90°E sunrise lands on the previous
// UTC day. A nil sunrise and nil sunset with no error indicate polar night
// or polar day — not a failure.
func CalculateSunTimesWithContext(ctx context.Context, lat, lon float64, date time.Time) (sunrise, sunset *time.Time, err error) {
	observer := observability.Observer()
	ctx, span := observer.CreateSpan(ctx, "astronomy.CalculateSunTimes")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("location.latitude", lat),
		attribute.Float64("location.longitude", lon),
		attribute.String("date", date.Format("2006-01-02")),
	)

	year, month, day := date.Date()
	jd := julianDayNumber(year, int(month), day)
	n := jd - 2451545.0

	L := math.Mod(280.460+0.9856474*n, 360.0)
	g := math.Mod(357.528+0.9856003*n, 360.0) * DegToRad
	lambda := L + 1.915*math.Sin(g) + 0.020*math.Sin(2*g)
	epsilon := 23.439 - 0.0000004*n

	alpha := math.Atan2(math.Cos(epsilon*DegToRad)*math.Sin(lambda*DegToRad), math.Cos(lambda*DegToRad)) * RadToDeg
	delta := math.Asin(math.Sin(epsilon*DegToRad) * math.Sin(lambda*DegToRad)) * RadToDeg
	EqT := 4 * (L - alpha)

	latRad := lat * DegToRad
	deltaRad := delta * DegToRad

	cosH := (math.Cos((90.0+SolarDepressionAngle)*DegToRad) - math.Sin(latRad)*math.Sin(deltaRad)) /
		(math.Cos(latRad) * math.Cos(deltaRad))

	if cosH > 1 {
		span.SetAttributes(attribute.String("result_type", "polar_night"))
		span.AddEvent("polar night: sun never rises")
		return nil, nil, nil
	}
	if cosH < -1 {
		span.SetAttributes(attribute.String("result_type", "polar_day"))
		span.AddEvent("polar day: sun never sets")
		return nil, nil, nil
	}

	H := math.Acos(cosH) * RadToDeg
	// EqT carries a whole-day offset when L and alpha sit on opposite sides of
	// the 0/360 wrap, so solar noon is folded back into the given UTC day.
	solarNoon := math.Mod(12.0-lon/15.0-EqT/60.0, 24.0)
	if solarNoon < 0 {
		solarNoon += 24.0
	}

	sunriseDecimal := solarNoon - H/15.0
	sunsetDecimal := solarNoon + H/15.0

	sunriseTime := decimalHoursToTime(sunriseDecimal, year, month, day)
	sunsetTime := decimalHoursToTime(sunsetDecimal, year, month, day)

	span.SetAttributes(
		attribute.String("result_type", "normal"),
		attribute.String("sunrise", sunriseTime.Format(time.RFC3339)),
		attribute.String("sunset", sunsetTime.Format(time.RFC3339)),
	)
	span.AddEvent("sunrise/sunset calculated", trace.WithAttributes(
		attribute.String("sunrise", sunriseTime.Format(time.RFC3339)),
		attribute.String("sunset", sunsetTime.Format(time.RFC3339)),
	))

	return &sunriseTime, &sunsetTime, nil
}

// julianDayNumber calculates the Julian day for 00:00 UTC of the given
// calendar date.
func julianDayNumber(year, month, day int) float64 {
	if month <= 2 {
		year--
		month += 12
	}

	a := year / 100
	b := 2 - a + a/4

	return math.Floor(365.25*(float64(year)+4716)) +
		math.Floor(30.6001*(float64(month)+1)) +
		float64(day) + float64(b) - 1524.5
}

// decimalHoursToTime converts decimal UTC hours, counted from 00:00 UTC of
// the given calendar date, into a time.Time truncated to the second. Values
// below 0 or at or above 24 land on the previous or next UTC day.
func decimalHoursToTime(decimalHours float64, year int, month time.Month, day int) time.Time {
	midnight := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return midnight.Add(time.Duration(math.Floor(decimalHours*3600)) * time.Second)
}
