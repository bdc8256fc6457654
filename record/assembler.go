package record

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/hsato/toki/astronomy"
	"github.com/hsato/toki/lunisolar"
	"github.com/hsato/toki/observability"
	"github.com/hsato/toki/rootfind"
)

var jst = time.FixedZone("Asia/Tokyo", 9*60*60)

// Assembler composes public day and range records from an astronomy
// provider and the lunisolar builder it backs.
type Assembler struct {
	provider       astronomy.Provider
	builder        *lunisolar.Builder
	ephemerisLabel string
	lat, lon       float64
}

// NewAssembler returns an Assembler. ephemerisLabel is surfaced verbatim in
// every record's meta.ephemeris field.
func NewAssembler(provider astronomy.Provider, ephemerisLabel string, lat, lon float64) *Assembler {
	return &Assembler{
		provider:       provider,
		builder:        lunisolar.NewBuilder(provider),
		ephemerisLabel: ephemerisLabel,
		lat:            lat,
		lon:            lon,
	}
}

func (a *Assembler) meta() Meta {
	return Meta{TZ: "Asia/Tokyo", DayBasis: "jst", Ephemeris: a.ephemerisLabel}
}

// Day assembles the record for a single civil date.
func (a *Assembler) Day(ctx context.Context, d lunisolar.CivilDate) (*DayRecord, error) {
	start := time.Now()
	observability.RecordCalculationStart(ctx, "record.Day", map[string]interface{}{"date": d.String()})

	day, err := a.day(ctx, d)

	observability.RecordCalculationEnd(ctx, "record.Day", err == nil, time.Since(start), map[string]interface{}{"date": d.String()})
	if err != nil {
		observability.RecordError(ctx, err, observability.ErrorContext{
			Severity:  severityFor(err),
			Category:  categorize(err),
			Operation: "record.Day",
			Component: "record.Assembler",
			Additional: map[string]interface{}{
				"date": d.String(),
			},
		})
	}
	return day, err
}

func (a *Assembler) day(ctx context.Context, d lunisolar.CivilDate) (*DayRecord, error) {
	months, err := a.builder.Resolve(ctx, d, d)
	if err != nil {
		return nil, err
	}

	lunarDate, err := lunisolar.DateAt(months, d)
	if err != nil {
		return nil, err
	}

	windowStart := d.MidnightJST()
	windowEnd := d.AddDays(1).MidnightJST()

	terms, err := lunisolar.SolarTermsBetween(ctx, a.provider, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	newMoons, err := lunisolar.NewMoonsBetween(ctx, a.provider, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	return a.buildDayRecord(ctx, d, lunarDate, terms, newMoons)
}

// Range assembles the record for an inclusive [start, end] civil date
// range, along with the flat sorted event lists for the whole range.
func (a *Assembler) Range(ctx context.Context, start, end lunisolar.CivilDate) (*RangeRecord, error) {
	if end.Before(start) {
		observability.RecordValidationFailure(ctx, "range", end.String(), "end is before start")
		return nil, &lunisolar.ErrInvalidInput{Field: "range", Reason: "end is before start"}
	}

	begun := time.Now()
	observability.RecordCalculationStart(ctx, "record.Range", map[string]interface{}{"start": start.String(), "end": end.String()})
	rng, err := a.rangeRecord(ctx, start, end)
	observability.RecordCalculationEnd(ctx, "record.Range", err == nil, time.Since(begun), map[string]interface{}{"start": start.String(), "end": end.String()})
	if err != nil {
		observability.RecordError(ctx, err, observability.ErrorContext{
			Severity:  severityFor(err),
			Category:  categorize(err),
			Operation: "record.Range",
			Component: "record.Assembler",
			Additional: map[string]interface{}{
				"start": start.String(),
				"end":   end.String(),
			},
		})
	}
	return rng, err
}

// categorize maps an assembler failure to the observability category for
// the layer that actually produced it, so traces and logs point at
// ephemeris outages, root-find non-convergence, or calendar resolution
// failures instead of one undifferentiated "calculation" bucket.
func categorize(err error) observability.ErrorCategory {
	var ephemerisErr *astronomy.ErrEphemerisUnavailable
	var rangeErr *astronomy.ErrOutOfEphemerisRange
	var rootFindErr *rootfind.ErrRootFindFailed
	var lunisolarErr *lunisolar.ErrLunisolarResolutionFailed
	var invalidErr *lunisolar.ErrInvalidInput

	switch {
	case errors.As(err, &ephemerisErr), errors.As(err, &rangeErr):
		return observability.CategoryEphemeris
	case errors.As(err, &rootFindErr):
		return observability.CategoryRootFind
	case errors.As(err, &lunisolarErr):
		return observability.CategoryLunisolar
	case errors.As(err, &invalidErr):
		return observability.CategoryValidation
	default:
		return observability.CategoryInternal
	}
}

// severityFor rates ephemeris outages and root-find failures as high
// severity (the calculation cannot proceed by any path), validation
// failures as low (the caller's mistake, not the system's), and
// everything else as medium.
func severityFor(err error) observability.ErrorSeverity {
	switch categorize(err) {
	case observability.CategoryEphemeris, observability.CategoryRootFind:
		return observability.SeverityHigh
	case observability.CategoryValidation:
		return observability.SeverityLow
	default:
		return observability.SeverityMedium
	}
}

func (a *Assembler) rangeRecord(ctx context.Context, start, end lunisolar.CivilDate) (*RangeRecord, error) {
	months, err := a.builder.Resolve(ctx, start, end)
	if err != nil {
		return nil, err
	}

	windowStart := start.MidnightJST()
	windowEnd := end.AddDays(1).MidnightJST()

	terms, err := lunisolar.SolarTermsBetween(ctx, a.provider, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	newMoons, err := lunisolar.NewMoonsBetween(ctx, a.provider, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	termsByDate := make(map[string][]lunisolar.SolarTerm)
	for _, term := range terms {
		key := lunisolar.AttributeJST(term.At).String()
		termsByDate[key] = append(termsByDate[key], term)
	}

	moonsByDate := make(map[string][]lunisolar.NewMoon)
	for _, moon := range newMoons {
		key := lunisolar.AttributeJST(moon.At).String()
		moonsByDate[key] = append(moonsByDate[key], moon)
	}

	var days []DayRecord
	for d := start; !d.After(end); d = d.AddDays(1) {
		lunarDate, err := lunisolar.DateAt(months, d)
		if err != nil {
			return nil, err
		}

		dayRecord, err := a.buildDayRecord(ctx, d, lunarDate, termsByDate[d.String()], moonsByDate[d.String()])
		if err != nil {
			return nil, err
		}
		days = append(days, *dayRecord)
	}

	sekkiEvents := make([]SekkiEvent, len(terms))
	for i, term := range terms {
		sekkiEvents[i] = toSekkiEvent(term)
	}

	phaseEvents := make([]PhaseEvent, len(newMoons))
	for i, moon := range newMoons {
		phaseEvents[i] = *toPhaseEvent(moon)
	}

	return &RangeRecord{
		Meta:  a.meta(),
		Range: RangeSpan{Start: start.String(), End: end.String()},
		Days:  days,
		Events: RangeEvents{
			Sekki:      sekkiEvents,
			MoonPhases: phaseEvents,
		},
	}, nil
}

func (a *Assembler) buildDayRecord(ctx context.Context, d lunisolar.CivilDate, lunarDate lunisolar.LunisolarDate, terms []lunisolar.SolarTerm, newMoons []lunisolar.NewMoon) (*DayRecord, error) {
	moonAge, err := a.provider.MoonAge(ctx, d.MidnightJST())
	if err != nil {
		return nil, err
	}

	sunrise, sunset, err := a.provider.SunriseSunset(ctx, time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC), a.lat, a.lon)
	if err != nil {
		return nil, err
	}

	var sekki *Sekki
	if len(terms) > 0 {
		events := make([]SekkiEvent, len(terms))
		for i, term := range terms {
			events[i] = toSekkiEvent(term)
		}
		primary := events[0]
		sekki = &Sekki{Primary: &primary, Events: events}
	}

	var phaseEvent *PhaseEvent
	if len(newMoons) > 0 {
		phaseEvent = toPhaseEvent(newMoons[0])
	}

	return &DayRecord{
		Meta: a.meta(),
		Date: d.String(),
		Lunisolar: Lunisolar{
			Year:       lunarDate.Year,
			Month:      lunarDate.Month,
			Day:        lunarDate.Day,
			Leap:       lunarDate.Leap,
			MonthLabel: MonthLabel(lunarDate.Month, lunarDate.Leap),
			Label:      Label(lunarDate.Month, lunarDate.Day, lunarDate.Leap),
			MonthName:  MonthName(lunarDate.Month, lunarDate.Leap),
		},
		Rokuyo: lunisolar.Rokuyo(lunarDate.Month, lunarDate.Day),
		Sekki:  sekki,
		Astronomy: Astronomy{
			MoonAge:    roundTo(moonAge, 6),
			PhaseEvent: phaseEvent,
			Sunrise:    isoPtr(sunrise),
			Sunset:     isoPtr(sunset),
		},
	}, nil
}

func toSekkiEvent(term lunisolar.SolarTerm) SekkiEvent {
	return SekkiEvent{
		Name:    term.Name,
		Degree:  term.Degree,
		AtJST:   isoJST(term.At),
		DateJST: lunisolar.AttributeJST(term.At).String(),
	}
}

func toPhaseEvent(moon lunisolar.NewMoon) *PhaseEvent {
	return &PhaseEvent{
		Type:    "new_moon",
		AtJST:   isoJST(moon.At),
		DateJST: lunisolar.AttributeJST(moon.At).String(),
	}
}

func isoJST(t time.Time) string {
	return t.In(jst).Format("2006-01-02T15:04:05-07:00")
}

func isoPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := isoJST(*t)
	return &s
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
