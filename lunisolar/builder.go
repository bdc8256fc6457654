package lunisolar

import (
	"context"
	"time"

	"github.com/hsato/toki/astronomy"
)

// yearMarginDays bounds the window searched for the winter-solstice anchors
// a leap-month resolution needs. It must comfortably exceed one lunisolar
// year (354-384 days) on each side of the requested range so every month in
// range falls inside a fully resolved 冬至-to-冬至 segment.
const yearMarginDays = 400

// Builder resolves lunisolar months, day assignment, and leap-month
// placement from an astronomy.Provider.
type Builder struct {
	provider astronomy.Provider
}

// NewBuilder constructs a Builder backed by provider.
func NewBuilder(provider astronomy.Provider) *Builder {
	return &Builder{provider: provider}
}

// Resolve returns every LunarMonth whose new-moon-to-new-moon span overlaps
// a window around [start, end], with Number/Leap/Year fully assigned for
// every month inside at least one complete 冬至-to-冬至 segment found in
// that window.
func (b *Builder) Resolve(ctx context.Context, start, end CivilDate) ([]LunarMonth, error) {
	margin := yearMarginDays
	if span := daysBetween(start, end); span/2+yearMarginDays > margin {
		margin = span/2 + yearMarginDays
	}

	windowStart := start.AddDays(-margin).MidnightJST()
	windowEnd := end.AddDays(margin).MidnightJST()

	newMoons, err := NewMoonsBetween(ctx, b.provider, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	if len(newMoons) < 2 {
		return nil, &ErrLunisolarResolutionFailed{Reason: "insufficient new moons in padded window"}
	}

	months := make([]LunarMonth, 0, len(newMoons)-1)
	for i := 0; i < len(newMoons)-1; i++ {
		months = append(months, LunarMonth{
			Start:     newMoons[i].At,
			End:       newMoons[i+1].At,
			StartDate: AttributeJST(newMoons[i].At),
		})
	}

	terms, err := SolarTermsBetween(ctx, b.provider, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	for i := range months {
		months[i].MajorTerms = countMajorTermsIn(terms, months[i].Start, months[i].End)
	}

	dongzhi := winterSolsticesFrom(terms)
	if len(dongzhi) < 2 {
		return nil, &ErrLunisolarResolutionFailed{Reason: "insufficient winter solstices in padded window"}
	}

	if err := resolveMonthNumbers(months, dongzhi); err != nil {
		return nil, err
	}

	return months, nil
}

// DateAt resolves the lunisolar calendar date for civil date d against an
// already-resolved month list (see Resolve).
func DateAt(months []LunarMonth, d CivilDate) (LunisolarDate, error) {
	for i, m := range months {
		if m.Number == 0 {
			continue
		}

		var nextStart CivilDate
		if i+1 < len(months) {
			nextStart = months[i+1].StartDate
		} else {
			nextStart = m.StartDate.AddDays(31)
		}

		if !d.Before(m.StartDate) && d.Before(nextStart) {
			day := daysBetween(m.StartDate, d) + 1
			return LunisolarDate{Year: m.Year, Month: m.Number, Day: day, Leap: m.Leap}, nil
		}
	}
	return LunisolarDate{}, &ErrLunisolarResolutionFailed{Reason: "date not covered by any resolved lunar month"}
}

func countMajorTermsIn(terms []SolarTerm, start, end time.Time) int {
	count := 0
	for _, term := range terms {
		if term.IsMajor() && !term.At.Before(start) && term.At.Before(end) {
			count++
		}
	}
	return count
}

func winterSolsticesFrom(terms []SolarTerm) []time.Time {
	var out []time.Time
	for _, term := range terms {
		if term.Degree == 270 {
			out = append(out, term.At)
		}
	}
	return out
}

// resolveMonthNumbers numbers every month between consecutive winter
// solstices 11, 12, 1, 2, ..., 10, wrapping, and designates the first
// zero-major-term span in a 13-month segment as the leap month (reusing
// the preceding month's number). Segments share their boundary month (the
// one containing the next winter solstice becomes that segment's month 11),
// so it is deliberately left unnumbered by this pass and numbered by the
// following one.
func resolveMonthNumbers(months []LunarMonth, dongzhi []time.Time) error {
	for i := 0; i < len(dongzhi)-1; i++ {
		mb, ok := monthIndexContaining(months, dongzhi[i])
		if !ok {
			continue
		}
		me, ok := monthIndexContaining(months, dongzhi[i+1])
		if !ok {
			continue
		}

		count := me - mb
		leapIndex := -1
		if count == 13 {
			for j := mb; j < me; j++ {
				if months[j].MajorTerms == 0 {
					leapIndex = j
					break
				}
			}
		}

		yearAnchor := AttributeJST(dongzhi[i]).Year
		number := 11
		prevNumber := 11
		for j := mb; j < me; j++ {
			if j == leapIndex {
				months[j].Number = prevNumber
				months[j].Leap = true
			} else {
				months[j].Number = number
				months[j].Leap = false
				prevNumber = number
				number++
				if number == 13 {
					number = 1
				}
			}

			if months[j].Number == 11 || months[j].Number == 12 {
				months[j].Year = yearAnchor
			} else {
				months[j].Year = months[j].StartDate.Year
			}
		}
	}
	return nil
}

func monthIndexContaining(months []LunarMonth, t time.Time) (int, bool) {
	for i, m := range months {
		if !t.Before(m.Start) && t.Before(m.End) {
			return i, true
		}
	}
	return -1, false
}

func daysBetween(a, b CivilDate) int {
	ta := time.Date(a.Year, time.Month(a.Month), a.Day, 0, 0, 0, 0, time.UTC)
	tb := time.Date(b.Year, time.Month(b.Month), b.Day, 0, 0, 0, 0, time.UTC)
	return int(tb.Sub(ta).Hours() / 24)
}
