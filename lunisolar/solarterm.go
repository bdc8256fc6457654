package lunisolar

import (
	"context"
	"sort"
	"time"

	"github.com/hsato/toki/astronomy"
	"github.com/hsato/toki/rootfind"
)

// solarTermNames maps each of the 24 canonical degree marks to its name.
// Multiples of 30 (even multiples of 15) are 中気 (major terms); odd
// multiples of 15 are 節気 (minor terms). Carried verbatim from the calendar's canonical table.
var solarTermNames = map[int]string{
	0:   "春分",
	15:  "清明",
	30:  "穀雨",
	45:  "立夏",
	60:  "小満",
	75:  "芒種",
	90:  "夏至",
	105: "小暑",
	120: "大暑",
	135: "立秋",
	150: "処暑",
	165: "白露",
	180: "秋分",
	195: "寒露",
	210: "霜降",
	225: "立冬",
	240: "小雪",
	255: "大雪",
	270: "冬至",
	285: "小寒",
	300: "大寒",
	315: "立春",
	330: "雨水",
	345: "啓蟄",
}

// IsMajorTerm reports whether degree is a 中気 (major solar term): a
// multiple of 30 degrees.
func IsMajorTerm(degree int) bool {
	normalized := ((degree % 360) + 360) % 360
	return (normalized/15)%2 == 0
}

// SolarLongitudeCrossings returns instants in [start, end) where the Sun's
// ecliptic longitude crosses targetDeg in the increasing direction.
func SolarLongitudeCrossings(ctx context.Context, provider astronomy.Provider, start, end time.Time, targetDeg float64) ([]time.Time, error) {
	return rootfind.FindCrossings(ctx, start, end, rootfind.DefaultStep, targetDeg, sunLonFunc(ctx, provider))
}

// SolarTermsBetween returns all 24 solar terms whose instant falls in
// [start, end), sorted ascending by time.
func SolarTermsBetween(ctx context.Context, provider astronomy.Provider, start, end time.Time) ([]SolarTerm, error) {
	var terms []SolarTerm

	for k := 0; k < 24; k++ {
		target := float64(15 * k)
		crossings, err := SolarLongitudeCrossings(ctx, provider, start, end, target)
		if err != nil {
			return nil, err
		}
		degree := 15 * k
		name := solarTermNames[degree]
		for _, at := range crossings {
			terms = append(terms, SolarTerm{Name: name, Degree: degree, At: at})
		}
	}

	sort.Slice(terms, func(i, j int) bool {
		return terms[i].At.Before(terms[j].At)
	})

	return terms, nil
}

func sunLonFunc(ctx context.Context, provider astronomy.Provider) func(time.Time) (float64, error) {
	return func(t time.Time) (float64, error) {
		return provider.SunEclipticLongitude(ctx, t)
	}
}
