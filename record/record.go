// Package record assembles the stable public JSON record (day and range
// shapes) from the lunisolar and astronomy packages.
package record

import "fmt"

var kanjiDigits = [...]string{
	"一", "二", "三", "四", "五", "六", "七", "八", "九", "十", "十一", "十二",
}

func kanjiMonth(month int) string {
	return kanjiDigits[month-1]
}

// MonthLabel renders a lunisolar month as zero-padded two digits with a 閏
// prefix when leap.
func MonthLabel(month int, leap bool) string {
	prefix := ""
	if leap {
		prefix = "閏"
	}
	return fmt.Sprintf("%s%02d", prefix, month)
}

// MonthName renders a lunisolar month as its kanji numeral name, e.g. 五月,
// 閏五月.
func MonthName(month int, leap bool) string {
	prefix := ""
	if leap {
		prefix = "閏"
	}
	return prefix + kanjiMonth(month) + "月"
}

// Label renders the combined "<month_label>/DD" form.
func Label(month, day int, leap bool) string {
	return fmt.Sprintf("%s/%02d", MonthLabel(month, leap), day)
}

// Meta describes the configuration under which a record was produced.
type Meta struct {
	TZ        string `json:"tz"`
	DayBasis  string `json:"day_basis"`
	Ephemeris string `json:"ephemeris"`
}

// Lunisolar is the resolved 旧暦 date plus its derived display fields.
type Lunisolar struct {
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Day        int    `json:"day"`
	Leap       bool   `json:"leap"`
	MonthLabel string `json:"month_label"`
	Label      string `json:"label"`
	MonthName  string `json:"month_name"`
}

// SekkiEvent is a single solar-term crossing attributed to a JST date.
type SekkiEvent struct {
	Name    string `json:"name"`
	Degree  int    `json:"degree"`
	AtJST   string `json:"at_jst"`
	DateJST string `json:"date_jst"`
}

// Sekki groups the solar terms attributed to a single day.
type Sekki struct {
	Primary *SekkiEvent  `json:"primary"`
	Events  []SekkiEvent `json:"events"`
}

// PhaseEvent is a moon-phase crossing (currently only new_moon is emitted;
// full moon is a documented extension point, see spec Open Questions).
type PhaseEvent struct {
	Type    string `json:"type"`
	AtJST   string `json:"at_jst"`
	DateJST string `json:"date_jst"`
}

// Astronomy is the thin pass-through astronomical block of a day record.
type Astronomy struct {
	MoonAge    float64     `json:"moon_age"`
	PhaseEvent *PhaseEvent `json:"phase_event"`
	Sunrise    *string     `json:"sunrise"`
	Sunset     *string     `json:"sunset"`
}

// DayRecord is the stable per-day public JSON shape.
type DayRecord struct {
	Meta      Meta      `json:"meta"`
	Date      string    `json:"date"`
	Lunisolar Lunisolar `json:"lunisolar"`
	Rokuyo    string    `json:"rokuyo"`
	Sekki     *Sekki    `json:"sekki"`
	Astronomy Astronomy `json:"astronomy"`
}

// RangeSpan is the inclusive [start, end] of a range record.
type RangeSpan struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// RangeEvents is the flat, sorted union of events across a range record's
// days.
type RangeEvents struct {
	Sekki       []SekkiEvent `json:"sekki"`
	MoonPhases  []PhaseEvent `json:"moon_phases"`
}

// RangeRecord is the stable public JSON shape for a date range.
type RangeRecord struct {
	Meta   Meta        `json:"meta"`
	Range  RangeSpan   `json:"range"`
	Days   []DayRecord `json:"days"`
	Events RangeEvents `json:"events"`
}
