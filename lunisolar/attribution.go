package lunisolar

import "time"

// AttributeJST is the sole day-basis attribution rule: an instant t
// attributes to the calendar date of its JST (UTC+09:00) wall clock. Every
// other package converts through this function rather than recomputing the
// shift inline.
func AttributeJST(t time.Time) CivilDate {
	local := t.In(jst)
	return CivilDate{Year: local.Year(), Month: int(local.Month()), Day: local.Day()}
}
