package lunisolar

import (
	"testing"
	"time"
)

func TestAttributeJSTRollsForwardAcrossUTCMidnight(t *testing.T) {
	// 1996-01-01 15:30 UTC is 1996-01-02 00:30 JST.
	at := time.Date(1996, 1, 1, 15, 30, 0, 0, time.UTC)
	got := AttributeJST(at)
	want := CivilDate{Year: 1996, Month: 1, Day: 2}
	if !got.Equal(want) {
		t.Errorf("AttributeJST(%v) = %v, want %v", at, got, want)
	}
}

func TestAttributeJSTStaysOnSameUTCDayBeforeJSTMidnight(t *testing.T) {
	at := time.Date(1996, 1, 1, 10, 0, 0, 0, time.UTC)
	got := AttributeJST(at)
	want := CivilDate{Year: 1996, Month: 1, Day: 1}
	if !got.Equal(want) {
		t.Errorf("AttributeJST(%v) = %v, want %v", at, got, want)
	}
}

func TestCivilDateMidnightJSTRoundTrips(t *testing.T) {
	d := CivilDate{Year: 2020, Month: 1, Day: 25}
	got := AttributeJST(d.MidnightJST())
	if !got.Equal(d) {
		t.Errorf("round trip through MidnightJST/AttributeJST = %v, want %v", got, d)
	}
}

func TestCivilDateOrdering(t *testing.T) {
	a := CivilDate{Year: 2020, Month: 1, Day: 25}
	b := CivilDate{Year: 2020, Month: 1, Day: 26}
	if !a.Before(b) || !b.After(a) || a.Equal(b) {
		t.Errorf("ordering broken for %v, %v", a, b)
	}
	if !a.AddDays(1).Equal(b) {
		t.Errorf("AddDays(1) on %v = %v, want %v", a, a.AddDays(1), b)
	}
}
