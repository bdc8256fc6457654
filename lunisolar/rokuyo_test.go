package lunisolar

import "testing"

func TestRokuyoCycle(t *testing.T) {
	want := []string{"先勝", "友引", "先負", "仏滅", "大安", "赤口"}
	for i, name := range want {
		if got := Rokuyo(1, i+1); got != name {
			t.Errorf("Rokuyo(1, %d) = %q, want %q", i+1, got, name)
		}
	}
}

func TestRokuyoWrapsAcrossMonths(t *testing.T) {
	if Rokuyo(1, 1) != Rokuyo(2, 6) {
		t.Errorf("Rokuyo should depend only on (month+day) mod 6")
	}
}
