package lunisolar

// rokuyoNames maps (month+day) mod 6 to its rokuyō label. The leap flag
// does not affect the computation: a leap month reuses its anchor month's
// number.
var rokuyoNames = [6]string{
	0: "大安",
	1: "赤口",
	2: "先勝",
	3: "友引",
	4: "先負",
	5: "仏滅",
}

// Rokuyo returns the six-day rokuyō label for a lunisolar month/day pair.
func Rokuyo(month, day int) string {
	return rokuyoNames[(month+day)%6]
}
