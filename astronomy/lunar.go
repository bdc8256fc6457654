package astronomy

import "math"

const (
	// LunarSynodicMonth is the average period between successive new
	// moons, in days.
	LunarSynodicMonth = 29.530588853
)

// moonEclipticLongitudeDeg returns the Moon's apparent ecliptic longitude
// for the given Julian day, using the truncated Meeus periodic series
// (the ten largest longitude perturbation terms).
func moonEclipticLongitudeDeg(jd float64) float64 {
	T := (jd - 2451545.0) / 36525.0

	L := math.Mod(218.3164477+481267.88123421*T-0.0015786*T*T+T*T*T/538841.0-T*T*T*T/65194000.0, 360.0)
	D := math.Mod(297.8501921+445267.1114034*T-0.0018819*T*T+T*T*T/545868.0-T*T*T*T/113065000.0, 360.0)
	M := math.Mod(357.5291092+35999.0502909*T-0.0001536*T*T+T*T*T/24490000.0, 360.0)
	MPrime := math.Mod(134.9633964+477198.8675055*T+0.0087414*T*T+T*T*T/69699.0-T*T*T*T/14712000.0, 360.0)
	F := math.Mod(93.2720950+483202.0175233*T-0.0036539*T*T-T*T*T/3526000.0+T*T*T*T/863310000.0, 360.0)

	DRad := D * DegToRad
	MRad := M * DegToRad
	MPrimeRad := MPrime * DegToRad
	FRad := F * DegToRad

	lonCorrection := 6.288774*math.Sin(MPrimeRad) +
		1.274027*math.Sin(2*DRad-MPrimeRad) +
		0.658314*math.Sin(2*DRad) +
		0.213618*math.Sin(2*MPrimeRad) -
		0.185116*math.Sin(MRad) -
		0.114332*math.Sin(2*FRad) +
		0.058793*math.Sin(2*(DRad-MPrimeRad)) +
		0.057066*math.Sin(2*DRad-MRad-MPrimeRad) +
		0.053322*math.Sin(2*DRad+MPrimeRad) +
		0.045758*math.Sin(2*DRad-MRad)

	lambda := L + lonCorrection
	return normalizeDegrees(lambda)
}

// moonPhaseDeg returns the Moon's phase angle in degrees, 0 = new,
// 180 = full, derived from the Sun/Moon ecliptic longitude difference so
// that phase and longitude stay mutually consistent (the spec's own
// definition of moon_phase_deg).
func moonPhaseDeg(sunLonDeg, moonLonDeg float64) float64 {
	return normalizeDegrees(moonLonDeg - sunLonDeg)
}
