package lunisolar

import (
	"context"
	"time"

	"github.com/hsato/toki/astronomy"
	"github.com/hsato/toki/rootfind"
)

// NewMoonsBetween returns new moons in [start, end), delegating to
// rootfind.FindCrossings against the provider's moon phase with target 0.
// Consecutive results are strictly ascending with a gap in [27, 31] days.
func NewMoonsBetween(ctx context.Context, provider astronomy.Provider, start, end time.Time) ([]NewMoon, error) {
	times, err := rootfind.FindCrossings(ctx, start, end, rootfind.DefaultStep, 0.0, phaseFunc(ctx, provider))
	if err != nil {
		return nil, err
	}

	moons := make([]NewMoon, len(times))
	for i, t := range times {
		moons[i] = NewMoon{At: t}
	}
	return moons, nil
}

// FullMoonsBetween returns full moons (moon phase crossing 180 degrees) in
// [start, end). Documented extension point: not currently wired into the
// public record's phase_event field, which spec.md's Open Questions leave
// undefined for full moons.
func FullMoonsBetween(ctx context.Context, provider astronomy.Provider, start, end time.Time) ([]NewMoon, error) {
	times, err := rootfind.FindCrossings(ctx, start, end, rootfind.DefaultStep, 180.0, phaseFunc(ctx, provider))
	if err != nil {
		return nil, err
	}

	moons := make([]NewMoon, len(times))
	for i, t := range times {
		moons[i] = NewMoon{At: t}
	}
	return moons, nil
}

func phaseFunc(ctx context.Context, provider astronomy.Provider) func(time.Time) (float64, error) {
	return func(t time.Time) (float64, error) {
		return provider.MoonPhase(ctx, t)
	}
}
