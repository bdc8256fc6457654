// Package rootfind finds the instants where a cyclic, slowly varying
// angular quantity (solar ecliptic longitude, lunar phase angle) crosses a
// target value. It never subtracts raw angles across the 359 degrees to 0
// degrees wrap: every comparison works on an unwrapped residual instead.
package rootfind

import (
	"context"
	"fmt"
	"math"
	"time"
)

// DefaultStep is the coarse scan step used when callers do not provide
// one. It is safe because the fastest target this module tracks (lunar
// phase, about 12.19 degrees/day) cannot traverse a full 360 degrees within
// three hours.
const DefaultStep = 3 * time.Hour

// maxBisectIterations caps the refinement loop so a pathological g cannot
// spin forever.
const maxBisectIterations = 60

// toleranceSeconds and toleranceDegrees bound the bisection: it stops once
// either the bracket width or the residual gets this tight, whichever
// happens first.
const (
	toleranceSeconds = 1.0
	toleranceDegrees = 1e-4
)

// dedupWindow merges crossings closer together than this; spec.md pins this
// at one minute to rule out spurious double-detections near a tangency.
const dedupWindow = time.Minute

// ErrRootFindFailed is returned when the scan range is empty or inverted,
// or when g fails during the scan or bisection. A range with no crossings
// is not an error: FindCrossings returns an empty result.
type ErrRootFindFailed struct {
	TargetDeg float64
	Start     time.Time
	End       time.Time
	Reason    string
}

func (e *ErrRootFindFailed) Error() string {
	return fmt.Sprintf("root find failed for target %.4f deg in [%s, %s]: %s",
		e.TargetDeg, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), e.Reason)
}

// FindCrossings returns the instants in [a, b) at which g(t) crosses
// targetDeg in the increasing direction, modulo 360. a is included in the
// scan, b is not (the half-open convention spec.md's callers need for
// month/term enumeration).
//
// Algorithm: sample g at step intervals forming (t_i, g(t_i)) pairs, form
// the unwrapped residual u_i = (g(t_i) - targetDeg) mod 360, and look for a
// sign change of sin(u) with cos(u) > 0 — that is, u crossing 0 while
// moving forward, not backward through the far side of the circle. Each
// bracket found is then bisected on the unwrapped residual to 1 second or
// 1e-4 degrees, capped at 60 iterations, and adjacent crossings within one
// minute of each other are merged.
func FindCrossings(ctx context.Context, a, b time.Time, step time.Duration, targetDeg float64, g func(time.Time) (float64, error)) ([]time.Time, error) {
	if step <= 0 {
		step = DefaultStep
	}
	if !b.After(a) {
		return nil, &ErrRootFindFailed{TargetDeg: targetDeg, Start: a, End: b, Reason: "empty or inverted range"}
	}

	var crossings []time.Time

	prevT := a
	prevVal, err := g(prevT)
	if err != nil {
		return nil, &ErrRootFindFailed{TargetDeg: targetDeg, Start: a, End: b, Reason: err.Error()}
	}
	prevResidual := unwrappedResidual(prevVal, targetDeg)

	for prevT.Before(b) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		nextT := prevT.Add(step)
		if nextT.After(b) {
			nextT = b
		}

		nextVal, err := g(nextT)
		if err != nil {
			return nil, &ErrRootFindFailed{TargetDeg: targetDeg, Start: a, End: b, Reason: err.Error()}
		}
		nextResidual := unwrappedResidual(nextVal, targetDeg)

		if isForwardCrossing(prevResidual, nextResidual) {
			crossing, err := bisect(ctx, prevT, nextT, targetDeg, g)
			if err != nil {
				return nil, err
			}
			if !crossing.Before(a) && crossing.Before(b) {
				crossings = append(crossings, crossing)
			}
		}

		prevT = nextT
		prevResidual = nextResidual

		if !nextT.Before(b) {
			break
		}
	}

	return dedupe(crossings), nil
}

// unwrappedResidual maps g(t) - targetDeg into [0, 360), so the crossing
// test can treat every target uniformly regardless of where on the circle
// it sits.
func unwrappedResidual(val, targetDeg float64) float64 {
	r := math.Mod(val-targetDeg, 360.0)
	if r < 0 {
		r += 360.0
	}
	return r
}

// isForwardCrossing reports whether the residual wrapped from near 360
// down to near 0 between two samples — g advancing past the target in the
// increasing direction. g is monotonic enough within one scan step for
// every target this module tracks, so this reduces to a plain decrease.
func isForwardCrossing(prevResidual, nextResidual float64) bool {
	if prevResidual == 0 {
		return false
	}
	return nextResidual < prevResidual
}

// bisect refines a bracket known to contain a forward crossing down to the
// tolerance, working on the unwrapped residual so the comparison never
// straddles the 360-to-0 discontinuity.
func bisect(ctx context.Context, lo, hi time.Time, targetDeg float64, g func(time.Time) (float64, error)) (time.Time, error) {
	loVal, err := g(lo)
	if err != nil {
		return time.Time{}, &ErrRootFindFailed{TargetDeg: targetDeg, Start: lo, End: hi, Reason: err.Error()}
	}
	loResidual := unwrappedResidual(loVal, targetDeg)

	for i := 0; i < maxBisectIterations; i++ {
		if err := ctx.Err(); err != nil {
			return time.Time{}, err
		}

		width := hi.Sub(lo)
		if width.Seconds() <= toleranceSeconds {
			break
		}

		mid := lo.Add(width / 2)
		midVal, err := g(mid)
		if err != nil {
			return time.Time{}, &ErrRootFindFailed{TargetDeg: targetDeg, Start: lo, End: hi, Reason: err.Error()}
		}
		midResidual := unwrappedResidual(midVal, targetDeg)

		if midResidual < loResidual {
			hi = mid
		} else {
			lo = mid
			loResidual = midResidual
		}

		if midResidual <= toleranceDegrees || 360.0-midResidual <= toleranceDegrees {
			return mid, nil
		}
	}

	return lo.Add(hi.Sub(lo) / 2), nil
}

// dedupe merges crossings within one minute of each other, keeping the
// earlier instant, so a tangency near the bisection tolerance cannot
// surface as two near-duplicate events.
func dedupe(times []time.Time) []time.Time {
	if len(times) == 0 {
		return nil
	}

	result := []time.Time{times[0]}
	for _, t := range times[1:] {
		last := result[len(result)-1]
		if t.Sub(last) >= dedupWindow {
			result = append(result, t)
		}
	}
	return result
}
