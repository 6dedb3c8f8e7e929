// Package scoring turns judged answers into points and keeps the ranked
// scoreboard of a game.
package scoring

import (
	"math"
	"time"
)

// Points computes what a judged answer earns.
//
// A full-credit answer submitted instantly earns base; one submitted at the
// very end of the window earns base*floor. Elapsed values outside the window
// are clamped. Zero credit always earns zero.
func Points(base int, credit float64, elapsed, limit time.Duration, floor float64) int {
	if credit <= 0 || base <= 0 {
		return 0
	}
	if credit > 1 {
		credit = 1
	}

	progress := 1.0
	if limit > 0 {
		progress = clamp(float64(elapsed)/float64(limit), 0, 1)
	}
	floor = clamp(floor, 0, 1)

	return int(math.Round(float64(base) * credit * (1 - (1-floor)*progress)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
