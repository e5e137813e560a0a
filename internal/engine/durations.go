package engine

import (
	"math"
	"math/rand"
)

// maxVariation bounds how far a slide may differ from its predecessor.
const maxVariation = 0.15

// SlideDurations splits total seconds of visible time across n slides that
// overlap by fade seconds at every cut. The sum of the returned durations is
// total + (n-1)*fade. Each slide differs from the one before by at most ±15%,
// and none is shorter than 1.1*fade. The same seed gives the same durations.
func SlideDurations(total float64, n int, fade float64, seed int64) []float64 {
	if n <= 0 {
		return nil
	}
	fades := float64(n - 1)
	clips := total + fades*fade
	base := clips / float64(n)

	r := rand.New(rand.NewSource(seed))
	vary := func() float64 { return r.Float64()*2*maxVariation - maxVariation }

	durations := make([]float64, n)
	durations[0] = base * (1 + vary())
	for i := 1; i < n; i++ {
		durations[i] = durations[i-1] * (1 + vary())
		if durations[i] < fade*1.1 {
			durations[i] = fade * 1.1
		}
	}

	sum := 0.0
	for _, d := range durations {
		sum += d
	}
	scale := clips / sum
	for i := range durations {
		durations[i] *= scale
	}
	return durations
}

// alignToFrames rounds each duration to a whole number of frames.
func alignToFrames(durations []float64, fps float64) {
	for i, d := range durations {
		durations[i] = math.Round(d*fps) / fps
	}
}
