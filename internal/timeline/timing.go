package timeline

import (
	"fmt"
	"math"
)

// Timing is the spine shared by every clip variant: a start time plus at most one
// of an explicit duration or an explicit end time. With neither, the clip is
// open-ended.
type Timing struct {
	start       float64
	duration    float64
	end         float64
	hasDuration bool
	hasEnd      bool
}

// NewTiming validates and builds a Timing. Passing both duration and end fails
// with ErrConflictingTiming; an end before start fails with ErrInvalidTimeRange.
// An end equal to start is accepted and yields a zero-length clip.
func NewTiming(start float64, duration, end *float64) (Timing, error) {
	if duration != nil && end != nil {
		return Timing{}, fmt.Errorf("%w: got duration %.3f and end %.3f", ErrConflictingTiming, *duration, *end)
	}
	if !finite(start) || start < 0 {
		return Timing{}, fmt.Errorf("%w: start time %v must be a non-negative number", ErrOutOfRange, start)
	}

	t := Timing{start: start}
	switch {
	case duration != nil:
		if !finite(*duration) || *duration < 0 {
			return Timing{}, fmt.Errorf("%w: duration %v must be a non-negative number", ErrOutOfRange, *duration)
		}
		t.duration = *duration
		t.hasDuration = true
	case end != nil:
		if !finite(*end) {
			return Timing{}, fmt.Errorf("%w: end time %v", ErrOutOfRange, *end)
		}
		if *end < start {
			return Timing{}, fmt.Errorf("%w: end %.3f is before start %.3f", ErrInvalidTimeRange, *end, start)
		}
		t.end = *end
		t.hasEnd = true
	}
	return t, nil
}

// StartTime returns the clip start in seconds.
func (t Timing) StartTime() float64 { return t.start }

// Duration returns the clip length. The second value is false for open-ended clips.
func (t Timing) Duration() (float64, bool) {
	switch {
	case t.hasDuration:
		return t.duration, true
	case t.hasEnd:
		return t.end - t.start, true
	}
	return 0, false
}

// EndTime returns start+duration, or the explicit end. The second value is false
// for open-ended clips, which have no end.
func (t Timing) EndTime() (float64, bool) {
	switch {
	case t.hasDuration:
		return t.start + t.duration, true
	case t.hasEnd:
		return t.end, true
	}
	return 0, false
}

// IsOpenEnded reports whether neither duration nor end was supplied.
func (t Timing) IsOpenEnded() bool {
	return !t.hasDuration && !t.hasEnd
}

// HasExplicitEnd reports whether the timing was built from an end time rather
// than a duration.
func (t Timing) HasExplicitEnd() bool { return t.hasEnd }

// IsActiveAt reports whether t falls inside [start, end). Open-ended clips are
// active for every t at or after their start.
func (t Timing) IsActiveAt(at float64) bool {
	if at < t.start {
		return false
	}
	end, ok := t.EndTime()
	return !ok || at < end
}

// span gives the embedding clip access to its own timing through the Clip interface.
func (t *Timing) span() *Timing { return t }

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
