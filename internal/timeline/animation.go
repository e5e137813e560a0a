package timeline

import "fmt"

// AnimationType names the property an animation drives.
type AnimationType string

const (
	AnimateZoom   AnimationType = "zoom"
	AnimatePan    AnimationType = "pan"
	AnimateFade   AnimationType = "fade"
	AnimateRotate AnimationType = "rotate"
	AnimateScale  AnimationType = "scale"
)

// Animation moves one property of a visual clip from From to To. Offset is
// measured from the clip start.
type Animation struct {
	Type     AnimationType `yaml:"type"`
	From     float64       `yaml:"from"`
	To       float64       `yaml:"to"`
	Offset   float64       `yaml:"offset,omitempty"`
	Duration float64       `yaml:"duration"`
	Easing   Easing        `yaml:"easing,omitempty"`
}

// Validate checks the animation type and time window.
func (a Animation) Validate() error {
	switch a.Type {
	case AnimateZoom, AnimatePan, AnimateFade, AnimateRotate, AnimateScale:
	default:
		return fmt.Errorf("%w: animation type %q", ErrUnsupportedVariant, a.Type)
	}
	if !finite(a.From) || !finite(a.To) {
		return fmt.Errorf("%w: animation values must be finite", ErrOutOfRange)
	}
	if !finite(a.Offset) || a.Offset < 0 {
		return fmt.Errorf("%w: animation offset %v", ErrOutOfRange, a.Offset)
	}
	if !finite(a.Duration) || a.Duration <= 0 {
		return fmt.Errorf("%w: animation duration %v must be positive", ErrOutOfRange, a.Duration)
	}
	if a.Type == AnimateFade && (a.From < 0 || a.From > 1 || a.To < 0 || a.To > 1) {
		return fmt.Errorf("%w: fade animation values must be in [0, 1]", ErrOutOfRange)
	}
	_, err := ParseEasing(string(a.Easing))
	return err
}

// ValueAt returns the animated value local seconds after the clip start. Before
// the window it holds From, after it holds To.
func (a Animation) ValueAt(local float64) float64 {
	return a.Easing.interpolate(a.From, a.To, local-a.Offset, a.Duration)
}
