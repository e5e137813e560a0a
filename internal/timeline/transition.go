package timeline

import (
	"fmt"
)

// TransitionType enumerates the supported transition looks.
type TransitionType string

const (
	TransitionFade      TransitionType = "fade"
	TransitionCrossfade TransitionType = "crossfade"
	TransitionDissolve  TransitionType = "dissolve"
	TransitionWipe      TransitionType = "wipe"
	TransitionSlide     TransitionType = "slide"
	TransitionZoom      TransitionType = "zoom"
	TransitionPush      TransitionType = "push"
)

var transitionTypes = []TransitionType{
	TransitionFade, TransitionCrossfade, TransitionDissolve,
	TransitionWipe, TransitionSlide, TransitionZoom, TransitionPush,
}

// ParseTransitionType validates a transition type name.
func ParseTransitionType(s string) (TransitionType, error) {
	for _, tt := range transitionTypes {
		if string(tt) == s {
			return tt, nil
		}
	}
	return "", fmt.Errorf("%w: transition type %q", ErrUnsupportedVariant, s)
}

// Direction is the travel direction of directional transitions (wipe, slide, push).
type Direction string

const (
	DirectionNone  Direction = "none"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionIn    Direction = "in"
	DirectionOut   Direction = "out"
)

// ParseDirection validates a direction name. The empty string means none.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case "":
		return DirectionNone, nil
	case DirectionNone, DirectionLeft, DirectionRight, DirectionUp, DirectionDown, DirectionIn, DirectionOut:
		return d, nil
	}
	return "", fmt.Errorf("%w: direction %q", ErrUnsupportedVariant, s)
}

// MaxTransitionDuration bounds how long a single transition may run, in seconds.
const MaxTransitionDuration = 30.0

// Transition is a timeline-wide timed event. It is not owned by any track; From
// and To optionally name the tracks it bridges.
type Transition struct {
	Type      TransitionType `yaml:"type"`
	Start     float64        `yaml:"start"`
	Duration  float64        `yaml:"duration"`
	Direction Direction      `yaml:"direction,omitempty"`
	Easing    Easing         `yaml:"easing,omitempty"`
	From      []string       `yaml:"from,omitempty"`
	To        []string       `yaml:"to,omitempty"`
	Metadata  map[string]any `yaml:"metadata,omitempty"`
}

// NewTransition builds a validated transition with no direction and linear easing.
func NewTransition(typ TransitionType, start, duration float64) (*Transition, error) {
	t := &Transition{
		Type:      typ,
		Start:     start,
		Duration:  duration,
		Direction: DirectionNone,
		Easing:    EaseLinear,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks every field against its declared bounds.
func (t *Transition) Validate() error {
	if _, err := ParseTransitionType(string(t.Type)); err != nil {
		return err
	}
	if !finite(t.Start) || t.Start < 0 {
		return fmt.Errorf("%w: transition start %v must be non-negative", ErrOutOfRange, t.Start)
	}
	if !finite(t.Duration) || t.Duration <= 0 || t.Duration > MaxTransitionDuration {
		return fmt.Errorf("%w: transition duration %v must be in (0, %.0f]", ErrOutOfRange, t.Duration, MaxTransitionDuration)
	}
	if _, err := ParseDirection(string(t.Direction)); err != nil {
		return err
	}
	if _, err := ParseEasing(string(t.Easing)); err != nil {
		return err
	}
	return nil
}

// EndTime is Start + Duration.
func (t *Transition) EndTime() float64 {
	return t.Start + t.Duration
}

// IsActiveAt reports whether at falls in [Start, EndTime).
func (t *Transition) IsActiveAt(at float64) bool {
	return at >= t.Start && at < t.EndTime()
}

// ProgressAt returns the eased completion of the transition at the given time,
// clamped to [0, 1].
func (t *Transition) ProgressAt(at float64) float64 {
	return t.Easing.Progress(at-t.Start, t.Duration)
}

// ClipTransition is an in or out transition attached to a single visual clip.
type ClipTransition struct {
	Type     TransitionType `yaml:"type"`
	Duration float64        `yaml:"duration"`
	Easing   Easing         `yaml:"easing,omitempty"`
}

// Validate checks the attachment's type, duration and easing.
func (ct ClipTransition) Validate() error {
	if _, err := ParseTransitionType(string(ct.Type)); err != nil {
		return err
	}
	if !finite(ct.Duration) || ct.Duration <= 0 || ct.Duration > MaxTransitionDuration {
		return fmt.Errorf("%w: clip transition duration %v", ErrOutOfRange, ct.Duration)
	}
	_, err := ParseEasing(string(ct.Easing))
	return err
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
