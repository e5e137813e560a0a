package timeline

import (
	"fmt"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Easing names the curve used to shape transition and animation progress.
type Easing string

const (
	EaseLinear  Easing = "linear"
	EaseIn      Easing = "ease-in"
	EaseOut     Easing = "ease-out"
	EaseInOut   Easing = "ease-in-out"
	EaseBounce  Easing = "bounce"
	EaseElastic Easing = "elastic"
)

var easingFuncs = map[Easing]ease.TweenFunc{
	EaseLinear:  ease.Linear,
	EaseIn:      ease.InCubic,
	EaseOut:     ease.OutCubic,
	EaseInOut:   ease.InOutCubic,
	EaseBounce:  ease.OutBounce,
	EaseElastic: ease.OutElastic,
}

// ParseEasing validates an easing name. The empty string means linear.
func ParseEasing(s string) (Easing, error) {
	if s == "" {
		return EaseLinear, nil
	}
	e := Easing(s)
	if _, ok := easingFuncs[e]; !ok {
		return "", fmt.Errorf("%w: easing %q", ErrUnsupportedVariant, s)
	}
	return e, nil
}

// Func returns the tween function behind the easing name.
func (e Easing) Func() (ease.TweenFunc, error) {
	if e == "" {
		return ease.Linear, nil
	}
	fn, ok := easingFuncs[e]
	if !ok {
		return nil, fmt.Errorf("%w: easing %q", ErrUnsupportedVariant, e)
	}
	return fn, nil
}

// interpolate returns the eased value between from and to after elapsed of
// duration seconds. Elastic curves may overshoot the [from, to] range.
func (e Easing) interpolate(from, to, elapsed, duration float64) float64 {
	if duration <= 0 || elapsed >= duration {
		return to
	}
	if elapsed <= 0 {
		return from
	}
	fn, err := e.Func()
	if err != nil {
		fn = ease.Linear
	}
	tw := gween.New(float32(from), float32(to), float32(duration), fn)
	v, _ := tw.Update(float32(elapsed))
	return float64(v)
}

// Progress returns the eased completion in [0, 1] after elapsed of duration seconds.
func (e Easing) Progress(elapsed, duration float64) float64 {
	return clamp01(e.interpolate(0, 1, elapsed, duration))
}
