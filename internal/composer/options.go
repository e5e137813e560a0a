package composer

import (
	"fmt"

	"github.com/ivlev/reelcomposer/internal/timeline"
)

// Option configures a single placement: its timing, target track, or clip
// attributes.
type Option func(*placement)

type placement struct {
	duration *float64
	end      *float64
	track    string
	attrs    []attribute
}

// attribute mutates a freshly built clip. It validates before assigning, so a
// failing attribute leaves the clip untouched.
type attribute func(timeline.Clip) error

func resolve(opts []Option) (*placement, error) {
	p := &placement{}
	for _, opt := range opts {
		opt(p)
	}
	if p.duration != nil && p.end != nil {
		return nil, fmt.Errorf("%w: got duration %.3f and end %.3f", timeline.ErrConflictingTiming, *p.duration, *p.end)
	}
	return p, nil
}

// WithDuration gives the clip an explicit length.
func WithDuration(d float64) Option {
	return func(p *placement) { p.duration = &d }
}

// WithEnd gives the clip an explicit end time. It may not be combined with WithDuration.
func WithEnd(t float64) Option {
	return func(p *placement) { p.end = &t }
}

// OnTrack places the clip on a named track instead of letting the builder pick one.
func OnTrack(name string) Option {
	return func(p *placement) { p.track = name }
}

func withAttr(a attribute) Option {
	return func(p *placement) { p.attrs = append(p.attrs, a) }
}

// Attribute options are validated against the clip kind when the clip is built.
func WithPosition(x, y float64) Option { return withAttr(position(x, y)) }
func WithSize(width, height int) Option { return withAttr(size(width, height)) }
func WithOpacity(o float64) Option { return withAttr(opacity(o)) }
func WithAnimation(a timeline.Animation) Option { return withAttr(animate(a)) }
func WithFontSize(n int) Option { return withAttr(fontSize(n)) }
func WithFontColor(c string) Option { return withAttr(fontColor(c)) }
func WithFontFamily(f string) Option { return withAttr(fontFamily(f)) }
func WithFontWeight(w string) Option { return withAttr(fontWeight(w)) }
func WithAlign(a timeline.Align) Option { return withAttr(align(a)) }
func WithVolume(v float64) Option { return withAttr(volume(v)) }
func WithFadeIn(d float64) Option { return withAttr(fadeIn(d)) }
func WithFadeOut(d float64) Option { return withAttr(fadeOut(d)) }
func WithCrossfade(d float64) Option { return withAttr(crossfade(d)) }
func WithAutoCrossfade(on bool) Option { return withAttr(autoCrossfade(on)) }
func WithNormalize(on bool) Option { return withAttr(normalize(on)) }
func WithEnvelope(p []timeline.EnvelopePoint) Option { return withAttr(envelope(p)) }

func WithTransitionIn(ct timeline.ClipTransition) Option { return withAttr(transitionIn(ct)) }
func WithTransitionOut(ct timeline.ClipTransition) Option { return withAttr(transitionOut(ct)) }

func visualOf(c timeline.Clip) (*timeline.Visual, error) {
	switch v := c.(type) {
	case *timeline.VisualClip:
		return &v.Visual, nil
	case *timeline.TextClip:
		return &v.Visual, nil
	}
	return nil, fmt.Errorf("%w: %s clips have no visual attributes", timeline.ErrUnsupportedVariant, c.ClipKind())
}

func textOf(c timeline.Clip) (*timeline.TextClip, error) {
	if t, ok := c.(*timeline.TextClip); ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s clips have no font attributes", timeline.ErrUnsupportedVariant, c.ClipKind())
}

func audioOf(c timeline.Clip) (*timeline.AudioClip, error) {
	if a, ok := c.(*timeline.AudioClip); ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %s clips have no audio attributes", timeline.ErrUnsupportedVariant, c.ClipKind())
}

func onVisual(fn func(*timeline.Visual) error) attribute {
	return func(c timeline.Clip) error {
		v, err := visualOf(c)
		if err != nil {
			return err
		}
		return fn(v)
	}
}

func onText(fn func(*timeline.TextClip) error) attribute {
	return func(c timeline.Clip) error {
		t, err := textOf(c)
		if err != nil {
			return err
		}
		return fn(t)
	}
}

func onAudio(fn func(*timeline.AudioClip) error) attribute {
	return func(c timeline.Clip) error {
		a, err := audioOf(c)
		if err != nil {
			return err
		}
		return fn(a)
	}
}

func position(x, y float64) attribute {
	return onVisual(func(v *timeline.Visual) error { return v.SetPosition(x, y) })
}

func size(w, h int) attribute {
	return onVisual(func(v *timeline.Visual) error { return v.SetSize(w, h) })
}

func opacity(o float64) attribute {
	return onVisual(func(v *timeline.Visual) error { return v.SetOpacity(o) })
}

func animate(a timeline.Animation) attribute {
	return onVisual(func(v *timeline.Visual) error { return v.AddAnimation(a) })
}

func transitionIn(ct timeline.ClipTransition) attribute {
	return onVisual(func(v *timeline.Visual) error { return v.SetTransitionIn(ct) })
}

func transitionOut(ct timeline.ClipTransition) attribute {
	return onVisual(func(v *timeline.Visual) error { return v.SetTransitionOut(ct) })
}

func fontSize(n int) attribute {
	return onText(func(t *timeline.TextClip) error { return t.SetFontSize(n) })
}

func fontColor(c string) attribute {
	return onText(func(t *timeline.TextClip) error { return t.SetFontColor(c) })
}

func fontFamily(f string) attribute {
	return onText(func(t *timeline.TextClip) error { return t.SetFontFamily(f) })
}

func fontWeight(w string) attribute {
	return onText(func(t *timeline.TextClip) error { return t.SetFontWeight(w) })
}

func align(a timeline.Align) attribute {
	return onText(func(t *timeline.TextClip) error { return t.SetAlign(a) })
}

func volume(v float64) attribute {
	return onAudio(func(a *timeline.AudioClip) error { return a.SetVolume(v) })
}

func fadeIn(d float64) attribute {
	return onAudio(func(a *timeline.AudioClip) error { return a.SetFadeIn(d) })
}

func fadeOut(d float64) attribute {
	return onAudio(func(a *timeline.AudioClip) error { return a.SetFadeOut(d) })
}

func crossfade(d float64) attribute {
	return onAudio(func(a *timeline.AudioClip) error { return a.SetCrossfade(d) })
}

func autoCrossfade(on bool) attribute {
	return onAudio(func(a *timeline.AudioClip) error {
		a.AutoCrossfade = on
		return nil
	})
}

func normalize(on bool) attribute {
	return onAudio(func(a *timeline.AudioClip) error {
		a.Normalize = on
		return nil
	})
}

func envelope(points []timeline.EnvelopePoint) attribute {
	return onAudio(func(a *timeline.AudioClip) error { return a.SetEnvelope(points) })
}

// TransitionOption configures a timeline-wide transition.
type TransitionOption func(*timeline.Transition)

// WithDirection sets the travel direction of wipe, slide and push transitions.
func WithDirection(d timeline.Direction) TransitionOption {
	return func(t *timeline.Transition) { t.Direction = d }
}

// WithEasing sets the progress curve of the transition.
func WithEasing(e timeline.Easing) TransitionOption {
	return func(t *timeline.Transition) { t.Easing = e }
}

// Between names the tracks the transition leads from and to.
func Between(from, to []string) TransitionOption {
	return func(t *timeline.Transition) {
		t.From = append([]string(nil), from...)
		t.To = append([]string(nil), to...)
	}
}

// WithMetadata attaches a free-form value for renderers.
func WithMetadata(key string, value any) TransitionOption {
	return func(t *timeline.Transition) {
		if t.Metadata == nil {
			t.Metadata = make(map[string]any)
		}
		t.Metadata[key] = value
	}
}
