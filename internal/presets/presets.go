package presets

import (
	"fmt"
	"sort"

	"github.com/ivlev/reelcomposer/internal/composer"
	"github.com/ivlev/reelcomposer/internal/timeline"
)

// Category groups presets by what they configure.
type Category string

const (
	CategoryEffect     Category = "effect"
	CategoryText       Category = "text"
	CategoryTransition Category = "transition"
)

// defaultSpan is used for duration-relative effects when the clip length is unknown.
const defaultSpan = 5.0

// TransitionTemplate is everything AddTransition needs apart from the start time.
type TransitionTemplate struct {
	Type     timeline.TransitionType
	Duration float64
	Options  []composer.TransitionOption
}

// Preset is a named template. Effect and text presets produce placement
// options; transition presets produce a TransitionTemplate.
type Preset struct {
	Name        string
	Category    Category
	Description string

	clip       func(span float64) []composer.Option
	transition *TransitionTemplate
}

// Registry holds presets by name.
type Registry struct {
	presets map[string]Preset
}

func NewRegistry() *Registry {
	return &Registry{presets: make(map[string]Preset)}
}

// Register adds or replaces a preset.
func (r *Registry) Register(p Preset) {
	r.presets[p.Name] = p
}

// Get looks a preset up by name.
func (r *Registry) Get(name string) (Preset, error) {
	p, ok := r.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: preset %q", timeline.ErrUnknownEntity, name)
	}
	return p, nil
}

// Names lists every registered preset, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClipOptions instantiates an effect or text preset. span is the length of the
// clip it will be applied to; zero or less means unknown.
func (r *Registry) ClipOptions(name string, span float64) ([]composer.Option, error) {
	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if p.clip == nil {
		return nil, fmt.Errorf("%w: preset %q is a %s preset", timeline.ErrUnsupportedVariant, name, p.Category)
	}
	if span <= 0 {
		span = defaultSpan
	}
	return p.clip(span), nil
}

// Transition instantiates a transition preset.
func (r *Registry) Transition(name string) (TransitionTemplate, error) {
	p, err := r.Get(name)
	if err != nil {
		return TransitionTemplate{}, err
	}
	if p.transition == nil {
		return TransitionTemplate{}, fmt.Errorf("%w: preset %q is a %s preset", timeline.ErrUnsupportedVariant, name, p.Category)
	}
	t := *p.transition
	t.Options = append([]composer.TransitionOption(nil), p.transition.Options...)
	return t, nil
}

// ClipPreset builds an effect or text preset from an options factory.
func ClipPreset(name string, category Category, description string, fn func(span float64) []composer.Option) Preset {
	return Preset{Name: name, Category: category, Description: description, clip: fn}
}

// TransitionPreset builds a transition preset.
func TransitionPreset(name, description string, t TransitionTemplate) Preset {
	return Preset{Name: name, Category: CategoryTransition, Description: description, transition: &t}
}

// Default returns a registry with the built-in presets.
func Default() *Registry {
	r := NewRegistry()

	r.Register(ClipPreset("ken-burns", CategoryEffect, "slow zoom with a gentle pan", func(span float64) []composer.Option {
		return []composer.Option{
			composer.WithAnimation(timeline.Animation{Type: timeline.AnimateZoom, From: 1, To: 1.15, Duration: span, Easing: timeline.EaseInOut}),
			composer.WithAnimation(timeline.Animation{Type: timeline.AnimatePan, From: 0, To: 40, Duration: span, Easing: timeline.EaseInOut}),
		}
	}))
	r.Register(ClipPreset("zoom-in", CategoryEffect, "push in over the whole clip", func(span float64) []composer.Option {
		return []composer.Option{
			composer.WithAnimation(timeline.Animation{Type: timeline.AnimateZoom, From: 1, To: 1.3, Duration: span, Easing: timeline.EaseIn}),
		}
	}))
	r.Register(ClipPreset("fade-in", CategoryEffect, "fade up from black", func(float64) []composer.Option {
		return []composer.Option{
			composer.WithTransitionIn(timeline.ClipTransition{Type: timeline.TransitionFade, Duration: 0.5, Easing: timeline.EaseOut}),
		}
	}))
	r.Register(ClipPreset("slide-left", CategoryEffect, "enter sliding in from the right", func(float64) []composer.Option {
		return []composer.Option{
			composer.WithTransitionIn(timeline.ClipTransition{Type: timeline.TransitionSlide, Duration: 0.4, Easing: timeline.EaseOut}),
		}
	}))

	r.Register(ClipPreset("title", CategoryText, "large bold centered title", func(float64) []composer.Option {
		return []composer.Option{
			composer.WithFontSize(96),
			composer.WithFontWeight("bold"),
			composer.WithFontColor("white"),
			composer.WithAlign(timeline.AlignCenter),
			composer.WithTransitionIn(timeline.ClipTransition{Type: timeline.TransitionFade, Duration: 0.3}),
		}
	}))
	r.Register(ClipPreset("caption", CategoryText, "subtitle-sized caption", func(float64) []composer.Option {
		return []composer.Option{
			composer.WithFontSize(42),
			composer.WithFontColor("white"),
			composer.WithAlign(timeline.AlignCenter),
		}
	}))

	r.Register(TransitionPreset("quick-fade", "short fade through black", TransitionTemplate{
		Type: timeline.TransitionFade, Duration: 0.3,
	}))
	r.Register(TransitionPreset("soft-crossfade", "long eased crossfade", TransitionTemplate{
		Type: timeline.TransitionCrossfade, Duration: 1,
		Options: []composer.TransitionOption{composer.WithEasing(timeline.EaseInOut)},
	}))
	r.Register(TransitionPreset("whip-left", "fast slide to the left", TransitionTemplate{
		Type: timeline.TransitionSlide, Duration: 0.25,
		Options: []composer.TransitionOption{
			composer.WithDirection(timeline.DirectionLeft),
			composer.WithEasing(timeline.EaseIn),
		},
	}))

	return r
}
