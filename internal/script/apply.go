package script

import (
	"fmt"

	"github.com/ivlev/reelcomposer/internal/composer"
	"github.com/ivlev/reelcomposer/internal/presets"
	"github.com/ivlev/reelcomposer/internal/timeline"
)

// Apply replays the document against b. Settings are applied first; steps
// then run in order and the first failing one stops the replay. Errors carry
// the step index and wrap the builder error.
func Apply(doc *Document, b *composer.Builder, reg *presets.Registry) error {
	if reg == nil {
		reg = presets.Default()
	}
	if doc.Title != "" {
		b.SetTitle(doc.Title)
	}
	if err := applySettings(doc, b); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	for i, step := range doc.Steps {
		action, err := step.Action()
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if err := applyStep(step, action, b, reg); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, action, err)
		}
	}
	return nil
}

func applySettings(doc *Document, b *composer.Builder) error {
	s := b.Settings()
	if doc.Preset != "" {
		if err := s.ApplyPreset(doc.Preset); err != nil {
			return err
		}
	}
	o := doc.Settings
	if o.Width != 0 {
		s.Width = o.Width
	}
	if o.Height != 0 {
		s.Height = o.Height
	}
	if o.FPS != 0 {
		s.FPS = o.FPS
	}
	if o.Format != "" {
		s.Format = o.Format
	}
	if o.Quality != nil {
		s.Quality = *o.Quality
	}
	if o.Background != "" {
		s.Background = o.Background
	}
	return b.SetSettings(s)
}

func applyStep(s Step, action string, b *composer.Builder, reg *presets.Registry) error {
	switch action {
	case "set_duration":
		return b.SetDuration(*s.SetDuration)
	case "clear_duration":
		b.ClearDuration()
		return nil
	case "transition":
		return applyTransition(s, b, reg)
	}

	opts, err := clipOptions(s, b, reg)
	if err != nil {
		return err
	}

	type placer struct {
		seq func(string, ...composer.Option) (*composer.ClipHandle, error)
		at  func(string, float64, ...composer.Option) (*composer.ClipHandle, error)
		src string
	}
	var p placer
	switch action {
	case "image":
		p = placer{b.AddImage, b.AddImageAt, s.Image}
	case "video":
		p = placer{b.AddVideo, b.AddVideoAt, s.Video}
	case "text":
		p = placer{b.AddText, b.AddTextAt, s.Text}
	case "voice":
		p = placer{b.AddVoice, b.AddVoiceAt, s.Voice}
	case "music":
		p = placer{b.AddMusic, b.AddMusicAt, s.Music}
	case "sfx":
		p = placer{b.AddSFX, b.AddSFXAt, s.SFX}
	default:
		return fmt.Errorf("%w: action %q", timeline.ErrUnsupportedVariant, action)
	}

	if s.At != nil {
		_, err = p.at(p.src, *s.At, opts...)
	} else {
		_, err = p.seq(p.src, opts...)
	}
	return err
}

// clipOptions expands presets first so that explicit modifiers on the step win.
func clipOptions(s Step, b *composer.Builder, reg *presets.Registry) ([]composer.Option, error) {
	var opts []composer.Option

	span := 0.0
	switch {
	case s.Duration != nil:
		span = *s.Duration
	case s.End != nil && s.At != nil:
		span = *s.End - *s.At
	default:
		if d, ok := b.NextDuration(); ok {
			span = d
		}
	}
	for _, name := range s.Use {
		presetOpts, err := reg.ClipOptions(name, span)
		if err != nil {
			return nil, err
		}
		opts = append(opts, presetOpts...)
	}

	if s.Duration != nil {
		opts = append(opts, composer.WithDuration(*s.Duration))
	}
	if s.End != nil {
		opts = append(opts, composer.WithEnd(*s.End))
	}
	if s.Track != "" {
		opts = append(opts, composer.OnTrack(s.Track))
	}
	if s.Position != nil {
		if len(s.Position) != 2 {
			return nil, fmt.Errorf("%w: position needs [x, y], got %v", timeline.ErrOutOfRange, s.Position)
		}
		opts = append(opts, composer.WithPosition(s.Position[0], s.Position[1]))
	}
	if s.Size != nil {
		if len(s.Size) != 2 {
			return nil, fmt.Errorf("%w: size needs [width, height], got %v", timeline.ErrOutOfRange, s.Size)
		}
		opts = append(opts, composer.WithSize(s.Size[0], s.Size[1]))
	}
	if s.Opacity != nil {
		opts = append(opts, composer.WithOpacity(*s.Opacity))
	}
	if s.FontSize != 0 {
		opts = append(opts, composer.WithFontSize(s.FontSize))
	}
	if s.Color != "" {
		opts = append(opts, composer.WithFontColor(s.Color))
	}
	if s.Weight != "" {
		opts = append(opts, composer.WithFontWeight(s.Weight))
	}
	if s.Align != "" {
		opts = append(opts, composer.WithAlign(timeline.Align(s.Align)))
	}
	if s.Volume != nil {
		opts = append(opts, composer.WithVolume(*s.Volume))
	}
	if s.FadeIn != nil {
		opts = append(opts, composer.WithFadeIn(*s.FadeIn))
	}
	if s.FadeOut != nil {
		opts = append(opts, composer.WithFadeOut(*s.FadeOut))
	}
	if s.Crossfade != nil {
		opts = append(opts, composer.WithCrossfade(*s.Crossfade))
	}
	if s.Normalize {
		opts = append(opts, composer.WithNormalize(true))
	}
	return opts, nil
}

func applyTransition(s Step, b *composer.Builder, reg *presets.Registry) error {
	var (
		typ      timeline.TransitionType
		duration float64
		opts     []composer.TransitionOption
	)

	for _, name := range s.Use {
		tmpl, err := reg.Transition(name)
		if err != nil {
			return err
		}
		typ, duration = tmpl.Type, tmpl.Duration
		opts = append(opts, tmpl.Options...)
	}
	if s.Transition != "" {
		parsed, err := timeline.ParseTransitionType(s.Transition)
		if err != nil {
			return err
		}
		typ = parsed
	}
	if s.Duration != nil {
		duration = *s.Duration
	}
	if typ == "" {
		return fmt.Errorf("%w: transition step needs a type or a transition preset", timeline.ErrUnsupportedVariant)
	}

	if s.Direction != "" {
		d, err := timeline.ParseDirection(s.Direction)
		if err != nil {
			return err
		}
		opts = append(opts, composer.WithDirection(d))
	}
	if s.Easing != "" {
		e, err := timeline.ParseEasing(s.Easing)
		if err != nil {
			return err
		}
		opts = append(opts, composer.WithEasing(e))
	}
	if len(s.From) > 0 || len(s.To) > 0 {
		opts = append(opts, composer.Between(s.From, s.To))
	}

	var err error
	if s.At != nil {
		_, err = b.AddTransitionAt(typ, *s.At, duration, opts...)
	} else {
		_, err = b.AddTransition(typ, duration, opts...)
	}
	return err
}
