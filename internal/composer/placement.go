package composer

import (
	"fmt"

	"github.com/ivlev/reelcomposer/internal/timeline"
)

type clipFactory func(timeline.Timing) (timeline.Clip, error)

// place is the single code path behind every Add*At method. Options, media and
// timing are all validated and the clip fully built before any builder state
// changes.
func (b *Builder) place(kind timeline.Kind, source string, start float64, factory clipFactory, opts []Option) (*ClipHandle, error) {
	l, err := b.lane(kind)
	if err != nil {
		return nil, err
	}
	p, err := resolve(opts)
	if err != nil {
		return nil, err
	}
	if kind.IsAudio() {
		if err := timeline.CheckAudioSource(source); err != nil {
			return nil, err
		}
	}
	timing, err := timeline.NewTiming(start, p.duration, p.end)
	if err != nil {
		return nil, err
	}
	clip, err := factory(timing)
	if err != nil {
		return nil, err
	}
	for _, attr := range p.attrs {
		if err := attr(clip); err != nil {
			return nil, err
		}
	}

	var track *timeline.Track
	if p.track != "" {
		if track, _ = l.find(p.track); track == nil {
			return nil, fmt.Errorf("%w: %s track %q", timeline.ErrUnknownEntity, kind, p.track)
		}
	} else {
		track, err = b.GetOrCreateTrack(kind)
		if err != nil {
			return nil, err
		}
	}

	index, err := track.Append(clip)
	if err != nil {
		return nil, err
	}
	l.advance(clip)

	ev := b.log.Debug().
		Str("kind", string(kind)).
		Str("track", track.Name).
		Str("source", source).
		Float64("start", start).
		Float64("cursor", l.cursor)
	if end, ok := clip.EndTime(); ok {
		ev = ev.Float64("end", end)
	}
	ev.Msg("clip placed")

	return &ClipHandle{b: b, kind: kind, track: track, index: index}, nil
}

// sequential places a clip at the lane cursor, applying the pending default
// duration when the caller gave no timing of their own.
func (b *Builder) sequential(kind timeline.Kind, source string, factory clipFactory, opts []Option) (*ClipHandle, error) {
	l, err := b.lane(kind)
	if err != nil {
		return nil, err
	}
	if b.nextDuration != nil {
		p := &placement{}
		for _, opt := range opts {
			opt(p)
		}
		if p.duration == nil && p.end == nil {
			opts = append([]Option{WithDuration(*b.nextDuration)}, opts...)
		}
	}
	return b.place(kind, source, l.cursor, factory, opts)
}

func imageFactory(source string) clipFactory {
	return func(t timeline.Timing) (timeline.Clip, error) { return timeline.NewImageClip(source, t) }
}

func videoFactory(source string) clipFactory {
	return func(t timeline.Timing) (timeline.Clip, error) { return timeline.NewVideoClip(source, t) }
}

func textFactory(text string) clipFactory {
	return func(t timeline.Timing) (timeline.Clip, error) { return timeline.NewTextClip(text, t) }
}

func audioFactory(source string) clipFactory {
	return func(t timeline.Timing) (timeline.Clip, error) { return timeline.NewAudioClip(source, t) }
}

// AddImageAt places a still image at an explicit start time.
func (b *Builder) AddImageAt(source string, start float64, opts ...Option) (*ClipHandle, error) {
	return b.place(timeline.KindVideo, source, start, imageFactory(source), opts)
}

// AddImage places a still image at the video cursor.
func (b *Builder) AddImage(source string, opts ...Option) (*ClipHandle, error) {
	return b.sequential(timeline.KindVideo, source, imageFactory(source), opts)
}

// AddVideoAt places a video clip at an explicit start time.
func (b *Builder) AddVideoAt(source string, start float64, opts ...Option) (*ClipHandle, error) {
	return b.place(timeline.KindVideo, source, start, videoFactory(source), opts)
}

// AddVideo places a video clip at the video cursor.
func (b *Builder) AddVideo(source string, opts ...Option) (*ClipHandle, error) {
	return b.sequential(timeline.KindVideo, source, videoFactory(source), opts)
}

// AddTextAt places a text overlay at an explicit start time.
func (b *Builder) AddTextAt(text string, start float64, opts ...Option) (*ClipHandle, error) {
	return b.place(timeline.KindText, text, start, textFactory(text), opts)
}

// AddText places a text overlay at the text cursor.
func (b *Builder) AddText(text string, opts ...Option) (*ClipHandle, error) {
	return b.sequential(timeline.KindText, text, textFactory(text), opts)
}

// AddVoiceAt places a narration clip at an explicit start time.
func (b *Builder) AddVoiceAt(source string, start float64, opts ...Option) (*ClipHandle, error) {
	return b.place(timeline.KindVoice, source, start, audioFactory(source), opts)
}

// AddVoice places a narration clip at the voice cursor.
func (b *Builder) AddVoice(source string, opts ...Option) (*ClipHandle, error) {
	return b.sequential(timeline.KindVoice, source, audioFactory(source), opts)
}

// AddMusicAt places a music clip at an explicit start time.
func (b *Builder) AddMusicAt(source string, start float64, opts ...Option) (*ClipHandle, error) {
	return b.place(timeline.KindMusic, source, start, audioFactory(source), opts)
}

// AddMusic places a music clip at the music cursor.
func (b *Builder) AddMusic(source string, opts ...Option) (*ClipHandle, error) {
	return b.sequential(timeline.KindMusic, source, audioFactory(source), opts)
}

// AddSFXAt places a sound effect at an explicit start time.
func (b *Builder) AddSFXAt(source string, start float64, opts ...Option) (*ClipHandle, error) {
	return b.place(timeline.KindSFX, source, start, audioFactory(source), opts)
}

// AddSFX places a sound effect at the sfx cursor.
func (b *Builder) AddSFX(source string, opts ...Option) (*ClipHandle, error) {
	return b.sequential(timeline.KindSFX, source, audioFactory(source), opts)
}

// AddTransitionAt adds a timeline-wide transition at an explicit start time.
// Tracks named through Between must exist.
func (b *Builder) AddTransitionAt(typ timeline.TransitionType, start, duration float64, opts ...TransitionOption) (*timeline.Transition, error) {
	tx := &timeline.Transition{
		Type:      typ,
		Start:     start,
		Duration:  duration,
		Direction: timeline.DirectionNone,
		Easing:    timeline.EaseLinear,
	}
	for _, opt := range opts {
		opt(tx)
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	for _, name := range append(append([]string(nil), tx.From...), tx.To...) {
		if !b.hasTrack(name) {
			return nil, fmt.Errorf("%w: transition refers to track %q", timeline.ErrUnknownEntity, name)
		}
	}

	b.transitions = append(b.transitions, tx)
	b.log.Debug().
		Str("type", string(tx.Type)).
		Float64("start", tx.Start).
		Float64("duration", tx.Duration).
		Msg("transition added")
	return tx, nil
}

// AddTransition ends a transition at the furthest cursor across all kinds, so
// it overlaps the tail of the latest content. It fails with ErrOutOfRange when
// that would start it before zero.
func (b *Builder) AddTransition(typ timeline.TransitionType, duration float64, opts ...TransitionOption) (*timeline.Transition, error) {
	latest := 0.0
	for _, l := range b.lanes {
		if l.cursor > latest {
			latest = l.cursor
		}
	}
	start := latest - duration
	if start < 0 {
		return nil, fmt.Errorf("%w: transition of %.3fs would start at %.3f, before the timeline begins", timeline.ErrOutOfRange, duration, start)
	}
	return b.AddTransitionAt(typ, start, duration, opts...)
}

func (b *Builder) hasTrack(name string) bool {
	for _, l := range b.lanes {
		if tr, _ := l.find(name); tr != nil {
			return true
		}
	}
	return false
}
