package composer

import (
	"fmt"
	"slices"

	"github.com/ivlev/reelcomposer/internal/timeline"
)

// ClipHandle addresses a placed clip by lane kind, owning track and index, and
// offers chainable setters. The first failing setter is kept in Err and turns
// every later setter into a no-op.
type ClipHandle struct {
	b     *Builder
	kind  timeline.Kind
	track *timeline.Track
	index int
	err   error
}

// Kind is the lane the clip was placed in.
func (h *ClipHandle) Kind() timeline.Kind { return h.kind }

// TrackName is the name of the owning track.
func (h *ClipHandle) TrackName() string { return h.track.Name }

// Index is the clip's position in its track's insertion order.
func (h *ClipHandle) Index() int { return h.index }

// Err returns the first error raised by a chained setter.
func (h *ClipHandle) Err() error { return h.err }

// Clip resolves the handle against the builder's current tracks. It fails with
// ErrUnknownEntity once the owning track was removed or the builder cleared,
// even if a newer track has taken over its name.
func (h *ClipHandle) Clip() (timeline.Clip, error) {
	l, err := h.b.lane(h.kind)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(l.tracks, h.track) {
		return nil, fmt.Errorf("%w: %s track %q no longer belongs to the builder", timeline.ErrUnknownEntity, h.kind, h.track.Name)
	}
	if h.index < 0 || h.index >= len(h.track.Clips) {
		return nil, fmt.Errorf("%w: clip %d on %s track %q", timeline.ErrUnknownEntity, h.index, h.kind, h.track.Name)
	}
	return h.track.Clips[h.index], nil
}

func (h *ClipHandle) apply(a attribute) *ClipHandle {
	if h.err != nil {
		return h
	}
	c, err := h.Clip()
	if err != nil {
		h.err = err
		return h
	}
	h.err = a(c)
	return h
}

// Visual setters apply to image, video and text clips.
func (h *ClipHandle) SetPosition(x, y float64) *ClipHandle { return h.apply(position(x, y)) }
func (h *ClipHandle) SetSize(w, ht int) *ClipHandle { return h.apply(size(w, ht)) }
func (h *ClipHandle) SetOpacity(o float64) *ClipHandle { return h.apply(opacity(o)) }

// Animate adds an animation to the clip.
func (h *ClipHandle) Animate(a timeline.Animation) *ClipHandle {
	return h.apply(animate(a))
}

// TransitionIn sets the clip's entry transition.
func (h *ClipHandle) TransitionIn(ct timeline.ClipTransition) *ClipHandle {
	return h.apply(transitionIn(ct))
}

// TransitionOut sets the clip's exit transition.
func (h *ClipHandle) TransitionOut(ct timeline.ClipTransition) *ClipHandle {
	return h.apply(transitionOut(ct))
}

// Font setters apply to text clips only.
func (h *ClipHandle) SetFontSize(n int) *ClipHandle { return h.apply(fontSize(n)) }
func (h *ClipHandle) SetFontColor(c string) *ClipHandle { return h.apply(fontColor(c)) }
func (h *ClipHandle) SetFontFamily(f string) *ClipHandle { return h.apply(fontFamily(f)) }
func (h *ClipHandle) SetFontWeight(w string) *ClipHandle { return h.apply(fontWeight(w)) }
func (h *ClipHandle) SetAlign(a timeline.Align) *ClipHandle { return h.apply(align(a)) }

// Audio setters apply to voice, music and sfx clips.
func (h *ClipHandle) SetVolume(v float64) *ClipHandle { return h.apply(volume(v)) }
func (h *ClipHandle) SetFadeIn(d float64) *ClipHandle { return h.apply(fadeIn(d)) }
func (h *ClipHandle) SetFadeOut(d float64) *ClipHandle { return h.apply(fadeOut(d)) }
func (h *ClipHandle) SetCrossfade(d float64) *ClipHandle { return h.apply(crossfade(d)) }
func (h *ClipHandle) SetAutoCrossfade(on bool) *ClipHandle { return h.apply(autoCrossfade(on)) }
func (h *ClipHandle) SetNormalize(on bool) *ClipHandle { return h.apply(normalize(on)) }

// SetEnvelope replaces the clip's volume envelope.
func (h *ClipHandle) SetEnvelope(points []timeline.EnvelopePoint) *ClipHandle {
	return h.apply(envelope(points))
}
