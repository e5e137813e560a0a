package spec

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/ivlev/reelcomposer/internal/timeline"
)

// Specification is the snapshot a builder hands to renderers. It is immutable
// by convention: the track and transition containers belong to it alone, but
// the clips inside are shared with the builder that produced it.
type Specification struct {
	ID          uuid.UUID
	Title       string
	Settings    Settings
	Tracks      map[timeline.Kind][]*timeline.Track
	Transitions []*timeline.Transition
}

// New assembles a Specification with a fresh ID. Callers are expected to pass
// containers they no longer mutate.
func New(title string, settings Settings, tracks map[timeline.Kind][]*timeline.Track, transitions []*timeline.Transition) *Specification {
	if tracks == nil {
		tracks = make(map[timeline.Kind][]*timeline.Track)
	}
	return &Specification{
		ID:          uuid.New(),
		Title:       title,
		Settings:    settings,
		Tracks:      tracks,
		Transitions: transitions,
	}
}

// AllTracks returns every track, kinds in canonical order.
func (s *Specification) AllTracks() []*timeline.Track {
	var all []*timeline.Track
	for _, k := range timeline.Kinds {
		all = append(all, s.Tracks[k]...)
	}
	return all
}

// Duration is the latest end among bounded clips and transitions. Open-ended
// clips are not counted.
func (s *Specification) Duration() float64 {
	return timeline.TotalDuration(s.AllTracks(), s.Transitions)
}

// ActiveClipsAt groups the clips active at t by kind. Kinds with no active clip
// are omitted.
func (s *Specification) ActiveClipsAt(t float64) map[timeline.Kind][]timeline.Clip {
	active := make(map[timeline.Kind][]timeline.Clip)
	for _, k := range timeline.Kinds {
		for _, tr := range s.Tracks[k] {
			if clips := tr.ActiveClipsAt(t); len(clips) > 0 {
				active[k] = append(active[k], clips...)
			}
		}
	}
	return active
}

// TransitionsAt returns the transitions whose window contains t.
func (s *Specification) TransitionsAt(t float64) []*timeline.Transition {
	var out []*timeline.Transition
	for _, tx := range s.Transitions {
		if tx.IsActiveAt(t) {
			out = append(out, tx)
		}
	}
	return out
}

// Track looks a track up by kind and name.
func (s *Specification) Track(kind timeline.Kind, name string) (*timeline.Track, error) {
	for _, tr := range s.Tracks[kind] {
		if tr.Name == name {
			return tr, nil
		}
	}
	return nil, fmt.Errorf("%w: %s track %q", timeline.ErrUnknownEntity, kind, name)
}

// Transition returns the i-th transition.
func (s *Specification) Transition(i int) (*timeline.Transition, error) {
	if i < 0 || i >= len(s.Transitions) {
		return nil, fmt.Errorf("%w: transition index %d (have %d)", timeline.ErrUnknownEntity, i, len(s.Transitions))
	}
	return s.Transitions[i], nil
}

// VisualLayers returns the visible video and text tracks from back to front.
// Equal z-orders keep video before text and then list order.
func (s *Specification) VisualLayers() []*timeline.Track {
	var layers []*timeline.Track
	for _, k := range []timeline.Kind{timeline.KindVideo, timeline.KindText} {
		for _, tr := range s.Tracks[k] {
			if tr.Visible {
				layers = append(layers, tr)
			}
		}
	}
	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].ZOrder < layers[j].ZOrder
	})
	return layers
}

// AudioTracks returns the unmuted music, voice and sfx tracks.
func (s *Specification) AudioTracks() []*timeline.Track {
	var out []*timeline.Track
	for _, k := range timeline.Kinds {
		if !k.IsAudio() {
			continue
		}
		for _, tr := range s.Tracks[k] {
			if !tr.Muted {
				out = append(out, tr)
			}
		}
	}
	return out
}

// ClipCount is the number of clips across every track.
func (s *Specification) ClipCount() int {
	n := 0
	for _, tr := range s.AllTracks() {
		n += len(tr.Clips)
	}
	return n
}
