package timeline

import (
	"fmt"
	"slices"
	"sort"
)

// textZOrderBase keeps text tracks above every video track by default.
const textZOrderBase = 100

// Track is an append-only list of clips of one kind. Clip order is insertion
// order; queries that need time order sort on demand.
type Track struct {
	Name  string
	Kind  Kind
	Clips []Clip

	// Visual and text tracks.
	ZOrder  int
	Visible bool

	// Audio tracks.
	Muted  bool
	Volume float64
}

// DefaultTrackName is the name the builder gives to the index-th track of a kind.
func DefaultTrackName(kind Kind, index int) string {
	return fmt.Sprintf("%s_%d", kind, index)
}

// NewTrack creates an empty track. index is the track's position within its
// kind and sets the default z-order.
func NewTrack(kind Kind, name string, index int) *Track {
	t := &Track{
		Name:    name,
		Kind:    kind,
		Visible: true,
		Volume:  1,
	}
	switch kind {
	case KindVideo:
		t.ZOrder = index
	case KindText:
		t.ZOrder = textZOrderBase + index
	}
	return t
}

// Accepts reports whether c may live on this track.
func (t *Track) Accepts(c Clip) error {
	switch c.(type) {
	case *VisualClip:
		if t.Kind == KindVideo {
			return nil
		}
	case *TextClip:
		if t.Kind == KindText {
			return nil
		}
	case *AudioClip:
		if t.Kind.IsAudio() {
			return nil
		}
	default:
		return fmt.Errorf("%w: clip type %T", ErrUnsupportedVariant, c)
	}
	return fmt.Errorf("%w: %s clip on %s track %q", ErrUnsupportedVariant, c.ClipKind(), t.Kind, t.Name)
}

// Append adds c at the end of the track and returns its index.
func (t *Track) Append(c Clip) (int, error) {
	if err := t.Accepts(c); err != nil {
		return 0, err
	}
	t.Clips = append(t.Clips, c)
	return len(t.Clips) - 1, nil
}

// SetVolume sets the track-level gain in [0, 2].
func (t *Track) SetVolume(v float64) error {
	if err := checkVolume(v); err != nil {
		return err
	}
	t.Volume = v
	return nil
}

// SortedClips returns the clips ordered by start time. Ties keep insertion order.
func (t *Track) SortedClips() []Clip {
	sorted := slices.Clone(t.Clips)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime() < sorted[j].StartTime()
	})
	return sorted
}

// HasOverlappingClips checks adjacent clips in start order. An open-ended clip
// overlaps everything after it; otherwise the boundary is end-exclusive, so a
// clip ending at 5 and one starting at 5 do not overlap.
func (t *Track) HasOverlappingClips() bool {
	if len(t.Clips) < 2 {
		return false
	}
	sorted := t.SortedClips()
	for i := 0; i < len(sorted)-1; i++ {
		end, ok := sorted[i].EndTime()
		if !ok {
			return true
		}
		if end > sorted[i+1].StartTime() {
			return true
		}
	}
	return false
}

// ActiveClipsAt returns, in track order, the clips active at time at.
func (t *Track) ActiveClipsAt(at float64) []Clip {
	var active []Clip
	for _, c := range t.Clips {
		if c.IsActiveAt(at) {
			active = append(active, c)
		}
	}
	return active
}

// EndTime returns the latest end among bounded clips. Open-ended clips do not
// count. The second value is false when no clip is bounded.
func (t *Track) EndTime() (float64, bool) {
	var latest float64
	found := false
	for _, c := range t.Clips {
		if end, ok := c.EndTime(); ok {
			if !found || end > latest {
				latest = end
			}
			found = true
		}
	}
	return latest, found
}

// Clone copies the track and its clip list. The clips themselves are shared.
func (t *Track) Clone() *Track {
	cp := *t
	cp.Clips = slices.Clone(t.Clips)
	return &cp
}

// TotalDuration is the latest end among every bounded clip and every transition.
// Open-ended clips are excluded even though they stay active forever.
func TotalDuration(tracks []*Track, transitions []*Transition) float64 {
	total := 0.0
	for _, tr := range tracks {
		if end, ok := tr.EndTime(); ok && end > total {
			total = end
		}
	}
	for _, tx := range transitions {
		if end := tx.EndTime(); end > total {
			total = end
		}
	}
	return total
}
