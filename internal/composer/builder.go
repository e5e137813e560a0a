package composer

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/ivlev/reelcomposer/internal/logging"
	"github.com/ivlev/reelcomposer/internal/spec"
	"github.com/ivlev/reelcomposer/internal/timeline"
)

// lane is the per-kind state of the builder: its tracks and its time cursor.
type lane struct {
	kind   timeline.Kind
	tracks []*timeline.Track
	cursor float64
}

func newLane(kind timeline.Kind) *lane {
	return &lane{
		kind:   kind,
		tracks: []*timeline.Track{timeline.NewTrack(kind, timeline.DefaultTrackName(kind, 0), 0)},
	}
}

func (l *lane) find(name string) (*timeline.Track, int) {
	for i, tr := range l.tracks {
		if tr.Name == name {
			return tr, i
		}
	}
	return nil, -1
}

// advance moves the cursor past a newly placed clip. Open-ended clips only
// push it to their start. The cursor never moves backwards.
func (l *lane) advance(c timeline.Clip) {
	at := c.StartTime()
	if end, ok := c.EndTime(); ok {
		at = end
	}
	l.cursor = math.Max(l.cursor, at)
}

// Builder assembles a timeline one placement at a time and freezes it into a
// spec.Specification with Build. It is meant for a single goroutine.
type Builder struct {
	lanes        map[timeline.Kind]*lane
	nextDuration *float64
	transitions  []*timeline.Transition
	settings     spec.Settings
	title        string
	log          zerolog.Logger
}

// New returns an empty builder with default settings and one empty track per kind.
func New() *Builder {
	b := &Builder{
		settings: spec.DefaultSettings(),
		log:      logging.WithComponent("composer"),
	}
	b.reset()
	return b
}

func (b *Builder) reset() {
	b.lanes = make(map[timeline.Kind]*lane, len(timeline.Kinds))
	for _, k := range timeline.Kinds {
		b.lanes[k] = newLane(k)
	}
	b.nextDuration = nil
	b.transitions = nil
}

func (b *Builder) lane(kind timeline.Kind) (*lane, error) {
	l, ok := b.lanes[kind]
	if !ok {
		return nil, fmt.Errorf("%w: track kind %q", timeline.ErrUnsupportedVariant, kind)
	}
	return l, nil
}

// SetLogger replaces the component logger.
func (b *Builder) SetLogger(l zerolog.Logger) { b.log = l }

// SetTitle sets the descriptive title carried into built specifications.
func (b *Builder) SetTitle(title string) { b.title = title }

// Title returns the current title.
func (b *Builder) Title() string { return b.title }

// Settings returns the global output settings.
func (b *Builder) Settings() spec.Settings { return b.settings }

// SetSettings replaces the global output settings after validating them.
func (b *Builder) SetSettings(s spec.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	b.settings = s
	return nil
}

// SetDuration sets the default duration applied to subsequent sequential
// placements that carry no timing option of their own.
func (b *Builder) SetDuration(d float64) error {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return fmt.Errorf("%w: default duration %v must be non-negative", timeline.ErrOutOfRange, d)
	}
	b.nextDuration = &d
	return nil
}

// ClearDuration drops the pending default duration.
func (b *Builder) ClearDuration() { b.nextDuration = nil }

// NextDuration reports the pending default duration, if any.
func (b *Builder) NextDuration() (float64, bool) {
	if b.nextDuration == nil {
		return 0, false
	}
	return *b.nextDuration, true
}

// Cursor is the time at which the next sequential clip of kind starts.
func (b *Builder) Cursor(kind timeline.Kind) float64 {
	if l, ok := b.lanes[kind]; ok {
		return l.cursor
	}
	return 0
}

// Tracks returns the tracks of a kind in creation order. The slice is a copy;
// the tracks are not.
func (b *Builder) Tracks(kind timeline.Kind) []*timeline.Track {
	l, ok := b.lanes[kind]
	if !ok {
		return nil
	}
	return append([]*timeline.Track(nil), l.tracks...)
}

// Track looks up a track by kind and name.
func (b *Builder) Track(kind timeline.Kind, name string) (*timeline.Track, error) {
	l, err := b.lane(kind)
	if err != nil {
		return nil, err
	}
	tr, _ := l.find(name)
	if tr == nil {
		return nil, fmt.Errorf("%w: %s track %q", timeline.ErrUnknownEntity, kind, name)
	}
	return tr, nil
}

// GetOrCreateTrack returns the first track of kind with no overlapping clips,
// creating "<kind>_<n>" when every existing track already overlaps. The check
// looks only at what a track already holds, not at the clip about to be added.
func (b *Builder) GetOrCreateTrack(kind timeline.Kind) (*timeline.Track, error) {
	l, err := b.lane(kind)
	if err != nil {
		return nil, err
	}
	for _, tr := range l.tracks {
		if !tr.HasOverlappingClips() {
			return tr, nil
		}
	}
	return b.addTrack(l), nil
}

// AddTrack appends a new empty track to a kind and returns it.
func (b *Builder) AddTrack(kind timeline.Kind) (*timeline.Track, error) {
	l, err := b.lane(kind)
	if err != nil {
		return nil, err
	}
	return b.addTrack(l), nil
}

func (b *Builder) addTrack(l *lane) *timeline.Track {
	index := len(l.tracks)
	var name string
	for n := index; ; n++ {
		name = timeline.DefaultTrackName(l.kind, n)
		if tr, _ := l.find(name); tr == nil {
			break
		}
	}
	tr := timeline.NewTrack(l.kind, name, index)
	l.tracks = append(l.tracks, tr)
	b.log.Debug().Str("kind", string(l.kind)).Str("track", name).Msg("track created")
	return tr
}

// RemoveTrack deletes a named track and its clips. The lane cursor is kept.
func (b *Builder) RemoveTrack(kind timeline.Kind, name string) error {
	l, err := b.lane(kind)
	if err != nil {
		return err
	}
	_, i := l.find(name)
	if i < 0 {
		return fmt.Errorf("%w: %s track %q", timeline.ErrUnknownEntity, kind, name)
	}
	l.tracks = append(l.tracks[:i:i], l.tracks[i+1:]...)
	return nil
}

// Transitions returns a copy of the transition list.
func (b *Builder) Transitions() []*timeline.Transition {
	return append([]*timeline.Transition(nil), b.transitions...)
}

// RemoveTransition deletes the i-th transition.
func (b *Builder) RemoveTransition(i int) error {
	if i < 0 || i >= len(b.transitions) {
		return fmt.Errorf("%w: transition index %d (have %d)", timeline.ErrUnknownEntity, i, len(b.transitions))
	}
	b.transitions = append(b.transitions[:i:i], b.transitions[i+1:]...)
	return nil
}

func (b *Builder) allTracks() []*timeline.Track {
	var all []*timeline.Track
	for _, k := range timeline.Kinds {
		all = append(all, b.lanes[k].tracks...)
	}
	return all
}

// Duration is the latest end over bounded clips and transitions. Open-ended
// clips do not contribute.
func (b *Builder) Duration() float64 {
	return timeline.TotalDuration(b.allTracks(), b.transitions)
}

// ActiveClipsAt groups the clips active at t by kind.
func (b *Builder) ActiveClipsAt(t float64) map[timeline.Kind][]timeline.Clip {
	active := make(map[timeline.Kind][]timeline.Clip)
	for _, k := range timeline.Kinds {
		for _, tr := range b.lanes[k].tracks {
			if clips := tr.ActiveClipsAt(t); len(clips) > 0 {
				active[k] = append(active[k], clips...)
			}
		}
	}
	return active
}

// TransitionsAt returns the transitions whose window contains t.
func (b *Builder) TransitionsAt(t float64) []*timeline.Transition {
	var out []*timeline.Transition
	for _, tx := range b.transitions {
		if tx.IsActiveAt(t) {
			out = append(out, tx)
		}
	}
	return out
}

// Clear returns the builder to its initial state. Settings and title survive.
func (b *Builder) Clear() {
	b.reset()
	b.log.Debug().Msg("timeline cleared")
}

// Build snapshots the builder into a Specification. Tracks and the transition
// list are copied; clips are shared, so editing a clip through an old handle
// after Build is visible in the snapshot. The builder is left as is.
func (b *Builder) Build() *spec.Specification {
	tracks := make(map[timeline.Kind][]*timeline.Track, len(b.lanes))
	for _, k := range timeline.Kinds {
		src := b.lanes[k].tracks
		cp := make([]*timeline.Track, len(src))
		for i, tr := range src {
			cp[i] = tr.Clone()
		}
		tracks[k] = cp
	}
	transitions := append([]*timeline.Transition(nil), b.transitions...)

	s := spec.New(b.title, b.settings, tracks, transitions)
	b.log.Info().
		Str("id", s.ID.String()).
		Int("clips", s.ClipCount()).
		Int("transitions", len(transitions)).
		Float64("duration", s.Duration()).
		Msg("timeline built")
	return s
}
