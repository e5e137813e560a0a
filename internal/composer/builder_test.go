package composer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ivlev/reelcomposer/internal/logging"
	"github.com/ivlev/reelcomposer/internal/spec"
	"github.com/ivlev/reelcomposer/internal/timeline"
)

// placed wraps a placement call and fails the test on error:
// placed(t)(b.AddImage("a.png")).
func placed(t *testing.T) func(*ClipHandle, error) *ClipHandle {
	t.Helper()
	return func(h *ClipHandle, err error) *ClipHandle {
		t.Helper()
		if err != nil {
			t.Fatalf("placement failed: %v", err)
		}
		return h
	}
}

func clipOf(t *testing.T, h *ClipHandle) timeline.Clip {
	t.Helper()
	c, err := h.Clip()
	if err != nil {
		t.Fatalf("handle did not resolve: %v", err)
	}
	return c
}

func TestSequentialRoundTrip(t *testing.T) {
	b := New()
	placed(t)(b.AddImage("a.png", WithDuration(5)))
	h := placed(t)(b.AddImage("b.png", WithDuration(3)))

	if got := clipOf(t, h).StartTime(); got != 5 {
		t.Errorf("second clip starts at %f, want 5", got)
	}
	if got := b.Cursor(timeline.KindVideo); got != 8 {
		t.Errorf("video cursor = %f, want 8", got)
	}
	if got := b.Cursor(timeline.KindMusic); got != 0 {
		t.Errorf("music cursor moved to %f", got)
	}
}

func TestCursorNeverDecreases(t *testing.T) {
	b := New()

	steps := []struct {
		name   string
		place  func() (*ClipHandle, error)
		cursor float64
	}{
		{"explicit late", func() (*ClipHandle, error) { return b.AddImageAt("a.png", 10, WithDuration(2)) }, 12},
		{"explicit early", func() (*ClipHandle, error) { return b.AddImageAt("b.png", 0, WithDuration(1)) }, 12},
		{"open ended before cursor", func() (*ClipHandle, error) { return b.AddVideoAt("c.mp4", 5) }, 12},
		{"open ended after cursor", func() (*ClipHandle, error) { return b.AddVideoAt("d.mp4", 20) }, 20},
		{"end based", func() (*ClipHandle, error) { return b.AddImageAt("e.png", 21, WithEnd(25)) }, 25},
	}

	for _, st := range steps {
		if _, err := st.place(); err != nil {
			t.Fatalf("%s: %v", st.name, err)
		}
		if got := b.Cursor(timeline.KindVideo); got != st.cursor {
			t.Errorf("%s: cursor = %f, want %f", st.name, got, st.cursor)
		}
	}
}

func TestDurationAndEndAreExclusive(t *testing.T) {
	b := New()
	_, err := b.AddImageAt("a.png", 0, WithDuration(2), WithEnd(3))
	if !errors.Is(err, timeline.ErrConflictingTiming) {
		t.Fatalf("expected ErrConflictingTiming, got %v", err)
	}
	if _, err := b.AddMusic("a.mp3", WithDuration(1), WithEnd(1)); !errors.Is(err, timeline.ErrConflictingTiming) {
		t.Fatalf("sequential: expected ErrConflictingTiming, got %v", err)
	}

	if n := len(b.Tracks(timeline.KindVideo)[0].Clips); n != 0 {
		t.Errorf("failed placement left %d clips behind", n)
	}
	if b.Cursor(timeline.KindVideo) != 0 || b.Cursor(timeline.KindMusic) != 0 {
		t.Error("failed placement moved a cursor")
	}
}

func TestZeroLengthBoundary(t *testing.T) {
	b := New()
	h, err := b.AddTextAt("flash", 5, WithEnd(5))
	if err != nil {
		t.Fatalf("end == start should be accepted: %v", err)
	}
	if d, ok := clipOf(t, h).Duration(); !ok || d != 0 {
		t.Errorf("duration = %f (bounded %v), want 0", d, ok)
	}
	if _, err := b.AddTextAt("bad", 5, WithEnd(4.9)); !errors.Is(err, timeline.ErrInvalidTimeRange) {
		t.Errorf("end < start: expected ErrInvalidTimeRange, got %v", err)
	}
}

func TestDefaultDurationBatch(t *testing.T) {
	b := New()
	if err := b.SetDuration(2); err != nil {
		t.Fatalf("SetDuration failed: %v", err)
	}

	var handles []*ClipHandle
	for _, src := range []string{"1.png", "2.png", "3.png"} {
		handles = append(handles, placed(t)(b.AddImage(src)))
	}
	override := placed(t)(b.AddImage("4.png", WithDuration(0.5)))

	for i, h := range handles {
		c := clipOf(t, h)
		if c.StartTime() != float64(i*2) {
			t.Errorf("clip %d starts at %f, want %d", i, c.StartTime(), i*2)
		}
		if d, _ := c.Duration(); d != 2 {
			t.Errorf("clip %d duration %f, want 2", i, d)
		}
	}
	if d, _ := clipOf(t, override).Duration(); d != 0.5 {
		t.Errorf("override duration %f, want 0.5", d)
	}
	if d, ok := b.NextDuration(); !ok || d != 2 {
		t.Errorf("pending duration consumed: %f %v", d, ok)
	}

	b.ClearDuration()
	last := placed(t)(b.AddImage("5.png"))
	if !clipOf(t, last).IsOpenEnded() {
		t.Error("clip after ClearDuration should be open-ended")
	}
	if err := b.SetDuration(-1); !errors.Is(err, timeline.ErrOutOfRange) {
		t.Errorf("negative default: expected ErrOutOfRange, got %v", err)
	}
}

func TestDefaultDurationYieldsToExplicitEnd(t *testing.T) {
	b := New()
	b.SetDuration(4)
	h := placed(t)(b.AddVoice("line.wav", WithEnd(1.5)))
	if end, _ := clipOf(t, h).EndTime(); end != 1.5 {
		t.Errorf("end = %f, want 1.5", end)
	}
}

func TestOpenEndedExcludedFromDuration(t *testing.T) {
	b := New()
	h := placed(t)(b.AddImageAt("background.png", 0))

	if d := b.Duration(); d != 0 {
		t.Errorf("duration = %f, want 0", d)
	}
	active := b.ActiveClipsAt(1000)
	if len(active[timeline.KindVideo]) != 1 || active[timeline.KindVideo][0] != clipOf(t, h) {
		t.Errorf("open-ended clip should be active at 1000, got %v", active)
	}

	// The same asymmetry holds once other content gives the timeline a length.
	placed(t)(b.AddMusicAt("bed.mp3", 0, WithDuration(12)))
	if d := b.Duration(); d != 12 {
		t.Errorf("duration = %f, want 12", d)
	}
}

func TestTransitionAutoTiming(t *testing.T) {
	b := New()
	placed(t)(b.AddImage("a.png", WithDuration(5)))
	placed(t)(b.AddMusic("m.mp3", WithDuration(3)))

	tx, err := b.AddTransition(timeline.TransitionFade, 1)
	if err != nil {
		t.Fatalf("AddTransition failed: %v", err)
	}
	if tx.Start != 4 {
		t.Errorf("transition start = %f, want 4", tx.Start)
	}
	if got := b.TransitionsAt(4.5); len(got) != 1 {
		t.Errorf("expected transition active at 4.5, got %d", len(got))
	}

	if _, err := b.AddTransition(timeline.TransitionFade, 6); !errors.Is(err, timeline.ErrOutOfRange) {
		t.Errorf("transition before zero: expected ErrOutOfRange, got %v", err)
	}
	if n := len(b.Transitions()); n != 1 {
		t.Errorf("failed transition was stored: %d transitions", n)
	}
}

func TestTransitionOptions(t *testing.T) {
	b := New()
	tx, err := b.AddTransitionAt(timeline.TransitionWipe, 2, 0.5,
		WithDirection(timeline.DirectionLeft),
		WithEasing(timeline.EaseInOut),
		Between([]string{"video_0"}, []string{"text_0"}),
		WithMetadata("color", "black"))
	if err != nil {
		t.Fatalf("AddTransitionAt failed: %v", err)
	}
	if tx.Direction != timeline.DirectionLeft || tx.Easing != timeline.EaseInOut || tx.Metadata["color"] != "black" {
		t.Errorf("options not applied: %+v", tx)
	}

	tests := []struct {
		name string
		opts []TransitionOption
		want error
	}{
		{"unknown track", []TransitionOption{Between([]string{"video_7"}, nil)}, timeline.ErrUnknownEntity},
		{"bad direction", []TransitionOption{WithDirection("diagonal")}, timeline.ErrUnsupportedVariant},
		{"bad easing", []TransitionOption{WithEasing("wobble")}, timeline.ErrUnsupportedVariant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := b.AddTransitionAt(timeline.TransitionFade, 0, 1, tt.opts...); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if err := b.RemoveTransition(0); err != nil {
		t.Errorf("RemoveTransition(0): %v", err)
	}
	if err := b.RemoveTransition(0); !errors.Is(err, timeline.ErrUnknownEntity) {
		t.Errorf("RemoveTransition on empty list: expected ErrUnknownEntity, got %v", err)
	}
}

func TestTrackAllocationFollowsHistory(t *testing.T) {
	b := New()

	// b.png overlaps a.png but still lands on video_0: the track had no
	// overlap of its own when it was chosen.
	a := placed(t)(b.AddImageAt("a.png", 0, WithEnd(5)))
	second := placed(t)(b.AddImageAt("b.png", 3, WithEnd(8)))
	if a.TrackName() != "video_0" || second.TrackName() != "video_0" {
		t.Fatalf("expected both on video_0, got %s and %s", a.TrackName(), second.TrackName())
	}

	third := placed(t)(b.AddImageAt("c.png", 20, WithDuration(1)))
	if third.TrackName() != "video_1" {
		t.Errorf("third clip on %s, want video_1", third.TrackName())
	}
	if n := len(b.Tracks(timeline.KindVideo)); n != 2 {
		t.Errorf("video tracks = %d, want 2", n)
	}

	// A touching clip does not count as an overlap.
	placed(t)(b.AddMusicAt("x.mp3", 0, WithEnd(5)))
	placed(t)(b.AddMusicAt("y.mp3", 5, WithEnd(8)))
	z := placed(t)(b.AddMusicAt("z.mp3", 8, WithEnd(9)))
	if z.TrackName() != "music_0" {
		t.Errorf("touching clips split tracks: %s", z.TrackName())
	}
}

func TestExplicitTrackSelection(t *testing.T) {
	b := New()
	if _, err := b.AddTextAt("hi", 0, OnTrack("text_3")); !errors.Is(err, timeline.ErrUnknownEntity) {
		t.Fatalf("unknown track: expected ErrUnknownEntity, got %v", err)
	}

	tr, err := b.AddTrack(timeline.KindText)
	if err != nil {
		t.Fatalf("AddTrack failed: %v", err)
	}
	h := placed(t)(b.AddTextAt("hi", 0, OnTrack(tr.Name), WithDuration(1)))
	if h.TrackName() != "text_1" {
		t.Errorf("clip on %s, want text_1", h.TrackName())
	}

	if err := b.RemoveTrack(timeline.KindText, "text_0"); err != nil {
		t.Fatalf("RemoveTrack failed: %v", err)
	}
	again, _ := b.AddTrack(timeline.KindText)
	if again.Name == "text_1" {
		t.Error("AddTrack reused an existing name")
	}
	if err := b.RemoveTrack(timeline.KindText, "text_0"); !errors.Is(err, timeline.ErrUnknownEntity) {
		t.Errorf("second removal: expected ErrUnknownEntity, got %v", err)
	}
}

func TestAudioExtensionCheck(t *testing.T) {
	b := New()
	tests := []struct {
		name  string
		place func() (*ClipHandle, error)
	}{
		{"voice", func() (*ClipHandle, error) { return b.AddVoice("narration.mp4") }},
		{"music", func() (*ClipHandle, error) { return b.AddMusicAt("song", 0) }},
		{"sfx", func() (*ClipHandle, error) { return b.AddSFX("boom.txt", WithDuration(1)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.place(); !errors.Is(err, timeline.ErrUnsupportedMedia) {
				t.Errorf("expected ErrUnsupportedMedia, got %v", err)
			}
		})
	}
	if _, err := b.AddSFX("BOOM.WAV"); err != nil {
		t.Errorf("upper-case extension rejected: %v", err)
	}
}

func TestAttributeOptions(t *testing.T) {
	b := New()

	h := placed(t)(b.AddTextAt("Title", 0, WithDuration(2), WithFontSize(72), WithAlign(timeline.AlignLeft), WithOpacity(0.8)))
	text := clipOf(t, h).(*timeline.TextClip)
	if text.Font.Size != 72 || text.Align != timeline.AlignLeft || text.Opacity != 0.8 {
		t.Errorf("attributes not applied: %+v", text)
	}

	if _, err := b.AddImage("a.png", WithFontSize(20)); !errors.Is(err, timeline.ErrUnsupportedVariant) {
		t.Errorf("font on image: expected ErrUnsupportedVariant, got %v", err)
	}
	if _, err := b.AddMusic("a.mp3", WithVolume(3)); !errors.Is(err, timeline.ErrOutOfRange) {
		t.Errorf("volume 3: expected ErrOutOfRange, got %v", err)
	}
	if b.Cursor(timeline.KindMusic) != 0 || len(b.Tracks(timeline.KindVideo)[0].Clips) != 0 {
		t.Error("rejected placements changed builder state")
	}
}

func TestHandleStickyError(t *testing.T) {
	b := New()
	h := placed(t)(b.AddImage("a.png", WithDuration(3)))

	h.SetPosition(10, 20).SetOpacity(2).SetSize(100, 100)
	if !errors.Is(h.Err(), timeline.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", h.Err())
	}
	clip := clipOf(t, h).(*timeline.VisualClip)
	if clip.X != 10 || clip.Y != 20 {
		t.Errorf("setter before the failure was lost: %+v", clip.Visual)
	}
	if clip.Opacity != 1 {
		t.Errorf("failing setter changed opacity to %f", clip.Opacity)
	}
	if clip.Width != 0 {
		t.Error("setter after the failure should be a no-op")
	}

	audio := placed(t)(b.AddMusic("m.mp3"))
	audio.SetVolume(0.5).SetFadeIn(1).SetFadeOut(2).SetNormalize(true)
	if audio.Err() != nil {
		t.Fatalf("audio chain failed: %v", audio.Err())
	}
	if a := clipOf(t, audio).(*timeline.AudioClip); a.Volume != 0.5 || a.FadeOut != 2 || !a.Normalize {
		t.Errorf("audio attributes not applied: %+v", a)
	}
	if err := audio.SetPosition(1, 1).Err(); !errors.Is(err, timeline.ErrUnsupportedVariant) {
		t.Errorf("position on audio: expected ErrUnsupportedVariant, got %v", err)
	}
}

func TestBuildIsolation(t *testing.T) {
	b := New()
	b.SetTitle("demo")
	h := placed(t)(b.AddImage("a.png", WithDuration(2)))
	if _, err := b.AddTransitionAt(timeline.TransitionFade, 1, 1); err != nil {
		t.Fatalf("AddTransitionAt failed: %v", err)
	}

	s := b.Build()
	placed(t)(b.AddImage("b.png", WithDuration(2)))
	if _, err := b.AddTransitionAt(timeline.TransitionFade, 3, 1); err != nil {
		t.Fatalf("AddTransitionAt failed: %v", err)
	}
	b.AddTrack(timeline.KindVideo)

	if s.ClipCount() != 1 {
		t.Errorf("spec saw later placements: %d clips", s.ClipCount())
	}
	if len(s.Transitions) != 1 || len(s.Tracks[timeline.KindVideo]) != 1 {
		t.Errorf("spec saw later transitions or tracks")
	}
	if s.Duration() != 2 || s.Title != "demo" {
		t.Errorf("unexpected spec: duration %f title %q", s.Duration(), s.Title)
	}

	h.SetOpacity(0.25)
	if got := s.Tracks[timeline.KindVideo][0].Clips[0].(*timeline.VisualClip).Opacity; got != 0.25 {
		t.Errorf("clips are shared with the builder, want 0.25 got %f", got)
	}
	if b.Duration() != 4 {
		t.Errorf("Build reset the builder: duration %f", b.Duration())
	}
}

func TestClearKeepsSettingsAndTitle(t *testing.T) {
	b := New()
	settings := spec.DefaultSettings()
	settings.FPS = 60
	if err := b.SetSettings(settings); err != nil {
		t.Fatalf("SetSettings failed: %v", err)
	}
	b.SetTitle("keep me")
	b.SetDuration(1)
	h := placed(t)(b.AddImage("a.png"))
	placed(t)(b.AddImageAt("b.png", 0, WithEnd(4)))
	placed(t)(b.AddImageAt("c.png", 1, WithEnd(2)))
	placed(t)(b.AddImageAt("d.png", 9, WithEnd(10)))
	b.AddTransition(timeline.TransitionFade, 1)

	b.Clear()

	for _, k := range timeline.Kinds {
		tracks := b.Tracks(k)
		if len(tracks) != 1 || tracks[0].Name != timeline.DefaultTrackName(k, 0) || len(tracks[0].Clips) != 0 {
			t.Errorf("%s lane not reset: %d tracks", k, len(tracks))
		}
		if b.Cursor(k) != 0 {
			t.Errorf("%s cursor not reset", k)
		}
	}
	if _, ok := b.NextDuration(); ok {
		t.Error("pending duration survived Clear")
	}
	if len(b.Transitions()) != 0 {
		t.Error("transitions survived Clear")
	}
	if b.Settings().FPS != 60 || b.Title() != "keep me" {
		t.Error("Clear dropped settings or title")
	}
	if _, err := h.Clip(); !errors.Is(err, timeline.ErrUnknownEntity) {
		t.Errorf("stale handle: expected ErrUnknownEntity, got %v", err)
	}
}

func TestStaleHandleAfterClear(t *testing.T) {
	b := New()
	old := placed(t)(b.AddImage("a.png", WithDuration(2)))

	b.Clear()
	fresh := placed(t)(b.AddImage("b.png", WithDuration(2)))
	if fresh.TrackName() != old.TrackName() || fresh.Index() != old.Index() {
		t.Fatalf("expected the fresh clip at %s[%d], got %s[%d]", old.TrackName(), old.Index(), fresh.TrackName(), fresh.Index())
	}

	if err := old.SetOpacity(0.1).Err(); !errors.Is(err, timeline.ErrUnknownEntity) {
		t.Errorf("stale handle: expected ErrUnknownEntity, got %v", err)
	}
	if got := clipOf(t, fresh).(*timeline.VisualClip).Opacity; got != 1 {
		t.Errorf("stale handle edited the fresh clip: opacity %f", got)
	}
}

func TestStaleHandleAfterTrackNameReuse(t *testing.T) {
	b := New()
	tr, err := b.AddTrack(timeline.KindVideo)
	if err != nil {
		t.Fatalf("AddTrack failed: %v", err)
	}
	old := placed(t)(b.AddImageAt("a.png", 0, OnTrack(tr.Name), WithDuration(2)))

	if err := b.RemoveTrack(timeline.KindVideo, tr.Name); err != nil {
		t.Fatalf("RemoveTrack failed: %v", err)
	}
	again, err := b.AddTrack(timeline.KindVideo)
	if err != nil {
		t.Fatalf("AddTrack failed: %v", err)
	}
	if again.Name != tr.Name {
		t.Fatalf("expected the freed name %s to be handed out again, got %s", tr.Name, again.Name)
	}
	fresh := placed(t)(b.AddImageAt("b.png", 0, OnTrack(again.Name), WithDuration(2)))

	if err := old.SetOpacity(0.2).Err(); !errors.Is(err, timeline.ErrUnknownEntity) {
		t.Errorf("stale handle: expected ErrUnknownEntity, got %v", err)
	}
	if got := clipOf(t, fresh).(*timeline.VisualClip).Opacity; got != 1 {
		t.Errorf("stale handle edited the fresh clip: opacity %f", got)
	}
}

func TestSetSettingsValidates(t *testing.T) {
	b := New()
	bad := spec.DefaultSettings()
	bad.Width = 0
	if err := b.SetSettings(bad); !errors.Is(err, timeline.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if b.Settings().Width != spec.DefaultSettings().Width {
		t.Error("invalid settings were stored")
	}
}

func TestPlacementsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	b := New()
	b.SetLogger(logging.NewLogger(&buf, "composer"))

	placed(t)(b.AddImageAt("a.png", 1, WithDuration(2)))
	b.AddImageAt("bad.png", 0, WithOpacity(5))

	out := buf.String()
	for _, want := range []string{`"component":"composer"`, `"message":"clip placed"`, `"track":"video_0"`, `"end":3`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
	if strings.Contains(out, "bad.png") {
		t.Error("a rejected placement was logged as placed")
	}
}
