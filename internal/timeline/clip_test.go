package timeline

import (
	"errors"
	"math"
	"testing"
)

func f(v float64) *float64 { return &v }

func TestNewTiming(t *testing.T) {
	tests := []struct {
		name     string
		start    float64
		duration *float64
		end      *float64
		wantErr  error
		wantEnd  float64
		bounded  bool
	}{
		{name: "duration", start: 1, duration: f(2), wantEnd: 3, bounded: true},
		{name: "end", start: 1, end: f(4), wantEnd: 4, bounded: true},
		{name: "open ended", start: 2},
		{name: "zero length", start: 5, end: f(5), wantEnd: 5, bounded: true},
		{name: "both", start: 0, duration: f(1), end: f(2), wantErr: ErrConflictingTiming},
		{name: "end before start", start: 3, end: f(2), wantErr: ErrInvalidTimeRange},
		{name: "negative start", start: -1, wantErr: ErrOutOfRange},
		{name: "negative duration", start: 0, duration: f(-1), wantErr: ErrOutOfRange},
		{name: "nan start", start: math.NaN(), wantErr: ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timing, err := NewTiming(tt.start, tt.duration, tt.end)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			end, ok := timing.EndTime()
			if ok != tt.bounded {
				t.Fatalf("bounded = %v, want %v", ok, tt.bounded)
			}
			if ok && end != tt.wantEnd {
				t.Errorf("end = %f, want %f", end, tt.wantEnd)
			}
		})
	}
}

func TestZeroLengthClipDuration(t *testing.T) {
	timing, err := NewTiming(5, nil, f(5))
	if err != nil {
		t.Fatalf("NewTiming failed: %v", err)
	}
	clip, _ := NewTextClip("x", timing)
	d, ok := clip.Duration()
	if !ok || d != 0 {
		t.Errorf("duration = %f (bounded %v), want 0", d, ok)
	}
	if clip.IsActiveAt(5) {
		t.Error("zero-length clip should not be active at its own start")
	}
}

func TestIsActiveAtBoundaries(t *testing.T) {
	bounded, _ := NewTiming(2, f(3), nil)
	open, _ := NewTiming(2, nil, nil)

	tests := []struct {
		timing Timing
		at     float64
		want   bool
	}{
		{bounded, 1.99, false},
		{bounded, 2, true},
		{bounded, 4.99, true},
		{bounded, 5, false},
		{open, 1, false},
		{open, 2, true},
		{open, 1000, true},
	}

	for _, tt := range tests {
		if got := tt.timing.IsActiveAt(tt.at); got != tt.want {
			t.Errorf("IsActiveAt(%v) = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestAudioClipRejectsUnknownExtension(t *testing.T) {
	timing, _ := NewTiming(0, nil, nil)

	for _, src := range []string{"voice.mp3", "music.WAV", "fx.flac", "a.m4a", "b.ogg", "c.aac"} {
		if _, err := NewAudioClip(src, timing); err != nil {
			t.Errorf("%s: unexpected error %v", src, err)
		}
	}
	for _, src := range []string{"voice.mp4", "noext", "track.mp3.txt"} {
		if _, err := NewAudioClip(src, timing); !errors.Is(err, ErrUnsupportedMedia) {
			t.Errorf("%s: expected ErrUnsupportedMedia, got %v", src, err)
		}
	}
}

func TestVisualBounds(t *testing.T) {
	timing, _ := NewTiming(0, f(1), nil)
	clip, err := NewImageClip("a.png", timing)
	if err != nil {
		t.Fatalf("NewImageClip failed: %v", err)
	}

	if clip.Opacity != 1 {
		t.Errorf("default opacity = %f, want 1", clip.Opacity)
	}
	if err := clip.SetOpacity(1.5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("opacity 1.5: expected ErrOutOfRange, got %v", err)
	}
	if clip.Opacity != 1 {
		t.Errorf("failed setter changed opacity to %f", clip.Opacity)
	}
	if err := clip.SetSize(0, 10); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("size 0x10: expected ErrOutOfRange, got %v", err)
	}
	if err := clip.SetSize(640, 360); err != nil {
		t.Errorf("size 640x360: %v", err)
	}
	if err := clip.SetTransitionIn(ClipTransition{Type: TransitionFade, Duration: 0.5}); err != nil {
		t.Errorf("transition in: %v", err)
	}
	if err := clip.SetTransitionOut(ClipTransition{Type: "spin", Duration: 0.5}); !errors.Is(err, ErrUnsupportedVariant) {
		t.Errorf("unknown transition: expected ErrUnsupportedVariant, got %v", err)
	}
	if _, err := NewImageClip("", timing); !errors.Is(err, ErrUnsupportedMedia) {
		t.Errorf("empty source: expected ErrUnsupportedMedia, got %v", err)
	}
}

func TestTextClipFont(t *testing.T) {
	timing, _ := NewTiming(0, nil, nil)
	clip, _ := NewTextClip("Hello", timing)

	if clip.Font.Size != 48 || clip.Align != AlignCenter {
		t.Errorf("unexpected defaults: %+v align %s", clip.Font, clip.Align)
	}
	if err := clip.SetFontSize(0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("font size 0: expected ErrOutOfRange, got %v", err)
	}
	if err := clip.SetFontWeight("heavy"); !errors.Is(err, ErrUnsupportedVariant) {
		t.Errorf("weight heavy: expected ErrUnsupportedVariant, got %v", err)
	}
	if err := clip.SetAlign(AlignLeft); err != nil || clip.Align != AlignLeft {
		t.Errorf("align left failed: %v", err)
	}
}

func TestAudioEnvelope(t *testing.T) {
	timing, _ := NewTiming(0, f(10), nil)
	clip, _ := NewAudioClip("bed.mp3", timing)

	if err := clip.SetVolume(2.5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("volume 2.5: expected ErrOutOfRange, got %v", err)
	}
	if err := clip.SetEnvelope([]EnvelopePoint{{0, 1}, {2, 0.5}, {1, 1}}); !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("unordered envelope: expected ErrInvalidTimeRange, got %v", err)
	}
	if err := clip.SetEnvelope([]EnvelopePoint{{0, 0}, {2, 1}, {4, 0.5}}); err != nil {
		t.Fatalf("SetEnvelope failed: %v", err)
	}

	tests := []struct {
		at   float64
		want float64
	}{
		{0, 0}, {1, 0.5}, {2, 1}, {3, 0.75}, {9, 0.5},
	}
	for _, tt := range tests {
		if got := clip.LevelAt(tt.at); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("LevelAt(%v) = %f, want %f", tt.at, got, tt.want)
		}
	}
}

func TestAnimationValueAt(t *testing.T) {
	a := Animation{Type: AnimateZoom, From: 1, To: 2, Offset: 1, Duration: 2, Easing: EaseLinear}
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	tests := []struct {
		local float64
		want  float64
	}{
		{0, 1}, {1, 1}, {2, 1.5}, {3, 2}, {10, 2},
	}
	for _, tt := range tests {
		if got := a.ValueAt(tt.local); math.Abs(got-tt.want) > 0.01 {
			t.Errorf("ValueAt(%v) = %f, want %f", tt.local, got, tt.want)
		}
	}

	bad := Animation{Type: AnimateFade, From: 0, To: 2, Duration: 1}
	if err := bad.Validate(); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("fade to 2: expected ErrOutOfRange, got %v", err)
	}
}
