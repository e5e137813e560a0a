package spec

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/reelcomposer/internal/timeline"
)

func ptr(v float64) *float64 { return &v }

func timing(t *testing.T, start float64, duration, end *float64) timeline.Timing {
	t.Helper()
	tm, err := timeline.NewTiming(start, duration, end)
	if err != nil {
		t.Fatalf("NewTiming failed: %v", err)
	}
	return tm
}

func sampleSpec(t *testing.T) *Specification {
	t.Helper()

	video := timeline.NewTrack(timeline.KindVideo, "video_0", 0)
	img, _ := timeline.NewImageClip("intro.png", timing(t, 0, ptr(4), nil))
	img.SetOpacity(0.5)
	img.AddAnimation(timeline.Animation{Type: timeline.AnimateZoom, From: 1, To: 1.2, Duration: 4})
	img.SetTransitionIn(timeline.ClipTransition{Type: timeline.TransitionFade, Duration: 0.5})
	vid, _ := timeline.NewVideoClip("clip.mp4", timing(t, 4, nil, ptr(9)))
	video.Append(img)
	video.Append(vid)

	overlay := timeline.NewTrack(timeline.KindVideo, "video_1", 1)
	bg, _ := timeline.NewImageClip("logo.png", timing(t, 0, nil, nil))
	overlay.Append(bg)

	text := timeline.NewTrack(timeline.KindText, "text_0", 0)
	caption, _ := timeline.NewTextClip("Hello", timing(t, 1, ptr(2), nil))
	caption.SetFontSize(64)
	caption.SetAlign(timeline.AlignRight)
	text.Append(caption)

	music := timeline.NewTrack(timeline.KindMusic, "music_0", 0)
	song, _ := timeline.NewAudioClip("song.mp3", timing(t, 0, ptr(10), nil))
	song.SetVolume(0.6)
	song.SetFadeOut(2)
	song.SetEnvelope([]timeline.EnvelopePoint{{Time: 0, Level: 1}, {Time: 5, Level: 0.4}})
	music.Append(song)

	voice := timeline.NewTrack(timeline.KindVoice, "voice_0", 0)
	voice.Muted = true

	tx, _ := timeline.NewTransition(timeline.TransitionCrossfade, 3.5, 1)
	tx.Direction = timeline.DirectionLeft

	return New("sample", DefaultSettings(), map[timeline.Kind][]*timeline.Track{
		timeline.KindVideo: {video, overlay},
		timeline.KindText:  {text},
		timeline.KindMusic: {music},
		timeline.KindVoice: {voice},
	}, []*timeline.Transition{tx})
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
		want   error
	}{
		{"defaults", func(*Settings) {}, nil},
		{"zero width", func(s *Settings) { s.Width = 0 }, timeline.ErrOutOfRange},
		{"too tall", func(s *Settings) { s.Height = MaxDimension + 1 }, timeline.ErrOutOfRange},
		{"zero fps", func(s *Settings) { s.FPS = 0 }, timeline.ErrOutOfRange},
		{"fps 240", func(s *Settings) { s.FPS = 240 }, nil},
		{"fps 241", func(s *Settings) { s.FPS = 241 }, timeline.ErrOutOfRange},
		{"quality 101", func(s *Settings) { s.Quality = 101 }, timeline.ErrOutOfRange},
		{"format avi", func(s *Settings) { s.Format = "avi" }, timeline.ErrUnsupportedVariant},
		{"hex background", func(s *Settings) { s.Background = "#1a2b3c" }, nil},
		{"short hex", func(s *Settings) { s.Background = "#fff" }, nil},
		{"named background", func(s *Settings) { s.Background = "DarkSlateGray" }, nil},
		{"bad background", func(s *Settings) { s.Background = "#12345z" }, timeline.ErrUnsupportedVariant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)
			err := s.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestApplyPreset(t *testing.T) {
	s := DefaultSettings()
	if err := s.ApplyPreset("16:9"); err != nil {
		t.Fatalf("ApplyPreset failed: %v", err)
	}
	if s.Width != 1920 || s.Height != 1080 {
		t.Errorf("16:9 gave %dx%d", s.Width, s.Height)
	}
	if err := s.ApplyPreset("21:9"); !errors.Is(err, timeline.ErrUnknownEntity) {
		t.Errorf("unknown preset: expected ErrUnknownEntity, got %v", err)
	}
	if got := strings.Join(PresetNames(), ","); got != "16:9,1:1,4:5,9:16" {
		t.Errorf("PresetNames() = %s", got)
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8000")
	if err != nil || c.R != 0xff || c.G != 0x80 || c.B != 0 || c.A != 0xff {
		t.Errorf("hex parse: %+v %v", c, err)
	}
	c, err = ParseColor("white")
	if err != nil || c.R != 0xff || c.G != 0xff || c.B != 0xff {
		t.Errorf("name parse: %+v %v", c, err)
	}
}

func TestQueries(t *testing.T) {
	s := sampleSpec(t)

	if d := s.Duration(); d != 10 {
		t.Errorf("duration = %f, want 10", d)
	}
	if n := s.ClipCount(); n != 5 {
		t.Errorf("clip count = %d, want 5", n)
	}

	active := s.ActiveClipsAt(1.5)
	if len(active[timeline.KindVideo]) != 2 || len(active[timeline.KindText]) != 1 || len(active[timeline.KindMusic]) != 1 {
		t.Errorf("unexpected active clips at 1.5: %v", active)
	}
	if _, ok := active[timeline.KindVoice]; ok {
		t.Error("kinds without active clips should be omitted")
	}
	if got := s.TransitionsAt(4); len(got) != 1 {
		t.Errorf("transitions at 4: %d", len(got))
	}
	if got := s.TransitionsAt(4.5); len(got) != 0 {
		t.Errorf("transition window should be end-exclusive, got %d", len(got))
	}

	if _, err := s.Track(timeline.KindText, "text_0"); err != nil {
		t.Errorf("Track(text_0): %v", err)
	}
	if _, err := s.Track(timeline.KindText, "text_9"); !errors.Is(err, timeline.ErrUnknownEntity) {
		t.Errorf("Track(text_9): expected ErrUnknownEntity, got %v", err)
	}
	if _, err := s.Transition(3); !errors.Is(err, timeline.ErrUnknownEntity) {
		t.Errorf("Transition(3): expected ErrUnknownEntity, got %v", err)
	}

	layers := s.VisualLayers()
	var names []string
	for _, l := range layers {
		names = append(names, l.Name)
	}
	if got := strings.Join(names, ","); got != "video_0,video_1,text_0" {
		t.Errorf("layer order = %s", got)
	}

	if audio := s.AudioTracks(); len(audio) != 1 || audio[0].Name != "music_0" {
		t.Errorf("muted voice track should be skipped, got %d tracks", len(audio))
	}
}

func TestEncodeDecodeKeepsTimingMode(t *testing.T) {
	s := sampleSpec(t)

	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"kind: image", "kind: video", "kind: text", "kind: audio", "end: 9", "title: sample"} {
		if !strings.Contains(out, want) {
			t.Errorf("encoded document missing %q", want)
		}
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.ID != s.ID {
		t.Errorf("id changed: %s vs %s", got.ID, s.ID)
	}
	if got.ClipCount() != s.ClipCount() || got.Duration() != s.Duration() {
		t.Errorf("decoded spec differs: %d clips, %f s", got.ClipCount(), got.Duration())
	}

	video := got.Tracks[timeline.KindVideo][0]
	if !timeline.Span(video.Clips[1]).HasExplicitEnd() {
		t.Error("end-based clip decoded as duration-based")
	}
	if !got.Tracks[timeline.KindVideo][1].Clips[0].IsOpenEnded() {
		t.Error("open-ended clip lost its open end")
	}
	img := video.Clips[0].(*timeline.VisualClip)
	if img.Opacity != 0.5 || len(img.Animations) != 1 || img.In == nil {
		t.Errorf("visual attributes lost: %+v", img.Visual)
	}
	caption := got.Tracks[timeline.KindText][0].Clips[0].(*timeline.TextClip)
	if caption.Font.Size != 64 || caption.Align != timeline.AlignRight {
		t.Errorf("text attributes lost: %+v", caption)
	}
	song := got.Tracks[timeline.KindMusic][0].Clips[0].(*timeline.AudioClip)
	if song.Volume != 0.6 || song.FadeOut != 2 || len(song.Envelope) != 2 {
		t.Errorf("audio attributes lost: %+v", song)
	}
	if !got.Tracks[timeline.KindVoice][0].Muted {
		t.Error("track flags lost")
	}
	if got.Transitions[0].Direction != timeline.DirectionLeft {
		t.Error("transition direction lost")
	}
}

func TestDecodeRevalidates(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "audio extension",
			doc: `settings: {width: 1080, height: 1920, fps: 30, format: mp4, background: black}
tracks:
  - {kind: music, name: music_0, volume: 1, clips: [{kind: audio, source: song.mp4, start: 0}]}`,
			want: timeline.ErrUnsupportedMedia,
		},
		{
			name: "duration and end",
			doc: `settings: {width: 1080, height: 1920, fps: 30, format: mp4, background: black}
tracks:
  - {kind: video, name: video_0, volume: 1, clips: [{kind: image, source: a.png, start: 0, duration: 1, end: 2}]}`,
			want: timeline.ErrConflictingTiming,
		},
		{
			name: "clip on wrong lane",
			doc: `settings: {width: 1080, height: 1920, fps: 30, format: mp4, background: black}
tracks:
  - {kind: text, name: text_0, volume: 1, clips: [{kind: image, source: a.png, start: 0}]}`,
			want: timeline.ErrUnsupportedVariant,
		},
		{
			name: "bad settings",
			doc:  `settings: {width: 0, height: 1920, fps: 30, format: mp4, background: black}`,
			want: timeline.ErrOutOfRange,
		},
		{
			name: "long transition",
			doc: `settings: {width: 1080, height: 1920, fps: 30, format: mp4, background: black}
transitions: [{type: fade, start: 0, duration: 31}]`,
			want: timeline.ErrOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.doc)); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestWriteReadFile(t *testing.T) {
	s := sampleSpec(t)
	path := filepath.Join(t.TempDir(), "timeline.yaml")

	if err := s.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got.Title != "sample" || got.ClipCount() != 5 {
		t.Errorf("unexpected spec from file: %q with %d clips", got.Title, got.ClipCount())
	}
}

func TestDecodeKeepsTrackDefaults(t *testing.T) {
	doc := `settings: {width: 1080, height: 1920, fps: 30, format: mp4, background: black}
tracks:
  - {kind: video, name: video_0, clips: [{kind: image, source: a.png, start: 0, duration: 2}]}
  - {kind: text, name: text_0, clips: [{kind: text, text: hi, start: 0, duration: 1}]}
  - {kind: music, name: music_0, clips: [{kind: audio, source: song.mp3, start: 0, duration: 2}]}
  - {kind: sfx, name: sfx_0, visible: false, volume: 0.25, z_order: 3}`

	s, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	music := s.Tracks[timeline.KindMusic][0]
	if music.Volume != 1 {
		t.Errorf("omitted volume should stay 1, got %f", music.Volume)
	}
	if n := len(s.VisualLayers()); n != 2 {
		t.Errorf("omitted visible should keep both layers, got %d", n)
	}
	if text := s.Tracks[timeline.KindText][0]; text.ZOrder != timeline.NewTrack(timeline.KindText, "t", 0).ZOrder {
		t.Errorf("omitted z_order should keep the text default, got %d", text.ZOrder)
	}

	sfx := s.Tracks[timeline.KindSFX][0]
	if sfx.Volume != 0.25 || sfx.Visible || sfx.ZOrder != 3 {
		t.Errorf("explicit fields not applied: %+v", sfx)
	}
}
