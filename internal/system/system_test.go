package system

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExtensionSniffing(t *testing.T) {
	tests := []struct {
		path         string
		audio, image bool
		video, pdf   bool
	}{
		{"voice.MP3", true, false, false, false},
		{"bed.flac", true, false, false, false},
		{"frame.jpeg", false, true, false, false},
		{"clip.webm", false, false, true, false},
		{"deck.PDF", false, false, false, true},
		{"song.mp4", false, false, true, false},
		{"README", false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsAudioFile(tt.path); got != tt.audio {
				t.Errorf("IsAudioFile = %v", got)
			}
			if got := IsImageFile(tt.path); got != tt.image {
				t.Errorf("IsImageFile = %v", got)
			}
			if got := IsVideoFile(tt.path); got != tt.video {
				t.Errorf("IsVideoFile = %v", got)
			}
			if got := IsPDFFile(tt.path); got != tt.pdf {
				t.Errorf("IsPDFFile = %v", got)
			}
		})
	}
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.mp3")
	fresh := filepath.Join(dir, "fresh.wav")
	for _, p := range []string{old, fresh, filepath.Join(dir, "newest.txt")} {
		os.WriteFile(p, []byte("x"), 0644)
	}
	now := time.Now()
	os.Chtimes(old, now.Add(-time.Hour), now.Add(-time.Hour))
	os.Chtimes(fresh, now.Add(-time.Minute), now.Add(-time.Minute))

	got, err := FindLatest(dir, AudioExtensions)
	if err != nil || got != fresh {
		t.Errorf("FindLatest = %q, %v; want %q", got, err, fresh)
	}

	if _, err := FindLatest(dir, PDFExtensions); err == nil {
		t.Error("expected an error when nothing matches")
	}
}

func TestDefaultQuality(t *testing.T) {
	for encoder, want := range map[string]int{
		"h264_videotoolbox": 75,
		"h264_nvenc":        28,
		"libx264":           23,
	} {
		if got := DefaultQuality(encoder); got != want {
			t.Errorf("DefaultQuality(%s) = %d, want %d", encoder, got, want)
		}
	}
}

func TestImagePoolReusesBySize(t *testing.T) {
	p := NewImagePool()
	rect := image.Rect(0, 0, 4, 3)

	img := p.Get(rect)
	if img.Bounds() != rect {
		t.Fatalf("Get returned bounds %v", img.Bounds())
	}
	p.Put(img)
	p.Put(image.NewRGBA(image.Rect(0, 0, 9, 9)))

	if again := p.Get(rect); again.Bounds() != rect {
		t.Errorf("recycled frame has bounds %v", again.Bounds())
	}
}

func TestWorkerBudget(t *testing.T) {
	if n := WorkerBudget(); n < 1 {
		t.Errorf("WorkerBudget = %d, want at least 1", n)
	}
}
