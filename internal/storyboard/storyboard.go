package storyboard

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/reelcomposer/internal/logging"
	"github.com/ivlev/reelcomposer/internal/spec"
	"github.com/ivlev/reelcomposer/internal/system"
	"github.com/ivlev/reelcomposer/internal/timeline"
)

const (
	gap          = 8
	headerHeight = 96
	qrSize       = 88
)

// Options control sampling and layout of a storyboard sheet.
type Options struct {
	// Step is the distance between samples in seconds.
	Step float64
	// Columns is the number of frames per sheet row.
	Columns int
	// FrameWidth is the width of each frame in pixels; height follows the
	// timeline's aspect ratio.
	FrameWidth int
	// Workers caps concurrent frame rendering; zero uses system.WorkerBudget.
	Workers int
	// Label stamps each frame with its time.
	Label bool
}

func DefaultOptions() Options {
	return Options{Step: 1, Columns: 4, FrameWidth: 270, Label: true}
}

// Frame is one sampled instant.
type Frame struct {
	Time  float64
	Image *image.RGBA
}

// Renderer draws preview frames of a Specification. Source images are decoded
// once and shared between frames.
type Renderer struct {
	opts   Options
	images *imageCache
	log    zerolog.Logger
}

func New(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.Step <= 0 {
		opts.Step = def.Step
	}
	if opts.Columns <= 0 {
		opts.Columns = def.Columns
	}
	if opts.FrameWidth <= 0 {
		opts.FrameWidth = def.FrameWidth
	}
	if opts.Workers <= 0 {
		opts.Workers = system.WorkerBudget()
	}
	return &Renderer{
		opts:   opts,
		images: &imageCache{decoded: make(map[string]image.Image)},
		log:    logging.WithComponent("storyboard"),
	}
}

// SampleTimes returns 0, step, 2*step, ... below duration. A timeline without
// bounded content still yields the single sample 0.
func SampleTimes(duration, step float64) []float64 {
	if step <= 0 || duration <= 0 {
		return []float64{0}
	}
	n := int(math.Ceil(duration / step))
	times := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		times = append(times, float64(i)*step)
	}
	return times
}

// RenderFrames renders every sample concurrently. Frames come back in time
// order; their canvases belong to the shared image pool.
func (r *Renderer) RenderFrames(ctx context.Context, s *spec.Specification) ([]Frame, error) {
	if err := s.Settings.Validate(); err != nil {
		return nil, err
	}
	times := SampleTimes(s.Duration(), r.opts.Step)
	frames := make([]Frame, len(times))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, at := range times {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			frames[i] = Frame{Time: at, Image: r.RenderFrame(s, at)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, f := range frames {
			system.PutImage(f.Image)
		}
		return nil, err
	}

	r.log.Debug().Int("frames", len(frames)).Int("workers", r.opts.Workers).Msg("frames rendered")
	return frames, nil
}

// Sheet lays the frames out in a grid under a header carrying the title, the
// timeline summary and a QR code of the specification ID.
func (r *Renderer) Sheet(ctx context.Context, s *spec.Specification) (*image.RGBA, error) {
	frames, err := r.RenderFrames(ctx, s)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, f := range frames {
			system.PutImage(f.Image)
		}
	}()

	fw := frames[0].Image.Bounds().Dx()
	fh := frames[0].Image.Bounds().Dy()
	cols := min(r.opts.Columns, len(frames))
	rows := (len(frames) + cols - 1) / cols

	width := max(cols*(fw+gap)+gap, qrSize+2*gap+200)
	height := headerHeight + rows*(fh+gap) + gap
	sheet := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(color.RGBA{R: 0x18, G: 0x18, B: 0x18, A: 0xff}), image.Point{}, draw.Src)

	if err := r.header(sheet, s); err != nil {
		return nil, err
	}

	for i, f := range frames {
		x := gap + (i%cols)*(fw+gap)
		y := headerHeight + (i/cols)*(fh+gap)
		draw.Draw(sheet, image.Rect(x, y, x+fw, y+fh), f.Image, image.Point{}, draw.Src)
	}

	r.log.Info().
		Str("id", s.ID.String()).
		Int("frames", len(frames)).
		Int("width", width).
		Int("height", height).
		Msg("storyboard sheet ready")
	return sheet, nil
}

func (r *Renderer) header(sheet *image.RGBA, s *spec.Specification) error {
	title := s.Title
	if title == "" {
		title = "untitled"
	}
	label(sheet, gap, 24, title, color.White)
	label(sheet, gap, 44, fmt.Sprintf("%dx%d @ %g fps, %s", s.Settings.Width, s.Settings.Height, s.Settings.FPS, s.Settings.Format), color.Gray{Y: 0xc0})
	label(sheet, gap, 64, fmt.Sprintf("%s, %d clips, %d transitions", formatTime(s.Duration()), s.ClipCount(), len(s.Transitions)), color.Gray{Y: 0xc0})

	qr, err := qrcode.New(s.ID.String(), qrcode.Medium)
	if err != nil {
		return fmt.Errorf("qr code: %w", err)
	}
	code := qr.Image(qrSize)
	at := image.Pt(sheet.Bounds().Dx()-qrSize-gap, (headerHeight-qrSize)/2)
	draw.Draw(sheet, image.Rectangle{Min: at, Max: at.Add(image.Pt(qrSize, qrSize))}, code, code.Bounds().Min, draw.Src)
	return nil
}

// WriteSheet renders the sheet for s and stores it as PNG at path.
func (r *Renderer) WriteSheet(ctx context.Context, s *spec.Specification, path string) error {
	sheet, err := r.Sheet(ctx, s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, sheet); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func formatTime(t float64) string {
	return fmt.Sprintf("%.2fs", t)
}

// imageCache decodes each image source once. Sources that cannot be read or
// decoded are remembered as nil and drawn as placeholders.
type imageCache struct {
	mu      sync.Mutex
	decoded map[string]image.Image
}

func (c *imageCache) load(clip *timeline.VisualClip) image.Image {
	if clip.Kind != timeline.ClipImage {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if img, ok := c.decoded[clip.Media]; ok {
		return img
	}

	var img image.Image
	if f, err := os.Open(clip.Media); err == nil {
		img, _, err = image.Decode(f)
		if err != nil {
			img = nil
		}
		f.Close()
	}
	c.decoded[clip.Media] = img
	return img
}
