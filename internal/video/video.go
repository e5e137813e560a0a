package video

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ivlev/reelcomposer/internal/effects"
	"github.com/ivlev/reelcomposer/internal/logging"
	"github.com/ivlev/reelcomposer/internal/spec"
	"github.com/ivlev/reelcomposer/internal/system"
	"github.com/ivlev/reelcomposer/internal/timeline"
)

// Renderer turns a finished Specification into a media file.
type Renderer interface {
	Render(ctx context.Context, s *spec.Specification, output string) error
}

// FFmpegRenderer composites every layer and mixes every audio track in one
// ffmpeg invocation.
type FFmpegRenderer struct {
	Binary string
	// Encoder forces the H.264 encoder; empty asks ffmpeg for the best one.
	Encoder string

	log zerolog.Logger
}

func NewFFmpegRenderer(binary, encoder string) *FFmpegRenderer {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegRenderer{
		Binary:  binary,
		Encoder: encoder,
		log:     logging.WithComponent("video"),
	}
}

func (r *FFmpegRenderer) Render(ctx context.Context, s *spec.Specification, output string) error {
	encoder := r.Encoder
	if encoder == "" {
		encoder = system.BestH264Encoder(ctx)
	}

	args, err := BuildArgs(s, output, encoder)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	r.log.Info().
		Str("output", output).
		Str("encoder", encoder).
		Float64("duration", s.Duration()).
		Int("clips", s.ClipCount()).
		Msg("rendering")
	r.log.Debug().Strs("args", args).Msg("ffmpeg command")

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg render error: %w, output: %s", err, string(out))
	}

	r.log.Info().Str("output", output).Msg("render complete")
	return nil
}

// graph accumulates inputs and filter chains for one render.
type graph struct {
	args    []string
	inputs  int
	filters []string
	labels  int
}

func (g *graph) input(args ...string) int {
	g.args = append(g.args, args...)
	g.inputs++
	return g.inputs - 1
}

func (g *graph) label(prefix string) string {
	g.labels++
	return fmt.Sprintf("[%s%d]", prefix, g.labels)
}

func (g *graph) chain(in, filter, out string) {
	g.filters = append(g.filters, in+filter+out)
}

// BuildArgs assembles the ffmpeg argument list for s. Input 0 is a generated
// background; each visual clip is one input overlaid in z-order, text clips
// become drawtext filters, timeline transitions dip the composite to the
// background color, and audio clips are mixed with amix.
func BuildArgs(s *spec.Specification, output, encoder string) ([]string, error) {
	total := s.Duration()
	if total <= 0 {
		return nil, fmt.Errorf("%w: timeline has no bounded content to render", timeline.ErrOutOfRange)
	}

	st := s.Settings
	frame := effects.Frame{Width: st.Width, Height: st.Height, FPS: st.FPS, Total: total}
	bg := hexColor(st)

	g := &graph{args: []string{"-y"}}
	g.input("-f", "lavfi", "-i", fmt.Sprintf("color=c=%s:s=%dx%d:r=%s:d=%.3f", bg, st.Width, st.Height, fps(st.FPS), total))

	video := "[0:v]"
	for _, tr := range s.VisualLayers() {
		for _, c := range tr.SortedClips() {
			if c.StartTime() >= total {
				continue
			}
			next := g.label("v")
			switch clip := c.(type) {
			case *timeline.VisualClip:
				idx := visualInput(g, clip, frame)
				layer := g.label("l")
				g.chain(fmt.Sprintf("[%d:v]", idx), effects.VisualFilter(clip, frame), layer)
				x, y := effects.Position(clip)
				g.chain(video+layer, fmt.Sprintf("overlay=x='%s':y='%s':eof_action=pass:enable='%s'", x, y, frame.Enable(clip)), next)
			case *timeline.TextClip:
				g.chain(video, effects.TextFilter(clip, frame), next)
			}
			video = next
		}
	}

	for _, tx := range s.Transitions {
		next := g.label("v")
		g.chain(video, transitionFilter(tx, bg), next)
		video = next
	}

	var mixed []string
	for _, tr := range s.AudioTracks() {
		for _, c := range tr.SortedClips() {
			clip, ok := c.(*timeline.AudioClip)
			if !ok || c.StartTime() >= total {
				continue
			}
			idx := g.input("-i", clip.Media)
			out := g.label("a")
			g.chain(fmt.Sprintf("[%d:a]", idx), effects.AudioFilter(clip, tr.Volume, frame), out)
			mixed = append(mixed, out)
		}
	}

	audio := ""
	if len(mixed) > 0 && st.Format != "gif" {
		audio = "[aout]"
		g.chain(strings.Join(mixed, ""), fmt.Sprintf("amix=inputs=%d:duration=longest:normalize=0", len(mixed)), audio)
	}

	args := g.args
	if len(g.filters) > 0 {
		args = append(args, "-filter_complex", strings.Join(g.filters, ";"))
	}
	args = append(args, "-map", video)
	if audio != "" {
		args = append(args, "-map", audio)
	}
	args = append(args, "-t", fmt.Sprintf("%.3f", total), "-r", fps(st.FPS))
	args = append(args, codecArgs(st, encoder)...)
	args = append(args, output)
	return args, nil
}

// visualInput registers the source of a visual clip. Stills are looped for
// the clip window.
func visualInput(g *graph, c *timeline.VisualClip, f effects.Frame) int {
	if c.Kind == timeline.ClipImage {
		start, end := f.Window(c)
		return g.input("-loop", "1", "-t", fmt.Sprintf("%.3f", end-start), "-i", c.Media)
	}
	return g.input("-i", c.Media)
}

// transitionFilter renders a timeline-wide transition as a dip to the
// background: out over the first half of the window, in over the second.
func transitionFilter(tx *timeline.Transition, bg string) string {
	half := tx.Duration / 2
	return fmt.Sprintf("fade=t=out:st=%.3f:d=%.3f:color=%s,fade=t=in:st=%.3f:d=%.3f:color=%s",
		tx.Start, half, bg, tx.Start+half, half, bg)
}

// codecArgs picks codecs for the container and maps Quality onto the
// encoder's own scale. Quality 0 uses the encoder default.
func codecArgs(st spec.Settings, encoder string) []string {
	switch st.Format {
	case "gif":
		return []string{"-loop", "0"}
	case "webm":
		q := st.Quality
		if q == 0 {
			q = 32
		}
		return []string{"-c:v", "libvpx-vp9", "-crf", fmt.Sprintf("%d", q), "-b:v", "0", "-pix_fmt", "yuv420p", "-c:a", "libopus"}
	}

	quality := st.Quality
	if quality == 0 {
		quality = system.DefaultQuality(encoder)
	}

	args := []string{"-c:v", encoder, "-pix_fmt", "yuv420p"}
	switch encoder {
	case "h264_videotoolbox":
		args = append(args, "-b:v", fmt.Sprintf("%dk", quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", quality))
	default:
		args = append(args, "-crf", fmt.Sprintf("%d", quality), "-preset", "medium")
	}
	return append(args, "-c:a", "aac")
}

func hexColor(st spec.Settings) string {
	c := st.BackgroundColor()
	return fmt.Sprintf("0x%02X%02X%02X", c.R, c.G, c.B)
}

func fps(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}
