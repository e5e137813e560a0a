package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/reelcomposer/internal/composer"
	"github.com/ivlev/reelcomposer/internal/config"
	"github.com/ivlev/reelcomposer/internal/logging"
	"github.com/ivlev/reelcomposer/internal/presets"
	"github.com/ivlev/reelcomposer/internal/script"
	"github.com/ivlev/reelcomposer/internal/source"
	"github.com/ivlev/reelcomposer/internal/spec"
	"github.com/ivlev/reelcomposer/internal/storyboard"
	"github.com/ivlev/reelcomposer/internal/system"
	"github.com/ivlev/reelcomposer/internal/timeline"
	"github.com/ivlev/reelcomposer/internal/video"
)

// Project wires configuration, presets and the render backends together.
type Project struct {
	Config   *config.Config
	Presets  *presets.Registry
	Renderer video.Renderer
	// Probe reports the length of an audio file; it defaults to ffprobe.
	Probe func(ctx context.Context, path string) (float64, error)

	log zerolog.Logger
}

func NewProject(cfg *config.Config) *Project {
	return &Project{
		Config:   cfg,
		Presets:  presets.Default(),
		Renderer: video.NewFFmpegRenderer(cfg.FFmpeg.BinaryPath, cfg.FFmpeg.Encoder),
		Probe:    system.ProbeDuration,
		log:      logging.WithComponent("engine"),
	}
}

// newBuilder returns a builder seeded with the configured output settings.
func (p *Project) newBuilder() (*composer.Builder, error) {
	settings, err := p.Config.Settings()
	if err != nil {
		return nil, err
	}
	b := composer.New()
	b.SetLogger(logging.WithComponent("composer"))
	if err := b.SetSettings(settings); err != nil {
		return nil, err
	}
	return b, nil
}

// FromScript replays a script document and builds the Specification.
func (p *Project) FromScript(doc *script.Document) (*spec.Specification, error) {
	b, err := p.newBuilder()
	if err != nil {
		return nil, err
	}
	if err := script.Apply(doc, b, p.Presets); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

// Load reads either a script (a document with steps) or a Specification
// dump from path.
func (p *Project) Load(path string) (*spec.Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var probe struct {
		Steps yaml.Node `yaml:"steps"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if probe.Steps.Kind != 0 {
		doc, err := script.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		p.log.Debug().Str("path", path).Int("steps", len(doc.Steps)).Msg("loaded script")
		return p.FromScript(doc)
	}
	return spec.Decode(bytes.NewReader(data))
}

// SlidesInput names the pages and optional soundtrack of a slideshow.
type SlidesInput struct {
	Source source.Source
	// WorkDir receives rasterized pages; images already on disk are used in place.
	WorkDir string
	Audio   string
	Title   string
}

// Slides turns every page of the source into an image clip. Slides alternate
// between two video tracks so that neighbours can overlap by the fade time,
// each overlap carrying a timeline transition between the two tracks.
func (p *Project) Slides(ctx context.Context, in SlidesInput) (*spec.Specification, error) {
	cfg := p.Config.Slides
	n := in.Source.PageCount()
	if n == 0 {
		return nil, fmt.Errorf("source has no pages or images")
	}

	b, err := p.newBuilder()
	if err != nil {
		return nil, err
	}
	b.SetTitle(in.Title)

	total := cfg.TotalDuration
	if in.Audio != "" && cfg.AudioSync {
		d, err := p.Probe(ctx, in.Audio)
		if err != nil {
			p.log.Warn().Err(err).Str("audio", in.Audio).Msg("could not read audio duration")
		} else {
			total = d
			p.log.Info().Float64("duration", total).Msg("slideshow length follows the audio")
		}
	}
	if total <= 0 {
		total = float64(n) * cfg.PageDuration
	}

	fade := cfg.Fade
	if n == 1 {
		fade = 0
	}
	durations := SlideDurations(total, n, fade, cfg.Seed)
	if shortest := minOf(durations); fade > 0 && fade >= shortest {
		fade = shortest / 2
		p.log.Warn().Float64("fade", fade).Msg("fade shortened to fit the shortest slide")
		durations = SlideDurations(total, n, fade, cfg.Seed)
	}
	alignToFrames(durations, b.Settings().FPS)

	start := time.Now()
	paths, err := source.ExportPages(ctx, in.Source, in.WorkDir, cfg.DPI, cfg.Workers)
	if err != nil {
		return nil, err
	}

	// The first lane is the builder's empty default track.
	first, err := b.GetOrCreateTrack(timeline.KindVideo)
	if err != nil {
		return nil, err
	}
	second, err := b.AddTrack(timeline.KindVideo)
	if err != nil {
		return nil, err
	}
	lanes := [2]string{first.Name, second.Name}

	txType, err := timeline.ParseTransitionType(cfg.Transition)
	if err != nil && cfg.Transition != "" && cfg.Transition != "none" {
		return nil, err
	}

	at := 0.0
	for i, path := range paths {
		opts := []composer.Option{composer.WithDuration(durations[i]), composer.OnTrack(lanes[i%2])}
		if cfg.Effect != "" {
			effect, err := p.Presets.ClipOptions(cfg.Effect, durations[i])
			if err != nil {
				return nil, err
			}
			opts = append(opts, effect...)
		}
		if fade > 0 && i > 0 {
			opts = append(opts, composer.WithTransitionIn(timeline.ClipTransition{Type: timeline.TransitionFade, Duration: fade}))
		}
		if fade > 0 && i < len(paths)-1 {
			opts = append(opts, composer.WithTransitionOut(timeline.ClipTransition{Type: timeline.TransitionFade, Duration: fade}))
		}
		if _, err := b.AddImageAt(path, at, opts...); err != nil {
			return nil, fmt.Errorf("slide %d: %w", i+1, err)
		}

		next := at + durations[i] - fade
		if txType != "" && fade > 0 && i < len(paths)-1 {
			from, to := lanes[i%2], lanes[(i+1)%2]
			if _, err := b.AddTransitionAt(txType, next, fade, composer.Between([]string{from}, []string{to})); err != nil {
				return nil, fmt.Errorf("transition after slide %d: %w", i+1, err)
			}
		}
		at = next
	}

	if in.Audio != "" {
		fadeOut := min(2.0, total/10)
		if _, err := b.AddMusicAt(in.Audio, 0, composer.WithDuration(total), composer.WithFadeOut(fadeOut)); err != nil {
			return nil, err
		}
	}

	s := b.Build()
	p.log.Info().
		Int("slides", n).
		Float64("duration", s.Duration()).
		Dur("elapsed", time.Since(start)).
		Msg("slideshow assembled")
	return s, nil
}

// Render hands the Specification to the configured renderer.
func (p *Project) Render(ctx context.Context, s *spec.Specification, output string) error {
	if output == "" {
		output = p.OutputPath(s, s.Settings.Format)
	}
	start := time.Now()
	if err := p.Renderer.Render(ctx, s, output); err != nil {
		return err
	}
	p.log.Info().Str("output", output).Dur("elapsed", time.Since(start)).Msg("video ready")
	return nil
}

// Storyboard writes a preview contact sheet for the Specification.
func (p *Project) Storyboard(ctx context.Context, s *spec.Specification, output string) error {
	if output == "" {
		output = p.OutputPath(s, "png")
	}
	sb := p.Config.Storyboard
	r := storyboard.New(storyboard.Options{
		Step:       sb.Step,
		Columns:    sb.Columns,
		FrameWidth: sb.FrameWidth,
		Workers:    sb.Workers,
		Label:      true,
	})
	return r.WriteSheet(ctx, s, output)
}

// OutputPath derives a timestamped file name in the output directory from
// the title.
func (p *Project) OutputPath(s *spec.Specification, ext string) string {
	name := strings.ReplaceAll(strings.TrimSpace(s.Title), " ", "_")
	if name == "" {
		name = "reel"
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(p.Config.Output.Dir, fmt.Sprintf("%s_%s.%s", name, timestamp, ext))
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
