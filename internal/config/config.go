package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/reelcomposer/internal/spec"
)

type contextKey string

const configKey contextKey = "config"

// envPrefix namespaces every environment override.
const envPrefix = "REELCOMPOSER_"

// Config holds all application configuration
type Config struct {
	Output     OutputConfig     `yaml:"output"`
	FFmpeg     FFmpegConfig     `yaml:"ffmpeg"`
	Storyboard StoryboardConfig `yaml:"storyboard"`
	Slides     SlidesConfig     `yaml:"slides"`
}

// OutputConfig seeds the render settings of every new timeline. Preset is
// applied first; non-zero dimensions then override it.
type OutputConfig struct {
	Dir        string  `yaml:"dir"`
	Preset     string  `yaml:"preset"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	FPS        float64 `yaml:"fps"`
	Format     string  `yaml:"format"`
	Quality    int     `yaml:"quality"`
	Background string  `yaml:"background"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	// Encoder forces a video encoder; empty picks the best available one.
	Encoder string `yaml:"encoder"`
}

type StoryboardConfig struct {
	Step       float64 `yaml:"step"`
	Columns    int     `yaml:"columns"`
	FrameWidth int     `yaml:"frame_width"`
	Workers    int     `yaml:"workers"`
}

// SlidesConfig drives the slides command, which turns PDF pages or an image
// folder into a timed slideshow.
type SlidesConfig struct {
	DPI           int     `yaml:"dpi"`
	TotalDuration float64 `yaml:"total_duration"`
	PageDuration  float64 `yaml:"page_duration"`
	Fade          float64 `yaml:"fade"`
	Transition    string  `yaml:"transition"`
	Effect        string  `yaml:"effect"`
	AudioSync     bool    `yaml:"audio_sync"`
	Workers       int     `yaml:"workers"`
	Seed          int64   `yaml:"seed"`
}

// Load reads configuration from file or returns defaults. Values from a .env
// file in the working directory and REELCOMPOSER_* variables win over both.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Settings turns the output section into validated timeline settings.
func (c *Config) Settings() (spec.Settings, error) {
	s := spec.DefaultSettings()
	o := c.Output
	if o.Preset != "" {
		if err := s.ApplyPreset(o.Preset); err != nil {
			return spec.Settings{}, err
		}
	}
	if o.Width != 0 {
		s.Width = o.Width
	}
	if o.Height != 0 {
		s.Height = o.Height
	}
	if o.FPS != 0 {
		s.FPS = o.FPS
	}
	if o.Format != "" {
		s.Format = o.Format
	}
	if o.Quality != 0 {
		s.Quality = o.Quality
	}
	if o.Background != "" {
		s.Background = o.Background
	}
	if err := s.Validate(); err != nil {
		return spec.Settings{}, err
	}
	return s, nil
}

func defaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:    "./output",
			Preset: "9:16",
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
		},
		Storyboard: StoryboardConfig{
			Step:       1,
			Columns:    4,
			FrameWidth: 270,
		},
		Slides: SlidesConfig{
			DPI:          150,
			PageDuration: 3,
			Fade:         0.5,
			Transition:   "crossfade",
			Effect:       "ken-burns",
			AudioSync:    true,
			Seed:         1,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./reelcomposer.yaml",
		"./reelcomposer.yml",
		filepath.Join(os.Getenv("HOME"), ".reelcomposer", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"OUTPUT_DIR": &c.Output.Dir,
		"PRESET":     &c.Output.Preset,
		"FORMAT":     &c.Output.Format,
		"BACKGROUND": &c.Output.Background,
		"FFMPEG":     &c.FFmpeg.BinaryPath,
		"ENCODER":    &c.FFmpeg.Encoder,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"WIDTH":   &c.Output.Width,
		"HEIGHT":  &c.Output.Height,
		"QUALITY": &c.Output.Quality,
		"WORKERS": &c.Slides.Workers,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv(envPrefix + "FPS"); ok {
		fps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sFPS: %w", envPrefix, err)
		}
		c.Output.FPS = fps
	}
	return nil
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
