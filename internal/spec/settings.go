package spec

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/ivlev/reelcomposer/internal/timeline"
)

const (
	MaxDimension = 8192
	MaxFPS       = 240.0
	MaxQuality   = 100
)

// Formats lists the accepted output container formats.
var Formats = []string{"mp4", "mov", "webm", "mkv", "gif"}

var aspectPresets = map[string][2]int{
	"16:9": {1920, 1080},
	"9:16": {1080, 1920},
	"4:5":  {1080, 1350},
	"1:1":  {1080, 1080},
}

// Settings are the global output parameters of a timeline. Quality 0 leaves the
// choice to the encoder.
type Settings struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	FPS        float64 `yaml:"fps"`
	Format     string  `yaml:"format"`
	Quality    int     `yaml:"quality"`
	Background string  `yaml:"background"`
}

// DefaultSettings is a vertical 1080x1920 frame at 30 fps.
func DefaultSettings() Settings {
	return Settings{
		Width:      1080,
		Height:     1920,
		FPS:        30,
		Format:     "mp4",
		Background: "black",
	}
}

// PresetNames returns the aspect presets accepted by ApplyPreset, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(aspectPresets))
	for name := range aspectPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset replaces width and height with those of a named aspect preset.
func (s *Settings) ApplyPreset(name string) error {
	size, ok := aspectPresets[name]
	if !ok {
		return fmt.Errorf("%w: aspect preset %q", timeline.ErrUnknownEntity, name)
	}
	s.Width, s.Height = size[0], size[1]
	return nil
}

// Validate checks every field against its bounds.
func (s Settings) Validate() error {
	if s.Width < 1 || s.Width > MaxDimension || s.Height < 1 || s.Height > MaxDimension {
		return fmt.Errorf("%w: frame size %dx%d must be within 1..%d", timeline.ErrOutOfRange, s.Width, s.Height, MaxDimension)
	}
	if s.FPS <= 0 || s.FPS > MaxFPS {
		return fmt.Errorf("%w: fps %v must be in (0, %.0f]", timeline.ErrOutOfRange, s.FPS, MaxFPS)
	}
	if s.Quality < 0 || s.Quality > MaxQuality {
		return fmt.Errorf("%w: quality %d must be in 0..%d", timeline.ErrOutOfRange, s.Quality, MaxQuality)
	}
	known := false
	for _, f := range Formats {
		if s.Format == f {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: output format %q", timeline.ErrUnsupportedVariant, s.Format)
	}
	if _, err := ParseColor(s.Background); err != nil {
		return err
	}
	return nil
}

// BackgroundColor resolves the background setting. Invalid values fall back to black.
func (s Settings) BackgroundColor() color.RGBA {
	c, err := ParseColor(s.Background)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return c
}

// ParseColor accepts #rgb, #rrggbb or an SVG color name such as "white" or
// "darkslategray".
func ParseColor(s string) (color.RGBA, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	if !strings.HasPrefix(name, "#") {
		return color.RGBA{}, fmt.Errorf("%w: color %q", timeline.ErrUnsupportedVariant, s)
	}

	hex := name[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: color %q", timeline.ErrUnsupportedVariant, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: color %q", timeline.ErrUnsupportedVariant, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
