package script

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/reelcomposer/internal/timeline"
)

// Document is a timeline described as YAML: optional settings followed by
// steps replayed in order against a builder.
type Document struct {
	Title    string    `yaml:"title,omitempty"`
	Preset   string    `yaml:"preset,omitempty"`
	Settings Overrides `yaml:"settings,omitempty"`
	Steps    []Step    `yaml:"steps"`
}

// Overrides changes individual output settings; zero values keep the current one.
type Overrides struct {
	Width      int     `yaml:"width,omitempty"`
	Height     int     `yaml:"height,omitempty"`
	FPS        float64 `yaml:"fps,omitempty"`
	Format     string  `yaml:"format,omitempty"`
	Quality    *int    `yaml:"quality,omitempty"`
	Background string  `yaml:"background,omitempty"`
}

// Step holds exactly one action (set_duration, clear_duration, image, video,
// text, voice, music, sfx or transition) plus modifiers for it. A step with
// "at" is placed explicitly, otherwise at the lane cursor.
type Step struct {
	SetDuration   *float64 `yaml:"set_duration,omitempty"`
	ClearDuration bool     `yaml:"clear_duration,omitempty"`
	Image         string   `yaml:"image,omitempty"`
	Video         string   `yaml:"video,omitempty"`
	Text          string   `yaml:"text,omitempty"`
	Voice         string   `yaml:"voice,omitempty"`
	Music         string   `yaml:"music,omitempty"`
	SFX           string   `yaml:"sfx,omitempty"`
	Transition    string   `yaml:"transition,omitempty"`

	At       *float64 `yaml:"at,omitempty"`
	Duration *float64 `yaml:"duration,omitempty"`
	End      *float64 `yaml:"end,omitempty"`
	Track    string   `yaml:"track,omitempty"`
	Use      []string `yaml:"use,omitempty"`

	Position  []float64 `yaml:"position,omitempty"`
	Size      []int     `yaml:"size,omitempty"`
	Opacity   *float64  `yaml:"opacity,omitempty"`
	FontSize  int       `yaml:"font_size,omitempty"`
	Color     string    `yaml:"color,omitempty"`
	Weight    string    `yaml:"weight,omitempty"`
	Align     string    `yaml:"align,omitempty"`
	Volume    *float64  `yaml:"volume,omitempty"`
	FadeIn    *float64  `yaml:"fade_in,omitempty"`
	FadeOut   *float64  `yaml:"fade_out,omitempty"`
	Crossfade *float64  `yaml:"crossfade,omitempty"`
	Normalize bool      `yaml:"normalize,omitempty"`

	Direction string   `yaml:"direction,omitempty"`
	Easing    string   `yaml:"easing,omitempty"`
	From      []string `yaml:"from,omitempty"`
	To        []string `yaml:"to,omitempty"`
}

// Action names the single action a step carries.
func (s Step) Action() (string, error) {
	var found []string
	set := func(name string, ok bool) {
		if ok {
			found = append(found, name)
		}
	}
	set("set_duration", s.SetDuration != nil)
	set("clear_duration", s.ClearDuration)
	set("image", s.Image != "")
	set("video", s.Video != "")
	set("text", s.Text != "")
	set("voice", s.Voice != "")
	set("music", s.Music != "")
	set("sfx", s.SFX != "")
	set("transition", s.Transition != "" || (len(s.Use) > 0 && s.isBareUse()))

	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return "", fmt.Errorf("%w: step has no action", timeline.ErrUnsupportedVariant)
	}
	return "", fmt.Errorf("%w: step has several actions %v", timeline.ErrUnsupportedVariant, found)
}

// isBareUse reports a step that only names presets, which is how a transition
// preset is placed without repeating its type.
func (s Step) isBareUse() bool {
	return s.SetDuration == nil && !s.ClearDuration && s.Image == "" && s.Video == "" &&
		s.Text == "" && s.Voice == "" && s.Music == "" && s.SFX == "" && s.Transition == ""
}

// Parse decodes a document from r.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return &doc, nil
}

// Read loads a document from a YAML file.
func Read(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Write stores a document as a YAML file.
func Write(doc *Document, path string) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
