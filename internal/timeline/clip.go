package timeline

import (
	"fmt"
	"slices"

	"github.com/ivlev/reelcomposer/internal/system"
)

// Clip is the smallest timed unit of content. The set of implementations is
// closed: *VisualClip, *TextClip and *AudioClip.
type Clip interface {
	ClipKind() ClipKind
	Source() string
	StartTime() float64
	Duration() (float64, bool)
	EndTime() (float64, bool)
	IsOpenEnded() bool
	IsActiveAt(t float64) bool
	span() *Timing
	isClip()
}

// Span returns a copy of the timing spine of any clip.
func Span(c Clip) Timing { return *c.span() }

// Visual holds presentation attributes shared by image, video and text clips.
// Width and Height of zero mean the source's native size.
type Visual struct {
	Width      int
	Height     int
	X          float64
	Y          float64
	Opacity    float64
	Animations []Animation
	In         *ClipTransition
	Out        *ClipTransition
}

func defaultVisual() Visual {
	return Visual{Opacity: 1}
}

// SetPosition moves the clip's top-left corner.
func (v *Visual) SetPosition(x, y float64) error {
	if !finite(x) || !finite(y) {
		return fmt.Errorf("%w: position (%v, %v)", ErrOutOfRange, x, y)
	}
	v.X, v.Y = x, y
	return nil
}

// SetSize sets the rendered size in pixels. Both dimensions must be at least 1.
func (v *Visual) SetSize(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("%w: size %dx%d, dimensions must be >= 1", ErrOutOfRange, width, height)
	}
	v.Width, v.Height = width, height
	return nil
}

// SetOpacity sets opacity in [0, 1].
func (v *Visual) SetOpacity(opacity float64) error {
	if !finite(opacity) || opacity < 0 || opacity > 1 {
		return fmt.Errorf("%w: opacity %v must be in [0, 1]", ErrOutOfRange, opacity)
	}
	v.Opacity = opacity
	return nil
}

// AddAnimation appends an animation after validating it.
func (v *Visual) AddAnimation(a Animation) error {
	if a.Easing == "" {
		a.Easing = EaseLinear
	}
	if err := a.Validate(); err != nil {
		return err
	}
	v.Animations = append(v.Animations, a)
	return nil
}

// SetTransitionIn attaches the transition played as the clip appears.
func (v *Visual) SetTransitionIn(ct ClipTransition) error {
	if ct.Easing == "" {
		ct.Easing = EaseLinear
	}
	if err := ct.Validate(); err != nil {
		return err
	}
	v.In = &ct
	return nil
}

// SetTransitionOut attaches the transition played as the clip leaves.
func (v *Visual) SetTransitionOut(ct ClipTransition) error {
	if ct.Easing == "" {
		ct.Easing = EaseLinear
	}
	if err := ct.Validate(); err != nil {
		return err
	}
	v.Out = &ct
	return nil
}

// VisualClip is an image or video placed on a video track.
type VisualClip struct {
	Timing
	Visual
	Kind  ClipKind
	Media string
}

// NewImageClip builds a still-image clip.
func NewImageClip(source string, t Timing) (*VisualClip, error) {
	return newVisualClip(ClipImage, source, t)
}

// NewVideoClip builds a moving-picture clip.
func NewVideoClip(source string, t Timing) (*VisualClip, error) {
	return newVisualClip(ClipVideo, source, t)
}

func newVisualClip(kind ClipKind, source string, t Timing) (*VisualClip, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: %s clip needs a source", ErrUnsupportedMedia, kind)
	}
	return &VisualClip{Timing: t, Visual: defaultVisual(), Kind: kind, Media: source}, nil
}

func (c *VisualClip) ClipKind() ClipKind { return c.Kind }
func (c *VisualClip) Source() string     { return c.Media }
func (c *VisualClip) isClip()            {}

// Text alignment values.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Font describes how a text clip is typeset.
type Font struct {
	Size   int    `yaml:"size"`
	Color  string `yaml:"color"`
	Family string `yaml:"family"`
	Weight string `yaml:"weight"`
}

// TextClip is a caption or title placed on a text track.
type TextClip struct {
	Timing
	Visual
	Text  string
	Font  Font
	Align Align
}

// NewTextClip builds a text clip with the default font.
func NewTextClip(text string, t Timing) (*TextClip, error) {
	return &TextClip{
		Timing: t,
		Visual: defaultVisual(),
		Text:   text,
		Font:   Font{Size: 48, Color: "white", Family: "Arial", Weight: "normal"},
		Align:  AlignCenter,
	}, nil
}

func (c *TextClip) ClipKind() ClipKind { return ClipText }
func (c *TextClip) Source() string     { return c.Text }
func (c *TextClip) isClip()            {}

// SetFontSize sets the point size; it must be at least 1.
func (c *TextClip) SetFontSize(size int) error {
	if size < 1 {
		return fmt.Errorf("%w: font size %d must be >= 1", ErrOutOfRange, size)
	}
	c.Font.Size = size
	return nil
}

// SetFontColor sets the color name or hex value. An empty color is rejected.
func (c *TextClip) SetFontColor(color string) error {
	if color == "" {
		return fmt.Errorf("%w: empty font color", ErrOutOfRange)
	}
	c.Font.Color = color
	return nil
}

// SetFontFamily sets the font family.
func (c *TextClip) SetFontFamily(family string) error {
	if family == "" {
		return fmt.Errorf("%w: empty font family", ErrOutOfRange)
	}
	c.Font.Family = family
	return nil
}

// SetFontWeight accepts normal, bold or light.
func (c *TextClip) SetFontWeight(weight string) error {
	switch weight {
	case "normal", "bold", "light":
		c.Font.Weight = weight
		return nil
	}
	return fmt.Errorf("%w: font weight %q", ErrUnsupportedVariant, weight)
}

// SetAlign accepts left, center or right.
func (c *TextClip) SetAlign(a Align) error {
	switch a {
	case AlignLeft, AlignCenter, AlignRight:
		c.Align = a
		return nil
	}
	return fmt.Errorf("%w: alignment %q", ErrUnsupportedVariant, a)
}

// MaxVolume is the loudest gain accepted for clips and tracks.
const MaxVolume = 2.0

// EnvelopePoint is one step of a custom volume curve, relative to the clip start.
type EnvelopePoint struct {
	Time  float64 `yaml:"time"`
	Level float64 `yaml:"level"`
}

// AudioClip is a music, voice or sound-effect clip.
type AudioClip struct {
	Timing
	Media         string
	Volume        float64
	FadeIn        float64
	FadeOut       float64
	Crossfade     float64
	AutoCrossfade bool
	Normalize     bool
	Envelope      []EnvelopePoint
}

// NewAudioClip builds an audio clip. The source must carry one of the audio
// extensions .mp3 .wav .aac .m4a .ogg .flac.
func NewAudioClip(source string, t Timing) (*AudioClip, error) {
	if err := CheckAudioSource(source); err != nil {
		return nil, err
	}
	return &AudioClip{Timing: t, Media: source, Volume: 1}, nil
}

// CheckAudioSource applies the audio extension allow-list to source.
func CheckAudioSource(source string) error {
	if !system.IsAudioFile(source) {
		return fmt.Errorf("%w: %q is not one of %v", ErrUnsupportedMedia, source, system.AudioExtensions)
	}
	return nil
}

func (c *AudioClip) ClipKind() ClipKind { return ClipAudio }
func (c *AudioClip) Source() string     { return c.Media }
func (c *AudioClip) isClip()            {}

// SetVolume sets the gain in [0, 2].
func (c *AudioClip) SetVolume(v float64) error {
	if err := checkVolume(v); err != nil {
		return err
	}
	c.Volume = v
	return nil
}

// SetFadeIn sets the fade-in length in seconds.
func (c *AudioClip) SetFadeIn(d float64) error {
	if err := checkNonNegative("fade-in", d); err != nil {
		return err
	}
	c.FadeIn = d
	return nil
}

// SetFadeOut sets the fade-out length in seconds.
func (c *AudioClip) SetFadeOut(d float64) error {
	if err := checkNonNegative("fade-out", d); err != nil {
		return err
	}
	c.FadeOut = d
	return nil
}

// SetCrossfade sets the overlap used when blending into the next clip.
func (c *AudioClip) SetCrossfade(d float64) error {
	if err := checkNonNegative("crossfade", d); err != nil {
		return err
	}
	c.Crossfade = d
	return nil
}

// SetEnvelope replaces the volume envelope. Times must be non-negative and
// non-decreasing, levels within [0, 2].
func (c *AudioClip) SetEnvelope(points []EnvelopePoint) error {
	for i, p := range points {
		if !finite(p.Time) || p.Time < 0 {
			return fmt.Errorf("%w: envelope point %d time %v", ErrOutOfRange, i, p.Time)
		}
		if i > 0 && p.Time < points[i-1].Time {
			return fmt.Errorf("%w: envelope point %d goes back in time", ErrInvalidTimeRange, i)
		}
		if err := checkVolume(p.Level); err != nil {
			return fmt.Errorf("envelope point %d: %w", i, err)
		}
	}
	c.Envelope = slices.Clone(points)
	return nil
}

// LevelAt evaluates the envelope local seconds after the clip start, linearly
// interpolating between points. Without an envelope it returns 1.
func (c *AudioClip) LevelAt(local float64) float64 {
	pts := c.Envelope
	if len(pts) == 0 {
		return 1
	}
	if local <= pts[0].Time {
		return pts[0].Level
	}
	for i := 1; i < len(pts); i++ {
		if local <= pts[i].Time {
			prev, next := pts[i-1], pts[i]
			if next.Time == prev.Time {
				return next.Level
			}
			f := (local - prev.Time) / (next.Time - prev.Time)
			return prev.Level + (next.Level-prev.Level)*f
		}
	}
	return pts[len(pts)-1].Level
}

func checkVolume(v float64) error {
	if !finite(v) || v < 0 || v > MaxVolume {
		return fmt.Errorf("%w: volume %v must be in [0, %.0f]", ErrOutOfRange, v, MaxVolume)
	}
	return nil
}

func checkNonNegative(name string, v float64) error {
	if !finite(v) || v < 0 {
		return fmt.Errorf("%w: %s %v must be non-negative", ErrOutOfRange, name, v)
	}
	return nil
}
