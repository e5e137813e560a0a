package spec

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/reelcomposer/internal/timeline"
)

// Document is the YAML form of a Specification. It is an inspection artifact,
// not a versioned format.
type Document struct {
	ID          string                 `yaml:"id"`
	Title       string                 `yaml:"title,omitempty"`
	Duration    float64                `yaml:"duration"`
	Settings    Settings               `yaml:"settings"`
	Tracks      []TrackDoc             `yaml:"tracks"`
	Transitions []*timeline.Transition `yaml:"transitions,omitempty"`
}

// TrackDoc is one track of a Document. Omitted z_order, visible and volume
// keep the defaults of a new track.
type TrackDoc struct {
	Kind    timeline.Kind `yaml:"kind"`
	Name    string        `yaml:"name"`
	ZOrder  *int          `yaml:"z_order,omitempty"`
	Visible *bool         `yaml:"visible,omitempty"`
	Muted   bool          `yaml:"muted,omitempty"`
	Volume  *float64      `yaml:"volume,omitempty"`
	Clips   []ClipDoc     `yaml:"clips"`
}

// ClipDoc flattens the three clip variants. Kind says which fields apply.
type ClipDoc struct {
	Kind     timeline.ClipKind `yaml:"kind"`
	Source   string            `yaml:"source,omitempty"`
	Text     string            `yaml:"text,omitempty"`
	Start    float64           `yaml:"start"`
	Duration *float64          `yaml:"duration,omitempty"`
	End      *float64          `yaml:"end,omitempty"`

	Width      int                      `yaml:"width,omitempty"`
	Height     int                      `yaml:"height,omitempty"`
	X          float64                  `yaml:"x,omitempty"`
	Y          float64                  `yaml:"y,omitempty"`
	Opacity    *float64                 `yaml:"opacity,omitempty"`
	Animations []timeline.Animation     `yaml:"animations,omitempty"`
	In         *timeline.ClipTransition `yaml:"transition_in,omitempty"`
	Out        *timeline.ClipTransition `yaml:"transition_out,omitempty"`

	Font  *timeline.Font `yaml:"font,omitempty"`
	Align timeline.Align `yaml:"align,omitempty"`

	Volume        *float64                 `yaml:"volume,omitempty"`
	FadeIn        float64                  `yaml:"fade_in,omitempty"`
	FadeOut       float64                  `yaml:"fade_out,omitempty"`
	Crossfade     float64                  `yaml:"crossfade,omitempty"`
	AutoCrossfade bool                     `yaml:"auto_crossfade,omitempty"`
	Normalize     bool                     `yaml:"normalize,omitempty"`
	Envelope      []timeline.EnvelopePoint `yaml:"envelope,omitempty"`
}

// ToDocument flattens the specification.
func (s *Specification) ToDocument() (*Document, error) {
	doc := &Document{
		ID:          s.ID.String(),
		Title:       s.Title,
		Duration:    s.Duration(),
		Settings:    s.Settings,
		Transitions: s.Transitions,
	}
	for _, tr := range s.AllTracks() {
		zOrder, visible, volume := tr.ZOrder, tr.Visible, tr.Volume
		td := TrackDoc{
			Kind:    tr.Kind,
			Name:    tr.Name,
			ZOrder:  &zOrder,
			Visible: &visible,
			Muted:   tr.Muted,
			Volume:  &volume,
		}
		for _, c := range tr.Clips {
			cd, err := clipToDoc(c)
			if err != nil {
				return nil, fmt.Errorf("track %q: %w", tr.Name, err)
			}
			td.Clips = append(td.Clips, cd)
		}
		doc.Tracks = append(doc.Tracks, td)
	}
	return doc, nil
}

func clipToDoc(c timeline.Clip) (ClipDoc, error) {
	span := timeline.Span(c)
	cd := ClipDoc{Kind: c.ClipKind(), Start: span.StartTime()}
	if end, ok := span.EndTime(); ok {
		if span.HasExplicitEnd() {
			cd.End = &end
		} else {
			d, _ := span.Duration()
			cd.Duration = &d
		}
	}

	switch v := c.(type) {
	case *timeline.VisualClip:
		cd.Source = v.Media
		visualToDoc(&cd, v.Visual)
	case *timeline.TextClip:
		cd.Text = v.Text
		font := v.Font
		cd.Font = &font
		cd.Align = v.Align
		visualToDoc(&cd, v.Visual)
	case *timeline.AudioClip:
		vol := v.Volume
		cd.Source = v.Media
		cd.Volume = &vol
		cd.FadeIn = v.FadeIn
		cd.FadeOut = v.FadeOut
		cd.Crossfade = v.Crossfade
		cd.AutoCrossfade = v.AutoCrossfade
		cd.Normalize = v.Normalize
		cd.Envelope = v.Envelope
	default:
		return ClipDoc{}, fmt.Errorf("%w: clip type %T", timeline.ErrUnsupportedVariant, c)
	}
	return cd, nil
}

func visualToDoc(cd *ClipDoc, v timeline.Visual) {
	opacity := v.Opacity
	cd.Width, cd.Height = v.Width, v.Height
	cd.X, cd.Y = v.X, v.Y
	cd.Opacity = &opacity
	cd.Animations = v.Animations
	cd.In, cd.Out = v.In, v.Out
}

// FromDocument rebuilds a Specification, running every value through the same
// validation the builder applies.
func FromDocument(doc *Document) (*Specification, error) {
	if err := doc.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	id := uuid.New()
	if doc.ID != "" {
		parsed, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: id %q", timeline.ErrUnsupportedVariant, doc.ID)
		}
		id = parsed
	}

	tracks := make(map[timeline.Kind][]*timeline.Track)
	for i, td := range doc.Tracks {
		kind, err := timeline.ParseKind(string(td.Kind))
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		tr := timeline.NewTrack(kind, td.Name, len(tracks[kind]))
		if td.ZOrder != nil {
			tr.ZOrder = *td.ZOrder
		}
		if td.Visible != nil {
			tr.Visible = *td.Visible
		}
		tr.Muted = td.Muted
		if td.Volume != nil {
			if err := tr.SetVolume(*td.Volume); err != nil {
				return nil, fmt.Errorf("track %q: %w", td.Name, err)
			}
		}
		for j, cd := range td.Clips {
			c, err := clipFromDoc(cd)
			if err != nil {
				return nil, fmt.Errorf("track %q clip %d: %w", td.Name, j, err)
			}
			if _, err := tr.Append(c); err != nil {
				return nil, fmt.Errorf("track %q clip %d: %w", td.Name, j, err)
			}
		}
		tracks[kind] = append(tracks[kind], tr)
	}

	for i, tx := range doc.Transitions {
		if tx.Direction == "" {
			tx.Direction = timeline.DirectionNone
		}
		if tx.Easing == "" {
			tx.Easing = timeline.EaseLinear
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("transition %d: %w", i, err)
		}
	}

	return &Specification{
		ID:          id,
		Title:       doc.Title,
		Settings:    doc.Settings,
		Tracks:      tracks,
		Transitions: doc.Transitions,
	}, nil
}

func clipFromDoc(cd ClipDoc) (timeline.Clip, error) {
	timing, err := timeline.NewTiming(cd.Start, cd.Duration, cd.End)
	if err != nil {
		return nil, err
	}

	switch cd.Kind {
	case timeline.ClipImage, timeline.ClipVideo:
		var c *timeline.VisualClip
		if cd.Kind == timeline.ClipImage {
			c, err = timeline.NewImageClip(cd.Source, timing)
		} else {
			c, err = timeline.NewVideoClip(cd.Source, timing)
		}
		if err != nil {
			return nil, err
		}
		if err := visualFromDoc(&c.Visual, cd); err != nil {
			return nil, err
		}
		return c, nil

	case timeline.ClipText:
		c, err := timeline.NewTextClip(cd.Text, timing)
		if err != nil {
			return nil, err
		}
		if err := visualFromDoc(&c.Visual, cd); err != nil {
			return nil, err
		}
		if cd.Font != nil {
			if err := applyFont(c, *cd.Font); err != nil {
				return nil, err
			}
		}
		if cd.Align != "" {
			if err := c.SetAlign(cd.Align); err != nil {
				return nil, err
			}
		}
		return c, nil

	case timeline.ClipAudio:
		c, err := timeline.NewAudioClip(cd.Source, timing)
		if err != nil {
			return nil, err
		}
		if cd.Volume != nil {
			if err := c.SetVolume(*cd.Volume); err != nil {
				return nil, err
			}
		}
		for _, set := range []func() error{
			func() error { return c.SetFadeIn(cd.FadeIn) },
			func() error { return c.SetFadeOut(cd.FadeOut) },
			func() error { return c.SetCrossfade(cd.Crossfade) },
			func() error { return c.SetEnvelope(cd.Envelope) },
		} {
			if err := set(); err != nil {
				return nil, err
			}
		}
		c.AutoCrossfade = cd.AutoCrossfade
		c.Normalize = cd.Normalize
		return c, nil
	}
	return nil, fmt.Errorf("%w: clip kind %q", timeline.ErrUnsupportedVariant, cd.Kind)
}

func visualFromDoc(v *timeline.Visual, cd ClipDoc) error {
	if cd.Width != 0 || cd.Height != 0 {
		if err := v.SetSize(cd.Width, cd.Height); err != nil {
			return err
		}
	}
	if err := v.SetPosition(cd.X, cd.Y); err != nil {
		return err
	}
	if cd.Opacity != nil {
		if err := v.SetOpacity(*cd.Opacity); err != nil {
			return err
		}
	}
	for _, a := range cd.Animations {
		if err := v.AddAnimation(a); err != nil {
			return err
		}
	}
	if cd.In != nil {
		if err := v.SetTransitionIn(*cd.In); err != nil {
			return err
		}
	}
	if cd.Out != nil {
		if err := v.SetTransitionOut(*cd.Out); err != nil {
			return err
		}
	}
	return nil
}

func applyFont(c *timeline.TextClip, f timeline.Font) error {
	if f.Size != 0 {
		if err := c.SetFontSize(f.Size); err != nil {
			return err
		}
	}
	if f.Color != "" {
		if err := c.SetFontColor(f.Color); err != nil {
			return err
		}
	}
	if f.Family != "" {
		if err := c.SetFontFamily(f.Family); err != nil {
			return err
		}
	}
	if f.Weight != "" {
		if err := c.SetFontWeight(f.Weight); err != nil {
			return err
		}
	}
	return nil
}

// Encode writes the specification as YAML.
func (s *Specification) Encode(w io.Writer) error {
	doc, err := s.ToDocument()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// Decode reads a YAML document and rebuilds the specification.
func Decode(r io.Reader) (*Specification, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode specification: %w", err)
	}
	return FromDocument(&doc)
}

// WriteFile encodes the specification to path.
func (s *Specification) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// ReadFile decodes a specification from path.
func ReadFile(path string) (*Specification, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
