package timeline

import "fmt"

// Kind identifies a lane of the timeline. Every track belongs to exactly one kind.
type Kind string

const (
	KindVideo Kind = "video"
	KindMusic Kind = "music"
	KindVoice Kind = "voice"
	KindSFX   Kind = "sfx"
	KindText  Kind = "text"
)

// Kinds lists every lane in canonical order.
var Kinds = []Kind{KindVideo, KindMusic, KindVoice, KindSFX, KindText}

// IsAudio reports whether tracks of this kind hold audio clips.
func (k Kind) IsAudio() bool {
	return k == KindMusic || k == KindVoice || k == KindSFX
}

// IsVisual reports whether tracks of this kind are composited into the frame.
func (k Kind) IsVisual() bool {
	return k == KindVideo || k == KindText
}

// ParseKind converts a lane name into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: track kind %q", ErrUnsupportedVariant, s)
}

// ClipKind identifies the variant of a clip.
type ClipKind string

const (
	ClipImage ClipKind = "image"
	ClipVideo ClipKind = "video"
	ClipText  ClipKind = "text"
	ClipAudio ClipKind = "audio"
)
