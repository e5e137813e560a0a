package timeline

import "errors"

var (
	ErrConflictingTiming  = errors.New("duration and end time are mutually exclusive")
	ErrInvalidTimeRange   = errors.New("invalid time range")
	ErrOutOfRange         = errors.New("value out of range")
	ErrUnsupportedMedia   = errors.New("unsupported media type")
	ErrUnknownEntity      = errors.New("unknown entity")
	ErrUnsupportedVariant = errors.New("unsupported variant")
)
