package protocol

import "errors"

var (
	ErrInvalidInput      = errors.New("protocol: invalid input")
	ErrInvalidConfig     = errors.New("protocol: invalid config")
	ErrInsufficientBytes = errors.New("protocol: insufficient bytes")
	ErrUnsupportedFormat = errors.New("protocol: unsupported format")
	ErrUnsupportedBase   = errors.New("protocol: unsupported base")
)

// Kind is a stable label for a codec error.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindInvalidConfig     Kind = "invalid_config"
	KindInsufficientBytes Kind = "insufficient_bytes"
	KindUnsupportedFormat Kind = "unsupported_format"
	KindUnsupportedBase   Kind = "unsupported_base"
	KindUnknown           Kind = "unknown"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrInvalidConfig, KindInvalidConfig},
	{ErrInsufficientBytes, KindInsufficientBytes},
	{ErrUnsupportedFormat, KindUnsupportedFormat},
	{ErrUnsupportedBase, KindUnsupportedBase},
}

// KindOf returns the kind of err, or KindUnknown when err carries none of the
// protocol sentinels. A nil error has no kind and returns "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}
