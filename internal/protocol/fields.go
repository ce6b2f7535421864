package protocol

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Format selects how HexTo interprets a hex field.
type Format string

const (
	FormatArray Format = "array"
	FormatASCII Format = "ascii"
	FormatU8    Format = "u8"
	FormatS8    Format = "s8"
	FormatU16   Format = "u16"
	FormatS16   Format = "s16"
	FormatU32   Format = "u32"
	FormatS32   Format = "s32"
)

// ParseFormat maps a format name to a Format.
func ParseFormat(raw string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(raw)))
	switch f {
	case FormatArray, FormatASCII, FormatU8, FormatS8, FormatU16, FormatS16, FormatU32, FormatS32:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// Width returns the byte width of an integer format, or 0 for array/ascii
// and unknown formats.
func (f Format) Width() int {
	switch f {
	case FormatU8, FormatS8:
		return 1
	case FormatU16, FormatS16:
		return 2
	case FormatU32, FormatS32:
		return 4
	default:
		return 0
	}
}

// Signed reports whether f is a signed integer format.
func (f Format) Signed() bool {
	return f == FormatS8 || f == FormatS16 || f == FormatS32
}

// DecodeOptions tunes HexTo. The zero value decodes big endian.
type DecodeOptions struct {
	Endian Endian
}

// Value is one decoded hex field. Exactly one of Int, Bytes or Text is
// meaningful, selected by Format.
type Value struct {
	Format Format
	Int    int64
	Bytes  []byte
	Text   string
}

// Interface returns the decoded value as int64, []byte or string.
func (v Value) Interface() any {
	switch v.Format {
	case FormatArray:
		return v.Bytes
	case FormatASCII:
		return v.Text
	default:
		return v.Int
	}
}

// HexTo decodes hex (optionally 0x-prefixed) as the given format.
//
// Integer formats read their leading bytes most significant first after the
// optional endian reversal of the whole byte sequence; trailing bytes beyond
// the width are ignored.
func HexTo(format Format, hex string, opts DecodeOptions) (Value, error) {
	b, err := hexBytes(hex)
	if err != nil {
		return Value{}, err
	}
	switch opts.Endian {
	case BigEndian:
	case LittleEndian:
		reverseBytes(b)
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrInvalidConfig, opts.Endian)
	}

	switch format {
	case FormatArray:
		return Value{Format: format, Bytes: b}, nil
	case FormatASCII:
		return Value{Format: format, Text: asciiString(b)}, nil
	case FormatU8, FormatS8, FormatU16, FormatS16, FormatU32, FormatS32:
	default:
		return Value{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}

	width := format.Width()
	if len(b) < width {
		return Value{}, fmt.Errorf("%w: %s needs %d bytes, have %d", ErrInsufficientBytes, format, width, len(b))
	}
	var u uint32
	switch width {
	case 1:
		u = uint32(b[0])
	case 2:
		u = uint32(binary.BigEndian.Uint16(b[:2]))
	case 4:
		u = binary.BigEndian.Uint32(b[:4])
	}
	return Value{Format: format, Int: signCorrect(u, width, format.Signed())}, nil
}

// FormatHex renders v as uppercase hex of exactly the format's width. It is
// the inverse of HexTo for integer formats.
func FormatHex(format Format, v int64, opts DecodeOptions) (string, error) {
	width := format.Width()
	if width == 0 {
		return "", fmt.Errorf("%w: %q has no fixed width", ErrUnsupportedFormat, string(format))
	}
	bits := uint(width * 8)
	lo, hi := int64(0), int64(1)<<bits-1
	if format.Signed() {
		lo, hi = -(int64(1) << (bits - 1)), int64(1)<<(bits-1)-1
	}
	if v < lo || v > hi {
		return "", fmt.Errorf("%w: %d out of range for %s", ErrInvalidInput, v, format)
	}

	u := uint64(v) & (uint64(1)<<bits - 1)
	b := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		b[i] = byte(u)
		u >>= 8
	}
	if opts.Endian == LittleEndian {
		reverseBytes(b)
	}
	return fmt.Sprintf("%X", b), nil
}

// signCorrect applies two's-complement correction for signed formats.
func signCorrect(u uint32, width int, signed bool) int64 {
	v := int64(u)
	if !signed {
		return v
	}
	bits := uint(width * 8)
	if v > int64(1)<<(bits-1)-1 {
		v -= int64(1) << bits
	}
	return v
}

// hexBytes parses hex two characters at a time. An odd trailing digit forms a
// byte of its own.
func hexBytes(hex string) ([]byte, error) {
	clean := stripPrefix(hex, "0x")
	if clean == "" {
		return nil, fmt.Errorf("%w: empty hex string %q", ErrInvalidInput, hex)
	}
	out := make([]byte, 0, (len(clean)+1)/2)
	for i := 0; i < len(clean); i += 2 {
		var b byte
		for j := i; j < min(i+2, len(clean)); j++ {
			d := digitValue(clean[j])
			if d >= 16 {
				return nil, fmt.Errorf("%w: invalid hex string %q", ErrInvalidInput, hex)
			}
			b = b<<4 | byte(d)
		}
		out = append(out, b)
	}
	return out, nil
}

// asciiString maps every byte to the code point of the same value.
func asciiString(b []byte) string {
	var s strings.Builder
	s.Grow(len(b))
	for _, c := range b {
		s.WriteRune(rune(c))
	}
	return s.String()
}
