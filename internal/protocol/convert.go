package protocol

import (
	"fmt"
	"math/big"
	"strings"
)

// Base is the textual numeral base of a value.
type Base string

const (
	BaseHex Base = "hex"
	BaseDec Base = "dec"
	BaseBin Base = "bin"
)

// DefaultBytePadding is the bit width of one byte group in binary output.
const DefaultBytePadding = 8

// ParseBase maps "hex"/"dec"/"bin" to a Base.
func ParseBase(raw string) (Base, error) {
	b := Base(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := b.radix(); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBase, raw)
	}
	return b, nil
}

func (b Base) radix() (int, bool) {
	switch b {
	case BaseHex:
		return 16, true
	case BaseDec:
		return 10, true
	case BaseBin:
		return 2, true
	default:
		return 0, false
	}
}

// ConvertOptions tunes ConvertBase. The zero value is big endian with
// 8-bit byte padding.
type ConvertOptions struct {
	Endian      Endian
	BytePadding int
}

func (o ConvertOptions) withDefaults() ConvertOptions {
	if o.BytePadding == 0 {
		o.BytePadding = DefaultBytePadding
	}
	return o
}

func (o ConvertOptions) validate() error {
	if o.BytePadding <= 0 || o.BytePadding%8 != 0 {
		return fmt.Errorf("%w: byte padding %d is not a positive multiple of 8", ErrInvalidConfig, o.BytePadding)
	}
	if o.Endian != BigEndian && o.Endian != LittleEndian {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, o.Endian)
	}
	return nil
}

// ConvertBase re-renders value from the source base into the target base.
//
// Hex output is uppercase, padded to whole bytes and prefixed 0x. Binary
// output is padded to a multiple of BytePadding bits and prefixed 0b. With
// LittleEndian the byte groups of hex/bin output are reversed.
//
// Decimal output is not a plain re-rendering: the value is laid out as
// byte-aligned hex, byte-reversed when LittleEndian, and that layout is read
// back as a number. Little endian decimal output therefore reinterprets the
// bytes (0x1234 -> "13330") rather than printing the same magnitude.
func ConvertBase(value string, source, target Base, opts ConvertOptions) (string, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return "", err
	}
	n, err := parseNumeral(value, source)
	if err != nil {
		return "", err
	}

	switch target {
	case BaseHex:
		s := alignedHex(n)
		if opts.Endian == LittleEndian {
			s = ReverseHexBytes(s)
		}
		return "0x" + s, nil
	case BaseBin:
		s := n.Text(2)
		if pad := opts.BytePadding - len(s)%opts.BytePadding; pad < opts.BytePadding {
			s = strings.Repeat("0", pad) + s
		}
		if opts.Endian == LittleEndian {
			s = ReverseGroups(s, opts.BytePadding)
		}
		return "0b" + s, nil
	case BaseDec:
		s := alignedHex(n)
		if opts.Endian == LittleEndian {
			s = ReverseHexBytes(s)
		}
		out, ok := new(big.Int).SetString(s, 16)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrInvalidInput, s)
		}
		return out.Text(10), nil
	default:
		return "", fmt.Errorf("%w: target %q", ErrUnsupportedBase, string(target))
	}
}

func parseNumeral(value string, base Base) (*big.Int, error) {
	radix, ok := base.radix()
	if !ok {
		return nil, fmt.Errorf("%w: source %q", ErrUnsupportedBase, string(base))
	}
	clean := stripPrefix(value, "0x", "0b")
	if clean == "" {
		return nil, fmt.Errorf("%w: empty %s value %q", ErrInvalidInput, base, value)
	}
	for i := 0; i < len(clean); i++ {
		if digitValue(clean[i]) >= radix {
			return nil, fmt.Errorf("%w: invalid %s value %q", ErrInvalidInput, base, value)
		}
	}
	n, ok := new(big.Int).SetString(clean, radix)
	if !ok {
		return nil, fmt.Errorf("%w: invalid %s value %q", ErrInvalidInput, base, value)
	}
	return n, nil
}

func alignedHex(n *big.Int) string {
	s := strings.ToUpper(n.Text(16))
	if len(s)%2 != 0 {
		s = "0" + s
	}
	return s
}

// stripPrefix removes the first matching prefix, ignoring case.
func stripPrefix(s string, prefixes ...string) string {
	for _, p := range prefixes {
		if len(s) >= len(p) && strings.EqualFold(s[:len(p)], p) {
			return s[len(p):]
		}
	}
	return s
}

// digitValue returns the numeric value of a digit character, or 99 for a
// character that is a digit in no supported base.
func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return 99
	}
}
