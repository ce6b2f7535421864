package protocol

import (
	"fmt"
	"strings"
)

// Endian selects the byte order of a multi-byte value.
type Endian int

const (
	BigEndian Endian = iota
	LittleEndian
)

func (e Endian) String() string {
	switch e {
	case BigEndian:
		return "big"
	case LittleEndian:
		return "little"
	default:
		return fmt.Sprintf("endian(%d)", int(e))
	}
}

// ParseEndian maps "big"/"little" to an Endian. Empty input is big endian.
func ParseEndian(raw string) (Endian, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "big", "be":
		return BigEndian, nil
	case "little", "le":
		return LittleEndian, nil
	default:
		return BigEndian, fmt.Errorf("%w: endian %q", ErrInvalidConfig, raw)
	}
}

// ReverseGroups reverses the order of size-character groups in s without
// touching the characters inside a group. A short leading remainder, if any,
// becomes the last group.
func ReverseGroups(s string, size int) string {
	if size <= 0 || len(s) <= size {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := len(s); i > 0; i -= size {
		b.WriteString(s[max(0, i-size):i])
	}
	return b.String()
}

// ReverseHexBytes reverses the byte order of a hex string (2 characters per byte).
func ReverseHexBytes(s string) string {
	return ReverseGroups(s, 2)
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
