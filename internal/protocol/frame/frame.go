// Package frame scans hex streams for marker/terminator delimited frames and
// splits a frame into its identifier and payload fields.
package frame

import (
	"fmt"
	"strings"

	"github.com/danmuck/hexrelay/internal/protocol"
)

const (
	Marker     = "4e53"
	Terminator = "0a"

	idOffset   = len(Marker)
	idLen      = 8
	dataOffset = idOffset + idLen
	dataLen    = 16

	// MinFrameLen is the shortest frame ExtractHexSegments accepts, in hex characters.
	MinFrameLen = dataOffset + dataLen
)

// Segments are the header fields of one frame.
type Segments struct {
	// ID is the 4-byte identifier with its wire byte order reversed.
	ID string `json:"id"`
	// Data is the 8-byte payload exactly as it appears on the wire.
	Data string `json:"data"`
}

// SplitPackets returns every complete frame in input, in order.
//
// Scanning stops at the first marker found at an odd character offset, and an
// unterminated trailing frame is dropped. Only complete streams should be
// passed in: no state is carried between calls.
func SplitPackets(input string) []string {
	frames := make([]string, 0)
	cursor := 0
	for cursor < len(input) {
		rel := strings.Index(input[cursor:], Marker)
		if rel < 0 {
			break
		}
		start := cursor + rel
		if start%2 != 0 {
			break
		}

		end, ok := findTerminator(input, start+len(Marker))
		if !ok {
			break
		}
		frames = append(frames, input[start:end])
		cursor = end
	}
	return frames
}

// findTerminator scans byte-aligned from offset and returns the index just
// past the terminator.
func findTerminator(input string, offset int) (int, bool) {
	for i := offset; i+len(Terminator) <= len(input); i += 2 {
		if input[i:i+len(Terminator)] == Terminator {
			return i + len(Terminator), true
		}
	}
	return 0, false
}

// ExtractHexSegments splits a frame into its reversed identifier and raw
// payload. Characters past the payload, including the terminator, are ignored.
func ExtractHexSegments(frame string) (Segments, error) {
	if !strings.HasPrefix(frame, Marker) {
		return Segments{}, fmt.Errorf("%w: frame must start with %s", protocol.ErrInvalidInput, Marker)
	}
	if len(frame) < MinFrameLen {
		return Segments{}, fmt.Errorf("%w: frame length %d below %d", protocol.ErrInvalidInput, len(frame), MinFrameLen)
	}
	return Segments{
		ID:   protocol.ReverseHexBytes(frame[idOffset : idOffset+idLen]),
		Data: frame[dataOffset : dataOffset+dataLen],
	}, nil
}
