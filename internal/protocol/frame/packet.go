package frame

import (
	"fmt"

	"github.com/danmuck/hexrelay/internal/protocol"
)

// Packet is a decoded frame.
type Packet struct {
	Raw     string `json:"raw"`
	ID      string `json:"id"`
	IDValue uint32 `json:"id_value"`
	Data    string `json:"data"`
}

// Decode extracts the header fields of frame and parses the identifier.
func Decode(frame string) (Packet, error) {
	seg, err := ExtractHexSegments(frame)
	if err != nil {
		return Packet{}, err
	}
	id, err := protocol.HexTo(protocol.FormatU32, seg.ID, protocol.DecodeOptions{})
	if err != nil {
		return Packet{}, fmt.Errorf("frame id %q: %w", seg.ID, err)
	}
	return Packet{
		Raw:     frame,
		ID:      seg.ID,
		IDValue: uint32(id.Int),
		Data:    seg.Data,
	}, nil
}

// DecodeStream splits input and decodes every frame. A frame that fails to
// decode is reported in errs and does not stop the others.
func DecodeStream(input string) (packets []Packet, errs []error) {
	packets = make([]Packet, 0)
	for _, raw := range SplitPackets(input) {
		p, err := Decode(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		packets = append(packets, p)
	}
	return packets, errs
}
