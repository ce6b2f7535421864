package relay

import (
	"strings"
	"time"

	"github.com/danmuck/hexrelay/internal/protocol/frame"
	"github.com/google/uuid"
)

const EnvelopeTypeFrame = "frame_message"

// Message is one raw message received from the bus.
type Message struct {
	Topic      string
	Payload    string
	ReceivedAt time.Time
}

// Envelope is what subscribers receive for every bus message.
type Envelope struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Topic     string         `json:"topic"`
	Message   string         `json:"message"`
	Frames    []frame.Packet `json:"frames"`
	Errors    []string       `json:"errors,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEnvelope decodes msg into an envelope. The returned errors are the
// per-frame decode failures also listed in Envelope.Errors.
func NewEnvelope(msg Message) (Envelope, []error) {
	payload := strings.TrimSpace(msg.Payload)
	packets, errs := frame.DecodeStream(strings.ToLower(payload))

	ts := msg.ReceivedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	env := Envelope{
		ID:        uuid.NewString(),
		Type:      EnvelopeTypeFrame,
		Topic:     msg.Topic,
		Message:   payload,
		Frames:    packets,
		Timestamp: ts,
	}
	for _, err := range errs {
		env.Errors = append(env.Errors, err.Error())
	}
	return env, errs
}
