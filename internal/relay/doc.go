// Package relay turns bus messages into decoded frame envelopes and fans
// them out to connected listeners.
//
// Ownership boundary:
// - envelope construction from raw hex bus payloads
// - subscriber registry and non-blocking fan-out
// - worker pool for per-message decode
// - websocket stream endpoint
//
// Decode failures are per-message: they are logged, counted and carried in
// the envelope, never fatal to the relay.
package relay
