// Package protocol owns the hex codec primitives.
//
// Ownership boundary:
// - error kinds shared by every codec entry point
// - numeric base conversion (hex/dec/bin) with byte alignment
// - typed scalar decoding of hex fields
//
// Frame scanning lives in the frame subpackage.
package protocol
