package frame

import (
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/hexrelay/internal/protocol"
)

const sampleFrame = "4e531118f219c10100000103011a0a"

func TestSplitPacketsSingleFrame(t *testing.T) {
	got := SplitPackets(sampleFrame)
	if len(got) != 1 || got[0] != sampleFrame {
		t.Fatalf("unexpected frames: %v", got)
	}
}

func TestSplitPacketsEmptyAndNoMarker(t *testing.T) {
	for _, in := range []string{"", "0a0a0a", "deadbeef", "4e5"} {
		got := SplitPackets(in)
		if got == nil || len(got) != 0 {
			t.Fatalf("input %q: expected empty non-nil result, got %v", in, got)
		}
	}
}

func TestSplitPacketsBackToBack(t *testing.T) {
	second := "4e5301020304aabbccddeeff00110a"
	got := SplitPackets(sampleFrame + second)
	if len(got) != 2 || got[0] != sampleFrame || got[1] != second {
		t.Fatalf("unexpected frames: %v", got)
	}
}

func TestSplitPacketsSkipsNoiseBetweenFrames(t *testing.T) {
	got := SplitPackets("ffff" + sampleFrame + "0102" + sampleFrame)
	if len(got) != 2 {
		t.Fatalf("expected 2 frames, got %v", got)
	}
}

func TestSplitPacketsDropsUnterminatedTail(t *testing.T) {
	got := SplitPackets(sampleFrame + "4e531118f219c101")
	if len(got) != 1 || got[0] != sampleFrame {
		t.Fatalf("unexpected frames: %v", got)
	}
}

func TestSplitPacketsStopsAtOddMarker(t *testing.T) {
	// the first marker occurrence sits at offset 1, so nothing is returned
	got := SplitPackets("0" + sampleFrame)
	if len(got) != 0 {
		t.Fatalf("expected no frames, got %v", got)
	}
}

func TestSplitPacketsTerminatorMustBeByteAligned(t *testing.T) {
	// "a0a1" holds "0a" at an odd offset inside the frame, which is not a terminator
	in := "4e53a0a10a"
	got := SplitPackets(in)
	if len(got) != 1 || got[0] != in {
		t.Fatalf("unexpected frames: %v", got)
	}
}

func TestSplitPacketsMarkerInsidePayload(t *testing.T) {
	in := "4e534e5311220a"
	got := SplitPackets(in)
	if len(got) != 1 || got[0] != in {
		t.Fatalf("unexpected frames: %v", got)
	}
}

func TestSplitPacketsIsRestartable(t *testing.T) {
	in := strings.Repeat(sampleFrame, 3)
	a := SplitPackets(in)
	b := SplitPackets(in)
	if len(a) != 3 || len(b) != 3 {
		t.Fatalf("unexpected frame counts: %d %d", len(a), len(b))
	}
}

func TestExtractHexSegments(t *testing.T) {
	seg, err := ExtractHexSegments(sampleFrame)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if seg.ID != "19f21811" {
		t.Fatalf("unexpected id: %q", seg.ID)
	}
	if seg.Data != "c10100000103011a" {
		t.Fatalf("unexpected data: %q", seg.Data)
	}
}

func TestExtractHexSegmentsIgnoresTrailingBytes(t *testing.T) {
	seg, err := ExtractHexSegments(sampleFrame[:MinFrameLen])
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if seg.ID != "19f21811" || seg.Data != "c10100000103011a" {
		t.Fatalf("unexpected segments: %+v", seg)
	}
}

func TestExtractHexSegmentsInvalid(t *testing.T) {
	for _, in := range []string{"4e53", "", "ffff1118f219c10100000103011a0a", sampleFrame[:MinFrameLen-1]} {
		_, err := ExtractHexSegments(in)
		if !errors.Is(err, protocol.ErrInvalidInput) {
			t.Fatalf("input %q: expected ErrInvalidInput, got %v", in, err)
		}
	}
}

func TestDecode(t *testing.T) {
	p, err := Decode(sampleFrame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.IDValue != 0x19f21811 {
		t.Fatalf("unexpected id value: %#x", p.IDValue)
	}
	if p.Raw != sampleFrame || p.Data != "c10100000103011a" {
		t.Fatalf("unexpected packet: %+v", p)
	}
}

func TestDecodeRejectsNonHexID(t *testing.T) {
	_, err := Decode("4e53zzzzzzzzc10100000103011a0a")
	if !errors.Is(err, protocol.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDecodeStreamCollectsFailures(t *testing.T) {
	bad := "4e53zz0a"
	packets, errs := DecodeStream(sampleFrame + bad + sampleFrame)
	if len(packets) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(packets))
	}
	if len(errs) != 1 || !errors.Is(errs[0], protocol.ErrInvalidInput) {
		t.Fatalf("unexpected errors: %v", errs)
	}
}
