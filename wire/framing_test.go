package wire

import (
	"testing"
)

func TestFirstNALType(t *testing.T) {
	sps := []byte{0x00, 0x00, 0x00, 0x01, 0x67, 0x42, 0x00, 0x0a}
	idr := []byte{0x00, 0x00, 0x01, 0x65, 0x88, 0x84}

	if nt, ok := FirstNALType(sps); !ok || nt != nalTypeSPS {
		t.Errorf("expected SPS type %d, got %d (ok=%v)", nalTypeSPS, nt, ok)
	}
	if nt, ok := FirstNALType(idr); !ok || nt != nalTypeIDR {
		t.Errorf("expected IDR type %d, got %d (ok=%v)", nalTypeIDR, nt, ok)
	}
	if _, ok := FirstNALType([]byte{0x01, 0x02}); ok {
		t.Errorf("expected no start code to report ok=false")
	}
}

func TestExtractSPSProfile(t *testing.T) {
	sps := []byte{0x00, 0x00, 0x00, 0x01, 0x67, 0x42, 0xc0, 0x1e, 0xf8}
	profile, compat, level, ok := ExtractSPSProfile(sps)
	if !ok {
		t.Fatalf("expected extraction to succeed")
	}
	if profile != 0x42 || compat != 0xc0 || level != 0x1e {
		t.Errorf("got profile=%#x compat=%#x level=%#x", profile, compat, level)
	}

	if _, _, _, ok := ExtractSPSProfile([]byte{0x00, 0x00, 0x01, 0x67}); ok {
		t.Errorf("expected truncated SPS to fail extraction")
	}
}

func TestClassifyVideoUnit(t *testing.T) {
	idrPayload := []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x88}
	deltaPayload := []byte{0x00, 0x00, 0x00, 0x01, 0x01, 0x88}

	if tag, isConfig := ClassifyVideoUnit(Unit{IsConfig: true}); !isConfig || tag != 0x10 {
		t.Errorf("config unit misclassified: tag=%v isConfig=%v", tag, isConfig)
	}
	if tag, isConfig := ClassifyVideoUnit(Unit{Payload: idrPayload}); isConfig || tag != 0x11 {
		t.Errorf("IDR unit misclassified: tag=%v isConfig=%v", tag, isConfig)
	}
	if tag, isConfig := ClassifyVideoUnit(Unit{Payload: deltaPayload}); isConfig || tag != 0x12 {
		t.Errorf("delta unit misclassified: tag=%v isConfig=%v", tag, isConfig)
	}
}

func TestStartCodeLen(t *testing.T) {
	if got := startCodeLen([]byte{0, 0, 0, 1, 0x67}); got != 4 {
		t.Errorf("expected 4-byte start code, got %d", got)
	}
	if got := startCodeLen([]byte{0, 0, 1, 0x67}); got != 3 {
		t.Errorf("expected 3-byte start code, got %d", got)
	}
	if got := startCodeLen([]byte{1, 2, 3, 4}); got != 0 {
		t.Errorf("expected no start code, got %d", got)
	}
	if got := startCodeLen(nil); got != 0 {
		t.Errorf("expected no start code on empty buf, got %d", got)
	}
}
