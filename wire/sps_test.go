package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSPSDimensionsRejectsMissingStartCode(t *testing.T) {
	_, _, ok := ParseSPSDimensions([]byte{0x67, 0x42, 0xc0, 0x1e})
	require.False(t, ok)
}

func TestParseSPSDimensionsRejectsTooShortPayload(t *testing.T) {
	_, _, ok := ParseSPSDimensions([]byte{0x00, 0x00, 0x00, 0x01})
	require.False(t, ok)
}

func TestParseSPSDimensionsRejectsUnparseableNAL(t *testing.T) {
	garbage := []byte{0x00, 0x00, 0x00, 0x01, 0x67, 0xff, 0xff, 0xff, 0xff, 0xff}
	_, _, ok := ParseSPSDimensions(garbage)
	require.False(t, ok)
}
