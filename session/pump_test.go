package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseConfigDimsReturnsZeroOnUnparseableSPS(t *testing.T) {
	w, h := parseConfigDims([]byte{0x01, 0x02})
	require.Equal(t, 0, w)
	require.Equal(t, 0, h)
}
