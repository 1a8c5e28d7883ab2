package adb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDisplayListExtractsIDsAndResolutions(t *testing.T) {
	out := "Display list:\n  --display-id=0 (1080x1920)\n  --display-id=2 (1280x720)\n"

	displays := ParseDisplayList(out)

	require.Len(t, displays, 2)
	require.Equal(t, Display{ID: 0, Resolution: "1080x1920"}, displays[0])
	require.Equal(t, Display{ID: 2, Resolution: "1280x720"}, displays[1])
}

func TestParseDisplayListReturnsEmptyOnNoMatches(t *testing.T) {
	require.Empty(t, ParseDisplayList("no displays here"))
}
