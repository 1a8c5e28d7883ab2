package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"androidcontrol/adb"
)

func TestMagicDPIRoundsBeforeClamping(t *testing.T) {
	// round(1920/600*160) = round(512) = 512, clamped down to 480.
	require.Equal(t, 480, magicDPI(1920, 480))
}

func TestMagicDPINeverRaisesAboveCurrent(t *testing.T) {
	require.Equal(t, 160, magicDPI(600, 160))
	// round(300/600*160) = 80, below currentDPI, so no clamp applied.
	require.Equal(t, 80, magicDPI(300, 160))
}

func TestMagicDPIIgnoresClampWhenCurrentUnset(t *testing.T) {
	require.Equal(t, 512, magicDPI(1920, 0))
}

func TestParseWxH(t *testing.T) {
	w, h, err := parseWxH("1080x1920")
	require.NoError(t, err)
	require.Equal(t, 1080, w)
	require.Equal(t, 1920, h)

	_, _, err = parseWxH("invalid")
	require.Error(t, err)
}

func TestDiffNewDisplayIDFindsDisplayAddedAfterOverlay(t *testing.T) {
	before := []adb.Display{{ID: 0, Resolution: "1080x1920"}}
	after := []adb.Display{{ID: 0, Resolution: "1080x1920"}, {ID: 2, Resolution: "1280x720"}}

	require.Equal(t, 2, diffNewDisplayID(before, after))
}

func TestDiffNewDisplayIDReturnsZeroWhenNoneAdded(t *testing.T) {
	before := []adb.Display{{ID: 0, Resolution: "1080x1920"}}
	after := []adb.Display{{ID: 0, Resolution: "1080x1920"}}

	require.Equal(t, 0, diffNewDisplayID(before, after))
}
