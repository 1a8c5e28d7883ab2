package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"androidcontrol/models"
)

func TestEncodeDecodeH264ConfigRoundTrip(t *testing.T) {
	buf := EncodeH264Config(0x42, 0xc0, 0x1e)

	tag, ts, payload, ok := DecodeEnvelope(buf)
	require.True(t, ok)
	require.Equal(t, models.EnvelopeH264Config, tag)
	require.Zero(t, ts)
	require.Equal(t, []byte{0x42, 0xc0, 0x1e}, payload)
}

func TestEncodeDecodeTimestampedRoundTrip(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	buf := EncodeTimestamped(models.EnvelopeH264KeyFrame, 123456789, payload)

	tag, ts, got, ok := DecodeEnvelope(buf)
	require.True(t, ok)
	require.Equal(t, models.EnvelopeH264KeyFrame, tag)
	require.EqualValues(t, 123456789, ts)
	require.Equal(t, payload, got)
}

func TestEncodeDecodeAACConfigRoundTrip(t *testing.T) {
	payload := []byte{0x11, 0x90}
	buf := EncodeAACConfig(payload)

	tag, ts, got, ok := DecodeEnvelope(buf)
	require.True(t, ok)
	require.Equal(t, models.EnvelopeAACConfig, tag)
	require.Zero(t, ts)
	require.Equal(t, payload, got)
}

func TestDecodeEnvelopeRejectsEmpty(t *testing.T) {
	_, _, _, ok := DecodeEnvelope(nil)
	require.False(t, ok)
}

func TestDecodeEnvelopeRejectsTruncatedTimestamp(t *testing.T) {
	_, _, _, ok := DecodeEnvelope([]byte{byte(models.EnvelopeH264KeyFrame), 0x01, 0x02})
	require.False(t, ok)
}
