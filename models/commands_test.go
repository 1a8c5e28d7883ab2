package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewResponseAppendsSuffixExactlyOnce(t *testing.T) {
	resp := NewResponse("setOverlay", "cmd-1", true)
	require.Equal(t, "setOverlayResponse", resp.Type)
	require.Equal(t, "cmd-1", resp.CommandID)
	require.True(t, resp.Success)
}

func TestParseEnvelopeExtractsRoutingHeader(t *testing.T) {
	raw := []byte(`{"action":"volume","commandId":"abc123","deviceId":"device_1","value":50}`)

	env, err := ParseEnvelope(raw)
	require.NoError(t, err)
	require.Equal(t, ActionVolume, env.Action)
	require.Equal(t, "abc123", env.CommandID)
	require.Equal(t, "device_1", env.DeviceID)
}

func TestParseEnvelopeRejectsMalformedJSON(t *testing.T) {
	_, err := ParseEnvelope([]byte(`{not json`))
	require.Error(t, err)
}
