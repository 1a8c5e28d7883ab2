package commandhub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientStatesGetLazilyCreates(t *testing.T) {
	c := newClientStates()
	st := c.get("client-1")
	require.NotNil(t, st)
	require.Same(t, st, c.get("client-1"))
}

func TestClientStatesCleanupCancelsRunningProcesses(t *testing.T) {
	c := newClientStates()
	st := c.get("client-1")

	shellCancelled := false
	diagCancelled := false
	harCancelled := false
	st.shellCancel = func() { shellCancelled = true }
	st.diagCancel = func() { diagCancelled = true }
	st.harCancel = func() { harCancelled = true }

	c.cleanup("client-1")

	require.True(t, shellCancelled)
	require.True(t, diagCancelled)
	require.True(t, harCancelled)

	_, stillTracked := c.byID["client-1"]
	require.False(t, stillTracked)
}

func TestClientStatesCleanupOfUnknownClientIsNoop(t *testing.T) {
	c := newClientStates()
	require.NotPanics(t, func() { c.cleanup("never-seen") })
}
