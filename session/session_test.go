package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"androidcontrol/models"
)

func TestSessionStateTransitions(t *testing.T) {
	s := newSession("scid1", "device1", "serial1", "client1", models.ServerOptions{}, models.DisplayDefault, ServerPortBase, nil, func() {})

	require.Equal(t, models.StateProvisioning, s.State())

	s.setState(models.StatePushing)
	require.Equal(t, models.StatePushing, s.State())

	s.setState(models.StateRunning)
	require.Equal(t, models.StateRunning, s.State())
}

func TestSessionSetStateFoldsFailedIntoDraining(t *testing.T) {
	s := newSession("scid2", "device1", "serial1", "client1", models.ServerOptions{}, models.DisplayDefault, ServerPortBase, nil, func() {})

	s.setState(models.StateFailed)
	require.Equal(t, models.StateDraining, s.State())
}

func TestBeginDrainingIsIdempotent(t *testing.T) {
	s := newSession("scid3", "device1", "serial1", "client1", models.ServerOptions{}, models.DisplayDefault, ServerPortBase, nil, func() {})

	s.beginDraining()
	require.Equal(t, models.StateDraining, s.State())

	// A second call must not panic on the already-closed drainSignal
	// channel; beginDraining is called from multiple goroutines
	// (pump error, control error, owner disconnect) concurrently.
	require.NotPanics(t, func() { s.beginDraining() })
}
