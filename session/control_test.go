package session

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"androidcontrol/wire"
)

func touchFrame(action byte) []byte {
	return []byte{wire.CtrlInjectTouch, action, 0, 0, 0, 0}
}

func TestControlRouterDropsOldestNonEssentialUnderOverflow(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	r := newControlRouter(client, nil, func(error) {})
	// Do not start run(); fill the queue directly to exercise the drop
	// policy deterministically without a live reader draining it.

	for i := 0; i < ControlQueueSize; i++ {
		r.Enqueue(touchFrame(2)) // MOVE, non-essential
	}
	require.Equal(t, ControlQueueSize, len(r.ch))

	// One more enqueue must drop an existing MOVE frame rather than the
	// queue staying stuck or the new frame being silently lost forever.
	r.Enqueue(touchFrame(0)) // DOWN, essential

	require.Equal(t, ControlQueueSize, len(r.ch))

	foundDown := false
	for i := 0; i < len(r.ch); i++ {
		f := <-r.ch
		if f[1] == 0 {
			foundDown = true
		}
		r.ch <- f
	}
	require.True(t, foundDown, "expected the essential DOWN frame to survive the overflow drop")
}

func TestControlRouterNeverDropsEssentialFrames(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	r := newControlRouter(client, nil, func(error) {})

	for i := 0; i < ControlQueueSize; i++ {
		r.Enqueue(touchFrame(0)) // DOWN, essential
	}
	require.Equal(t, ControlQueueSize, len(r.ch))

	// The queue is full of only essential frames; a new frame must be
	// dropped instead of evicting any essential one.
	r.Enqueue(touchFrame(2))

	for i := 0; i < len(r.ch); i++ {
		f := <-r.ch
		require.EqualValues(t, 0, f[1], "an essential frame was evicted")
	}
}

func TestControlRouterRejectsEmptyFrame(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	r := newControlRouter(client, nil, func(error) {})
	r.Enqueue(nil)
	require.Equal(t, 0, len(r.ch))
}

func TestControlRouterWritesEnqueuedFramesInOrder(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	r := newControlRouter(client, nil, func(error) {})
	go r.run()
	defer r.Close()

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 12)
		n, _ := io.ReadFull(server, buf)
		done <- buf[:n]
	}()

	down := touchFrame(0)
	up := touchFrame(1)
	r.Enqueue(down)
	r.Enqueue(up)

	select {
	case got := <-done:
		require.Equal(t, append(append([]byte{}, down...), up...), got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for control frame to be written")
	}
}
