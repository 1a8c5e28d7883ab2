package gateway

import (
	"testing"

	"github.com/stretchr/testify/require"

	"androidcontrol/models"
)

func deltaFrame(n byte) []byte {
	return []byte{byte(models.EnvelopeH264Delta), 0, 0, 0, 0, 0, 0, 0, n}
}

func keyFrame() []byte {
	return []byte{byte(models.EnvelopeH264KeyFrame), 0, 0, 0, 0, 0, 0, 0, 1}
}

func jsonFrame() []byte {
	return []byte(`{"type":"status"}`)
}

func newTestClient() *Client {
	return &Client{id: "client-1", send: make(chan []byte, sendQueue)}
}

func TestTrySendDropsOldestDeltaFrameUnderOverflow(t *testing.T) {
	c := newTestClient()
	for i := 0; i < sendQueue; i++ {
		c.trySend(deltaFrame(byte(i)))
	}
	require.Equal(t, sendQueue, len(c.send))

	c.trySend(deltaFrame(255))
	require.Equal(t, sendQueue, len(c.send))

	foundNewest := false
	for i := 0; i < len(c.send); i++ {
		f := <-c.send
		if f[8] == 255 {
			foundNewest = true
		}
		c.send <- f
	}
	require.True(t, foundNewest, "expected the newly enqueued delta frame to survive the overflow drop")
}

func TestTrySendNeverDropsKeyFramesOrJSON(t *testing.T) {
	c := newTestClient()
	for i := 0; i < sendQueue; i++ {
		if i%2 == 0 {
			c.trySend(keyFrame())
		} else {
			c.trySend(jsonFrame())
		}
	}
	require.Equal(t, sendQueue, len(c.send))

	// Queue is saturated with only essential frames; one more essential
	// frame must be dropped rather than evicting an already-queued one.
	c.trySend(jsonFrame())
	require.Equal(t, sendQueue, len(c.send))

	for i := 0; i < len(c.send); i++ {
		f := <-c.send
		require.True(t, isEssentialFrame(f))
		c.send <- f
	}
}

func TestTrySendEvictsDeltaFrameEvenWhenNewFrameIsEssential(t *testing.T) {
	c := newTestClient()
	for i := 0; i < sendQueue-1; i++ {
		c.trySend(keyFrame())
	}
	c.trySend(deltaFrame(1))
	require.Equal(t, sendQueue, len(c.send))

	c.trySend(jsonFrame())
	require.Equal(t, sendQueue, len(c.send))

	sawDelta := false
	for i := 0; i < len(c.send); i++ {
		f := <-c.send
		if !isEssentialFrame(f) {
			sawDelta = true
		}
		c.send <- f
	}
	require.False(t, sawDelta, "expected the delta frame to be evicted to make room for the essential JSON frame")
}

func TestIsEssentialFrameClassifiesEnvelopeTags(t *testing.T) {
	require.True(t, isEssentialFrame(jsonFrame()))
	require.True(t, isEssentialFrame(keyFrame()))
	require.True(t, isEssentialFrame([]byte{byte(models.EnvelopeH264Config)}))
	require.True(t, isEssentialFrame([]byte{byte(models.EnvelopeAACConfig)}))
	require.False(t, isEssentialFrame(deltaFrame(0)))
	require.False(t, isEssentialFrame([]byte{byte(models.EnvelopeAACFrame)}))
	require.False(t, isEssentialFrame(nil))
}
