package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJoinWithTimeoutReturnsPromptlyWhenGoroutinesExit(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(5 * time.Millisecond)
	}()

	start := time.Now()
	joinWithTimeout(&wg, time.Second)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestJoinWithTimeoutDoesNotHangPastBound(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1) // never Done(); simulates a goroutine stuck mid-read

	start := time.Now()
	joinWithTimeout(&wg, 20*time.Millisecond)
	elapsed := time.Since(start)
	require.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	require.Less(t, elapsed, 500*time.Millisecond)
}
