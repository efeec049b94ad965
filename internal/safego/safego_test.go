package safego

import (
	"testing"
	"time"
)

// waitOrFail blocks until done closes or the deadline passes.
func waitOrFail(t *testing.T, done <-chan struct{}, msg string) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error(msg)
	}
}

func TestGo_RunsFunction(t *testing.T) {
	done := make(chan struct{})

	Go(func() {
		close(done)
	})

	waitOrFail(t, done, "goroutine never ran")
}

func TestGo_RecoversPanic(t *testing.T) {
	done := make(chan struct{})

	// A panic here must be recovered, not crash the test binary.
	Go(func() {
		defer close(done)
		panic("boom")
	})

	waitOrFail(t, done, "goroutine did not finish after panicking")
}
