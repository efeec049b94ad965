// Package safego wraps goroutine launches with panic recovery. The auth
// middleware and the audit trail both hand work off the request path
// (sliding session refresh, audit event delivery), and a panic in one of
// those goroutines must not take the server down or vanish silently.
package safego

import "log/slog"

// Go runs fn on its own goroutine and turns a panic in fn into an error log
// instead of a process crash. Use it for every fire-and-forget launch.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("background goroutine panicked", "panic", r)
			}
		}()
		fn()
	}()
}
