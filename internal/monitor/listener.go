// Package monitor drives adapter-address observation over time, fusing an
// optional push notification channel with periodic polling.
package monitor

import (
	"context"
	"errors"
)

// ErrAlreadyListening is returned by Listen when called more than once on
// the same ApiListener instance.
var ErrAlreadyListening = errors.New("monitor: Listen called more than once")

// Notification is sent on an ApiListener's channel to signal that the
// platform observed some change worth re-checking adapters for. Err is
// non-nil only on the terminal notification that precedes the channel
// closing due to failure; the channel may also close with no notification
// at all if Listen's ctx was cancelled cooperatively.
type Notification struct {
	Err error
}

// ApiListener subscribes to a platform-specific push notification source
// (netlink link/address events, route sockets, and so on). It has one-shot
// semantics: Listen may be called at most once per instance, matching the
// single-consumption nature of the underlying OS subscription.
type ApiListener interface {
	// Listen starts the platform subscription and returns a channel that
	// delivers a Notification with nil Err for each observed change. On
	// failure it delivers one final Notification with Err set and closes;
	// on cooperative shutdown via ctx it closes without an error Notification.
	Listen(ctx context.Context) (<-chan Notification, error)
	// Close releases the OS-level registration. Safe to call multiple times
	// and safe to call even if Listen was never called.
	Close() error
}

// ApiError classifies why an ApiListener's subscription ended.
type ApiError struct {
	Stopped bool // true if the platform subscription reported a clean stop
	Cause   error
}

func (e *ApiError) Error() string {
	if e.Stopped {
		return "api listener stopped"
	}
	if e.Cause != nil {
		return "api listener failed: " + e.Cause.Error()
	}
	return "api listener failed"
}

func (e *ApiError) Unwrap() error { return e.Cause }

// MonitorError wraps the two kinds of failure a monitor's drive loop can
// encounter: a fetch failure (recoverable, logged and skipped) or an API
// listener failure (triggers permanent degradation in HybridMonitor).
type MonitorError struct {
	Fetch        error
	ApiListener  error
}

func (e *MonitorError) Error() string {
	if e.Fetch != nil {
		return "fetch failed: " + e.Fetch.Error()
	}
	if e.ApiListener != nil {
		return "api listener failed: " + e.ApiListener.Error()
	}
	return "monitor error"
}
