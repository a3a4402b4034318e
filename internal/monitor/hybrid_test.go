package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipwatchd/ipwatchd/internal/network"
)

type stubListener struct {
	ch     chan Notification
	closed bool
}

func newStubListener() *stubListener {
	return &stubListener{ch: make(chan Notification, 4)}
}

func (l *stubListener) Listen(ctx context.Context) (<-chan Notification, error) {
	return l.ch, nil
}

func (l *stubListener) Close() error {
	if !l.closed {
		l.closed = true
		close(l.ch)
	}
	return nil
}

func TestHybridMonitor_ApiTriggerOpensWindowEvenWithoutDiff(t *testing.T) {
	fetcher := newScriptedFetcher(
		[]*network.AdapterSnapshot{mkSnap("eth0", "10.0.0.1")},
	)
	listener := newStubListener()

	mon := NewHybridMonitor(fetcher, listener, time.Hour).
		WithDebounce(DebouncePolicy{Window: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out := mon.Run(ctx)
	time.Sleep(10 * time.Millisecond) // let baseline fetch complete
	listener.ch <- Notification{}

	select {
	case <-out:
		// window opened and closed with no diff: channel would only receive
		// non-empty batches, so reaching here would be a bug. Guard below.
		t.Fatal("expected no emission: baseline fetch never changed")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHybridMonitor_WithInitialBaseline_EmitsStartupReconciliationDiff(t *testing.T) {
	fetcher := newScriptedFetcher(
		[]*network.AdapterSnapshot{mkSnap("eth0", "10.0.0.2")},
	)
	loaded := []*network.AdapterSnapshot{mkSnap("eth0", "10.0.0.1")}
	listener := newStubListener()

	// A poll interval far longer than the test timeout proves the emitted
	// batch comes from the startup reconciliation, not the first tick.
	mon := NewHybridMonitor(fetcher, listener, time.Hour).WithInitialBaseline(loaded)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out := mon.Run(ctx)
	select {
	case changes := <-out:
		require.Len(t, changes, 2)
		assert.Equal(t, network.IpChangeRemoved, changes[0].Kind)
		assert.Equal(t, "10.0.0.1", changes[0].Address.String())
		assert.Equal(t, network.IpChangeAdded, changes[1].Kind)
		assert.Equal(t, "10.0.0.2", changes[1].Address.String())
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for startup reconciliation batch")
	}
}

func TestHybridMonitor_DegradesPermanentlyOnListenerFailure(t *testing.T) {
	fetcher := newScriptedFetcher(
		[]*network.AdapterSnapshot{mkSnap("eth0", "10.0.0.1")},
	)
	listener := newStubListener()

	mon := NewHybridMonitor(fetcher, listener, 10*time.Millisecond).
		WithDebounce(DebouncePolicy{Window: 5 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	out := mon.Run(ctx)
	require.False(t, mon.IsPollingOnly())

	listener.ch <- Notification{Err: &ApiError{Cause: assertErr}}
	time.Sleep(30 * time.Millisecond)
	assert.True(t, mon.IsPollingOnly())

	// A second notification must never be observed again: the channel is
	// nilled out internally, so sending more would just buffer unread.
	cancel()
	<-out
}

var assertErr = context.DeadlineExceeded
