package monitor

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipwatchd/ipwatchd/internal/clock"
	"github.com/ipwatchd/ipwatchd/internal/network"
)

type scriptedFetcher struct {
	mu     sync.Mutex
	pages  [][]*network.AdapterSnapshot
	cursor int
}

func newScriptedFetcher(pages ...[]*network.AdapterSnapshot) *scriptedFetcher {
	return &scriptedFetcher{pages: pages}
}

func (f *scriptedFetcher) Fetch() ([]*network.AdapterSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cursor >= len(f.pages) {
		return f.pages[len(f.pages)-1], nil
	}
	p := f.pages[f.cursor]
	f.cursor++
	return p, nil
}

func mkSnap(name, ip string) *network.AdapterSnapshot {
	s := network.NewAdapterSnapshot(name, network.KindEthernet())
	if ip != "" {
		s.AddAddress(net.ParseIP(ip))
	}
	return s
}

func TestPollingMonitor_EmitsDebouncedChange(t *testing.T) {
	fetcher := newScriptedFetcher(
		[]*network.AdapterSnapshot{mkSnap("eth0", "10.0.0.1")},
		[]*network.AdapterSnapshot{mkSnap("eth0", "10.0.0.2")},
	)

	mon := NewPollingMonitor(fetcher, 10*time.Millisecond).
		WithDebounce(DebouncePolicy{Window: 20 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out := mon.Run(ctx)
	select {
	case changes := <-out:
		require.Len(t, changes, 2)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change batch")
	}
	cancel()
}

func TestPollingMonitor_ShutdownFlushesOpenWindow(t *testing.T) {
	fetcher := newScriptedFetcher(
		[]*network.AdapterSnapshot{mkSnap("eth0", "10.0.0.1")},
		[]*network.AdapterSnapshot{mkSnap("eth0", "10.0.0.2")},
	)

	mon := NewPollingMonitor(fetcher, 5*time.Millisecond).
		WithDebounce(DebouncePolicy{Window: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	out := mon.Run(ctx)

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case changes, ok := <-out:
		if ok {
			assert.NotEmpty(t, changes)
		}
	case <-time.After(time.Second):
		t.Fatal("monitor did not shut down")
	}
}

func TestPollingMonitor_WithInitialBaseline_EmitsStartupReconciliationDiff(t *testing.T) {
	fetcher := newScriptedFetcher(
		[]*network.AdapterSnapshot{mkSnap("eth0", "10.0.0.2")},
	)
	loaded := []*network.AdapterSnapshot{mkSnap("eth0", "10.0.0.1")}

	// A poll interval far longer than the test timeout proves the emitted
	// batch comes from the startup reconciliation, not the first tick.
	mon := NewPollingMonitor(fetcher, time.Hour).WithInitialBaseline(loaded)

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

func TestPollingMonitor_NoChangeEmitsNothing(t *testing.T) {
	fetcher := newScriptedFetcher(
		[]*network.AdapterSnapshot{mkSnap("eth0", "10.0.0.1")},
	)
	mon := NewPollingMonitor(fetcher, 5*time.Millisecond).WithClock(clock.SystemClock{})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	out := mon.Run(ctx)
	select {
	case changes := <-out:
		t.Fatalf("unexpected changes emitted: %v", changes)
	case <-ctx.Done():
	}
}
