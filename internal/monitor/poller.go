package monitor

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ipwatchd/ipwatchd/internal/clock"
	"github.com/ipwatchd/ipwatchd/internal/network"
)

// PollingMonitor drives adapter observation purely by fetching on a fixed
// interval, diffing against the last known-good snapshot, and debouncing
// bursts of change before emitting them. HybridMonitor does not use it: a
// degraded HybridMonitor keeps polling on its own ticker.
type PollingMonitor struct {
	fetcher         network.AddressFetcher
	clock           clock.Clock
	interval        time.Duration
	debounce        DebouncePolicy
	initialBaseline []*network.AdapterSnapshot
	haveInitial     bool
}

func NewPollingMonitor(f network.AddressFetcher, interval time.Duration) *PollingMonitor {
	return &PollingMonitor{
		fetcher:  f,
		clock:    clock.SystemClock{},
		interval: interval,
		debounce: DefaultDebouncePolicy(),
	}
}

func (m *PollingMonitor) WithClock(c clock.Clock) *PollingMonitor {
	m.clock = c
	return m
}

func (m *PollingMonitor) WithDebounce(p DebouncePolicy) *PollingMonitor {
	m.debounce = p
	return m
}

// WithInitialBaseline seeds the monitor's starting snapshot from a
// previously persisted state load, so a restart diffs against what was
// last known rather than treating every currently-bound address as newly
// added.
func (m *PollingMonitor) WithInitialBaseline(snapshots []*network.AdapterSnapshot) *PollingMonitor {
	m.initialBaseline = snapshots
	m.haveInitial = true
	return m
}

// Run starts the fetch/diff/debounce loop in a goroutine and returns a
// channel of change batches. The channel is closed once ctx is cancelled,
// after flushing any debounce window that was open at the time.
func (m *PollingMonitor) Run(ctx context.Context) <-chan []network.IpChange {
	out := make(chan []network.IpChange)
	go m.run(ctx, out)
	return out
}

func (m *PollingMonitor) run(ctx context.Context, out chan<- []network.IpChange) {
	defer close(out)

	var baseline []*network.AdapterSnapshot
	haveBaseline := false
	if m.haveInitial {
		baseline = m.initialBaseline
		haveBaseline = true
		// Reconcile the persisted baseline against the world as it is right
		// now, rather than waiting for the first tick: a restart after
		// downtime should surface whatever changed while it was down as its
		// first change batch.
		if current, err := m.fetcher.Fetch(); err != nil {
			log.WithError(err).Warn("startup reconciliation fetch failed, keeping persisted baseline")
		} else {
			startupChanges := network.Diff(baseline, current, m.clock.Now())
			baseline = current
			if len(startupChanges) > 0 {
				select {
				case out <- startupChanges:
				case <-ctx.Done():
					return
				}
			}
		}
	} else if snap, err := m.fetcher.Fetch(); err != nil {
		log.WithError(err).Warn("initial adapter fetch failed, will retry on next tick")
	} else {
		baseline = snap
		haveBaseline = true
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var (
		windowOpen     bool
		windowBaseline []*network.AdapterSnapshot
		windowTimer    *time.Timer
		windowTimerC   <-chan time.Time
		latest         []*network.AdapterSnapshot
	)
	stopWindowTimer := func() {
		if windowTimer != nil {
			windowTimer.Stop()
			windowTimer = nil
			windowTimerC = nil
		}
	}
	defer stopWindowTimer()

	finalize := func() {
		changes := network.Diff(windowBaseline, latest, m.clock.Now())
		windowOpen = false
		stopWindowTimer()
		baseline = latest
		if len(changes) > 0 {
			select {
			case out <- changes:
			case <-ctx.Done():
			}
		}
	}

	poll := func() {
		current, err := m.fetcher.Fetch()
		if err != nil {
			log.WithError(err).Warn("adapter fetch failed, skipping this cycle")
			return
		}
		if !haveBaseline {
			baseline = current
			haveBaseline = true
			return
		}

		latest = current
		if windowOpen {
			return // baseline stays fixed; finalize() picks up latest when the window closes
		}

		raw := network.Diff(baseline, current, m.clock.Now())
		if len(raw) == 0 {
			baseline = current
			return
		}

		windowOpen = true
		windowBaseline = baseline
		windowTimer = time.NewTimer(m.debounce.Window)
		windowTimerC = windowTimer.C
	}

	for {
		select {
		case <-ctx.Done():
			// ctx is already done here, so finalize's send would race
			// ctx.Done() and could drop the batch; flush with a plain send.
			if windowOpen {
				if changes := network.Diff(windowBaseline, latest, m.clock.Now()); len(changes) > 0 {
					out <- changes
				}
			}
			return
		case <-ticker.C:
			poll()
		case <-windowTimerC:
			finalize()
		}
	}
}
