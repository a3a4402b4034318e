package monitor

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ipwatchd/ipwatchd/internal/clock"
	"github.com/ipwatchd/ipwatchd/internal/network"
)

// HybridMonitor fuses a push ApiListener with interval polling. While the
// listener is healthy, both an API notification and the poll interval can
// trigger a fetch; an API-triggered fetch opens a debounce window even if
// the fetch happens to show no diff yet, since the notification itself is
// evidence something is changing. On the first listener failure the
// monitor degrades to polling-only, permanently: it never again waits on
// the API channel, matching the one-way nature of the degradation.
type HybridMonitor struct {
	fetcher         network.AddressFetcher
	listener        ApiListener
	clock           clock.Clock
	pollInterval    time.Duration
	debounce        DebouncePolicy
	initialBaseline []*network.AdapterSnapshot
	haveInitial     bool

	pollingOnly atomic.Bool
}

func NewHybridMonitor(f network.AddressFetcher, l ApiListener, pollInterval time.Duration) *HybridMonitor {
	return &HybridMonitor{
		fetcher:      f,
		listener:     l,
		clock:        clock.SystemClock{},
		pollInterval: pollInterval,
		debounce:     DefaultDebouncePolicy(),
	}
}

func (m *HybridMonitor) WithClock(c clock.Clock) *HybridMonitor {
	m.clock = c
	return m
}

func (m *HybridMonitor) WithDebounce(p DebouncePolicy) *HybridMonitor {
	m.debounce = p
	return m
}

// WithInitialBaseline seeds the monitor's starting snapshot from a
// previously persisted state load.
func (m *HybridMonitor) WithInitialBaseline(snapshots []*network.AdapterSnapshot) *HybridMonitor {
	m.initialBaseline = snapshots
	m.haveInitial = true
	return m
}

// IsPollingOnly reports whether the monitor has degraded away from the API
// listener. Safe to call concurrently with Run.
func (m *HybridMonitor) IsPollingOnly() bool { return m.pollingOnly.Load() }

func (m *HybridMonitor) Run(ctx context.Context) <-chan []network.IpChange {
	out := make(chan []network.IpChange)
	go m.run(ctx, out)
	return out
}

func (m *HybridMonitor) run(ctx context.Context, out chan<- []network.IpChange) {
	defer close(out)

	apiCh, err := m.listener.Listen(ctx)
	if err != nil {
		log.WithError(err).Warn("api listener failed to start, degrading to polling-only")
		m.degrade()
		apiCh = nil
	}
	defer m.listener.Close()

	var baseline []*network.AdapterSnapshot
	haveBaseline := false
	if m.haveInitial {
		baseline = m.initialBaseline
		haveBaseline = true
		// Reconcile the persisted baseline against the world as it is right
		// now, rather than waiting for the first trigger: a restart after
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
		log.WithError(err).Warn("initial adapter fetch failed, will retry on next trigger")
	} else {
		baseline = snap
		haveBaseline = true
	}

	ticker := time.NewTicker(m.pollInterval)
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

	openWindow := func() {
		windowOpen = true
		windowBaseline = baseline
		windowTimer = time.NewTimer(m.debounce.Window)
		windowTimerC = windowTimer.C
	}

	trigger := func(triggeredByAPI bool) {
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
			return
		}

		raw := network.Diff(baseline, current, m.clock.Now())
		if len(raw) == 0 && !triggeredByAPI {
			baseline = current
			return
		}
		openWindow()
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

		case n, ok := <-apiCh:
			if !ok {
				// Channel closed with no notification: cooperative stop, not a failure.
				apiCh = nil
				continue
			}
			if n.Err != nil {
				log.WithError(n.Err).Warn("api listener terminated, degrading to polling-only")
				m.degrade()
				apiCh = nil
				continue
			}
			trigger(true)

		case <-ticker.C:
			trigger(false)

		case <-windowTimerC:
			finalize()
		}
	}
}

func (m *HybridMonitor) degrade() {
	m.pollingOnly.Store(true)
}
