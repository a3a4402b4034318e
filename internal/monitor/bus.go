package monitor

import (
	"sync"

	"github.com/ipwatchd/ipwatchd/internal/network"
	"github.com/ipwatchd/ipwatchd/internal/runtime"
)

// ChangeBus fans a single monitor's change batches out to independent
// consumers — typically the webhook dispatcher and the state-file
// persister — each reading at its own pace without one slow subscriber
// stalling the monitor's drive loop. Built on the same per-subscriber
// queue the network interface service uses to fan interface events out
// to its own subscribers, generalized here from one concrete event type
// to any change-batch producer.
type ChangeBus struct {
	mu               sync.Mutex
	subs             map[int]*runtime.SubQueue[[]network.IpChange]
	nextSubscriberID int
	closed           bool
}

func NewChangeBus() *ChangeBus {
	return &ChangeBus{subs: make(map[int]*runtime.SubQueue[[]network.IpChange])}
}

// Subscribe registers a new consumer and returns its channel plus an
// unsubscribe closure. Unlike the interface service this bus fans out for,
// there is no snapshot to replay on subscribe — a change bus has no
// meaningful "current state", only a stream of deltas — so new
// subscribers simply start receiving live batches.
func (b *ChangeBus) Subscribe() (<-chan []network.IpChange, func()) {
	sub := runtime.NewSubQueue[[]network.IpChange](8)
	sub.SetPaused(false)

	b.mu.Lock()
	id := b.nextSubscriberID
	b.nextSubscriberID++
	b.subs[id] = sub
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		if q, ok := b.subs[id]; ok {
			delete(b.subs, id)
			q.Close()
		}
		b.mu.Unlock()
	}
	return sub.Chan(), unsub
}

// Pump reads every batch from in and publishes it to all subscribers until
// in is closed. Run this in its own goroutine over a monitor's Run output.
func (b *ChangeBus) Pump(in <-chan []network.IpChange) {
	for batch := range in {
		b.publish(batch)
	}
	b.Close()
}

func (b *ChangeBus) publish(batch []network.IpChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		sub.Enqueue(batch)
	}
}

// Close unsubscribes and closes every current subscriber's channel.
func (b *ChangeBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, q := range b.subs {
		q.Close()
		delete(b.subs, id)
	}
}
