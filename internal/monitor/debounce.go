package monitor

import (
	"time"

	"github.com/ipwatchd/ipwatchd/internal/network"
)

// DebouncePolicy controls how long a monitor waits after the first raw
// change in a burst before it finalizes and emits the net-effect changes
// for that burst.
type DebouncePolicy struct {
	Window time.Duration
}

// DefaultDebouncePolicy returns the 2 second debounce window used unless a
// caller overrides it.
func DefaultDebouncePolicy() DebouncePolicy {
	return DebouncePolicy{Window: 2 * time.Second}
}

type changeKey struct {
	adapter string
	address string
}

// MergeChanges collapses a flat list of IpChange events into their net
// effect per (adapter, address) pair: an address that was both added and
// removed an odd number of times nets to whichever happened last in
// aggregate count, and a pair that nets to zero produces nothing. This is
// provided as a standalone utility for callers holding a flat change log
// (e.g. one read back from a persisted history) rather than snapshots;
// the monitors in this package use a baseline-snapshot diff internally,
// which is equivalent but avoids building the intermediate counter map.
func MergeChanges(changes []network.IpChange, ts time.Time) []network.IpChange {
	type entry struct {
		net   int
		latest network.IpChange
	}
	counts := make(map[changeKey]*entry)
	order := make([]changeKey, 0)

	for _, c := range changes {
		key := changeKey{adapter: c.Adapter, address: c.Address.String()}
		e, ok := counts[key]
		if !ok {
			e = &entry{}
			counts[key] = e
			order = append(order, key)
		}
		switch c.Kind {
		case network.IpChangeAdded:
			e.net++
		case network.IpChangeRemoved:
			e.net--
		}
		e.latest = c
	}

	var out []network.IpChange
	for _, key := range order {
		e := counts[key]
		switch {
		case e.net > 0:
			out = append(out, network.IpChange{
				Adapter: e.latest.Adapter, Address: e.latest.Address,
				Timestamp: ts, Kind: network.IpChangeAdded,
			})
		case e.net < 0:
			out = append(out, network.IpChange{
				Adapter: e.latest.Adapter, Address: e.latest.Address,
				Timestamp: ts, Kind: network.IpChangeRemoved,
			})
		}
	}
	return out
}
