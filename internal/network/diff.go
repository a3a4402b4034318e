package network

import (
	"net"
	"sort"
	"time"
)

// Diff computes the address-level deltas between two sets of adapter
// snapshots, stamped with ts. Adapters present in new but absent from old
// are treated as having had no addresses before; adapters present in old
// but absent from new are treated as having lost every address they had.
//
// Output order is deterministic: adapters are visited in ascending name
// order, and for each adapter every Removed change precedes every Added
// change, with addresses inside each group ordered by their text form.
// This ordering is not load-bearing for correctness elsewhere in the
// system, only for reproducible tests and logs.
func Diff(old, new []*AdapterSnapshot, ts time.Time) []IpChange {
	oldByName := mergeByName(old)
	newByName := mergeByName(new)

	names := make(map[string]struct{}, len(oldByName)+len(newByName))
	for name := range oldByName {
		names[name] = struct{}{}
	}
	for name := range newByName {
		names[name] = struct{}{}
	}
	sortedNames := make([]string, 0, len(names))
	for name := range names {
		sortedNames = append(sortedNames, name)
	}
	sort.Strings(sortedNames)

	var changes []IpChange
	for _, name := range sortedNames {
		changes = append(changes, diffAdapter(name, oldByName[name], newByName[name], ts)...)
	}
	return changes
}

// mergeByName collapses snapshots that share a name into one, unioning their
// addresses, so a platform fetcher that reports the same adapter twice in
// one call doesn't silently lose the earlier entry's addresses when the map
// is built.
func mergeByName(list []*AdapterSnapshot) map[string]*AdapterSnapshot {
	out := make(map[string]*AdapterSnapshot, len(list))
	for _, s := range list {
		merged, ok := out[s.Name]
		if !ok {
			merged = NewAdapterSnapshot(s.Name, s.Kind)
			out[s.Name] = merged
		}
		for _, ip := range s.IPv4() {
			merged.AddAddress(ip)
		}
		for _, ip := range s.IPv6() {
			merged.AddAddress(ip)
		}
	}
	return out
}

func diffAdapter(name string, before, after *AdapterSnapshot, ts time.Time) []IpChange {
	beforeAddrs := addressSet(before)
	afterAddrs := addressSet(after)

	var removed, added []net.IP
	for addr := range beforeAddrs {
		if _, ok := afterAddrs[addr]; !ok {
			removed = append(removed, beforeAddrs[addr])
		}
	}
	for addr := range afterAddrs {
		if _, ok := beforeAddrs[addr]; !ok {
			added = append(added, afterAddrs[addr])
		}
	}
	sortIPs(removed)
	sortIPs(added)

	changes := make([]IpChange, 0, len(removed)+len(added))
	for _, ip := range removed {
		changes = append(changes, IpChange{Adapter: name, Address: ip, Timestamp: ts, Kind: IpChangeRemoved})
	}
	for _, ip := range added {
		changes = append(changes, IpChange{Adapter: name, Address: ip, Timestamp: ts, Kind: IpChangeAdded})
	}
	return changes
}

func addressSet(s *AdapterSnapshot) map[string]net.IP {
	out := make(map[string]net.IP)
	if s == nil {
		return out
	}
	for _, ip := range s.IPv4() {
		out[ip.String()] = ip
	}
	for _, ip := range s.IPv6() {
		out[ip.String()] = ip
	}
	return out
}

func sortIPs(ips []net.IP) {
	sort.Slice(ips, func(i, j int) bool { return ips[i].String() < ips[j].String() })
}

// FilterByVersion keeps only the changes whose address matches v.
func FilterByVersion(changes []IpChange, v IpVersion) []IpChange {
	out := make([]IpChange, 0, len(changes))
	for _, c := range changes {
		isV4 := c.Address.To4() != nil
		if isV4 && v.IncludesV4() {
			out = append(out, c)
		} else if !isV4 && v.IncludesV6() {
			out = append(out, c)
		}
	}
	return out
}
