// Package network holds the platform-independent data model and
// diffing/filtering logic for network adapter address observation.
package network

import (
	"fmt"
	"net"
	"sort"
	"time"
)

// IpVersion selects which address families a consumer cares about.
type IpVersion string

const (
	IpVersionV4   IpVersion = "v4"
	IpVersionV6   IpVersion = "v6"
	IpVersionBoth IpVersion = "both"
)

func (v IpVersion) IncludesV4() bool { return v == IpVersionV4 || v == IpVersionBoth }
func (v IpVersion) IncludesV6() bool { return v == IpVersionV6 || v == IpVersionBoth }

func (v IpVersion) String() string {
	switch v {
	case IpVersionV4, IpVersionV6, IpVersionBoth:
		return string(v)
	default:
		return "unknown"
	}
}

// AdapterKindName distinguishes the broad categories of adapters the
// platform layer can report. AdapterKindOther carries a platform-specific
// code in AdapterKind.Code rather than being an open string, mirroring the
// small closed set plus escape-hatch shape adapters naturally fall into.
type AdapterKindName string

const (
	AdapterKindEthernet AdapterKindName = "ethernet"
	AdapterKindWireless AdapterKindName = "wireless"
	AdapterKindLoopback AdapterKindName = "loopback"
	AdapterKindVirtual  AdapterKindName = "virtual"
	AdapterKindOther    AdapterKindName = "other"
)

// AdapterKind classifies an adapter. Two AdapterKind values are Equal when
// both their Name and (for AdapterKindOther) Code match.
type AdapterKind struct {
	Name AdapterKindName
	Code uint32 // only meaningful when Name == AdapterKindOther
}

func KindEthernet() AdapterKind         { return AdapterKind{Name: AdapterKindEthernet} }
func KindWireless() AdapterKind         { return AdapterKind{Name: AdapterKindWireless} }
func KindLoopback() AdapterKind         { return AdapterKind{Name: AdapterKindLoopback} }
func KindVirtual() AdapterKind          { return AdapterKind{Name: AdapterKindVirtual} }
func KindOther(code uint32) AdapterKind { return AdapterKind{Name: AdapterKindOther, Code: code} }

func (k AdapterKind) Equal(other AdapterKind) bool {
	if k.Name != other.Name {
		return false
	}
	if k.Name == AdapterKindOther {
		return k.Code == other.Code
	}
	return true
}

func (k AdapterKind) IsVirtual() bool  { return k.Name == AdapterKindVirtual }
func (k AdapterKind) IsLoopback() bool { return k.Name == AdapterKindLoopback }

func (k AdapterKind) String() string {
	if k.Name == AdapterKindOther {
		return fmt.Sprintf("other(%d)", k.Code)
	}
	return string(k.Name)
}

// AdapterSnapshot is a point-in-time view of one network adapter and the
// addresses bound to it. Addresses are sets: duplicates collapse, and
// iteration order is not significant to equality but is made deterministic
// by IPv4()/IPv6() for diffing and display.
type AdapterSnapshot struct {
	Name string
	Kind AdapterKind
	v4   map[string]net.IP
	v6   map[string]net.IP
}

func NewAdapterSnapshot(name string, kind AdapterKind) *AdapterSnapshot {
	return &AdapterSnapshot{
		Name: name,
		Kind: kind,
		v4:   make(map[string]net.IP),
		v6:   make(map[string]net.IP),
	}
}

// AddAddress inserts ip into the appropriate family set, inferring the
// family from the IP itself. It is a no-op for nil addresses.
func (s *AdapterSnapshot) AddAddress(ip net.IP) {
	if ip == nil {
		return
	}
	if v4 := ip.To4(); v4 != nil {
		s.v4[v4.String()] = v4
		return
	}
	s.v6[ip.String()] = ip
}

// IPv4 returns the IPv4 addresses bound to this adapter, sorted by text form.
func (s *AdapterSnapshot) IPv4() []net.IP { return sortedValues(s.v4) }

// IPv6 returns the IPv6 addresses bound to this adapter, sorted by text form.
func (s *AdapterSnapshot) IPv6() []net.IP { return sortedValues(s.v6) }

func sortedValues(m map[string]net.IP) []net.IP {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]net.IP, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// HasAddresses reports whether this adapter currently carries any address.
func (s *AdapterSnapshot) HasAddresses() bool { return len(s.v4) > 0 || len(s.v6) > 0 }

// AddressCount returns the total number of bound addresses across both families.
func (s *AdapterSnapshot) AddressCount() int { return len(s.v4) + len(s.v6) }

// IpChangeKind distinguishes an address gain from an address loss.
type IpChangeKind string

const (
	IpChangeAdded   IpChangeKind = "added"
	IpChangeRemoved IpChangeKind = "removed"
)

// IpChange is one observed address-level delta on one adapter.
type IpChange struct {
	Adapter   string
	Address   net.IP
	Timestamp time.Time
	Kind      IpChangeKind
}
