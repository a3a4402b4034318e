package network

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(name string, ips ...string) *AdapterSnapshot {
	s := NewAdapterSnapshot(name, KindEthernet())
	for _, ip := range ips {
		s.AddAddress(net.ParseIP(ip))
	}
	return s
}

func TestDiff_AddedAndRemoved(t *testing.T) {
	ts := time.Now()
	old := []*AdapterSnapshot{snap("eth0", "10.0.0.1")}
	new := []*AdapterSnapshot{snap("eth0", "10.0.0.2")}

	changes := Diff(old, new, ts)
	require.Len(t, changes, 2)
	assert.Equal(t, IpChangeRemoved, changes[0].Kind)
	assert.Equal(t, "10.0.0.1", changes[0].Address.String())
	assert.Equal(t, IpChangeAdded, changes[1].Kind)
	assert.Equal(t, "10.0.0.2", changes[1].Address.String())
}

func TestDiff_NoChange(t *testing.T) {
	ts := time.Now()
	old := []*AdapterSnapshot{snap("eth0", "10.0.0.1")}
	new := []*AdapterSnapshot{snap("eth0", "10.0.0.1")}
	assert.Empty(t, Diff(old, new, ts))
}

func TestDiff_NewAdapterAppearing(t *testing.T) {
	ts := time.Now()
	old := []*AdapterSnapshot{}
	new := []*AdapterSnapshot{snap("eth1", "192.168.1.5")}

	changes := Diff(old, new, ts)
	require.Len(t, changes, 1)
	assert.Equal(t, IpChangeAdded, changes[0].Kind)
	assert.Equal(t, "eth1", changes[0].Adapter)
}

func TestDiff_AdapterDisappearing(t *testing.T) {
	ts := time.Now()
	old := []*AdapterSnapshot{snap("eth1", "192.168.1.5")}
	new := []*AdapterSnapshot{}

	changes := Diff(old, new, ts)
	require.Len(t, changes, 1)
	assert.Equal(t, IpChangeRemoved, changes[0].Kind)
}

func TestDiff_DeterministicOrdering(t *testing.T) {
	ts := time.Now()
	old := []*AdapterSnapshot{}
	new := []*AdapterSnapshot{
		snap("eth1", "10.0.0.2", "10.0.0.1"),
		snap("eth0", "10.0.0.3"),
	}

	changes := Diff(old, new, ts)
	require.Len(t, changes, 3)
	// eth0 before eth1 (name ascending), addresses sorted within adapter.
	assert.Equal(t, "eth0", changes[0].Adapter)
	assert.Equal(t, "eth1", changes[1].Adapter)
	assert.Equal(t, "eth1", changes[2].Adapter)
	assert.Equal(t, "10.0.0.1", changes[1].Address.String())
	assert.Equal(t, "10.0.0.2", changes[2].Address.String())
}

func TestDiff_AntiSymmetric(t *testing.T) {
	ts := time.Now()
	a := []*AdapterSnapshot{snap("eth0", "10.0.0.1")}
	b := []*AdapterSnapshot{snap("eth0", "10.0.0.2")}

	forward := Diff(a, b, ts)
	backward := Diff(b, a, ts)
	require.Len(t, forward, 2)
	require.Len(t, backward, 2)

	for _, c := range forward {
		var opposite IpChangeKind
		if c.Kind == IpChangeAdded {
			opposite = IpChangeRemoved
		} else {
			opposite = IpChangeAdded
		}
		found := false
		for _, b := range backward {
			if b.Address.Equal(c.Address) && b.Kind == opposite {
				found = true
			}
		}
		assert.True(t, found, "expected reversed change for %v", c)
	}
}

func TestDiff_PartitionIsAddedOrRemoved(t *testing.T) {
	ts := time.Now()
	old := []*AdapterSnapshot{snap("eth0", "10.0.0.1", "10.0.0.2")}
	new := []*AdapterSnapshot{snap("eth0", "10.0.0.2", "10.0.0.3")}

	changes := Diff(old, new, ts)
	for _, c := range changes {
		assert.True(t, c.Kind == IpChangeAdded || c.Kind == IpChangeRemoved)
	}
	// 10.0.0.1 removed, 10.0.0.3 added, 10.0.0.2 untouched.
	assert.Len(t, changes, 2)
}

func TestDiff_MergesDuplicateAdapterNamesBeforeDiffing(t *testing.T) {
	ts := time.Now()
	// Two snapshots reported under the same name in one fetch; their
	// addresses must be unioned, not last-write-wins, before diffing.
	old := []*AdapterSnapshot{
		snap("eth0", "10.0.0.1"),
		snap("eth0", "10.0.0.2"),
	}
	new := []*AdapterSnapshot{
		snap("eth0", "10.0.0.2"),
	}

	changes := Diff(old, new, ts)
	require.Len(t, changes, 1)
	assert.Equal(t, IpChangeRemoved, changes[0].Kind)
	assert.Equal(t, "10.0.0.1", changes[0].Address.String())
}

func TestFilterByVersion(t *testing.T) {
	ts := time.Now()
	changes := []IpChange{
		{Adapter: "eth0", Address: net.ParseIP("10.0.0.1"), Timestamp: ts, Kind: IpChangeAdded},
		{Adapter: "eth0", Address: net.ParseIP("fe80::1"), Timestamp: ts, Kind: IpChangeAdded},
	}

	v4only := FilterByVersion(changes, IpVersionV4)
	require.Len(t, v4only, 1)
	assert.Equal(t, "10.0.0.1", v4only[0].Address.String())

	v6only := FilterByVersion(changes, IpVersionV6)
	require.Len(t, v6only, 1)

	both := FilterByVersion(changes, IpVersionBoth)
	assert.Len(t, both, 2)
}
