package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterChain_ExcludeWins(t *testing.T) {
	chain := NewFilterChain().
		AddExclude(NewKindFilter(KindLoopback()))

	lo := NewAdapterSnapshot("lo", KindLoopback())
	eth := NewAdapterSnapshot("eth0", KindEthernet())

	assert.False(t, chain.Matches(lo))
	assert.True(t, chain.Matches(eth))
}

func TestFilterChain_IncludesAreOred(t *testing.T) {
	nameFilter, err := NewNameRegexFilter("^eth")
	require.NoError(t, err)

	chain := NewFilterChain().
		AddInclude(NewKindFilter(KindWireless())).
		AddInclude(nameFilter)

	wifi := NewAdapterSnapshot("wlan0", KindWireless())
	eth := NewAdapterSnapshot("eth0", KindEthernet())
	other := NewAdapterSnapshot("usb0", KindVirtual())

	assert.True(t, chain.Matches(wifi))
	assert.True(t, chain.Matches(eth))
	assert.False(t, chain.Matches(other))
}

func TestFilterChain_ExcludeBeatsInclude(t *testing.T) {
	chain := NewFilterChain().
		AddInclude(NewKindFilter(KindEthernet())).
		AddExclude(NewKindFilter(KindEthernet()))

	eth := NewAdapterSnapshot("eth0", KindEthernet())
	assert.False(t, chain.Matches(eth))
}

func TestFilterChain_EmptyIncludesAcceptAll(t *testing.T) {
	chain := NewFilterChain()
	eth := NewAdapterSnapshot("eth0", KindEthernet())
	assert.True(t, chain.Matches(eth))
}

type stubFetcher struct {
	snapshots []*AdapterSnapshot
	err       error
}

func (f *stubFetcher) Fetch() ([]*AdapterSnapshot, error) { return f.snapshots, f.err }

func TestFilteredFetcher(t *testing.T) {
	inner := &stubFetcher{snapshots: []*AdapterSnapshot{
		NewAdapterSnapshot("lo", KindLoopback()),
		NewAdapterSnapshot("eth0", KindEthernet()),
	}}
	chain := NewFilterChain().AddExclude(NewKindFilter(KindLoopback()))
	fetcher := NewFilteredFetcher(inner, chain)

	out, err := fetcher.Fetch()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "eth0", out[0].Name)
}
