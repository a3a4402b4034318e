package monitor

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipwatchd/ipwatchd/internal/network"
)

func TestChangeBus_FansOutToMultipleSubscribers(t *testing.T) {
	bus := NewChangeBus()
	ch1, unsub1 := bus.Subscribe()
	defer unsub1()
	ch2, unsub2 := bus.Subscribe()
	defer unsub2()

	batch := []network.IpChange{{Adapter: "eth0", Address: net.ParseIP("10.0.0.1"), Timestamp: time.Now(), Kind: network.IpChangeAdded}}

	in := make(chan []network.IpChange, 1)
	in <- batch
	close(in)
	bus.Pump(in)

	select {
	case got := <-ch1:
		assert.Equal(t, batch, got)
	case <-time.After(time.Second):
		t.Fatal("subscriber 1 never received batch")
	}
	select {
	case got := <-ch2:
		assert.Equal(t, batch, got)
	case <-time.After(time.Second):
		t.Fatal("subscriber 2 never received batch")
	}
}

func TestChangeBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewChangeBus()
	ch, unsub := bus.Subscribe()
	unsub()

	_, ok := <-ch
	require.False(t, ok)
}
