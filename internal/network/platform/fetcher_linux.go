//go:build linux

// Package platform provides the concrete, OS-specific AddressFetcher and
// ApiListener implementations. Only Linux is implemented; other platforms
// are out of scope here and left to the abstract contracts in
// internal/network and internal/monitor.
package platform

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vishvananda/netlink"

	"github.com/ipwatchd/ipwatchd/internal/network"
)

// LinuxFetcher enumerates adapters via netlink for kind classification and
// the standard library's net package for address enumeration, grounded on
// the link-flag and IP-family checks used throughout the teacher's netlink
// watcher.
type LinuxFetcher struct{}

func NewLinuxFetcher() *LinuxFetcher { return &LinuxFetcher{} }

func (f *LinuxFetcher) Fetch() ([]*network.AdapterSnapshot, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, &network.ErrPlatform{Message: "netlink.LinkList", Cause: err}
	}

	snapshots := make([]*network.AdapterSnapshot, 0, len(links))
	for _, link := range links {
		attrs := link.Attrs()
		snap := network.NewAdapterSnapshot(attrs.Name, classifyLink(link))

		iface, err := net.InterfaceByName(attrs.Name)
		if err != nil {
			snapshots = append(snapshots, snap)
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			snapshots = append(snapshots, snap)
			continue
		}
		for _, addr := range addrs {
			if ipNet, ok := addr.(*net.IPNet); ok {
				snap.AddAddress(ipNet.IP)
			}
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

func classifyLink(link netlink.Link) network.AdapterKind {
	attrs := link.Attrs()
	switch link.Type() {
	case "device":
		if attrs.Name == "lo" {
			return network.KindLoopback()
		}
		return network.KindEthernet()
	case "bridge", "veth", "tun", "tap", "dummy", "vlan":
		return network.KindVirtual()
	case "wireless":
		return network.KindWireless()
	default:
		if attrs.Name == "lo" {
			return network.KindLoopback()
		}
		// The kernel's numeric ARPHRD_* link type, read from sysfs; 0 when
		// it cannot be read.
		var code uint32
		if data, err := os.ReadFile(filepath.Join("/sys/class/net", attrs.Name, "type")); err == nil {
			if v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32); err == nil {
				code = uint32(v)
			}
		}
		return network.KindOther(code)
	}
}
