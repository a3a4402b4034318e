//go:build linux

// Package platform provides the concrete Linux ApiListener, built on the
// same netlink link/address subscription primitives the teacher's netmon
// watcher uses, translated from a callback interface into the channel-based
// ApiListener contract.
package platform

import (
	"context"
	"sync"

	"github.com/vishvananda/netlink"

	"github.com/ipwatchd/ipwatchd/internal/monitor"
)

type LinuxApiListener struct {
	mu        sync.Mutex
	started   bool
	linkDone  chan struct{}
	addrDone  chan struct{}
}

func NewLinuxApiListener() *LinuxApiListener {
	return &LinuxApiListener{}
}

func (l *LinuxApiListener) Listen(ctx context.Context) (<-chan monitor.Notification, error) {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return nil, monitor.ErrAlreadyListening
	}
	l.started = true
	l.mu.Unlock()

	linkCh := make(chan netlink.LinkUpdate)
	linkDone := make(chan struct{})
	if err := netlink.LinkSubscribe(linkCh, linkDone); err != nil {
		return nil, &monitor.ApiError{Cause: err}
	}

	addrCh := make(chan netlink.AddrUpdate)
	addrDone := make(chan struct{})
	if err := netlink.AddrSubscribe(addrCh, addrDone); err != nil {
		close(linkDone)
		return nil, &monitor.ApiError{Cause: err}
	}

	l.mu.Lock()
	l.linkDone = linkDone
	l.addrDone = addrDone
	l.mu.Unlock()

	out := make(chan monitor.Notification, 1)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-linkCh:
				if !ok {
					select {
					case out <- monitor.Notification{Err: &monitor.ApiError{Cause: errLinkChannelClosed}}:
					case <-ctx.Done():
					}
					return
				}
				select {
				case out <- monitor.Notification{}:
				case <-ctx.Done():
					return
				}
			case _, ok := <-addrCh:
				if !ok {
					select {
					case out <- monitor.Notification{Err: &monitor.ApiError{Cause: errAddrChannelClosed}}:
					case <-ctx.Done():
					}
					return
				}
				select {
				case out <- monitor.Notification{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (l *LinuxApiListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.linkDone != nil {
		close(l.linkDone)
		l.linkDone = nil
	}
	if l.addrDone != nil {
		close(l.addrDone)
		l.addrDone = nil
	}
	return nil
}

var (
	errLinkChannelClosed = simpleErr("netlink link subscription channel closed")
	errAddrChannelClosed = simpleErr("netlink address subscription channel closed")
)

type simpleErr string

func (e simpleErr) Error() string { return string(e) }
