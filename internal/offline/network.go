package offline

import (
	"sync"
	"sync/atomic"
)

// NetworkState tracks whether the server is believed reachable. Listeners
// are called on transitions only.
type NetworkState struct {
	online    atomic.Bool
	mu        sync.Mutex
	listeners []func(online bool)
}

func NewNetworkState(online bool) *NetworkState {
	n := &NetworkState{}
	n.online.Store(online)
	return n
}

func (n *NetworkState) Online() bool {
	return n.online.Load()
}

func (n *NetworkState) SetOnline(online bool) {
	if n.online.Swap(online) == online {
		return
	}

	n.mu.Lock()
	listeners := append([]func(bool){}, n.listeners...)
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(online)
	}
}

func (n *NetworkState) Subscribe(fn func(online bool)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}
