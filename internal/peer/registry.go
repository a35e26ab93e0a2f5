package peer

import (
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
)

// Registry holds the configured peers in configuration order.
type Registry struct {
	peers  []Peer
	byName map[string]Peer
}

// NewRegistry creates a registry over peers. Names must be unique.
func NewRegistry(peers ...Peer) (*Registry, error) {
	r := &Registry{
		peers:  make([]Peer, 0, len(peers)),
		byName: make(map[string]Peer, len(peers)),
	}
	for _, p := range peers {
		if _, dup := r.byName[p.Name()]; dup {
			return nil, fmt.Errorf("duplicate peer name %q", p.Name())
		}
		r.peers = append(r.peers, p)
		r.byName[p.Name()] = p
	}
	return r, nil
}

// Dial builds a Connect client per server and returns them as a registry.
func Dial(servers []Server, opts ClientOptions) (*Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Interceptors == nil {
		opts.Interceptors = []connect.Interceptor{NewLoggingInterceptor(logger)}
	}

	peers := make([]Peer, 0, len(servers))
	for _, s := range servers {
		peers = append(peers, NewClient(s, opts))
		logger.Info("peer configured", "peer", s.Name, "address", s.Address, "timeout", s.Timeout)
	}
	return NewRegistry(peers...)
}

// Peers returns the peers in configuration order.
func (r *Registry) Peers() []Peer {
	if r == nil {
		return nil
	}
	return r.peers
}

// Lookup returns the peer with name.
func (r *Registry) Lookup(name string) (Peer, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.byName[name]
	return p, ok
}

// Names returns the peer names in configuration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Peers()))
	for _, p := range r.Peers() {
		names = append(names, p.Name())
	}
	return names
}

// Len returns the number of peers.
func (r *Registry) Len() int {
	return len(r.Peers())
}
