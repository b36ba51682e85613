package registry

import (
	"errors"
	"io"
	"net"
	"sync"

	"go.uber.org/multierr"
)

var ErrConnectionNotFound = errors.New("connection not found")

// Registry tracks the live connections of a server so they can be counted
// and closed together on shutdown.
type Registry interface {
	Register(id string, conn io.Closer) (success bool)
	Get(id string) (io.Closer, error)
	Remove(id string)
	Count() int
	CloseAll() error
}

type registry struct {
	mu    sync.RWMutex
	conns map[string]io.Closer
}

func NewRegistry() Registry {
	return &registry{
		conns: make(map[string]io.Closer),
	}
}

func (r *registry) Register(id string, conn io.Closer) (success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[id]; exists {
		return false
	}
	r.conns[id] = conn
	return true
}

func (r *registry) Get(id string) (io.Closer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[id]
	if !ok {
		return nil, ErrConnectionNotFound
	}
	return conn, nil
}

func (r *registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, id)
}

func (r *registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

// CloseAll closes every registered connection and forgets them. Connections
// that were already closed are not reported.
func (r *registry) CloseAll() error {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]io.Closer)
	r.mu.Unlock()

	var err error
	for _, conn := range conns {
		if cerr := conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = multierr.Append(err, cerr)
		}
	}
	return err
}
