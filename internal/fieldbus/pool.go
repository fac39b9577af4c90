// internal/fieldbus/pool.go
package fieldbus

import "sync"

// Pool hands out one EndpointClient per unique endpoint so sensors,
// relays and the status block on the same bus share a link.
type Pool struct {
	mu      sync.Mutex
	clients map[string]*EndpointClient
}

func NewPool() *Pool {
	return &Pool{clients: make(map[string]*EndpointClient)}
}

// Client returns the shared client for cfg.Endpoint, creating it on first use.
// Later callers inherit the first caller's timeout and baud rate.
func (p *Pool) Client(cfg Config) (*EndpointClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[cfg.Endpoint]; ok {
		return c, nil
	}

	c, err := NewEndpointClient(cfg)
	if err != nil {
		return nil, err
	}
	p.clients[cfg.Endpoint] = c
	return c, nil
}

func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var last error
	for ep, c := range p.clients {
		if err := c.Close(); err != nil {
			last = err
		}
		delete(p.clients, ep)
	}
	return last
}
