// Package pool caches outbound TCP connections to other peers, keyed by
// (ip, port), so that repeated publications to the same peer reuse one
// socket instead of dialing anew each time.
package pool

import (
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

type key struct {
	ip   string
	port uint16
}

// Pool is not safe for concurrent use on its own. The peer engine guards it
// with the same mutex that guards the catalog, so a lookup or mutation of
// either structure is never observed half-done by the other.
type Pool struct {
	conns       map[key]net.Conn
	dialTimeout time.Duration
	logger      *zap.Logger
}

// New creates an empty pool. dialTimeout bounds each connection attempt
// made by Acquire. logger may be nil, in which case a no-op logger is used.
func New(dialTimeout time.Duration, logger *zap.Logger) *Pool {
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{conns: make(map[key]net.Conn), dialTimeout: dialTimeout, logger: logger}
}

// Acquire returns the cached connection to (ip, port) if one exists;
// otherwise it dials a new one, inserts it on success, and returns it. A
// dial failure returns a nil connection and the dial error without
// inserting anything; the caller is expected to skip this peer for the
// current call.
func (p *Pool) Acquire(ip string, port uint16) (net.Conn, error) {
	k := key{ip, port}
	if c, ok := p.conns[k]; ok {
		return c, nil
	}
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", ip, port), p.dialTimeout)
	if err != nil {
		p.logger.Debug("dial failed", zap.String("ip", ip), zap.Uint16("port", port), zap.Error(err))
		return nil, err
	}
	p.conns[k] = conn
	return conn, nil
}

// Invalidate closes and removes the cached connection to (ip, port) if it
// is still the one given in conn — a stale Invalidate call racing an
// Acquire that already replaced the entry is a no-op on the new entry.
func (p *Pool) Invalidate(ip string, port uint16, conn net.Conn) {
	k := key{ip, port}
	if cur, ok := p.conns[k]; ok && cur == conn {
		delete(p.conns, k)
	}
	if err := conn.Close(); err != nil {
		p.logger.Debug("error closing invalidated connection",
			zap.String("ip", ip), zap.Uint16("port", port), zap.Error(err))
	}
}

// CloseAll closes every pooled connection and clears the pool. Called once,
// during peer shutdown.
func (p *Pool) CloseAll() {
	for k, c := range p.conns {
		c.Close()
		delete(p.conns, k)
	}
}

// Len reports how many connections are currently cached, for tests.
func (p *Pool) Len() int {
	return len(p.conns)
}
