package peer

import (
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/markoxley/cobweb/wire"
)

// Publish sends (topic, payload) to every known peer, best-effort, and
// delivers it to this peer's own subscribers.
//
// Every known peer is addressed regardless of its declared topic
// interest; filtering recipients client-side would require trusting a
// peer's self-reported topic list to decide what it actually wants, which
// this mesh does not do. Recipients with no local subscriber for topic
// simply do nothing with it.
func (p *Peer) Publish(topic string, payload []byte) {
	p.mu.Lock()
	known := p.cat.Known()
	p.mu.Unlock()

	for _, peer := range known {
		frame := wire.EncodePublish(peer.IP, peer.Port, topic, payload)

		p.mu.Lock()
		conn, err := p.pool.Acquire(peer.IP, peer.Port)
		p.mu.Unlock()
		if err != nil {
			p.logger.Debug("publish: connect failed, skipping peer",
				zap.String("ip", peer.IP), zap.Uint16("port", peer.Port), zap.Error(err))
			continue
		}

		if err := writeFull(conn, frame); err != nil {
			p.logger.Warn("publish: send failed, invalidating connection",
				zap.String("ip", peer.IP), zap.Uint16("port", peer.Port), zap.Error(err))
			p.mu.Lock()
			p.pool.Invalidate(peer.IP, peer.Port, conn)
			p.mu.Unlock()
			continue
		}
	}

	p.reg.Deliver(topic, payload)
}

// writeFull writes frame in full or returns an error; a short write
// without an error (possible on some network stacks) is treated as a
// failure too, since a partially written frame leaves the peer's reader
// waiting on bytes that will never arrive.
func writeFull(conn net.Conn, frame []byte) error {
	n, err := conn.Write(frame)
	if err != nil {
		return err
	}
	if n < len(frame) {
		return fmt.Errorf("partial write: sent %d of %d bytes", n, len(frame))
	}
	return nil
}
