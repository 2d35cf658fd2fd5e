package peer

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/markoxley/cobweb/catalog"
	"github.com/markoxley/cobweb/wire"
)

// gossipReplyBufSize bounds a single read of an /info reply. Replies carry
// no frame terminator; the reader relies on one Read call returning the
// whole JSON body, which is fragile for large catalogs but matches the
// wire contract this implementation serves.
const gossipReplyBufSize = 64 * 1024

// gossipLoop wakes roughly every cfg.GossipInterval(), implemented as
// cfg.Gossip.TickSlices cooperative sleeps so Shutdown is noticed promptly
// instead of after a single long sleep.
func (p *Peer) gossipLoop() error {
	slices := p.cfg.Gossip.TickSlices
	if slices <= 0 {
		slices = 1
	}
	for {
		for i := 0; i < slices; i++ {
			if p.closing.Load() {
				return nil
			}
			time.Sleep(p.cfg.GossipSlice())
		}
		if p.closing.Load() {
			return nil
		}
		p.gossipTick()
	}
}

// gossipTick picks a random known peer and performs a one-shot info
// exchange. The target is chosen under the shared mutex and the mutex is
// released before any I/O, so a slow or unresponsive gossip peer cannot
// serialize with concurrent publishes.
func (p *Peer) gossipTick() {
	p.mu.Lock()
	n := p.cat.Len()
	if n == 0 {
		p.mu.Unlock()
		return
	}
	target := p.cat.At(rand.IntN(n))
	snap := p.cat.Snapshot()
	p.mu.Unlock()

	snapJSON, err := json.Marshal(snap)
	if err != nil {
		p.logger.Error("gossip: failed to marshal own snapshot", zap.Error(err))
		return
	}

	if err := p.gossipExchange(target, snapJSON); err != nil {
		p.logger.Debug("gossip: exchange failed",
			zap.String("ip", target.IP), zap.Uint16("port", target.Port), zap.Error(err))
	}
}

// gossipExchange opens a fresh connection to target (the gossip loop does
// not use the publish pool; an info exchange is infrequent and one-shot,
// so pooling the connection would only hold a socket open for no benefit),
// sends an info request carrying selfJSON, reads one reply burst, and
// merges it into the catalog.
func (p *Peer) gossipExchange(target catalog.PeerRecord, selfJSON []byte) error {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", target.IP, target.Port), p.cfg.DialTimeout())
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := writeFull(conn, wire.EncodeInfoRequest(selfJSON)); err != nil {
		return err
	}

	buf := make([]byte, gossipReplyBufSize)
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		return err
	}

	var remote catalog.Snapshot
	if err := wire.DecodeInfoReply(buf[:n], &remote); err != nil {
		return err
	}

	p.mu.Lock()
	p.cat.MergeRemote(remote)
	p.mu.Unlock()
	return nil
}
