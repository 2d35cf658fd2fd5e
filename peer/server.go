package peer

import (
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markoxley/cobweb/catalog"
	"github.com/markoxley/cobweb/wire"
)

// serverLoop accepts connections until shutdown is signaled or the
// listening socket becomes invalid, spawning one detached handler
// goroutine per accepted connection.
func (p *Peer) serverLoop() error {
	for {
		conn, err := p.listener.Accept()
		if err != nil {
			if p.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			p.logger.Warn("accept error, retrying", zap.Error(err))
			time.Sleep(10 * time.Millisecond)
			continue
		}
		go p.handleConn(conn)
	}
}

// readBufSize bounds one Read call; frames may still span many reads, the
// wire.Reader buffers across calls regardless of this size.
const readBufSize = 4096

// handleConn runs once per accepted connection: it reads bytes, extracts
// complete frames, dispatches each, and closes the connection when the
// peer closes its end or an error occurs.
func (p *Peer) handleConn(conn net.Conn) {
	defer conn.Close()

	connID := uuid.New().String()
	logger := p.logger.With(zap.String("conn", connID), zap.Stringer("remote", conn.RemoteAddr()))

	var r wire.Reader
	buf := make([]byte, readBufSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			for _, frame := range r.Feed(buf[:n]) {
				p.dispatch(conn, frame, logger)
			}
		}
		if err != nil {
			return
		}
	}
}

// dispatch parses one complete frame and writes the appropriate reply.
func (p *Peer) dispatch(conn net.Conn, frame []byte, logger *zap.Logger) {
	msg, err := wire.Parse(frame)
	if err != nil {
		logger.Warn("malformed request", zap.Error(err))
		conn.Write(wire.ReplyBadRequest)
		return
	}

	switch msg.Kind {
	case wire.KindInfo:
		p.handleInfo(conn, msg.InfoBody, logger)
	case wire.KindPublish:
		p.handlePublish(conn, msg.Topic, msg.Payload, logger)
	default:
		conn.Write(wire.ReplyBadRequest)
	}
}

// handleInfo merges the sender's catalog (if it parses) and always replies
// with the local catalog snapshot: a malformed body is logged but still
// answered, and the connection stays open either way.
func (p *Peer) handleInfo(conn net.Conn, body []byte, logger *zap.Logger) {
	var remote catalog.Snapshot
	if err := json.Unmarshal(body, &remote); err != nil {
		logger.Warn("malformed info body, answering anyway", zap.Error(err))
	} else {
		p.mu.Lock()
		p.cat.MergeRemote(remote)
		p.mu.Unlock()
	}

	p.mu.Lock()
	snap := p.cat.Snapshot()
	p.mu.Unlock()

	b, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		logger.Error("failed to marshal snapshot reply", zap.Error(err))
		return
	}
	conn.Write(b)
}

// handlePublish dispatches to local subscribers and replies 200/400. A
// panicking callback is recovered so it cannot take down the handler
// goroutine or corrupt the registry's lock; the panic is logged rather
// than re-raised here, since the wire contract gives no reply code for a
// callback failure distinct from a malformed request.
func (p *Peer) handlePublish(conn net.Conn, topic string, payload []byte, logger *zap.Logger) {
	if topic == "" {
		conn.Write(wire.ReplyBadRequest)
		return
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("subscriber callback panicked", zap.Any("panic", r))
			}
		}()
		p.reg.Deliver(topic, payload)
	}()
	conn.Write(wire.ReplyOK)
}
