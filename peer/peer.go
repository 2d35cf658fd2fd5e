// Package peer implements the gossip node engine: the listening server,
// the framed request handler, the outbound publisher, the periodic gossip
// loop, and the lifecycle that ties them together.
package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markoxley/cobweb/catalog"
	"github.com/markoxley/cobweb/config"
	"github.com/markoxley/cobweb/pool"
	"github.com/markoxley/cobweb/registry"
	"github.com/markoxley/cobweb/wire"
)

// Peer is a gossip mesh node: it serves inbound publications and info
// exchanges on a listening socket, and disseminates publications and
// peer-discovery information to the peers it has learned about.
//
// After Shutdown returns, a Peer must not be used again; Publish and
// Subscribe calls made after shutdown are not supported.
type Peer struct {
	cfg    *config.NodeConfig
	logger *zap.Logger

	// mu guards cat and pool together: neither is read or mutated without
	// holding it. Publish takes it separately to copy the known peers and
	// for each pool acquire or invalidate.
	mu   sync.Mutex
	cat  *catalog.Catalog
	pool *pool.Pool

	reg *registry.Registry

	listener net.Listener
	closing  atomic.Bool

	group errgroup.Group
}

// Option customizes construction. The zero-value call New(host, port)
// uses a default config and a production zap logger.
type Option func(*options)

type options struct {
	cfg    *config.NodeConfig
	logger *zap.Logger
}

// WithConfig overrides the node's tunables (gossip cadence, bind retry
// backoff, pool dial timeout). host and port passed to New always win over
// cfg.Node.Host/Port.
func WithConfig(cfg *config.NodeConfig) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger overrides the default zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New constructs a peer identified by (host, port), binds its listening
// socket (retrying on failure), and starts the server and gossip
// background workers.
func New(host string, port uint16, opts ...Option) (*Peer, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg == nil {
		o.cfg = config.Default()
	}
	if o.logger == nil {
		l, err := zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("peer: failed to build default logger: %w", err)
		}
		o.logger = l
	}

	ignoreBrokenPipe()
	wire.SetLogger(o.logger)

	p := &Peer{
		cfg:    o.cfg,
		logger: o.logger,
		cat:    catalog.New(host, port),
		pool:   pool.New(o.cfg.DialTimeout(), o.logger),
	}
	p.reg = registry.New(func(topic string) {
		p.mu.Lock()
		p.cat.DeclareTopic(topic)
		p.mu.Unlock()
	})

	ln, err := bindWithRetry(context.Background(), host, port, o.cfg.BindRetryInterval(), o.logger)
	if err != nil {
		return nil, err
	}
	p.listener = ln

	p.group.Go(p.serverLoop)
	p.group.Go(p.gossipLoop)

	return p, nil
}

// bindWithRetry binds the listening socket, retrying forever on failure
// with the configured backoff. It never gives up distinguishing a
// transient bind failure from a permanent misconfiguration, so every
// attempt is logged to keep that failure mode at least observable.
func bindWithRetry(ctx context.Context, host string, port uint16, backoff time.Duration, logger *zap.Logger) (net.Listener, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	lc := net.ListenConfig{Control: controlReuseAddr}
	for {
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err == nil {
			return ln, nil
		}
		logger.Warn("bind failed, retrying",
			zap.String("addr", addr), zap.Error(err), zap.Duration("backoff", backoff))
		time.Sleep(backoff)
	}
}

// Subscribe registers cb to be invoked for every publication delivered on
// topic, locally or over the network, and ensures topic is declared in the
// peer's own catalog record.
func (p *Peer) Subscribe(topic string, cb registry.Callback) {
	p.reg.Subscribe(topic, cb)
}

// AddKnownNode adds or updates a known peer's identity and topic interest.
// Calling it with no topics registers the peer's address without
// asserting any topic interest for it.
func (p *Peer) AddKnownNode(ip string, port uint16, topics ...string) {
	p.mu.Lock()
	p.cat.AddKnown(ip, port, topics)
	p.mu.Unlock()
}

// GetInfoJSON returns the current catalog as pretty-printed (4-space
// indent) JSON, the same bytes a GET /info exchange would reply with.
func (p *Peer) GetInfoJSON() []byte {
	p.mu.Lock()
	snap := p.cat.Snapshot()
	p.mu.Unlock()

	b, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		// Snapshot is built entirely from strings and a uint16; this can't
		// fail in practice, but GetInfoJSON must never panic its caller.
		p.logger.Error("failed to marshal catalog snapshot", zap.Error(err))
		return []byte("{}")
	}
	return b
}

// Shutdown signals both background workers to stop, closes the listening
// socket to unblock Accept, joins the workers, and closes every pooled
// outbound connection. Shutdown is idempotent.
func (p *Peer) Shutdown() {
	if !p.closing.CompareAndSwap(false, true) {
		return
	}
	p.listener.Close()
	if err := p.group.Wait(); err != nil {
		p.logger.Error("worker exited with error", zap.Error(err))
	}

	p.mu.Lock()
	p.pool.CloseAll()
	p.mu.Unlock()
}
