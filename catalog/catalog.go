// Package catalog holds a peer's view of itself and the peers it knows
// about. A catalog is shared between the server's request handler and the
// gossip loop, both of which merge remote views into it as the mesh
// converges on topic interest.
package catalog

import "sort"

// PeerRecord describes one peer's address and the topics it has declared
// interest in. Two records are the same peer if their IP and port match;
// their identity is the pair, not the pointer.
type PeerRecord struct {
	IP     string   `json:"IP"`
	Port   uint16   `json:"port"`
	Topics []string `json:"subscribed_topics"`
}

func newRecord(ip string, port uint16, topics []string) PeerRecord {
	r := PeerRecord{IP: ip, Port: port}
	r.Topics = unionSorted(nil, topics)
	return r
}

func sameIdentity(a PeerRecord, ip string, port uint16) bool {
	return a.IP == ip && a.Port == port
}

// unionSorted returns the sorted union of two topic sets, deduplicated.
func unionSorted(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, t := range existing {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	for _, t := range incoming {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// Snapshot is the JSON-encodable shape exchanged on the wire: the catalog
// owner's own record plus every known peer. Field names and casing are
// fixed by the wire protocol ("IP" capitalized, snake_case elsewhere).
type Snapshot struct {
	Self  PeerRecord   `json:"self"`
	Known []PeerRecord `json:"known_nodes"`
}

// Catalog is not safe for concurrent use on its own; callers (the peer
// engine) are expected to guard it with the same mutex that guards the
// connection pool.
type Catalog struct {
	self  PeerRecord
	known []PeerRecord
}

// New creates a catalog identifying the local peer by (ip, port). The
// local peer starts out subscribed to no topics and knowing no peers.
func New(ip string, port uint16) *Catalog {
	return &Catalog{self: newRecord(ip, port, nil)}
}

// Self returns a copy of the local peer's own record.
func (c *Catalog) Self() PeerRecord {
	r := c.self
	r.Topics = append([]string(nil), c.self.Topics...)
	return r
}

// DeclareTopic ensures topic is present in the local peer's own topic set.
// Called by the subscription registry when a new subscription is added.
func (c *Catalog) DeclareTopic(topic string) {
	c.self.Topics = unionSorted(c.self.Topics, []string{topic})
}

// AddKnown merges a peer record into the known set: if an entry with the
// same identity already exists, the incoming topics are unioned into it in
// place; otherwise a new record is appended, preserving insertion order for
// first-seen peers. A record whose identity matches the local peer itself
// is dropped, so a node can never learn about itself as a remote peer.
func (c *Catalog) AddKnown(ip string, port uint16, topics []string) {
	if sameIdentity(c.self, ip, port) {
		return
	}
	for i := range c.known {
		if sameIdentity(c.known[i], ip, port) {
			c.known[i].Topics = unionSorted(c.known[i].Topics, topics)
			return
		}
	}
	c.known = append(c.known, newRecord(ip, port, topics))
}

// MergeRemote folds a remote peer's full catalog into this one: the
// remote's own identity is learned first, then every peer it already knew
// about. Self-identity entries (either the remote's own record, if it
// happens to equal the local peer, or a nested one) are silently dropped by
// AddKnown rather than treated as an error.
func (c *Catalog) MergeRemote(remote Snapshot) {
	c.AddKnown(remote.Self.IP, remote.Self.Port, remote.Self.Topics)
	for _, k := range remote.Known {
		c.AddKnown(k.IP, k.Port, k.Topics)
	}
}

// Known returns a copy of the known-peer slice. Mutating the returned slice
// does not affect the catalog.
func (c *Catalog) Known() []PeerRecord {
	out := make([]PeerRecord, len(c.known))
	copy(out, c.known)
	for i := range out {
		out[i].Topics = append([]string(nil), c.known[i].Topics...)
	}
	return out
}

// Snapshot returns a consistent, JSON-encodable copy of the catalog for use
// as a gossip payload or an /info reply body.
func (c *Catalog) Snapshot() Snapshot {
	return Snapshot{
		Self:  c.Self(),
		Known: c.Known(),
	}
}

// Len returns the number of known peers, used by the gossip loop to decide
// whether a random pick is possible.
func (c *Catalog) Len() int {
	return len(c.known)
}

// At returns the known peer at index i. The caller is expected to have
// picked i in [0, Len()) while holding the lock that guards the catalog.
func (c *Catalog) At(i int) PeerRecord {
	return c.known[i]
}
