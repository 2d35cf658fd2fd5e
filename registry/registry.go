// Package registry maps topics to the local callbacks subscribed to them
// and dispatches inbound publications to those callbacks.
//
// The map is guarded by its own lock, independent of the catalog/pool
// mutex, so a new subscription can be registered concurrently with inbound
// publication dispatch without contending on unrelated catalog or pool
// work.
package registry

import "sync"

// Callback is invoked once per delivered publication on topic, carrying
// the topic name and the raw payload bytes.
type Callback func(topic string, payload []byte)

// Registry is safe for concurrent Subscribe and Deliver calls.
type Registry struct {
	mu        sync.RWMutex
	callbacks map[string][]Callback
	declared  func(topic string)
}

// New creates an empty registry. declared, if non-nil, is invoked once per
// newly-subscribed topic so the owning peer can keep its catalog's self
// record in sync without this package importing catalog.
func New(declared func(topic string)) *Registry {
	return &Registry{
		callbacks: make(map[string][]Callback),
		declared:  declared,
	}
}

// Subscribe appends cb to topic's callback list, in registration order.
// Duplicate callbacks for the same topic are allowed and each is invoked
// independently on delivery.
func (r *Registry) Subscribe(topic string, cb Callback) {
	r.mu.Lock()
	_, existed := r.callbacks[topic]
	r.callbacks[topic] = append(r.callbacks[topic], cb)
	r.mu.Unlock()

	if !existed && r.declared != nil {
		r.declared(topic)
	}
}

// Deliver invokes every callback registered for topic, in registration
// order, on the caller's goroutine. A callback panic is recovered and
// re-panicked after all other callbacks for this delivery have run and the
// lock has been released, so one bad callback cannot wedge the registry's
// lock for the rest. Publish lets the panic propagate to its caller; the
// inbound publication handler recovers and logs it.
func (r *Registry) Deliver(topic string, payload []byte) {
	r.mu.RLock()
	cbs := append([]Callback(nil), r.callbacks[topic]...)
	r.mu.RUnlock()

	var recovered any
	for _, cb := range cbs {
		func() {
			defer func() {
				if p := recover(); p != nil && recovered == nil {
					recovered = p
				}
			}()
			cb(topic, payload)
		}()
	}
	if recovered != nil {
		panic(recovered)
	}
}

// Topics returns the set of topics with at least one subscriber.
func (r *Registry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.callbacks))
	for t := range r.callbacks {
		out = append(out, t)
	}
	return out
}
