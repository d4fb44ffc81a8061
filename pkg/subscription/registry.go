package subscription

import (
	"github.com/pkg/errors"

	"github.com/sceneforge/meshpipeline/pkg/logging"
	"github.com/sceneforge/meshpipeline/pkg/meshpath"
)

// Callback is invoked with the absolute path that changed.
type Callback func(path string)

// watcher is the subset of the path watcher's interface the registry
// depends on. Keeping it this narrow (rather than importing the watching
// package's concrete type) is what lets the registry be the only place
// that bridges the watcher and the cache: neither one knows about the
// other.
type watcher interface {
	Add(path string) error
	Remove(path string) error
}

// pathSubscribers is the set of callbacks currently registered for one path.
type pathSubscribers struct {
	byID map[uint64]Callback
}

// Registry multiplexes callbacks onto a single underlying watch per path.
// It is not safe for concurrent use; like the rest of the pipeline it is
// driven from a single scheduling thread.
type Registry struct {
	watcher   watcher
	logger    *logging.Logger
	onEmptied func(path string)

	subs   map[string]*pathSubscribers
	nextID uint64
}

// New creates a Registry backed by w. onEmptied, if non-nil, is called
// (after the underlying watch is dropped) whenever the last subscription for
// a path is removed — the hook the mesh cache uses to evict its cached
// loader for that path.
func New(w watcher, onEmptied func(path string), logger *logging.Logger) *Registry {
	return &Registry{
		watcher:   w,
		logger:    logger,
		onEmptied: onEmptied,
		subs:      make(map[string]*pathSubscribers),
	}
}

// Subscribe registers callback for path, arranging for the watcher to
// observe path if this is the first subscription for it. The returned
// Handle's Close method unregisters callback.
func (r *Registry) Subscribe(path string, callback Callback) (*Handle, error) {
	path, err := meshpath.Normalize(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to subscribe to %s", path)
	}

	subs, ok := r.subs[path]
	if !ok {
		if err := r.watcher.Add(path); err != nil {
			return nil, errors.Wrapf(err, "unable to watch %s", path)
		}
		subs = &pathSubscribers{byID: make(map[uint64]Callback)}
		r.subs[path] = subs
	}

	r.nextID++
	id := r.nextID
	subs.byID[id] = callback

	return &Handle{registry: r, path: path, id: id}, nil
}

// HasSubscribers reports whether at least one subscription is currently
// registered for path. The mesh cache asserts this before constructing a
// cached loader (its precondition). path is normalized the same way
// Subscribe normalizes it, so callers need not pre-normalize.
func (r *Registry) HasSubscribers(path string) bool {
	path, err := meshpath.Normalize(path)
	if err != nil {
		return false
	}
	subs, ok := r.subs[path]
	return ok && len(subs.byID) > 0
}

// Dispatch invokes every callback registered for path, in an unspecified but
// deterministic-per-call order. It takes a snapshot of the registered ids
// first and re-verifies membership before each invocation, so a callback may
// add or remove other callbacks for path (including its own) without
// disrupting the dispatch loop.
func (r *Registry) Dispatch(path string) {
	subs, ok := r.subs[path]
	if !ok {
		return
	}

	ids := make([]uint64, 0, len(subs.byID))
	for id := range subs.byID {
		ids = append(ids, id)
	}

	for _, id := range ids {
		callback, stillRegistered := subs.byID[id]
		if !stillRegistered {
			continue
		}
		callback(path)
	}
}

func (r *Registry) unsubscribe(path string, id uint64) {
	subs, ok := r.subs[path]
	if !ok {
		return
	}

	delete(subs.byID, id)
	if len(subs.byID) > 0 {
		return
	}

	delete(r.subs, path)
	if err := r.watcher.Remove(path); err != nil {
		r.logger.Warnf("unable to unwatch %s: %s", path, err.Error())
	}
	if r.onEmptied != nil {
		r.onEmptied(path)
	}
}

// Handle is the RAII value returned by Subscribe. Close is
// idempotent; calling it more than once is a no-op after the first call.
type Handle struct {
	registry *Registry
	path     string
	id       uint64
	closed   bool
}

// Close unregisters the callback this handle was created for.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.registry.unsubscribe(h.path, h.id)
	return nil
}
