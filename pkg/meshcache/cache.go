// Package meshcache implements the mesh cache: it keys loaders by absolute
// file path, constructs them on demand, and invalidates them on a watcher
// signal, tying together pkg/watching, pkg/subscription, and pkg/loader.
package meshcache

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sceneforge/meshpipeline/pkg/loader"
	"github.com/sceneforge/meshpipeline/pkg/logging"
	"github.com/sceneforge/meshpipeline/pkg/meshpath"
	"github.com/sceneforge/meshpipeline/pkg/subscription"
	"github.com/sceneforge/meshpipeline/pkg/watching"
)

// subscriptions is the slice of *subscription.Registry the cache depends
// on: whether a path currently has at least one live subscriber, which is
// this component's precondition for constructing a loader.
type subscriptions interface {
	HasSubscribers(path string) bool
}

// entry pairs a loader with a generation token. The token changes on every
// reset, letting a caller that stashed it earlier detect "this loader was
// reset out from under me" versus "this is the loader I already have",
// which Reset() alone (a side-effecting call with no return value) cannot
// distinguish from the caller's side.
type entry struct {
	loader     loader.Loader
	generation uuid.UUID
}

// Cache is the mesh cache entry keyed by absolute path.
type Cache struct {
	subs    subscriptions
	logger  *logging.Logger
	entries map[string]*entry
}

// New constructs a Cache and its backing subscription.Registry, wired to w.
// The registry's onEmptied hook evicts the matching cache entry, 's
// when the last handle for a path is dropped: the cache forgets the cached
// loader for that path.
func New(w *watching.Watcher, logger *logging.Logger) (*Cache, *subscription.Registry) {
	c := &Cache{logger: logger, entries: make(map[string]*entry)}
	registry := subscription.New(w, c.evict, logger)
	c.subs = registry
	return c, registry
}

// Loader implements the cache's lookup contract: null for an unsupported
// extension, a panic if there is no live subscription for path (a
// programmer error — without a subscription nothing can ever invalidate
// the entry), otherwise the cached or newly constructed loader.
func (c *Cache) Loader(absolutePath string) loader.Loader {
	normalized, err := meshpath.Normalize(absolutePath)
	if err != nil {
		return nil
	}
	if !supportedExtension(normalized) {
		return nil
	}
	if !c.subs.HasSubscribers(normalized) {
		panic(fmt.Sprintf("meshcache: Loader(%q) called with no active subscription", normalized))
	}

	if e, ok := c.entries[normalized]; ok {
		return e.loader
	}

	e := &entry{loader: newLoader(normalized, c.logger), generation: uuid.New()}
	c.entries[normalized] = e
	return e.loader
}

// Generation returns the current generation token for absolutePath's entry,
// and false if there is no entry. Callers that hold a mesh derived from a
// loader can compare generations to detect a reset without re-deriving the
// mesh's content.
func (c *Cache) Generation(absolutePath string) (uuid.UUID, bool) {
	normalized, err := meshpath.Normalize(absolutePath)
	if err != nil {
		return uuid.UUID{}, false
	}
	e, ok := c.entries[normalized]
	if !ok {
		return uuid.UUID{}, false
	}
	return e.generation, true
}

// OnChanged implements the invalidation step: reset the cached loader
// for absolutePath (if one exists) and mint a new generation token. An entry
// holding an errorLoader (a failed construction) is rebuilt instead, so the
// cached error is cleared. It does not itself fan out to subscribers — that
// is the caller's job, via subscription.Registry.Dispatch, immediately
// afterward (see Run).
func (c *Cache) OnChanged(absolutePath string) {
	e, ok := c.entries[absolutePath]
	if !ok {
		return
	}
	if _, failed := e.loader.(*errorLoader); failed {
		e.loader = newLoader(absolutePath, c.logger)
	} else {
		e.loader.Reset()
	}
	e.generation = uuid.New()
}

// evict drops the cached entry for absolutePath. It is registered as the
// subscription.Registry's onEmptied hook.
func (c *Cache) evict(absolutePath string) {
	delete(c.entries, absolutePath)
}

// Run drains events (typically a *watching.Watcher's Events() channel),
// invalidating the cache and fanning out to registry's subscribers for each
// changed path, until events closes or done fires. This is the single
// thread the rest of the pipeline assumes services both decoder calls and
// filesystem events.
func Run(events <-chan string, cache *Cache, registry *subscription.Registry, done <-chan struct{}) {
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return
			}
			cache.OnChanged(path)
			registry.Dispatch(path)
		case <-done:
			return
		}
	}
}
