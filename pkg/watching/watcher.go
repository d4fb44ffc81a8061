package watching

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/groupcache/lru"
	"github.com/pkg/errors"

	"github.com/sceneforge/meshpipeline/pkg/logging"
	"github.com/sceneforge/meshpipeline/pkg/must"
)

// command is a serialized Add/Remove request, answered on done once the
// watcher's owning goroutine has applied it to the node tree.
type command struct {
	add  bool
	path string
	done chan error
}

// Watcher observes an arbitrary set of absolute paths, tolerating ones that
// (along with any of their ancestor directories) do not currently exist, and
// reports a single coalesced event per path after a 100ms quiescent period.
// All node-tree and fsnotify state is owned by one internal goroutine; Add,
// Remove, and Close may be called from any goroutine and are serialized onto
// it, matching the "one exception" carved out for the watcher's internal
// event pump by the pipeline's single-threaded scheduling model.
type Watcher struct {
	logger *logging.Logger

	fsw *fsnotify.Watcher

	commands chan command
	events   chan string
	errors   chan error
	done     chan struct{}
	stopped  chan struct{}
}

// New creates a Watcher and starts its internal event loop.
func New(logger *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create filesystem watcher")
	}

	w := &Watcher{
		logger:   logger,
		fsw:      fsw,
		commands: make(chan command),
		events:   make(chan string, 64),
		errors:   make(chan error, 16),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	go w.run()

	return w, nil
}

// Add registers path for watching. Idempotent.
func (w *Watcher) Add(path string) error {
	return w.send(command{add: true, path: path})
}

// Remove unregisters path. Idempotent.
func (w *Watcher) Remove(path string) error {
	return w.send(command{add: false, path: path})
}

func (w *Watcher) send(cmd command) error {
	cmd.done = make(chan error, 1)
	select {
	case w.commands <- cmd:
	case <-w.stopped:
		return ErrWatchTerminated
	}
	select {
	case err := <-cmd.done:
		return err
	case <-w.stopped:
		return ErrWatchTerminated
	}
}

// Events returns the channel on which coalesced, absolute changed paths are
// delivered. Only one goroutine should drain this channel, matching the
// pipeline's single scheduling thread.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Errors returns the channel on which errors from the OS notification layer
// and ErrTooManyPendingPaths are delivered. These are informational; a
// failure to install a watch on a node is logged instead, and that node is
// retried on its next probe regardless of whether anything drains this
// channel.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// CanOpenForRead reports whether path can currently be opened for reading.
// A file may be briefly unreadable immediately after a change event fires
// (another process still holds it); callers are expected to retry rather
// than treat this as fatal.
func (w *Watcher) CanOpenForRead(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	must.Close(f, w.logger)
	return true
}

// Close terminates the watcher and releases its OS-level resources.
func (w *Watcher) Close() error {
	select {
	case <-w.stopped:
		return ErrWatchTerminated
	default:
	}
	close(w.done)
	<-w.stopped
	return w.fsw.Close()
}

func (w *Watcher) run() {
	defer close(w.stopped)
	defer close(w.events)
	defer close(w.errors)

	state := &watcherState{
		logger:      w.logger,
		fsw:         w.fsw,
		nodesByPath: make(map[string]*node),
		leaves:      make(map[string]*node),
		pending:     make(map[string]bool),
		evictor:     lru.New(maximumLiveWatches),
	}
	state.evictor.OnEvicted = func(key lru.Key, value interface{}) {
		path, ok := key.(string)
		if !ok {
			panic("invalid key type in watch path evictor")
		}
		if n, ok := value.(*node); ok && n.watched {
			_ = state.fsw.Remove(path)
			n.watched = false
		}
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C
		}

		select {
		case cmd := <-w.commands:
			var err error
			if cmd.add {
				err = state.add(cmd.path)
			} else {
				err = state.remove(cmd.path)
			}
			cmd.done <- err

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			state.handleRawEvent(event)
			if state.overflowed {
				state.overflowed = false
				select {
				case w.errors <- ErrTooManyPendingPaths:
				default:
				}
			}
			if len(state.pending) > 0 {
				timer = resetTimer(timer, coalescingWindow)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warnf("filesystem watch error: %s", err.Error())
			select {
			case w.errors <- err:
			default:
			}

		case <-timerC:
			timer = nil
			for path := range state.pending {
				select {
				case w.events <- path:
				case <-w.done:
					return
				}
			}
			state.pending = make(map[string]bool)

		case <-w.done:
			return
		}
	}
}

// resetTimer arms t for d, creating it if necessary.
func resetTimer(t *time.Timer, d time.Duration) *time.Timer {
	if t == nil {
		return time.NewTimer(d)
	}
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
	return t
}

// watcherState holds everything owned by the watcher's run loop: the node
// tree, the leaf registry, and the set of paths pending coalesced delivery.
// It is never touched outside of run, so it needs no internal locking.
type watcherState struct {
	logger *logging.Logger
	fsw    *fsnotify.Watcher

	nodesByPath map[string]*node
	leaves      map[string]*node
	pending     map[string]bool
	overflowed  bool

	// evictor bounds the number of live leaf-level OS watches, evicting the
	// least-recently-added on overflow, generalizing a flat inotify
	// watch-eviction policy to this package's hierarchical node tree.
	evictor *lru.Cache
}

func (s *watcherState) add(path string) error {
	if _, exists := s.leaves[path]; exists {
		return nil
	}

	var chain []string
	cur := path
	for {
		chain = append(chain, cur)
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	var parent *node
	for i := len(chain) - 1; i >= 0; i-- {
		p := chain[i]
		n, ok := s.nodesByPath[p]
		if !ok {
			n = &node{path: p, parent: parent}
			if _, statErr := os.Lstat(p); statErr == nil {
				n.existedOnLastProbe = true
			}
			s.nodesByPath[p] = n
			if parent != nil {
				if parent.children == nil {
					parent.children = make(map[string]*node)
				}
				parent.children[n.baseName()] = n
			}
		}
		parent = n
	}

	leaf := s.nodesByPath[path]
	s.leaves[path] = leaf
	s.attachWatches(leaf)

	return nil
}

func (s *watcherState) remove(path string) error {
	leaf, ok := s.leaves[path]
	if !ok {
		return nil
	}
	delete(s.leaves, path)
	delete(s.pending, path)
	s.pruneUpward(leaf)
	return nil
}

// attachWatches installs an OS-level watch on leaf if it exists, and a
// directory-level watch on every ancestor of leaf that currently exists, up
// to the filesystem root. A node whose watch cannot be installed is marked
// as not existing, so that its next probe retries.
func (s *watcherState) attachWatches(leaf *node) {
	for n := leaf; n != nil; n = n.parent {
		if n.existedOnLastProbe && !n.watched {
			if err := s.fsw.Add(n.path); err != nil {
				s.logger.Warnf("unable to watch %s: %s", n.path, err.Error())
				n.existedOnLastProbe = false
			} else {
				n.watched = true
				if n == leaf {
					s.evictor.Add(n.path, n)
				}
			}
		}
	}
}

// pruneUpward removes n, and any now-childless ancestor of n, from the tree,
// detaching OS watches as it goes. It stops at the first ancestor still
// needed by another leaf.
func (s *watcherState) pruneUpward(n *node) {
	for n != nil {
		parent := n.parent
		if !n.isLeaf() || s.leaves[n.path] != nil {
			break
		}
		if n.watched {
			_ = s.fsw.Remove(n.path)
			s.evictor.Remove(n.path)
		}
		delete(s.nodesByPath, n.path)
		if parent != nil {
			delete(parent.children, n.baseName())
		}
		n = parent
	}
}

// handleRawEvent resolves a raw fsnotify event to the watch-node(s) it
// affects and re-probes them, marking any leaf whose existence flipped as
// pending for coalesced delivery. An event that names a watched file itself
// (a write, an attribute change, a rename onto it) marks that file pending
// even when its existence did not change.
func (s *watcherState) handleRawEvent(event fsnotify.Event) {
	n, ok := s.nodesByPath[event.Name]
	if !ok {
		// The event is for a directory we're watching, reporting a change
		// to one of its children; re-probe every child we care about.
		if dir, ok := s.nodesByPath[filepath.Dir(event.Name)]; ok {
			for _, child := range dir.children {
				s.probeNode(child)
			}
		}
		return
	}
	s.probeNode(n)
	if s.leaves[n.path] != nil && !s.pending[n.path] {
		s.markPending(n.path)
	}
}

// probeNode re-stats n, reacting to any existence flip: a leaf becomes
// pending; an interior directory attaches or detaches its OS watch and, on
// (re)appearance, cascades the probe down to its children so that newly
// revealed descendants are picked up without waiting for their own event.
func (s *watcherState) probeNode(n *node) {
	_, err := os.Lstat(n.path)
	existedNow := err == nil
	flipped := existedNow != n.existedOnLastProbe
	n.existedOnLastProbe = existedNow

	if n.isLeaf() {
		if flipped {
			if existedNow && !n.watched {
				if watchErr := s.fsw.Add(n.path); watchErr != nil {
					s.logger.Warnf("unable to watch %s: %s", n.path, watchErr.Error())
					n.existedOnLastProbe = false
				} else {
					n.watched = true
					s.evictor.Add(n.path, n)
				}
			} else if !existedNow && n.watched {
				_ = s.fsw.Remove(n.path)
				n.watched = false
				s.evictor.Remove(n.path)
			}
			s.markPending(n.path)
		}
		return
	}

	if flipped {
		if existedNow {
			if watchErr := s.fsw.Add(n.path); watchErr != nil {
				s.logger.Warnf("unable to watch %s: %s", n.path, watchErr.Error())
				n.existedOnLastProbe = false
			} else {
				n.watched = true
			}
		} else {
			_ = s.fsw.Remove(n.path)
			n.watched = false
		}
	}

	if existedNow {
		for _, child := range n.children {
			s.probeNode(child)
		}
	} else {
		s.markSubtreeGone(n)
	}
}

// markSubtreeGone marks every descendant of n as no longer existing, without
// re-stating them (they cannot exist if n, their parent directory, does
// not), firing pending-change notifications for any affected leaf.
func (s *watcherState) markSubtreeGone(n *node) {
	for _, child := range n.children {
		if !child.existedOnLastProbe {
			continue
		}
		child.existedOnLastProbe = false
		if child.isLeaf() {
			if child.watched {
				_ = s.fsw.Remove(child.path)
				child.watched = false
				s.evictor.Remove(child.path)
			}
			s.markPending(child.path)
		} else {
			_ = s.fsw.Remove(child.path)
			child.watched = false
			s.markSubtreeGone(child)
		}
	}
}

func (s *watcherState) markPending(path string) {
	if len(s.pending) >= maximumPendingPaths {
		s.overflowed = true
		return
	}
	s.pending[path] = true
}
