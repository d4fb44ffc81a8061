package watching

import (
	"time"

	"github.com/pkg/errors"
)

const (
	// coalescingWindow is the quiescent period after which a burst of raw
	// filesystem events for a path is collapsed into a single changed
	// event. Fixed per the pipeline's "no CLI, no env vars" contract.
	coalescingWindow = 100 * time.Millisecond

	// maximumPendingPaths bounds the number of distinct paths that may
	// accumulate in a single coalescing window before the watcher gives up
	// and reports ErrTooManyPendingPaths, a defensive bound against
	// unbounded event storms.
	maximumPendingPaths = 10 * 1024

	// maximumLiveWatches bounds the number of leaf (file-level) OS watches
	// the watcher will hold open at once, evicting the least recently used
	// beyond that via watcherState.evictor. Directory watches are not
	// counted against it.
	maximumLiveWatches = 8 * 1024
)

var (
	// ErrWatchTerminated indicates that the watcher has already been
	// terminated and can no longer accept Add/Remove calls.
	ErrWatchTerminated = errors.New("watcher terminated")

	// ErrTooManyPendingPaths indicates that more paths changed within a
	// single coalescing window than the watcher is willing to track.
	ErrTooManyPendingPaths = errors.New("too many pending paths")
)
