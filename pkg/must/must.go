// Package must wraps operations whose errors are worth logging but not
// worth propagating — typically cleanup paths (closing a watcher, removing
// a stale file) where the caller has already committed to proceeding
// regardless of the outcome.
package must

import (
	"io"
	"os"

	"github.com/sceneforge/meshpipeline/pkg/logging"
)

// Close closes c, logging (rather than returning) any error. Used by
// watching.Watcher.CanOpenForRead to close its probe handle, where the
// caller has no meaningful way to react to a close failure.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("unable to close: %s", err.Error())
	}
}

// OSRemove removes the named file, logging rather than returning any error.
func OSRemove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil {
		logger.Warnf("unable to remove '%s': %s", name, err.Error())
	}
}
