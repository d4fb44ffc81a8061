// Package logging provides the logger used across the mesh resource
// pipeline: a nil-safe *Logger so that components can be constructed
// without a logger and simply stop logging, and the standard library's
// log package as the underlying sink.
package logging

import (
	"log"
	"os"
)

func init() {
	// Route the standard logger to standard error so that decoder and
	// watcher diagnostics don't interleave with any consumer-owned stdout
	// output (meshes and scene graphs are returned as values, never printed
	// by this module).
	log.SetOutput(os.Stderr)
}

// DebugEnabled controls whether Logger.Debug* methods produce output. It
// defaults to false; callers embedding this module in a larger editor may
// flip it at startup (there is no config file or flag parsing here, per the
// module's "no CLI, no env vars" scope).
var DebugEnabled = false
