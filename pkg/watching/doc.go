// Package watching implements a non-recursive, single-path-at-a-time
// filesystem watcher tolerant of paths (and path prefixes) that do not yet
// exist on disk: it observes one absolute path for create/modify/delete/
// rename activity and reports a single coalesced change after a quiescent
// period, regardless of how many raw OS events arrived underneath it.
package watching
