package watching

import "path/filepath"

// node is one entry in the watch tree: it mirrors one path component
// on the route from a watched file up to the filesystem root. Every watched
// file is a leaf (no children); every directory on the route to a leaf is an
// interior node. The tree is owned entirely by its Watcher and never shared,
// so parent is a plain (non-owning) pointer rather than an arena index.
type node struct {
	path   string
	parent *node

	// children is nil for leaves. Keyed by base name so that a directory
	// event can be resolved to the specific child(ren) it might affect
	// without restating every file in the directory.
	children map[string]*node

	// existedOnLastProbe is the result of the most recent stat of path. A
	// node is retained even when this is false so that re-creation of a
	// deleted directory (or file) can be detected on the next probe.
	existedOnLastProbe bool

	// watched records whether an OS-level watch is currently installed on
	// path, so attach/detach calls stay idempotent.
	watched bool
}

// isLeaf reports whether n corresponds to a watched file rather than an
// intermediate directory on the way to one.
func (n *node) isLeaf() bool {
	return len(n.children) == 0
}

func (n *node) baseName() string {
	return filepath.Base(n.path)
}
