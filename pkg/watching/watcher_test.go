package watching

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// maximumEventWaitTime is the maximum amount of time a test will wait for a
// coalesced event to arrive before failing.
const maximumEventWaitTime = 5 * time.Second

// verifyEvent waits until a coalesced event has arrived for every one of
// paths, failing the test if the deadline elapses first.
func verifyEvent(t *testing.T, w *Watcher, paths map[string]bool) {
	t.Helper()

	deadline := time.NewTimer(maximumEventWaitTime)
	defer deadline.Stop()

	for len(paths) > 0 {
		select {
		case path := <-w.Events():
			delete(paths, path)
		case err := <-w.Errors():
			t.Fatal("watcher error:", err)
		case <-deadline.C:
			t.Fatal("event reception deadline exceeded:", paths)
		}
	}
}

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := New(nil)
	if err != nil {
		t.Fatal("unable to create watcher:", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestAddRemoveIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t)

	path := filepath.Join(dir, "mesh.gltf")
	if err := w.Add(path); err != nil {
		t.Fatal("Add failed:", err)
	}
	if err := w.Add(path); err != nil {
		t.Fatal("second Add failed:", err)
	}
	if err := w.Remove(path); err != nil {
		t.Fatal("Remove failed:", err)
	}
	if err := w.Remove(path); err != nil {
		t.Fatal("second Remove failed:", err)
	}
}

func TestNonExistentPathTolerated(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t)

	path := filepath.Join(dir, "does", "not", "exist", "mesh.gltf")
	if err := w.Add(path); err != nil {
		t.Fatal("Add failed:", err)
	}
}

func TestFileChangeCoalesced(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mesh.gltf")
	if err := os.WriteFile(path, []byte("initial"), 0o600); err != nil {
		t.Fatal("unable to create test file:", err)
	}

	w := newTestWatcher(t)
	if err := w.Add(path); err != nil {
		t.Fatal("Add failed:", err)
	}

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("update"), 0o600); err != nil {
			t.Fatal("unable to write test file:", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	verifyEvent(t, w, map[string]bool{path: true})
}

func TestDirectoryRecreation(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	path := filepath.Join(sub, "mesh.gltf")

	w := newTestWatcher(t)
	if err := w.Add(path); err != nil {
		t.Fatal("Add failed:", err)
	}

	if err := os.Mkdir(sub, 0o700); err != nil {
		t.Fatal("unable to create subdirectory:", err)
	}
	if err := os.WriteFile(path, []byte("hi"), 0o600); err != nil {
		t.Fatal("unable to create test file:", err)
	}

	verifyEvent(t, w, map[string]bool{path: true})
}

func TestCanOpenForRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mesh.gltf")

	w := newTestWatcher(t)
	if w.CanOpenForRead(path) {
		t.Error("expected CanOpenForRead to fail for a non-existent file")
	}

	if err := os.WriteFile(path, []byte("hi"), 0o600); err != nil {
		t.Fatal("unable to create test file:", err)
	}
	if !w.CanOpenForRead(path) {
		t.Error("expected CanOpenForRead to succeed for an existing file")
	}
}
