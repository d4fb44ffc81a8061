package subscription

import "testing"

type fakeWatcher struct {
	added   map[string]int
	removed map[string]int
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{added: make(map[string]int), removed: make(map[string]int)}
}

func (f *fakeWatcher) Add(path string) error {
	f.added[path]++
	return nil
}

func (f *fakeWatcher) Remove(path string) error {
	f.removed[path]++
	return nil
}

func TestSubscribeAddsWatchOnce(t *testing.T) {
	w := newFakeWatcher()
	r := New(w, nil, nil)

	h1, err := r.Subscribe("/a/b.gltf", func(string) {})
	if err != nil {
		t.Fatal(err)
	}
	h2, err := r.Subscribe("/a/b.gltf", func(string) {})
	if err != nil {
		t.Fatal(err)
	}

	if w.added["/a/b.gltf"] != 1 {
		t.Fatalf("watcher.Add called %d times, want 1", w.added["/a/b.gltf"])
	}

	h1.Close()
	if w.removed["/a/b.gltf"] != 0 {
		t.Fatal("watcher.Remove called before last handle dropped")
	}
	h2.Close()
	if w.removed["/a/b.gltf"] != 1 {
		t.Fatalf("watcher.Remove called %d times, want 1", w.removed["/a/b.gltf"])
	}
}

func TestDropLastHandleEvictsCache(t *testing.T) {
	w := newFakeWatcher()
	evicted := make([]string, 0, 1)
	r := New(w, func(path string) { evicted = append(evicted, path) }, nil)

	h, err := r.Subscribe("/a/b.gltf", func(string) {})
	if err != nil {
		t.Fatal(err)
	}
	h.Close()

	if len(evicted) != 1 || evicted[0] != "/a/b.gltf" {
		t.Fatalf("onEmptied not invoked as expected: %v", evicted)
	}
}

func TestDispatchInvokesEachCallbackOnce(t *testing.T) {
	w := newFakeWatcher()
	r := New(w, nil, nil)

	var calls []string
	r.Subscribe("/a/b.gltf", func(path string) { calls = append(calls, "first") })
	r.Subscribe("/a/b.gltf", func(path string) { calls = append(calls, "second") })

	r.Dispatch("/a/b.gltf")

	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d: %v", len(calls), calls)
	}
}

func TestDispatchToleratesReentrantUnsubscribe(t *testing.T) {
	w := newFakeWatcher()
	r := New(w, nil, nil)

	var secondCalled bool
	var firstHandle *Handle
	firstHandle, _ = r.Subscribe("/a/b.gltf", func(path string) {
		firstHandle.Close()
	})
	r.Subscribe("/a/b.gltf", func(path string) { secondCalled = true })

	r.Dispatch("/a/b.gltf")

	if !secondCalled {
		t.Fatal("second callback should still fire after first unsubscribes itself mid-dispatch")
	}
}

func TestDispatchToleratesReentrantSubscribe(t *testing.T) {
	w := newFakeWatcher()
	r := New(w, nil, nil)

	var thirdCalled bool
	r.Subscribe("/a/b.gltf", func(path string) {
		r.Subscribe("/a/b.gltf", func(path string) { thirdCalled = true })
	})

	r.Dispatch("/a/b.gltf")

	if thirdCalled {
		t.Fatal("callback registered during dispatch should not fire in the same dispatch pass")
	}

	thirdCalled = false
	r.Dispatch("/a/b.gltf")
	if !thirdCalled {
		t.Fatal("callback registered during the previous dispatch should fire on the next one")
	}
}

func TestSubscribeNormalizesPath(t *testing.T) {
	w := newFakeWatcher()
	r := New(w, nil, nil)

	h, err := r.Subscribe("/a/./b/../b.gltf", func(string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if !r.HasSubscribers("/a/b.gltf") {
		t.Fatal("expected lexically equivalent path to be recognized as subscribed")
	}
	if w.added["/a/b.gltf"] != 1 {
		t.Fatalf("watcher.Add called with unnormalized path: %v", w.added)
	}
}

func TestHasSubscribers(t *testing.T) {
	w := newFakeWatcher()
	r := New(w, nil, nil)

	if r.HasSubscribers("/a/b.gltf") {
		t.Fatal("expected no subscribers before Subscribe")
	}
	h, _ := r.Subscribe("/a/b.gltf", func(string) {})
	if !r.HasSubscribers("/a/b.gltf") {
		t.Fatal("expected subscribers after Subscribe")
	}
	h.Close()
	if r.HasSubscribers("/a/b.gltf") {
		t.Fatal("expected no subscribers after last Close")
	}
}
