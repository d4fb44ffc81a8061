package meshpath

import (
	"path/filepath"
	"testing"
)

func TestNormalizeAbsolute(t *testing.T) {
	abs, err := filepath.Abs("a/../b/c.gltf")
	if err != nil {
		t.Fatal(err)
	}
	got, err := Normalize("a/../b/c.gltf")
	if err != nil {
		t.Fatal(err)
	}
	if got != abs {
		t.Errorf("Normalize() = %q, want %q", got, abs)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if _, err := Normalize(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestEqual(t *testing.T) {
	if !Equal("a/./b.gltf", "a/b.gltf") {
		t.Error("expected lexically equivalent paths to be Equal")
	}
	if Equal("", "") {
		t.Error("expected empty paths to compare unequal (normalization fails)")
	}
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"/a/b/cube.gltf":  ".gltf",
		"/a/b/cube.GLB":   ".glb",
		"/a/b/cube.ctm":   ".ctm",
		"/a/b/noext":      "",
		"/a/b/cube.CtM":   ".ctm",
	}
	for path, want := range cases {
		if got := Extension(path); got != want {
			t.Errorf("Extension(%q) = %q, want %q", path, got, want)
		}
	}
}
