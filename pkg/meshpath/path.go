// Package meshpath provides normalization for the absolute paths used as
// cache keys throughout the mesh resource pipeline (watching, subscription,
// and mesh cache all key their state off of these normalized strings).
package meshpath

import (
	"path/filepath"

	"github.com/pkg/errors"
)

// Normalize converts path to an absolute, lexically cleaned form suitable for
// use as a cache key. Two paths referring to the same file are guaranteed to
// normalize to the same string as long as they agree on case and do not
// differ only by symbolic links (normalization is purely lexical, matching
// filepath.Abs/filepath.Clean semantics; it does not resolve symlinks or
// consult the filesystem).
func Normalize(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}

	absolute, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(err, "unable to compute absolute path")
	}

	return absolute, nil
}

// Equal reports whether two paths refer to the same normalized location. It
// normalizes both inputs before comparing; normalization failures compare as
// unequal.
func Equal(a, b string) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	return na == nb
}

// Extension returns the lowercased file extension (including the leading
// dot) of path, e.g. ".gltf", ".glb", ".ctm". It returns "" if path has no
// extension.
func Extension(path string) string {
	ext := filepath.Ext(path)
	out := make([]byte, len(ext))
	for i := 0; i < len(ext); i++ {
		c := ext[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
