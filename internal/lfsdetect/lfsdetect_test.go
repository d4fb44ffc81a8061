package lfsdetect

import "testing"

func TestIsPlaceholder(t *testing.T) {
	placeholder := []byte("version https://git-lfs.github.com/spec/v1\noid sha256:abc\nsize 131\n")
	if !IsPlaceholder(placeholder) {
		t.Error("expected placeholder to be detected")
	}

	glb := []byte("glTF\x02\x00\x00\x00")
	if IsPlaceholder(glb) {
		t.Error("expected a real .glb header not to be detected as a placeholder")
	}
}
