// Package lfsdetect recognizes Git LFS pointer files masquerading as binary
// mesh assets, so that a parse failure against such a file can be reported
// as "Git LFS placeholder file detected" instead of a confusing decoder
// error.
package lfsdetect

import "bytes"

// signature is the fixed prefix of every Git LFS pointer file.
const signature = "version https://git-lfs"

// probeSize is the number of leading bytes inspected; pointer files are
// always under 200 bytes, so 128 comfortably covers the signature line.
const probeSize = 128

// IsPlaceholder reports whether the first probeSize bytes of content contain
// the Git LFS pointer-file signature.
func IsPlaceholder(content []byte) bool {
	probe := content
	if len(probe) > probeSize {
		probe = probe[:probeSize]
	}
	return bytes.Contains(probe, []byte(signature))
}
