package gltf

import (
	"encoding/base64"
	"strings"
)

// decodeDataURI decodes a "data:...;base64,..." URI, as used by glTF files
// that embed their buffer inline rather than referencing an external file.
func decodeDataURI(uri string) ([]byte, bool) {
	const prefix = "data:"
	if !strings.HasPrefix(uri, prefix) {
		return nil, false
	}
	comma := strings.IndexByte(uri, ',')
	if comma == -1 {
		return nil, false
	}
	meta := uri[len(prefix):comma]
	if !strings.Contains(meta, "base64") {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, false
	}
	return data, true
}
