package gltf

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/sceneforge/meshpipeline/internal/lfsdetect"
	"github.com/sceneforge/meshpipeline/pkg/loader"
)

// parseDocument reads absolutePath (either .gltf or .glb) and returns the
// decoded document with every buffer's data resolved.
func parseDocument(absolutePath string) (*document, error) {
	content, err := os.ReadFile(absolutePath)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", absolutePath)
	}

	var doc *document
	var parseErr error
	if filepath.Ext(absolutePath) == ".glb" {
		doc, parseErr = parseGLB(content)
	} else {
		doc, parseErr = parseGLTFJSON(content, nil)
	}

	if parseErr != nil {
		if lfsdetect.IsPlaceholder(content) {
			return nil, loader.NewLfsPlaceholder()
		}
		return nil, &loader.ParseError{Detail: parseErr.Error()}
	}

	if err := resolveBuffers(doc, filepath.Dir(absolutePath)); err != nil {
		return nil, &loader.ParseError{Detail: err.Error()}
	}

	return doc, nil
}

// parseGLTFJSON decodes the JSON+external-buffers form. embeddedBin, if
// non-nil, is the GLB BIN chunk to use for the (at most one) buffer that
// omits a uri, matching the glTF binary container convention.
func parseGLTFJSON(content []byte, embeddedBin []byte) (*document, error) {
	var doc document
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, errors.Wrap(err, "invalid glTF JSON")
	}
	if len(doc.Buffers) > 0 && doc.Buffers[0].URI == "" && embeddedBin != nil {
		doc.Buffers[0].data = embeddedBin
	}
	return &doc, nil
}

// parseGLB decodes the binary container form: a 12-byte header, a JSON
// chunk, and an optional BIN chunk.
func parseGLB(content []byte) (*document, error) {
	if len(content) < 12 {
		return nil, errors.New("glb file too short for header")
	}

	magic := binary.LittleEndian.Uint32(content[0:4])
	version := binary.LittleEndian.Uint32(content[4:8])
	length := binary.LittleEndian.Uint32(content[8:12])

	if magic != glbMagic {
		return nil, errors.New("invalid glb magic")
	}
	if version != glbVersion {
		return nil, errors.Errorf("unsupported glb version %d", version)
	}
	if int(length) > len(content) {
		return nil, errors.Errorf("glb header declares length %s but file is %s",
			humanize.Bytes(uint64(length)), humanize.Bytes(uint64(len(content))))
	}

	var jsonChunk, binChunk []byte
	offset := 12
	for offset+8 <= len(content) {
		chunkLength := binary.LittleEndian.Uint32(content[offset : offset+4])
		chunkType := binary.LittleEndian.Uint32(content[offset+4 : offset+8])
		start := offset + 8
		end := start + int(chunkLength)
		if end > len(content) {
			return nil, errors.New("glb chunk extends past end of file")
		}

		switch chunkType {
		case glbChunkJSON:
			jsonChunk = content[start:end]
		case glbChunkBIN:
			binChunk = content[start:end]
		}

		offset = end
	}

	if jsonChunk == nil {
		return nil, errors.New("glb file has no JSON chunk")
	}

	return parseGLTFJSON(jsonChunk, binChunk)
}

// resolveBuffers fills in buffer.data for every buffer that doesn't already
// have it (i.e. every buffer with a uri), resolving relative/data URIs
// against dir, the document's own directory.
func resolveBuffers(doc *document, dir string) error {
	for i := range doc.Buffers {
		b := &doc.Buffers[i]
		if b.data != nil {
			continue
		}
		if b.URI == "" {
			return errors.Errorf("buffer %d has no uri and no embedded data", i)
		}
		if data, ok := decodeDataURI(b.URI); ok {
			b.data = data
			continue
		}
		path := filepath.Join(dir, b.URI)
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "unable to read external buffer %s", path)
		}
		b.data = data
	}
	return nil
}
