package ctm

import (
	"github.com/pkg/errors"

	"github.com/sceneforge/meshpipeline/pkg/mesh"
)

func parseHeader(c *cursor) (*header, error) {
	m, err := c.tag()
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, errors.New("not an OpenCTM file")
	}

	version, err := c.uint32()
	if err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, errors.Errorf("unsupported OpenCTM format version %d", version)
	}

	method, err := c.tag()
	if err != nil {
		return nil, err
	}

	h := &header{method: method}
	if h.vertexCount, err = c.int32(); err != nil {
		return nil, err
	}
	if h.triangleCount, err = c.int32(); err != nil {
		return nil, err
	}
	if h.uvMapCount, err = c.int32(); err != nil {
		return nil, err
	}
	if h.attribMapCount, err = c.int32(); err != nil {
		return nil, err
	}
	if h.flags, err = c.uint32(); err != nil {
		return nil, err
	}
	if h.comment, err = c.lengthPrefixedString(); err != nil {
		return nil, err
	}

	return h, nil
}

// decodeRaw parses the RAW-method body: indices, vertices, an optional
// normal stream, UV maps, and generic attribute maps, each guarded by its
// own 4-byte chunk tag.
func decodeRaw(c *cursor, h *header) (*mesh.Mesh, error) {
	tag, err := c.tag()
	if err != nil {
		return nil, err
	}
	if tag != tagIndices {
		return nil, errors.Errorf("expected %s chunk, got %q", tagIndices, tag)
	}
	rawIndices, err := c.uint32s(h.triangleCount * 3)
	if err != nil {
		return nil, errors.Wrap(err, "indices")
	}

	if tag, err = c.tag(); err != nil {
		return nil, err
	}
	if tag != tagVertices {
		return nil, errors.Errorf("expected %s chunk, got %q", tagVertices, tag)
	}
	positions, err := c.floats(h.vertexCount * 3)
	if err != nil {
		return nil, errors.Wrap(err, "vertices")
	}

	m := &mesh.Mesh{
		NumVertices: h.vertexCount,
		Indices:     rawIndices,
		Materials:   []string{"material"},
		Metadata:    map[string]string{},
		Submeshes:   []mesh.SubmeshRange{{Start: 0, Count: uint32(len(rawIndices))}},
	}
	if h.comment != "" {
		m.Metadata["comment"] = h.comment
	}
	m.Attributes = append(m.Attributes, mesh.Attribute{
		Name: mesh.AttributePosition, Type: mesh.Vec3f, Data: positions,
	})

	if h.hasNormals() {
		if tag, err = c.tag(); err != nil {
			return nil, err
		}
		if tag != tagNormals {
			return nil, errors.Errorf("expected %s chunk, got %q", tagNormals, tag)
		}
		normals, err := c.floats(h.vertexCount * 3)
		if err != nil {
			return nil, errors.Wrap(err, "normals")
		}
		m.Attributes = append(m.Attributes, mesh.Attribute{
			Name: mesh.AttributeNormal, Type: mesh.Vec3f, Data: normals,
		})
	}

	for i := 0; i < h.uvMapCount; i++ {
		if tag, err = c.tag(); err != nil {
			return nil, err
		}
		if tag != tagTexCoord {
			return nil, errors.Errorf("expected %s chunk, got %q", tagTexCoord, tag)
		}
		name, err := c.lengthPrefixedString()
		if err != nil {
			return nil, errors.Wrap(err, "uv map name")
		}
		if _, err = c.lengthPrefixedString(); err != nil { // file reference, unused
			return nil, errors.Wrap(err, "uv map file reference")
		}
		data, err := c.floats(h.vertexCount * 2)
		if err != nil {
			return nil, errors.Wrapf(err, "uv map %q", name)
		}
		if name == "" {
			name = mesh.IndexedName(mesh.AttributeTextureCoordinate, i)
		}
		m.Attributes = append(m.Attributes, mesh.Attribute{Name: name, Type: mesh.Vec2f, Data: data})
	}

	for i := 0; i < h.attribMapCount; i++ {
		if tag, err = c.tag(); err != nil {
			return nil, err
		}
		if tag != tagAttrib {
			return nil, errors.Errorf("expected %s chunk, got %q", tagAttrib, tag)
		}
		name, err := c.lengthPrefixedString()
		if err != nil {
			return nil, errors.Wrap(err, "attribute map name")
		}
		data, err := c.floats(h.vertexCount * 4)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute map %q", name)
		}
		if name == "" {
			name = mesh.IndexedName(mesh.AttributeColor, i)
		}
		m.Attributes = append(m.Attributes, mesh.Attribute{Name: name, Type: mesh.Vec4f, Data: data})
	}

	m.ComputeTriangles()
	return m, nil
}

func decode(content []byte) (*mesh.Mesh, error) {
	c := &cursor{data: content}

	h, err := parseHeader(c)
	if err != nil {
		return nil, err
	}

	switch h.method {
	case methodRaw:
		return decodeRaw(c, h)
	case methodMG1, methodMG2:
		return nil, errors.Errorf("compression method %q requires LZMA, which is not supported", h.method[:3])
	default:
		return nil, errors.Errorf("unrecognized OpenCTM compression method %q", h.method)
	}
}
