package gltf

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sceneforge/meshpipeline/pkg/loader"
	"github.com/sceneforge/meshpipeline/pkg/mesh"
)

func writeTriangleGLTF(t *testing.T) string {
	t.Helper()

	var buf bytes.Buffer
	positions := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	for _, f := range positions {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, f))
	}
	indices := []uint16{0, 1, 2}
	for _, idx := range indices {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, idx))
	}
	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())

	docJSON := fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"nodes": [{"name": "Triangle", "mesh": 0}],
		"meshes": [{"name": "Tri", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6}
		],
		"buffers": [{"byteLength": 42, "uri": "data:application/octet-stream;base64,%s"}]
	}`, encoded)

	dir := t.TempDir()
	path := filepath.Join(dir, "triangle.gltf")
	require.NoError(t, os.WriteFile(path, []byte(docJSON), 0o644))
	return path
}

func TestLoadTriangleFromEmbeddedBuffer(t *testing.T) {
	path := writeTriangleGLTF(t)

	l, err := New(path, nil)
	require.NoError(t, err)
	require.Equal(t, 1, l.MeshCount())

	m, err := l.LoadMesh(loader.MeshDescriptor{SubmeshIndex: 0})
	require.NoError(t, err)
	require.Equal(t, 3, m.NumVertices)
	require.Equal(t, []uint32{0, 1, 2}, m.Indices)
	require.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, m.Triangles)

	g := l.Scenegraph()
	require.Len(t, g.Nodes, 1)
	require.Equal(t, "Triangle", g.Nodes[0].Name)
	require.Equal(t, -1, g.Nodes[0].ParentIndex)
	require.Equal(t, []int{0}, g.Nodes[0].Submeshes)
}

func TestBakeAllSubmeshesIdentityTransform(t *testing.T) {
	path := writeTriangleGLTF(t)

	l, err := New(path, nil)
	require.NoError(t, err)

	baked, err := l.LoadMesh(loader.MeshDescriptor{BakeAllSubmeshes: true})
	require.NoError(t, err)
	require.Equal(t, 3, baked.NumVertices)
	require.Len(t, baked.Submeshes, 1)
	require.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, baked.Triangles)
}

func writeTriangleGLTFWithVec3Color(t *testing.T) string {
	t.Helper()

	var buf bytes.Buffer
	positions := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	for _, f := range positions {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, f))
	}
	colors := []float32{1, 0, 0, 0, 1, 0, 0, 0, 1}
	for _, f := range colors {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, f))
	}
	indices := []uint16{0, 1, 2}
	for _, idx := range indices {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, idx))
	}
	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())

	docJSON := fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"nodes": [{"name": "Triangle", "mesh": 0}],
		"meshes": [{"name": "Tri", "primitives": [{"attributes": {"POSITION": 0, "COLOR_0": 1}, "indices": 2}]}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 2, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 36},
			{"buffer": 0, "byteOffset": 72, "byteLength": 6}
		],
		"buffers": [{"byteLength": 78, "uri": "data:application/octet-stream;base64,%s"}]
	}`, encoded)

	dir := t.TempDir()
	path := filepath.Join(dir, "triangle-color.gltf")
	require.NoError(t, os.WriteFile(path, []byte(docJSON), 0o644))
	return path
}

func TestColorAttributeAcceptsVec3Accessor(t *testing.T) {
	path := writeTriangleGLTFWithVec3Color(t)

	l, err := New(path, nil)
	require.NoError(t, err)

	m, err := l.LoadMesh(loader.MeshDescriptor{SubmeshIndex: 0})
	require.NoError(t, err)

	color := m.Attribute(mesh.IndexedName(mesh.AttributeColor, 0))
	require.NotNil(t, color)
	require.Equal(t, mesh.Vec3f, color.Type)
	require.Equal(t, []float32{1, 0, 0, 0, 1, 0, 0, 0, 1}, color.Data)
}

func TestSubmeshIndexOutOfRange(t *testing.T) {
	path := writeTriangleGLTF(t)

	l, err := New(path, nil)
	require.NoError(t, err)

	_, err = l.LoadMesh(loader.MeshDescriptor{SubmeshIndex: 5})
	require.Error(t, err)
	var outOfRange *loader.OutOfRange
	require.ErrorAs(t, err, &outOfRange)
	require.Equal(t, outOfRange.Error(), l.LastError())
}

func TestLfsPlaceholderDetected(t *testing.T) {
	content := "version https://git-lfs.github.com/spec/v1\noid sha256:0000000000000000000000000000000000000000000000000000000000000000\nsize 123\n"
	dir := t.TempDir()
	path := filepath.Join(dir, "placeholder.gltf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := New(path, nil)
	require.Error(t, err)
	var placeholder *loader.LfsPlaceholder
	require.ErrorAs(t, err, &placeholder)
}
