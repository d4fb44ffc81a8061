package ctm

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sceneforge/meshpipeline/pkg/loader"
	"github.com/sceneforge/meshpipeline/pkg/mesh"
)

func writeString(t *testing.T, buf *bytes.Buffer, s string) {
	t.Helper()
	require.NoError(t, binary.Write(buf, binary.LittleEndian, uint32(len(s))))
	buf.WriteString(s)
}

func buildRawCTM(t *testing.T, withNormals bool, comment string) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString(magic)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(formatVersion)))
	buf.WriteString(methodRaw)

	vertexCount := 3
	triangleCount := 1
	var flags uint32
	if withNormals {
		flags = flagHasNormals
	}

	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(vertexCount)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(triangleCount)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // uvMapCount
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // attribMapCount
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, flags))
	writeString(t, &buf, comment)

	buf.WriteString(tagIndices)
	for _, idx := range []uint32{0, 1, 2} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, idx))
	}

	buf.WriteString(tagVertices)
	positions := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	for _, f := range positions {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, f))
	}

	if withNormals {
		buf.WriteString(tagNormals)
		normals := []float32{0, 0, 1, 0, 0, 1, 0, 0, 1}
		for _, f := range normals {
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, f))
		}
	}

	return buf.Bytes()
}

func TestDecodeRawTriangleNoNormals(t *testing.T) {
	content := buildRawCTM(t, false, "")

	m, err := decode(content)
	require.NoError(t, err)
	require.Equal(t, 3, m.NumVertices)
	require.Equal(t, []uint32{0, 1, 2}, m.Indices)
	require.Equal(t, []string{"material"}, m.Materials)
	require.NotNil(t, m.Attribute(mesh.AttributePosition))
	require.Nil(t, m.Attribute(mesh.AttributeNormal))
}

func TestDecodeRawTriangleWithNormalsAndComment(t *testing.T) {
	content := buildRawCTM(t, true, "exported by a test")

	m, err := decode(content)
	require.NoError(t, err)
	require.NotNil(t, m.Attribute(mesh.AttributeNormal))
	require.Equal(t, "exported by a test", m.Metadata["comment"])
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := decode([]byte("NOTCTM00000000000000"))
	require.Error(t, err)
}

func TestLoaderLoadsFromDisk(t *testing.T) {
	content := buildRawCTM(t, false, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "mesh.ctm")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	l := New(path)
	require.Equal(t, 1, l.MeshCount())

	m, err := l.LoadMesh(loader.MeshDescriptor{SubmeshIndex: 0})
	require.NoError(t, err)
	require.Equal(t, 3, m.NumVertices)

	_, err = l.LoadMesh(loader.MeshDescriptor{SubmeshIndex: 1})
	require.Error(t, err)
	var outOfRange *loader.OutOfRange
	require.ErrorAs(t, err, &outOfRange)
}
