package ctm

const (
	magic         = "OCTM"
	formatVersion = 5

	methodRaw = "RAW\x00"
	methodMG1 = "MG1\x00"
	methodMG2 = "MG2\x00"

	tagIndices  = "INDX"
	tagVertices = "VERT"
	tagNormals  = "NORM"
	tagTexCoord = "TEXC"
	tagAttrib   = "ATTR"

	flagHasNormals = 1 << 0
)

type header struct {
	method        string
	vertexCount   int
	triangleCount int
	uvMapCount    int
	attribMapCount int
	flags         uint32
	comment       string
}

func (h *header) hasNormals() bool {
	return h.flags&flagHasNormals != 0
}
