package gltf

// The types in this file mirror the glTF 2.0 JSON schema directly via
// encoding/json struct tags, following the same approach as the reference
// loader types this decoder is grounded on. Only the fields this pipeline
// actually consumes are kept — texture/image/sampler payload fields that
// would only matter to a renderer are omitted, since GPU upload is
// explicitly out of scope.

type document struct {
	Asset       asset        `json:"asset"`
	Scene       *int         `json:"scene,omitempty"`
	Scenes      []scene      `json:"scenes,omitempty"`
	Nodes       []node       `json:"nodes,omitempty"`
	Meshes      []gltfMesh   `json:"meshes,omitempty"`
	Accessors   []accessor   `json:"accessors,omitempty"`
	BufferViews []bufferView `json:"bufferViews,omitempty"`
	Buffers     []buffer     `json:"buffers,omitempty"`
	Materials   []material   `json:"materials,omitempty"`
	Skins       []skin       `json:"skins,omitempty"`
	Animations  []animation  `json:"animations,omitempty"`
}

type asset struct {
	Version string `json:"version"`
}

type scene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

type node struct {
	Name        string       `json:"name,omitempty"`
	Children    []int        `json:"children,omitempty"`
	Mesh        *int         `json:"mesh,omitempty"`
	Skin        *int         `json:"skin,omitempty"`
	Matrix      *[16]float32 `json:"matrix,omitempty"`
	Translation *[3]float32  `json:"translation,omitempty"`
	Rotation    *[4]float32  `json:"rotation,omitempty"`
	Scale       *[3]float32  `json:"scale,omitempty"`
}

type gltfMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []gltfPrimitive `json:"primitives"`
	Extras     map[string]interface{} `json:"extras,omitempty"`
}

type gltfPrimitive struct {
	Attributes map[string]int   `json:"attributes"`
	Indices    *int             `json:"indices,omitempty"`
	Material   *int             `json:"material,omitempty"`
	Mode       *int             `json:"mode,omitempty"`
	Targets    []map[string]int `json:"targets,omitempty"`
}

const primitiveModeTriangles = 4

type accessor struct {
	Name          string  `json:"name,omitempty"`
	BufferView    *int    `json:"bufferView,omitempty"`
	ByteOffset    int     `json:"byteOffset,omitempty"`
	ComponentType int     `json:"componentType"`
	Normalized    bool    `json:"normalized,omitempty"`
	Count         int     `json:"count"`
	Type          string  `json:"type"`
}

const (
	componentByte          = 5120
	componentUnsignedByte  = 5121
	componentShort         = 5122
	componentUnsignedShort = 5123
	componentUnsignedInt   = 5125
	componentFloat         = 5126
)

const (
	typeScalar = "SCALAR"
	typeVec2   = "VEC2"
	typeVec3   = "VEC3"
	typeVec4   = "VEC4"
)

type bufferView struct {
	Buffer     int  `json:"buffer"`
	ByteOffset int  `json:"byteOffset,omitempty"`
	ByteLength int  `json:"byteLength"`
	ByteStride *int `json:"byteStride,omitempty"`
}

type buffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
	data       []byte // populated during import, not part of the JSON schema
}

type material struct {
	Name string `json:"name,omitempty"`
}

type skin struct {
	Name   string `json:"name,omitempty"`
	Joints []int  `json:"joints"`
}

type animation struct {
	Name     string             `json:"name,omitempty"`
	Channels []animationChannel `json:"channels"`
	Samplers []animationSampler `json:"samplers"`
}

type animationChannel struct {
	Sampler int             `json:"sampler"`
	Target  animationTarget `json:"target"`
}

type animationTarget struct {
	Node *int   `json:"node,omitempty"`
	Path string `json:"path"`
}

type animationSampler struct {
	Input         int    `json:"input"`
	Output        int    `json:"output"`
	Interpolation string `json:"interpolation,omitempty"`
}

const (
	glbMagic     = 0x46546c67
	glbVersion   = 2
	glbChunkJSON = 0x4e4f534a
	glbChunkBIN  = 0x004e4942
)
