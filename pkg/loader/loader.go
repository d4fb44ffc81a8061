// Package loader defines the polymorphic decoder contract shared
// by pkg/gltf and pkg/ctm, and the typed error kinds decoders report.
// The two decoders are tagged variants behind this one interface rather
// than a base class: they share no state and are distinguished only by
// which concrete type a caller holds.
package loader

import (
	"github.com/sceneforge/meshpipeline/pkg/mesh"
	"github.com/sceneforge/meshpipeline/pkg/sampler"
	"github.com/sceneforge/meshpipeline/pkg/scenegraph"
)

// MeshDescriptor is a decoder's mesh-materialization input.
type MeshDescriptor struct {
	AbsolutePath     string
	SubmeshIndex     int
	BakeAllSubmeshes bool
}

// Loader is the mesh cache entry's value type.
type Loader interface {
	// LoadMesh materializes a mesh per descriptor, or returns an error
	// (also retained for LastError).
	LoadMesh(descriptor MeshDescriptor) (*mesh.Mesh, error)

	// Scenegraph returns the decoded scene graph. A format without one
	// (OpenCTM) returns an empty, non-nil graph.
	Scenegraph() *scenegraph.Graph

	// MeshCount returns the number of flattened primitives available for
	// SubmeshIndex.
	MeshCount() int

	// SamplerData returns the extracted sampler for (animIndex,
	// samplerIndex), or (nil, nil) if either index is out of range —
	// a missing index is treated as "return null", not an error.
	SamplerData(animIndex, samplerIndex int) (*sampler.Data, error)

	// LoadSkin returns the skin at index, or an error if out of range or
	// if the format has no skins.
	LoadSkin(index int) (*scenegraph.Skin, error)

	// LastError returns the detail string of the most recent LoadMesh
	// failure, or "" if none has occurred since construction or the last
	// Reset. A later successful LoadMesh does not clear it.
	LastError() string

	// Reset discards any cached decode state so the next LoadMesh re-parses
	// from disk.
	Reset()
}
