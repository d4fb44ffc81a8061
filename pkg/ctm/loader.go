package ctm

import (
	"os"

	"github.com/sceneforge/meshpipeline/internal/lfsdetect"
	"github.com/sceneforge/meshpipeline/pkg/loader"
	"github.com/sceneforge/meshpipeline/pkg/mesh"
	"github.com/sceneforge/meshpipeline/pkg/sampler"
	"github.com/sceneforge/meshpipeline/pkg/scenegraph"
)

// Loader is the loader.Loader for OpenCTM files. A CTM file has no scene
// graph, no animations, and no skins: it produces exactly one mesh, loaded
// lazily on first LoadMesh call.
type Loader struct {
	absolutePath string

	loaded  bool
	mesh    *mesh.Mesh
	lastErr string
}

var _ loader.Loader = (*Loader)(nil)

// New returns a Loader for absolutePath. Unlike gltf.New, parsing is
// deferred until the first LoadMesh call, since a CTM file has nothing
// worth eagerly building (no scene graph to construct up front).
func New(absolutePath string) *Loader {
	return &Loader{absolutePath: absolutePath}
}

func (l *Loader) LoadMesh(descriptor loader.MeshDescriptor) (*mesh.Mesh, error) {
	if descriptor.SubmeshIndex > 0 {
		err := &loader.OutOfRange{Detail: "OpenCTM files contain exactly one sub-mesh"}
		l.lastErr = err.Error()
		return nil, err
	}

	if l.loaded {
		return l.mesh, nil
	}

	content, err := os.ReadFile(l.absolutePath)
	if err != nil {
		wrapped := &loader.ParseError{Detail: err.Error()}
		l.lastErr = wrapped.Error()
		return nil, wrapped
	}

	m, err := decode(content)
	if err != nil {
		if lfsdetect.IsPlaceholder(content) {
			e := loader.NewLfsPlaceholder()
			l.lastErr = e.Error()
			return nil, e
		}
		wrapped := &loader.ParseError{Detail: err.Error()}
		l.lastErr = wrapped.Error()
		return nil, wrapped
	}

	l.mesh = m
	l.loaded = true
	return l.mesh, nil
}

// Scenegraph implements loader.Loader: OpenCTM carries no scene graph.
func (l *Loader) Scenegraph() *scenegraph.Graph { return &scenegraph.Graph{} }

// MeshCount implements loader.Loader: a CTM file is always exactly one mesh.
func (l *Loader) MeshCount() int { return 1 }

// SamplerData implements loader.Loader: OpenCTM carries no animations.
func (l *Loader) SamplerData(animIndex, samplerIndex int) (*sampler.Data, error) { return nil, nil }

// LoadSkin implements loader.Loader: OpenCTM carries no skins.
func (l *Loader) LoadSkin(index int) (*scenegraph.Skin, error) {
	return nil, &loader.OutOfRange{Detail: "OpenCTM files contain no skins"}
}

// LastError implements loader.Loader.
func (l *Loader) LastError() string { return l.lastErr }

// Reset implements loader.Loader.
func (l *Loader) Reset() {
	l.loaded = false
	l.mesh = nil
	l.lastErr = ""
}
