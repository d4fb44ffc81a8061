package meshcache

import (
	"github.com/sceneforge/meshpipeline/pkg/loader"
	"github.com/sceneforge/meshpipeline/pkg/mesh"
	"github.com/sceneforge/meshpipeline/pkg/sampler"
	"github.com/sceneforge/meshpipeline/pkg/scenegraph"
)

// errorLoader is what gets cached when decoder construction itself fails
// (e.g. a malformed glTF document): every query reports the same error
// until the entry is reset, rather than leaving the cache empty and
// silently re-attempting a doomed parse on every call.
type errorLoader struct {
	err error
}

var _ loader.Loader = (*errorLoader)(nil)

func (e *errorLoader) LoadMesh(loader.MeshDescriptor) (*mesh.Mesh, error) { return nil, e.err }
func (e *errorLoader) Scenegraph() *scenegraph.Graph                     { return &scenegraph.Graph{} }
func (e *errorLoader) MeshCount() int                                    { return 0 }
func (e *errorLoader) SamplerData(int, int) (*sampler.Data, error)       { return nil, nil }
func (e *errorLoader) LoadSkin(int) (*scenegraph.Skin, error)            { return nil, e.err }
func (e *errorLoader) LastError() string                                 { return e.err.Error() }
func (e *errorLoader) Reset()                                            {}
