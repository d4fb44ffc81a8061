package meshcache

import (
	"github.com/sceneforge/meshpipeline/pkg/ctm"
	"github.com/sceneforge/meshpipeline/pkg/gltf"
	"github.com/sceneforge/meshpipeline/pkg/loader"
	"github.com/sceneforge/meshpipeline/pkg/logging"
	"github.com/sceneforge/meshpipeline/pkg/meshpath"
)

// supportedExtension reports whether absolutePath names a format this
// pipeline can decode.
func supportedExtension(absolutePath string) bool {
	switch meshpath.Extension(absolutePath) {
	case ".gltf", ".glb", ".ctm":
		return true
	default:
		return false
	}
}

// newLoader constructs the decoder matching absolutePath's extension. A
// construction failure (glTF documents are parsed eagerly) is captured in
// an errorLoader rather than propagated, so the cache always has something
// to return for a supported extension.
func newLoader(absolutePath string, logger *logging.Logger) loader.Loader {
	switch meshpath.Extension(absolutePath) {
	case ".gltf", ".glb":
		l, err := gltf.New(absolutePath, logger)
		if err != nil {
			return &errorLoader{err: err}
		}
		return l
	case ".ctm":
		return ctm.New(absolutePath)
	default:
		return nil
	}
}
