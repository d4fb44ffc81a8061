// Package gltf implements the glTF 2.0 (.gltf/.glb) mesh and scene decoder:
// JSON/binary container parsing, accessor/bufferView/buffer resolution,
// per-primitive attribute and morph target loading, node transform and
// animation/skin import, and world-space baking.
package gltf

import (
	"fmt"

	"github.com/sceneforge/meshpipeline/pkg/loader"
	"github.com/sceneforge/meshpipeline/pkg/logging"
	"github.com/sceneforge/meshpipeline/pkg/mesh"
	"github.com/sceneforge/meshpipeline/pkg/sampler"
	"github.com/sceneforge/meshpipeline/pkg/scenegraph"
)

// Loader is the concrete loader.Loader for glTF documents.
type Loader struct {
	doc    *document
	flat   []primitiveIndex
	prefix []int
	graph  *scenegraph.Graph
	logger *logging.Logger

	cache   map[int]*mesh.Mesh
	lastErr string
}

var _ loader.Loader = (*Loader)(nil)

// New parses absolutePath and builds its scene graph.
func New(absolutePath string, logger *logging.Logger) (*Loader, error) {
	doc, err := parseDocument(absolutePath)
	if err != nil {
		return nil, err
	}

	flat, prefix := flattenPrimitives(doc)
	graph := buildScenegraph(doc, prefix)

	return &Loader{
		doc:    doc,
		flat:   flat,
		prefix: prefix,
		graph:  graph,
		logger: logger,
		cache:  make(map[int]*mesh.Mesh),
	}, nil
}

// LoadMesh implements loader.Loader.
func (l *Loader) LoadMesh(descriptor loader.MeshDescriptor) (*mesh.Mesh, error) {
	if descriptor.BakeAllSubmeshes {
		m, err := bakeAllSubmeshes(l.doc, l.flat, l.graph, l.loadFlat, l.logger)
		if err != nil {
			l.lastErr = err.Error()
			return nil, err
		}
		return m, nil
	}

	if descriptor.SubmeshIndex < 0 || descriptor.SubmeshIndex >= len(l.flat) {
		err := &loader.OutOfRange{Detail: fmt.Sprintf(
			"submesh index %d out of range [0,%d)", descriptor.SubmeshIndex, len(l.flat))}
		l.lastErr = err.Error()
		return nil, err
	}

	m, err := l.loadFlat(descriptor.SubmeshIndex)
	if err != nil {
		l.lastErr = err.Error()
		return nil, err
	}
	return m, nil
}

func (l *Loader) loadFlat(i int) (*mesh.Mesh, error) {
	if cached, ok := l.cache[i]; ok {
		return cached, nil
	}

	fp := l.flat[i]
	prim := &l.doc.Meshes[fp.meshIndex].Primitives[fp.primitiveIndex]

	materialName := ""
	if prim.Material != nil && *prim.Material >= 0 && *prim.Material < len(l.doc.Materials) {
		materialName = l.doc.Materials[*prim.Material].Name
	}

	m, err := loadPrimitive(l.doc, prim, materialName, l.logger)
	if err != nil {
		return nil, err
	}
	l.cache[i] = m
	return m, nil
}

// Scenegraph implements loader.Loader.
func (l *Loader) Scenegraph() *scenegraph.Graph { return l.graph }

// MeshCount implements loader.Loader.
func (l *Loader) MeshCount() int { return len(l.flat) }

// SamplerData implements loader.Loader.
func (l *Loader) SamplerData(animIndex, samplerIndex int) (*sampler.Data, error) {
	if animIndex < 0 || animIndex >= len(l.doc.Animations) {
		return nil, nil
	}
	anim := l.doc.Animations[animIndex]
	if samplerIndex < 0 || samplerIndex >= len(anim.Samplers) {
		return nil, nil
	}
	s := anim.Samplers[samplerIndex]

	input, err := l.doc.readFloats(s.Input, false)
	if err != nil {
		return nil, err
	}
	output, err := l.doc.readFloats(s.Output, false)
	if err != nil {
		return nil, err
	}

	componentType := l.doc.samplerComponentType(s.Output)
	return sampler.Extract(s.Interpolation, componentType, input, output, l.logger), nil
}

// LoadSkin implements loader.Loader.
func (l *Loader) LoadSkin(index int) (*scenegraph.Skin, error) {
	if index < 0 || index >= len(l.graph.Skins) {
		return nil, &loader.OutOfRange{Detail: fmt.Sprintf("skin index %d out of range", index)}
	}
	return &l.graph.Skins[index], nil
}

// LastError implements loader.Loader.
func (l *Loader) LastError() string { return l.lastErr }

// Reset implements loader.Loader.
func (l *Loader) Reset() {
	l.cache = make(map[int]*mesh.Mesh)
	l.lastErr = ""
}
