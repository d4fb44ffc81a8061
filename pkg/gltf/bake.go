package gltf

import (
	"github.com/sceneforge/meshpipeline/pkg/logging"
	"github.com/sceneforge/meshpipeline/pkg/loader"
	"github.com/sceneforge/meshpipeline/pkg/mesh"
	"github.com/sceneforge/meshpipeline/pkg/scenegraph"
	"github.com/sceneforge/meshpipeline/pkg/transform"
)

// computeWorldTransforms folds each node's local TRS up through its parent
// chain via pkg/transform.Multiply, memoizing as it goes since siblings
// share ancestors.
func computeWorldTransforms(graph *scenegraph.Graph) []transform.Mat4 {
	world := make([]transform.Mat4, len(graph.Nodes))
	resolved := make([]bool, len(graph.Nodes))

	var resolve func(i int) transform.Mat4
	resolve = func(i int) transform.Mat4 {
		if resolved[i] {
			return world[i]
		}
		n := graph.Nodes[i]
		local := transform.Compose(n.Transform.Translation, n.Transform.Rotation, n.Transform.Scale)
		if n.ParentIndex < 0 || n.ParentIndex >= len(graph.Nodes) {
			world[i] = local
		} else {
			world[i] = transform.Multiply(resolve(n.ParentIndex), local)
		}
		resolved[i] = true
		return world[i]
	}

	for i := range graph.Nodes {
		resolve(i)
	}
	return world
}

// bakeAllSubmeshes folds every node's world transform into its referenced
// primitives' vertex data and concatenates the result into a single mesh.
// Normals go through the normal matrix with renormalization; tangents and
// bitangents go through the world matrix as directions (w=0); morph-target
// normals reuse the renormalization factor computed for the base normal
// stream, since both share the same linear map.
func bakeAllSubmeshes(doc *document, flat []primitiveIndex, graph *scenegraph.Graph, loadFlat func(int) (*mesh.Mesh, error), logger *logging.Logger) (*mesh.Mesh, error) {
	worldTransforms := computeWorldTransforms(graph)

	out := &mesh.Mesh{Metadata: map[string]string{}}
	var indices []uint32
	var baked bool

	for ni, n := range graph.Nodes {
		if len(n.Submeshes) == 0 {
			continue
		}
		world := worldTransforms[ni]
		normalMatrix := transform.NormalMatrix(world)

		for _, flatIndex := range n.Submeshes {
			if flatIndex < 0 || flatIndex >= len(flat) {
				continue
			}
			prim, err := loadFlat(flatIndex)
			if err != nil {
				if logger != nil {
					logger.Warnf("skipping submesh %d on node %q: %v", flatIndex, n.Name, err)
				}
				continue
			}

			vertexOffset := uint32(out.NumVertices)
			bakeInto(out, prim, world, normalMatrix)
			for _, idx := range prim.Indices {
				indices = append(indices, idx+vertexOffset)
			}
			if len(prim.Materials) > 0 {
				out.Materials = appendUniqueString(out.Materials, prim.Materials[0])
			}
			for k, v := range prim.Metadata {
				out.Metadata[k] = v
			}
			baked = true
		}
	}

	if !baked {
		return nil, &loader.Empty{Detail: "no bakeable submeshes found"}
	}

	out.Indices = indices
	out.Submeshes = []mesh.SubmeshRange{{Start: 0, Count: uint32(len(indices))}}
	out.ComputeTriangles()
	return out, nil
}

// bakeInto appends prim's vertex data to out in world space, transforming
// positions with world, normals with normalMatrix, and tangents/bitangents
// with world as directions.
func bakeInto(out *mesh.Mesh, prim *mesh.Mesh, world transform.Mat4, normalMatrix transform.Mat3) {
	positions := prim.Attribute(mesh.AttributePosition)
	if positions == nil {
		return
	}
	n := positions.ElementCount()

	bakedPositions := make([]float32, 0, n*3)
	for i := 0; i < n; i++ {
		v := transform.Vec3{positions.Data[i*3], positions.Data[i*3+1], positions.Data[i*3+2]}
		p := transform.MulPoint(world, v)
		bakedPositions = append(bakedPositions, p[0], p[1], p[2])
	}
	mergeAttribute(out, mesh.AttributePosition, mesh.Vec3f, bakedPositions)

	// renormScales records, per vertex, the 1/|M*n| factor ApplyNormal used
	// to renormalize the base normal; every morph-target normal at the same
	// vertex must be scaled by that same factor rather than one recomputed
	// for the morph normal itself, or blended normals drift under
	// non-uniform scale.
	renormScales := make([]float32, n)
	if normal := prim.Attribute(mesh.AttributeNormal); normal != nil {
		bakedNormals := make([]float32, 0, n*3)
		for i := 0; i < n; i++ {
			v := transform.Vec3{normal.Data[i*3], normal.Data[i*3+1], normal.Data[i*3+2]}
			bn, scale := transform.ApplyNormal(normalMatrix, v)
			renormScales[i] = scale
			bakedNormals = append(bakedNormals, bn[0], bn[1], bn[2])
		}
		mergeAttribute(out, mesh.AttributeNormal, mesh.Vec3f, bakedNormals)
	} else {
		for i := range renormScales {
			renormScales[i] = 1
		}
	}

	for _, direction := range []string{mesh.AttributeTangent, mesh.AttributeBitangent} {
		if attr := prim.Attribute(direction); attr != nil {
			bakedDirs := make([]float32, 0, n*3)
			for i := 0; i < n; i++ {
				v := transform.Vec3{attr.Data[i*3], attr.Data[i*3+1], attr.Data[i*3+2]}
				bd := transform.MulDirection(world, v)
				bakedDirs = append(bakedDirs, bd[0], bd[1], bd[2])
			}
			mergeAttribute(out, direction, mesh.Vec3f, bakedDirs)
		}
	}

	for _, attr := range prim.Attributes {
		if isMorphNormal(attr.Name) {
			bakedNormals := make([]float32, 0, len(attr.Data))
			count := attr.ElementCount()
			for i := 0; i < count; i++ {
				v := transform.Vec3{attr.Data[i*3], attr.Data[i*3+1], attr.Data[i*3+2]}
				bn := transform.ScaleNormal(normalMatrix, v, renormScales[i])
				bakedNormals = append(bakedNormals, bn[0], bn[1], bn[2])
			}
			mergeAttribute(out, attr.Name, attr.Type, bakedNormals)
			continue
		}
		if isMorphPosition(attr.Name) {
			bakedPositions := make([]float32, 0, len(attr.Data))
			count := attr.ElementCount()
			for i := 0; i < count; i++ {
				v := transform.Vec3{attr.Data[i*3], attr.Data[i*3+1], attr.Data[i*3+2]}
				p := transform.MulPoint(world, v)
				bakedPositions = append(bakedPositions, p[0], p[1], p[2])
			}
			mergeAttribute(out, attr.Name, attr.Type, bakedPositions)
			continue
		}
		if hasMorphPrefix(attr.Name, mesh.AttributeTangent) {
			bakedDirs := make([]float32, 0, len(attr.Data))
			count := attr.ElementCount()
			for i := 0; i < count; i++ {
				v := transform.Vec3{attr.Data[i*3], attr.Data[i*3+1], attr.Data[i*3+2]}
				bd := transform.MulDirection(world, v)
				bakedDirs = append(bakedDirs, bd[0], bd[1], bd[2])
			}
			mergeAttribute(out, attr.Name, attr.Type, bakedDirs)
			continue
		}
		switch attr.Name {
		case mesh.AttributePosition, mesh.AttributeNormal, mesh.AttributeTangent, mesh.AttributeBitangent:
			continue
		default:
			mergeAttribute(out, attr.Name, attr.Type, append([]float32(nil), attr.Data...))
		}
	}

	out.NumVertices += n
}

func isMorphPosition(name string) bool {
	return hasMorphPrefix(name, mesh.AttributePosition)
}

func isMorphNormal(name string) bool {
	return hasMorphPrefix(name, mesh.AttributeNormal)
}

func hasMorphPrefix(name, base string) bool {
	prefix := base + "_Morph_"
	return len(name) > len(prefix) && name[:len(prefix)] == prefix
}

// mergeAttribute appends data to the named attribute stream on out,
// creating it (with zero-padding for vertices already accumulated) the
// first time a name is seen.
func mergeAttribute(out *mesh.Mesh, name string, t mesh.PrimitiveType, data []float32) {
	for i := range out.Attributes {
		if out.Attributes[i].Name == name {
			out.Attributes[i].Data = append(out.Attributes[i].Data, data...)
			return
		}
	}
	padding := make([]float32, out.NumVertices*t.Components())
	out.Attributes = append(out.Attributes, mesh.Attribute{
		Name: name, Type: t, Data: append(padding, data...),
	})
}

func appendUniqueString(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
