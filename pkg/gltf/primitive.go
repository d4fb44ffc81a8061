package gltf

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/sceneforge/meshpipeline/pkg/logging"
	"github.com/sceneforge/meshpipeline/pkg/mesh"
)

// loadPrimitive converts one glTF primitive into a standalone mesh.
// Attribute families that fail their allow-listed component type or
// disagree with the vertex count are logged and skipped rather than
// aborting the whole primitive; a missing POSITION stream is the one fatal
// condition, since everything downstream is keyed to vertex count.
func loadPrimitive(doc *document, prim *gltfPrimitive, materialName string, logger *logging.Logger) (*mesh.Mesh, error) {
	positionIndex, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, errors.New("primitive has no POSITION attribute")
	}
	positions, err := doc.readVec3Float(positionIndex)
	if err != nil {
		return nil, errors.Wrap(err, "POSITION")
	}
	numVertices := len(positions) / 3

	m := &mesh.Mesh{
		NumVertices: numVertices,
		Metadata:    map[string]string{},
	}
	if materialName != "" {
		m.Materials = []string{materialName}
	}
	m.Attributes = append(m.Attributes, mesh.Attribute{
		Name: mesh.AttributePosition, Type: mesh.Vec3f, Data: positions,
	})

	var normal, tangent []float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		if data, err := doc.readVec3Float(idx); err == nil && len(data)/3 == numVertices {
			normal = data
			m.Attributes = append(m.Attributes, mesh.Attribute{Name: mesh.AttributeNormal, Type: mesh.Vec3f, Data: data})
		} else if logger != nil {
			logger.Warnf("skipping NORMAL: %v", err)
		}
	}
	if idx, ok := prim.Attributes["TANGENT"]; ok {
		if data, err := doc.readVec4Float(idx); err == nil && len(data)/4 == numVertices {
			tangent = data
			flat := make([]float32, numVertices*3)
			for i := 0; i < numVertices; i++ {
				flat[i*3+0] = data[i*4+0]
				flat[i*3+1] = data[i*4+1]
				flat[i*3+2] = data[i*4+2]
			}
			m.Attributes = append(m.Attributes, mesh.Attribute{Name: mesh.AttributeTangent, Type: mesh.Vec3f, Data: flat})
			if normal != nil {
				m.Attributes = append(m.Attributes, mesh.Attribute{
					Name: mesh.AttributeBitangent, Type: mesh.Vec3f,
					Data: computeBitangents(normal, data, numVertices),
				})
			}
		} else if logger != nil {
			logger.Warnf("skipping TANGENT: %v", err)
		}
	}

	loadIndexedFamily(doc, prim, "TEXCOORD", mesh.AttributeTextureCoordinate, mesh.Vec2f, numVertices, logger, m)
	loadIndexedFamily(doc, prim, "COLOR", mesh.AttributeColor, mesh.Vec4f, numVertices, logger, m)
	loadIndexedFamily(doc, prim, "JOINTS", mesh.AttributeJoints, mesh.Vec4f, numVertices, logger, m)
	loadIndexedFamily(doc, prim, "WEIGHTS", mesh.AttributeWeights, mesh.Vec4f, numVertices, logger, m)

	loadMorphTargets(doc, prim, numVertices, logger, m)

	if prim.Indices != nil {
		indices, err := doc.readIndices(*prim.Indices)
		if err != nil {
			return nil, errors.Wrap(err, "indices")
		}
		m.Indices = indices
	} else {
		m.Indices = make([]uint32, numVertices)
		for i := range m.Indices {
			m.Indices[i] = uint32(i)
		}
	}
	m.Submeshes = []mesh.SubmeshRange{{Start: 0, Count: uint32(len(m.Indices))}}
	m.ComputeTriangles()

	return m, nil
}

// loadIndexedFamily gap-probes TEXCOORD_0, TEXCOORD_1, ... (and the
// equivalent COLOR/JOINTS/WEIGHTS families), stopping at the first missing
// index. COLOR_n accepts either a VEC3 or VEC4 accessor, per glTF's vertex
// color allow-list, so its component type is probed per index rather than
// assumed from defaultType.
func loadIndexedFamily(doc *document, prim *gltfPrimitive, prefix, attrName string, defaultType mesh.PrimitiveType, numVertices int, logger *logging.Logger, m *mesh.Mesh) {
	for n := 0; ; n++ {
		key := fmt.Sprintf("%s_%d", prefix, n)
		idx, ok := prim.Attributes[key]
		if !ok {
			return
		}

		componentType := defaultType
		if prefix == "COLOR" {
			if idx < 0 || idx >= len(doc.Accessors) {
				if logger != nil {
					logger.Warnf("skipping %s: accessor index %d out of range", key, idx)
				}
				continue
			}
			switch doc.Accessors[idx].Type {
			case typeVec3:
				componentType = mesh.Vec3f
			case typeVec4:
				componentType = mesh.Vec4f
			default:
				if logger != nil {
					logger.Warnf("skipping %s: vertex colors must be VEC3 or VEC4, got %s", key, doc.Accessors[idx].Type)
				}
				continue
			}
		}

		var data []float32
		var err error
		switch componentType {
		case mesh.Vec2f:
			data, err = doc.readVec2Float(idx)
		case mesh.Vec3f:
			data, err = doc.readTypedFloats(idx, typeVec3, true)
		case mesh.Vec4f:
			data, err = doc.readTypedFloats(idx, typeVec4, prefix != "JOINTS")
		default:
			data, err = doc.readFloats(idx, prefix != "JOINTS")
		}
		if err != nil || len(data)/componentType.Components() != numVertices {
			if logger != nil {
				logger.Warnf("skipping %s: %v", key, err)
			}
			continue
		}

		name := mesh.IndexedName(attrName, n)
		m.Attributes = append(m.Attributes, mesh.Attribute{Name: name, Type: componentType, Data: data})
	}
}

// loadMorphTargets imports the per-primitive morph targets, naming
// each resulting stream via mesh.MorphName.
func loadMorphTargets(doc *document, prim *gltfPrimitive, numVertices int, logger *logging.Logger, m *mesh.Mesh) {
	for k, target := range prim.Targets {
		if idx, ok := target["POSITION"]; ok {
			if data, err := doc.readVec3Float(idx); err == nil && len(data)/3 == numVertices {
				m.Attributes = append(m.Attributes, mesh.Attribute{
					Name: mesh.MorphName(mesh.AttributePosition, k), Type: mesh.Vec3f, Data: data,
				})
			} else if logger != nil {
				logger.Warnf("skipping morph target %d POSITION: %v", k, err)
			}
		}
		if idx, ok := target["NORMAL"]; ok {
			if data, err := doc.readVec3Float(idx); err == nil && len(data)/3 == numVertices {
				m.Attributes = append(m.Attributes, mesh.Attribute{
					Name: mesh.MorphName(mesh.AttributeNormal, k), Type: mesh.Vec3f, Data: data,
				})
			} else if logger != nil {
				logger.Warnf("skipping morph target %d NORMAL: %v", k, err)
			}
		}
		if idx, ok := target["TANGENT"]; ok {
			if data, err := doc.readVec3Float(idx); err == nil && len(data)/3 == numVertices {
				m.Attributes = append(m.Attributes, mesh.Attribute{
					Name: mesh.MorphName(mesh.AttributeTangent, k), Type: mesh.Vec3f, Data: data,
				})
			} else if logger != nil {
				logger.Warnf("skipping morph target %d TANGENT: %v", k, err)
			}
		}
	}
}

func computeBitangents(normal, tangent []float32, numVertices int) []float32 {
	out := make([]float32, numVertices*3)
	for i := 0; i < numVertices; i++ {
		nx, ny, nz := normal[i*3+0], normal[i*3+1], normal[i*3+2]
		tx, ty, tz := tangent[i*4+0], tangent[i*4+1], tangent[i*4+2]
		w := tangent[i*4+3]
		out[i*3+0] = w * (ny*tz - nz*ty)
		out[i*3+1] = w * (nz*tx - nx*tz)
		out[i*3+2] = w * (nx*ty - ny*tx)
	}
	return out
}

func (doc *document) readVec2Float(accessorIndex int) ([]float32, error) {
	return doc.readTypedFloats(accessorIndex, typeVec2, true)
}

func (doc *document) readVec3Float(accessorIndex int) ([]float32, error) {
	return doc.readTypedFloats(accessorIndex, typeVec3, false)
}

func (doc *document) readVec4Float(accessorIndex int) ([]float32, error) {
	return doc.readTypedFloats(accessorIndex, typeVec4, true)
}

// readTypedFloats is readFloats plus a check that the accessor's declared
// element type matches what the caller expects, so a malformed file (e.g. a
// NORMAL accessor declared VEC2) is rejected rather than silently
// misinterpreted.
func (doc *document) readTypedFloats(accessorIndex int, wantType string, normalize bool) ([]float32, error) {
	if accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return nil, errors.Errorf("accessor index %d out of range", accessorIndex)
	}
	if got := doc.Accessors[accessorIndex].Type; !strings.EqualFold(got, wantType) {
		return nil, errors.Errorf("expected accessor type %s, got %s", wantType, got)
	}
	return doc.readFloats(accessorIndex, normalize)
}
