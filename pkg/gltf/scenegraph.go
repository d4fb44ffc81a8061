package gltf

import (
	"fmt"

	"github.com/sceneforge/meshpipeline/pkg/scenegraph"
	"github.com/sceneforge/meshpipeline/pkg/transform"
)

// primitiveIndex names one entry in the flattened primitive list built from
// meshes[].primitives[].
type primitiveIndex struct {
	meshIndex      int
	primitiveIndex int
	name           string
}

// flattenPrimitives builds the ordered primitive list and a prefix-sum array
// mapping mesh index to its first flattened primitive index (so nodes can
// translate mesh references into flat primitive indices). The returned
// prefix slice has length len(doc.Meshes)+1; prefix[len(doc.Meshes)] is the
// total primitive count.
func flattenPrimitives(doc *document) ([]primitiveIndex, []int) {
	prefix := make([]int, len(doc.Meshes)+1)
	var flat []primitiveIndex

	for mi, m := range doc.Meshes {
		prefix[mi] = len(flat)
		meshName := m.Name
		if meshName == "" {
			meshName = fmt.Sprintf("mesh_%d", mi)
		}
		for pi := range m.Primitives {
			name := meshName
			if len(m.Primitives) > 1 {
				name = fmt.Sprintf("%s.%d", meshName, pi)
			}
			flat = append(flat, primitiveIndex{meshIndex: mi, primitiveIndex: pi, name: name})
		}
	}
	prefix[len(doc.Meshes)] = len(flat)

	return flat, prefix
}

// buildScenegraph imports nodes, animations, and skins.
func buildScenegraph(doc *document, prefix []int) *scenegraph.Graph {
	graph := &scenegraph.Graph{
		Nodes: make([]scenegraph.Node, len(doc.Nodes)),
	}

	parentIndex := make([]int, len(doc.Nodes))
	for i := range parentIndex {
		parentIndex[i] = -1
	}
	for i, n := range doc.Nodes {
		for _, child := range n.Children {
			if child >= 0 && child < len(parentIndex) {
				parentIndex[child] = i
			}
		}
	}

	var previousEuler transform.Vec3
	for i, n := range doc.Nodes {
		name := n.Name
		if name == "" {
			name = fmt.Sprintf("nodes_%d", i)
		}

		var submeshes []int
		if n.Mesh != nil && *n.Mesh >= 0 && *n.Mesh < len(prefix)-1 {
			for idx := prefix[*n.Mesh]; idx < prefix[*n.Mesh+1]; idx++ {
				submeshes = append(submeshes, idx)
			}
		}

		t := importNodeTransform(n, &previousEuler)

		graph.Nodes[i] = scenegraph.Node{
			Name:        name,
			ParentIndex: parentIndex[i],
			Submeshes:   submeshes,
			Transform:   t,
		}
	}

	graph.Animations = importAnimations(doc)
	graph.Skins = importSkins(doc)

	return graph
}

// importNodeTransform converts a glTF node's matrix or TRS fields into the
// scene graph's Transform representation (translation/Euler-degrees/scale),
// threading previousEuler across the node list for branch continuity.
func importNodeTransform(n node, previousEuler *transform.Vec3) scenegraph.Transform {
	if n.Matrix != nil {
		var m transform.Mat4
		copy(m[:], n.Matrix[:])
		translation, euler, scale := transform.Decompose(m, previousEuler)
		*previousEuler = euler
		return scenegraph.Transform{Translation: translation, Rotation: euler, Scale: scale}
	}

	t := scenegraph.IdentityTransform()
	if n.Translation != nil {
		t.Translation = transform.Vec3(*n.Translation)
	}
	if n.Scale != nil {
		t.Scale = transform.Vec3(*n.Scale)
	}
	if n.Rotation != nil {
		q := transform.Quat(*n.Rotation)
		euler := transform.EulerXYZFromQuaternion(q, *previousEuler)
		t.Rotation = euler
		*previousEuler = euler
	} else {
		*previousEuler = transform.Vec3{0, 0, 0}
	}
	return t
}

func importAnimations(doc *document) []scenegraph.Animation {
	animations := make([]scenegraph.Animation, len(doc.Animations))
	for i, a := range doc.Animations {
		name := a.Name
		if name == "" {
			name = fmt.Sprintf("animation_%d", i)
		}

		samplerNames := make([]string, len(a.Samplers))
		for s := range a.Samplers {
			samplerNames[s] = fmt.Sprintf("%s.ch%d", name, s)
		}

		channels := make([]scenegraph.Channel, len(a.Channels))
		for c, ch := range a.Channels {
			nodeIndex := -1
			if ch.Target.Node != nil {
				nodeIndex = *ch.Target.Node
			}
			samplerName := ""
			if ch.Sampler >= 0 && ch.Sampler < len(samplerNames) {
				samplerName = samplerNames[ch.Sampler]
			}
			channels[c] = scenegraph.Channel{
				TargetPath:  targetPathFromString(ch.Target.Path),
				SamplerName: samplerName,
				NodeIndex:   nodeIndex,
			}
		}

		animations[i] = scenegraph.Animation{
			Name:         name,
			Channels:     channels,
			SamplerNames: samplerNames,
		}
	}
	return animations
}

func targetPathFromString(path string) scenegraph.TargetPath {
	switch path {
	case "translation":
		return scenegraph.TargetTranslation
	case "rotation":
		return scenegraph.TargetRotation
	case "scale":
		return scenegraph.TargetScale
	case "weights":
		return scenegraph.TargetWeights
	default:
		return scenegraph.TargetTranslation
	}
}

func importSkins(doc *document) []scenegraph.Skin {
	skins := make([]scenegraph.Skin, len(doc.Skins))
	for i, s := range doc.Skins {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("skin_%d", i)
		}

		peer := -1
		for ni, n := range doc.Nodes {
			if n.Skin != nil && *n.Skin == i {
				peer = ni
				break
			}
		}

		skins[i] = scenegraph.Skin{
			Name:             name,
			PeerNodeIndex:    peer,
			JointNodeIndices: append([]int(nil), s.Joints...),
		}
	}
	return skins
}
