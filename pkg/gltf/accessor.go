package gltf

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/sceneforge/meshpipeline/pkg/sampler"
)

func componentSize(componentType int) int {
	switch componentType {
	case componentByte, componentUnsignedByte:
		return 1
	case componentShort, componentUnsignedShort:
		return 2
	case componentUnsignedInt, componentFloat:
		return 4
	default:
		return 0
	}
}

func componentsForType(elementType string) int {
	switch elementType {
	case typeScalar:
		return 1
	case typeVec2:
		return 2
	case typeVec3:
		return 3
	case typeVec4:
		return 4
	default:
		return 0
	}
}

// samplerComponentType resolves an accessor's declared element type to the
// sampler package's semantic ComponentType, so an animation sampler's output
// shape is never inferred from its flattened length alone (SCALAR ⇒ Array,
// covering variable-width morph-weight channels; VEC3/VEC4 ⇒ the matching
// fixed-arity type). Unexpected element types (VEC2 and friends, which glTF
// does not use for animation output) fall back to Array.
func (doc *document) samplerComponentType(accessorIndex int) sampler.ComponentType {
	if accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return sampler.Array
	}
	switch doc.Accessors[accessorIndex].Type {
	case typeVec3:
		return sampler.Vec3f
	case typeVec4:
		return sampler.Vec4f
	default:
		return sampler.Array
	}
}

// accessorBytes returns the resolved byte slice, the accessor itself, and its
// byte stride, following the bufferView/buffer indirection, without yet
// converting to float32.
func (doc *document) accessorBytes(accessorIndex int) ([]byte, *accessor, int, error) {
	if accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return nil, nil, 0, errors.Errorf("accessor index %d out of range", accessorIndex)
	}
	acc := &doc.Accessors[accessorIndex]
	if acc.BufferView == nil {
		return nil, acc, 0, errors.New("sparse/zero-filled accessors are not supported")
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, nil, 0, errors.Errorf("bufferView index %d out of range", *acc.BufferView)
	}
	view := &doc.BufferViews[*acc.BufferView]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) {
		return nil, nil, 0, errors.Errorf("buffer index %d out of range", view.Buffer)
	}
	buf := &doc.Buffers[view.Buffer]

	componentCount := componentsForType(acc.Type)
	elementSize := componentSize(acc.ComponentType) * componentCount
	stride := elementSize
	if view.ByteStride != nil {
		stride = *view.ByteStride
	}

	start := view.ByteOffset + acc.ByteOffset
	end := start + stride*(acc.Count-1) + elementSize
	if end > len(buf.data) {
		return nil, nil, 0, errors.Errorf("accessor %d requires %d bytes but buffer only has %d", accessorIndex, end, len(buf.data))
	}

	return buf.data[start:end], acc, stride, nil
}

// readFloats reads an accessor as a flat []float32, applying normalization
// for the allow-listed component types for attribute data. When normalize
// is true and the accessor is marked normalized, 8- and 16-bit integer
// components are normalized to [0,1] (unsigned) or [-1,1] (signed); otherwise
// raw integer values are copied through as float32 (normalize is false for
// JOINTS_n, which are indices, not colors).
func (doc *document) readFloats(accessorIndex int, normalize bool) ([]float32, error) {
	data, acc, stride, err := doc.accessorBytes(accessorIndex)
	if err != nil {
		return nil, err
	}

	componentCount := componentsForType(acc.Type)
	if componentCount == 0 {
		return nil, errors.Errorf("accessor %d has unsupported element type %q", accessorIndex, acc.Type)
	}
	componentBytes := componentSize(acc.ComponentType)
	if componentBytes == 0 {
		return nil, errors.Errorf("accessor %d has unsupported component type %d", accessorIndex, acc.ComponentType)
	}

	out := make([]float32, acc.Count*componentCount)
	for i := 0; i < acc.Count; i++ {
		base := i * stride
		for c := 0; c < componentCount; c++ {
			offset := base + c*componentBytes
			out[i*componentCount+c] = decodeComponent(data[offset:], acc.ComponentType, normalize && acc.Normalized)
		}
	}

	return out, nil
}

func decodeComponent(b []byte, componentType int, normalize bool) float32 {
	switch componentType {
	case componentFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case componentByte:
		v := int8(b[0])
		if normalize {
			f := float32(v) / 127
			if f < -1 {
				f = -1
			}
			return f
		}
		return float32(v)
	case componentUnsignedByte:
		v := b[0]
		if normalize {
			return float32(v) / 255
		}
		return float32(v)
	case componentShort:
		v := int16(binary.LittleEndian.Uint16(b))
		if normalize {
			f := float32(v) / 32767
			if f < -1 {
				f = -1
			}
			return f
		}
		return float32(v)
	case componentUnsignedShort:
		v := binary.LittleEndian.Uint16(b)
		if normalize {
			return float32(v) / 65535
		}
		return float32(v)
	case componentUnsignedInt:
		return float32(binary.LittleEndian.Uint32(b))
	default:
		return 0
	}
}

// readIndices reads an index-buffer accessor as []uint32, regardless of its
// underlying component type (u8/u16/u32, ).
func (doc *document) readIndices(accessorIndex int) ([]uint32, error) {
	data, acc, stride, err := doc.accessorBytes(accessorIndex)
	if err != nil {
		return nil, err
	}

	out := make([]uint32, acc.Count)
	componentBytes := componentSize(acc.ComponentType)
	for i := 0; i < acc.Count; i++ {
		b := data[i*stride : i*stride+componentBytes]
		switch acc.ComponentType {
		case componentUnsignedByte:
			out[i] = uint32(b[0])
		case componentUnsignedShort:
			out[i] = uint32(binary.LittleEndian.Uint16(b))
		case componentUnsignedInt:
			out[i] = binary.LittleEndian.Uint32(b)
		default:
			return nil, errors.Errorf("index accessor has unsupported component type %d", acc.ComponentType)
		}
	}

	return out, nil
}
