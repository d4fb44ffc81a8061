package sampler

import (
	"fmt"
	"strings"

	"github.com/sceneforge/meshpipeline/pkg/logging"
)

// Extract is the animation extractor: given a sampler's raw interpolation
// string, its declared output component type, its input (timestamp) array,
// and its flattened output array, reshape the output into per-keyframe
// vectors (splitting cubic-spline streams into tangent-in/value/tangent-out)
// and classify the interpolation mode.
//
// componentType comes from the output accessor's declared element type, not
// from the output's shape: a SCALAR stream of numKeyframes*numTargets floats
// (morph weights) is indistinguishable by shape alone from a true VEC3/VEC4
// stream whose target count happens to match, so the caller must resolve and
// pass the declared type rather than have Extract guess at it.
//
// A shape that disagrees with componentType for the fixed-arity cases
// (Vec3f must reshape to 3 components per keyframe, Vec4f to 4) indicates a
// malformed document the caller should never have produced; Extract treats
// this as an assertion failure and panics rather than returning an error.
// Array accepts any positive per-keyframe width, since morph-weight samplers
// vary with the number of morph targets.
func Extract(interpolationName string, componentType ComponentType, input []float32, flatOutput []float32, logger *logging.Logger) *Data {
	numKeyframes := len(input)
	if numKeyframes == 0 {
		return &Data{Input: input, ComponentType: componentType}
	}

	isCubic := strings.EqualFold(interpolationName, "CUBICSPLINE")
	isStep := strings.EqualFold(interpolationName, "STEP")
	isLinear := strings.EqualFold(interpolationName, "LINEAR")

	if !isCubic && !isStep && !isLinear {
		logger.Warnf("unknown sampler interpolation %q, defaulting to Linear", interpolationName)
		isLinear = true
	}

	var componentsPerKeyframe int
	if isCubic {
		if len(flatOutput)%(3*numKeyframes) != 0 {
			panic(fmt.Sprintf("sampler output length %d is not divisible by 3*numKeyframes (%d)", len(flatOutput), 3*numKeyframes))
		}
		componentsPerKeyframe = len(flatOutput) / (3 * numKeyframes)
	} else {
		if len(flatOutput)%numKeyframes != 0 {
			panic(fmt.Sprintf("sampler output length %d is not divisible by numKeyframes (%d)", len(flatOutput), numKeyframes))
		}
		componentsPerKeyframe = len(flatOutput) / numKeyframes
	}

	switch componentType {
	case Vec3f:
		if componentsPerKeyframe != 3 {
			panic(fmt.Sprintf("Vec3f sampler component length %d is not 3", componentsPerKeyframe))
		}
	case Vec4f:
		if componentsPerKeyframe != 4 {
			panic(fmt.Sprintf("Vec4f sampler component length %d is not 4", componentsPerKeyframe))
		}
	case Array:
		if componentsPerKeyframe < 1 {
			panic("Array sampler has zero components per keyframe")
		}
	}

	quaternion := componentType == Vec4f

	var interpolation Interpolation
	switch {
	case isStep:
		interpolation = Step
	case isCubic && quaternion:
		interpolation = CubicSplineQuaternion
	case isCubic:
		interpolation = CubicSpline
	case quaternion:
		interpolation = LinearQuaternion
	default:
		interpolation = Linear
	}

	data := &Data{
		Interpolation: interpolation,
		ComponentType: componentType,
		Input:         input,
		Keyframes:     make([][]float32, numKeyframes),
	}

	k := componentsPerKeyframe
	if isCubic {
		data.TangentIn = make([][]float32, numKeyframes)
		data.TangentOut = make([][]float32, numKeyframes)
		stride := 3 * k
		for i := 0; i < numKeyframes; i++ {
			base := i * stride
			data.TangentIn[i] = append([]float32(nil), flatOutput[base:base+k]...)
			data.Keyframes[i] = append([]float32(nil), flatOutput[base+k:base+2*k]...)
			data.TangentOut[i] = append([]float32(nil), flatOutput[base+2*k:base+3*k]...)
		}
	} else {
		for i := 0; i < numKeyframes; i++ {
			base := i * k
			data.Keyframes[i] = append([]float32(nil), flatOutput[base:base+k]...)
		}
	}

	return data
}
