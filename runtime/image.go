// Copyright 2024 The vkcpu Authors. All rights reserved.

package runtime

import "github.com/vkcpu/vkcpu/jit"

// ImageHandle is the interface a bound combined-image-sampler or
// storage image argument must implement to be usable by the image
// sample/fetch/write intrinsics below. Package resource's image
// views/samplers implement it; the pipeline layer binds one as the
// jit.Value argument in the image parameter's slot, rather than
// threading raw descriptor bytes through the interpreter.
type ImageHandle interface {
	// Sample performs a filtered fetch at normalized coordinates
	// coord (length 1-3, one per active dimension), honouring the
	// handle's bound address mode and filter.
	Sample(coord []float64, lod float64) []float64
	// Fetch performs an unfiltered, unnormalized texel fetch.
	Fetch(coord []int64, lod int) []float64
	// Write stores texel at an unnormalized coordinate (storage
	// images only).
	Write(coord []int64, texel []float64)
}

func toFloatCoord(v jit.Value) []float64 {
	vec := v.([]jit.Value)
	out := make([]float64, len(vec))
	for i, e := range vec {
		out[i] = e.(float64)
	}
	return out
}

func toIntCoord(v jit.Value) []int64 {
	vec := v.([]jit.Value)
	out := make([]int64, len(vec))
	for i, e := range vec {
		out[i] = e.(int64)
	}
	return out
}

func fromFloatVec(v []float64) jit.Value {
	out := make([]jit.Value, len(v))
	for i, e := range v {
		out[i] = e
	}
	return out
}

// imageSample implements the ImageSample intrinsic: args are (image,
// coord[, lod]). lod defaults to 0 for implicit-lod samples; the
// rasterizer's gradient computation for implicit mip selection is out
// of this intrinsic's scope and is applied by the caller before
// invoking it when needed.
func imageSample(args []jit.Value) jit.Value {
	img := args[0].(ImageHandle)
	coord := toFloatCoord(args[1])
	var lod float64
	if len(args) > 2 {
		if f, ok := args[2].(float64); ok {
			lod = f
		}
	}
	return fromFloatVec(img.Sample(coord, lod))
}

// imageFetch implements ImageFetch/ImageRead: args are (image,
// coord[, lod]).
func imageFetch(args []jit.Value) jit.Value {
	img := args[0].(ImageHandle)
	coord := toIntCoord(args[1])
	var lod int64
	if len(args) > 2 {
		if l, ok := args[2].(int64); ok {
			lod = l
		}
	}
	return fromFloatVec(img.Fetch(coord, int(lod)))
}

// imageWrite implements ImageWrite: args are (image, coord, texel).
func imageWrite(args []jit.Value) jit.Value {
	img := args[0].(ImageHandle)
	coord := toIntCoord(args[1])
	texel := toFloatCoord(args[2])
	img.Write(coord, texel)
	return jit.VoidValue{}
}
