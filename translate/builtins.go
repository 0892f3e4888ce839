// Copyright 2024 The vkcpu Authors. All rights reserved.

package translate

import "github.com/vkcpu/vkcpu/spirvir"

// BuiltinVars returns the subset of mod's Input/Output global
// variables decorated BuiltIn, keyed by the BuiltIn enumerant. The
// rasterizer (package raster) uses this to locate gl_Position on a
// vertex shader's output interface and FragCoord/FrontFacing on a
// fragment shader's input interface without re-walking decorations
// itself.
func BuiltinVars(mod *spirvir.Module) map[spirvir.BuiltIn]uint32 {
	out := make(map[spirvir.BuiltIn]uint32)
	for _, in := range mod.Globals {
		if in.Op != spirvir.OpVariable {
			continue
		}
		if dec, ok := mod.Decorations(in.ResultID, -1); ok && dec.BuiltIn != nil {
			out[*dec.BuiltIn] = in.ResultID
		}
	}
	return out
}

// LocationVars returns the subset of mod's Input/Output global
// variables decorated Location, keyed by the location number. Used
// to wire vertex attribute bindings and fragment color outputs.
func LocationVars(mod *spirvir.Module) map[uint32]uint32 {
	out := make(map[uint32]uint32)
	for _, in := range mod.Globals {
		if in.Op != spirvir.OpVariable {
			continue
		}
		if dec, ok := mod.Decorations(in.ResultID, -1); ok && dec.Location != nil {
			out[*dec.Location] = in.ResultID
		}
	}
	return out
}

// DescriptorVars returns the subset of mod's global variables
// decorated with both DescriptorSet and Binding, keyed by (set,
// binding). Used to resolve which descriptor-set slot a
// UniformConstant/Uniform/StorageBuffer variable reads from.
type DescriptorKey struct {
	Set     uint32
	Binding uint32
}

func DescriptorVars(mod *spirvir.Module) map[DescriptorKey]uint32 {
	out := make(map[DescriptorKey]uint32)
	for _, in := range mod.Globals {
		if in.Op != spirvir.OpVariable {
			continue
		}
		dec, ok := mod.Decorations(in.ResultID, -1)
		if !ok || dec.DescriptorSet == nil || dec.Binding == nil {
			continue
		}
		out[DescriptorKey{*dec.DescriptorSet, *dec.Binding}] = in.ResultID
	}
	return out
}
