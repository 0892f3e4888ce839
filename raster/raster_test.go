// Copyright 2024 The vkcpu Authors. All rights reserved.

package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vkcpu/vkcpu/driver"
	"github.com/vkcpu/vkcpu/jit"
	"github.com/vkcpu/vkcpu/pipeline"
	"github.com/vkcpu/vkcpu/runtime"
	"github.com/vkcpu/vkcpu/spirvir"
)

func f32bits(f float32) int64 { return int64(math.Float32bits(f)) }

// passthroughColorModule builds a vertex shader equivalent to:
// layout(location=0) in vec4 pos;
// layout(location=1) in vec4 col;
// layout(location=0) out vec4 vCol;
// void main() { gl_Position = pos; vCol = col; }
func passthroughColorModule() *spirvir.Module {
	m := spirvir.NewModule()
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeFloat, ResultID: 1, Operands: []spirvir.Operand{spirvir.Imm(32)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeVector, ResultID: 3, Operands: []spirvir.Operand{spirvir.Ref(1), spirvir.Imm(4)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypePointer, ResultID: 4, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageInput)), spirvir.Ref(3)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypePointer, ResultID: 5, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageOutput)), spirvir.Ref(3)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeVoid, ResultID: 6})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeFunction, ResultID: 7, Operands: []spirvir.Operand{spirvir.Ref(6)}})

	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpVariable, ResultID: 10, ResultType: 4, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageInput))}})
	loc0 := uint32(0)
	m.Decorate(10, -1, func(d *spirvir.Decorations) { d.Location = &loc0 })

	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpVariable, ResultID: 12, ResultType: 4, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageInput))}})
	loc1 := uint32(1)
	m.Decorate(12, -1, func(d *spirvir.Decorations) { d.Location = &loc1 })

	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpVariable, ResultID: 11, ResultType: 5, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageOutput))}})
	pos := spirvir.BuiltInPosition
	m.Decorate(11, -1, func(d *spirvir.Decorations) { d.BuiltIn = &pos })

	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpVariable, ResultID: 13, ResultType: 5, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageOutput))}})
	loc2 := uint32(2)
	m.Decorate(13, -1, func(d *spirvir.Decorations) { d.Location = &loc2 })

	fn := spirvir.Function{ID: 100, TypeID: 7, ResultType: 6}
	fn.Blocks = []spirvir.Block{{
		ID: 200,
		Instrs: []spirvir.Instruction{
			{Op: spirvir.OpLoad, ResultID: 30, ResultType: 3, Operands: []spirvir.Operand{spirvir.Ref(10)}},
			{Op: spirvir.OpStore, Operands: []spirvir.Operand{spirvir.Ref(11), spirvir.Ref(30)}},
			{Op: spirvir.OpLoad, ResultID: 31, ResultType: 3, Operands: []spirvir.Operand{spirvir.Ref(12)}},
			{Op: spirvir.OpStore, Operands: []spirvir.Operand{spirvir.Ref(13), spirvir.Ref(31)}},
			{Op: spirvir.OpReturn},
		},
	}}
	m.Functions = append(m.Functions, fn)
	m.EntryPoints = append(m.EntryPoints, spirvir.EntryPoint{
		Model: spirvir.ModelVertex, Function: 100, Name: "vs_passthrough_color", Interface: []uint32{10, 11, 12, 13},
	})
	return m
}

// passthroughFragmentModule builds a fragment shader equivalent to:
// layout(location=0) in vec4 vCol;
// layout(location=0) out vec4 color;
// void main() { color = vCol; }
func passthroughFragmentModule() *spirvir.Module {
	m := spirvir.NewModule()
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeFloat, ResultID: 1, Operands: []spirvir.Operand{spirvir.Imm(32)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeVector, ResultID: 3, Operands: []spirvir.Operand{spirvir.Ref(1), spirvir.Imm(4)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypePointer, ResultID: 4, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageInput)), spirvir.Ref(3)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypePointer, ResultID: 5, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageOutput)), spirvir.Ref(3)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeVoid, ResultID: 6})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeFunction, ResultID: 7, Operands: []spirvir.Operand{spirvir.Ref(6)}})

	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpVariable, ResultID: 10, ResultType: 4, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageInput))}})
	loc2 := uint32(2)
	m.Decorate(10, -1, func(d *spirvir.Decorations) { d.Location = &loc2 })

	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpVariable, ResultID: 11, ResultType: 5, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageOutput))}})
	loc0 := uint32(0)
	m.Decorate(11, -1, func(d *spirvir.Decorations) { d.Location = &loc0 })

	fn := spirvir.Function{ID: 101, TypeID: 7, ResultType: 6}
	fn.Blocks = []spirvir.Block{{
		ID: 201,
		Instrs: []spirvir.Instruction{
			{Op: spirvir.OpLoad, ResultID: 30, ResultType: 3, Operands: []spirvir.Operand{spirvir.Ref(10)}},
			{Op: spirvir.OpStore, Operands: []spirvir.Operand{spirvir.Ref(11), spirvir.Ref(30)}},
			{Op: spirvir.OpReturn},
		},
	}}
	m.Functions = append(m.Functions, fn)
	m.EntryPoints = append(m.EntryPoints, spirvir.EntryPoint{
		Model: spirvir.ModelFragment, Function: 101, Name: "fs_passthrough_color", Interface: []uint32{10, 11},
	})
	return m
}

// grid is a minimal in-memory Attachment: one float64 RGBA value per
// texel, with no format conversion, for exercising raster.Run without
// going through package resource/format.
type grid struct {
	w, h int
	vals [][4]float64
}

func newGrid(w, h int, fill [4]float64) *grid {
	g := &grid{w: w, h: h, vals: make([][4]float64, w*h)}
	for i := range g.vals {
		g.vals[i] = fill
	}
	return g
}

func (g *grid) Fetch(coord []int64, lod int) []float64 {
	x, y := int(coord[0]), int(coord[1])
	v := g.vals[y*g.w+x]
	return []float64{v[0], v[1], v[2], v[3]}
}

func (g *grid) Write(coord []int64, texel []float64) {
	x, y := int(coord[0]), int(coord[1])
	var v [4]float64
	copy(v[:], texel)
	g.vals[y*g.w+x] = v
}

func buildPassthroughGraphics(t *testing.T, ds driver.DSState, blend driver.BlendState) *pipeline.Graphics {
	t.Helper()
	host := jit.NewHost(runtime.Lookup)
	vertCode := pipeline.NewCodeFromModule(passthroughColorModule())
	fragCode := pipeline.NewCodeFromModule(passthroughFragmentModule())
	state := driver.GraphState{
		VertFunc: driver.ShaderFunc{Code: vertCode, Name: "vs_passthrough_color"},
		FragFunc: driver.ShaderFunc{Code: fragCode, Name: "fs_passthrough_color"},
		Input: []driver.VertexIn{
			{Format: driver.Float32x4, Stride: 16, Nr: 0},
			{Format: driver.Float32x4, Stride: 16, Nr: 1},
		},
		Topology: driver.TTriangle,
		DS:       ds,
		Blend:    blend,
	}
	gr, err := pipeline.NewGraphics(host, state, nil)
	require.NoError(t, err)
	return gr
}

// fullScreenDraw returns a Draw covering one full-screen triangle,
// whose FetchVertex supplies binding 0 (clip-space position, vec4) and
// binding 1 (a constant color, vec4: color2 when non-nil, else color)
// for every one of its 3 vertices.
func fullScreenDraw(gr *pipeline.Graphics, z float64, color [4]float64, color2 *[4]float64) *Draw {
	positions := [][4]float64{{-1, -1, z, 1}, {3, -1, z, 1}, {-1, 3, z, 1}}
	return &Draw{
		Pipeline:      gr,
		VertexCount:   3,
		InstanceCount: 1,
		FetchVertex: func(binding, vertexIndex int) []float64 {
			if binding == 0 {
				p := positions[vertexIndex]
				return []float64{p[0], p[1], p[2], p[3]}
			}
			c := color
			if color2 != nil {
				c = *color2
			}
			return []float64{c[0], c[1], c[2], c[3]}
		},
		Viewports: []driver.Viewport{{Width: 4, Height: 4, Zfar: 1}},
		Scissors:  []driver.Scissor{{Width: 4, Height: 4}},
	}
}

// TestBlendOver covers the blend scenario: a semi-transparent red
// triangle drawn with standard alpha-over blending against an opaque
// blue background must leave every covered texel at the blended
// color, not the raw fragment output.
func TestBlendOver(t *testing.T) {
	blend := driver.BlendState{
		Color: []driver.ColorBlend{{
			Blend:  true,
			Op:     [2]driver.BlendOp{driver.BAdd, driver.BAdd},
			SrcFac: [2]driver.BlendFac{driver.BSrcAlpha, driver.BSrcAlpha},
			DstFac: [2]driver.BlendFac{driver.BInvSrcAlpha, driver.BInvSrcAlpha},
		}},
	}
	gr := buildPassthroughGraphics(t, driver.DSState{}, blend)

	target := newGrid(4, 4, [4]float64{0, 0, 1, 1})
	d := fullScreenDraw(gr, 0, [4]float64{1, 0, 0, 0.5}, nil)
	d.Color = []Attachment{target}

	require.NoError(t, Run(d))

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			got := target.vals[y*4+x]
			require.InDeltaf(t, 0.5, got[0], 0.01, "pixel %d,%d red", x, y)
			require.InDeltaf(t, 0.0, got[1], 0.01, "pixel %d,%d green", x, y)
			require.InDeltaf(t, 0.5, got[2], 0.01, "pixel %d,%d blue", x, y)
			require.InDeltaf(t, 0.75, got[3], 0.01, "pixel %d,%d alpha", x, y)
		}
	}
}

// TestDepthTestRejectsFartherFragment covers the depth test scenario:
// a farther triangle drawn after a nearer one, with depth test and
// write enabled and a less-than compare, must not overwrite the
// nearer triangle's color or depth.
func TestDepthTestRejectsFartherFragment(t *testing.T) {
	ds := driver.DSState{DepthTest: true, DepthWrite: true, DepthCmp: driver.CLess}
	gr := buildPassthroughGraphics(t, ds, driver.BlendState{})

	color := newGrid(4, 4, [4]float64{0, 0, 0, 1})
	depth := newGrid(4, 4, [4]float64{1, 0, 0, 0})

	near := [4]float64{0, 1, 0, 1}
	dNear := fullScreenDraw(gr, 0.2, [4]float64{0, 1, 0, 1}, &near)
	dNear.Color = []Attachment{color}
	dNear.Depth = depth
	dNear.HasDepth = true
	require.NoError(t, Run(dNear))

	far := [4]float64{1, 0, 0, 1}
	dFar := fullScreenDraw(gr, 0.8, [4]float64{1, 0, 0, 1}, &far)
	dFar.Color = []Attachment{color}
	dFar.Depth = depth
	dFar.HasDepth = true
	require.NoError(t, Run(dFar))

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			got := color.vals[y*4+x]
			require.InDeltaf(t, 0.0, got[0], 0.01, "pixel %d,%d red", x, y)
			require.InDeltaf(t, 1.0, got[1], 0.01, "pixel %d,%d green", x, y)
			d := depth.vals[y*4+x]
			require.InDeltaf(t, 0.6, d[0], 0.01, "pixel %d,%d depth", x, y)
		}
	}
}
