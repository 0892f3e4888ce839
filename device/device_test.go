// Copyright 2024 The vkcpu Authors. All rights reserved.

package device

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vkcpu/vkcpu/driver"
	"github.com/vkcpu/vkcpu/pipeline"
	"github.com/vkcpu/vkcpu/queue"
	"github.com/vkcpu/vkcpu/spirvir"
)

func f32bits(f float32) int64 { return int64(math.Float32bits(f)) }

// passthroughVertexModule builds a vertex shader equivalent to:
// layout(location=0) in vec2 pos;
// void main() { gl_Position = vec4(pos, 0, 1); }
func passthroughVertexModule() *spirvir.Module {
	m := spirvir.NewModule()
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeFloat, ResultID: 1, Operands: []spirvir.Operand{spirvir.Imm(32)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeVector, ResultID: 2, Operands: []spirvir.Operand{spirvir.Ref(1), spirvir.Imm(2)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeVector, ResultID: 3, Operands: []spirvir.Operand{spirvir.Ref(1), spirvir.Imm(4)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypePointer, ResultID: 4, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageInput)), spirvir.Ref(2)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypePointer, ResultID: 5, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageOutput)), spirvir.Ref(3)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeVoid, ResultID: 6})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeFunction, ResultID: 7, Operands: []spirvir.Operand{spirvir.Ref(6)}})

	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpVariable, ResultID: 10, ResultType: 4, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageInput))}})
	loc0 := uint32(0)
	m.Decorate(10, -1, func(d *spirvir.Decorations) { d.Location = &loc0 })

	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpVariable, ResultID: 11, ResultType: 5, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageOutput))}})
	pos := spirvir.BuiltInPosition
	m.Decorate(11, -1, func(d *spirvir.Decorations) { d.BuiltIn = &pos })

	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpConstant, ResultID: 20, ResultType: 1, Operands: []spirvir.Operand{spirvir.Imm(f32bits(0))}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpConstant, ResultID: 21, ResultType: 1, Operands: []spirvir.Operand{spirvir.Imm(f32bits(1))}})

	fn := spirvir.Function{ID: 100, TypeID: 7, ResultType: 6}
	fn.Blocks = []spirvir.Block{{
		ID: 200,
		Instrs: []spirvir.Instruction{
			{Op: spirvir.OpLoad, ResultID: 30, ResultType: 2, Operands: []spirvir.Operand{spirvir.Ref(10)}},
			{Op: spirvir.OpCompositeExtract, ResultID: 31, ResultType: 1, Operands: []spirvir.Operand{spirvir.Ref(30), spirvir.Imm(0)}},
			{Op: spirvir.OpCompositeExtract, ResultID: 32, ResultType: 1, Operands: []spirvir.Operand{spirvir.Ref(30), spirvir.Imm(1)}},
			{Op: spirvir.OpCompositeConstruct, ResultID: 33, ResultType: 3, Operands: []spirvir.Operand{spirvir.Ref(31), spirvir.Ref(32), spirvir.Ref(20), spirvir.Ref(21)}},
			{Op: spirvir.OpStore, Operands: []spirvir.Operand{spirvir.Ref(11), spirvir.Ref(33)}},
			{Op: spirvir.OpReturn},
		},
	}}
	m.Functions = append(m.Functions, fn)
	m.EntryPoints = append(m.EntryPoints, spirvir.EntryPoint{
		Model: spirvir.ModelVertex, Function: 100, Name: "vs_passthrough", Interface: []uint32{10, 11},
	})
	return m
}

// constantRedFragmentModule builds a fragment shader equivalent to:
// layout(location=0) out vec4 color;
// void main() { color = vec4(1, 0, 0, 1); }
func constantRedFragmentModule() *spirvir.Module {
	m := spirvir.NewModule()
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeFloat, ResultID: 1, Operands: []spirvir.Operand{spirvir.Imm(32)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeVector, ResultID: 3, Operands: []spirvir.Operand{spirvir.Ref(1), spirvir.Imm(4)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypePointer, ResultID: 5, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageOutput)), spirvir.Ref(3)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeVoid, ResultID: 6})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeFunction, ResultID: 7, Operands: []spirvir.Operand{spirvir.Ref(6)}})

	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpVariable, ResultID: 11, ResultType: 5, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageOutput))}})
	loc0 := uint32(0)
	m.Decorate(11, -1, func(d *spirvir.Decorations) { d.Location = &loc0 })

	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpConstant, ResultID: 20, ResultType: 1, Operands: []spirvir.Operand{spirvir.Imm(f32bits(1))}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpConstant, ResultID: 21, ResultType: 1, Operands: []spirvir.Operand{spirvir.Imm(f32bits(0))}})

	fn := spirvir.Function{ID: 101, TypeID: 7, ResultType: 6}
	fn.Blocks = []spirvir.Block{{
		ID: 201,
		Instrs: []spirvir.Instruction{
			{Op: spirvir.OpCompositeConstruct, ResultID: 40, ResultType: 3, Operands: []spirvir.Operand{spirvir.Ref(20), spirvir.Ref(21), spirvir.Ref(21), spirvir.Ref(20)}},
			{Op: spirvir.OpStore, Operands: []spirvir.Operand{spirvir.Ref(11), spirvir.Ref(40)}},
			{Op: spirvir.OpReturn},
		},
	}}
	m.Functions = append(m.Functions, fn)
	m.EntryPoints = append(m.EntryPoints, spirvir.EntryPoint{
		Model: spirvir.ModelFragment, Function: 101, Name: "fs_red", Interface: []uint32{11},
	})
	return m
}

type texelReader interface {
	Fetch(coord []int64, lod int) []float64
}

// TestClearAndPresent covers the clear-then-present scenario: a 4x4
// target cleared to (0.25, 0.5, 0.75, 1.0) must read back that color
// at every texel after the submission completes.
func TestClearAndPresent(t *testing.T) {
	drv := &Driver{}
	gpu, err := drv.Open()
	require.NoError(t, err)

	img, err := gpu.NewImage(driver.BGRA8un, driver.Dim3D{Width: 4, Height: 4, Depth: 1}, 1, 1, 1, driver.URenderTarget)
	require.NoError(t, err)
	view, err := img.NewView(driver.IView2D, 0, 1, 0, 1)
	require.NoError(t, err)

	pass, err := gpu.NewRenderPass(
		[]driver.Attachment{{
			Format: driver.BGRA8un, Samples: 1,
			Load:  [2]driver.LoadOp{driver.LClear, driver.LDontCare},
			Store: [2]driver.StoreOp{driver.SStore, driver.SDontCare},
		}},
		[]driver.Subpass{{Color: []int{0}, DS: -1}},
	)
	require.NoError(t, err)
	fb, err := pass.NewFB([]driver.ImageView{view}, 4, 4, 1)
	require.NoError(t, err)

	cb, err := gpu.NewCmdBuffer()
	require.NoError(t, err)
	require.NoError(t, cb.Begin())
	cb.BeginPass(pass, fb, []driver.ClearValue{{Color: [4]float32{0.25, 0.5, 0.75, 1.0}}})
	cb.EndPass()
	require.NoError(t, cb.End())

	ch := make(chan error, 1)
	gpu.Commit([]driver.CmdBuffer{cb}, ch)
	require.NoError(t, <-ch)

	tr := view.(texelReader)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			got := tr.Fetch([]int64{int64(x), int64(y), 0, 0}, 0)
			require.InDelta(t, 0.25, got[0], 0.01)
			require.InDelta(t, 0.5, got[1], 0.01)
			require.InDelta(t, 0.75, got[2], 0.01)
			require.InDelta(t, 1.0, got[3], 0.01)
		}
	}
}

// TestPassThroughVertexDraw covers the pass-through vertex scenario:
// a full-screen triangle drawn with a constant red fragment shader
// must leave every texel of a 4x4 target red.
func TestPassThroughVertexDraw(t *testing.T) {
	drv := &Driver{}
	gpu, err := drv.Open()
	require.NoError(t, err)

	img, err := gpu.NewImage(driver.RGBA8un, driver.Dim3D{Width: 4, Height: 4, Depth: 1}, 1, 1, 1, driver.URenderTarget)
	require.NoError(t, err)
	view, err := img.NewView(driver.IView2D, 0, 1, 0, 1)
	require.NoError(t, err)

	pass, err := gpu.NewRenderPass(
		[]driver.Attachment{{
			Format: driver.RGBA8un, Samples: 1,
			Load:  [2]driver.LoadOp{driver.LClear, driver.LDontCare},
			Store: [2]driver.StoreOp{driver.SStore, driver.SDontCare},
		}},
		[]driver.Subpass{{Color: []int{0}, DS: -1}},
	)
	require.NoError(t, err)
	fb, err := pass.NewFB([]driver.ImageView{view}, 4, 4, 1)
	require.NoError(t, err)

	vertCode := pipeline.NewCodeFromModule(passthroughVertexModule())
	fragCode := pipeline.NewCodeFromModule(constantRedFragmentModule())

	state := &driver.GraphState{
		VertFunc: driver.ShaderFunc{Code: vertCode, Name: "vs_passthrough"},
		FragFunc: driver.ShaderFunc{Code: fragCode, Name: "fs_red"},
		Input:    []driver.VertexIn{{Format: driver.Float32x2, Stride: 8, Nr: 0}},
		Topology: driver.TTriangle,
		Pass:     pass,
		Subpass:  0,
	}
	pl, err := gpu.NewPipeline(state)
	require.NoError(t, err)

	// A triangle covering the whole clip volume: (-1,-1), (3,-1), (-1,3).
	vtxData := []float32{-1, -1, 3, -1, -1, 3}
	vtxBuf, err := gpu.NewBuffer(int64(len(vtxData)*4), true, driver.UVertexData)
	require.NoError(t, err)
	bytes := vtxBuf.Bytes()
	for i, f := range vtxData {
		bits := math.Float32bits(f)
		bytes[i*4+0] = byte(bits)
		bytes[i*4+1] = byte(bits >> 8)
		bytes[i*4+2] = byte(bits >> 16)
		bytes[i*4+3] = byte(bits >> 24)
	}

	cb, err := gpu.NewCmdBuffer()
	require.NoError(t, err)
	require.NoError(t, cb.Begin())
	cb.BeginPass(pass, fb, []driver.ClearValue{{Color: [4]float32{0, 0, 0, 1}}})
	cb.SetPipeline(pl)
	cb.SetViewport([]driver.Viewport{{Width: 4, Height: 4, Zfar: 1}})
	cb.SetScissor([]driver.Scissor{{Width: 4, Height: 4}})
	cb.SetVertexBuf(0, []driver.Buffer{vtxBuf}, []int64{0})
	cb.Draw(3, 1, 0, 0)
	cb.EndPass()
	require.NoError(t, cb.End())

	ch := make(chan error, 1)
	gpu.Commit([]driver.CmdBuffer{cb}, ch)
	require.NoError(t, <-ch)

	tr := view.(texelReader)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			got := tr.Fetch([]int64{int64(x), int64(y), 0, 0}, 0)
			require.InDeltaf(t, 1.0, got[0], 0.01, "pixel %d,%d red", x, y)
			require.InDeltaf(t, 0.0, got[1], 0.01, "pixel %d,%d green", x, y)
			require.InDeltaf(t, 0.0, got[2], 0.01, "pixel %d,%d blue", x, y)
			require.InDeltaf(t, 1.0, got[3], 0.01, "pixel %d,%d alpha", x, y)
		}
	}
}

// TestEventWait covers the event scenario as far as the driver
// surface allows: driver.CmdBuffer has no SetEvent record, so the
// event is set from the host once the committed blit completes; it
// must then read signaled, and Reset must clear it again.
func TestEventWait(t *testing.T) {
	drv := &Driver{}
	gpu, err := drv.Open()
	require.NoError(t, err)

	src, err := gpu.NewBuffer(16, true, driver.UGeneric)
	require.NoError(t, err)
	dst, err := gpu.NewBuffer(16, true, driver.UGeneric)
	require.NoError(t, err)
	copy(src.Bytes(), []byte("0123456789abcdef"))

	ev := queue.NewEvent()
	require.False(t, ev.Status())

	cb, err := gpu.NewCmdBuffer()
	require.NoError(t, err)
	require.NoError(t, cb.Begin())
	cb.BeginBlit(false)
	cb.CopyBuffer(&driver.BufferCopy{From: src, To: dst, Size: 16})
	cb.EndBlit()
	require.NoError(t, cb.End())

	ch := make(chan error, 1)
	gpu.Commit([]driver.CmdBuffer{cb}, ch)
	require.NoError(t, <-ch)
	ev.Set()

	require.Equal(t, queue.WaitSignaled, ev.Wait(time.Second))
	require.True(t, ev.Status())
	require.Equal(t, src.Bytes(), dst.Bytes())

	ev.Reset()
	require.False(t, ev.Status())
}
