// Copyright 2024 The vkcpu Authors. All rights reserved.

// Package command implements the Command Buffer & State component
// (C10): an append-only recorded command list with its own state
// machine, and the replay loop that turns recorded commands into
// render-pass, rasterizer, compute-dispatch and copy execution
// against package resource's buffers and images, per spec.md §4.10.
package command

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/vkcpu/vkcpu/driver"
	"github.com/vkcpu/vkcpu/ir"
	"github.com/vkcpu/vkcpu/jit"
	"github.com/vkcpu/vkcpu/pipeline"
	"github.com/vkcpu/vkcpu/raster"
	"github.com/vkcpu/vkcpu/renderpass"
	"github.com/vkcpu/vkcpu/resource"
	"github.com/vkcpu/vkcpu/spirvir"
)

func math32frombits(b uint32) float32 { return math.Float32frombits(b) }

// setBuiltinUVec3 binds a uvec3 compute builtin (WorkgroupId,
// GlobalInvocationId, NumWorkgroups) individually, per the
// individually-named-builtin-globals architecture shared with
// package raster's vertex/fragment builtin binding.
func setBuiltinUVec3(stage *pipeline.Stage, b spirvir.BuiltIn, x, y, z int) {
	id, ok := stage.Builtins[b]
	if !ok {
		return
	}
	name := stage.GlobalName(id, ir.StorageInput)
	stage.Compiled.SetGlobal(name, ir.VectorType{Elem: ir.IntType{Bits: 32}, Count: 3},
		[]jit.Value{int64(x), int64(y), int64(z)})
}

// State is the command buffer's lifecycle state, per spec.md §4.10.
type State int

const (
	Initial State = iota
	Recording
	Executable
	Pending
	Invalid
)

// record is one deep-copied, replayable unit of recorded work.
type record func(e *executor) error

// Buffer implements driver.CmdBuffer: a recorded, replayable command
// list plus its own lifecycle state.
type Buffer struct {
	state   State
	records []record

	inPass  bool
	inWork  bool
	inBlit  bool
}

// New creates a command buffer in the Initial state.
func New() *Buffer {
	return &Buffer{state: Initial}
}

func (b *Buffer) Destroy() {}

func (b *Buffer) Begin() error {
	if b.state == Pending {
		return fmt.Errorf("command: cannot begin, buffer is pending execution")
	}
	b.records = b.records[:0]
	b.state = Recording
	return nil
}

func (b *Buffer) Reset() error {
	if b.state == Pending {
		return fmt.Errorf("command: cannot reset, buffer is pending execution")
	}
	b.records = nil
	b.state = Initial
	return nil
}

func (b *Buffer) End() error {
	if b.state != Recording {
		return fmt.Errorf("command: End called outside recording")
	}
	if b.inPass || b.inWork || b.inBlit {
		b.state = Invalid
		b.records = nil
		return fmt.Errorf("command: End called with an open Begin* block")
	}
	b.state = Executable
	return nil
}

// ---- recording ----

func (b *Buffer) BeginPass(pass driver.RenderPass, fb driver.Framebuf, clear []driver.ClearValue) {
	b.inPass = true
	clearCopy := append([]driver.ClearValue(nil), clear...)
	rp, _ := pass.(*renderpass.RenderPass)
	fbuf, _ := fb.(*renderpass.Framebuf)
	b.records = append(b.records, func(e *executor) error {
		e.pass = rp
		e.fb = fbuf
		e.subpass = 0
		if err := renderpass.ApplyLoadOps(fbuf, clearCopy); err != nil {
			return err
		}
		return nil
	})
}

func (b *Buffer) NextSubpass() {
	b.records = append(b.records, func(e *executor) error {
		e.runSubpassResolve()
		e.subpass++
		return nil
	})
}

func (b *Buffer) EndPass() {
	b.inPass = false
	b.records = append(b.records, func(e *executor) error {
		e.runSubpassResolve()
		renderpass.ApplyStoreOps(e.fb)
		e.pass = nil
		e.fb = nil
		return nil
	})
}

func (b *Buffer) BeginWork(wait bool) { b.inWork = true }
func (b *Buffer) EndWork()            { b.inWork = false }
func (b *Buffer) BeginBlit(wait bool) { b.inBlit = true }
func (b *Buffer) EndBlit()            { b.inBlit = false }

func (b *Buffer) SetPipeline(pl driver.Pipeline) {
	b.records = append(b.records, func(e *executor) error {
		switch p := pl.(type) {
		case *pipeline.Graphics:
			e.graphics = p
		case *pipeline.Compute:
			e.compute = p
		}
		return nil
	})
}

func (b *Buffer) SetViewport(vp []driver.Viewport) {
	cp := append([]driver.Viewport(nil), vp...)
	b.records = append(b.records, func(e *executor) error { e.viewports = cp; return nil })
}

func (b *Buffer) SetScissor(sciss []driver.Scissor) {
	cp := append([]driver.Scissor(nil), sciss...)
	b.records = append(b.records, func(e *executor) error { e.scissors = cp; return nil })
}

func (b *Buffer) SetBlendColor(r, g, b2, a float32) {
	b.records = append(b.records, func(e *executor) error {
		e.blendColor = [4]float32{r, g, b2, a}
		return nil
	})
}

func (b *Buffer) SetStencilRef(value uint32) {
	b.records = append(b.records, func(e *executor) error { e.stencilRef = value; return nil })
}

func (b *Buffer) SetVertexBuf(start int, buf []driver.Buffer, off []int64) {
	bufCp := append([]driver.Buffer(nil), buf...)
	offCp := append([]int64(nil), off...)
	b.records = append(b.records, func(e *executor) error {
		for i := range bufCp {
			idx := start + i
			for len(e.vertexBufs) <= idx {
				e.vertexBufs = append(e.vertexBufs, nil)
				e.vertexOffs = append(e.vertexOffs, 0)
			}
			e.vertexBufs[idx] = bufCp[i].(*resource.Buffer)
			e.vertexOffs[idx] = offCp[i]
		}
		return nil
	})
}

func (b *Buffer) SetIndexBuf(format driver.IndexFmt, buf driver.Buffer, off int64) {
	rb := buf.(*resource.Buffer)
	b.records = append(b.records, func(e *executor) error {
		e.indexBuf = rb
		e.indexOff = off
		e.indexFmt = format
		return nil
	})
}

func (b *Buffer) SetDescTableGraph(table driver.DescTable, start int, heapCopy []int) {
	t := table.(*resource.DescTable)
	cp := append([]int(nil), heapCopy...)
	b.records = append(b.records, func(e *executor) error {
		e.graphTable = t
		e.graphStart = start
		e.graphCopy = cp
		return nil
	})
}

func (b *Buffer) SetDescTableComp(table driver.DescTable, start int, heapCopy []int) {
	t := table.(*resource.DescTable)
	cp := append([]int(nil), heapCopy...)
	b.records = append(b.records, func(e *executor) error {
		e.compTable = t
		e.compStart = start
		e.compCopy = cp
		return nil
	})
}

func (b *Buffer) Draw(vertCount, instCount, baseVert, baseInst int) {
	b.records = append(b.records, func(e *executor) error {
		return e.draw(vertCount, instCount, baseVert, baseInst, false, 0, 0)
	})
}

func (b *Buffer) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int) {
	b.records = append(b.records, func(e *executor) error {
		return e.draw(idxCount, instCount, 0, baseInst, true, baseIdx, vertOff)
	})
}

func (b *Buffer) Dispatch(x, y, z int) {
	b.records = append(b.records, func(e *executor) error { return e.dispatch(x, y, z) })
}

func (b *Buffer) CopyBuffer(param *driver.BufferCopy) {
	p := *param
	b.records = append(b.records, func(e *executor) error {
		from := p.From.(*resource.Buffer).Bytes()
		to := p.To.(*resource.Buffer).Bytes()
		copy(to[p.ToOff:p.ToOff+p.Size], from[p.FromOff:p.FromOff+p.Size])
		return nil
	})
}

func (b *Buffer) Fill(buf driver.Buffer, off int64, value byte, size int64) {
	rb := buf.(*resource.Buffer)
	b.records = append(b.records, func(e *executor) error {
		data := rb.Bytes()
		for i := off; i < off+size; i++ {
			data[i] = value
		}
		return nil
	})
}

func (b *Buffer) CopyImage(param *driver.ImageCopy) {
	p := *param
	b.records = append(b.records, func(e *executor) error {
		from := p.From.(*resource.Image)
		to := p.To.(*resource.Image)
		for l := 0; l < p.Layers; l++ {
			for z := 0; z < p.Size.Depth; z++ {
				for y := 0; y < p.Size.Height; y++ {
					for x := 0; x < p.Size.Width; x++ {
						src := from.RawTexel(p.FromOff.X+x, p.FromOff.Y+y, p.FromOff.Z+z, p.FromLayer+l, p.FromLevel)
						dst := to.RawTexel(p.ToOff.X+x, p.ToOff.Y+y, p.ToOff.Z+z, p.ToLayer+l, p.ToLevel)
						copy(dst, src)
					}
				}
			}
		}
		return nil
	})
}

func (b *Buffer) CopyBufToImg(param *driver.BufImgCopy) {
	p := *param
	b.records = append(b.records, func(e *executor) error {
		buf := p.Buf.(*resource.Buffer).Bytes()
		img := p.Img.(*resource.Image)
		texelSize := img.TexelSize()
		rowPixels := p.Stride[0]
		if rowPixels == 0 {
			rowPixels = int64(p.Size.Width)
		}
		planePixels := p.Stride[1]
		if planePixels == 0 {
			planePixels = int64(p.Size.Height)
		}
		for z := 0; z < p.Size.Depth; z++ {
			for y := 0; y < p.Size.Height; y++ {
				for x := 0; x < p.Size.Width; x++ {
					srcOff := p.BufOff + (int64(z)*planePixels*rowPixels+int64(y)*rowPixels+int64(x))*texelSize
					src := buf[srcOff : srcOff+texelSize]
					dst := img.RawTexel(p.ImgOff.X+x, p.ImgOff.Y+y, p.ImgOff.Z+z, p.Layer, p.Level)
					copy(dst, src)
				}
			}
		}
		return nil
	})
}

func (b *Buffer) CopyImgToBuf(param *driver.BufImgCopy) {
	p := *param
	b.records = append(b.records, func(e *executor) error {
		buf := p.Buf.(*resource.Buffer).Bytes()
		img := p.Img.(*resource.Image)
		texelSize := img.TexelSize()
		rowPixels := p.Stride[0]
		if rowPixels == 0 {
			rowPixels = int64(p.Size.Width)
		}
		planePixels := p.Stride[1]
		if planePixels == 0 {
			planePixels = int64(p.Size.Height)
		}
		for z := 0; z < p.Size.Depth; z++ {
			for y := 0; y < p.Size.Height; y++ {
				for x := 0; x < p.Size.Width; x++ {
					dstOff := p.BufOff + (int64(z)*planePixels*rowPixels+int64(y)*rowPixels+int64(x))*texelSize
					dst := buf[dstOff : dstOff+texelSize]
					src := img.RawTexel(p.ImgOff.X+x, p.ImgOff.Y+y, p.ImgOff.Z+z, p.Layer, p.Level)
					copy(dst, src)
				}
			}
		}
		return nil
	})
}

func (b *Buffer) Barrier(bar []driver.Barrier) {
	// The CPU backend serializes all recorded work strictly in
	// submission order, so a memory barrier has no observable effect
	// beyond the ordering command buffers already guarantee.
}

func (b *Buffer) Transition(t []driver.Transition) {
	cp := append([]driver.Transition(nil), t...)
	b.records = append(b.records, func(e *executor) error {
		for _, tr := range cp {
			applyTransition(tr)
		}
		return nil
	})
}

func applyTransition(t driver.Transition) {
	// Layout bookkeeping only: the host-memory backend keeps texel
	// data in one canonical layout regardless of LayoutBefore/After,
	// so General<->Present and General<->TransferSrc/TransferDst
	// transitions re-swizzle nothing and every other pair is accepted
	// as pure bookkeeping, per the decided open question on layouts.
}

// Replay executes every recorded command in order against fresh
// executor state, per GPU.Commit's "replay the command buffer"
// contract.
func (b *Buffer) Replay() error {
	if b.state != Pending {
		return fmt.Errorf("command: Replay called on a buffer that is not pending")
	}
	e := &executor{}
	for _, r := range b.records {
		if err := r(e); err != nil {
			return err
		}
	}
	return nil
}

// MarkPending transitions b from Executable to Pending, as GPU.Commit
// does when accepting it for execution.
func (b *Buffer) MarkPending() error {
	if b.state != Executable {
		return fmt.Errorf("command: buffer is not in the Executable state")
	}
	b.state = Pending
	return nil
}

// MarkExecutable transitions b from Pending back to Executable once
// its submission completes.
func (b *Buffer) MarkExecutable() { b.state = Executable }

// MarkInvalid transitions b to Invalid on submission failure.
func (b *Buffer) MarkInvalid() { b.state = Invalid }

// executor carries replay-time state: the current pipeline, bound
// descriptor tables, vertex/index buffers and dynamic state.
type executor struct {
	pass    *renderpass.RenderPass
	fb      *renderpass.Framebuf
	subpass int

	graphics *pipeline.Graphics
	compute  *pipeline.Compute

	viewports  []driver.Viewport
	scissors   []driver.Scissor
	blendColor [4]float32
	stencilRef uint32

	vertexBufs []*resource.Buffer
	vertexOffs []int64

	indexBuf *resource.Buffer
	indexOff int64
	indexFmt driver.IndexFmt

	graphTable *resource.DescTable
	graphStart int
	graphCopy  []int
	compTable  *resource.DescTable
	compStart  int
	compCopy   []int
}

func (e *executor) runSubpassResolve() {
	if e.pass == nil || e.subpass >= len(e.pass.Subpasses) {
		return
	}
	sub := e.pass.Subpasses[e.subpass]
	for i, resolveIdx := range sub.MSR {
		if resolveIdx < 0 || i >= len(sub.Color) {
			continue
		}
		srcIdx := sub.Color[i]
		src, sok := e.fb.Views[srcIdx].(attachmentIO)
		dst, dok := e.fb.Views[resolveIdx].(attachmentIO)
		if sok && dok {
			renderpass.Resolve(src, dst, e.fb.Width, e.fb.Height, e.fb.Layers, e.pass.Attachments[srcIdx].Samples)
		}
	}
}

type attachmentIO interface {
	Fetch(coord []int64, lod int) []float64
	Write(coord []int64, texel []float64)
}

func (e *executor) draw(count, instCount, baseVert, baseInst int, indexed bool, baseIdx, vertOff int) error {
	if e.graphics == nil || e.pass == nil {
		return fmt.Errorf("command: Draw called without a bound pipeline or active render pass")
	}
	sub := e.pass.Subpasses[e.subpass]

	var color []raster.Attachment
	for _, idx := range sub.Color {
		att, ok := e.fb.Views[idx].(raster.Attachment)
		if !ok {
			return fmt.Errorf("command: attachment %d has no texel access", idx)
		}
		color = append(color, att)
	}
	var depth raster.Attachment
	hasDepth := sub.DS >= 0 && sub.DS < len(e.fb.Views)
	if hasDepth {
		depth, _ = e.fb.Views[sub.DS].(raster.Attachment)
	}

	d := &raster.Draw{
		Pipeline:      e.graphics,
		VertexCount:   count,
		InstanceCount: instCount,
		FirstVertex:   baseVert,
		FirstInstance: baseInst,
		Indexed:       indexed,
		IndexCount:    count,
		FirstIndex:    baseIdx,
		VertexOff:     vertOff,
		RestartIdx:    restartValue(e.indexFmt),
		Viewports:     e.viewports,
		Scissors:      e.scissors,
		Color:         color,
		Depth:         depth,
		HasDepth:      hasDepth,
		StencilRef:    e.stencilRef,
		FetchVertex:   e.fetchVertex,
	}
	if indexed {
		d.FetchIndex = e.fetchIndex
	}
	d.BindGlobals = func(stage *pipeline.Stage) { e.bindDescriptors(stage, e.graphTable, e.graphStart, e.graphCopy) }
	return raster.Run(d)
}

func restartValue(f driver.IndexFmt) uint32 {
	if f == driver.Index16 {
		return 0xFFFF
	}
	return 0xFFFFFFFF
}

func (e *executor) fetchIndex(i int) uint32 {
	data := e.indexBuf.Bytes()
	off := e.indexOff
	if e.indexFmt == driver.Index16 {
		o := off + int64(i)*2
		return uint32(data[o]) | uint32(data[o+1])<<8
	}
	o := off + int64(i)*4
	return uint32(data[o]) | uint32(data[o+1])<<8 | uint32(data[o+2])<<16 | uint32(data[o+3])<<24
}

func (e *executor) fetchVertex(binding, vertexIndex int) []float64 {
	if binding >= len(e.graphics.State.Input) || binding >= len(e.vertexBufs) {
		return nil
	}
	in := e.graphics.State.Input[binding]
	buf := e.vertexBufs[binding]
	if buf == nil {
		return nil
	}
	data := buf.Bytes()
	off := e.vertexOffs[binding] + int64(vertexIndex)*int64(in.Stride)
	return decodeVertexFmt(data[off:], in.Format)
}

func decodeVertexFmt(buf []byte, f driver.VertexFmt) []float64 {
	switch f {
	case driver.Float32, driver.Float32x2, driver.Float32x3, driver.Float32x4:
		n := 1 + int(f-driver.Float32)
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = float64(decodeF32(buf[i*4:]))
		}
		return out
	case driver.Int32, driver.Int32x2, driver.Int32x3, driver.Int32x4:
		n := 1 + int(f-driver.Int32)
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = float64(int32(decodeU32(buf[i*4:])))
		}
		return out
	case driver.UInt32, driver.UInt32x2, driver.UInt32x3, driver.UInt32x4:
		n := 1 + int(f-driver.UInt32)
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = float64(decodeU32(buf[i*4:]))
		}
		return out
	case driver.Int16, driver.Int16x2, driver.Int16x3, driver.Int16x4:
		n := 1 + int(f-driver.Int16)
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = float64(int16(uint16(buf[i*2]) | uint16(buf[i*2+1])<<8))
		}
		return out
	case driver.UInt16, driver.UInt16x2, driver.UInt16x3, driver.UInt16x4:
		n := 1 + int(f-driver.UInt16)
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = float64(uint16(buf[i*2]) | uint16(buf[i*2+1])<<8)
		}
		return out
	case driver.Int8, driver.Int8x2, driver.Int8x3, driver.Int8x4:
		n := 1 + int(f-driver.Int8)
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = float64(int8(buf[i]))
		}
		return out
	case driver.UInt8, driver.UInt8x2, driver.UInt8x3, driver.UInt8x4:
		n := 1 + int(f-driver.UInt8)
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = float64(buf[i])
		}
		return out
	default:
		return nil
	}
}

func decodeF32(b []byte) float32 {
	return math32frombits(decodeU32(b))
}

func decodeU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func (e *executor) dispatch(x, y, z int) error {
	if e.compute == nil {
		return fmt.Errorf("command: Dispatch called without a bound compute pipeline")
	}
	stage := e.compute.Stage

	type group struct{ x, y, z int }
	var groups []group
	for gz := 0; gz < z; gz++ {
		for gy := 0; gy < y; gy++ {
			for gx := 0; gx < x; gx++ {
				groups = append(groups, group{gx, gy, gz})
			}
		}
	}

	g := new(errgroup.Group)
	for _, grp := range groups {
		grp := grp
		g.Go(func() error {
			setBuiltinUVec3(stage, spirvir.BuiltInWorkgroupId, grp.x, grp.y, grp.z)
			setBuiltinUVec3(stage, spirvir.BuiltInGlobalInvocationId, grp.x, grp.y, grp.z)
			setBuiltinUVec3(stage, spirvir.BuiltInNumWorkgroups, x, y, z)
			e.bindDescriptors(stage, e.compTable, e.compStart, e.compCopy)
			stage.Entry(nil)
			return nil
		})
	}
	return g.Wait()
}

// globalType looks up the declared IR type of a module-scope global
// by its mangled name, so a descriptor bind decodes/encodes the
// buffer's full byte range as the shader's actual uniform/storage
// type instead of a single scalar.
func globalType(stage *pipeline.Stage, name string) ir.Type {
	for _, g := range stage.IR.Globals {
		if g.Name == name {
			return g.Type
		}
	}
	return ir.IntType{Bits: 8}
}

// bindDescriptors resolves each shader descriptor against the table's
// heaps, offsetting the shader's absolute descriptor-set number by
// start (the set number SetDescTableGraph/SetDescTableComp's table
// begins at) before indexing into table.Heaps/heapCopy, mirroring the
// firstSet semantics of vkCmdBindDescriptorSets.
func (e *executor) bindDescriptors(stage *pipeline.Stage, table *resource.DescTable, start int, heapCopy []int) {
	if table == nil {
		return
	}
	for key, id := range stage.Descriptors {
		heapIdx := int(key.Set) - start
		if heapIdx < 0 || heapIdx >= len(table.Heaps) {
			continue
		}
		heap := table.Heaps[heapIdx]
		cpy := 0
		if heapIdx < len(heapCopy) {
			cpy = heapCopy[heapIdx]
		}
		name := stage.GlobalName(id, ir.StorageUniform)
		if data, off, size, ok := heap.Buffer(cpy, int(key.Binding), 0); ok {
			_ = size
			resource.BindBuffer(stage.Compiled, name, globalType(stage, name), data, off)
			continue
		}
		if iv, ok := heap.Image(cpy, int(key.Binding), 0); ok {
			t := globalType(stage, name)
			if splr, ok2 := heap.Sampler(cpy, int(key.Binding), 0); ok2 {
				bound := &resource.BoundImage{View: iv.(*resource.ImageView), Sampler: splr.(*resource.Sampler)}
				resource.BindImage(stage.Compiled, name, t, bound)
			} else {
				resource.BindImage(stage.Compiled, name, t, iv)
			}
		}
	}
}
