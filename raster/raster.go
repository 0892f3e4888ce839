// Copyright 2024 The vkcpu Authors. All rights reserved.

// Package raster implements the Assembler & Rasterizer (C8): vertex
// fetch and shading, primitive assembly and clipping, the viewport
// transform, culling, and the per-pixel rasterization/fragment-
// shading/per-sample-ops loop, per spec.md §4.8.
package raster

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/vkcpu/vkcpu/driver"
	"github.com/vkcpu/vkcpu/ir"
	"github.com/vkcpu/vkcpu/jit"
	"github.com/vkcpu/vkcpu/pipeline"
	"github.com/vkcpu/vkcpu/spirvir"
)

// VertexFetcher decodes the raw bytes of one vertex attribute into a
// shader-ready value, keeping package raster decoupled from package
// resource's buffer/descriptor types.
type VertexFetcher func(binding int, vertexIndex int) []float64

// Attachment is the narrow surface a draw needs from a bound
// framebuffer attachment: per-sample read/write.
type Attachment interface {
	Fetch(coord []int64, lod int) []float64
	Write(coord []int64, texel []float64)
}

// Draw carries every input one draw call needs: the compiled
// pipeline, the currently bound dynamic state, vertex/index data
// access and the framebuffer attachments to shade into.
type Draw struct {
	Pipeline *pipeline.Graphics

	VertexCount   int
	InstanceCount int
	FirstVertex   int
	FirstInstance int

	Indexed     bool
	IndexCount  int
	FirstIndex  int
	VertexOff   int
	RestartIdx  uint32
	FetchIndex  func(i int) uint32

	FetchVertex VertexFetcher

	Viewports []driver.Viewport
	Scissors  []driver.Scissor

	Color      []Attachment
	Depth      Attachment
	HasDepth   bool
	StencilRef uint32

	BindGlobals func(stage *pipeline.Stage)
}

type vsOutput struct {
	clip     [4]float64
	varying  map[uint32][]float64
}

// Run executes one draw call end to end: vertex fetch/shading,
// assembly, clip, viewport transform, cull, rasterize, fragment
// shading and per-sample ops.
func Run(d *Draw) error {
	invocations := d.VertexCount
	if d.Indexed {
		invocations = d.IndexCount
	}
	if invocations == 0 || d.InstanceCount == 0 {
		return nil
	}

	for inst := 0; inst < d.InstanceCount; inst++ {
		verts := make([]vsOutput, invocations)
		for i := 0; i < invocations; i++ {
			vIdx := uint32(d.FirstVertex + i)
			if d.Indexed {
				vIdx = d.FetchIndex(d.FirstIndex+i) + uint32(d.VertexOff)
			}
			out, err := shadeVertex(d, int(vIdx), d.FirstInstance+inst)
			if err != nil {
				return err
			}
			verts[i] = out
		}

		restartAt := map[int]bool{}
		if d.Indexed {
			for i := 0; i < invocations; i++ {
				idx := d.FetchIndex(d.FirstIndex + i)
				if idx == d.RestartIdx {
					restartAt[i] = true
				}
			}
		}

		if err := assemble(d, verts, restartAt); err != nil {
			return err
		}
	}
	return nil
}

// assemble groups the shaded vertex stream per the pipeline's input-
// assembly topology and dispatches each resulting primitive, per
// spec.md §4.8 step 3.
func assemble(d *Draw, verts []vsOutput, restart map[int]bool) error {
	switch d.Pipeline.State.Topology {
	case driver.TPoint:
		for i, v := range verts {
			if restart[i] {
				continue
			}
			if err := rasterizePoint(d, v); err != nil {
				return err
			}
		}
	case driver.TLine, driver.TLnStrip:
		strip := d.Pipeline.State.Topology == driver.TLnStrip
		for _, s := range assembleLines(verts, restart, strip) {
			a, b, ok := clipSegment(s[0], s[1])
			if !ok {
				continue
			}
			if err := rasterizeLine(d, [2]vsOutput{a, b}); err != nil {
				return err
			}
		}
	default: // TTriangle, TTriStrip
		strip := d.Pipeline.State.Topology == driver.TTriStrip
		for _, t := range assembleTriangles(verts, restart, strip) {
			if err := processTriangle(d, t); err != nil {
				return err
			}
		}
	}
	return nil
}

type triangle [3]vsOutput
type segment [2]vsOutput

// assembleTriangles groups a run of shaded vertices into triangles,
// restarting the run at every primitive-restart index. strip selects
// triangle-strip grouping (each new vertex after the first two forms
// a triangle with the previous two, alternating winding so every
// triangle in the strip faces the same way) over plain triangle-list
// grouping (disjoint triples).
func assembleTriangles(verts []vsOutput, restart map[int]bool, strip bool) []triangle {
	var tris []triangle
	var run []vsOutput
	flush := func() {
		if strip {
			for i := 2; i < len(run); i++ {
				if i%2 == 0 {
					tris = append(tris, triangle{run[i-2], run[i-1], run[i]})
				} else {
					tris = append(tris, triangle{run[i-1], run[i-2], run[i]})
				}
			}
		} else {
			for i := 2; i < len(run); i += 3 {
				tris = append(tris, triangle{run[i-2], run[i-1], run[i]})
			}
		}
		run = nil
	}
	for i, v := range verts {
		if restart[i] {
			flush()
			continue
		}
		run = append(run, v)
	}
	flush()
	return tris
}

// assembleLines groups a run of shaded vertices into line segments,
// restarting the run at every primitive-restart index. strip selects
// line-strip grouping (every consecutive pair) over line-list
// grouping (disjoint pairs).
func assembleLines(verts []vsOutput, restart map[int]bool, strip bool) []segment {
	var segs []segment
	var run []vsOutput
	flush := func() {
		if strip {
			for i := 1; i < len(run); i++ {
				segs = append(segs, segment{run[i-1], run[i]})
			}
		} else {
			for i := 1; i < len(run); i += 2 {
				segs = append(segs, segment{run[i-1], run[i]})
			}
		}
		run = nil
	}
	for i, v := range verts {
		if restart[i] {
			flush()
			continue
		}
		run = append(run, v)
	}
	flush()
	return segs
}

// clipSegment clips a line segment against the near plane, matching
// clipNearPlane's w > epsilon half-space test.
func clipSegment(a, b vsOutput) (vsOutput, vsOutput, bool) {
	aIn := a.clip[3] > nearEps
	bIn := b.clip[3] > nearEps
	switch {
	case !aIn && !bIn:
		return a, b, false
	case aIn && bIn:
		return a, b, true
	case !aIn:
		return lerpVertex(a, b, clipT(a, b)), b, true
	default:
		return a, lerpVertex(a, b, clipT(a, b)), true
	}
}

// shadeVertex invokes the vertex entry point for one (vertexIndex,
// instanceIndex) pair, feeding the builtin_input cell and returning
// the builtin_output clip-space position plus every location output
// the fragment stage may consume.
func shadeVertex(d *Draw, vertexIndex, instanceIndex int) (vsOutput, error) {
	stage := d.Pipeline.Vertex
	mod := stage.Compiled

	setBuiltinInput(mod, stage, spirvir.BuiltInVertexIndex, int64(vertexIndex))
	setBuiltinInput(mod, stage, spirvir.BuiltInInstanceIndex, int64(instanceIndex))

	for binding, in := range d.Pipeline.State.Input {
		if name, ok := locationGlobalName(stage, in.Nr); ok {
			mod.SetGlobal(name, ir.VectorType{Elem: ir.FloatType{Bits: 32}, Count: 4}, toValues(d.FetchVertex(binding, vertexIndex)))
		}
	}

	if d.BindGlobals != nil {
		d.BindGlobals(stage)
	}

	stage.Entry(nil)

	out := vsOutput{varying: map[uint32][]float64{}}
	if id, ok := stage.Builtins[spirvir.BuiltInPosition]; ok {
		name := stage.GlobalName(id, ir.StorageOutput)
		v := mod.Global(name, ir.VectorType{Elem: ir.FloatType{Bits: 32}, Count: 4}).Get()
		vals := fromValues(v)
		for i := 0; i < 4 && i < len(vals); i++ {
			out.clip[i] = vals[i]
		}
	} else {
		out.clip = [4]float64{0, 0, 0, 1}
	}

	for loc, id := range stage.Locations {
		if stage.Mod == nil {
			continue
		}
		name := stage.GlobalName(id, ir.StorageOutput)
		cell := mod.Global(name, ir.VectorType{Elem: ir.FloatType{Bits: 32}, Count: 4})
		out.varying[loc] = fromValues(cell.Get())
	}

	return out, nil
}

func setBuiltinInput(mod *jit.Module, stage *pipeline.Stage, b spirvir.BuiltIn, v jit.Value) {
	id, ok := stage.Builtins[b]
	if !ok {
		return
	}
	name := stage.GlobalName(id, ir.StorageInput)
	mod.SetGlobal(name, ir.IntType{Bits: 32}, v)
}

func locationGlobalName(stage *pipeline.Stage, loc int) (string, bool) {
	id, ok := stage.Locations[uint32(loc)]
	if !ok {
		return "", false
	}
	return stage.GlobalName(id, ir.StorageInput), true
}

func toValues(f []float64) []jit.Value {
	v := make([]jit.Value, 4)
	for i := range v {
		if i < len(f) {
			v[i] = f[i]
		} else if i == 3 {
			v[i] = float64(1)
		} else {
			v[i] = float64(0)
		}
	}
	return v
}

func fromValues(v jit.Value) []float64 {
	agg, ok := v.([]jit.Value)
	if !ok {
		return nil
	}
	out := make([]float64, len(agg))
	for i, e := range agg {
		switch n := e.(type) {
		case float64:
			out[i] = n
		case int64:
			out[i] = float64(n)
		}
	}
	return out
}

// processTriangle clips, transforms, culls and rasterizes one
// assembled triangle.
func processTriangle(d *Draw, t triangle) error {
	clipped := clipNearPlane(t[:])
	if len(clipped) < 3 {
		return nil
	}
	for i := 2; i < len(clipped); i++ {
		if err := rasterizeTriangle(d, [3]vsOutput{clipped[0], clipped[i-1], clipped[i]}); err != nil {
			return err
		}
	}
	return nil
}

const nearEps = 1e-6

// clipNearPlane runs Sutherland-Hodgman clipping of t against the
// w > epsilon half-space (the canonical clip volume's near plane),
// returning a fan-triangulatable polygon of 0 (fully outside), 3 or 4
// vertices, per spec.md §4.8's "for clipped triangles emit up to two
// replacement triangles; discard triangles wholly outside".
func clipNearPlane(poly []vsOutput) []vsOutput {
	var out []vsOutput
	n := len(poly)
	for i := 0; i < n; i++ {
		cur := poly[i]
		prev := poly[(i-1+n)%n]
		curIn := cur.clip[3] > nearEps
		prevIn := prev.clip[3] > nearEps
		if curIn {
			if !prevIn {
				out = append(out, lerpVertex(prev, cur, clipT(prev, cur)))
			}
			out = append(out, cur)
		} else if prevIn {
			out = append(out, lerpVertex(prev, cur, clipT(prev, cur)))
		}
	}
	return out
}

func clipT(a, b vsOutput) float64 {
	da := a.clip[3] - nearEps
	db := b.clip[3] - nearEps
	if da == db {
		return 0
	}
	return da / (da - db)
}

func lerpVertex(a, b vsOutput, t float64) vsOutput {
	var out vsOutput
	for i := range out.clip {
		out.clip[i] = a.clip[i] + (b.clip[i]-a.clip[i])*t
	}
	out.varying = map[uint32][]float64{}
	for loc, av := range a.varying {
		bv := b.varying[loc]
		v := make([]float64, len(av))
		for i := range v {
			bvi := 0.0
			if i < len(bv) {
				bvi = bv[i]
			}
			v[i] = av[i] + (bvi-av[i])*t
		}
		out.varying[loc] = v
	}
	return out
}

type windowVert struct {
	x, y, z, invW float64
	varying       map[uint32][]float64
}

func toWindow(v vsOutput, vp driver.Viewport) windowVert {
	invW := 1.0
	if v.clip[3] != 0 {
		invW = 1.0 / v.clip[3]
	}
	ndcX := v.clip[0] * invW
	ndcY := v.clip[1] * invW
	ndcZ := v.clip[2] * invW

	x := float64(vp.X) + (ndcX*0.5+0.5)*float64(vp.Width)
	y := float64(vp.Y) + (1-(ndcY*0.5+0.5))*float64(vp.Height)
	z := float64(vp.Znear) + (ndcZ*0.5+0.5)*float64(vp.Zfar-vp.Znear)

	varying := make(map[uint32][]float64, len(v.varying))
	for loc, vals := range v.varying {
		scaled := make([]float64, len(vals))
		for i, val := range vals {
			scaled[i] = val * invW
		}
		varying[loc] = scaled
	}
	return windowVert{x: x, y: y, z: z, invW: invW, varying: varying}
}

// currentViewport returns the only viewport a draw currently reads
// (multi-viewport selection via the ViewportIndex builtin is not yet
// wired, see the Open Questions note in DESIGN.md's C8 section).
func currentViewport(d *Draw) driver.Viewport {
	vp := driver.Viewport{Width: float32(4), Height: float32(4), Zfar: 1}
	if len(d.Viewports) > 0 {
		vp = d.Viewports[0]
	}
	return vp
}

func currentScissor(d *Draw, vp driver.Viewport) driver.Scissor {
	sciss := fullScissor(vp)
	if len(d.Scissors) > 0 {
		sciss = d.Scissors[0]
	}
	return sciss
}

// rasterizePoint shades a single fragment at a point primitive's
// window-space location, reusing shadeFragment's per-sample ops by
// passing the same window vertex as all three barycentric corners
// with weight concentrated on the first.
func rasterizePoint(d *Draw, v vsOutput) error {
	if v.clip[3] <= nearEps {
		return nil
	}
	vp := currentViewport(d)
	w := toWindow(v, vp)
	sciss := currentScissor(d, vp)
	x, y := int(floorF(w.x)), int(floorF(w.y))
	if x < sciss.X || x >= sciss.X+sciss.Width || y < sciss.Y || y >= sciss.Y+sciss.Height {
		return nil
	}
	return shadeFragment(d, x, y, 1, 0, 0, w, w, w, true)
}

// rasterizeLine walks a line segment in window space with a DDA
// stepped along its longer axis, shading one fragment per step with
// the barycentric weight split between the two endpoints (the third
// corner duplicates the second so shadeFragment's existing three-
// corner interpolation reduces to linear interpolation along the
// line).
func rasterizeLine(d *Draw, t [2]vsOutput) error {
	vp := currentViewport(d)
	a := toWindow(t[0], vp)
	b := toWindow(t[1], vp)
	sciss := currentScissor(d, vp)

	dx, dy := b.x-a.x, b.y-a.y
	steps := int(maxF(absF(dx), absF(dy)))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		tt := float64(i) / float64(steps)
		x := int(floorF(a.x + dx*tt))
		y := int(floorF(a.y + dy*tt))
		if x < sciss.X || x >= sciss.X+sciss.Width || y < sciss.Y || y >= sciss.Y+sciss.Height {
			continue
		}
		if err := shadeFragment(d, x, y, 1-tt, tt, 0, a, b, b, true); err != nil {
			return err
		}
	}
	return nil
}

func rasterizeTriangle(d *Draw, t [3]vsOutput) error {
	vp := currentViewport(d)
	a := toWindow(t[0], vp)
	b := toWindow(t[1], vp)
	c := toWindow(t[2], vp)

	area := edge(a, b, c)
	if area == 0 {
		return nil
	}
	cw := area < 0
	front := cw == d.Pipeline.State.Raster.Clockwise
	switch d.Pipeline.State.Raster.Cull {
	case driver.CFront:
		if front {
			return nil
		}
	case driver.CBack:
		if !front {
			return nil
		}
	}

	minX, minY, maxX, maxY := bounds(a, b, c)
	sciss := currentScissor(d, vp)
	minX = maxInt(minX, sciss.X)
	minY = maxInt(minY, sciss.Y)
	maxX = minInt(maxX, sciss.X+sciss.Width)
	maxY = minInt(maxY, sciss.Y+sciss.Height)
	if minX >= maxX || minY >= maxY {
		return nil
	}

	const tile = 16
	var firstErr atomic.Value
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for ty := minY; ty < maxY; ty += tile {
		ty := ty
		tyEnd := minInt(ty+tile, maxY)
		g.Go(func() error {
			for y := ty; y < tyEnd; y++ {
				for x := minX; x < maxX; x++ {
					px := float64(x) + 0.5
					py := float64(y) + 0.5
					w0 := edge(b, c, windowVert{x: px, y: py})
					w1 := edge(c, a, windowVert{x: px, y: py})
					w2 := edge(a, b, windowVert{x: px, y: py})
					if !insideTopLeft(w0, w1, w2, area) {
						continue
					}
					l0, l1, l2 := w0/area, w1/area, w2/area
					if err := shadeFragment(d, x, y, l0, l1, l2, a, b, c, front); err != nil {
						firstErr.CompareAndSwap(nil, err)
						return err
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if e, ok := firstErr.Load().(error); ok {
		return e
	}
	return nil
}

func edge(a, b, c windowVert) float64 {
	return (b.x-a.x)*(c.y-a.y) - (b.y-a.y)*(c.x-a.x)
}

func insideTopLeft(w0, w1, w2, area float64) bool {
	if area > 0 {
		return w0 >= 0 && w1 >= 0 && w2 >= 0
	}
	return w0 <= 0 && w1 <= 0 && w2 <= 0
}

func bounds(a, b, c windowVert) (minX, minY, maxX, maxY int) {
	minX = int(floorF(minF(a.x, b.x, c.x)))
	minY = int(floorF(minF(a.y, b.y, c.y)))
	maxX = int(ceilF(maxF(a.x, b.x, c.x))) + 1
	maxY = int(ceilF(maxF(a.y, b.y, c.y))) + 1
	return
}

func fullScissor(vp driver.Viewport) driver.Scissor {
	return driver.Scissor{X: int(vp.X), Y: int(vp.Y), Width: int(vp.Width), Height: int(vp.Height)}
}

// shadeFragment runs one fragment through input binding, the
// depth/stencil test and the compiled fragment stage, in the order
// the pipeline's early-fragment-test eligibility dictates (spec.md
// §4.8 steps 8 and 10): when the fragment stage cannot discard, the
// depth/stencil test runs before shading so a rejected sample never
// pays for it; otherwise it runs after, since the shader may still
// demote the fragment via OpKill first.
func shadeFragment(d *Draw, x, y int, l0, l1, l2 float64, a, b, c windowVert, front bool) error {
	invWInterp := l0*a.invW + l1*b.invW + l2*c.invW
	if invWInterp == 0 {
		return nil
	}

	stage := d.Pipeline.Fragment
	mod := stage.Compiled

	depth := l0*a.z + l1*b.z + l2*c.z
	coord := []int64{int64(x), int64(y), 0, 0}
	early := !fragmentMayDiscard(stage)

	if early && !runDepthStencil(d, coord, depth, front) {
		return nil
	}

	if id, ok := stage.Builtins[spirvir.BuiltInFragCoord]; ok {
		name := stage.GlobalName(id, ir.StorageInput)
		mod.SetGlobal(name, ir.VectorType{Elem: ir.FloatType{Bits: 32}, Count: 4},
			[]jit.Value{float64(x) + 0.5, float64(y) + 0.5, depth, 1.0 / invWInterp})
	}

	for loc, id := range stage.Locations {
		name := stage.GlobalName(id, ir.StorageInput)
		av := a.varying[loc]
		bv := b.varying[loc]
		cv := c.varying[loc]
		n := len(av)
		interp := make([]jit.Value, 4)
		for i := 0; i < 4; i++ {
			if i >= n {
				if i == 3 {
					interp[i] = float64(1)
				} else {
					interp[i] = float64(0)
				}
				continue
			}
			persp := (l0*av[i] + l1*bv[i] + l2*cv[i]) / invWInterp
			interp[i] = persp
		}
		mod.SetGlobal(name, ir.VectorType{Elem: ir.FloatType{Bits: 32}, Count: 4}, interp)
	}

	if d.BindGlobals != nil {
		d.BindGlobals(stage)
	}

	stage.Entry(nil)

	if !early && !runDepthStencil(d, coord, depth, front) {
		return nil
	}

	blend := d.Pipeline.State.Blend
	for i, att := range d.Color {
		id, ok := stage.Locations[uint32(i)]
		if !ok {
			continue
		}
		name := stage.GlobalName(id, ir.StorageOutput)
		v := fromValues(mod.Global(name, ir.VectorType{Elem: ir.FloatType{Bits: 32}, Count: 4}).Get())

		idx := 0
		if blend.IndependentBlend && i < len(blend.Color) {
			idx = i
		}
		mask := driver.CAll
		if idx < len(blend.Color) {
			mask = blend.Color[idx].WriteMask
		}

		prev := att.Fetch(coord, 0)
		switch {
		case blend.LogicOpEnable:
			v = applyLogicOp(blend.LogicOp, v, prev)
		case idx < len(blend.Color) && blend.Color[idx].Blend:
			v = applyBlend(blend.Color[idx], v, prev)
		}
		v = applyWriteMask(mask, v, prev)
		att.Write(coord, v)
	}
	return nil
}

// fragmentMayDiscard reports whether the compiled fragment stage can
// terminate a fragment's invocation (OpKill/OpTerminateInvocation
// anywhere in its module), which disqualifies it from running the
// depth/stencil test before shading.
func fragmentMayDiscard(stage *pipeline.Stage) bool {
	if stage.Mod == nil {
		return false
	}
	for _, fn := range stage.Mod.Functions {
		for _, blk := range fn.Blocks {
			for _, in := range blk.Instrs {
				if in.Op == spirvir.OpKill || in.Op == spirvir.OpTerminateInvocation {
					return true
				}
			}
		}
	}
	return false
}

// runDepthStencil applies the depth test and the front/back stencil
// test (ref/compareMask/writeMask, per spec.md §4.8 step 8) against
// the bound depth/stencil attachment, writing back the new depth
// and/or stencil value when the tests (and any write they enable)
// call for it. A Fetch/Write attachment that carries no stencil
// channel silently keeps the stencil test always-pass, since there is
// nowhere to persist a result.
func runDepthStencil(d *Draw, coord []int64, depth float64, front bool) bool {
	ds := d.Pipeline.State.DS
	if !d.HasDepth || (!ds.DepthTest && !ds.StencilTest) {
		return true
	}

	prev := d.Depth.Fetch(coord, 0)
	prevDepth := depth
	if len(prev) > 0 {
		prevDepth = prev[0]
	}
	var prevStencil uint32
	if len(prev) > 1 {
		prevStencil = uint32(prev[1])
	}

	depthPass := true
	if ds.DepthTest {
		depthPass = depthPasses(ds.DepthCmp, depth, prevDepth)
	}

	stencilPass := true
	newStencil := prevStencil
	if ds.StencilTest && len(prev) > 1 {
		st := ds.Front
		if !front {
			st = ds.Back
		}
		stencilPass = stencilCompares(st.Cmp, d.StencilRef&st.ReadMask, prevStencil&st.ReadMask)

		var op driver.StencilOp
		switch {
		case !stencilPass:
			op = st.DSFail[0]
		case ds.DepthTest && !depthPass:
			op = st.DSFail[1]
		default:
			op = st.Pass
		}
		newStencil = applyStencilOp(op, prevStencil, d.StencilRef, st.WriteMask)
	}

	pass := depthPass && stencilPass
	writeDepth := pass && ds.DepthTest && ds.DepthWrite
	if ds.StencilTest || writeDepth {
		outDepth := prevDepth
		if writeDepth {
			outDepth = depth
		}
		d.Depth.Write(coord, []float64{outDepth, float64(newStencil)})
	}
	return pass
}

func stencilCompares(cmp driver.CmpFunc, ref, val uint32) bool {
	switch cmp {
	case driver.CNever:
		return false
	case driver.CLess:
		return ref < val
	case driver.CEqual:
		return ref == val
	case driver.CLessEqual:
		return ref <= val
	case driver.CGreater:
		return ref > val
	case driver.CNotEqual:
		return ref != val
	case driver.CGreaterEqual:
		return ref >= val
	default:
		return true
	}
}

func applyStencilOp(op driver.StencilOp, cur, ref, writeMask uint32) uint32 {
	var v uint32
	switch op {
	case driver.SZero:
		v = 0
	case driver.SReplace:
		v = ref
	case driver.SIncClamp:
		if cur < 0xFFFFFFFF {
			v = cur + 1
		} else {
			v = cur
		}
	case driver.SDecClamp:
		if cur > 0 {
			v = cur - 1
		} else {
			v = cur
		}
	case driver.SInvert:
		v = ^cur
	case driver.SIncWrap:
		v = cur + 1
	case driver.SDecWrap:
		v = cur - 1
	default: // SKeep
		v = cur
	}
	return (cur &^ writeMask) | (v & writeMask)
}

// applyWriteMask restores the channels ColorMask leaves unwritten to
// their prior attachment contents, per driver.ColorBlend.WriteMask.
func applyWriteMask(mask driver.ColorMask, v, prev []float64) []float64 {
	if mask == driver.CAll {
		return v
	}
	out := append([]float64(nil), prev...)
	for i := 0; i < 4 && i < len(out); i++ {
		if mask&(1<<uint(i)) != 0 && i < len(v) {
			out[i] = v[i]
		}
	}
	return out
}

// applyLogicOp combines src and dst per op, quantizing each channel
// to 8 bits the way the bitwise VkLogicOp set operates, per
// driver.BlendState.LogicOp.
func applyLogicOp(op driver.LogicOp, src, dst []float64) []float64 {
	out := make([]float64, len(src))
	for i := range src {
		s := quantize8(src[i])
		var dv uint8
		if i < len(dst) {
			dv = quantize8(dst[i])
		}
		var r uint8
		switch op {
		case driver.LClearOp:
			r = 0
		case driver.LAnd:
			r = s & dv
		case driver.LAndReverse:
			r = s &^ dv
		case driver.LCopy:
			r = s
		case driver.LAndInverted:
			r = ^s & dv
		case driver.LNoOp:
			r = dv
		case driver.LXor:
			r = s ^ dv
		case driver.LOr:
			r = s | dv
		case driver.LNor:
			r = ^(s | dv)
		case driver.LEquivalent:
			r = ^(s ^ dv)
		case driver.LInvert:
			r = ^dv
		case driver.LOrReverse:
			r = s | ^dv
		case driver.LCopyInverted:
			r = ^s
		case driver.LOrInverted:
			r = ^s | dv
		case driver.LNand:
			r = ^(s & dv)
		case driver.LSet:
			r = 0xFF
		}
		out[i] = float64(r) / 255
	}
	return out
}

func quantize8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func depthPasses(cmp driver.CmpFunc, newD, oldD float64) bool {
	switch cmp {
	case driver.CNever:
		return false
	case driver.CLess:
		return newD < oldD
	case driver.CEqual:
		return newD == oldD
	case driver.CLessEqual:
		return newD <= oldD
	case driver.CGreater:
		return newD > oldD
	case driver.CNotEqual:
		return newD != oldD
	case driver.CGreaterEqual:
		return newD >= oldD
	default:
		return true
	}
}

func blendFactor(f driver.BlendFac, src, dst []float64, ch int, constant [4]float32) float64 {
	switch f {
	case driver.BZero:
		return 0
	case driver.BOne:
		return 1
	case driver.BSrcColor:
		return src[ch]
	case driver.BInvSrcColor:
		return 1 - src[ch]
	case driver.BSrcAlpha:
		return src[3]
	case driver.BInvSrcAlpha:
		return 1 - src[3]
	case driver.BDstColor:
		return dst[ch]
	case driver.BInvDstColor:
		return 1 - dst[ch]
	case driver.BDstAlpha:
		return dst[3]
	case driver.BInvDstAlpha:
		return 1 - dst[3]
	case driver.BBlendColor:
		return float64(constant[ch])
	case driver.BInvBlendColor:
		return 1 - float64(constant[ch])
	default:
		return 1
	}
}

func combine(op driver.BlendOp, s, d float64) float64 {
	switch op {
	case driver.BSubtract:
		return s - d
	case driver.BRevSubtract:
		return d - s
	case driver.BMin:
		return minF(s, d)
	case driver.BMax:
		return maxF(s, d)
	default:
		return s + d
	}
}

func applyBlend(cb driver.ColorBlend, src, dst []float64) []float64 {
	out := make([]float64, 4)
	for ch := 0; ch < 4; ch++ {
		opIdx := 0
		if ch == 3 {
			opIdx = 1
		}
		sf := blendFactor(cb.SrcFac[opIdx], src, dst, ch, [4]float32{})
		df := blendFactor(cb.DstFac[opIdx], src, dst, ch, [4]float32{})
		out[ch] = combine(cb.Op[opIdx], src[ch]*sf, dst[ch]*df)
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func minF(vs ...float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxF(vs ...float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func floorF(v float64) float64 {
	i := int(v)
	if float64(i) > v {
		i--
	}
	return float64(i)
}

func ceilF(v float64) float64 {
	i := int(v)
	if float64(i) < v {
		i++
	}
	return float64(i)
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
