// Copyright 2024 The vkcpu Authors. All rights reserved.

package renderpass

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vkcpu/vkcpu/driver"
	"github.com/vkcpu/vkcpu/resource"
)

func newColorFB(t *testing.T, width, height int) (*RenderPass, *Framebuf, *resource.ImageView) {
	t.Helper()
	img, err := resource.NewImage(driver.RGBA8un, driver.Dim3D{Width: width, Height: height, Depth: 1}, 1, 1, 1, driver.UShaderSample)
	require.NoError(t, err)
	v, err := img.NewView(driver.IView2D, 0, 1, 0, 1)
	require.NoError(t, err)
	iv := v.(*resource.ImageView)

	p, err := New(
		[]driver.Attachment{{Format: driver.RGBA8un, Samples: 1, Load: [2]driver.LoadOp{driver.LClear, driver.LDontCare}}},
		[]driver.Subpass{{Color: []int{0}, DS: -1}},
	)
	require.NoError(t, err)

	fb, err := p.NewFB([]driver.ImageView{iv}, width, height, 1)
	require.NoError(t, err)
	return p, fb, iv
}

func TestApplyLoadOpsClearsAttachment(t *testing.T) {
	_, fb, iv := newColorFB(t, 2, 2)

	err := ApplyLoadOps(fb, []driver.ClearValue{{Color: [4]float32{0.2, 0.4, 0.6, 0.8}}})
	require.NoError(t, err)

	got := iv.Fetch([]int64{1, 1, 0, 0}, 0)
	require.InDelta(t, 0.2, got[0], 0.01)
	require.InDelta(t, 0.4, got[1], 0.01)
	require.InDelta(t, 0.6, got[2], 0.01)
	require.InDelta(t, 0.8, got[3], 0.01)
}

func TestApplyLoadOpsLeavesLoadUntouched(t *testing.T) {
	img, err := resource.NewImage(driver.RGBA8un, driver.Dim3D{Width: 1, Height: 1, Depth: 1}, 1, 1, 1, driver.UShaderSample)
	require.NoError(t, err)
	v, err := img.NewView(driver.IView2D, 0, 1, 0, 1)
	require.NoError(t, err)
	iv := v.(*resource.ImageView)
	iv.Write([]int64{0, 0, 0, 0}, []float64{0.1, 0.2, 0.3, 0.4})

	p, err := New(
		[]driver.Attachment{{Format: driver.RGBA8un, Samples: 1, Load: [2]driver.LoadOp{driver.LLoad, driver.LDontCare}}},
		[]driver.Subpass{{Color: []int{0}, DS: -1}},
	)
	require.NoError(t, err)
	fb, err := p.NewFB([]driver.ImageView{iv}, 1, 1, 1)
	require.NoError(t, err)

	require.NoError(t, ApplyLoadOps(fb, nil))

	got := iv.Fetch([]int64{0, 0, 0, 0}, 0)
	require.InDelta(t, 0.1, got[0], 0.01)
	require.InDelta(t, 0.2, got[1], 0.01)
}

// fakeSamples is a minimal texelWriter standing in for a multisample
// attachment view: Fetch's lod argument is reinterpreted as the
// sample index, matching how Resolve calls it.
type fakeSamples struct {
	bySample map[int][]float64
	written  []float64
}

func (f *fakeSamples) Fetch(coord []int64, lod int) []float64 { return f.bySample[lod] }
func (f *fakeSamples) Write(coord []int64, texel []float64)   { f.written = texel }

func TestResolveAveragesSamples(t *testing.T) {
	src := &fakeSamples{bySample: map[int][]float64{
		0: {0, 0, 0, 1},
		1: {1, 1, 1, 1},
	}}
	dst := &fakeSamples{}

	Resolve(src, dst, 1, 1, 1, 2)

	require.InDelta(t, 0.5, dst.written[0], 0.001)
	require.InDelta(t, 1.0, dst.written[3], 0.001)
}

func TestNewRejectsEmptySubpasses(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
}
