// Copyright 2024 The vkcpu Authors. All rights reserved.

package resource

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vkcpu/vkcpu/driver"
	"github.com/vkcpu/vkcpu/ir"
	"github.com/vkcpu/vkcpu/jit"
)

func TestBufferVisibility(t *testing.T) {
	b := NewBuffer(64, true, driver.UShaderConst)
	require.Equal(t, int64(64), b.Cap())
	require.Len(t, b.Bytes(), 64)

	hidden := NewBuffer(64, false, driver.UShaderConst)
	require.Nil(t, hidden.Bytes())
}

func TestImageTexelRoundTrip(t *testing.T) {
	im, err := NewImage(driver.RGBA8un, driver.Dim3D{Width: 4, Height: 4, Depth: 1}, 1, 1, 1, driver.UShaderSample)
	require.NoError(t, err)

	v, err := im.NewView(driver.IView2D, 0, 1, 0, 1)
	require.NoError(t, err)
	iv := v.(*ImageView)

	iv.Write([]int64{1, 2, 0, 0}, []float64{0.25, 0.5, 0.75, 1})
	got := iv.Fetch([]int64{1, 2, 0, 0}, 0)
	require.InDelta(t, 0.25, got[0], 0.01)
	require.InDelta(t, 0.5, got[1], 0.01)
	require.InDelta(t, 0.75, got[2], 0.01)
	require.InDelta(t, 1.0, got[3], 0.01)
}

func TestDepthStencilTexel(t *testing.T) {
	im, err := NewImage(driver.D24unS8ui, driver.Dim3D{Width: 2, Height: 2, Depth: 1}, 1, 1, 1, driver.URenderTarget)
	require.NoError(t, err)
	v, err := im.NewView(driver.IView2D, 0, 1, 0, 1)
	require.NoError(t, err)
	iv := v.(*ImageView)

	iv.Write([]int64{0, 0, 0, 0}, []float64{0.5, 7})
	got := iv.Fetch([]int64{0, 0, 0, 0}, 0)
	require.InDelta(t, 0.5, got[0], 0.01)
	require.Equal(t, float64(7), got[1])
}

func TestDescHeapBuffer(t *testing.T) {
	h, err := NewDescHeap([]driver.Descriptor{{Type: driver.DConstant, Nr: 0, Len: 1}})
	require.NoError(t, err)
	require.NoError(t, h.New(1))

	buf := NewBuffer(256, true, driver.UShaderConst)
	h.SetBuffer(0, 0, 0, []driver.Buffer{buf}, []int64{0}, []int64{256})

	data, off, size, ok := h.Buffer(0, 0, 0)
	require.True(t, ok)
	require.Equal(t, int64(0), off)
	require.Equal(t, int64(256), size)
	require.Len(t, data, 256)
}

func TestBindBufferAliasesBytes(t *testing.T) {
	host := jit.NewHost(func(string) (jit.FuncPtr, bool) { return nil, false })
	irMod := &ir.Module{}
	irMod.AddGlobal("_uniform_x", ir.IntType{Bits: 32}, ir.StorageUniform)
	mod, err := host.Compile(irMod, nil)
	require.NoError(t, err)
	defer mod.Destroy()

	buf := make([]byte, 4)
	BindBuffer(mod, "_uniform_x", ir.IntType{Bits: 32}, buf, 0)

	cell := mod.Global("_uniform_x", ir.IntType{Bits: 32})
	cell.Set(int64(42))
	require.Equal(t, byte(42), buf[0])

	buf[0] = 7
	require.Equal(t, int64(7), cell.Get())
}
