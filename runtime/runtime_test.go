// Copyright 2024 The vkcpu Authors. All rights reserved.

package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vkcpu/vkcpu/jit"
)

func TestLookupStripsMangledSuffix(t *testing.T) {
	fn, ok := Lookup("@FAbs.F32")
	require.True(t, ok)
	require.Equal(t, float64(3), fn([]jit.Value{float64(-3)}))
}

func TestElementwiseOverVector(t *testing.T) {
	fn, ok := Lookup("@Floor.F32[3]")
	require.True(t, ok)
	in := []jit.Value{1.5, 2.9, -0.5}
	out := fn([]jit.Value{in}).([]jit.Value)
	require.Equal(t, float64(1), out[0])
	require.Equal(t, float64(2), out[1])
	require.Equal(t, float64(-1), out[2])
}

func TestDotAndLength(t *testing.T) {
	fn, _ := Lookup("@Dot")
	v := []jit.Value{float64(1), float64(0), float64(0)}
	require.Equal(t, float64(1), fn([]jit.Value{v, v}))

	lenFn, _ := Lookup("@Length")
	require.InDelta(t, 1.0, lenFn([]jit.Value{v}).(float64), 1e-9)
}

func TestNormalize(t *testing.T) {
	fn, _ := Lookup("@Normalize")
	v := []jit.Value{float64(3), float64(4), float64(0)}
	out := fn([]jit.Value{v}).([]jit.Value)
	require.InDelta(t, 0.6, out[0].(float64), 1e-9)
	require.InDelta(t, 0.8, out[1].(float64), 1e-9)
}

func TestSelectAndClamp(t *testing.T) {
	sel, _ := Lookup("@Select")
	require.Equal(t, float64(10), sel([]jit.Value{int64(1), float64(10), float64(20)}))

	clamp, _ := Lookup("@FClamp")
	require.Equal(t, float64(5), clamp([]jit.Value{float64(10), float64(0), float64(5)}))
}

type fakeImage struct {
	sampled []float64
}

func (f *fakeImage) Sample(coord []float64, lod float64) []float64 { return f.sampled }
func (f *fakeImage) Fetch(coord []int64, lod int) []float64        { return f.sampled }
func (f *fakeImage) Write(coord []int64, texel []float64)          { f.sampled = texel }

func TestImageSampleIntrinsic(t *testing.T) {
	img := &fakeImage{sampled: []float64{1, 0, 0, 1}}
	fn, ok := Lookup("@ImageSample.F32[2]")
	require.True(t, ok)

	coord := []jit.Value{float64(0.5), float64(0.5)}
	out := fn([]jit.Value{img, coord}).([]jit.Value)
	require.Equal(t, float64(1), out[0])
}

func TestImageWriteIntrinsic(t *testing.T) {
	img := &fakeImage{}
	fn, _ := Lookup("@ImageWrite.I32[2]")
	coord := []jit.Value{int64(1), int64(2)}
	texel := []jit.Value{float64(0.1), float64(0.2), float64(0.3), float64(1)}
	fn([]jit.Value{img, coord, texel})
	require.Equal(t, []float64{0.1, 0.2, 0.3, 1}, img.sampled)
}
