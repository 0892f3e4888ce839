// Copyright 2024 The vkcpu Authors. All rights reserved.

package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vkcpu/vkcpu/driver"
	"github.com/vkcpu/vkcpu/format"
)

// TestRoundTripUNorm is the pixel-codec round-trip property from
// spec.md §8: for a non-compressed, non-planar format and a channel
// value representable exactly in it, decode(encode(v)) == v.
func TestRoundTripUNorm(t *testing.T) {
	info := format.MustDescribe(driver.R8un)
	buf := make([]byte, info.Size)
	for _, raw := range []uint64{0, 1, 127, 255} {
		v := float32(float64(raw) / 255)
		SetF32(info, buf, 0, v)
		got := GetF32(info, buf, 0)
		require.InDelta(t, float64(v), float64(got), 1e-6)
	}
}

func TestRoundTripSNorm(t *testing.T) {
	info := format.MustDescribe(driver.R8n)
	buf := make([]byte, info.Size)
	for _, v := range []float32{0, 1, -1, 0.5, -0.5} {
		SetF32(info, buf, 0, v)
		got := GetF32(info, buf, 0)
		require.InDelta(t, float64(v), float64(got), 1e-2)
	}
}

func TestRoundTripUInt(t *testing.T) {
	info := format.MustDescribe(driver.R8ui)
	buf := make([]byte, info.Size)
	SetU32(info, buf, 0, 200)
	require.Equal(t, uint32(200), GetU32(info, buf, 0))
}

func TestRoundTripSInt(t *testing.T) {
	info := format.MustDescribe(driver.R8si)
	buf := make([]byte, info.Size)
	SetI32(info, buf, 0, -100)
	require.Equal(t, int32(-100), GetI32(info, buf, 0))
}

func TestSRGBTransferFunctionRoundTrip(t *testing.T) {
	for _, c := range []float32{0, 0.001, 0.25, 0.5, 0.75, 1.0} {
		enc := SRGBEncode(c)
		dec := SRGBDecode(enc)
		require.InDelta(t, float64(c), float64(dec), 1e-4)
	}
}

// TestAddressModeTotal is the "address mode total" property from
// spec.md §8: for every mode, size>0 and integer v, Wrap is within
// bounds (clamp-to-border is allowed one texel outside on each side).
func TestAddressModeTotal(t *testing.T) {
	modes := []AddrMode{AddrRepeat, AddrMirroredRepeat, AddrClampToEdge, AddrClampToBorder, AddrMirrorClampToEdge}
	size := 8
	for _, m := range modes {
		for v := -20; v <= 20; v++ {
			w := Wrap(v, size, m)
			if m == AddrClampToBorder {
				require.GreaterOrEqual(t, w, -1)
				require.LessOrEqual(t, w, size)
			} else {
				require.GreaterOrEqual(t, w, 0)
				require.Less(t, w, size)
			}
		}
	}
}

func TestMirroredRepeatKnownValues(t *testing.T) {
	require.Equal(t, 0, Wrap(0, 4, AddrMirroredRepeat))
	require.Equal(t, 3, Wrap(3, 4, AddrMirroredRepeat))
	require.Equal(t, 3, Wrap(4, 4, AddrMirroredRepeat))
	require.Equal(t, 0, Wrap(7, 4, AddrMirroredRepeat))
}

func TestSampleNearestSnapsWithoutShift(t *testing.T) {
	grid := [][]float32{{1, 2}, {3, 4}}
	fetch := func(x, y int) float32 { return grid[y][x] }
	got := SampleNearest(2, 2, 0.49, 0.49, AddrClampToEdge, AddrClampToEdge, fetch)
	require.Equal(t, float32(1), got)
	got = SampleNearest(2, 2, 0.99, 0.99, AddrClampToEdge, AddrClampToEdge, fetch)
	require.Equal(t, float32(4), got)
}

func TestSampleLinearAveragesNeighbours(t *testing.T) {
	grid := [][]float32{{0, 0}, {0, 0}}
	fetch := func(x, y int) float32 { return grid[y][x] }
	got := SampleLinear(2, 2, 0.5, 0.5, AddrClampToEdge, AddrClampToEdge, fetch)
	require.Equal(t, float32(0), got)
}

func TestSpecializedCodecCached(t *testing.T) {
	c1 := For(driver.RGBA8un)
	c2 := For(driver.RGBA8un)
	buf := make([]byte, 4)
	c1.SetF32(buf, 0, 0.5)
	require.InDelta(t, 0.5, float64(c2.GetF32(buf, 0)), 1e-2)
}

func TestDepthStencilFormat(t *testing.T) {
	info := format.MustDescribe(driver.D24unS8ui)
	buf := make([]byte, info.Size)
	SetDepthStencil(info, buf, 0.75, 42)
	require.InDelta(t, 0.75, float64(GetDepth(info, buf)), 1e-3)
	require.Equal(t, uint32(42), GetStencil(info, buf))
}
