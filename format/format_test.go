// Copyright 2024 The vkcpu Authors. All rights reserved.

package format

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vkcpu/vkcpu/driver"
)

func TestDescribeKnownFormats(t *testing.T) {
	cases := []driver.PixelFmt{
		driver.RGBA8un, driver.BGRA8un, driver.RGBA8sRGB, driver.R16f,
		driver.RGBA32f, driver.D32fS8ui, driver.RGBA8ui, driver.R8us,
		driver.B5G6R5un, driver.BC1RGBAun,
	}
	for _, f := range cases {
		i, ok := Describe(f)
		require.True(t, ok, "format %d", f)
		require.NotZero(t, i.Size)
	}
}

// TestElementSizeInvariant checks spec.md §3's data-model invariant:
// for non-packed formats, element size * channel count == total size.
func TestElementSizeInvariant(t *testing.T) {
	nonPacked := []driver.PixelFmt{driver.RGBA8un, driver.RG8n, driver.R8un, driver.RGBA16f, driver.RGBA32f}
	for _, f := range nonPacked {
		i := MustDescribe(f)
		sum := 0
		for _, c := range i.Channels {
			sum += c.BitCount
		}
		require.Equal(t, i.Size*8, sum, "format %d", f)
	}
}

func TestPackedFormatIsNotElementSizeTimesChannels(t *testing.T) {
	i := MustDescribe(driver.B5G6R5un)
	sum := 0
	for _, c := range i.Channels {
		sum += c.BitCount
	}
	require.Equal(t, 16, sum)
	require.Equal(t, 2, i.Size)
}

func TestNeedsYCbCr(t *testing.T) {
	require.True(t, NeedsYCbCr(driver.G8B8R8420un))
	require.False(t, NeedsYCbCr(driver.RGBA8un))
	// An unknown format is conservatively reported as needing the
	// planar-aware path, per spec.md §4.1's contract.
	require.True(t, NeedsYCbCr(driver.PixelFmt(-1)))
}

func TestPlanarFeaturesAreRestricted(t *testing.T) {
	i := MustDescribe(driver.G8B8R8420un)
	require.NotZero(t, i.OptimalTilingFeatures&FYCbCrConversion)
	require.Zero(t, i.OptimalTilingFeatures&FColorBlend)
}

func TestNormalFormatHasFullFeatureSet(t *testing.T) {
	i := MustDescribe(driver.RGBA8un)
	require.NotZero(t, i.OptimalTilingFeatures&FSampled)
	require.NotZero(t, i.OptimalTilingFeatures&FColorBlend)
	require.NotZero(t, i.OptimalTilingFeatures&FBlitSrc)
}

func TestCompressedFormatHasNoDepthStencilFeature(t *testing.T) {
	i := MustDescribe(driver.BC1RGBAun)
	require.Zero(t, i.OptimalTilingFeatures&FDepthStencil)
}

func TestIsInternal(t *testing.T) {
	require.True(t, (driver.FInternal | driver.RGBA8un).IsInternal())
	require.False(t, driver.RGBA8un.IsInternal())
}
