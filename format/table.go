// Copyright 2024 The vkcpu Authors. All rights reserved.

package format

import "github.com/vkcpu/vkcpu/driver"

// rgba8 builds the four 8-bit RGBA channel layout shared by every
// unpacked 8-bit-per-channel color format.
func rgba8() []Channel {
	return []Channel{
		{BitOffset: 0, BitCount: 8},
		{BitOffset: 8, BitCount: 8},
		{BitOffset: 16, BitCount: 8},
		{BitOffset: 24, BitCount: 8},
	}
}

func rg8() []Channel {
	return []Channel{
		{BitOffset: 0, BitCount: 8},
		{BitOffset: 8, BitCount: 8},
	}
}

func r8() []Channel {
	return []Channel{{BitOffset: 0, BitCount: 8}}
}

func rgba16() []Channel {
	return []Channel{
		{BitOffset: 0, BitCount: 16},
		{BitOffset: 16, BitCount: 16},
		{BitOffset: 32, BitCount: 16},
		{BitOffset: 48, BitCount: 16},
	}
}

func rg16() []Channel {
	return []Channel{
		{BitOffset: 0, BitCount: 16},
		{BitOffset: 16, BitCount: 16},
	}
}

func r16() []Channel { return []Channel{{BitOffset: 0, BitCount: 16}} }

func rgba32() []Channel {
	return []Channel{
		{BitOffset: 0, BitCount: 32},
		{BitOffset: 32, BitCount: 32},
		{BitOffset: 64, BitCount: 32},
		{BitOffset: 96, BitCount: 32},
	}
}

func rg32() []Channel {
	return []Channel{
		{BitOffset: 0, BitCount: 32},
		{BitOffset: 32, BitCount: 32},
	}
}

func r32() []Channel { return []Channel{{BitOffset: 0, BitCount: 32}} }

// build constructs the full, process-wide format table. It is a pure
// function of the driver.PixelFmt enumeration: every entry's feature
// masks are derived solely from its category by newInfo, per
// spec.md §4.1.
func build() map[driver.PixelFmt]Info {
	t := make(map[driver.PixelFmt]Info)
	add := func(f driver.PixelFmt, b builder) {
		t[f] = newInfo(f, b)
	}

	// Color, 8-bit unpacked channels.
	add(driver.RGBA8un, builder{category: Normal, baseType: UNorm, size: 4, channels: rgba8()})
	add(driver.RGBA8n, builder{category: Normal, baseType: SNorm, size: 4, channels: rgba8()})
	add(driver.RGBA8sRGB, builder{category: Normal, baseType: SRGB, size: 4, channels: rgba8()})
	add(driver.BGRA8un, builder{category: Normal, baseType: UNorm, size: 4, channels: rgba8()})
	add(driver.BGRA8sRGB, builder{category: Normal, baseType: SRGB, size: 4, channels: rgba8()})
	add(driver.RG8un, builder{category: Normal, baseType: UNorm, size: 2, channels: rg8()})
	add(driver.RG8n, builder{category: Normal, baseType: SNorm, size: 2, channels: rg8()})
	add(driver.R8un, builder{category: Normal, baseType: UNorm, size: 1, channels: r8()})
	add(driver.R8n, builder{category: Normal, baseType: SNorm, size: 1, channels: r8()})

	// Color, 16-bit float channels.
	add(driver.RGBA16f, builder{category: Normal, baseType: SFloat, size: 8, channels: rgba16()})
	add(driver.RG16f, builder{category: Normal, baseType: SFloat, size: 4, channels: rg16()})
	add(driver.R16f, builder{category: Normal, baseType: SFloat, size: 2, channels: r16()})

	// Color, 32-bit float channels.
	add(driver.RGBA32f, builder{category: Normal, baseType: SFloat, size: 16, channels: rgba32()})
	add(driver.RG32f, builder{category: Normal, baseType: SFloat, size: 8, channels: rg32()})
	add(driver.R32f, builder{category: Normal, baseType: SFloat, size: 4, channels: r32()})

	// Depth/Stencil.
	add(driver.D16un, builder{category: Normal, baseType: UNorm, size: 2, channels: r16()})
	add(driver.D32f, builder{category: Normal, baseType: SFloat, size: 4, channels: r32()})
	add(driver.S8ui, builder{category: Normal, baseType: UInt, size: 1, channels: r8()})
	add(driver.D24unS8ui, builder{category: Normal, baseType: UNorm, size: 4, channels: []Channel{
		{BitOffset: 0, BitCount: 24}, {BitOffset: 24, BitCount: 8},
	}})
	add(driver.D32fS8ui, builder{category: Normal, baseType: SFloat, size: 8, channels: []Channel{
		{BitOffset: 0, BitCount: 32}, {BitOffset: 32, BitCount: 8},
	}})

	// Color, integer containers.
	add(driver.RGBA8ui, builder{category: Normal, baseType: UInt, size: 4, channels: rgba8()})
	add(driver.RGBA8si, builder{category: Normal, baseType: SInt, size: 4, channels: rgba8()})
	add(driver.R8ui, builder{category: Normal, baseType: UInt, size: 1, channels: r8()})
	add(driver.R8si, builder{category: Normal, baseType: SInt, size: 1, channels: r8()})
	add(driver.R8us, builder{category: Normal, baseType: UScaled, size: 1, channels: r8()})
	add(driver.R8ss, builder{category: Normal, baseType: SScaled, size: 1, channels: r8()})

	// Color, packed: 3 channels packed into a single 16-bit word; the
	// per-texel size (2) is not element-size * channel-count. It is
	// still a Normal format, whose channels may be packed.
	add(driver.B5G6R5un, builder{category: Normal, baseType: UNorm, size: 2, channels: []Channel{
		{BitOffset: 0, BitCount: 5},  // B
		{BitOffset: 5, BitCount: 6},  // G
		{BitOffset: 11, BitCount: 5}, // R
	}})

	// Color, block-compressed (BC1: 4x4 texel blocks, 8 bytes/block).
	add(driver.BC1RGBAun, builder{category: Compressed, baseType: UNorm, size: 8, blockW: 4, blockH: 4})

	// Color, planar YCbCr (3-plane 4:2:0, 8 bits/plane).
	add(driver.G8B8R8420un, builder{category: PlanarSamplable, baseType: UNorm, size: 3, planes: 3})

	return t
}
