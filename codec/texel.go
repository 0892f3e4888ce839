// Copyright 2024 The vkcpu Authors. All rights reserved.

package codec

import "github.com/vkcpu/vkcpu/format"

// readBits extracts bitCount bits starting at bitOffset from buf,
// assuming little-endian bit packing within the texel (the same
// convention Vulkan's packed formats use: channel 0 occupies the
// low-order bits).
func readBits(buf []byte, bitOffset, bitCount int) uint64 {
	var v uint64
	for b := 0; b < bitCount; b++ {
		bit := bitOffset + b
		byteIdx := bit / 8
		bitIdx := uint(bit % 8)
		if byteIdx >= len(buf) {
			break
		}
		if buf[byteIdx]&(1<<bitIdx) != 0 {
			v |= 1 << uint(b)
		}
	}
	return v
}

// writeBits stores the low bitCount bits of v into buf at bitOffset,
// per the same convention as readBits.
func writeBits(buf []byte, bitOffset, bitCount int, v uint64) {
	for b := 0; b < bitCount; b++ {
		bit := bitOffset + b
		byteIdx := bit / 8
		bitIdx := uint(bit % 8)
		if byteIdx >= len(buf) {
			break
		}
		if v&(1<<uint(b)) != 0 {
			buf[byteIdx] |= 1 << bitIdx
		} else {
			buf[byteIdx] &^= 1 << bitIdx
		}
	}
}

// GetF32 decodes channel ch of the texel stored in buf as a float32,
// applying the format's base-type scaling rule (spec.md §4.2).
func GetF32(info format.Info, buf []byte, ch int) float32 {
	c := info.Channels[ch]
	raw := readBits(buf, c.BitOffset, c.BitCount)
	return DecodeFloat(info.BaseType, c.BitCount, raw)
}

// SetF32 encodes v into channel ch of the texel stored in buf.
func SetF32(info format.Info, buf []byte, ch int, v float32) {
	c := info.Channels[ch]
	raw := EncodeFloat(info.BaseType, c.BitCount, v)
	writeBits(buf, c.BitOffset, c.BitCount, raw)
}

// GetU32 reads channel ch as a raw unsigned integer, for UInt/UScaled
// storage-image access that must not apply normalization scaling.
func GetU32(info format.Info, buf []byte, ch int) uint32 {
	c := info.Channels[ch]
	return uint32(readBits(buf, c.BitOffset, c.BitCount))
}

// SetU32 writes a raw unsigned integer into channel ch.
func SetU32(info format.Info, buf []byte, ch int, v uint32) {
	c := info.Channels[ch]
	writeBits(buf, c.BitOffset, c.BitCount, uint64(v))
}

// GetI32 reads channel ch as a sign-extended integer, for SInt/SScaled
// storage-image access.
func GetI32(info format.Info, buf []byte, ch int) int32 {
	c := info.Channels[ch]
	return int32(signExtend(readBits(buf, c.BitOffset, c.BitCount), c.BitCount))
}

// SetI32 writes a signed integer into channel ch.
func SetI32(info format.Info, buf []byte, ch int, v int32) {
	c := info.Channels[ch]
	writeBits(buf, c.BitOffset, c.BitCount, signTruncate(int64(v), c.BitCount))
}

// GetDepth reads the depth channel (channel 0) of a depth or
// depth/stencil format.
func GetDepth(info format.Info, buf []byte) float32 {
	return GetF32(info, buf, 0)
}

// SetDepth writes the depth channel of a depth or depth/stencil
// format, leaving any stencil channel untouched.
func SetDepth(info format.Info, buf []byte, v float32) {
	SetF32(info, buf, 0, v)
}

// GetStencil reads the stencil channel (the last channel) of a
// depth/stencil or stencil-only format.
func GetStencil(info format.Info, buf []byte) uint32 {
	return GetU32(info, buf, len(info.Channels)-1)
}

// SetStencil writes the stencil channel of a depth/stencil or
// stencil-only format.
func SetStencil(info format.Info, buf []byte, v uint32) {
	SetU32(info, buf, len(info.Channels)-1, v)
}

// SetDepthStencil writes both the depth and stencil channels of a
// combined depth/stencil format in one call, matching the
// setDepthStencil operation named in spec.md §4.2.
func SetDepthStencil(info format.Info, buf []byte, depth float32, stencil uint32) {
	SetDepth(info, buf, depth)
	if len(info.Channels) > 1 {
		SetStencil(info, buf, stencil)
	}
}
