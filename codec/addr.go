// Copyright 2024 The vkcpu Authors. All rights reserved.

// Package codec implements the pixel codec (C2): it computes the
// byte address of a texel at (i, j, k, layer, mip) and reads, writes
// or samples its value according to the format's base type, per
// spec.md §4.2.
package codec

import "github.com/vkcpu/vkcpu/format"

// Extent is a 3D texel extent (width, height, depth).
type Extent struct {
	Width, Height, Depth int
}

// MipExtent returns the extent of mip level lvl of a base extent e,
// following the standard mip pyramid: each level halves each extent,
// clamped to a minimum of 1 (spec.md §4.2).
func MipExtent(e Extent, lvl int) Extent {
	shrink := func(n int) int {
		for i := 0; i < lvl; i++ {
			n /= 2
			if n < 1 {
				n = 1
			}
		}
		return n
	}
	return Extent{shrink(e.Width), shrink(e.Height), shrink(e.Depth)}
}

// Layout describes the addressable shape of one image resource: its
// base extent, layer count and mip count, needed to compute texel
// and mip-level byte offsets.
type Layout struct {
	Base    Extent
	Layers  int
	Levels  int
	Format  format.Info
}

// MipOffset returns the byte offset of the first texel of mip level
// lvl of layer 0 within the image's backing, and the byte size of a
// single layer's worth of that mip level.
//
// Offsets are computed by summing the byte size of every preceding
// mip level across all layers, which is what makes the sequence of
// offsets for mips 0..n-1 strictly ascending (the mip-offset
// monotonicity property in spec.md §8).
func (l Layout) MipOffset(lvl int) (offset, levelLayerSize int64) {
	for i := 0; i < lvl; i++ {
		e := MipExtent(l.Base, i)
		offset += l.levelSize(e) * int64(l.Layers)
	}
	e := MipExtent(l.Base, lvl)
	levelLayerSize = l.levelSize(e)
	return
}

// levelSize returns the byte size of a single layer of an image whose
// extent (in texels, or blocks for compressed formats) is e.
func (l Layout) levelSize(e Extent) int64 {
	bw, bh := l.Format.BlockWidth, l.Format.BlockHeight
	blocksX := (e.Width + bw - 1) / bw
	blocksY := (e.Height + bh - 1) / bh
	return int64(blocksX) * int64(blocksY) * int64(e.Depth) * int64(l.Format.Size)
}

// TexelOffset returns the byte offset of texel (i, j, k) of the given
// layer and mip level within the image's backing.
func (l Layout) TexelOffset(i, j, k, layer, lvl int) int64 {
	base, layerSize := l.MipOffset(lvl)
	e := MipExtent(l.Base, lvl)
	bw, bh := l.Format.BlockWidth, l.Format.BlockHeight
	blocksX := (e.Width + bw - 1) / bw
	bi, bj := i/bw, j/bh
	rowSize := int64(blocksX) * int64(l.Format.Size)
	sliceSize := rowSize * int64((e.Height+bh-1)/bh)
	return base + int64(layer)*layerSize + int64(k)*sliceSize + int64(bj)*rowSize + int64(bi)*int64(l.Format.Size)
}

// Size returns the total backing size (in bytes) required for an
// image with this layout, across all layers and mip levels.
func (l Layout) Size() int64 {
	off, layerSize := l.MipOffset(l.Levels - 1)
	return off + layerSize*int64(l.Layers)
}
