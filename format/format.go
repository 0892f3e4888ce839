// Copyright 2024 The vkcpu Authors. All rights reserved.

// Package format implements the format descriptor table (C1):
// declarative per-texel-format metadata and feature flags, built once
// at process startup and indexed by driver.PixelFmt.
//
// Every entry is produced by a pure builder (newInfo) that derives
// feature flags purely from the format's category, per spec.md §4.1:
// normal/compressed formats expose the full sampled/storage/blend/
// blit/transfer feature set, planar formats expose only what YCbCr
// sampling requires.
package format

import (
	"fmt"

	"github.com/vkcpu/vkcpu/driver"
)

// Category is the broad shape of a format's texel layout.
type Category int

const (
	// Normal formats are a single plane of packed or unpacked
	// channels with no special block structure.
	Normal Category = iota
	// Compressed formats store a fixed-size block covering a
	// rectangle of texels.
	Compressed
	// Planar formats split channels across multiple image planes
	// (YCbCr and similar).
	Planar
	// PlanarSamplable is a planar format that additionally supports
	// being sampled as a single combined image (YCbCr conversion).
	PlanarSamplable
)

// BaseType is the per-channel numeric interpretation of a format, per
// spec.md §6.
type BaseType int

const (
	Unknown BaseType = iota
	UNorm
	SNorm
	UScaled
	SScaled
	UInt
	SInt
	UFloat
	SFloat
	SRGB
)

// Feature is a bitmask of the capabilities a format supports for a
// given tiling/usage domain.
type Feature int

const (
	FSampled Feature = 1 << iota
	FStorage
	FColorBlend
	FDepthStencil
	FBlitSrc
	FBlitDst
	FLinearFilter
	FVertexBuffer
	FYCbCrConversion
)

// fullFeatureSet is every feature bit a normal or compressed format
// offers for a tiling domain it supports at all (spec.md §4.1).
const fullFeatureSet = FSampled | FStorage | FColorBlend | FDepthStencil |
	FBlitSrc | FBlitDst | FLinearFilter | FVertexBuffer

// ycbcrFeatureSet is the feature subset a planar format exposes: only
// what YCbCr sampling requires.
const ycbcrFeatureSet = FSampled | FLinearFilter | FYCbCrConversion

// Channel describes one channel's placement within a texel or block.
type Channel struct {
	// BitOffset is the channel's offset from the start of the texel,
	// in bits.
	BitOffset int
	// BitCount is the number of bits the channel occupies.
	BitCount int
}

// Info is the descriptor for one texel format: category, per-channel
// layout, and feature masks for each of the three tiling/usage
// domains spec.md §3 names.
type Info struct {
	Format driver.PixelFmt

	Category Category
	BaseType BaseType

	// Size is the total byte size of one texel (Normal), or one
	// block (Compressed), per spec.md §3.
	Size int
	// BlockWidth and BlockHeight are the block extent in texels; 1x1
	// for Normal and Planar formats.
	BlockWidth, BlockHeight int
	// Planes is the number of image planes a Planar format spans; 1
	// for Normal and Compressed formats.
	Planes int

	// Channels holds the per-channel bit layout, in R,G,B,A / depth,
	// stencil order as applicable. Empty for compressed formats,
	// whose channels are not individually addressable.
	Channels []Channel

	LinearTilingFeatures  Feature
	OptimalTilingFeatures Feature
	BufferFeatures        Feature
}

// NeedsYCbCr reports whether f requires the planar-aware sampling
// path: multi-plane formats cannot be read through the single-plane
// codec routines in package codec.
func (i Info) NeedsYCbCr() bool {
	return i.Category == Planar || i.Category == PlanarSamplable
}

// table is the process-wide, immutable format table, built once on
// first use by build().
var table map[driver.PixelFmt]Info

func init() {
	table = build()
}

// Describe returns the descriptor for f. The second return value is
// false if f is not a populated format, matching spec.md §4.1's
// contract: every format in the API's range either resolves to a
// populated entry, or NeedsYCbCr would report true for it (planar
// formats not yet modeled here still fail this lookup, and callers
// must treat that as "use the planar path", not as an error).
func Describe(f driver.PixelFmt) (Info, bool) {
	i, ok := table[f]
	return i, ok
}

// MustDescribe is Describe, panicking if f has no entry. It is used
// internally once a format has already been validated by a resource
// constructor.
func MustDescribe(f driver.PixelFmt) Info {
	i, ok := Describe(f)
	if !ok {
		panic(fmt.Sprintf("format: no descriptor for format %d", f))
	}
	return i
}

// NeedsYCbCr reports whether f is a planar format requiring the
// YCbCr-aware sampling path, per spec.md §4.1. Formats with no table
// entry at all are also reported as needing that path, so that
// callers outside the planar-aware paths never silently treat an
// unknown format as usable.
func NeedsYCbCr(f driver.PixelFmt) bool {
	i, ok := table[f]
	if !ok {
		return true
	}
	return i.NeedsYCbCr()
}

type builder struct {
	category   Category
	baseType   BaseType
	size       int
	blockW     int
	blockH     int
	planes     int
	channels   []Channel
}

// newInfo derives an Info's feature masks purely from its category,
// per spec.md §4.1.
func newInfo(f driver.PixelFmt, b builder) Info {
	if b.blockW == 0 {
		b.blockW = 1
	}
	if b.blockH == 0 {
		b.blockH = 1
	}
	if b.planes == 0 {
		b.planes = 1
	}
	i := Info{
		Format:       f,
		Category:     b.category,
		BaseType:     b.baseType,
		Size:         b.size,
		BlockWidth:   b.blockW,
		BlockHeight:  b.blockH,
		Planes:       b.planes,
		Channels:     b.channels,
	}
	switch b.category {
	case Normal, Compressed:
		i.LinearTilingFeatures = fullFeatureSet
		i.OptimalTilingFeatures = fullFeatureSet
		i.BufferFeatures = fullFeatureSet &^ (FColorBlend | FDepthStencil | FBlitSrc | FBlitDst)
		if b.category == Compressed {
			// Compressed formats cannot be used as render targets or
			// the target of a depth/stencil test.
			i.LinearTilingFeatures &^= FDepthStencil
			i.OptimalTilingFeatures &^= FDepthStencil
			if b.baseType != UInt && b.baseType != SInt {
				// Most compressed formats aren't exact integer
				// containers, so they cannot back a storage image.
				i.LinearTilingFeatures &^= FStorage
				i.OptimalTilingFeatures &^= FStorage
			}
		}
	case Planar, PlanarSamplable:
		i.LinearTilingFeatures = ycbcrFeatureSet
		i.OptimalTilingFeatures = ycbcrFeatureSet
		i.BufferFeatures = 0
	}
	return i
}
