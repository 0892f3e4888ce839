// Copyright 2024 The vkcpu Authors. All rights reserved.

package codec

import (
	"math"
)

// AddrMode is the type of a sampler address mode, per spec.md §4.2.
type AddrMode int

const (
	AddrRepeat AddrMode = iota
	AddrMirroredRepeat
	AddrClampToEdge
	AddrClampToBorder
	AddrMirrorClampToEdge
)

// Wrap maps an integer texel coordinate v into [0, size-1] (or, for
// AddrClampToBorder, into [-1, size] exactly) according to mode, per
// spec.md §4.2 and the "address mode total" property in §8.
func Wrap(v, size int, mode AddrMode) int {
	switch mode {
	case AddrRepeat:
		m := v % size
		if m < 0 {
			m += size
		}
		return m
	case AddrMirroredRepeat:
		period := 2 * size
		m := v % period
		if m < 0 {
			m += period
		}
		if m >= size {
			m = period - 1 - m
		}
		return m
	case AddrClampToEdge:
		return clampInt(v, 0, size-1)
	case AddrClampToBorder:
		return clampInt(v, -1, size)
	case AddrMirrorClampToEdge:
		n := v
		if n < 0 {
			n = -(1 + n)
		}
		m := size - 1 - n
		// Fold the mirrored coordinate back across the edge, then
		// clamp: spec.md §4.2's "size-1 - (n>=0?n:-(1+n))" addresses
		// one period of the mirror; clamp covers the rest exactly as
		// clamp-to-edge does after mirroring.
		return clampInt(m, 0, size-1)
	default:
		return clampInt(v, 0, size-1)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Texel1D fetches a single scalar channel value from a 2D image
// layout at integer texel coordinates, used as the inner primitive
// for both nearest and linear sampling.
type Texel1D func(x, y int) float32

// SampleNearest snaps u,v (in normalized [0,1) texture space) to the
// nearest texel using a 0.0 LOD shift, per spec.md §4.2.
func SampleNearest(width, height int, u, v float32, addrU, addrV AddrMode, fetch Texel1D) float32 {
	x := Wrap(int(math.Floor(float64(u)*float64(width))), width, addrU)
	y := Wrap(int(math.Floor(float64(v)*float64(height))), height, addrV)
	return fetch(x, y)
}

// SampleLinear performs bilinear filtering of the four texels
// surrounding (u, v) in normalized texture space, applying the given
// address mode independently per axis, per spec.md §4.2. Border
// texels outside the image (AddrClampToBorder) are not fetched;
// SampleLinear uses 0 for them itself, matching an all-zero
// (transparent black) border.
func SampleLinear(width, height int, u, v float32, addrU, addrV AddrMode, fetch Texel1D) float32 {
	fx := float64(u)*float64(width) - 0.5
	fy := float64(v)*float64(height) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := float32(fx - math.Floor(fx))
	ty := float32(fy - math.Floor(fy))

	sample := func(x, y int) float32 {
		wx := Wrap(x, width, addrU)
		wy := Wrap(y, height, addrV)
		if addrU == AddrClampToBorder && (wx < 0 || wx >= width) {
			return 0
		}
		if addrV == AddrClampToBorder && (wy < 0 || wy >= height) {
			return 0
		}
		return fetch(wx, wy)
	}

	c00 := sample(x0, y0)
	c10 := sample(x0+1, y0)
	c01 := sample(x0, y0+1)
	c11 := sample(x0+1, y0+1)

	top := c00 + (c10-c00)*tx
	bottom := c01 + (c11-c01)*tx
	return top + (bottom-top)*ty
}

// Sample3D fetches a single scalar channel value from a 3D image
// layout at integer texel coordinates.
type Sample3D func(x, y, z int) float32

// TriLinear performs the eight-neighbour trilinear interpolation
// described in spec.md §4.2, applying the given address mode per
// axis. It is used when a sampled image has depth > 1.
func TriLinear(width, height, depth int, u, v, w float32, addrU, addrV, addrW AddrMode, fetch Sample3D) float32 {
	fx := float64(u)*float64(width) - 0.5
	fy := float64(v)*float64(height) - 0.5
	fz := float64(w)*float64(depth) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	z0 := int(math.Floor(fz))
	tx := float32(fx - math.Floor(fx))
	ty := float32(fy - math.Floor(fy))
	tz := float32(fz - math.Floor(fz))

	sample := func(x, y, z int) float32 {
		return fetch(Wrap(x, width, addrU), Wrap(y, height, addrV), Wrap(z, depth, addrW))
	}

	lerp := func(a, b, t float32) float32 { return a + (b-a)*t }

	c000 := sample(x0, y0, z0)
	c100 := sample(x0+1, y0, z0)
	c010 := sample(x0, y0+1, z0)
	c110 := sample(x0+1, y0+1, z0)
	c001 := sample(x0, y0, z0+1)
	c101 := sample(x0+1, y0, z0+1)
	c011 := sample(x0, y0+1, z0+1)
	c111 := sample(x0+1, y0+1, z0+1)

	z0plane := lerp(lerp(c000, c100, tx), lerp(c010, c110, tx), ty)
	z1plane := lerp(lerp(c001, c101, tx), lerp(c011, c111, tx), ty)
	return lerp(z0plane, z1plane, tz)
}
