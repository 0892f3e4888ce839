// Copyright 2024 The vkcpu Authors. All rights reserved.

package resource

import (
	"github.com/vkcpu/vkcpu/codec"
	"github.com/vkcpu/vkcpu/driver"
)

// ImageView implements driver.ImageView and the runtime package's
// ImageHandle interface: the pipeline/command layers bind a *ImageView
// (or a *BoundImage, for a combined image-sampler) directly as the
// jit.Value held by a shader's image/sampled-image global, so the
// interpreter's image intrinsics (package runtime) operate on it with
// no further indirection (spec.md §4.6, §4.12).
type ImageView struct {
	img    *Image
	typ    driver.ViewType
	layer  int
	layers int
	level  int
	levels int
	codec  codec.Codec
}

// Destroy releases the view. The underlying Image is unaffected.
func (v *ImageView) Destroy() {}

func isDepthStencil(pf driver.PixelFmt) bool {
	switch pf {
	case driver.D16un, driver.D32f, driver.S8ui, driver.D24unS8ui, driver.D32fS8ui:
		return true
	default:
		return false
	}
}

// texelBuf returns the byte range for one texel of this view at mip
// level v.level+lod and layer v.layer+layerOff.
func (v *ImageView) texelBuf(x, y, z, layerOff, lod int) []byte {
	lvl := v.level + lod
	layer := v.layer + layerOff
	off := v.img.layout.TexelOffset(x, y, z, layer, lvl)
	sz := int64(v.img.layout.Format.Size)
	return v.img.data[off : off+sz]
}

func splitCoord(coord []int64) (x, y, z int, layerOff int) {
	if len(coord) > 0 {
		x = int(coord[0])
	}
	if len(coord) > 1 {
		y = int(coord[1])
	}
	if len(coord) > 2 {
		z = int(coord[2])
	}
	if len(coord) > 3 {
		layerOff = int(coord[3])
	}
	return
}

func (v *ImageView) readTexel(buf []byte) []float64 {
	if isDepthStencil(v.img.Format) {
		return []float64{float64(v.codec.GetDepth(buf)), float64(v.codec.GetStencil(buf))}
	}
	n := len(v.img.layout.Format.Channels)
	if n == 0 || n > 4 {
		n = 4
	}
	out := make([]float64, 4)
	for i := 0; i < 4; i++ {
		switch {
		case i < n:
			out[i] = float64(v.codec.GetF32(buf, i))
		case i == 3:
			out[i] = 1
		default:
			out[i] = 0
		}
	}
	return out
}

func (v *ImageView) writeTexel(buf []byte, texel []float64) {
	if isDepthStencil(v.img.Format) {
		var depth float64
		var stencil float64
		if len(texel) > 0 {
			depth = texel[0]
		}
		if len(texel) > 1 {
			stencil = texel[1]
		}
		v.codec.SetDepthStencil(buf, float32(depth), uint32(stencil))
		return
	}
	n := len(v.img.layout.Format.Channels)
	if n == 0 || n > 4 {
		n = 4
	}
	for i := 0; i < n && i < len(texel); i++ {
		v.codec.SetF32(buf, i, float32(texel[i]))
	}
}

// Fetch performs an unfiltered, unnormalized texel fetch at an
// absolute mip/layer offset from the view's base level/layer.
func (v *ImageView) Fetch(coord []int64, lod int) []float64 {
	x, y, z, layerOff := splitCoord(coord)
	return v.readTexel(v.texelBuf(x, y, z, layerOff, lod))
}

// Write stores texel at an unnormalized coordinate (storage image
// use).
func (v *ImageView) Write(coord []int64, texel []float64) {
	x, y, z, layerOff := splitCoord(coord)
	v.writeTexel(v.texelBuf(x, y, z, layerOff, 0), texel)
}

// Sample performs a nearest-neighbour, wrap-addressed fetch. A
// combined image-sampler descriptor instead binds a *BoundImage,
// whose Sample method honours the bound Sampler's filter/address
// state; this fallback exists so a bare ImageView still satisfies
// runtime.ImageHandle on its own.
func (v *ImageView) Sample(coord []float64, lod float64) []float64 {
	return v.sampleWith(coord, lod, driver.FNearest, driver.AWrap, driver.AWrap, driver.AWrap)
}

func toAddrMode(a driver.AddrMode) codec.AddrMode {
	switch a {
	case driver.AMirror:
		return codec.AddrMirroredRepeat
	case driver.AClamp:
		return codec.AddrClampToEdge
	default:
		return codec.AddrRepeat
	}
}

func (v *ImageView) sampleWith(coord []float64, lod float64, filter driver.Filter, addrU, addrV, addrW driver.AddrMode) []float64 {
	e := codec.MipExtent(v.img.layout.Base, v.level+int(lod))
	var u, vv, w float32
	if len(coord) > 0 {
		u = float32(coord[0])
	}
	if len(coord) > 1 {
		vv = float32(coord[1])
	}
	if len(coord) > 2 {
		w = float32(coord[2])
	}

	n := len(v.img.layout.Format.Channels)
	if n == 0 || n > 4 {
		n = 4
	}
	out := make([]float64, 4)
	for ch := 0; ch < 4; ch++ {
		if ch >= n {
			if ch == 3 {
				out[ch] = 1
			}
			continue
		}
		fetch2D := func(x, y int) float32 {
			return v.codec.GetF32(v.texelBuf(x, y, 0, 0, int(lod)), ch)
		}
		if e.Depth > 1 {
			fetch3D := func(x, y, z int) float32 {
				return v.codec.GetF32(v.texelBuf(x, y, z, 0, int(lod)), ch)
			}
			out[ch] = float64(codec.TriLinear(e.Width, e.Height, e.Depth, u, vv, w,
				toAddrMode(addrU), toAddrMode(addrV), toAddrMode(addrW), fetch3D))
		} else if filter == driver.FLinear {
			out[ch] = float64(codec.SampleLinear(e.Width, e.Height, u, vv, toAddrMode(addrU), toAddrMode(addrV), fetch2D))
		} else {
			out[ch] = float64(codec.SampleNearest(e.Width, e.Height, u, vv, toAddrMode(addrU), toAddrMode(addrV), fetch2D))
		}
	}
	return out
}

// BoundImage pairs an ImageView with a Sampler, the shape a combined
// image-sampler descriptor binds into a shader's sampled-image
// global (spec.md §4.12).
type BoundImage struct {
	View    *ImageView
	Sampler *Sampler
}

func (b *BoundImage) Sample(coord []float64, lod float64) []float64 {
	s := b.Sampler.Spln
	return b.View.sampleWith(coord, lod, s.Min, s.AddrU, s.AddrV, s.AddrW)
}

func (b *BoundImage) Fetch(coord []int64, lod int) []float64 { return b.View.Fetch(coord, lod) }
func (b *BoundImage) Write(coord []int64, texel []float64)   { b.View.Write(coord, texel) }
