// Copyright 2024 The vkcpu Authors. All rights reserved.

package resource

import (
	"fmt"

	"github.com/vkcpu/vkcpu/codec"
	"github.com/vkcpu/vkcpu/driver"
	"github.com/vkcpu/vkcpu/format"
)

// Image implements driver.Image: a host-backed byte array laid out
// per codec.Layout's mip/layer pyramid (spec.md §4.2, §9's "full mip
// chains" decision).
type Image struct {
	Format driver.PixelFmt
	Layers int
	Levels int
	Samples int

	layout codec.Layout
	data   []byte
	usage  driver.Usage
}

// NewImage allocates the full mip pyramid for pf at size, with layers
// layers and levels mip levels.
func NewImage(pf driver.PixelFmt, size driver.Dim3D, layers, levels, samples int, usg driver.Usage) (*Image, error) {
	info, ok := format.Describe(pf)
	if !ok {
		return nil, fmt.Errorf("resource: unknown pixel format %v", pf)
	}
	layout := codec.Layout{
		Base:   codec.Extent{Width: size.Width, Height: size.Height, Depth: size.Depth},
		Layers: layers,
		Levels: levels,
		Format: info,
	}
	return &Image{
		Format:  pf,
		Layers:  layers,
		Levels:  levels,
		Samples: samples,
		layout:  layout,
		data:    make([]byte, layout.Size()),
		usage:   usg,
	}, nil
}

// Destroy releases the image's backing storage.
func (im *Image) Destroy() {}

// NewView creates a typed view spanning [layer, layer+layers) and
// [level, level+levels) of im.
func (im *Image) NewView(typ driver.ViewType, layer, layers, level, levels int) (driver.ImageView, error) {
	if layer < 0 || layer+layers > im.Layers || level < 0 || level+levels > im.Levels {
		return nil, fmt.Errorf("resource: view range out of bounds")
	}
	return &ImageView{
		img:    im,
		typ:    typ,
		layer:  layer,
		layers: layers,
		level:  level,
		levels: levels,
		codec:  codec.For(im.Format),
	}, nil
}

// TexelSize returns the byte size of a single texel, for copy
// commands that move raw texel data between a buffer and an image of
// the same format.
func (im *Image) TexelSize() int64 { return int64(im.layout.Format.Size) }

// MipExtent returns the texel extent of mip level lvl.
func (im *Image) MipExtent(lvl int) codec.Extent { return codec.MipExtent(im.layout.Base, lvl) }

// RawTexel returns the backing byte range for one texel at (x, y, z)
// within layer/level, for a raw (format-preserving) buffer/image
// copy that bypasses the float-texel codec.
func (im *Image) RawTexel(x, y, z, layer, level int) []byte {
	off := im.layout.TexelOffset(x, y, z, layer, level)
	sz := im.TexelSize()
	return im.data[off : off+sz]
}
