// Copyright 2024 The vkcpu Authors. All rights reserved.

// Package renderpass implements the Render Pass Executor (C9): the
// attachment load/store/resolve bookkeeping a render pass and its
// framebuffers carry, and the functions the command replay loop
// (package command) calls at subpass boundaries, per spec.md §4.9.
package renderpass

import (
	"fmt"

	"github.com/vkcpu/vkcpu/driver"
)

// RenderPass implements driver.RenderPass: the attachment
// descriptions and subpass graph supplied at creation.
type RenderPass struct {
	Attachments []driver.Attachment
	Subpasses   []driver.Subpass
}

// New validates and stores att/sub.
func New(att []driver.Attachment, sub []driver.Subpass) (*RenderPass, error) {
	if len(sub) == 0 {
		return nil, fmt.Errorf("renderpass: no subpasses")
	}
	return &RenderPass{
		Attachments: append([]driver.Attachment(nil), att...),
		Subpasses:   append([]driver.Subpass(nil), sub...),
	}, nil
}

func (p *RenderPass) Destroy() {}

// NewFB binds iv (one view per attachment) to p as a framebuffer.
func (p *RenderPass) NewFB(iv []driver.ImageView, width, height, layers int) (*Framebuf, error) {
	if len(iv) != len(p.Attachments) {
		return nil, fmt.Errorf("renderpass: expected %d attachment views, got %d", len(p.Attachments), len(iv))
	}
	return &Framebuf{
		Pass:   p,
		Views:  append([]driver.ImageView(nil), iv...),
		Width:  width,
		Height: height,
		Layers: layers,
	}, nil
}

// Framebuf implements driver.Framebuf.
type Framebuf struct {
	Pass   *RenderPass
	Views  []driver.ImageView
	Width  int
	Height int
	Layers int
}

func (f *Framebuf) Destroy() {}

// texelWriter is the narrow view into resource.ImageView the executor
// needs: a per-texel write at an unnormalized coordinate, sized to
// the view's own format.
type texelWriter interface {
	Write(coord []int64, texel []float64)
	Fetch(coord []int64, lod int) []float64
}

// ApplyLoadOps runs each attachment's configured LoadOp over fb's
// views before the first subpass that references it executes,
// clearing with the matching ClearValue or leaving the contents
// untouched for LLoad/LDontCare.
func ApplyLoadOps(fb *Framebuf, clear []driver.ClearValue) error {
	for i, att := range fb.Pass.Attachments {
		tw, ok := fb.Views[i].(texelWriter)
		if !ok {
			return fmt.Errorf("renderpass: attachment %d view has no texel writer", i)
		}
		depthStencil := isDSFormat(att.Format)
		if att.Load[0] != driver.LClear {
			continue
		}
		var cv driver.ClearValue
		if i < len(clear) {
			cv = clear[i]
		}
		clearAttachment(tw, fb.Width, fb.Height, fb.Layers, depthStencil, cv)
	}
	return nil
}

func isDSFormat(pf driver.PixelFmt) bool {
	switch pf {
	case driver.D16un, driver.D32f, driver.S8ui, driver.D24unS8ui, driver.D32fS8ui:
		return true
	default:
		return false
	}
}

func clearAttachment(tw texelWriter, width, height, layers int, depthStencil bool, cv driver.ClearValue) {
	texel := []float64{float64(cv.Color[0]), float64(cv.Color[1]), float64(cv.Color[2]), float64(cv.Color[3])}
	if depthStencil {
		texel = []float64{float64(cv.Depth), float64(cv.Stencil)}
	}
	for l := 0; l < layers; l++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				tw.Write([]int64{int64(x), int64(y), 0, int64(l)}, texel)
			}
		}
	}
}

// Resolve copies every sample of a multisample attachment src down to
// a single-sample resolve target dst at subpass boundaries, per
// spec.md §4.9's "resolve any multisample attachment whose subpass
// designates a resolve target". Only the box-filter average over the
// source samples is implemented (no weighted resolve modes).
func Resolve(src, dst texelWriter, width, height, layers, samples int) {
	inv := 1.0 / float64(samples)
	for l := 0; l < layers; l++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				sum := make([]float64, 4)
				for s := 0; s < samples; s++ {
					t := src.Fetch([]int64{int64(x), int64(y), 0, int64(l)}, s)
					for c := range sum {
						if c < len(t) {
							sum[c] += t[c]
						}
					}
				}
				for c := range sum {
					sum[c] *= inv
				}
				dst.Write([]int64{int64(x), int64(y), 0, int64(l)}, sum)
			}
		}
	}
}

// ApplyStoreOps is a documentation point: LDontCare/SDontCare leave
// the backing store as-is (no explicit tile-memory to discard in a
// host-memory-backed image), and SStore is always already reflected
// since every write above targets the attachment's real backing
// directly. It exists so command's replay loop has one call per
// EndRenderPass matching spec.md §4.9's "apply StoreOp" step, even
// though there is nothing left to do for a host-backed attachment.
func ApplyStoreOps(fb *Framebuf) {}
