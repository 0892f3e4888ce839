// Copyright 2024 The vkcpu Authors. All rights reserved.

package resource

import (
	"fmt"

	"github.com/vkcpu/vkcpu/driver"
)

// bufRange is one bound (buffer, offset, size) slot of a DBuffer or
// DConstant descriptor.
type bufRange struct {
	buf  *Buffer
	off  int64
	size int64
}

// DescHeap implements driver.DescHeap: per-copy, per-descriptor,
// per-element slot arrays, updated in place by SetBuffer/SetImage/
// SetSampler and read back by the command/raster layers when binding
// a descriptor table into a compiled shader's globals (spec.md
// §4.12).
type DescHeap struct {
	descs []driver.Descriptor
	// slots[cpy][descIndex] is a Len-sized array of per-element
	// bindings, typed per the descriptor's Type.
	bufs    [][][]bufRange
	images  [][][]driver.ImageView
	samplrs [][][]driver.Sampler
}

// NewDescHeap builds an (initially zero-copy) heap shaped by ds.
func NewDescHeap(ds []driver.Descriptor) (*DescHeap, error) {
	h := &DescHeap{descs: append([]driver.Descriptor(nil), ds...)}
	return h, nil
}

func (h *DescHeap) Destroy() {}

// New allocates n copies of every descriptor, discarding prior
// contents unless n equals the current copy count.
func (h *DescHeap) New(n int) error {
	if n == h.Count() {
		return nil
	}
	if n == 0 {
		h.bufs, h.images, h.samplrs = nil, nil, nil
		return nil
	}
	h.bufs = make([][][]bufRange, n)
	h.images = make([][]([]driver.ImageView), n)
	h.samplrs = make([][]([]driver.Sampler), n)
	for c := 0; c < n; c++ {
		h.bufs[c] = make([][]bufRange, len(h.descs))
		h.images[c] = make([][]driver.ImageView, len(h.descs))
		h.samplrs[c] = make([][]driver.Sampler, len(h.descs))
		for i, d := range h.descs {
			switch d.Type {
			case driver.DBuffer, driver.DConstant:
				h.bufs[c][i] = make([]bufRange, d.Len)
			case driver.DImage, driver.DTexture:
				h.images[c][i] = make([]driver.ImageView, d.Len)
			case driver.DSampler:
				h.samplrs[c][i] = make([]driver.Sampler, d.Len)
			}
		}
	}
	return nil
}

func (h *DescHeap) Count() int {
	if h.bufs != nil {
		return len(h.bufs)
	}
	return 0
}

func (h *DescHeap) descIndex(nr int) (int, error) {
	for i, d := range h.descs {
		if d.Nr == nr {
			return i, nil
		}
	}
	return 0, fmt.Errorf("resource: no descriptor numbered %d", nr)
}

func (h *DescHeap) SetBuffer(cpy, nr, start int, buf []driver.Buffer, off, size []int64) {
	i, err := h.descIndex(nr)
	if err != nil {
		panic(err)
	}
	for k, b := range buf {
		h.bufs[cpy][i][start+k] = bufRange{buf: b.(*Buffer), off: off[k], size: size[k]}
	}
}

func (h *DescHeap) SetImage(cpy, nr, start int, iv []driver.ImageView) {
	i, err := h.descIndex(nr)
	if err != nil {
		panic(err)
	}
	copy(h.images[cpy][i][start:], iv)
}

func (h *DescHeap) SetSampler(cpy, nr, start int, splr []driver.Sampler) {
	i, err := h.descIndex(nr)
	if err != nil {
		panic(err)
	}
	copy(h.samplrs[cpy][i][start:], splr)
}

// Buffer returns the bound (bytes, offset, size) for descriptor nr,
// element idx, in heap copy cpy.
func (h *DescHeap) Buffer(cpy, nr, idx int) (data []byte, off, size int64, ok bool) {
	i, err := h.descIndex(nr)
	if err != nil {
		return nil, 0, 0, false
	}
	r := h.bufs[cpy][i][idx]
	if r.buf == nil {
		return nil, 0, 0, false
	}
	return r.buf.Bytes(), r.off, r.size, true
}

// Image returns the bound view for descriptor nr, element idx, in
// heap copy cpy. A paired sampler is not returned; see Sampler.
func (h *DescHeap) Image(cpy, nr, idx int) (driver.ImageView, bool) {
	i, err := h.descIndex(nr)
	if err != nil {
		return nil, false
	}
	iv := h.images[cpy][i][idx]
	return iv, iv != nil
}

// Sampler returns the bound sampler for descriptor nr, element idx,
// in heap copy cpy.
func (h *DescHeap) Sampler(cpy, nr, idx int) (driver.Sampler, bool) {
	i, err := h.descIndex(nr)
	if err != nil {
		return nil, false
	}
	s := h.samplrs[cpy][i][idx]
	return s, s != nil
}

// DescTable implements driver.DescTable: an ordered list of heaps
// bound together for a pipeline's shaders to read from (spec.md
// §4.12).
type DescTable struct {
	Heaps []*DescHeap
}

// NewDescTable wraps dh as a table. Every heap must be a
// *resource.DescHeap.
func NewDescTable(dh []driver.DescHeap) (*DescTable, error) {
	t := &DescTable{Heaps: make([]*DescHeap, len(dh))}
	for i, h := range dh {
		rh, ok := h.(*DescHeap)
		if !ok {
			return nil, fmt.Errorf("resource: heap %d is not a resource.DescHeap", i)
		}
		t.Heaps[i] = rh
	}
	return t, nil
}

func (t *DescTable) Destroy() {}
