// Copyright 2024 The vkcpu Authors. All rights reserved.

// Package resource implements the Resource Objects (C12): buffers,
// images and image views, samplers, descriptor heaps/tables, and the
// glue that decodes/encodes a descriptor's backing bytes into the
// jit.Module globals a compiled shader reads and writes, per spec.md
// §4.12. Mapped memory is the allocation itself: Buffer.Bytes returns
// the base slice directly and there is no unmap/refcount step,
// matching spec.md §5's "Shared resource discipline".
package resource

import "github.com/vkcpu/vkcpu/driver"

// Buffer implements driver.Buffer as a plain host-backed byte slice.
type Buffer struct {
	data    []byte
	visible bool
}

// NewBuffer allocates size bytes of backing storage.
func NewBuffer(size int64, visible bool, usg driver.Usage) *Buffer {
	return &Buffer{data: make([]byte, size), visible: visible}
}

// Destroy releases b. The backing array is reclaimed by the GC once
// every view/descriptor referencing it is gone.
func (b *Buffer) Destroy() {}

// Visible reports whether the buffer's memory is host-accessible.
func (b *Buffer) Visible() bool { return b.visible }

// Bytes returns the buffer's backing storage, or nil if not visible.
func (b *Buffer) Bytes() []byte {
	if !b.visible {
		return nil
	}
	return b.data
}

// Cap returns the buffer's byte capacity.
func (b *Buffer) Cap() int64 { return int64(len(b.data)) }
