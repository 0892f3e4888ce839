// Copyright 2024 The vkcpu Authors. All rights reserved.

package codec

import (
	"sync"

	"github.com/vkcpu/vkcpu/driver"
	"github.com/vkcpu/vkcpu/format"
)

// Op identifies one texel access kernel, per the lookup key spec.md
// §4.2 names: (format, operation).
type Op int

const (
	OpGetF32 Op = iota
	OpGetI32
	OpGetU32
	OpGetDepth
	OpGetStencil
	OpSetF32
	OpSetI32
	OpSetU32
	OpSetDepthStencil
)

// key is the cache key: a format paired with an operation.
type key struct {
	f  driver.PixelFmt
	op Op
}

// cache holds the specialized kernels built so far. Real per-format
// specialization happens once per (format, op) pair and is then
// reused for the lifetime of the process, mirroring how package jit
// caches compiled shader code: the generic implementation in
// texel.go is the "interpreter" fallback that specialize closes over
// with the format's Info baked in, standing in for the JIT
// specialization spec.md §4.2 describes.
var (
	cacheMu sync.Mutex
	cache   = map[key]any{}
)

// GetF32Kernel, GetI32Kernel and GetU32Kernel are the signatures of
// the Get* specialized kernels: each reads one texel (whole, not a single channel) from buf and
// returns its scalar result for the given channel.
type GetF32Kernel func(buf []byte, ch int) float32
type GetI32Kernel func(buf []byte, ch int) int32
type GetU32Kernel func(buf []byte, ch int) uint32
type GetDepthKernel func(buf []byte) float32
type GetStencilKernel func(buf []byte) uint32
type SetF32Kernel func(buf []byte, ch int, v float32)
type SetI32Kernel func(buf []byte, ch int, v int32)
type SetU32Kernel func(buf []byte, ch int, v uint32)
type SetDepthStencilKernel func(buf []byte, depth float32, stencil uint32)

// specializedGetF32 returns the cached (or newly built) GetF32Kernel
// for f, with the format's Info captured in the closure so that the
// hot per-texel path never re-looks-up the descriptor table.
func specializedGetF32(f driver.PixelFmt) GetF32Kernel {
	return specialize(f, OpGetF32, func(info format.Info) any {
		return GetF32Kernel(func(buf []byte, ch int) float32 { return GetF32(info, buf, ch) })
	}).(GetF32Kernel)
}

func specializedGetI32(f driver.PixelFmt) GetI32Kernel {
	return specialize(f, OpGetI32, func(info format.Info) any {
		return GetI32Kernel(func(buf []byte, ch int) int32 { return GetI32(info, buf, ch) })
	}).(GetI32Kernel)
}

func specializedGetU32(f driver.PixelFmt) GetU32Kernel {
	return specialize(f, OpGetU32, func(info format.Info) any {
		return GetU32Kernel(func(buf []byte, ch int) uint32 { return GetU32(info, buf, ch) })
	}).(GetU32Kernel)
}

func specializedGetDepth(f driver.PixelFmt) GetDepthKernel {
	return specialize(f, OpGetDepth, func(info format.Info) any {
		return GetDepthKernel(func(buf []byte) float32 { return GetDepth(info, buf) })
	}).(GetDepthKernel)
}

func specializedGetStencil(f driver.PixelFmt) GetStencilKernel {
	return specialize(f, OpGetStencil, func(info format.Info) any {
		return GetStencilKernel(func(buf []byte) uint32 { return GetStencil(info, buf) })
	}).(GetStencilKernel)
}

func specializedSetF32(f driver.PixelFmt) SetF32Kernel {
	return specialize(f, OpSetF32, func(info format.Info) any {
		return SetF32Kernel(func(buf []byte, ch int, v float32) { SetF32(info, buf, ch, v) })
	}).(SetF32Kernel)
}

func specializedSetI32(f driver.PixelFmt) SetI32Kernel {
	return specialize(f, OpSetI32, func(info format.Info) any {
		return SetI32Kernel(func(buf []byte, ch int, v int32) { SetI32(info, buf, ch, v) })
	}).(SetI32Kernel)
}

func specializedSetU32(f driver.PixelFmt) SetU32Kernel {
	return specialize(f, OpSetU32, func(info format.Info) any {
		return SetU32Kernel(func(buf []byte, ch int, v uint32) { SetU32(info, buf, ch, v) })
	}).(SetU32Kernel)
}

func specializedSetDepthStencil(f driver.PixelFmt) SetDepthStencilKernel {
	return specialize(f, OpSetDepthStencil, func(info format.Info) any {
		return SetDepthStencilKernel(func(buf []byte, depth float32, stencil uint32) {
			SetDepthStencil(info, buf, depth, stencil)
		})
	}).(SetDepthStencilKernel)
}

// specialize returns the cached kernel for (f, op), building it with
// build on a cache miss.
func specialize(f driver.PixelFmt, op Op, build func(format.Info) any) any {
	k := key{f, op}

	cacheMu.Lock()
	if k, ok := cache[k]; ok {
		cacheMu.Unlock()
		return k
	}
	cacheMu.Unlock()

	info := format.MustDescribe(f)
	kern := build(info)

	cacheMu.Lock()
	cache[k] = kern
	cacheMu.Unlock()
	return kern
}

// Codec is a per-format bundle of specialized texel kernels, the
// handle that resource.Image and the runtime intrinsics table use to
// access texel data without a per-call format switch.
type Codec struct {
	Format       driver.PixelFmt
	GetF32       GetF32Kernel
	GetI32       GetI32Kernel
	GetU32       GetU32Kernel
	GetDepth     GetDepthKernel
	GetStencil   GetStencilKernel
	SetF32       SetF32Kernel
	SetI32       SetI32Kernel
	SetU32       SetU32Kernel
	SetDepthStencil SetDepthStencilKernel
}

// For returns the specialized Codec for f, built once and cached for
// every subsequent call with the same format.
func For(f driver.PixelFmt) Codec {
	return Codec{
		Format:          f,
		GetF32:          specializedGetF32(f),
		GetI32:          specializedGetI32(f),
		GetU32:          specializedGetU32(f),
		GetDepth:        specializedGetDepth(f),
		GetStencil:      specializedGetStencil(f),
		SetF32:          specializedSetF32(f),
		SetI32:          specializedSetI32(f),
		SetU32:          specializedSetU32(f),
		SetDepthStencil: specializedSetDepthStencil(f),
	}
}
