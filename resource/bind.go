// Copyright 2024 The vkcpu Authors. All rights reserved.

package resource

import (
	"encoding/binary"
	"math"

	"github.com/vkcpu/vkcpu/ir"
	"github.com/vkcpu/vkcpu/jit"
)

// DecodeValue reads the value of type t out of the little-endian byte
// range buf[offset:], recursing through vectors/arrays/structs the
// same way the interpreter represents them: scalars as int64/float64,
// aggregates as []jit.Value (spec.md §4.3, §4.12's "decode descriptor
// bytes into interpreter values" step).
func DecodeValue(buf []byte, offset int, t ir.Type) jit.Value {
	switch ty := t.(type) {
	case ir.IntType:
		return decodeInt(buf[offset:], ty.Bits)
	case ir.FloatType:
		return decodeFloat(buf[offset:], ty.Bits)
	case ir.VectorType:
		v := make([]jit.Value, ty.Count)
		stride := ty.Elem.Size()
		for i := range v {
			v[i] = DecodeValue(buf, offset+i*stride, ty.Elem)
		}
		return v
	case ir.ArrayType:
		v := make([]jit.Value, ty.Count)
		for i := range v {
			v[i] = DecodeValue(buf, offset+i*ty.Stride, ty.Elem)
		}
		return v
	case ir.StructType:
		v := make([]jit.Value, len(ty.Fields))
		for i, f := range ty.Fields {
			v[i] = DecodeValue(buf, offset+f.Offset, f.Type)
		}
		return v
	default:
		return jit.VoidValue{}
	}
}

// EncodeValue writes v (shaped per t, as produced by DecodeValue or by
// shader execution) back into buf[offset:], the inverse of
// DecodeValue; used for a storage-buffer global whose shader wrote
// through it.
func EncodeValue(buf []byte, offset int, t ir.Type, v jit.Value) {
	switch ty := t.(type) {
	case ir.IntType:
		encodeInt(buf[offset:], ty.Bits, v.(int64))
	case ir.FloatType:
		encodeFloat(buf[offset:], ty.Bits, v.(float64))
	case ir.VectorType:
		elems := v.([]jit.Value)
		stride := ty.Elem.Size()
		for i, e := range elems {
			EncodeValue(buf, offset+i*stride, ty.Elem, e)
		}
	case ir.ArrayType:
		elems := v.([]jit.Value)
		for i, e := range elems {
			EncodeValue(buf, offset+i*ty.Stride, ty.Elem, e)
		}
	case ir.StructType:
		elems := v.([]jit.Value)
		for i, f := range ty.Fields {
			EncodeValue(buf, offset+f.Offset, f.Type, elems[i])
		}
	}
}

func decodeInt(buf []byte, bits int) int64 {
	switch {
	case bits <= 8:
		return int64(int8(buf[0]))
	case bits <= 16:
		return int64(int16(binary.LittleEndian.Uint16(buf)))
	case bits <= 32:
		return int64(int32(binary.LittleEndian.Uint32(buf)))
	default:
		return int64(binary.LittleEndian.Uint64(buf))
	}
}

func encodeInt(buf []byte, bits int, v int64) {
	switch {
	case bits <= 8:
		buf[0] = byte(v)
	case bits <= 16:
		binary.LittleEndian.PutUint16(buf, uint16(v))
	case bits <= 32:
		binary.LittleEndian.PutUint32(buf, uint32(v))
	default:
		binary.LittleEndian.PutUint64(buf, uint64(v))
	}
}

func decodeFloat(buf []byte, bits int) float64 {
	switch bits {
	case 16:
		return float64(math.Float32frombits(uint32(binary.LittleEndian.Uint16(buf)) << 16))
	case 32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
	default:
		return math.Float64frombits(binary.LittleEndian.Uint64(buf))
	}
}

func encodeFloat(buf []byte, bits int, v float64) {
	switch bits {
	case 16:
		binary.LittleEndian.PutUint16(buf, uint16(math.Float32bits(float32(v))>>16))
	case 32:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
	default:
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
	}
}

// BindBuffer rewires the named global's storage cell to read and
// write directly through the byte range buf[off:off+elemT.Size()],
// so a uniform/storage-buffer global aliases the bound descriptor's
// memory instead of holding a private copy (spec.md §4.12).
func BindBuffer(mod *jit.Module, name string, elemT ir.Type, buf []byte, off int64) {
	cell := mod.Global(name, elemT)
	cell.Get = func() jit.Value { return DecodeValue(buf, int(off), elemT) }
	cell.Set = func(v jit.Value) { EncodeValue(buf, int(off), elemT, v) }
}

// BindImage installs handle (an ImageView or BoundImage implementing
// runtime.ImageHandle) as the value of the named sampled-image or
// storage-image global.
func BindImage(mod *jit.Module, name string, t ir.Type, handle any) {
	mod.SetGlobal(name, t, handle)
}
