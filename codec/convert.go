// Copyright 2024 The vkcpu Authors. All rights reserved.

package codec

import (
	"math"

	"github.com/vkcpu/vkcpu/format"
	"github.com/vkcpu/vkcpu/half"
)

// SRGBEncode converts a linear color component to its sRGB-encoded
// equivalent using the standard transfer function (spec.md §4.2).
func SRGBEncode(c float32) float32 {
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*float32(math.Pow(float64(c), 1/2.4)) - 0.055
}

// SRGBDecode converts an sRGB-encoded color component to linear.
func SRGBDecode(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return float32(math.Pow(float64((c+0.055)/1.055), 2.4))
}

// unormMax returns 2^bits - 1 as a float64.
func unormMax(bits int) float64 { return float64(uint64(1)<<uint(bits) - 1) }

// snormMax returns 2^(bits-1) - 1 as a float64.
func snormMax(bits int) float64 { return float64(uint64(1)<<uint(bits-1) - 1) }

// DecodeFloat converts the raw bits of one channel to a float32
// according to the channel's base type and bit width, per spec.md
// §4.2.
func DecodeFloat(bt format.BaseType, bits int, raw uint64) float32 {
	switch bt {
	case format.UNorm, format.UScaled:
		return float32(float64(raw) / unormMax(bits))
	case format.SNorm, format.SScaled:
		v := signExtend(raw, bits)
		f := float64(v) / snormMax(bits)
		if bt == format.SNorm && f < -1 {
			f = -1
		}
		return float32(f)
	case format.UInt:
		return float32(raw)
	case format.SInt:
		return float32(signExtend(raw, bits))
	case format.SRGB:
		return SRGBDecode(float32(float64(raw) / unormMax(bits)))
	case format.UFloat, format.SFloat:
		return float32(floatLayoutFor(bits).decode(raw))
	default:
		return 0
	}
}

// EncodeFloat converts a float32 to the raw bit pattern for one
// channel according to its base type and bit width.
func EncodeFloat(bt format.BaseType, bits int, v float32) uint64 {
	switch bt {
	case format.UNorm, format.UScaled:
		f := clamp64(float64(v), 0, 1)
		return uint64(math.Round(f * unormMax(bits)))
	case format.SNorm, format.SScaled:
		f := clamp64(float64(v), -1, 1)
		return signTruncate(int64(math.Round(f*snormMax(bits))), bits)
	case format.UInt:
		return uint64(v)
	case format.SInt:
		return signTruncate(int64(v), bits)
	case format.SRGB:
		f := clamp64(float64(SRGBEncode(v)), 0, 1)
		return uint64(math.Round(f * unormMax(bits)))
	case format.UFloat, format.SFloat:
		return floatLayoutFor(bits).encode(float64(v))
	default:
		return 0
	}
}

// floatBits wraps a half.Layout with the decode/encode convenience
// methods used by DecodeFloat/EncodeFloat.
type floatBits struct{ half.Layout }

func (f floatBits) decode(raw uint64) float64 { return half.Decode(f.Layout, raw) }
func (f floatBits) encode(v float64) uint64   { return half.Encode(f.Layout, v) }

// floatLayoutFor returns the float container layout for a channel of
// the given bit width, per the encodings named in spec.md §6.
func floatLayoutFor(bits int) floatBits {
	switch bits {
	case 10:
		return floatBits{half.LayoutUF10}
	case 11:
		return floatBits{half.LayoutUF11}
	case 14:
		return floatBits{half.LayoutUF14}
	case 16:
		return floatBits{half.LayoutHalf}
	case 64:
		return floatBits{half.LayoutDouble}
	default:
		return floatBits{half.LayoutFloat}
	}
}

// signExtend interprets the low bits bits of raw as a two's-complement
// integer and sign-extends it to int64.
func signExtend(raw uint64, bits int) int64 {
	shift := 64 - uint(bits)
	return int64(raw<<shift) >> shift
}

// signTruncate truncates a signed value to bits bits, returning its
// unsigned bit pattern.
func signTruncate(v int64, bits int) uint64 {
	mask := uint64(1)<<uint(bits) - 1
	return uint64(v) & mask
}

func clamp64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
