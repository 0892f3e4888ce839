// Copyright 2024 The vkcpu Authors. All rights reserved.

// Package ir implements the IR Builder (C3): a thin, typed SSA
// intermediate representation that the SPIR-V translator (package
// translate) emits into and the JIT module host (package jit)
// compiles, per spec.md §4.3.
package ir

import "fmt"

// Type is the interface implemented by every IR type.
type Type interface {
	String() string
	// Size returns the type's size in bytes, as laid out by the
	// translator (including any struct/array padding already baked
	// in by the translator per spec.md §4.4).
	Size() int
}

// IntType is an N-bit integer type (N need not be a power of two: a
// 1-bit IntType represents a SPIR-V OpTypeBool).
type IntType struct{ Bits int }

func (t IntType) String() string { return fmt.Sprintf("i%d", t.Bits) }
func (t IntType) Size() int      { return (t.Bits + 7) / 8 }

// FloatType is an IEEE 754 float type of 16, 32 or 64 bits.
type FloatType struct{ Bits int }

func (t FloatType) String() string { return fmt.Sprintf("f%d", t.Bits) }
func (t FloatType) Size() int      { return t.Bits / 8 }

// VoidType is the empty type used for functions with no result.
type VoidType struct{}

func (VoidType) String() string { return "void" }
func (VoidType) Size() int      { return 0 }

// PointerType points to a value of Elem's type in the given storage
// class.
type PointerType struct {
	Elem    Type
	Storage StorageClass
}

func (t PointerType) String() string { return "*" + t.Elem.String() }
func (t PointerType) Size() int      { return 8 }

// StorageClass mirrors the SPIR-V storage classes the translator
// must distinguish (spec.md §4.4).
type StorageClass int

const (
	StorageFunction StorageClass = iota
	StorageUniformConstant
	StorageUniform
	StorageInput
	StorageOutput
	StoragePushConstant
	StorageStorageBuffer
	StoragePrivate
)

// VectorType is a native vector of Count elements of type Elem.
type VectorType struct {
	Elem  Type
	Count int
}

func (t VectorType) String() string { return fmt.Sprintf("<%d x %s>", t.Count, t.Elem) }
func (t VectorType) Size() int      { return t.Elem.Size() * t.Count }

// ArrayType is an array of Count elements of type Elem, with an
// element Stride that may exceed Elem's natural size when the
// translator must honour SPIR-V's ArrayStride decoration (spec.md
// §4.4).
type ArrayType struct {
	Elem   Type
	Count  int
	Stride int
}

func (t ArrayType) String() string { return fmt.Sprintf("[%d x %s]", t.Count, t.Elem) }
func (t ArrayType) Size() int      { return t.Stride * t.Count }

// StructField is one member of a StructType: its type and its byte
// offset within the struct, after the translator has inserted any
// padding required by the Offset decoration.
type StructField struct {
	Type   Type
	Offset int
}

// StructType is a sequence of fields at explicit byte offsets. Index
// maps a pre-padding SPIR-V member index to its position in Fields;
// the translator must consult this map whenever it lowers an
// OpCompositeExtract/Insert or OpAccessChain index that was expressed
// in the original (pre-padding) numbering (spec.md §4.4).
type StructType struct {
	Name   string
	Fields []StructField
	// Index maps a SPIR-V member index to its index in Fields. It is
	// the identity unless the translator inserted padding fields.
	Index map[int]int
}

func (t StructType) String() string {
	if t.Name != "" {
		return "%" + t.Name
	}
	return "%anon.struct"
}

func (t StructType) Size() int {
	if len(t.Fields) == 0 {
		return 0
	}
	last := t.Fields[len(t.Fields)-1]
	return last.Offset + last.Type.Size()
}

// Member maps a SPIR-V member index to its post-padding field index
// and field descriptor.
func (t StructType) Member(spirvIndex int) (fieldIndex int, field StructField) {
	fieldIndex = spirvIndex
	if t.Index != nil {
		if i, ok := t.Index[spirvIndex]; ok {
			fieldIndex = i
		}
	}
	return fieldIndex, t.Fields[fieldIndex]
}

// FuncType is a function signature.
type FuncType struct {
	Params []Type
	Result Type
}

func (t FuncType) String() string { return fmt.Sprintf("fn(%v) -> %s", t.Params, t.Result) }
func (t FuncType) Size() int      { return 8 }

// OpaqueKind distinguishes the three opaque handle kinds the
// translator maps image/sampler/sampled-image types to (spec.md
// §4.4): a pointer to a three-slot struct {u32 kind, u8* handle, u8*
// extra}.
type OpaqueKind int

const (
	OpaqueImage OpaqueKind = iota
	OpaqueSampler
	OpaqueSampledImage
)

// OpaqueType returns the canonical {u32 kind, u8* handle, u8* extra}
// struct type used for image/sampler/sampled-image variables, per
// spec.md §4.4.
func OpaqueType() StructType {
	bytePtr := PointerType{Elem: IntType{8}, Storage: StorageUniformConstant}
	return StructType{
		Name: "opaque_handle",
		Fields: []StructField{
			{Type: IntType{32}, Offset: 0},
			{Type: bytePtr, Offset: 8},
			{Type: bytePtr, Offset: 16},
		},
	}
}
