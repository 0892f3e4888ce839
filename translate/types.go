// Copyright 2024 The vkcpu Authors. All rights reserved.

// Package translate implements the SPIR-V→IR Translator (C4): it
// walks a parsed module (package spirvir) and emits the equivalent
// package ir program, per spec.md §4.4.
package translate

import (
	"fmt"

	"github.com/vkcpu/vkcpu/ir"
	"github.com/vkcpu/vkcpu/spirvir"
)

// typeOf returns the ir.Type for a SPIR-V type id, translating and
// memoizing it on first use. Struct layout honours Offset/
// ArrayStride/MatrixStride decorations exactly as recorded on the
// source module.
func (tr *Translator) typeOf(id uint32) ir.Type {
	if t, ok := tr.types[id]; ok {
		return t
	}
	in, ok := tr.mod.FindGlobal(id)
	if !ok {
		panic(fmt.Sprintf("translate: unknown type id %%%d", id))
	}

	var t ir.Type
	switch in.Op {
	case spirvir.OpTypeVoid:
		t = ir.VoidType{}
	case spirvir.OpTypeBool:
		t = ir.IntType{Bits: 1}
	case spirvir.OpTypeInt:
		t = ir.IntType{Bits: int(in.Operands[0].Literal)}
	case spirvir.OpTypeFloat:
		t = ir.FloatType{Bits: int(in.Operands[0].Literal)}
	case spirvir.OpTypeVector:
		elem := tr.typeOf(in.Operands[0].ID)
		t = ir.VectorType{Elem: elem, Count: int(in.Operands[1].Literal)}
	case spirvir.OpTypeMatrix:
		// A matrix of N columns of the given column type is modelled
		// as an array of columns; MatrixStride decorations (queried
		// by the caller when laying out an enclosing struct) give the
		// column-to-column stride.
		col := tr.typeOf(in.Operands[0].ID)
		t = ir.ArrayType{Elem: col, Count: int(in.Operands[1].Literal), Stride: col.Size()}
	case spirvir.OpTypeArray:
		elem := tr.typeOf(in.Operands[0].ID)
		count := int(in.Operands[1].Literal)
		stride := elem.Size()
		if dec, ok := tr.mod.Decorations(id, -1); ok && dec.ArrayStride != nil {
			stride = int(*dec.ArrayStride)
		}
		t = ir.ArrayType{Elem: elem, Count: count, Stride: stride}
	case spirvir.OpTypeRuntimeArray:
		elem := tr.typeOf(in.Operands[0].ID)
		stride := elem.Size()
		if dec, ok := tr.mod.Decorations(id, -1); ok && dec.ArrayStride != nil {
			stride = int(*dec.ArrayStride)
		}
		t = ir.ArrayType{Elem: elem, Count: 0, Stride: stride}
	case spirvir.OpTypeStruct:
		t = tr.translateStruct(id, in)
	case spirvir.OpTypePointer:
		storage := translateStorage(spirvir.StorageClass(in.Operands[0].Literal))
		elem := tr.typeOf(in.Operands[1].ID)
		t = ir.PointerType{Elem: elem, Storage: storage}
	case spirvir.OpTypeFunction:
		result := tr.typeOf(in.Operands[0].ID)
		params := make([]ir.Type, 0, len(in.Operands)-1)
		for _, op := range in.Operands[1:] {
			params = append(params, tr.typeOf(op.ID))
		}
		t = ir.FuncType{Params: params, Result: result}
	case spirvir.OpTypeImage, spirvir.OpTypeSampler, spirvir.OpTypeSampledImage:
		opaque := ir.OpaqueType()
		t = ir.PointerType{Elem: opaque, Storage: ir.StorageUniformConstant}
	default:
		panic(fmt.Sprintf("translate: unsupported type opcode %v at %%%d", in.Op, id))
	}

	tr.types[id] = t
	return t
}

// translateStruct lays out a struct's members at the byte offsets the
// source module decorated them with (inserting synthetic padding
// fields when a gap exists), and records the SPIR-V-index-to-
// post-padding-index map so later OpCompositeExtract/Insert and
// OpAccessChain translations can find the right field.
func (tr *Translator) translateStruct(id uint32, in spirvir.Instruction) ir.StructType {
	name := fmt.Sprintf("struct_%d", id)
	fields := make([]ir.StructField, 0, len(in.Operands))
	index := make(map[int]int, len(in.Operands))
	cursor := 0

	for i, op := range in.Operands {
		memberType := tr.typeOf(op.ID)
		if dec, ok := tr.mod.Decorations(id, i); ok && dec.MatrixStride != nil {
			if at, isArr := memberType.(ir.ArrayType); isArr {
				at.Stride = int(*dec.MatrixStride)
				memberType = at
			}
		}
		offset := cursor
		if dec, ok := tr.mod.Decorations(id, i); ok && dec.Offset != nil {
			offset = int(*dec.Offset)
		}
		if offset > cursor {
			fields = append(fields, ir.StructField{Type: ir.ArrayType{Elem: ir.IntType{Bits: 8}, Count: offset - cursor, Stride: 1}, Offset: cursor})
		}
		index[i] = len(fields)
		fields = append(fields, ir.StructField{Type: memberType, Offset: offset})
		cursor = offset + memberType.Size()
	}

	return ir.StructType{Name: name, Fields: fields, Index: index}
}

func translateStorage(s spirvir.StorageClass) ir.StorageClass {
	switch s {
	case spirvir.StorageUniformConstant:
		return ir.StorageUniformConstant
	case spirvir.StorageUniform:
		return ir.StorageUniform
	case spirvir.StorageInput:
		return ir.StorageInput
	case spirvir.StorageOutput:
		return ir.StorageOutput
	case spirvir.StoragePushConstant:
		return ir.StoragePushConstant
	case spirvir.StorageStorageBuffer:
		return ir.StorageStorageBuffer
	case spirvir.StoragePrivate, spirvir.StorageWorkgroup:
		return ir.StoragePrivate
	default:
		return ir.StorageFunction
	}
}
