// Copyright 2024 The vkcpu Authors. All rights reserved.

package translate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vkcpu/vkcpu/ir"
	"github.com/vkcpu/vkcpu/spirvir"
)

// buildAddModule constructs, directly in Go, the parsed shape of a
// function equivalent to: fn add(a, b int32) -> int32 { return a+b }
func buildAddModule() *spirvir.Module {
	m := spirvir.NewModule()
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeInt, ResultID: 1, Operands: []spirvir.Operand{spirvir.Imm(32), spirvir.Imm(1)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeFunction, ResultID: 2, Operands: []spirvir.Operand{spirvir.Ref(1), spirvir.Ref(1), spirvir.Ref(1)}})

	fn := spirvir.Function{ID: 100, TypeID: 2, ResultType: 1, Params: []uint32{10, 11}}
	block := spirvir.Block{
		ID: 200,
		Instrs: []spirvir.Instruction{
			{Op: spirvir.OpIAdd, ResultID: 20, ResultType: 1, Operands: []spirvir.Operand{spirvir.Ref(10), spirvir.Ref(11)}},
			{Op: spirvir.OpReturnValue, Operands: []spirvir.Operand{spirvir.Ref(20)}},
		},
	}
	fn.Blocks = []spirvir.Block{block}
	m.Functions = append(m.Functions, fn)
	return m
}

func TestTranslateSimpleFunction(t *testing.T) {
	m := buildAddModule()
	tr := New(m, nil)
	irMod, err := tr.Translate()
	require.NoError(t, err)
	require.Len(t, irMod.Funcs, 1)

	f := irMod.Funcs[0]
	require.Equal(t, ir.IntType{Bits: 32}, f.Sig.Result)
	require.Len(t, f.Blocks, 1)
	require.Equal(t, ir.OpAdd, f.Blocks[0].Instrs[0].Op)
	require.Equal(t, ir.OpRet, f.Blocks[0].Instrs[1].Op)
}

func TestTranslatePhi(t *testing.T) {
	m := spirvir.NewModule()
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeInt, ResultID: 1, Operands: []spirvir.Operand{spirvir.Imm(32), spirvir.Imm(1)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeBool, ResultID: 2})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeFunction, ResultID: 3, Operands: []spirvir.Operand{spirvir.Ref(1), spirvir.Ref(2)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpConstant, ResultID: 50, ResultType: 1, Operands: []spirvir.Operand{spirvir.Imm(1)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpConstant, ResultID: 51, ResultType: 1, Operands: []spirvir.Operand{spirvir.Imm(2)}})

	fn := spirvir.Function{ID: 100, TypeID: 3, ResultType: 1, Params: []uint32{10}}
	entry := spirvir.Block{ID: 200, Instrs: []spirvir.Instruction{
		{Op: spirvir.OpBranchConditional, Operands: []spirvir.Operand{spirvir.Ref(10), spirvir.Ref(201), spirvir.Ref(202)}},
	}}
	thenB := spirvir.Block{ID: 201, Instrs: []spirvir.Instruction{
		{Op: spirvir.OpBranch, Operands: []spirvir.Operand{spirvir.Ref(203)}},
	}}
	elseB := spirvir.Block{ID: 202, Instrs: []spirvir.Instruction{
		{Op: spirvir.OpBranch, Operands: []spirvir.Operand{spirvir.Ref(203)}},
	}}
	merge := spirvir.Block{ID: 203, Instrs: []spirvir.Instruction{
		{Op: spirvir.OpPhi, ResultID: 60, ResultType: 1, Operands: []spirvir.Operand{
			spirvir.Ref(50), spirvir.Ref(201), spirvir.Ref(51), spirvir.Ref(202),
		}},
		{Op: spirvir.OpReturnValue, Operands: []spirvir.Operand{spirvir.Ref(60)}},
	}}
	fn.Blocks = []spirvir.Block{entry, thenB, elseB, merge}
	m.Functions = append(m.Functions, fn)

	tr := New(m, nil)
	irMod, err := tr.Translate()
	require.NoError(t, err)

	f := irMod.Funcs[0]
	mergeBlk := f.Blocks[3]
	phi := mergeBlk.Instrs[0]
	require.Equal(t, ir.OpPhi, phi.Op)
	require.Len(t, phi.Args, 2)
	require.Equal(t, int64(1), phi.Args[0].ConstInt)
	require.Equal(t, int64(2), phi.Args[1].ConstInt)
}

func TestStructOffsetPadding(t *testing.T) {
	m := spirvir.NewModule()
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeFloat, ResultID: 1, Operands: []spirvir.Operand{spirvir.Imm(32)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeVector, ResultID: 2, Operands: []spirvir.Operand{spirvir.Ref(1), spirvir.Imm(3)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeStruct, ResultID: 3, Operands: []spirvir.Operand{spirvir.Ref(2), spirvir.Ref(1)}})
	var off0, off1 uint32 = 0, 16
	m.Decorate(3, 0, func(d *spirvir.Decorations) { d.Offset = &off0 })
	m.Decorate(3, 1, func(d *spirvir.Decorations) { d.Offset = &off1 })

	tr := New(m, nil)
	st := tr.typeOf(3).(ir.StructType)
	require.Equal(t, 20, st.Size())
	idx, field := st.Member(1)
	require.Equal(t, 16, field.Offset)
	require.Equal(t, ir.FloatType{Bits: 32}, field.Type)
	require.Greater(t, idx, 0)
}

func TestBuiltinVarsLookup(t *testing.T) {
	m := spirvir.NewModule()
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeFloat, ResultID: 1, Operands: []spirvir.Operand{spirvir.Imm(32)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeVector, ResultID: 2, Operands: []spirvir.Operand{spirvir.Ref(1), spirvir.Imm(4)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypePointer, ResultID: 3, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageOutput)), spirvir.Ref(2)}})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpVariable, ResultID: 4, ResultType: 3, Operands: []spirvir.Operand{spirvir.Imm(int64(spirvir.StorageOutput))}})
	pos := spirvir.BuiltInPosition
	m.Decorate(4, -1, func(d *spirvir.Decorations) { d.BuiltIn = &pos })

	vars := BuiltinVars(m)
	require.Equal(t, uint32(4), vars[spirvir.BuiltInPosition])
}
