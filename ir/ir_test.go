// Copyright 2024 The vkcpu Authors. All rights reserved.

package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModuleBuildsAddFunction(t *testing.T) {
	m := NewModule("test")
	i32 := IntType{32}
	f := m.AddFunc("add", FuncType{Params: []Type{i32, i32}, Result: i32})
	entry := f.NewBlock("entry")
	b := NewBuilder(entry)

	sum := b.Add(i32, f.Param(0), f.Param(1), 42)
	b.Ret(sum, 43)

	require.Len(t, f.Blocks, 1)
	require.Len(t, entry.Instrs, 2)
	require.Equal(t, OpAdd, entry.Instrs[0].Op)
	require.Equal(t, uint32(42), entry.Instrs[0].SpirvID)
	require.Equal(t, OpRet, entry.Instrs[1].Op)
	require.Same(t, m.FuncByName("add"), f)
}

func TestBuilderPhiAndBranch(t *testing.T) {
	m := NewModule("test")
	i32 := IntType{32}
	f := m.AddFunc("select3", FuncType{Params: []Type{IntType{1}}, Result: i32})
	entry := f.NewBlock("entry")
	thenB := f.NewBlock("then")
	elseB := f.NewBlock("else")
	merge := f.NewBlock("merge")

	b := NewBuilder(entry)
	b.CondBr(f.Param(0), thenB, elseB, 1)

	b.SetBlock(thenB)
	one := ConstInt(i32, 1)
	b.Br(merge, 2)

	b.SetBlock(elseB)
	two := ConstInt(i32, 2)
	b.Br(merge, 3)

	b.SetBlock(merge)
	phi := b.Phi(i32, 4)
	phi.AddIncoming(one, thenB)
	phi.AddIncoming(two, elseB)
	b.Ret(phi.Value(), 5)

	require.Equal(t, OpCondBr, entry.Instrs[0].Op)
	require.Len(t, phi.Args, 2)
	require.Len(t, phi.Targets, 2)
	require.Equal(t, thenB, phi.Targets[0])
	require.Equal(t, int64(1), phi.Args[0].ConstInt)
}

func TestBuilderGEPAndStructOffsets(t *testing.T) {
	i32 := IntType{32}
	f32 := FloatType{32}
	st := StructType{
		Name: "vertex",
		Fields: []StructField{
			{Type: VectorType{Elem: f32, Count: 3}, Offset: 0},
			{Type: i32, Offset: 16},
		},
	}
	require.Equal(t, 20, st.Size())

	m := NewModule("test")
	fn := m.AddFunc("touch", FuncType{Result: VoidType{}})
	entry := fn.NewBlock("entry")
	b := NewBuilder(entry)

	ptr := b.Alloca(st, 10)
	field := b.GEP(i32, ptr, []int{1}, 11)
	require.Equal(t, PointerType{Elem: i32, Storage: StorageFunction}, field.Kind)

	val := b.Load(i32, field, 12)
	b.Store(field, val, 13)
	b.RetVoid(14)

	require.Len(t, entry.Instrs, 5)
}

func TestVectorSplatAndShuffle(t *testing.T) {
	f32 := FloatType{32}
	vec4 := VectorType{Elem: f32, Count: 4}

	m := NewModule("test")
	fn := m.AddFunc("vecOps", FuncType{Params: []Type{f32}, Result: vec4})
	entry := fn.NewBlock("entry")
	b := NewBuilder(entry)

	v := b.Splat(vec4, fn.Param(0), 20)
	require.Equal(t, vec4, v.Kind)

	shuffled := b.ShuffleVector(vec4, v, v, []int{3, 2, 1, 0}, 21)
	require.Equal(t, vec4, shuffled.Kind)

	elem := b.ExtractElement(f32, shuffled, ConstInt(IntType{32}, 0), 22)
	require.Equal(t, f32, elem.Kind)

	inserted := b.InsertElement(shuffled, elem, ConstInt(IntType{32}, 1), 23)
	require.Equal(t, vec4, inserted.Kind)
}

func TestAtomicRMW(t *testing.T) {
	i32 := IntType{32}
	ptrT := PointerType{Elem: i32, Storage: StorageStorageBuffer}

	m := NewModule("test")
	fn := m.AddFunc("bump", FuncType{Params: []Type{ptrT}, Result: i32})
	entry := fn.NewBlock("entry")
	b := NewBuilder(entry)

	old := b.AtomicRMW(AtomicAdd, i32, fn.Param(0), ConstInt(i32, 1), 30)
	b.Ret(old, 31)

	require.Equal(t, OpAtomicRMW, entry.Instrs[0].Op)
	require.Equal(t, AtomicAdd, entry.Instrs[0].AtomicOp)
}

func TestOpaqueTypeLayout(t *testing.T) {
	ot := OpaqueType()
	require.Equal(t, 24, ot.Size())
	idx, field := ot.Member(0)
	require.Equal(t, 0, idx)
	require.Equal(t, IntType{32}, field.Type)
}
