// Copyright 2024 The vkcpu Authors. All rights reserved.

package jit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vkcpu/vkcpu/ir"
)

func buildAddModule() *ir.Module {
	m := ir.NewModule("add")
	i32 := ir.IntType{Bits: 32}
	f := m.AddFunc("add", ir.FuncType{Params: []ir.Type{i32, i32}, Result: i32})
	entry := f.NewBlock("entry")
	b := ir.NewBuilder(entry)
	sum := b.Add(i32, f.Param(0), f.Param(1), 1)
	b.Ret(sum, 2)
	return m
}

func TestCompileAndRunAdd(t *testing.T) {
	h := NewHost(nil)
	mod, err := h.Compile(buildAddModule(), nil)
	require.NoError(t, err)

	fn, err := mod.GetFunctionPointer("add")
	require.NoError(t, err)

	result := fn([]Value{int64(3), int64(4)})
	require.Equal(t, int64(7), result)
}

func TestDestroyInvalidatesPointer(t *testing.T) {
	h := NewHost(nil)
	mod, err := h.Compile(buildAddModule(), nil)
	require.NoError(t, err)

	fn, err := mod.GetFunctionPointer("add")
	require.NoError(t, err)

	mod.Destroy()
	require.Panics(t, func() { fn([]Value{int64(1), int64(2)}) })
}

func TestSymbolResolutionPriority(t *testing.T) {
	h := NewHost(func(name string) (FuncPtr, bool) {
		if name == "@helper" {
			return func([]Value) Value { return int64(100) }, true
		}
		return nil, false
	})
	h.AddFunction("@helper", func([]Value) Value { return int64(200) })

	i32 := ir.IntType{Bits: 32}
	irMod := ir.NewModule("call")
	f := irMod.AddFunc("useHelper", ir.FuncType{Result: i32})
	entry := f.NewBlock("entry")
	b := ir.NewBuilder(entry)
	v := b.CallIndirect(i32, ir.ExternSymbol(ir.PointerType{Elem: ir.FuncType{}}, "@helper"), nil, 1)
	b.Ret(v, 2)

	// Host-level registration wins when no per-Compile override names
	// the same symbol.
	mod, err := h.Compile(irMod, nil)
	require.NoError(t, err)
	fn, _ := mod.GetFunctionPointer("useHelper")
	require.Equal(t, int64(200), fn(nil))

	// A per-Compile override outranks the host-level registration.
	mod2, err := h.Compile(irMod, func(name string) (FuncPtr, bool) {
		if name == "@helper" {
			return func([]Value) Value { return int64(300) }, true
		}
		return nil, false
	})
	require.NoError(t, err)
	fn2, _ := mod2.GetFunctionPointer("useHelper")
	require.Equal(t, int64(300), fn2(nil))
}

func TestUserDataBinding(t *testing.T) {
	h := NewHost(nil)
	mod, err := h.Compile(buildAddModule(), nil)
	require.NoError(t, err)

	mod.BindUserData(int64(42))
	fn, ok := mod.GetOptionalPointer("@userData")
	require.True(t, ok)
	require.Equal(t, int64(42), fn(nil))
}

func TestVerifyRejectsMissingTerminator(t *testing.T) {
	m := ir.NewModule("bad")
	f := m.AddFunc("broken", ir.FuncType{Result: ir.VoidType{}})
	blk := f.NewBlock("entry")
	b := ir.NewBuilder(blk)
	b.Add(ir.IntType{Bits: 32}, ir.ConstInt(ir.IntType{Bits: 32}, 1), ir.ConstInt(ir.IntType{Bits: 32}, 2), 0)

	err := Verify(m)
	require.Error(t, err)
}
