// Copyright 2024 The vkcpu Authors. All rights reserved.

package ir

import "fmt"

// ValueKind distinguishes the origin of a Value.
type ValueKind int

const (
	ValInstr ValueKind = iota
	ValConstInt
	ValConstFloat
	ValConstComposite
	ValParam
	ValGlobal
	ValUndef
)

// Value is an SSA virtual register: the result of an instruction, a
// constant, a function parameter or a global variable address.
// Values are compared by pointer identity, mirroring a native IR's
// value-handle semantics.
type Value struct {
	Kind Type
	kind ValueKind

	// ConstInt/ConstFloat hold the constant payload when kind is
	// ValConstInt/ValConstFloat.
	ConstInt   int64
	ConstFloat float64

	// Composite holds element values for ValConstComposite and
	// ValUndef-of-aggregate.
	Composite []*Value

	// Instr is set when kind is ValInstr: the defining instruction.
	Instr *Instr

	// Param is the zero-based parameter index when kind is ValParam.
	Param int

	// Global names the global variable when kind is ValGlobal.
	Global string

	// SpirvID is the originating SPIR-V result id, when known, named
	// on every emitted instruction to aid debugging (spec.md §4.3).
	SpirvID uint32

	// name is a human-readable label used only for String().
	name string
}

// Type returns the value's IR type.
func (v *Value) Type() Type { return v.Kind }

func (v *Value) String() string {
	if v.name != "" {
		return v.name
	}
	switch v.kind {
	case ValConstInt:
		return fmt.Sprintf("%d", v.ConstInt)
	case ValConstFloat:
		return fmt.Sprintf("%g", v.ConstFloat)
	case ValParam:
		return fmt.Sprintf("%%arg%d", v.Param)
	case ValGlobal:
		return "@" + v.Global
	case ValUndef:
		return "undef"
	default:
		if v.SpirvID != 0 {
			return fmt.Sprintf("%%%d", v.SpirvID)
		}
		return "%v"
	}
}

// ConstInt returns a constant of the given integer type.
func ConstInt(t IntType, v int64) *Value {
	return &Value{Kind: t, kind: ValConstInt, ConstInt: v}
}

// ConstFloat returns a constant of the given float type.
func ConstFloat(t FloatType, v float64) *Value {
	return &Value{Kind: t, kind: ValConstFloat, ConstFloat: v}
}

// ConstComposite returns a constant aggregate (vector, array or
// struct) built from elems.
func ConstComposite(t Type, elems []*Value) *Value {
	return &Value{Kind: t, kind: ValConstComposite, Composite: elems}
}

// Undef returns the well-formed "undefined value" of type t, used
// where the translator has no better value to supply (e.g. an
// uninitialized OpUndef).
func Undef(t Type) *Value {
	return &Value{Kind: t, kind: ValUndef}
}

// paramValue builds the n-th parameter value of a Function.
func paramValue(t Type, n int) *Value {
	return &Value{Kind: t, kind: ValParam, Param: n}
}

// globalValue returns the address value of a named global.
func globalValue(t Type, name string) *Value {
	return &Value{Kind: t, kind: ValGlobal, Global: name}
}

// ExternSymbol returns the address value of a named external symbol
// not declared as a module Global — used for runtime intrinsics
// resolved by name at JIT link time rather than defined in the
// translated module (spec.md §4.6).
func ExternSymbol(t Type, name string) *Value {
	return &Value{Kind: t, kind: ValGlobal, Global: name}
}
