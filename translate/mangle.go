// Copyright 2024 The vkcpu Authors. All rights reserved.

package translate

import (
	"fmt"
	"strings"

	"github.com/vkcpu/vkcpu/ir"
)

// mangledIntrinsic returns the address of an indirect-call target
// whose name is resolved by the runtime intrinsics table (package
// runtime) at JIT link time. The mangling scheme is shared verbatim
// with that table: "@Name.T1.T2..." where each Tn is a scalar type
// tag, "T[n]" for an n-wide vector of that scalar, or "M<n>T" for a
// matrix of n columns of type T (matrices are modelled as arrays of
// column vectors, see translate/types.go).
func mangledIntrinsic(name string, argTypes ...ir.Type) *ir.Value {
	var sb strings.Builder
	sb.WriteByte('@')
	sb.WriteString(name)
	for _, t := range argTypes {
		sb.WriteByte('.')
		sb.WriteString(typeTag(t))
	}
	return ir.ExternSymbol(ir.PointerType{Elem: ir.FuncType{}}, sb.String())
}

// typeTag renders one operand type into the name-mangling alphabet:
// scalar ints as I<bits>/U<bits> is not distinguished here (signedness
// is carried by the opcode, not the mangled name, matching how
// spec.md §4.4 describes extension-instruction dispatch keying only
// on shape), floats as F<bits>, and vectors as "<Elem>[N]".
func typeTag(t ir.Type) string {
	switch v := t.(type) {
	case ir.IntType:
		return fmt.Sprintf("I%d", v.Bits)
	case ir.FloatType:
		return fmt.Sprintf("F%d", v.Bits)
	case ir.VectorType:
		return fmt.Sprintf("%s[%d]", typeTag(v.Elem), v.Count)
	case ir.ArrayType:
		return fmt.Sprintf("M%d%s", v.Count, typeTag(v.Elem))
	case ir.PointerType:
		return "ptr"
	default:
		return "any"
	}
}
