// Copyright 2024 The vkcpu Authors. All rights reserved.

package translate

import (
	"fmt"

	"github.com/vkcpu/vkcpu/ir"
	"github.com/vkcpu/vkcpu/spirvir"
)

// glslExtInst names the GLSL.std.450 extended instruction numbers
// this translator recognises, keyed the way the source module's
// OpExtInst encodes them: an instruction-set-relative integer
// literal. The names match the runtime intrinsics table's mangling
// roots (package runtime).
var glslExtInst = map[int64]string{
	1:  "Round",
	4:  "FAbs",
	5:  "SAbs",
	6:  "FSign",
	7:  "SSign",
	8:  "Floor",
	9:  "Ceil",
	10: "Fract",
	13: "Sin",
	14: "Cos",
	15: "Tan",
	26: "Pow",
	27: "Exp",
	28: "Log",
	29: "Exp2",
	30: "Log2",
	31: "Sqrt",
	32: "InverseSqrt",
	37: "FMin",
	38: "UMin",
	39: "SMin",
	40: "FMax",
	41: "UMax",
	42: "SMax",
	43: "FClamp",
	46: "FMix",
	66: "Length",
	67: "Distance",
	68: "Cross",
	69: "Normalize",
	75: "Reflect",
	76: "Refract",
}

// translateExtInst lowers an OpExtInst to an indirect call against
// the mangled name the runtime intrinsics table registers the
// corresponding function under (spec.md §4.4, §4.6).
func (tr *Translator) translateExtInst(in spirvir.Instruction) *ir.Value {
	// Operands: [0]=extended instruction set id (unused, GLSL.std.450
	// is the only set this translator supports), [1]=instruction
	// number literal, [2:]=operands.
	instNum := in.Operands[1].Literal
	name, ok := glslExtInst[instNum]
	if !ok {
		panic(fmt.Sprintf("translate: unsupported GLSL.std.450 instruction %d", instNum))
	}

	args := make([]*ir.Value, len(in.Operands)-2)
	for i, op := range in.Operands[2:] {
		args[i] = tr.valueOf(op.ID)
	}

	resultType := tr.typeOf(in.ResultType)
	argTypes := make([]ir.Type, len(args))
	for i, a := range args {
		argTypes[i] = a.Kind
	}

	return tr.builder.CallIndirect(resultType, mangledIntrinsic(name, argTypes...), args, in.ResultID)
}
