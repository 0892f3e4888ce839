// Copyright 2024 The vkcpu Authors. All rights reserved.

package translate

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/vkcpu/vkcpu/ir"
	"github.com/vkcpu/vkcpu/spirvir"
)

// Translator walks one parsed SPIR-V module and builds the
// equivalent ir.Module. A Translator is single-use: call Translate
// once per source module.
type Translator struct {
	mod   *spirvir.Module
	irMod *ir.Module
	logger *log.Logger

	types   map[uint32]ir.Type
	globals map[uint32]*ir.Value
	consts  map[uint32]*ir.Value

	// per-function state, reset by translateFunction
	fn      *spirvir.Function
	irFn    *ir.Func
	blocks  map[uint32]*ir.Block
	values  map[uint32]*ir.Value
	builder *ir.Builder
	params  map[uint32]int
}

// New returns a Translator for mod. logger receives one debug line
// per function translated; pass nil to discard them.
func New(mod *spirvir.Module, logger *log.Logger) *Translator {
	if logger == nil {
		logger = log.New(nopWriter{})
	}
	return &Translator{
		mod:     mod,
		irMod:   ir.NewModule("shader"),
		logger:  logger,
		types:   make(map[uint32]ir.Type),
		globals: make(map[uint32]*ir.Value),
		consts:  make(map[uint32]*ir.Value),
	}
}

// FuncName returns the ir.Func name the translator assigns to the
// function defined by SPIR-V result id funcID, so callers (package
// pipeline) can look up an entry point's compiled function without
// duplicating the naming convention.
func FuncName(funcID uint32) string { return fmt.Sprintf("f%d", funcID) }

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// Translate lowers every function in the source module and returns
// the resulting ir.Module.
func (tr *Translator) Translate() (*ir.Module, error) {
	for i := range tr.mod.Globals {
		in := tr.mod.Globals[i]
		if in.Op == spirvir.OpVariable {
			tr.translateGlobalVar(in)
		}
	}

	for i := range tr.mod.Functions {
		if err := tr.translateFunction(&tr.mod.Functions[i]); err != nil {
			return nil, fmt.Errorf("translate: function %%%d: %w", tr.mod.Functions[i].ID, err)
		}
	}
	return tr.irMod, nil
}

func (tr *Translator) translateGlobalVar(in spirvir.Instruction) {
	ptrType := tr.typeOf(in.ResultType).(ir.PointerType)
	name := GlobalName(tr.mod, in.ResultID, ptrType.Storage)
	addr := tr.irMod.AddGlobal(name, ptrType.Elem, ptrType.Storage)
	tr.globals[in.ResultID] = addr
}

// GlobalName builds the external name spec.md §6 specifies for a
// module-scope variable: "_input_<name>", "_output_<name>",
// "_uniform_<name>", "_uniformc_<name>", "_buffer_<name>",
// "_pc_<name>", or "_output_@location<n>" for an unnamed output. It is
// exported so package pipeline/resource can locate a builtin or
// descriptor-bound global by SPIR-V id (e.g. from BuiltinVars/
// DescriptorVars) without re-running translation.
func GlobalName(mod *spirvir.Module, id uint32, storage ir.StorageClass) string {
	prefix := ""
	switch storage {
	case ir.StorageInput:
		prefix = "_input_"
	case ir.StorageOutput:
		prefix = "_output_"
	case ir.StorageUniform:
		prefix = "_uniform_"
	case ir.StorageUniformConstant:
		prefix = "_uniformc_"
	case ir.StorageStorageBuffer:
		prefix = "_buffer_"
	case ir.StoragePushConstant:
		prefix = "_pc_"
	default:
		return fmt.Sprintf("g%d", id)
	}

	if name, ok := mod.NameOf(id); ok && name != "" {
		return prefix + name
	}
	if storage == ir.StorageOutput {
		if dec, ok := mod.Decorations(id, -1); ok && dec.Location != nil {
			return fmt.Sprintf("%s@location%d", prefix, *dec.Location)
		}
	}
	return fmt.Sprintf("%sid%d", prefix, id)
}

// constOf returns the ir.Value for a SPIR-V constant or id reference,
// translating it on first use. Plain OpVariable/OpFunction references
// are resolved through the function-local value table instead; this
// only handles the module-global constant table.
func (tr *Translator) constOf(id uint32) *ir.Value {
	if v, ok := tr.consts[id]; ok {
		return v
	}
	in, ok := tr.mod.FindGlobal(id)
	if !ok {
		panic(fmt.Sprintf("translate: unknown constant id %%%d", id))
	}

	t := tr.typeOf(in.ResultType)
	var v *ir.Value
	switch in.Op {
	case spirvir.OpConstant, spirvir.OpSpecConstant:
		v = tr.scalarConst(t, in.Operands[0].Literal)
	case spirvir.OpConstantTrue:
		v = ir.ConstInt(ir.IntType{Bits: 1}, 1)
	case spirvir.OpConstantFalse:
		v = ir.ConstInt(ir.IntType{Bits: 1}, 0)
	case spirvir.OpConstantNull:
		v = ir.Undef(t)
	case spirvir.OpConstantComposite, spirvir.OpSpecConstantComposite:
		elems := make([]*ir.Value, len(in.Operands))
		for i, op := range in.Operands {
			elems[i] = tr.constOf(op.ID)
		}
		v = ir.ConstComposite(t, elems)
	case spirvir.OpSpecConstantOp:
		v = tr.evalSpecConstantOp(t, in)
	default:
		panic(fmt.Sprintf("translate: unsupported constant opcode %v at %%%d", in.Op, id))
	}

	tr.consts[id] = v
	return v
}

func (tr *Translator) scalarConst(t ir.Type, literal int64) *ir.Value {
	switch ty := t.(type) {
	case ir.IntType:
		return ir.ConstInt(ty, literal)
	case ir.FloatType:
		return ir.ConstFloat(ty, float64frombits(ty.Bits, literal))
	default:
		panic("translate: scalar constant of non-scalar type")
	}
}

// evalSpecConstantOp is the spec-constant-op mini-interpreter spec.md
// §4.4 requires: specialization constants participate in a handful of
// constant-folded operations (integer add/sub/mul, bitcast, composite
// extract, select) that must be resolvable at pipeline-creation time
// without invoking the full instruction translator. Any other opcode
// panics.
func (tr *Translator) evalSpecConstantOp(t ir.Type, in spirvir.Instruction) *ir.Value {
	op := spirvir.Op(in.Operands[0].Literal)
	args := make([]*ir.Value, 0, len(in.Operands)-1)
	for _, o := range in.Operands[1:] {
		args = append(args, tr.constOf(o.ID))
	}

	switch op {
	case spirvir.OpIAdd:
		return ir.ConstInt(t.(ir.IntType), args[0].ConstInt+args[1].ConstInt)
	case spirvir.OpISub:
		return ir.ConstInt(t.(ir.IntType), args[0].ConstInt-args[1].ConstInt)
	case spirvir.OpIMul:
		return ir.ConstInt(t.(ir.IntType), args[0].ConstInt*args[1].ConstInt)
	case spirvir.OpBitcast:
		return &ir.Value{Kind: t, ConstInt: args[0].ConstInt, ConstFloat: args[0].ConstFloat}
	case spirvir.OpCompositeExtract:
		cur := args[0]
		for _, o := range in.Operands[2:] {
			cur = cur.Composite[o.Literal]
		}
		return cur
	case spirvir.OpSelect:
		if args[0].ConstInt != 0 {
			return args[1]
		}
		return args[2]
	default:
		panic(fmt.Sprintf("translate: unsupported spec-constant-op %v", op))
	}
}

func float64frombits(bits int, raw int64) float64 {
	switch bits {
	case 32:
		return float64(math.Float32frombits(uint32(raw)))
	case 64:
		return math.Float64frombits(uint64(raw))
	default:
		return float64(raw)
	}
}
