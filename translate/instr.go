// Copyright 2024 The vkcpu Authors. All rights reserved.

package translate

import (
	"fmt"

	"github.com/vkcpu/vkcpu/ir"
	"github.com/vkcpu/vkcpu/spirvir"
)

// pendingPhi records a phi instruction whose incoming values
// reference blocks or values not yet translated at the point the phi
// itself is created; resolved once the whole function has been
// walked.
type pendingPhi struct {
	instr    *ir.Instr
	incoming []spirvir.Operand // pairs: value id, block id, value id, block id...
}

func (tr *Translator) translateFunction(fn *spirvir.Function) error {
	sig := tr.typeOf(fn.TypeID).(ir.FuncType)
	name := fmt.Sprintf("f%d", fn.ID)
	irFn := tr.irMod.AddFunc(name, sig)

	tr.fn = fn
	tr.irFn = irFn
	tr.blocks = make(map[uint32]*ir.Block)
	tr.values = make(map[uint32]*ir.Value)
	tr.params = make(map[uint32]int)

	for i, pid := range fn.Params {
		tr.params[pid] = i
		tr.values[pid] = irFn.Param(i)
	}

	for _, b := range fn.Blocks {
		tr.blocks[b.ID] = irFn.NewBlock(fmt.Sprintf("b%d", b.ID))
	}

	var pending []pendingPhi
	for _, b := range fn.Blocks {
		blk := tr.blocks[b.ID]
		builder := ir.NewBuilder(blk)
		tr.builder = builder
		for _, in := range b.Instrs {
			if in.Op == spirvir.OpPhi {
				phi := builder.Phi(tr.typeOf(in.ResultType), in.ResultID)
				tr.values[in.ResultID] = phi.Value()
				pending = append(pending, pendingPhi{instr: phi, incoming: in.Operands})
				continue
			}
			tr.translateInstr(in)
		}
	}

	for _, p := range pending {
		for i := 0; i+1 < len(p.incoming); i += 2 {
			val := tr.valueOf(p.incoming[i].ID)
			blk := tr.blocks[p.incoming[i+1].ID]
			p.instr.AddIncoming(val, blk)
		}
	}

	tr.logger.Debug("translated function", "id", fn.ID, "blocks", len(fn.Blocks))
	return nil
}

// valueOf resolves a SPIR-V id to its ir.Value: a function-local SSA
// value, a parameter, a global's address, or a module constant.
func (tr *Translator) valueOf(id uint32) *ir.Value {
	if v, ok := tr.values[id]; ok {
		return v
	}
	if v, ok := tr.globals[id]; ok {
		return v
	}
	return tr.constOf(id)
}

func (tr *Translator) translateInstr(in spirvir.Instruction) {
	b := tr.builder
	var result *ir.Value

	switch in.Op {
	case spirvir.OpLoad:
		result = b.Load(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), in.ResultID)
	case spirvir.OpStore:
		b.Store(tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
		return
	case spirvir.OpVariable:
		result = b.Alloca(tr.typeOf(in.ResultType).(ir.PointerType).Elem, in.ResultID)
	case spirvir.OpAccessChain, spirvir.OpInBoundsAccessChain:
		result = tr.translateAccessChain(in)

	case spirvir.OpIAdd, spirvir.OpFAdd:
		result = b.Add(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpISub, spirvir.OpFSub:
		result = b.Sub(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpIMul, spirvir.OpFMul:
		result = b.Mul(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpUDiv:
		result = b.UDiv(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpSDiv:
		result = b.SDiv(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpFDiv:
		result = b.FDiv(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpUMod:
		result = b.URem(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpSMod:
		result = b.SRem(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpFMod:
		result = b.FRem(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpFNegate:
		t := tr.typeOf(in.ResultType)
		result = b.Sub(t, ir.ConstFloat(t.(ir.FloatType), 0), tr.valueOf(in.Operands[0].ID), in.ResultID)
	case spirvir.OpSNegate:
		t := tr.typeOf(in.ResultType)
		result = b.Sub(t, ir.ConstInt(t.(ir.IntType), 0), tr.valueOf(in.Operands[0].ID), in.ResultID)
	case spirvir.OpBitwiseAnd, spirvir.OpLogicalAnd:
		result = b.And(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpBitwiseOr, spirvir.OpLogicalOr:
		result = b.Or(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpBitwiseXor:
		result = b.Xor(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpShiftLeftLogical:
		result = b.Shl(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpShiftRightLogical:
		result = b.LShr(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpShiftRightArithmetic:
		result = b.AShr(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpNot:
		t := tr.typeOf(in.ResultType)
		allOnes := ir.ConstInt(t.(ir.IntType), -1)
		result = b.Xor(t, tr.valueOf(in.Operands[0].ID), allOnes, in.ResultID)
	case spirvir.OpLogicalNot:
		t := tr.typeOf(in.ResultType)
		result = b.Xor(t, tr.valueOf(in.Operands[0].ID), ir.ConstInt(t.(ir.IntType), 1), in.ResultID)

	case spirvir.OpIEqual, spirvir.OpLogicalEqual:
		result = b.ICmp(ir.PredEQ, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpINotEqual, spirvir.OpLogicalNotEqual:
		result = b.ICmp(ir.PredNE, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpULessThan:
		result = b.ICmp(ir.PredULT, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpULessThanEqual:
		result = b.ICmp(ir.PredULE, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpUGreaterThan:
		result = b.ICmp(ir.PredUGT, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpUGreaterThanEqual:
		result = b.ICmp(ir.PredUGE, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpSLessThan:
		result = b.ICmp(ir.PredSLT, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpSLessThanEqual:
		result = b.ICmp(ir.PredSLE, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpSGreaterThan:
		result = b.ICmp(ir.PredSGT, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpSGreaterThanEqual:
		result = b.ICmp(ir.PredSGE, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpFOrdEqual:
		result = b.FCmp(ir.PredEQ, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpFOrdLessThan:
		result = b.FCmp(ir.PredOLT, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpFOrdLessThanEqual:
		result = b.FCmp(ir.PredOLE, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpFOrdGreaterThan:
		result = b.FCmp(ir.PredOGT, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpFOrdGreaterThanEqual:
		result = b.FCmp(ir.PredOGE, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpFUnordLessThan:
		result = b.FCmp(ir.PredUnordLT, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpFUnordLessThanEqual:
		result = b.FCmp(ir.PredUnordLE, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpFUnordGreaterThan:
		result = b.FCmp(ir.PredUnordGT, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpFUnordGreaterThanEqual:
		result = b.FCmp(ir.PredUnordGE, tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)

	case spirvir.OpConvertFToU:
		result = b.FPToUI(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), in.ResultID)
	case spirvir.OpConvertFToS:
		result = b.FPToSI(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), in.ResultID)
	case spirvir.OpConvertSToF:
		result = b.SIToFP(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), in.ResultID)
	case spirvir.OpConvertUToF:
		result = b.UIToFP(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), in.ResultID)
	case spirvir.OpFConvert:
		t := tr.typeOf(in.ResultType).(ir.FloatType)
		src := tr.valueOf(in.Operands[0].ID)
		if sf, ok := src.Kind.(ir.FloatType); ok && sf.Bits < t.Bits {
			result = b.FPExt(t, src, in.ResultID)
		} else {
			result = b.FPTrunc(t, src, in.ResultID)
		}
	case spirvir.OpUConvert, spirvir.OpSConvert:
		t := tr.typeOf(in.ResultType).(ir.IntType)
		src := tr.valueOf(in.Operands[0].ID)
		srcT := src.Kind.(ir.IntType)
		switch {
		case t.Bits > srcT.Bits && in.Op == spirvir.OpUConvert:
			result = b.ZExt(t, src, in.ResultID)
		case t.Bits > srcT.Bits:
			result = b.SExt(t, src, in.ResultID)
		case t.Bits < srcT.Bits:
			result = b.Trunc(t, src, in.ResultID)
		default:
			result = src
		}
	case spirvir.OpBitcast:
		result = b.Bitcast(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), in.ResultID)

	case spirvir.OpCompositeExtract:
		indices := literalInts(in.Operands[1:])
		result = b.ExtractValue(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), indices, in.ResultID)
	case spirvir.OpCompositeInsert:
		indices := literalInts(in.Operands[2:])
		result = b.InsertValue(tr.valueOf(in.Operands[1].ID), tr.valueOf(in.Operands[0].ID), indices, in.ResultID)
	case spirvir.OpCompositeConstruct:
		result = tr.translateCompositeConstruct(in)
	case spirvir.OpVectorShuffle:
		mask := literalInts(in.Operands[2:])
		result = b.ShuffleVector(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), mask, in.ResultID)
	case spirvir.OpVectorExtractDynamic:
		result = b.ExtractElement(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), in.ResultID)
	case spirvir.OpVectorInsertDynamic:
		result = b.InsertElement(tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[1].ID), tr.valueOf(in.Operands[2].ID), in.ResultID)

	case spirvir.OpSelect:
		result = tr.translateSelect(in)
	case spirvir.OpDot:
		result = tr.translateDot(in)
	case spirvir.OpMatrixTimesVector:
		result = tr.translateMatrixTimesVector(in)
	case spirvir.OpMatrixTimesMatrix:
		result = tr.translateMatrixTimesMatrix(in)
	case spirvir.OpVectorTimesMatrix:
		result = tr.translateVectorTimesMatrix(in)
	case spirvir.OpExtInst:
		result = tr.translateExtInst(in)
	case spirvir.OpImageSampleImplicitLod, spirvir.OpImageSampleExplicitLod, spirvir.OpImageFetch, spirvir.OpImageRead:
		result = tr.translateImageOp(in)
	case spirvir.OpImageWrite:
		tr.translateImageWrite(in)
		return
	case spirvir.OpSampledImage, spirvir.OpImage:
		result = tr.valueOf(in.Operands[0].ID)

	case spirvir.OpFunctionCall:
		result = tr.translateCall(in)

	case spirvir.OpAtomicLoad:
		result = b.AtomicLoad(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), in.ResultID)
	case spirvir.OpAtomicStore:
		b.AtomicStore(tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[len(in.Operands)-1].ID), in.ResultID)
		return
	case spirvir.OpAtomicIAdd:
		result = b.AtomicRMW(ir.AtomicAdd, tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[len(in.Operands)-1].ID), in.ResultID)
	case spirvir.OpAtomicISub:
		result = b.AtomicRMW(ir.AtomicSub, tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[len(in.Operands)-1].ID), in.ResultID)
	case spirvir.OpAtomicAnd:
		result = b.AtomicRMW(ir.AtomicAnd, tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[len(in.Operands)-1].ID), in.ResultID)
	case spirvir.OpAtomicOr:
		result = b.AtomicRMW(ir.AtomicOr, tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[len(in.Operands)-1].ID), in.ResultID)
	case spirvir.OpAtomicXor:
		result = b.AtomicRMW(ir.AtomicXor, tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[len(in.Operands)-1].ID), in.ResultID)
	case spirvir.OpAtomicExchange:
		result = b.AtomicRMW(ir.AtomicExchange, tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[len(in.Operands)-1].ID), in.ResultID)
	case spirvir.OpAtomicCompareExchange:
		result = b.AtomicCmpXchg(tr.typeOf(in.ResultType), tr.valueOf(in.Operands[0].ID), tr.valueOf(in.Operands[len(in.Operands)-2].ID), tr.valueOf(in.Operands[len(in.Operands)-1].ID), in.ResultID)

	case spirvir.OpBranch:
		b.Br(tr.blocks[in.Operands[0].ID], in.ResultID)
		return
	case spirvir.OpBranchConditional:
		b.CondBr(tr.valueOf(in.Operands[0].ID), tr.blocks[in.Operands[1].ID], tr.blocks[in.Operands[2].ID], in.ResultID)
		return
	case spirvir.OpSwitch:
		tr.translateSwitch(in)
		return
	case spirvir.OpReturn:
		b.RetVoid(in.ResultID)
		return
	case spirvir.OpReturnValue:
		b.Ret(tr.valueOf(in.Operands[0].ID), in.ResultID)
		return
	case spirvir.OpKill, spirvir.OpTerminateInvocation, spirvir.OpUnreachable:
		b.Unreachable(in.ResultID)
		return
	case spirvir.OpLoopMerge, spirvir.OpSelectionMerge, spirvir.OpNop, spirvir.OpUndef:
		return

	default:
		panic(fmt.Sprintf("translate: unsupported instruction opcode %v", in.Op))
	}

	if in.ResultID != 0 {
		tr.values[in.ResultID] = result
	}
}

func literalInts(ops []spirvir.Operand) []int {
	out := make([]int, len(ops))
	for i, o := range ops {
		out[i] = int(o.Literal)
	}
	return out
}

// translateAccessChain walks SPIR-V member/array/vector indices,
// remapping each struct index through StructType.Member so that
// translator-inserted padding fields never shift the caller's index
// space.
func (tr *Translator) translateAccessChain(in spirvir.Instruction) *ir.Value {
	base := tr.valueOf(in.Operands[0].ID)
	resultType := tr.typeOf(in.ResultType)
	cur := base.Kind.(ir.PointerType).Elem

	indices := make([]int, 0, len(in.Operands)-1)
	for _, op := range in.Operands[1:] {
		idx := tr.constIndex(op.ID)
		switch t := cur.(type) {
		case ir.StructType:
			fieldIdx, field := t.Member(idx)
			indices = append(indices, fieldIdx)
			cur = field.Type
		case ir.ArrayType:
			indices = append(indices, idx)
			cur = t.Elem
		case ir.VectorType:
			indices = append(indices, idx)
			cur = t.Elem
		default:
			panic("translate: access chain index into non-aggregate type")
		}
	}

	return tr.builder.GEP(resultType.(ir.PointerType).Elem, base, indices, in.ResultID)
}

// constIndex resolves an access-chain index operand to its compile-
// time integer value; SPIR-V allows these to be either immediates
// folded directly into the instruction, or references to a constant
// instruction.
func (tr *Translator) constIndex(id uint32) int {
	v := tr.constOf(id)
	return int(v.ConstInt)
}

func (tr *Translator) translateCompositeConstruct(in spirvir.Instruction) *ir.Value {
	t := tr.typeOf(in.ResultType)
	elems := make([]*ir.Value, len(in.Operands))
	for i, op := range in.Operands {
		elems[i] = tr.valueOf(op.ID)
	}
	if vt, ok := t.(ir.VectorType); ok {
		acc := ir.Undef(vt)
		lane := 0
		for _, e := range elems {
			if srcVec, ok := e.Kind.(ir.VectorType); ok {
				for j := 0; j < srcVec.Count; j++ {
					idx := ir.ConstInt(ir.IntType{Bits: 32}, int64(j))
					scalar := tr.builder.ExtractElement(srcVec.Elem, e, idx, 0)
					acc = tr.builder.InsertElement(acc, scalar, ir.ConstInt(ir.IntType{Bits: 32}, int64(lane)), 0)
					lane++
				}
				continue
			}
			acc = tr.builder.InsertElement(acc, e, ir.ConstInt(ir.IntType{Bits: 32}, int64(lane)), 0)
			lane++
		}
		acc.Instr.SpirvID = in.ResultID
		return acc
	}
	return ir.ConstComposite(t, elems)
}

func (tr *Translator) translateSelect(in spirvir.Instruction) *ir.Value {
	cond := tr.valueOf(in.Operands[0].ID)
	a := tr.valueOf(in.Operands[1].ID)
	c := tr.valueOf(in.Operands[2].ID)
	// Lowered as a runtime select rather than a branch: both arms
	// are already available values, matching SPIR-V's OpSelect
	// semantics (no short-circuiting).
	t := tr.typeOf(in.ResultType)
	return tr.builder.CallIndirect(t, mangledIntrinsic("Select", t), []*ir.Value{cond, a, c}, in.ResultID)
}

func (tr *Translator) translateDot(in spirvir.Instruction) *ir.Value {
	t := tr.typeOf(in.ResultType)
	a := tr.valueOf(in.Operands[0].ID)
	c := tr.valueOf(in.Operands[1].ID)
	return tr.builder.CallIndirect(t, mangledIntrinsic("Dot", a.Kind), []*ir.Value{a, c}, in.ResultID)
}

// translateMatrixTimesVector lowers OpMatrixTimesVector (column-major
// matrix times column vector) to a runtime helper call keyed by the
// matrix and vector operand types, per spec.md §4.4.
func (tr *Translator) translateMatrixTimesVector(in spirvir.Instruction) *ir.Value {
	t := tr.typeOf(in.ResultType)
	m := tr.valueOf(in.Operands[0].ID)
	v := tr.valueOf(in.Operands[1].ID)
	return tr.builder.CallIndirect(t, mangledIntrinsic("MatrixTimesVector", m.Kind, v.Kind), []*ir.Value{m, v}, in.ResultID)
}

// translateMatrixTimesMatrix lowers OpMatrixTimesMatrix (column-major
// matrix product) to a runtime helper call keyed by both matrix
// operand types, per spec.md §4.4.
func (tr *Translator) translateMatrixTimesMatrix(in spirvir.Instruction) *ir.Value {
	t := tr.typeOf(in.ResultType)
	a := tr.valueOf(in.Operands[0].ID)
	c := tr.valueOf(in.Operands[1].ID)
	return tr.builder.CallIndirect(t, mangledIntrinsic("MatrixTimesMatrix", a.Kind, c.Kind), []*ir.Value{a, c}, in.ResultID)
}

// translateVectorTimesMatrix lowers OpVectorTimesMatrix (row vector
// times matrix) to a runtime helper call keyed by the vector and
// matrix operand types, per spec.md §4.4.
func (tr *Translator) translateVectorTimesMatrix(in spirvir.Instruction) *ir.Value {
	t := tr.typeOf(in.ResultType)
	v := tr.valueOf(in.Operands[0].ID)
	m := tr.valueOf(in.Operands[1].ID)
	return tr.builder.CallIndirect(t, mangledIntrinsic("VectorTimesMatrix", v.Kind, m.Kind), []*ir.Value{v, m}, in.ResultID)
}

func (tr *Translator) translateCall(in spirvir.Instruction) *ir.Value {
	fnID := in.Operands[0].ID
	callee := tr.irMod.FuncByName(fmt.Sprintf("f%d", fnID))
	args := make([]*ir.Value, len(in.Operands)-1)
	for i, op := range in.Operands[1:] {
		args[i] = tr.valueOf(op.ID)
	}
	return tr.builder.Call(tr.typeOf(in.ResultType), callee, args, in.ResultID)
}

func (tr *Translator) translateSwitch(in spirvir.Instruction) {
	val := tr.valueOf(in.Operands[0].ID)
	def := tr.blocks[in.Operands[1].ID]
	var cases []int64
	var targets []*ir.Block
	for i := 2; i+1 < len(in.Operands); i += 2 {
		cases = append(cases, in.Operands[i].Literal)
		targets = append(targets, tr.blocks[in.Operands[i+1].ID])
	}
	tr.builder.Switch(val, def, cases, targets, in.ResultID)
}
