// Copyright 2024 The vkcpu Authors. All rights reserved.

package jit

import (
	"fmt"
	"math"

	"github.com/vkcpu/vkcpu/ir"
)

// Value is a boxed interpreter value. Scalars are int64 (integers and
// 1-bit booleans) or float64 (floats); aggregates (vector/array/
// struct) are []Value; pointers are *Ref; VoidValue marks the result
// of a void-typed instruction/function.
type Value any

// VoidValue is the Value returned by void instructions and calls.
type VoidValue struct{}

// Ref is a first-class reference cell: the interpreter's stand-in for
// a memory address, implemented as a closure pair rather than a flat
// byte buffer. GEP composes new Refs by closing over their parent's
// Get/Set, the same "closures over a register file" substitution
// used in package codec for per-format kernels.
type Ref struct {
	Get func() Value
	Set func(Value)
}

// newCell returns a Ref over a freestanding variable seeded with
// init, used for Alloca and global storage.
func newCell(init Value) *Ref {
	v := init
	r := &Ref{}
	r.Get = func() Value { return v }
	r.Set = func(nv Value) { v = nv }
	return r
}

// fieldRef composes a Ref into one element/field of an aggregate Ref.
func fieldRef(base *Ref, idx int) *Ref {
	return &Ref{
		Get: func() Value {
			agg := base.Get().([]Value)
			return agg[idx]
		},
		Set: func(nv Value) {
			agg := base.Get().([]Value)
			cp := append([]Value(nil), agg...)
			cp[idx] = nv
			base.Set(cp)
		},
	}
}

// zeroValue returns the default-initialized Value for t, used by
// Alloca, module globals and parameters a call does not supply.
func zeroValue(t ir.Type) Value {
	switch ty := t.(type) {
	case ir.IntType:
		return int64(0)
	case ir.FloatType:
		return float64(0)
	case ir.VectorType:
		v := make([]Value, ty.Count)
		for i := range v {
			v[i] = zeroValue(ty.Elem)
		}
		return v
	case ir.ArrayType:
		v := make([]Value, ty.Count)
		for i := range v {
			v[i] = zeroValue(ty.Elem)
		}
		return v
	case ir.StructType:
		v := make([]Value, len(ty.Fields))
		for i, f := range ty.Fields {
			v[i] = zeroValue(f.Type)
		}
		return v
	case ir.PointerType:
		return (*Ref)(nil)
	default:
		return VoidValue{}
	}
}

// interp is one function activation.
type interp struct {
	mod  *Module
	fn   *ir.Func
	regs map[*ir.Value]Value
	prev *ir.Block
}

func newInterp(m *Module, fn *ir.Func, args []Value) *interp {
	it := &interp{mod: m, fn: fn, regs: make(map[*ir.Value]Value)}
	for i, p := range fn.Params {
		if i < len(args) {
			it.regs[p] = args[i]
		} else {
			it.regs[p] = zeroValue(p.Kind)
		}
	}
	return it
}

func (it *interp) run() Value {
	blk := it.fn.Blocks[0]
	for {
		next, ret, returned := it.execBlock(blk)
		if returned {
			return ret
		}
		it.prev = blk
		blk = next
	}
}

// execBlock runs every instruction in blk. If the block terminates
// with a return, returned is true and ret holds the value (VoidValue
// for RetVoid). Otherwise next names the block control transfers to.
func (it *interp) execBlock(blk *ir.Block) (next *ir.Block, ret Value, returned bool) {
	for _, in := range blk.Instrs {
		switch in.Op {
		case ir.OpRet:
			return nil, it.val(in.Args[0]), true
		case ir.OpRetVoid:
			return nil, VoidValue{}, true
		case ir.OpUnreachable:
			panic("jit: reached an Unreachable instruction")
		case ir.OpBr:
			return in.Targets[0], nil, false
		case ir.OpCondBr:
			cond := it.val(in.Args[0]).(int64)
			if cond != 0 {
				return in.Targets[0], nil, false
			}
			return in.Targets[1], nil, false
		case ir.OpSwitch:
			sel := it.val(in.Args[0]).(int64)
			for i, c := range in.Cases {
				if c == sel {
					return in.Targets[i+1], nil, false
				}
			}
			return in.Targets[0], nil, false
		case ir.OpPhi:
			for i, pred := range in.Targets {
				if pred == it.prev {
					it.setVal(in, it.val(in.Args[i]))
					break
				}
			}
		default:
			it.execInstr(in)
		}
	}
	panic("jit: block has no terminator")
}

func (it *interp) val(v *ir.Value) Value {
	if v == nil {
		return VoidValue{}
	}
	if reg, ok := it.regs[v]; ok {
		return reg
	}
	switch {
	case v.Composite != nil:
		vals := make([]Value, len(v.Composite))
		for i, e := range v.Composite {
			vals[i] = it.val(e)
		}
		return vals
	case v.Global != "":
		pt := v.Kind.(ir.PointerType)
		ref := it.mod.globalRef(v.Global, pt.Elem)
		it.regs[v] = ref
		return ref
	default:
		if _, ok := v.Kind.(ir.FloatType); ok {
			return v.ConstFloat
		}
		return v.ConstInt
	}
}

func (it *interp) setVal(in *ir.Instr, v Value) { it.regs[in.Value()] = v }

func (it *interp) execInstr(in *ir.Instr) {
	switch in.Op {
	case ir.OpAdd:
		it.setVal(in, arith(in.Type, it.val(in.Args[0]), it.val(in.Args[1]), func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }))
	case ir.OpSub:
		it.setVal(in, arith(in.Type, it.val(in.Args[0]), it.val(in.Args[1]), func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }))
	case ir.OpMul:
		it.setVal(in, arith(in.Type, it.val(in.Args[0]), it.val(in.Args[1]), func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }))
	case ir.OpUDiv:
		it.setVal(in, int64(uint64(it.val(in.Args[0]).(int64))/uint64(it.val(in.Args[1]).(int64))))
	case ir.OpSDiv:
		it.setVal(in, it.val(in.Args[0]).(int64)/it.val(in.Args[1]).(int64))
	case ir.OpFDiv:
		it.setVal(in, it.val(in.Args[0]).(float64)/it.val(in.Args[1]).(float64))
	case ir.OpURem:
		it.setVal(in, int64(uint64(it.val(in.Args[0]).(int64))%uint64(it.val(in.Args[1]).(int64))))
	case ir.OpSRem:
		it.setVal(in, it.val(in.Args[0]).(int64)%it.val(in.Args[1]).(int64))
	case ir.OpFRem:
		it.setVal(in, math.Mod(it.val(in.Args[0]).(float64), it.val(in.Args[1]).(float64)))
	case ir.OpAnd:
		it.setVal(in, it.val(in.Args[0]).(int64)&it.val(in.Args[1]).(int64))
	case ir.OpOr:
		it.setVal(in, it.val(in.Args[0]).(int64)|it.val(in.Args[1]).(int64))
	case ir.OpXor:
		it.setVal(in, it.val(in.Args[0]).(int64)^it.val(in.Args[1]).(int64))
	case ir.OpShl:
		it.setVal(in, it.val(in.Args[0]).(int64)<<uint(it.val(in.Args[1]).(int64)))
	case ir.OpLShr:
		bits := in.Type.(ir.IntType).Bits
		mask := int64(-1)
		if bits < 64 {
			mask = (int64(1) << uint(bits)) - 1
		}
		it.setVal(in, int64(uint64(it.val(in.Args[0]).(int64)&mask)>>uint(it.val(in.Args[1]).(int64))))
	case ir.OpAShr:
		it.setVal(in, it.val(in.Args[0]).(int64)>>uint(it.val(in.Args[1]).(int64)))

	case ir.OpICmp:
		it.setVal(in, boolInt(evalICmp(in.Pred, it.val(in.Args[0]).(int64), it.val(in.Args[1]).(int64))))
	case ir.OpFCmp:
		it.setVal(in, boolInt(evalFCmp(in.Pred, it.val(in.Args[0]).(float64), it.val(in.Args[1]).(float64))))

	case ir.OpBitcast:
		it.setVal(in, it.val(in.Args[0]))
	case ir.OpSIToFP:
		it.setVal(in, float64(it.val(in.Args[0]).(int64)))
	case ir.OpUIToFP:
		it.setVal(in, float64(uint64(it.val(in.Args[0]).(int64))))
	case ir.OpFPToSI:
		it.setVal(in, int64(it.val(in.Args[0]).(float64)))
	case ir.OpFPToUI:
		it.setVal(in, int64(uint64(it.val(in.Args[0]).(float64))))
	case ir.OpFPExt, ir.OpFPTrunc:
		it.setVal(in, it.val(in.Args[0]))
	case ir.OpZExt:
		it.setVal(in, it.val(in.Args[0]))
	case ir.OpSExt:
		it.setVal(in, it.val(in.Args[0]))
	case ir.OpTrunc:
		bits := in.Type.(ir.IntType).Bits
		mask := int64(-1)
		if bits < 64 {
			mask = (int64(1) << uint(bits)) - 1
		}
		it.setVal(in, it.val(in.Args[0]).(int64)&mask)

	case ir.OpAlloca:
		it.setVal(in, newCell(zeroValue(in.Type.(ir.PointerType).Elem)))
	case ir.OpLoad:
		it.setVal(in, it.val(in.Args[0]).(*Ref).Get())
	case ir.OpStore:
		it.val(in.Args[0]).(*Ref).Set(it.val(in.Args[1]))
	case ir.OpGEP:
		ref := it.val(in.Args[0]).(*Ref)
		for _, idx := range in.Indices {
			ref = fieldRef(ref, idx)
		}
		it.setVal(in, ref)

	case ir.OpExtractElement:
		agg := it.val(in.Args[0]).([]Value)
		idx := int(it.val(in.Args[1]).(int64))
		it.setVal(in, agg[idx])
	case ir.OpExtractValue:
		cur := it.val(in.Args[0])
		for _, idx := range in.Indices {
			cur = cur.([]Value)[idx]
		}
		it.setVal(in, cur)
	case ir.OpInsertElement:
		agg := it.val(in.Args[0]).([]Value)
		cp := append([]Value(nil), agg...)
		idx := int(it.val(in.Args[2]).(int64))
		cp[idx] = it.val(in.Args[1])
		it.setVal(in, cp)
	case ir.OpInsertValue:
		it.setVal(in, insertNested(it.val(in.Args[0]), it.val(in.Args[1]), in.Indices))
	case ir.OpShuffleVector:
		x := it.val(in.Args[0]).([]Value)
		y := it.val(in.Args[1]).([]Value)
		cat := append(append([]Value(nil), x...), y...)
		out := make([]Value, len(in.Mask))
		for i, m := range in.Mask {
			out[i] = cat[m]
		}
		it.setVal(in, out)
	case ir.OpSplat:
		count := in.Type.(ir.VectorType).Count
		out := make([]Value, count)
		for i := range out {
			out[i] = it.val(in.Args[0])
		}
		it.setVal(in, out)

	case ir.OpCall:
		it.setVal(in, it.execCall(in))

	case ir.OpAtomicLoad:
		it.setVal(in, it.val(in.Args[0]).(*Ref).Get())
	case ir.OpAtomicStore:
		it.val(in.Args[0]).(*Ref).Set(it.val(in.Args[1]))
	case ir.OpAtomicRMW:
		ref := it.val(in.Args[0]).(*Ref)
		old := ref.Get()
		ref.Set(applyAtomic(in.AtomicOp, old, it.val(in.Args[1])))
		it.setVal(in, old)
	case ir.OpAtomicCmpXchg:
		ref := it.val(in.Args[0]).(*Ref)
		old := ref.Get()
		if old.(int64) == it.val(in.Args[1]).(int64) {
			ref.Set(it.val(in.Args[2]))
		}
		it.setVal(in, old)

	default:
		panic(fmt.Sprintf("jit: interpreter does not implement opcode %v", in.Op))
	}
}

// insertNested returns a copy of agg with the field at the given
// index path replaced by val, copying only the aggregates on the
// path (structural sharing elsewhere).
func insertNested(agg, val Value, indices []int) Value {
	if len(indices) == 0 {
		return val
	}
	cp := append([]Value(nil), agg.([]Value)...)
	cp[indices[0]] = insertNested(cp[indices[0]], val, indices[1:])
	return cp
}

func (it *interp) execCall(in *ir.Instr) Value {
	args := make([]Value, len(in.Args))
	for i, a := range in.Args {
		args[i] = it.val(a)
	}
	if in.Callee != nil {
		return newInterp(it.mod, in.Callee, args).run()
	}
	name := in.CalleePtr.Global
	fn, ok := it.mod.resolve(name)
	if !ok {
		panic(fmt.Sprintf("jit: unresolved external symbol %s", name))
	}
	return fn(args)
}

func arith(t ir.Type, a, b Value, iop func(int64, int64) int64, fop func(float64, float64) float64) Value {
	if _, ok := t.(ir.FloatType); ok {
		return fop(a.(float64), b.(float64))
	}
	if vt, ok := t.(ir.VectorType); ok {
		av, bv := a.([]Value), b.([]Value)
		out := make([]Value, vt.Count)
		for i := range out {
			out[i] = arith(vt.Elem, av[i], bv[i], iop, fop)
		}
		return out
	}
	return iop(a.(int64), b.(int64))
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func evalICmp(pred ir.Predicate, a, b int64) bool {
	switch pred {
	case ir.PredEQ:
		return a == b
	case ir.PredNE:
		return a != b
	case ir.PredULT:
		return uint64(a) < uint64(b)
	case ir.PredULE:
		return uint64(a) <= uint64(b)
	case ir.PredUGT:
		return uint64(a) > uint64(b)
	case ir.PredUGE:
		return uint64(a) >= uint64(b)
	case ir.PredSLT:
		return a < b
	case ir.PredSLE:
		return a <= b
	case ir.PredSGT:
		return a > b
	case ir.PredSGE:
		return a >= b
	default:
		panic("jit: unsupported integer predicate")
	}
}

func evalFCmp(pred ir.Predicate, a, b float64) bool {
	nan := math.IsNaN(a) || math.IsNaN(b)
	switch pred {
	case ir.PredEQ:
		return !nan && a == b
	case ir.PredOLT:
		return !nan && a < b
	case ir.PredOLE:
		return !nan && a <= b
	case ir.PredOGT:
		return !nan && a > b
	case ir.PredOGE:
		return !nan && a >= b
	case ir.PredUnordLT:
		return nan || a < b
	case ir.PredUnordLE:
		return nan || a <= b
	case ir.PredUnordGT:
		return nan || a > b
	case ir.PredUnordGE:
		return nan || a >= b
	default:
		panic("jit: unsupported float predicate")
	}
}

func applyAtomic(op ir.AtomicOp, old, delta Value) Value {
	a, b := old.(int64), delta.(int64)
	switch op {
	case ir.AtomicAdd:
		return a + b
	case ir.AtomicSub:
		return a - b
	case ir.AtomicAnd:
		return a & b
	case ir.AtomicOr:
		return a | b
	case ir.AtomicXor:
		return a ^ b
	case ir.AtomicExchange:
		return b
	case ir.AtomicMin:
		if a < b {
			return a
		}
		return b
	case ir.AtomicMax:
		if a > b {
			return a
		}
		return b
	case ir.AtomicUMin:
		if uint64(a) < uint64(b) {
			return a
		}
		return b
	case ir.AtomicUMax:
		if uint64(a) > uint64(b) {
			return a
		}
		return b
	default:
		panic("jit: unsupported atomic op")
	}
}
