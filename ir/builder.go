// Copyright 2024 The vkcpu Authors. All rights reserved.

package ir

// Opcode identifies the operation an Instr performs. The set is the
// canonical subset spec.md §4.3 requires the IR Builder to expose:
// binary arithmetic, comparison, bitcast, memory access, GEP, phi,
// branch, call, insert/extract-element/value, vector-splat and
// atomic operations.
type Opcode int

const (
	OpAdd Opcode = iota
	OpSub
	OpMul
	OpUDiv
	OpSDiv
	OpFDiv
	OpURem
	OpSRem
	OpFRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr
	OpAShr

	OpICmp
	OpFCmp

	OpBitcast
	OpSIToFP
	OpUIToFP
	OpFPToSI
	OpFPToUI
	OpFPExt
	OpFPTrunc
	OpZExt
	OpSExt
	OpTrunc

	OpLoad
	OpStore
	OpAlloca
	OpGEP

	OpExtractElement
	OpInsertElement
	OpExtractValue
	OpInsertValue
	OpShuffleVector
	OpSplat

	OpPhi
	OpBr
	OpCondBr
	OpSwitch
	OpRet
	OpRetVoid
	OpUnreachable

	OpCall

	OpAtomicLoad
	OpAtomicStore
	OpAtomicRMW
	OpAtomicCmpXchg
)

// Predicate is the comparison predicate for OpICmp/OpFCmp.
type Predicate int

const (
	PredEQ Predicate = iota
	PredNE
	PredULT
	PredULE
	PredUGT
	PredUGE
	PredSLT
	PredSLE
	PredSGT
	PredSGE
	// Unordered-or-<op> float predicates: SPIR-V's FUnord* family
	// compares true when either operand is NaN.
	PredOLT
	PredOLE
	PredOGT
	PredOGE
	PredUnordLT
	PredUnordLE
	PredUnordGT
	PredUnordGE
)

// AtomicOp is the read-modify-write operation for OpAtomicRMW.
type AtomicOp int

const (
	AtomicAdd AtomicOp = iota
	AtomicSub
	AtomicAnd
	AtomicOr
	AtomicXor
	AtomicExchange
	AtomicMin
	AtomicMax
	AtomicUMin
	AtomicUMax
)

// Instr is one IR instruction: an operation, its result type (absent
// for void-typed terminators/stores), its operand values and any
// op-specific extra data.
type Instr struct {
	Op      Opcode
	Type    Type
	Args    []*Value
	SpirvID uint32

	Pred      Predicate
	AtomicOp  AtomicOp
	Indices   []int      // GEP / ExtractValue / InsertValue indices
	Targets   []*Block   // Br/CondBr/Switch/Phi targets
	Cases     []int64    // OpSwitch case values, parallel to Targets[1:]
	Callee    *Func       // OpCall direct callee, nil for indirect
	CalleePtr *Value      // OpCall indirect target, nil for direct
	Mask      []int       // OpShuffleVector element mask

	val *Value
}

// Value returns the SSA value this instruction defines. Void
// instructions (store, branches, ret) still have one so that callers
// can uniformly thread "last instruction" references, but it carries
// VoidType and must not be used as an operand.
func (in *Instr) Value() *Value { return in.val }

// Builder emits instructions into a single block at a time, mirroring
// a native IR's "builder positioned at a block" idiom.
type Builder struct {
	blk *Block
}

// NewBuilder returns a Builder positioned at the end of blk.
func NewBuilder(blk *Block) *Builder { return &Builder{blk: blk} }

// SetBlock repositions the builder to the end of blk.
func (b *Builder) SetBlock(blk *Block) { b.blk = blk }

// Block returns the block the builder is currently positioned at.
func (b *Builder) Block() *Block { return b.blk }

func (b *Builder) emit(in *Instr) *Value {
	if in.Type == nil {
		in.Type = VoidType{}
	}
	in.val = &Value{Kind: in.Type, kind: ValInstr, Instr: in, SpirvID: in.SpirvID}
	b.blk.Instrs = append(b.blk.Instrs, in)
	return in.val
}

// bin emits a canonical two-operand instruction of the given opcode
// and result type.
func (b *Builder) bin(op Opcode, t Type, x, y *Value, spirvID uint32) *Value {
	return b.emit(&Instr{Op: op, Type: t, Args: []*Value{x, y}, SpirvID: spirvID})
}

func (b *Builder) Add(t Type, x, y *Value, id uint32) *Value  { return b.bin(OpAdd, t, x, y, id) }
func (b *Builder) Sub(t Type, x, y *Value, id uint32) *Value  { return b.bin(OpSub, t, x, y, id) }
func (b *Builder) Mul(t Type, x, y *Value, id uint32) *Value  { return b.bin(OpMul, t, x, y, id) }
func (b *Builder) UDiv(t Type, x, y *Value, id uint32) *Value { return b.bin(OpUDiv, t, x, y, id) }
func (b *Builder) SDiv(t Type, x, y *Value, id uint32) *Value { return b.bin(OpSDiv, t, x, y, id) }
func (b *Builder) FDiv(t Type, x, y *Value, id uint32) *Value { return b.bin(OpFDiv, t, x, y, id) }
func (b *Builder) URem(t Type, x, y *Value, id uint32) *Value { return b.bin(OpURem, t, x, y, id) }
func (b *Builder) SRem(t Type, x, y *Value, id uint32) *Value { return b.bin(OpSRem, t, x, y, id) }
func (b *Builder) FRem(t Type, x, y *Value, id uint32) *Value { return b.bin(OpFRem, t, x, y, id) }
func (b *Builder) And(t Type, x, y *Value, id uint32) *Value  { return b.bin(OpAnd, t, x, y, id) }
func (b *Builder) Or(t Type, x, y *Value, id uint32) *Value   { return b.bin(OpOr, t, x, y, id) }
func (b *Builder) Xor(t Type, x, y *Value, id uint32) *Value  { return b.bin(OpXor, t, x, y, id) }
func (b *Builder) Shl(t Type, x, y *Value, id uint32) *Value  { return b.bin(OpShl, t, x, y, id) }
func (b *Builder) LShr(t Type, x, y *Value, id uint32) *Value { return b.bin(OpLShr, t, x, y, id) }
func (b *Builder) AShr(t Type, x, y *Value, id uint32) *Value { return b.bin(OpAShr, t, x, y, id) }

// ICmp/FCmp always produce a 1-bit boolean.
func (b *Builder) ICmp(pred Predicate, x, y *Value, id uint32) *Value {
	return b.emit(&Instr{Op: OpICmp, Type: IntType{1}, Args: []*Value{x, y}, Pred: pred, SpirvID: id})
}

func (b *Builder) FCmp(pred Predicate, x, y *Value, id uint32) *Value {
	return b.emit(&Instr{Op: OpFCmp, Type: IntType{1}, Args: []*Value{x, y}, Pred: pred, SpirvID: id})
}

// cast emits a one-operand conversion instruction.
func (b *Builder) cast(op Opcode, t Type, x *Value, id uint32) *Value {
	return b.emit(&Instr{Op: op, Type: t, Args: []*Value{x}, SpirvID: id})
}

func (b *Builder) Bitcast(t Type, x *Value, id uint32) *Value { return b.cast(OpBitcast, t, x, id) }
func (b *Builder) SIToFP(t Type, x *Value, id uint32) *Value  { return b.cast(OpSIToFP, t, x, id) }
func (b *Builder) UIToFP(t Type, x *Value, id uint32) *Value  { return b.cast(OpUIToFP, t, x, id) }
func (b *Builder) FPToSI(t Type, x *Value, id uint32) *Value  { return b.cast(OpFPToSI, t, x, id) }
func (b *Builder) FPToUI(t Type, x *Value, id uint32) *Value  { return b.cast(OpFPToUI, t, x, id) }
func (b *Builder) FPExt(t Type, x *Value, id uint32) *Value   { return b.cast(OpFPExt, t, x, id) }
func (b *Builder) FPTrunc(t Type, x *Value, id uint32) *Value { return b.cast(OpFPTrunc, t, x, id) }
func (b *Builder) ZExt(t Type, x *Value, id uint32) *Value    { return b.cast(OpZExt, t, x, id) }
func (b *Builder) SExt(t Type, x *Value, id uint32) *Value    { return b.cast(OpSExt, t, x, id) }
func (b *Builder) Trunc(t Type, x *Value, id uint32) *Value   { return b.cast(OpTrunc, t, x, id) }

// Alloca reserves stack storage of type t (Function storage class)
// and returns its address.
func (b *Builder) Alloca(t Type, id uint32) *Value {
	pt := PointerType{Elem: t, Storage: StorageFunction}
	return b.emit(&Instr{Op: OpAlloca, Type: pt, SpirvID: id})
}

// Load reads the value pointed to by ptr.
func (b *Builder) Load(t Type, ptr *Value, id uint32) *Value {
	return b.emit(&Instr{Op: OpLoad, Type: t, Args: []*Value{ptr}, SpirvID: id})
}

// Store writes val to the location pointed to by ptr.
func (b *Builder) Store(ptr, val *Value, id uint32) *Value {
	return b.emit(&Instr{Op: OpStore, Args: []*Value{ptr, val}, SpirvID: id})
}

// GEP computes a derived pointer from base by walking indices the
// way SPIR-V's OpAccessChain does: every index, the first included,
// selects a struct field or array/vector element of the current
// pointee; there is no leading pointer-stride index. resultType is the
// type of the final pointee, computed by the caller (the translator
// knows the chain statically).
func (b *Builder) GEP(resultType Type, base *Value, indices []int, id uint32) *Value {
	pt := PointerType{Elem: resultType, Storage: base.Kind.(PointerType).Storage}
	return b.emit(&Instr{Op: OpGEP, Type: pt, Args: []*Value{base}, Indices: indices, SpirvID: id})
}

// ExtractElement reads one element out of a vector value.
func (b *Builder) ExtractElement(t Type, vec, idx *Value, id uint32) *Value {
	return b.emit(&Instr{Op: OpExtractElement, Type: t, Args: []*Value{vec, idx}, SpirvID: id})
}

// InsertElement returns a copy of vec with element idx replaced by
// val.
func (b *Builder) InsertElement(vec, val, idx *Value, id uint32) *Value {
	return b.emit(&Instr{Op: OpInsertElement, Type: vec.Kind, Args: []*Value{vec, val, idx}, SpirvID: id})
}

// ExtractValue reads a field out of an aggregate (struct or array)
// value by a constant index path.
func (b *Builder) ExtractValue(t Type, agg *Value, indices []int, id uint32) *Value {
	return b.emit(&Instr{Op: OpExtractValue, Type: t, Args: []*Value{agg}, Indices: indices, SpirvID: id})
}

// InsertValue returns a copy of agg with the field at indices
// replaced by val.
func (b *Builder) InsertValue(agg, val *Value, indices []int, id uint32) *Value {
	return b.emit(&Instr{Op: OpInsertValue, Type: agg.Kind, Args: []*Value{agg, val}, Indices: indices, SpirvID: id})
}

// ShuffleVector builds a new vector by selecting elements from x and
// y according to mask (indices into the concatenation of x then y).
func (b *Builder) ShuffleVector(t Type, x, y *Value, mask []int, id uint32) *Value {
	return b.emit(&Instr{Op: OpShuffleVector, Type: t, Args: []*Value{x, y}, Mask: mask, SpirvID: id})
}

// Splat broadcasts a scalar into every lane of a vector type.
func (b *Builder) Splat(t VectorType, scalar *Value, id uint32) *Value {
	return b.emit(&Instr{Op: OpSplat, Type: t, Args: []*Value{scalar}, SpirvID: id})
}

// Phi creates an incomplete phi node of type t; use AddIncoming to
// populate it once all predecessor values are known (the translator
// may need to emit a phi before all its predecessors are translated).
func (b *Builder) Phi(t Type, id uint32) *Instr {
	in := &Instr{Op: OpPhi, Type: t, SpirvID: id}
	b.emit(in)
	return in
}

// AddIncoming appends one (value, predecessor block) pair to a phi
// created by Phi.
func (in *Instr) AddIncoming(val *Value, pred *Block) {
	in.Args = append(in.Args, val)
	in.Targets = append(in.Targets, pred)
}

// Br emits an unconditional branch to target.
func (b *Builder) Br(target *Block, id uint32) *Value {
	return b.emit(&Instr{Op: OpBr, Targets: []*Block{target}, SpirvID: id})
}

// CondBr emits a conditional branch.
func (b *Builder) CondBr(cond *Value, thenBlk, elseBlk *Block, id uint32) *Value {
	return b.emit(&Instr{Op: OpCondBr, Args: []*Value{cond}, Targets: []*Block{thenBlk, elseBlk}, SpirvID: id})
}

// Switch emits a multi-way branch: def is the default target, cases
// and targets are parallel slices matched by index.
func (b *Builder) Switch(val *Value, def *Block, cases []int64, targets []*Block, id uint32) *Value {
	allTargets := append([]*Block{def}, targets...)
	return b.emit(&Instr{Op: OpSwitch, Args: []*Value{val}, Targets: allTargets, Cases: cases, SpirvID: id})
}

// Ret emits a return with a value.
func (b *Builder) Ret(val *Value, id uint32) *Value {
	return b.emit(&Instr{Op: OpRet, Args: []*Value{val}, SpirvID: id})
}

// RetVoid emits a return with no value.
func (b *Builder) RetVoid(id uint32) *Value {
	return b.emit(&Instr{Op: OpRetVoid, SpirvID: id})
}

// Unreachable marks a point that must never execute (e.g. after an
// OpKill/OpTerminateInvocation).
func (b *Builder) Unreachable(id uint32) *Value {
	return b.emit(&Instr{Op: OpUnreachable, SpirvID: id})
}

// Call emits a direct call to callee.
func (b *Builder) Call(t Type, callee *Func, args []*Value, id uint32) *Value {
	return b.emit(&Instr{Op: OpCall, Type: t, Args: args, Callee: callee, SpirvID: id})
}

// CallIndirect emits a call through a function-pointer value, used
// for the runtime intrinsics table (package runtime) where the
// callee is resolved by name at JIT link time rather than by direct
// reference.
func (b *Builder) CallIndirect(t Type, fnPtr *Value, args []*Value, id uint32) *Value {
	return b.emit(&Instr{Op: OpCall, Type: t, Args: args, CalleePtr: fnPtr, SpirvID: id})
}

// AtomicLoad/AtomicStore/AtomicRMW/AtomicCmpXchg implement SPIR-V's
// atomic memory instructions over a pointer operand.
func (b *Builder) AtomicLoad(t Type, ptr *Value, id uint32) *Value {
	return b.emit(&Instr{Op: OpAtomicLoad, Type: t, Args: []*Value{ptr}, SpirvID: id})
}

func (b *Builder) AtomicStore(ptr, val *Value, id uint32) *Value {
	return b.emit(&Instr{Op: OpAtomicStore, Args: []*Value{ptr, val}, SpirvID: id})
}

func (b *Builder) AtomicRMW(op AtomicOp, t Type, ptr, val *Value, id uint32) *Value {
	return b.emit(&Instr{Op: OpAtomicRMW, Type: t, Args: []*Value{ptr, val}, AtomicOp: op, SpirvID: id})
}

func (b *Builder) AtomicCmpXchg(t Type, ptr, cmp, newVal *Value, id uint32) *Value {
	return b.emit(&Instr{Op: OpAtomicCmpXchg, Type: t, Args: []*Value{ptr, cmp, newVal}, SpirvID: id})
}
