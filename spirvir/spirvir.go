// Copyright 2024 The vkcpu Authors. All rights reserved.

// Package spirvir defines the Go-typed shape of an already-parsed
// SPIR-V module: functions, basic blocks, instructions and decoration
// queries. Producing this representation from a raw SPIR-V binary is
// an external concern (spec.md §1); this package only gives the
// translator (package translate) something concrete to consume, and
// gives tests a way to build fixtures directly in Go.
package spirvir

// Op is a SPIR-V opcode. Only the subset the translator recognises is
// named; unrecognised opcodes are preserved numerically so a producer
// can still round-trip instructions it doesn't itself interpret.
type Op uint16

const (
	OpNop Op = iota
	OpUndef
	OpTypeVoid
	OpTypeBool
	OpTypeInt
	OpTypeFloat
	OpTypeVector
	OpTypeMatrix
	OpTypeArray
	OpTypeRuntimeArray
	OpTypeStruct
	OpTypePointer
	OpTypeFunction
	OpTypeImage
	OpTypeSampler
	OpTypeSampledImage
	OpConstant
	OpConstantComposite
	OpConstantTrue
	OpConstantFalse
	OpConstantNull
	OpSpecConstant
	OpSpecConstantComposite
	OpSpecConstantOp
	OpVariable
	OpFunction
	OpFunctionParameter
	OpFunctionEnd
	OpFunctionCall
	OpLabel
	OpBranch
	OpBranchConditional
	OpSwitch
	OpLoopMerge
	OpSelectionMerge
	OpReturn
	OpReturnValue
	OpKill
	OpTerminateInvocation
	OpUnreachable
	OpLoad
	OpStore
	OpAccessChain
	OpInBoundsAccessChain
	OpCompositeConstruct
	OpCompositeExtract
	OpCompositeInsert
	OpVectorShuffle
	OpVectorExtractDynamic
	OpVectorInsertDynamic
	OpConvertFToU
	OpConvertFToS
	OpConvertSToF
	OpConvertUToF
	OpUConvert
	OpSConvert
	OpFConvert
	OpBitcast
	OpIAdd
	OpISub
	OpIMul
	OpUDiv
	OpSDiv
	OpUMod
	OpSMod
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFMod
	OpFNegate
	OpSNegate
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
	OpNot
	OpShiftLeftLogical
	OpShiftRightLogical
	OpShiftRightArithmetic
	OpLogicalAnd
	OpLogicalOr
	OpLogicalNot
	OpLogicalEqual
	OpLogicalNotEqual
	OpIEqual
	OpINotEqual
	OpULessThan
	OpULessThanEqual
	OpUGreaterThan
	OpUGreaterThanEqual
	OpSLessThan
	OpSLessThanEqual
	OpSGreaterThan
	OpSGreaterThanEqual
	OpFOrdEqual
	OpFOrdLessThan
	OpFOrdLessThanEqual
	OpFOrdGreaterThan
	OpFOrdGreaterThanEqual
	OpFUnordLessThan
	OpFUnordLessThanEqual
	OpFUnordGreaterThan
	OpFUnordGreaterThanEqual
	OpSelect
	OpPhi
	OpDot
	OpMatrixTimesVector
	OpMatrixTimesMatrix
	OpVectorTimesMatrix
	OpExtInst
	OpImageSampleImplicitLod
	OpImageSampleExplicitLod
	OpImageFetch
	OpImageRead
	OpImageWrite
	OpSampledImage
	OpImage
	OpAtomicLoad
	OpAtomicStore
	OpAtomicIAdd
	OpAtomicISub
	OpAtomicAnd
	OpAtomicOr
	OpAtomicXor
	OpAtomicExchange
	OpAtomicCompareExchange
	OpAtomicUMin
	OpAtomicUMax
	OpAtomicSMin
	OpAtomicSMax
)

// StorageClass mirrors the SPIR-V storage class enumerants relevant
// to the translator (spec.md §4.4).
type StorageClass uint32

const (
	StorageUniformConstant StorageClass = iota
	StorageInput
	StorageUniform
	StorageOutput
	StorageWorkgroup
	StoragePrivate
	StorageFunction
	StoragePushConstant
	StorageStorageBuffer
)

// ExecutionModel distinguishes shader stages, the set the command and
// pipeline layers dispatch on.
type ExecutionModel uint32

const (
	ModelVertex ExecutionModel = iota
	ModelFragment
	ModelGLCompute
	ModelGeometry
	ModelTessellationControl
	ModelTessellationEvaluation
)

// BuiltIn is a built-in variable decoration (position, vertex index,
// fragment coordinate, and so on), mapped per execution model by the
// translator.
type BuiltIn uint32

const (
	BuiltInPosition BuiltIn = iota
	BuiltInPointSize
	BuiltInVertexIndex
	BuiltInInstanceIndex
	BuiltInFragCoord
	BuiltInFrontFacing
	BuiltInPointCoord
	BuiltInSampleId
	BuiltInSampleMask
	BuiltInFragDepth
	BuiltInNumWorkgroups
	BuiltInWorkgroupId
	BuiltInLocalInvocationId
	BuiltInGlobalInvocationId
	BuiltInViewportIndex
)

// Decorations holds the decoration queries the translator issues
// against a result id or struct member, per spec.md §4.4: BuiltIn,
// Location, DescriptorSet, Binding, Offset, ArrayStride, MatrixStride,
// RowMajor/ColMajor, SpecId and RelaxedPrecision.
type Decorations struct {
	BuiltIn         *BuiltIn
	Location        *uint32
	DescriptorSet   *uint32
	Binding         *uint32
	Offset          *uint32
	ArrayStride     *uint32
	MatrixStride    *uint32
	RowMajor        bool
	ColMajor        bool
	SpecID          *uint32
	RelaxedPrecision bool
}

// Operand is one instruction operand: either a reference to another
// result id, or an immediate literal (integer, float or string),
// tagged by which field is meaningful.
type Operand struct {
	ID      uint32
	Literal int64
	Str     string
	IsID    bool
	IsStr   bool
}

// Ref returns an ID operand.
func Ref(id uint32) Operand { return Operand{ID: id, IsID: true} }

// Imm returns an integer literal operand.
func Imm(v int64) Operand { return Operand{Literal: v} }

// StrOp returns a string literal operand (used for OpExtInst's
// extended-instruction-set name and OpEntryPoint's name).
func StrOp(s string) Operand { return Operand{Str: s, IsStr: true} }

// Instruction is one decoded SPIR-V instruction: its opcode, the
// result id it defines (0 if none), the result's type id (0 if
// none) and its operands in source order.
type Instruction struct {
	Op         Op
	ResultID   uint32
	ResultType uint32
	Operands   []Operand
}

// Block is a basic block: its label id and the instructions it
// contains, the last of which is always a terminator (Branch,
// BranchConditional, Switch, Return, ReturnValue, Kill,
// TerminateInvocation or Unreachable).
type Block struct {
	ID     uint32
	Instrs []Instruction
}

// Function is one SPIR-V function: its result id, type id, parameter
// ids (in OpFunctionParameter order) and blocks (entry block first).
type Function struct {
	ID       uint32
	TypeID   uint32
	ResultType uint32
	Params   []uint32
	Blocks   []Block
}

// EntryPoint names one OpEntryPoint: the execution model, the
// function it invokes, its name and its interface (Input/Output
// global ids it references).
type EntryPoint struct {
	Model     ExecutionModel
	Function  uint32
	Name      string
	Interface []uint32
}

// Module is the parsed shape of one SPIR-V module: a flat table of
// globally-unique result ids (types, constants and variables, each
// one instruction), the module's functions and entry points, and a
// decoration table keyed by (target id, member index) with member
// index -1 meaning "the id itself".
type Module struct {
	Globals     []Instruction
	Functions   []Function
	EntryPoints []EntryPoint
	Specs       SpecInfo

	decorations map[decoKey]*Decorations
	names       map[uint32]string
}

type decoKey struct {
	id     uint32
	member int
}

// NewModule returns an empty module ready to be populated by a
// producer (a real parser, or a test fixture).
func NewModule() *Module {
	return &Module{decorations: make(map[decoKey]*Decorations)}
}

// AddGlobal appends one type/constant/variable instruction to the
// module's global table and returns it for decoration.
func (m *Module) AddGlobal(in Instruction) *Instruction {
	m.Globals = append(m.Globals, in)
	return &m.Globals[len(m.Globals)-1]
}

// Decorate records (or merges into) the decoration set for id.
// member is -1 for a non-member decoration.
func (m *Module) Decorate(id uint32, member int, set func(*Decorations)) {
	k := decoKey{id, member}
	d, ok := m.decorations[k]
	if !ok {
		d = &Decorations{}
		m.decorations[k] = d
	}
	set(d)
}

// Decorations returns the recorded decorations for id (member -1), or
// for one struct member, and whether any were recorded.
func (m *Module) Decorations(id uint32, member int) (Decorations, bool) {
	d, ok := m.decorations[decoKey{id, member}]
	if !ok {
		return Decorations{}, false
	}
	return *d, true
}

// SetName records the OpName debug identifier for id (a variable or
// function result), used by the translator to build the mangled
// external name for a global (spec.md §6's "Name mangling"). Producers
// that discard debug info simply never call this; the translator
// falls back to a location- or id-derived name.
func (m *Module) SetName(id uint32, name string) {
	if m.names == nil {
		m.names = make(map[uint32]string)
	}
	m.names[id] = name
}

// NameOf returns the OpName debug identifier recorded for id, if any.
func (m *Module) NameOf(id uint32) (string, bool) {
	if m.names == nil {
		return "", false
	}
	n, ok := m.names[id]
	return n, ok
}

// FindGlobal returns the global instruction that defines id, if any.
func (m *Module) FindGlobal(id uint32) (Instruction, bool) {
	for _, in := range m.Globals {
		if in.ResultID == id {
			return in, true
		}
	}
	return Instruction{}, false
}

// SpecInfo carries specialization-constant overrides supplied at
// pipeline-creation time (VkSpecializationInfo), keyed by SpecId.
type SpecInfo struct {
	Entries map[uint32][]byte
}

// Data returns the override bytes for the given SpecId, and whether
// one was supplied.
func (s SpecInfo) Data(specID uint32) ([]byte, bool) {
	if s.Entries == nil {
		return nil, false
	}
	b, ok := s.Entries[specID]
	return b, ok
}
