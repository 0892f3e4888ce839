// Copyright 2024 The vkcpu Authors. All rights reserved.

package ir

// Global is a module-scope variable: a named storage location of a
// given type and storage class, optionally with an initializer.
type Global struct {
	Name        string
	Type        Type
	Storage     StorageClass
	Initializer *Value
	SpirvID     uint32
}

// Func is a function: its signature, parameter values, entry/other
// blocks and the originating SPIR-V id of its OpFunction, when
// translated from one.
type Func struct {
	Name    string
	Sig     FuncType
	Params  []*Value
	Blocks  []*Block
	SpirvID uint32

	mod *Module
}

// Block is a single-entry, single-exit (apart from branches to other
// blocks) sequence of instructions ending in a terminator.
type Block struct {
	Name    string
	Instrs  []*Instr
	SpirvID uint32

	fn *Func
}

// Module is a translation unit: its globals and functions, the unit
// the JIT module host compiles as one.
type Module struct {
	Name    string
	Globals []*Global
	Funcs   []*Func
}

// NewModule returns an empty module named name.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// AddGlobal declares a new global variable and returns its address
// value.
func (m *Module) AddGlobal(name string, t Type, storage StorageClass) *Value {
	g := &Global{Name: name, Type: t, Storage: storage}
	m.Globals = append(m.Globals, g)
	return globalValue(PointerType{Elem: t, Storage: storage}, name)
}

// AddFunc declares a new function with the given signature and
// returns it. Parameter values are pre-built so the caller can
// reference them while building the entry block.
func (m *Module) AddFunc(name string, sig FuncType) *Func {
	f := &Func{Name: name, Sig: sig, mod: m}
	f.Params = make([]*Value, len(sig.Params))
	for i, pt := range sig.Params {
		f.Params[i] = paramValue(pt, i)
	}
	m.Funcs = append(m.Funcs, f)
	return f
}

// FuncByName returns the function named name, or nil.
func (m *Module) FuncByName(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// NewBlock appends a new, empty block to f and returns it.
func (f *Func) NewBlock(name string) *Block {
	b := &Block{Name: name, fn: f}
	f.Blocks = append(f.Blocks, b)
	return b
}

// Param returns f's n-th parameter value.
func (f *Func) Param(n int) *Value { return f.Params[n] }
