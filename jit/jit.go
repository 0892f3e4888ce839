// Copyright 2024 The vkcpu Authors. All rights reserved.

// Package jit implements the JIT Module Host (C5): it takes an
// ir.Module, verifies it, "compiles" it and resolves the external
// symbols its indirect calls reference, in the priority order
// LLVMRuntime/Jit.cpp's CPJit::Impl::getFunctions uses: a per-Compile
// override callback, then this Host's own registered table, then a
// shared builtin table (the runtime intrinsics table, package
// runtime), per spec.md §4.5.
//
// There is no native code generation backend available in this
// repository, so "compile" builds a tree-walking interpreter over
// package ir instead of machine code; every other part of the
// contract (verify, symbol priority, get_function_ptr/
// get_optional_ptr, user_data binding, pointer invalidation on
// Destroy) is implemented exactly as specified.
package jit

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vkcpu/vkcpu/ir"
)

// FuncPtr is the interpreter's stand-in for a compiled native
// function pointer: a callable taking boxed argument Values and
// returning a boxed result Value (VoidValue{} for a void function).
type FuncPtr func(args []Value) Value

// ErrSymbolNotFound is returned by GetFunctionPointer, and by Compile,
// when no registered resolver supplies the requested name.
var ErrSymbolNotFound = errors.New("jit: symbol not found")

// ErrModuleDestroyed is the value GetOptionalPointer, and any
// previously returned FuncPtr, panic with once a Module's Destroy has
// been called.
var ErrModuleDestroyed = errors.New("jit: module destroyed")

// Host owns the module-level symbol table (the equivalent of
// CPJit::AddFunction) and a reference to the shared builtin table;
// one Host typically backs one logical device.
type Host struct {
	mu      sync.RWMutex
	funcs   map[string]FuncPtr
	builtin func(name string) (FuncPtr, bool)
}

// NewHost returns a Host whose third symbol-resolution tier consults
// builtin (pass runtime.Lookup from package runtime; nil disables
// that tier).
func NewHost(builtin func(name string) (FuncPtr, bool)) *Host {
	return &Host{funcs: make(map[string]FuncPtr), builtin: builtin}
}

// AddFunction registers a host-level symbol, visible to every Module
// this Host compiles that doesn't have a closer-priority override.
func (h *Host) AddFunction(name string, fn FuncPtr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.funcs[name] = fn
}

// Module is one compiled shader module: its interpreter entry points
// and bound user data, torn down together by Destroy.
type Module struct {
	host      *Host
	mod       *ir.Module
	userData  Value
	destroyed bool
	mu        sync.Mutex
	resolve   moduleResolver

	globalsMu sync.Mutex
	globals   map[string]*Ref
}

// globalRef returns the storage cell backing the module-scope global
// named name, creating and zero-initializing it (or running its
// constant initializer) on first access.
func (m *Module) globalRef(name string, t ir.Type) *Ref {
	m.globalsMu.Lock()
	defer m.globalsMu.Unlock()
	if m.globals == nil {
		m.globals = make(map[string]*Ref)
	}
	if r, ok := m.globals[name]; ok {
		return r
	}
	for _, g := range m.mod.Globals {
		if g.Name == name {
			r := newCell(zeroValue(g.Type))
			m.globals[name] = r
			return r
		}
	}
	r := newCell(zeroValue(t))
	m.globals[name] = r
	return r
}

// Global returns the storage cell backing the module-scope global
// named name (as mangled by the translator: "_uniform_foo",
// "_buffer_foo", "_output_@location0", ...), for binding descriptor
// data or built-in I/O cells into the interpreter from outside it.
func (m *Module) Global(name string, t ir.Type) *Ref {
	return m.globalRef(name, t)
}

// SetGlobal stores v into the named global's current value, replacing
// the whole cell contents (the common case for binding a
// backing-pointer/offset/range descriptor slot or a built-in I/O
// struct before invoking an entry point).
func (m *Module) SetGlobal(name string, t ir.Type, v Value) {
	m.globalRef(name, t).Set(v)
}

// Verify checks the structural invariants the interpreter assumes:
// every function has at least one block and every block is non-empty
// and ends in a terminator. Branch targets are not checked.
func Verify(mod *ir.Module) error {
	for _, fn := range mod.Funcs {
		if len(fn.Blocks) == 0 {
			return fmt.Errorf("jit: verify: function %s has no blocks", fn.Name)
		}
		for _, blk := range fn.Blocks {
			if len(blk.Instrs) == 0 {
				return fmt.Errorf("jit: verify: block %s is empty", blk.Name)
			}
			last := blk.Instrs[len(blk.Instrs)-1]
			if !isTerminator(last.Op) {
				return fmt.Errorf("jit: verify: block %s does not end in a terminator", blk.Name)
			}
		}
	}
	return nil
}

func isTerminator(op ir.Opcode) bool {
	switch op {
	case ir.OpBr, ir.OpCondBr, ir.OpSwitch, ir.OpRet, ir.OpRetVoid, ir.OpUnreachable:
		return true
	default:
		return false
	}
}

// Compile verifies mod, then "compiles" it to an interpreter and
// resolves every symbol its indirect calls reference using override,
// then h's registered functions, then h's builtin table. override may
// be nil.
func (h *Host) Compile(mod *ir.Module, override func(name string) (FuncPtr, bool)) (*Module, error) {
	if err := Verify(mod); err != nil {
		return nil, err
	}

	m := &Module{host: h, mod: mod}
	m.resolve = func(name string) (FuncPtr, bool) {
		if override != nil {
			if fn, ok := override(name); ok {
				return fn, true
			}
		}
		h.mu.RLock()
		fn, ok := h.funcs[name]
		h.mu.RUnlock()
		if ok {
			return fn, true
		}
		if h.builtin != nil {
			return h.builtin(name)
		}
		return nil, false
	}
	for _, fn := range mod.Funcs {
		for _, blk := range fn.Blocks {
			for _, in := range blk.Instrs {
				if in.Op != ir.OpCall || in.Callee != nil || in.CalleePtr == nil {
					continue
				}
				if _, ok := m.resolve(in.CalleePtr.Global); !ok {
					return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, in.CalleePtr.Global)
				}
			}
		}
	}
	return m, nil
}

// resolve is set by Compile; declared here so Module's zero value
// stays simple for tests that build one directly.
type moduleResolver = func(name string) (FuncPtr, bool)

// BindUserData binds ud, made available to the interpreter as the
// special "@userData" symbol, mirroring CompileModule's post-compile
// write to the "@userData" global.
func (m *Module) BindUserData(ud Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userData = ud
}

// GetFunctionPointer returns the compiled entry point named name, or
// ErrSymbolNotFound. Panics if the module has been destroyed, since a
// caller holding a pointer past Destroy is a use-after-free in the
// contract this mirrors.
func (m *Module) GetFunctionPointer(name string) (FuncPtr, error) {
	fn, ok := m.GetOptionalPointer(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
	}
	return fn, nil
}

// GetOptionalPointer is GetFunctionPointer without the error: it
// reports whether name resolved.
func (m *Module) GetOptionalPointer(name string) (FuncPtr, bool) {
	m.mu.Lock()
	destroyed := m.destroyed
	m.mu.Unlock()
	if destroyed {
		panic(ErrModuleDestroyed)
	}

	if f := m.mod.FuncByName(name); f != nil {
		return m.entryPoint(f), true
	}
	if name == "@userData" {
		return func([]Value) Value { return m.userData }, true
	}
	return m.resolve(name)
}

// entryPoint returns a FuncPtr that interprets f each time it is
// called, checking Destroy on every invocation so a pointer captured
// before Destroy becomes inert (panics) rather than silently stale.
func (m *Module) entryPoint(f *ir.Func) FuncPtr {
	return func(args []Value) Value {
		m.mu.Lock()
		destroyed := m.destroyed
		m.mu.Unlock()
		if destroyed {
			panic(ErrModuleDestroyed)
		}
		return newInterp(m, f, args).run()
	}
}

// Destroy invalidates every pointer GetFunctionPointer/
// GetOptionalPointer returned for this module: subsequent calls
// through them panic with ErrModuleDestroyed.
func (m *Module) Destroy() {
	m.mu.Lock()
	m.destroyed = true
	m.mu.Unlock()
}
