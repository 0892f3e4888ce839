// Copyright 2024 The vkcpu Authors. All rights reserved.

package pipeline

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vkcpu/vkcpu/driver"
	"github.com/vkcpu/vkcpu/ir"
	"github.com/vkcpu/vkcpu/jit"
	"github.com/vkcpu/vkcpu/spirvir"
	"github.com/vkcpu/vkcpu/translate"
)

// Stage is one compiled programmable stage: the IR module, the
// compiled jit.Module and the resolved entry-point function pointer,
// plus the decoration lookups the rasterizer and resource binder
// need to locate built-in, location and descriptor-bound globals by
// their SPIR-V id.
type Stage struct {
	Mod         *spirvir.Module
	IR          *ir.Module
	Compiled    *jit.Module
	Entry       jit.FuncPtr
	EntryName   string
	Builtins    map[spirvir.BuiltIn]uint32
	Locations   map[uint32]uint32
	Descriptors map[translate.DescriptorKey]uint32
	id          string
}

// GlobalName returns the mangled external name of the global variable
// identified by SPIR-V id in this stage's module, matching the name
// the translator gave it in s.IR.
func (s *Stage) GlobalName(id uint32, storage ir.StorageClass) string {
	return translate.GlobalName(s.Mod, id, storage)
}

// Destroy releases the stage's compiled module.
func (s *Stage) Destroy() {
	if s.Compiled != nil {
		s.Compiled.Destroy()
	}
}

// compile translates and JIT-compiles the entry point named sf.Name
// within sf.Code's module.
func compile(host *jit.Host, sf driver.ShaderFunc, logger *log.Logger) (*Stage, error) {
	code, ok := sf.Code.(*Code)
	if !ok {
		return nil, fmt.Errorf("pipeline: shader code is not a *pipeline.Code")
	}
	mod, err := code.Module()
	if err != nil {
		return nil, err
	}

	var entry *spirvir.EntryPoint
	for i := range mod.EntryPoints {
		if mod.EntryPoints[i].Name == sf.Name {
			entry = &mod.EntryPoints[i]
			break
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("pipeline: entry point %q not found", sf.Name)
	}

	tr := translate.New(mod, logger)
	irMod, err := tr.Translate()
	if err != nil {
		return nil, fmt.Errorf("pipeline: translate %q: %w", sf.Name, err)
	}

	id := uuid.NewString()
	compiled, err := host.Compile(irMod, nil)
	if err != nil {
		return nil, fmt.Errorf("pipeline: compile %q: %w", sf.Name, err)
	}

	entryName := translate.FuncName(entry.Function)
	fn, err := compiled.GetFunctionPointer(entryName)
	if err != nil {
		compiled.Destroy()
		return nil, fmt.Errorf("pipeline: resolve entry %q: %w", sf.Name, err)
	}
	if logger != nil {
		logger.Debug("pipeline stage compiled", "module", id, "entry", sf.Name, "model", entry.Model)
	}

	return &Stage{
		Mod:         mod,
		IR:          irMod,
		Compiled:    compiled,
		Entry:       fn,
		EntryName:   entryName,
		Builtins:    translate.BuiltinVars(mod),
		Locations:   translate.LocationVars(mod),
		Descriptors: translate.DescriptorVars(mod),
		id:          id,
	}, nil
}

// Graphics is the immutable compiled snapshot of a driver.GraphState:
// its vertex and fragment stages plus the fixed-function state the
// rasterizer (package raster) consults.
type Graphics struct {
	State    driver.GraphState
	Vertex   *Stage
	Fragment *Stage
}

// NewGraphics compiles both stages of state.
func NewGraphics(host *jit.Host, state driver.GraphState, logger *log.Logger) (*Graphics, error) {
	vert, err := compile(host, state.VertFunc, logger)
	if err != nil {
		return nil, err
	}
	frag, err := compile(host, state.FragFunc, logger)
	if err != nil {
		vert.Destroy()
		return nil, err
	}
	return &Graphics{State: state, Vertex: vert, Fragment: frag}, nil
}

// Destroy releases both compiled stages.
func (p *Graphics) Destroy() {
	p.Vertex.Destroy()
	p.Fragment.Destroy()
}

// Compute is the immutable compiled snapshot of a driver.CompState.
type Compute struct {
	State driver.CompState
	Stage *Stage
}

// NewCompute compiles state's single compute stage.
func NewCompute(host *jit.Host, state driver.CompState, logger *log.Logger) (*Compute, error) {
	stage, err := compile(host, state.Func, logger)
	if err != nil {
		return nil, err
	}
	return &Compute{State: state, Stage: stage}, nil
}

// Destroy releases the compiled compute stage.
func (p *Compute) Destroy() { p.Stage.Destroy() }

// New builds a pipeline from state, which must be a *driver.GraphState
// or a *driver.CompState, matching driver.GPU.NewPipeline's contract.
func New(host *jit.Host, state any, logger *log.Logger) (driver.Pipeline, error) {
	switch s := state.(type) {
	case *driver.GraphState:
		return NewGraphics(host, *s, logger)
	case *driver.CompState:
		return NewCompute(host, *s, logger)
	default:
		return nil, fmt.Errorf("pipeline: unsupported state type %T", state)
	}
}
