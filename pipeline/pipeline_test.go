// Copyright 2024 The vkcpu Authors. All rights reserved.

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vkcpu/vkcpu/driver"
	"github.com/vkcpu/vkcpu/jit"
	"github.com/vkcpu/vkcpu/runtime"
	"github.com/vkcpu/vkcpu/spirvir"
)

// trivialModule builds a single void(void) function that immediately
// returns, wrapped as a single named entry point.
func trivialModule(entryName string, model spirvir.ExecutionModel) *spirvir.Module {
	m := spirvir.NewModule()
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeVoid, ResultID: 1})
	m.AddGlobal(spirvir.Instruction{Op: spirvir.OpTypeFunction, ResultID: 2, Operands: []spirvir.Operand{spirvir.Ref(1)}})

	fn := spirvir.Function{ID: 100, TypeID: 2, ResultType: 1}
	fn.Blocks = []spirvir.Block{{
		ID:     200,
		Instrs: []spirvir.Instruction{{Op: spirvir.OpReturn}},
	}}
	m.Functions = append(m.Functions, fn)
	m.EntryPoints = append(m.EntryPoints, spirvir.EntryPoint{
		Model: model, Function: 100, Name: entryName,
	})
	return m
}

func TestCompileGraphicsPipeline(t *testing.T) {
	host := jit.NewHost(runtime.Lookup)

	vertCode := NewCodeFromModule(trivialModule("vs_main", spirvir.ModelVertex))
	fragCode := NewCodeFromModule(trivialModule("fs_main", spirvir.ModelFragment))

	state := driver.GraphState{
		VertFunc: driver.ShaderFunc{Code: vertCode, Name: "vs_main"},
		FragFunc: driver.ShaderFunc{Code: fragCode, Name: "fs_main"},
	}

	p, err := NewGraphics(host, state, nil)
	require.NoError(t, err)
	require.NotNil(t, p.Vertex.Entry)
	require.NotNil(t, p.Fragment.Entry)

	require.Equal(t, jit.VoidValue{}, p.Vertex.Entry(nil))
	p.Destroy()
	require.Panics(t, func() { p.Vertex.Entry(nil) })
}

func TestCompileComputePipeline(t *testing.T) {
	host := jit.NewHost(runtime.Lookup)
	code := NewCodeFromModule(trivialModule("cs_main", spirvir.ModelGLCompute))
	state := driver.CompState{Func: driver.ShaderFunc{Code: code, Name: "cs_main"}}

	p, err := NewCompute(host, state, nil)
	require.NoError(t, err)
	require.Equal(t, jit.VoidValue{}, p.Stage.Entry(nil))
	p.Destroy()
}

func TestRawCodeUnsupported(t *testing.T) {
	code := NewCode([]byte{0x03, 0x02, 0x23, 0x07})
	_, err := code.Module()
	require.ErrorIs(t, err, ErrRawSPIRVUnsupported)
}
