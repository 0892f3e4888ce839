// Copyright 2024 The vkcpu Authors. All rights reserved.

// Package pipeline implements the Pipeline Object (C7): it compiles
// each programmable stage of a driver.GraphState/driver.CompState
// into an IR module and a JIT-compiled entry point, and caches the
// result as an immutable snapshot, per spec.md §4.7.
package pipeline

import (
	"errors"

	"github.com/vkcpu/vkcpu/spirvir"
)

// ErrRawSPIRVUnsupported is returned by Code.Module when a Code was
// constructed from a raw byte slice. Parsing a SPIR-V binary is an
// external concern (spec.md §1); this driver only consumes an
// already-parsed spirvir.Module, so a real loader's frontend must
// call NewCodeFromModule instead of handing this driver raw bytes.
var ErrRawSPIRVUnsupported = errors.New("pipeline: raw SPIR-V binary decoding is out of scope for this driver")

// Code implements driver.ShaderCode. It wraps either a raw byte slice
// (accepted only for interface compliance, see ErrRawSPIRVUnsupported)
// or a pre-parsed spirvir.Module.
type Code struct {
	raw []byte
	mod *spirvir.Module
}

// NewCode stores raw verbatim, matching the driver.GPU.NewShaderCode
// signature. Module will fail on the result unless the caller also
// has some other means of supplying a parsed module.
func NewCode(raw []byte) *Code { return &Code{raw: raw} }

// NewCodeFromModule wraps an already-parsed module, the only form
// this driver can actually compile.
func NewCodeFromModule(mod *spirvir.Module) *Code { return &Code{mod: mod} }

// Module returns the parsed module this Code wraps.
func (c *Code) Module() (*spirvir.Module, error) {
	if c.mod != nil {
		return c.mod, nil
	}
	return nil, ErrRawSPIRVUnsupported
}

// Destroy releases c. Code holds no external resources of its own.
func (c *Code) Destroy() {}
