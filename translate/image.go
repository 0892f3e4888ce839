// Copyright 2024 The vkcpu Authors. All rights reserved.

package translate

import (
	"github.com/vkcpu/vkcpu/ir"
	"github.com/vkcpu/vkcpu/spirvir"
)

// translateImageOp lowers OpImageSample{Implicit,Explicit}Lod,
// OpImageFetch and OpImageRead to an indirect call against the
// runtime intrinsics table's sample/fetch family, keyed by the
// coordinate vector's width the way spec.md §4.6 describes ("image
// sample/fetch family keyed by coordinate type").
func (tr *Translator) translateImageOp(in spirvir.Instruction) *ir.Value {
	image := tr.valueOf(in.Operands[0].ID)
	coord := tr.valueOf(in.Operands[1].ID)
	resultType := tr.typeOf(in.ResultType)

	name := "ImageFetch"
	switch in.Op {
	case spirvir.OpImageSampleImplicitLod, spirvir.OpImageSampleExplicitLod:
		name = "ImageSample"
	case spirvir.OpImageRead:
		name = "ImageRead"
	}

	args := []*ir.Value{image, coord}
	// Any trailing operands (explicit Lod, Dref, Offset) are passed
	// through positionally; the runtime intrinsic unpacks them by
	// its own fixed-arity signature per sample kind.
	for _, op := range in.Operands[2:] {
		args = append(args, tr.valueOf(op.ID))
	}

	return tr.builder.CallIndirect(resultType, mangledIntrinsic(name, coord.Kind), args, in.ResultID)
}

// translateImageWrite lowers OpImageWrite to a void indirect call
// against the runtime's image-store intrinsic.
func (tr *Translator) translateImageWrite(in spirvir.Instruction) {
	image := tr.valueOf(in.Operands[0].ID)
	coord := tr.valueOf(in.Operands[1].ID)
	texel := tr.valueOf(in.Operands[2].ID)
	tr.builder.CallIndirect(ir.VoidType{}, mangledIntrinsic("ImageWrite", coord.Kind), []*ir.Value{image, coord, texel}, in.ResultID)
}
