// Copyright 2024 The vkcpu Authors. All rights reserved.

package spirvir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecorationRoundTrip(t *testing.T) {
	m := NewModule()
	var loc uint32 = 3
	m.Decorate(10, -1, func(d *Decorations) { d.Location = &loc })

	got, ok := m.Decorations(10, -1)
	require.True(t, ok)
	require.NotNil(t, got.Location)
	require.Equal(t, uint32(3), *got.Location)

	_, ok = m.Decorations(11, -1)
	require.False(t, ok)
}

func TestMemberDecorationsAreIndependent(t *testing.T) {
	m := NewModule()
	var off0, off1 uint32 = 0, 16
	m.Decorate(5, 0, func(d *Decorations) { d.Offset = &off0 })
	m.Decorate(5, 1, func(d *Decorations) { d.Offset = &off1 })

	d0, _ := m.Decorations(5, 0)
	d1, _ := m.Decorations(5, 1)
	require.Equal(t, uint32(0), *d0.Offset)
	require.Equal(t, uint32(16), *d1.Offset)
}

func TestSpecInfoOverride(t *testing.T) {
	spec := SpecInfo{Entries: map[uint32][]byte{1: {0x2a, 0, 0, 0}}}
	b, ok := spec.Data(1)
	require.True(t, ok)
	require.Equal(t, []byte{0x2a, 0, 0, 0}, b)

	_, ok = spec.Data(2)
	require.False(t, ok)
}

func TestModuleGlobalLookup(t *testing.T) {
	m := NewModule()
	m.AddGlobal(Instruction{Op: OpTypeInt, ResultID: 1, Operands: []Operand{Imm(32), Imm(1)}})

	in, ok := m.FindGlobal(1)
	require.True(t, ok)
	require.Equal(t, OpTypeInt, in.Op)

	_, ok = m.FindGlobal(2)
	require.False(t, ok)
}
