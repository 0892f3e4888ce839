// Copyright 2024 The vkcpu Authors. All rights reserved.

package command

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vkcpu/vkcpu/driver"
	"github.com/vkcpu/vkcpu/resource"
)

func TestBufferLifecycle(t *testing.T) {
	b := New()
	require.Equal(t, Initial, b.state)

	require.NoError(t, b.Begin())
	require.Equal(t, Recording, b.state)

	require.NoError(t, b.End())
	require.Equal(t, Executable, b.state)

	require.NoError(t, b.MarkPending())
	require.Equal(t, Pending, b.state)

	require.Error(t, b.Begin())
	require.Error(t, b.Reset())

	b.MarkExecutable()
	require.Equal(t, Executable, b.state)

	require.NoError(t, b.Reset())
	require.Equal(t, Initial, b.state)
}

func TestBufferEndRejectsOpenBlock(t *testing.T) {
	b := New()
	require.NoError(t, b.Begin())
	b.BeginWork(false)
	require.Error(t, b.End())
	require.Equal(t, Invalid, b.state)
}

// TestReplayDeterminism records the same fixed sequence of buffer
// fills and copies into two fresh command buffers and replays each
// once, asserting the resulting buffer contents are byte-for-byte
// identical both times and equal to the expected bytes: the recorded
// commands are pure functions of the executor state they close over,
// so replaying the same buffer must never depend on anything beyond
// submission order.
func TestReplayDeterminism(t *testing.T) {
	run := func() []byte {
		src := resource.NewBuffer(16, true, driver.UShaderRead)
		dst := resource.NewBuffer(16, true, driver.UShaderRead)

		b := New()
		require.NoError(t, b.Begin())
		b.Fill(src, 0, 0xAB, 8)
		b.Fill(src, 8, 0xCD, 8)
		b.CopyBuffer(&driver.BufferCopy{From: src, FromOff: 0, To: dst, ToOff: 0, Size: 16})
		b.Fill(dst, 4, 0xFF, 4)
		require.NoError(t, b.End())

		require.NoError(t, b.MarkPending())
		require.NoError(t, b.Replay())
		b.MarkExecutable()

		out := append([]byte(nil), dst.Bytes()...)
		return out
	}

	first := run()
	second := run()
	require.Equal(t, first, second)
	require.Equal(t, []byte{0xAB, 0xAB, 0xAB, 0xAB, 0xFF, 0xFF, 0xFF, 0xFF, 0xCD, 0xCD, 0xCD, 0xCD, 0xCD, 0xCD, 0xCD, 0xCD}, first)
}

// TestReplayHonoursRecordOrder records two overlapping fills and
// checks the later record wins, proving
// Replay walks b.records strictly in recording order rather than, for
// instance, a map iteration or a reordering optimization.
func TestReplayHonoursRecordOrder(t *testing.T) {
	buf := resource.NewBuffer(4, true, driver.UShaderRead)

	b := New()
	require.NoError(t, b.Begin())
	b.Fill(buf, 0, 0x11, 4)
	b.Fill(buf, 0, 0x22, 4)
	require.NoError(t, b.End())
	require.NoError(t, b.MarkPending())
	require.NoError(t, b.Replay())

	for _, v := range buf.Bytes() {
		require.Equal(t, byte(0x22), v)
	}
}

func TestReplayRejectsNonPendingBuffer(t *testing.T) {
	b := New()
	require.Error(t, b.Replay())

	require.NoError(t, b.Begin())
	require.NoError(t, b.End())
	require.Error(t, b.Replay())
}
