// Copyright 2024 The vkcpu Authors. All rights reserved.

// Package device wires the Format Descriptor Table, Pixel Codec, IR
// Builder, SPIR-V Translator, JIT Module Host, Runtime Intrinsics,
// Pipeline Object, Assembler & Rasterizer, Render Pass Executor,
// Command Buffer & State, Queue & Sync Primitives and Resource
// Objects components together into one driver.Driver/driver.GPU
// implementation, replacing the platform ICD package the driver
// interface was originally designed against.
package device

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/vkcpu/vkcpu/command"
	"github.com/vkcpu/vkcpu/driver"
	"github.com/vkcpu/vkcpu/jit"
	"github.com/vkcpu/vkcpu/pipeline"
	"github.com/vkcpu/vkcpu/queue"
	"github.com/vkcpu/vkcpu/renderpass"
	"github.com/vkcpu/vkcpu/resource"
	"github.com/vkcpu/vkcpu/runtime"
)

// Name is the driver name reported to driver.Drivers callers.
const Name = "vkcpu"

// Driver implements driver.Driver: a singleton CPU GPU instance.
type Driver struct {
	gpu *GPU
}

func init() {
	driver.Register(&Driver{})
}

func (d *Driver) Name() string { return Name }

func (d *Driver) Open() (driver.GPU, error) {
	if d.gpu != nil {
		return d.gpu, nil
	}
	logger := log.New(os.Stderr)
	host := jit.NewHost(runtime.Lookup)
	d.gpu = &GPU{drv: d, host: host, logger: logger, queue: queue.New()}
	return d.gpu, nil
}

func (d *Driver) Close() { d.gpu = nil }

// GPU implements driver.GPU as a single CPU-executed device with one
// queue.
type GPU struct {
	drv    *Driver
	host   *jit.Host
	logger *log.Logger
	queue  *queue.Queue
}

func (g *GPU) Driver() driver.Driver { return g.drv }

// Commit replays cb on the GPU's single queue and reports completion
// on ch, the direct realization of queue.Queue.SubmitAsync against
// driver.GPU's channel-based contract.
func (g *GPU) Commit(cb []driver.CmdBuffer, ch chan<- error) {
	bufs := make([]*command.Buffer, len(cb))
	for i, c := range cb {
		b, ok := c.(*command.Buffer)
		if !ok {
			ch <- fmt.Errorf("device: Commit: command buffer %d is not a *command.Buffer", i)
			return
		}
		bufs[i] = b
	}
	g.queue.SubmitAsync(queue.Submission{Buffers: bufs}, ch)
}

func (g *GPU) NewCmdBuffer() (driver.CmdBuffer, error) {
	return command.New(), nil
}

func (g *GPU) NewRenderPass(att []driver.Attachment, sub []driver.Subpass) (driver.RenderPass, error) {
	return renderpass.New(att, sub)
}

func (g *GPU) NewShaderCode(data []byte) (driver.ShaderCode, error) {
	return pipeline.NewCode(data), nil
}

func (g *GPU) NewDescHeap(ds []driver.Descriptor) (driver.DescHeap, error) {
	return resource.NewDescHeap(ds)
}

func (g *GPU) NewDescTable(dh []driver.DescHeap) (driver.DescTable, error) {
	return resource.NewDescTable(dh)
}

func (g *GPU) NewPipeline(state any) (driver.Pipeline, error) {
	return pipeline.New(g.host, state, g.logger)
}

func (g *GPU) NewBuffer(size int64, visible bool, usg driver.Usage) (driver.Buffer, error) {
	return resource.NewBuffer(size, visible, usg), nil
}

func (g *GPU) NewImage(pf driver.PixelFmt, size driver.Dim3D, layers, levels, samples int, usg driver.Usage) (driver.Image, error) {
	return resource.NewImage(pf, size, layers, levels, samples, usg)
}

func (g *GPU) NewSampler(spln *driver.Sampling) (driver.Sampler, error) {
	return resource.NewSampler(spln), nil
}

func (g *GPU) Limits() driver.Limits {
	return driver.Limits{
		MaxImage1D:        8192,
		MaxImage2D:        8192,
		MaxImageCube:      8192,
		MaxImage3D:        2048,
		MaxLayers:         2048,
		MaxDescHeaps:      8,
		MaxDBuffer:        64,
		MaxDImage:         64,
		MaxDConstant:      16,
		MaxDTexture:       64,
		MaxDSampler:       32,
		MaxDBufferRange:   1 << 30,
		MaxDConstantRange: 1 << 16,
		MaxColorTargets:   8,
		MaxFBSize:         [2]int{8192, 8192},
		MaxFBLayers:       2048,
		MaxPointSize:      256,
		MaxViewports:      16,
		MaxVertexIn:       16,
		MaxFragmentIn:     16,
		MaxDispatch:       [3]int{65535, 65535, 65535},
	}
}

// Queue returns the GPU's single queue, for tests and the
// present/event/fence surface that driver.GPU itself has no
// dedicated methods for (spec.md §4.11 is a superset of driver.GPU).
func (g *GPU) Queue() *queue.Queue { return g.queue }
