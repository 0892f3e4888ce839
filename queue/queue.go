// Copyright 2024 The vkcpu Authors. All rights reserved.

// Package queue implements the Queue & Sync Primitives component
// (C11). The driver interface this backend implements
// (github.com/vkcpu/vkcpu/driver) has no native Fence, Semaphore or
// Queue type of its own: its only submission primitive is
// GPU.Commit(cb []CmdBuffer, ch chan<- error), a channel-based async
// completion signal. Fence, Semaphore and Event here are therefore a
// pure host synchronization layer built on top of that channel, not
// wrappers of any driver-native type, per spec.md §4.11.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vkcpu/vkcpu/command"
)

// WaitResult is the outcome of a timed wait.
type WaitResult int

const (
	WaitSignaled WaitResult = iota
	WaitTimeout
)

// Fence is a host-visible completion signal a queue submission can
// optionally carry: signaled once by the submission that owns it,
// reset explicitly before reuse.
type Fence struct {
	mu       sync.Mutex
	cond     *sync.Cond
	signaled bool
}

// NewFence creates a fence, initially unsignaled unless startSignaled
// is set.
func NewFence(startSignaled bool) *Fence {
	f := &Fence{signaled: startSignaled}
	f.cond = sync.NewCond(&f.mu)
	return f
}

func (f *Fence) Destroy() {}

// Signal marks f signaled and wakes every waiter.
func (f *Fence) Signal() {
	f.mu.Lock()
	f.signaled = true
	f.mu.Unlock()
	f.cond.Broadcast()
}

// Reset marks f unsignaled. The caller must ensure no submission
// still references f.
func (f *Fence) Reset() {
	f.mu.Lock()
	f.signaled = false
	f.mu.Unlock()
}

// Status reports whether f is currently signaled.
func (f *Fence) Status() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signaled
}

// Wait blocks until f is signaled or timeout elapses, returning
// WaitTimeout in the latter case. A zero or negative timeout polls
// once.
func (f *Fence) Wait(timeout time.Duration) WaitResult {
	return waitOn(&f.mu, f.cond, func() bool { return f.signaled }, timeout)
}

// waitOn blocks on cond until ready() is true or timeout elapses,
// using a helper goroutine to turn the cond-var wait into a
// time.After race since sync.Cond has no native timeout.
func waitOn(mu *sync.Mutex, cond *sync.Cond, ready func() bool, timeout time.Duration) WaitResult {
	mu.Lock()
	if ready() {
		mu.Unlock()
		return WaitSignaled
	}
	mu.Unlock()

	done := make(chan struct{})
	go func() {
		mu.Lock()
		for !ready() {
			cond.Wait()
		}
		mu.Unlock()
		close(done)
	}()

	if timeout <= 0 {
		mu.Lock()
		r := ready()
		mu.Unlock()
		if r {
			return WaitSignaled
		}
		return WaitTimeout
	}

	select {
	case <-done:
		return WaitSignaled
	case <-time.After(timeout):
		return WaitTimeout
	}
}

// WaitFences waits for fences in fs. If waitAll is true, every fence
// must signal before timeout; otherwise any single fence signaling is
// sufficient.
func WaitFences(fs []*Fence, waitAll bool, timeout time.Duration) WaitResult {
	if len(fs) == 0 {
		return WaitSignaled
	}
	deadline := time.Now().Add(timeout)
	if waitAll {
		for _, f := range fs {
			remaining := time.Until(deadline)
			if timeout <= 0 {
				remaining = 0
			}
			if f.Wait(remaining) == WaitTimeout {
				return WaitTimeout
			}
		}
		return WaitSignaled
	}
	result := make(chan WaitResult, len(fs))
	for _, f := range fs {
		f := f
		go func() { result <- f.Wait(timeout) }()
	}
	for range fs {
		if <-result == WaitSignaled {
			return WaitSignaled
		}
	}
	return WaitTimeout
}

// Semaphore provides cross-queue ordering: one queue's submission
// signals it, the next queue's submission waits on it before
// replaying its command buffers.
type Semaphore struct {
	mu       sync.Mutex
	cond     *sync.Cond
	signaled bool
}

func NewSemaphore() *Semaphore {
	s := &Semaphore{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *Semaphore) Destroy() {}

func (s *Semaphore) signal() {
	s.mu.Lock()
	s.signaled = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

func (s *Semaphore) wait() {
	s.mu.Lock()
	for !s.signaled {
		s.cond.Wait()
	}
	s.signaled = false
	s.mu.Unlock()
}

// Event is a manual-reset host signal: once Set, it stays signaled
// until an explicit Reset, per the decided open question on event
// semantics (distinct from Fence, which a submission resets
// implicitly on next use in some APIs — here neither resets
// implicitly).
type Event struct {
	mu       sync.Mutex
	cond     *sync.Cond
	signaled bool
}

func NewEvent() *Event {
	e := &Event{}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *Event) Destroy() {}

func (e *Event) Set() {
	e.mu.Lock()
	e.signaled = true
	e.mu.Unlock()
	e.cond.Broadcast()
}

func (e *Event) Reset() {
	e.mu.Lock()
	e.signaled = false
	e.mu.Unlock()
}

func (e *Event) Status() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signaled
}

func (e *Event) Wait(timeout time.Duration) WaitResult {
	return waitOn(&e.mu, e.cond, func() bool { return e.signaled }, timeout)
}

// WaitEvents waits for events in es with waitAll/waitAny semantics,
// mirroring WaitFences.
func WaitEvents(es []*Event, waitAll bool, timeout time.Duration) WaitResult {
	if len(es) == 0 {
		return WaitSignaled
	}
	if waitAll {
		deadline := time.Now().Add(timeout)
		for _, e := range es {
			remaining := time.Until(deadline)
			if timeout <= 0 {
				remaining = 0
			}
			if e.Wait(remaining) == WaitTimeout {
				return WaitTimeout
			}
		}
		return WaitSignaled
	}
	result := make(chan WaitResult, len(es))
	for _, e := range es {
		e := e
		go func() { result <- e.Wait(timeout) }()
	}
	for range es {
		if <-result == WaitSignaled {
			return WaitSignaled
		}
	}
	return WaitTimeout
}

// Submission is one queue submission: the command buffers to replay,
// the semaphores to wait on before starting and signal on
// completion, and an optional fence to signal last.
type Submission struct {
	Buffers   []*command.Buffer
	Wait      []*Semaphore
	Signal    []*Semaphore
	Fence     *Fence
}

// Queue serializes submissions against one worker, matching
// spec.md §4.11's "a queue holds a worker; submission replays
// command buffers on that worker, in submission order".
type Queue struct {
	mu      sync.Mutex
	pending sync.WaitGroup
}

// New creates an idle queue.
func New() *Queue {
	return &Queue{}
}

// Submit replays sub's command buffers synchronously on the calling
// goroutine after every wait semaphore signals, then signals sub's
// signal semaphores and fence. Submissions to the same Queue are
// serialized: a submission does not begin replay until the previous
// one on this Queue has finished, matching "per-queue ordering in
// submission order" (spec.md §5).
func (q *Queue) Submit(sub Submission) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, s := range sub.Wait {
		s.wait()
	}

	for _, cb := range sub.Buffers {
		if err := cb.MarkPending(); err != nil {
			return fmt.Errorf("queue: submit: %w", err)
		}
	}

	var firstErr error
	for _, cb := range sub.Buffers {
		if err := cb.Replay(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, cb := range sub.Buffers {
		if firstErr != nil {
			cb.MarkInvalid()
		} else {
			cb.MarkExecutable()
		}
	}

	if firstErr == nil {
		for _, s := range sub.Signal {
			s.signal()
		}
	}
	if sub.Fence != nil {
		sub.Fence.Signal()
	}
	return firstErr
}

// SubmitAsync behaves like Submit but runs replay on a worker
// goroutine and reports the result on ch, matching GPU.Commit's
// channel-based completion contract directly.
func (q *Queue) SubmitAsync(sub Submission, ch chan<- error) {
	q.pending.Add(1)
	go func() {
		defer q.pending.Done()
		err := q.Submit(sub)
		if ch != nil {
			ch <- err
		}
	}()
}

// WaitIdle blocks until every submission started on q has completed.
func (q *Queue) WaitIdle(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Present hands the backing memory of a swapchain image to an
// external presentation surface. The swapchain itself is external to
// this driver (spec.md §4.11: "the swapchain back-end is external
// given a pointer to the image's backing memory"); present is the
// hand-off point, not a rendering operation.
type Surface interface {
	Present(imageIndex int, data []byte, width, height int) error
}

// PresentImage waits for wait semaphores, then hands data (the
// backing bytes of the swapchain image at imageIndex) to surf.
func PresentImage(surf Surface, imageIndex int, data []byte, width, height int, wait []*Semaphore) error {
	for _, s := range wait {
		s.wait()
	}
	return surf.Present(imageIndex, data, width, height)
}
