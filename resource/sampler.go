// Copyright 2024 The vkcpu Authors. All rights reserved.

package resource

import "github.com/vkcpu/vkcpu/driver"

// Sampler implements driver.Sampler: pure state, no backing storage.
type Sampler struct {
	Spln driver.Sampling
}

// NewSampler captures spln's filter/address-mode state.
func NewSampler(spln *driver.Sampling) *Sampler {
	return &Sampler{Spln: *spln}
}

// Destroy is a no-op; Sampler owns no resources.
func (s *Sampler) Destroy() {}
