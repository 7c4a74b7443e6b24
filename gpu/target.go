// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// renderTarget pairs a surface with the configuration it was last
// configured with. The two always travel together as one value, so a
// reader can never observe a surface paired with another surface's
// configuration.
type renderTarget struct {
	surface *wgpu.Surface
	config  wgpu.SurfaceConfiguration
}

// targetHolder guards the current render target. Every read and the
// retarget swap go through it.
type targetHolder struct {
	mu  sync.RWMutex
	cur renderTarget
}

func (h *targetHolder) load() renderTarget {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cur
}

// view runs fn under the read lock so the surface cannot be released
// while fn uses it.
func (h *targetHolder) view(fn func(t renderTarget)) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn(h.cur)
}

// swap installs a new target and returns the previous one.
func (h *targetHolder) swap(t renderTarget) renderTarget {
	h.mu.Lock()
	defer h.mu.Unlock()
	old := h.cur
	h.cur = t
	return old
}

// update mutates the current target in place under the write lock.
func (h *targetHolder) update(fn func(t *renderTarget)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.cur)
}
