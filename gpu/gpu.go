// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gpu renders camera frames with webgpu: it owns the device,
// the textured-quad pipeline, and the presentable surface, and it
// implements surface retargeting between the two app windows.
package gpu

import (
	"fmt"
	"log/slog"

	"github.com/cogentcore/webgpu/wgpu"
)

// GPU bundles the webgpu instance, adapter, device and queue used by
// every [Context].
type GPU struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
}

// New acquires an adapter compatible with the given surface and opens
// a device on it. The instance must outlive the returned GPU.
func New(instance *wgpu.Instance, compatible *wgpu.Surface) (*GPU, error) {
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: compatible,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		return nil, fmt.Errorf("gpu: request device: %w", err)
	}
	slog.Info("gpu: device acquired")
	return &GPU{
		Instance: instance,
		Adapter:  adapter,
		Device:   device,
		Queue:    device.GetQueue(),
	}, nil
}

// NoDisplay opens a device without any surface, for offscreen and
// test use.
func NoDisplay() (*GPU, error) {
	instance := wgpu.CreateInstance(nil)
	return New(instance, nil)
}

// Release frees the device and adapter. The instance is the caller's
// to release.
func (g *GPU) Release() {
	if g.Device != nil {
		g.Device.Release()
		g.Device = nil
	}
	if g.Adapter != nil {
		g.Adapter.Release()
		g.Adapter = nil
	}
}
