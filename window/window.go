// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package window abstracts the two native windows the viewer renders
// into: a full-bleed background window and a small overlay thumbnail
// pinned to the host window's top-right corner.
package window

import (
	"image"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window is a native window that can host a webgpu surface.
type Window interface {
	// OuterPosition returns the window's top-left corner in screen
	// coordinates.
	OuterPosition() image.Point

	// InnerSize returns the drawable client area size in pixels.
	InnerSize() image.Point

	// SurfaceDescriptor returns the platform descriptor used to
	// create a webgpu surface over this window.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	SetPosition(pos image.Point)
	SetSize(size image.Point)

	Show()
	Hide()

	// OnMoved registers a callback invoked from the event thread when
	// the window is repositioned.
	OnMoved(fn func(pos image.Point))

	// OnResized registers a callback invoked from the event thread
	// when the drawable area changes size.
	OnResized(fn func(size image.Point))

	// ShouldClose reports whether the user has requested the window
	// to close.
	ShouldClose() bool

	// Destroy releases the native window. The surface created over it
	// must be released first.
	Destroy()
}

// OverlayOptions is the window style set for the thumbnail overlay:
// borderless, transparent, always on top, and not user-resizable.
type OverlayOptions struct {
	Decorated   bool
	Transparent bool
	AlwaysOnTop bool
	Resizable   bool

	// ClickThrough lets pointer events pass through to windows
	// beneath the overlay. Best effort: not every platform backend
	// supports it.
	ClickThrough bool
}

// DefaultOverlayOptions is the style the thumbnail overlay uses.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{
		Decorated:    false,
		Transparent:  true,
		AlwaysOnTop:  true,
		Resizable:    false,
		ClickThrough: true,
	}
}

// Styler is an optional capability for windows that support extra
// chrome styling beyond the portable option set.
type Styler interface {
	// SetCornerRadius rounds the window corners by the given pixel
	// radius; 0 restores square corners.
	SetCornerRadius(px float32)
}
