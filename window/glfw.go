// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build (darwin && !ios) || windows || (linux && !android) || dragonfly || openbsd

package window

import (
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Init initializes the windowing system.
// IMPORTANT: must be called on the main initial thread!
func Init() error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("window: glfw init: %w", err)
	}
	return nil
}

// Terminate shuts the windowing system down; call last, on the main
// initial thread.
func Terminate() {
	glfw.Terminate()
}

// PollEvents pumps the native event queue; must run on the main
// thread.
func PollEvents() {
	glfw.PollEvents()
}

// WaitEventsTimeout blocks the main thread until an event arrives or
// the timeout in seconds elapses, then pumps the queue.
func WaitEventsTimeout(seconds float64) {
	glfw.WaitEventsTimeout(seconds)
}

// GlfwWindow implements Window over a glfw native window.
type GlfwWindow struct {
	win *glfw.Window
}

// NewBackground creates the visible full-bleed host window.
func NewBackground(size image.Point, title string) (*GlfwWindow, error) {
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	win, err := glfw.CreateWindow(size.X, size.Y, title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("window: create background: %w", err)
	}
	return &GlfwWindow{win: win}, nil
}

// NewOverlay creates the thumbnail overlay window, initially hidden.
// glfw has no mouse-passthrough attribute, so OverlayOptions.ClickThrough
// is not honored here.
func NewOverlay(size image.Point, opts OverlayOptions) (*GlfwWindow, error) {
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Decorated, boolHint(opts.Decorated))
	glfw.WindowHint(glfw.TransparentFramebuffer, boolHint(opts.Transparent))
	glfw.WindowHint(glfw.Floating, boolHint(opts.AlwaysOnTop))
	glfw.WindowHint(glfw.Resizable, boolHint(opts.Resizable))
	glfw.WindowHint(glfw.FocusOnShow, glfw.False)
	win, err := glfw.CreateWindow(size.X, size.Y, "", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("window: create overlay: %w", err)
	}
	return &GlfwWindow{win: win}, nil
}

func boolHint(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

func (w *GlfwWindow) OuterPosition() image.Point {
	x, y := w.win.GetPos()
	return image.Point{x, y}
}

func (w *GlfwWindow) InnerSize() image.Point {
	x, y := w.win.GetFramebufferSize()
	return image.Point{x, y}
}

func (w *GlfwWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w.win)
}

func (w *GlfwWindow) SetPosition(pos image.Point) {
	w.win.SetPos(pos.X, pos.Y)
}

func (w *GlfwWindow) SetSize(size image.Point) {
	w.win.SetSize(size.X, size.Y)
}

func (w *GlfwWindow) Show() { w.win.Show() }

func (w *GlfwWindow) Hide() { w.win.Hide() }

func (w *GlfwWindow) OnMoved(fn func(pos image.Point)) {
	w.win.SetPosCallback(func(_ *glfw.Window, x, y int) {
		fn(image.Point{x, y})
	})
}

func (w *GlfwWindow) OnResized(fn func(size image.Point)) {
	w.win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		fn(image.Point{width, height})
	})
}

// OnKey registers a callback for key presses on this window. Not part
// of the Window interface; only the host window listens for keys.
func (w *GlfwWindow) OnKey(fn func(key glfw.Key)) {
	w.win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Press {
			fn(key)
		}
	})
}

func (w *GlfwWindow) ShouldClose() bool { return w.win.ShouldClose() }

// Close flags the window for closing; the event loop exits on the next
// ShouldClose check. Not part of the Window interface.
func (w *GlfwWindow) Close() { w.win.SetShouldClose(true) }

func (w *GlfwWindow) Destroy() { w.win.Destroy() }
