// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/camglass/camglass/geom"
	"github.com/camglass/camglass/window"
)

// DefaultPauseWait bounds how long a mode switch waits for an
// in-flight present before proceeding.
const DefaultPauseWait = 25 * time.Millisecond

// Retargeter is the surface-switching subset of [gpu.Context].
type Retargeter interface {
	// Retarget points rendering at a new surface of the given size.
	Retarget(surface *wgpu.Surface, size image.Point) error

	// ClearTarget presents one transparent frame on the outgoing
	// surface so a hidden window does not keep a stale image.
	ClearTarget() error
}

// Controller orchestrates mode switches between the full-bleed host
// window and the thumbnail overlay. Window operations run on the
// caller's goroutine, which must be the platform event thread.
type Controller struct {
	State    *ModeState
	Renderer Retargeter

	// Host is the full-bleed background window; Overlay is the
	// thumbnail pinned to its top-right corner.
	Host    window.Window
	Overlay window.Window

	// NewSurface creates a fresh presentable surface over a window.
	NewSurface func(w window.Window) (*wgpu.Surface, error)

	// Placement sizes and anchors the overlay; zero value means
	// [geom.DefaultOverlayParams].
	Placement geom.OverlayParams

	// Aspect returns the camera aspect ratio used for overlay sizing.
	Aspect func() float32

	// PauseWait overrides DefaultPauseWait when positive.
	PauseWait time.Duration

	Log *slog.Logger
}

// ToggleMode switches rendering to the other window and returns the
// resulting mode. If a switch is already in progress the call is a
// no-op and returns the current mode. On failure the previous surface
// stays active and the mode is unchanged.
func (c *Controller) ToggleMode() (background bool, err error) {
	log := c.Log
	if log == nil {
		log = slog.Default()
	}
	if !c.State.TryBeginSwap() {
		log.Debug("render: mode switch already in progress")
		return c.State.Background(), nil
	}
	defer c.State.EndSwap()

	wait := c.PauseWait
	if wait <= 0 {
		wait = DefaultPauseWait
	}
	presented := c.State.PauseAndWait(wait)
	defer c.State.Resume()
	log.Debug("render: paused for mode switch", "inFlightPresent", presented)

	if err := c.Renderer.ClearTarget(); err != nil {
		// The outgoing window may keep its last image; not fatal.
		log.Warn("render: clear outgoing surface", "err", err)
	}

	toBackground := !c.State.Background()
	if toBackground {
		err = c.retargetToHost()
	} else {
		err = c.retargetToOverlay()
	}
	if err != nil {
		return c.State.Background(), err
	}
	c.State.SetBackground(toBackground)
	log.Info("render: mode switched", "background", toBackground)
	return toBackground, nil
}

func (c *Controller) retargetToOverlay() error {
	placement := c.Placement
	if placement.Fraction == 0 {
		placement = geom.DefaultOverlayParams()
	}
	pos, size := placement.Overlay(c.Host.OuterPosition(), c.Host.InnerSize(), c.aspect())
	c.Overlay.SetPosition(pos)
	c.Overlay.SetSize(size)

	surface, err := c.NewSurface(c.Overlay)
	if err != nil {
		return fmt.Errorf("render: overlay surface: %w", err)
	}
	if err := c.Renderer.Retarget(surface, size); err != nil {
		return err
	}
	c.Overlay.Show()
	return nil
}

func (c *Controller) retargetToHost() error {
	c.Overlay.Hide()
	surface, err := c.NewSurface(c.Host)
	if err != nil {
		return fmt.Errorf("render: host surface: %w", err)
	}
	return c.Renderer.Retarget(surface, c.Host.InnerSize())
}

// SyncOverlay repositions the overlay after the host window moved or
// resized. It only applies in thumbnail mode.
func (c *Controller) SyncOverlay() {
	if c.State.Background() || c.State.Switching() {
		return
	}
	placement := c.Placement
	if placement.Fraction == 0 {
		placement = geom.DefaultOverlayParams()
	}
	pos, _ := placement.Overlay(c.Host.OuterPosition(), c.Host.InnerSize(), c.aspect())
	c.Overlay.SetPosition(pos)
}

func (c *Controller) aspect() float32 {
	if c.Aspect != nil {
		return c.Aspect()
	}
	return geom.AspectOf(1, 1)
}
