// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package geom computes overlay window placement and the
// normalized-device-coordinate layout of the camera quad.
// All functions are pure: identical inputs yield identical outputs.
package geom

import (
	"image"

	"github.com/chewxy/math32"
)

// Defaults for overlay placement, matching the thumbnail styling of
// the desktop app.
const (
	DefaultFraction     = 0.4
	DefaultMarginPx     = 20
	DefaultCornerRadius = 12
)

// OverlayParams controls how the thumbnail overlay is sized and
// anchored within its host window.
type OverlayParams struct {
	// Fraction of the host window's inner width used for the overlay width.
	Fraction float32

	// MarginPx insets the overlay from the host's top-right corner.
	MarginPx int
}

// DefaultOverlayParams returns the standard thumbnail placement.
func DefaultOverlayParams() OverlayParams {
	return OverlayParams{Fraction: DefaultFraction, MarginPx: DefaultMarginPx}
}

// Overlay maps the host window's outer position and inner pixel size,
// plus the desired camera aspect ratio, to the overlay window's
// position and size. The overlay is anchored at the host's top-right
// corner, inset by MarginPx on each axis. Zero or negative results
// are clamped to 1 px to avoid degenerate windows.
func (p OverlayParams) Overlay(hostPos image.Point, hostSize image.Point, aspect float32) (pos image.Point, size image.Point) {
	if aspect <= 0 {
		aspect = 1
	}
	w := int(float32(hostSize.X) * p.Fraction)
	h := int(float32(w) / aspect)
	w = max(w, 1)
	h = max(h, 1)

	pos.X = hostPos.X + hostSize.X - w - p.MarginPx
	pos.Y = hostPos.Y + p.MarginPx
	return pos, image.Pt(w, h)
}

// QuadLayout is the normalized-device-coordinate placement of the
// camera quad, uploaded as the per-frame shader uniform. The struct
// layout matches the WGSL uniform block (32 bytes, 16-byte aligned).
type QuadLayout struct {
	// Position is the quad center in NDC, origin-centered by default.
	Position [2]float32

	// Size is the quad extent in NDC; the full target is (2, 2).
	Size [2]float32

	// Radius is the corner radius in pixels, 0 for square corners.
	Radius float32

	// Aspect is the camera aspect ratio the quad presents.
	Aspect float32

	// Viewport is the render target size in pixels, used by the
	// shader to evaluate the corner mask in pixel space.
	Viewport [2]float32
}

// FitQuad sizes a centered quad so the camera image fills the render
// target while preserving the camera aspect ratio. A camera relatively
// wider than the target spans the full width and is letterboxed top
// and bottom; a relatively taller camera spans the full height and is
// pillarboxed left and right. Dimensions are clamped to a 1 px minimum
// before any division.
func FitQuad(cameraW, cameraH, targetW, targetH int) QuadLayout {
	cw := float32(max(cameraW, 1))
	ch := float32(max(cameraH, 1))
	tw := float32(max(targetW, 1))
	th := float32(max(targetH, 1))

	camAspect := cw / ch
	tgtAspect := tw / th

	var sx, sy float32
	if camAspect > tgtAspect {
		sx = 2
		sy = 2 / camAspect * tgtAspect
	} else {
		sx = 2 * camAspect / tgtAspect
		sy = 2
	}
	return QuadLayout{
		Size:     [2]float32{sx, sy},
		Aspect:   camAspect,
		Viewport: [2]float32{tw, th},
	}
}

// EffectiveAspect returns the aspect ratio the layout presents on a
// target with the given aspect ratio. For a layout produced by
// [FitQuad] this equals the camera aspect ratio.
func (q QuadLayout) EffectiveAspect(targetAspect float32) float32 {
	if q.Size[1] == 0 {
		return 0
	}
	return q.Size[0] / q.Size[1] * targetAspect
}

// AspectOf is a convenience for the float32 width/height ratio with
// the same 1 px floor as the layout functions.
func AspectOf(w, h int) float32 {
	return float32(max(w, 1)) / float32(max(h, 1))
}

// NearlyEqual reports whether two aspect ratios agree within a
// relative tolerance, absorbing float32 rounding in the fit math.
func NearlyEqual(a, b float32) bool {
	diff := math32.Abs(a - b)
	scale := math32.Max(math32.Abs(a), math32.Abs(b))
	return diff <= 1e-5*math32.Max(scale, 1)
}
