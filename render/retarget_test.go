// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"errors"
	"image"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camglass/camglass/geom"
	"github.com/camglass/camglass/window"
)

// fakeWindow implements window.Window in memory.
type fakeWindow struct {
	pos     image.Point
	size    image.Point
	visible bool
}

func (w *fakeWindow) OuterPosition() image.Point { return w.pos }
func (w *fakeWindow) InnerSize() image.Point     { return w.size }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return &wgpu.SurfaceDescriptor{}
}
func (w *fakeWindow) SetPosition(pos image.Point)      { w.pos = pos }
func (w *fakeWindow) SetSize(size image.Point)         { w.size = size }
func (w *fakeWindow) Show()                            { w.visible = true }
func (w *fakeWindow) Hide()                            { w.visible = false }
func (w *fakeWindow) OnMoved(func(pos image.Point))    {}
func (w *fakeWindow) OnResized(func(size image.Point)) {}
func (w *fakeWindow) ShouldClose() bool                { return false }
func (w *fakeWindow) Destroy()                         {}

// fakeRetargeter records retarget and clear calls.
type fakeRetargeter struct {
	retargets []image.Point
	clears    int
	err       error
}

func (r *fakeRetargeter) Retarget(_ *wgpu.Surface, size image.Point) error {
	if r.err != nil {
		return r.err
	}
	r.retargets = append(r.retargets, size)
	return nil
}

func (r *fakeRetargeter) ClearTarget() error {
	r.clears++
	return nil
}

func newController(rt *fakeRetargeter, host, overlay *fakeWindow) *Controller {
	return &Controller{
		State:    NewModeState(true),
		Renderer: rt,
		Host:     host,
		Overlay:  overlay,
		NewSurface: func(window.Window) (*wgpu.Surface, error) {
			return nil, nil
		},
		Aspect:    func() float32 { return geom.AspectOf(1280, 720) },
		PauseWait: 1,
	}
}

func TestToggleModeRoundTrip(t *testing.T) {
	host := &fakeWindow{pos: image.Pt(100, 50), size: image.Pt(1000, 700), visible: true}
	overlay := &fakeWindow{}
	rt := &fakeRetargeter{}
	c := newController(rt, host, overlay)

	background, err := c.ToggleMode()
	require.NoError(t, err)
	assert.False(t, background)
	assert.False(t, c.State.Background())
	assert.True(t, overlay.visible)

	wantPos, wantSize := geom.DefaultOverlayParams().Overlay(host.pos, host.size, geom.AspectOf(1280, 720))
	assert.Equal(t, wantPos, overlay.pos)
	assert.Equal(t, wantSize, overlay.size)
	require.Len(t, rt.retargets, 1)
	assert.Equal(t, wantSize, rt.retargets[0])

	background, err = c.ToggleMode()
	require.NoError(t, err)
	assert.True(t, background)
	assert.False(t, overlay.visible)
	require.Len(t, rt.retargets, 2)
	assert.Equal(t, host.size, rt.retargets[1])

	assert.Equal(t, 2, rt.clears, "each switch clears the outgoing surface")
	assert.False(t, c.State.Paused(), "rendering resumes after the switch")
	assert.False(t, c.State.Switching())
}

func TestToggleModeDebounces(t *testing.T) {
	host := &fakeWindow{size: image.Pt(1000, 700)}
	rt := &fakeRetargeter{}
	c := newController(rt, host, &fakeWindow{})

	require.True(t, c.State.TryBeginSwap())
	background, err := c.ToggleMode()
	require.NoError(t, err)
	assert.True(t, background, "debounced call reports the current mode")
	assert.Empty(t, rt.retargets)
	c.State.EndSwap()
}

func TestToggleModeFailureKeepsMode(t *testing.T) {
	host := &fakeWindow{size: image.Pt(1000, 700)}
	rt := &fakeRetargeter{err: errors.New("format mismatch")}
	c := newController(rt, host, &fakeWindow{})

	background, err := c.ToggleMode()
	assert.Error(t, err)
	assert.True(t, background)
	assert.True(t, c.State.Background(), "mode unchanged on failure")
	assert.False(t, c.State.Paused(), "rendering resumes on failure")
	assert.False(t, c.State.Switching())
}

func TestSyncOverlayOnlyInThumbnailMode(t *testing.T) {
	host := &fakeWindow{pos: image.Pt(0, 0), size: image.Pt(1000, 700)}
	overlay := &fakeWindow{pos: image.Pt(-1, -1)}
	c := newController(&fakeRetargeter{}, host, overlay)

	c.SyncOverlay()
	assert.Equal(t, image.Pt(-1, -1), overlay.pos, "no-op in background mode")

	_, err := c.ToggleMode()
	require.NoError(t, err)

	host.pos = image.Pt(300, 200)
	c.SyncOverlay()
	wantPos, _ := geom.DefaultOverlayParams().Overlay(host.pos, host.size, geom.AspectOf(1280, 720))
	assert.Equal(t, wantPos, overlay.pos)
}
