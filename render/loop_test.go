// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camglass/camglass/camera"
	"github.com/camglass/camglass/geom"
)

// fakeRenderer records the frame-path calls the loop makes.
type fakeRenderer struct {
	size image.Point

	reconfigures int
	uploads      int
	presents     int
	layouts      []geom.QuadLayout
	lastUpload   []byte

	uploadErr  error
	presentErr error
}

func (f *fakeRenderer) ApplyPendingReconfigure() { f.reconfigures++ }
func (f *fakeRenderer) TargetSize() image.Point  { return f.size }

func (f *fakeRenderer) UploadFrame(rgba []byte, width, height int) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads++
	f.lastUpload = rgba
	return nil
}

func (f *fakeRenderer) UpdateQuadLayout(q geom.QuadLayout) {
	f.layouts = append(f.layouts, q)
}

func (f *fakeRenderer) Present() error {
	if f.presentErr != nil {
		return f.presentErr
	}
	f.presents++
	return nil
}

func runSynth(t *testing.T, l *Loop, cfg camera.SynthConfig) error {
	t.Helper()
	src := camera.NewSynthStream(cfg)
	frames, err := src.Start(context.Background())
	require.NoError(t, err)
	return l.Run(context.Background(), frames)
}

func TestLoopPresentsAllFrames(t *testing.T) {
	fr := &fakeRenderer{size: image.Pt(800, 600)}
	l := &Loop{State: NewModeState(true), Renderer: fr}

	err := runSynth(t, l, camera.SynthConfig{Width: 64, Height: 48, Fill: 128, Count: 10})
	require.NoError(t, err)

	assert.Equal(t, 10, fr.uploads)
	assert.Equal(t, 10, fr.presents)
	require.Len(t, fr.layouts, 10)
	for _, q := range fr.layouts {
		assert.True(t, geom.NearlyEqual(geom.AspectOf(64, 48), q.EffectiveAspect(geom.AspectOf(800, 600))))
		assert.Zero(t, q.Radius, "background mode has square corners")
	}
	assert.Equal(t, uint64(10), l.State.Generation())
}

func TestLoopEndToEndSolidColor(t *testing.T) {
	fr := &fakeRenderer{size: image.Pt(640, 480)}
	l := &Loop{State: NewModeState(true), Renderer: fr}

	src := camera.NewSynthStream(camera.SynthConfig{Width: 640, Height: 480, Fill: 128, Count: 10})
	frames, err := src.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, l.Run(context.Background(), frames))

	assert.Equal(t, 10, fr.presents)
	require.NotNil(t, fr.lastUpload)
	// Uniform Y=U=V=128 converts to solid mid-gray.
	for i := 0; i < 16; i += 4 {
		assert.Equal(t, []byte{130, 130, 130, 255}, fr.lastUpload[i:i+4])
	}
}

func TestLoopPausedDropsFrames(t *testing.T) {
	fr := &fakeRenderer{size: image.Pt(800, 600)}
	state := NewModeState(true)
	state.PauseAndWait(time.Millisecond)
	l := &Loop{State: state, Renderer: fr}

	err := runSynth(t, l, camera.SynthConfig{Width: 64, Height: 48, Count: 5})
	require.NoError(t, err)
	assert.Zero(t, fr.uploads)
	assert.Zero(t, fr.presents)
	assert.Zero(t, state.Generation())
}

func TestLoopThumbnailRadius(t *testing.T) {
	fr := &fakeRenderer{size: image.Pt(512, 288)}
	l := &Loop{State: NewModeState(false), Renderer: fr, ThumbRadius: geom.DefaultCornerRadius}

	err := runSynth(t, l, camera.SynthConfig{Width: 64, Height: 48, Count: 1})
	require.NoError(t, err)
	require.Len(t, fr.layouts, 1)
	assert.Equal(t, float32(geom.DefaultCornerRadius), fr.layouts[0].Radius)
}

func TestLoopPresentFailureSkipsFrame(t *testing.T) {
	fr := &fakeRenderer{size: image.Pt(800, 600), presentErr: errors.New("surface outdated")}
	l := &Loop{State: NewModeState(true), Renderer: fr}

	err := runSynth(t, l, camera.SynthConfig{Width: 64, Height: 48, Count: 3})
	require.NoError(t, err, "present failures keep the loop alive")
	assert.Equal(t, 3, fr.uploads)
	assert.Zero(t, fr.presents)
}

func TestLoopUploadFailureSkipsFrame(t *testing.T) {
	fr := &fakeRenderer{size: image.Pt(800, 600), uploadErr: errors.New("device lost")}
	l := &Loop{State: NewModeState(true), Renderer: fr}

	err := runSynth(t, l, camera.SynthConfig{Width: 64, Height: 48, Count: 3})
	require.NoError(t, err)
	assert.Zero(t, fr.presents)
}

func TestLoopContractViolationEndsLoop(t *testing.T) {
	fr := &fakeRenderer{size: image.Pt(800, 600)}
	l := &Loop{State: NewModeState(true), Renderer: fr}

	frames := make(chan camera.Frame, 1)
	frames <- camera.Frame{Seq: 1, Width: 64, Height: 48, Data: make([]byte, 7)}
	close(frames)

	err := l.Run(context.Background(), frames)
	assert.Error(t, err)
	assert.Zero(t, fr.uploads)
}

func TestLoopContextCancel(t *testing.T) {
	fr := &fakeRenderer{size: image.Pt(800, 600)}
	l := &Loop{State: NewModeState(true), Renderer: fr}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Run(ctx, make(chan camera.Frame))
	assert.ErrorIs(t, err, context.Canceled)
}
