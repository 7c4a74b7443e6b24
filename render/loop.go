// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/camglass/camglass/camera"
	"github.com/camglass/camglass/geom"
	"github.com/camglass/camglass/yuv"
)

// Renderer is the per-frame surface the loop draws through. It is the
// frame-path subset of [gpu.Context]; tests substitute a fake.
type Renderer interface {
	// ApplyPendingReconfigure reconfigures the surface if a window
	// move or resize flagged it.
	ApplyPendingReconfigure()

	// TargetSize is the current surface size in pixels.
	TargetSize() image.Point

	// UploadFrame replaces the quad's source texture with the given
	// tightly packed RGBA image.
	UploadFrame(rgba []byte, width, height int) error

	// UpdateQuadLayout uploads the quad placement uniform.
	UpdateQuadLayout(q geom.QuadLayout)

	// Present acquires, draws and presents one frame; an error skips
	// the frame.
	Present() error
}

// Loop consumes camera frames and presents them through a Renderer,
// honoring the shared [ModeState]: paused iterations drop the frame
// without touching the surface.
type Loop struct {
	State    *ModeState
	Renderer Renderer

	// ThumbRadius is the corner radius applied in thumbnail mode;
	// background mode always renders square corners.
	ThumbRadius float32

	Log *slog.Logger

	lastFrame time.Time
}

// Run drives the loop until the frame channel closes (graceful end,
// returns nil), the context is cancelled, or a frame violates the
// stream contract. Upload, acquire and present failures skip the
// frame and keep the loop alive.
func (l *Loop) Run(ctx context.Context, frames <-chan camera.Frame) error {
	log := l.Log
	if log == nil {
		log = slog.Default()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				log.Info("render: frame stream ended")
				return nil
			}
			if l.State.Paused() {
				continue
			}
			if err := frame.Validate(); err != nil {
				return fmt.Errorf("render: frame %d: %w", frame.Seq, err)
			}
			now := time.Now()
			if !l.lastFrame.IsZero() {
				log.Debug("render: frame interval",
					"seq", frame.Seq, "interval", now.Sub(l.lastFrame))
			}
			l.lastFrame = now
			if err := l.present(frame, log); err != nil {
				return err
			}
			l.State.MarkFrame()
		}
	}
}

func (l *Loop) present(frame camera.Frame, log *slog.Logger) error {
	l.Renderer.ApplyPendingReconfigure()

	rgba, err := yuv.Convert(frame.Data, frame.Width, frame.Height)
	if err != nil {
		return fmt.Errorf("render: convert frame %d: %w", frame.Seq, err)
	}

	size := l.Renderer.TargetSize()
	quad := geom.FitQuad(frame.Width, frame.Height, size.X, size.Y)
	if !l.State.Background() {
		quad.Radius = l.ThumbRadius
	}
	l.Renderer.UpdateQuadLayout(quad)

	if err := l.Renderer.UploadFrame(rgba, frame.Width, frame.Height); err != nil {
		log.Warn("render: upload failed, skipping frame",
			"seq", frame.Seq, "traceID", frame.TraceID, "err", err)
		return nil
	}
	if err := l.Renderer.Present(); err != nil {
		log.Debug("render: present skipped",
			"seq", frame.Seq, "traceID", frame.TraceID, "err", err)
	}
	return nil
}
