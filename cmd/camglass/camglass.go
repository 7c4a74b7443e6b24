// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Camglass shows a live camera feed either full-bleed in its main
// window or as a small always-on-top thumbnail pinned to the main
// window's top-right corner. Press T to switch modes, Escape to quit.
package main

import (
	"context"
	"errors"
	"flag"
	"image"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/camglass/camglass/camera"
	"github.com/camglass/camglass/config"
	"github.com/camglass/camglass/geom"
	"github.com/camglass/camglass/gpu"
	"github.com/camglass/camglass/render"
	"github.com/camglass/camglass/window"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	synth := flag.Bool("synth", false, "use a synthetic frame source instead of the camera")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*configPath, *synth); err != nil {
		slog.Error("camglass failed", "err", err)
		os.Exit(1)
	}
}

func init() {
	// glfw event handling must run on the main OS thread.
	runtime.LockOSThread()
}

func run(configPath string, synth bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := window.Init(); err != nil {
		return err
	}
	defer window.Terminate()

	host, err := window.NewBackground(image.Pt(cfg.Camera.Width, cfg.Camera.Height), "Camglass")
	if err != nil {
		return err
	}
	defer host.Destroy()

	overlay, err := window.NewOverlay(image.Pt(1, 1), window.DefaultOverlayOptions())
	if err != nil {
		return err
	}
	defer overlay.Destroy()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()
	surface := instance.CreateSurface(host.SurfaceDescriptor())

	g, err := gpu.New(instance, surface)
	if err != nil {
		return err
	}
	defer g.Release()

	rctx, err := gpu.NewContext(g, surface, host.InnerSize(), gpu.Options{
		PresentMode: cfg.Render.WgpuPresentMode(),
	})
	if err != nil {
		return err
	}
	defer rctx.Release()

	state := render.NewModeState(true)
	aspect := func() float32 { return geom.AspectOf(cfg.Camera.Width, cfg.Camera.Height) }

	controller := &render.Controller{
		State:    state,
		Renderer: rctx,
		Host:     host,
		Overlay:  overlay,
		NewSurface: func(w window.Window) (*wgpu.Surface, error) {
			return instance.CreateSurface(w.SurfaceDescriptor()), nil
		},
		Placement: geom.OverlayParams{
			Fraction: cfg.Overlay.Fraction,
			MarginPx: cfg.Overlay.MarginPx,
		},
		Aspect: aspect,
	}

	host.OnMoved(func(image.Point) {
		if state.Background() {
			rctx.RequestReconfigure()
		}
		controller.SyncOverlay()
	})
	host.OnResized(func(size image.Point) {
		if state.Background() {
			rctx.Resize(size)
		}
		controller.SyncOverlay()
	})
	overlay.OnMoved(func(image.Point) {
		if !state.Background() {
			rctx.RequestReconfigure()
		}
	})
	overlay.OnResized(func(size image.Point) {
		if !state.Background() {
			rctx.Resize(size)
		}
	})
	host.OnKey(func(key glfw.Key) {
		switch key {
		case glfw.KeyT:
			if _, err := controller.ToggleMode(); err != nil {
				slog.Error("mode switch failed", "err", err)
			}
		case glfw.KeyEscape:
			host.Close()
		}
	})

	stream := newStream(cfg, synth)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	frames, err := stream.Start(ctx)
	if err != nil {
		return err
	}
	defer stream.Stop()

	loop := &render.Loop{
		State:       state,
		Renderer:    rctx,
		ThumbRadius: cfg.Overlay.CornerRadius,
	}
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- loop.Run(ctx, frames)
	}()

	for !host.ShouldClose() {
		select {
		case err := <-loopDone:
			return err
		default:
		}
		window.WaitEventsTimeout(0.1)
	}

	cancel()
	stream.Stop()
	select {
	case err := <-loopDone:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	case <-time.After(2 * time.Second):
		slog.Warn("render loop did not exit cleanly")
		return nil
	}
}

func newStream(cfg config.Config, synth bool) camera.Stream {
	if synth {
		return camera.NewSynthStream(camera.SynthConfig{
			Width:    cfg.Camera.Width,
			Height:   cfg.Camera.Height,
			Fill:     128,
			Interval: 33 * time.Millisecond,
			Capacity: cfg.Camera.Capacity,
		})
	}
	return camera.NewGstStream(camera.GstConfig{
		Device:   cfg.Camera.Device,
		Width:    cfg.Camera.Width,
		Height:   cfg.Camera.Height,
		Capacity: cfg.Camera.Capacity,
	})
}
