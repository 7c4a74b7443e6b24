// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the viewer's TOML configuration.
package config

import (
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pelletier/go-toml/v2"

	"github.com/camglass/camglass/geom"
)

// Camera selects the capture device and its mode.
type Camera struct {
	// Device is the video capture device path.
	Device string `toml:"device"`

	Width  int `toml:"width"`
	Height int `toml:"height"`

	// Capacity is the frame channel buffer; frames beyond it are
	// dropped at the producer.
	Capacity int `toml:"capacity"`
}

// Overlay styles the thumbnail window.
type Overlay struct {
	// Fraction of the host width used for the overlay width.
	Fraction float32 `toml:"fraction"`

	// MarginPx insets the overlay from the host's top-right corner.
	MarginPx int `toml:"margin_px"`

	// CornerRadius in pixels.
	CornerRadius float32 `toml:"corner_radius"`
}

// Render tunes presentation.
type Render struct {
	// PresentMode is "fifo", "mailbox" or "immediate"; unsupported
	// modes fall back to the surface's first supported one.
	PresentMode string `toml:"present_mode"`
}

// Config is the full viewer configuration.
type Config struct {
	Camera  Camera  `toml:"camera"`
	Overlay Overlay `toml:"overlay"`
	Render  Render  `toml:"render"`
}

// Default returns the stock configuration: 720p YUYV capture and the
// standard thumbnail styling.
func Default() Config {
	return Config{
		Camera: Camera{
			Device:   "/dev/video0",
			Width:    1280,
			Height:   720,
			Capacity: 2,
		},
		Overlay: Overlay{
			Fraction:     geom.DefaultFraction,
			MarginPx:     geom.DefaultMarginPx,
			CornerRadius: geom.DefaultCornerRadius,
		},
		Render: Render{
			PresentMode: "fifo",
		},
	}
}

// Load reads a TOML file over the defaults. A missing path returns
// the defaults unmodified.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("config: camera resolution %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.Width%2 != 0 {
		return fmt.Errorf("config: camera width %d must be even for YUYV", c.Camera.Width)
	}
	if c.Overlay.Fraction <= 0 || c.Overlay.Fraction > 1 {
		return fmt.Errorf("config: overlay fraction %v out of (0, 1]", c.Overlay.Fraction)
	}
	switch c.Render.PresentMode {
	case "fifo", "mailbox", "immediate":
	default:
		return fmt.Errorf("config: present mode %q", c.Render.PresentMode)
	}
	return nil
}

// WgpuPresentMode maps the configured mode name to its wgpu value.
func (r Render) WgpuPresentMode() wgpu.PresentMode {
	switch r.PresentMode {
	case "mailbox":
		return wgpu.PresentModeMailbox
	case "immediate":
		return wgpu.PresentModeImmediate
	default:
		return wgpu.PresentModeFifo
	}
}
