// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	_ "embed"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/camglass/camglass/geom"
)

//go:embed shader.wgsl
var quadShader string

// quadUniformSize is the WGSL Quad uniform block size.
const quadUniformSize = uint64(unsafe.Sizeof(geom.QuadLayout{}))

// Options configures a render [Context].
type Options struct {
	// PresentMode requests a presentation mode; the surface's first
	// supported mode is used when the request is unavailable.
	PresentMode wgpu.PresentMode
}

// Context draws camera frames to one presentable surface at a time.
// The surface and its configuration live together in one
// [targetHolder] and are swapped as a single value, so a reader never
// observes a new surface paired with an old configuration. Callers
// still hold rendering paused across [Context.Retarget] so the
// outgoing surface is not mid-present when it is released.
type Context struct {
	gpu  *GPU
	opts Options

	sampler     *wgpu.Sampler
	frameLayout *wgpu.BindGroupLayout
	quadLayout  *wgpu.BindGroupLayout
	pipeline    *wgpu.RenderPipeline
	quadBuffer  *wgpu.Buffer
	quadGroup   *wgpu.BindGroup

	target targetHolder

	needsReconfigure atomic.Bool

	frameMu    sync.Mutex
	frameTex   *wgpu.Texture
	frameView  *wgpu.TextureView
	frameGroup *wgpu.BindGroup
}

// NewContext builds a render context over the given surface, creating
// the textured-quad pipeline against the surface's preferred sRGB
// format.
func NewContext(g *GPU, surface *wgpu.Surface, size image.Point, opts Options) (*Context, error) {
	caps := surface.GetCapabilities(g.Adapter)
	if len(caps.Formats) == 0 {
		return nil, fmt.Errorf("gpu: surface reports no formats")
	}
	cfg := wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      chooseFormat(caps.Formats),
		Width:       uint32(max(size.X, 1)),
		Height:      uint32(max(size.Y, 1)),
		PresentMode: choosePresentMode(caps.PresentModes, opts.PresentMode),
		AlphaMode:   chooseAlphaMode(caps.AlphaModes),
	}
	c := &Context{
		gpu:    g,
		opts:   opts,
		target: targetHolder{cur: renderTarget{surface: surface, config: cfg}},
	}
	surface.Configure(g.Adapter, g.Device, &cfg)

	if err := c.initPipeline(); err != nil {
		return nil, err
	}
	slog.Info("gpu: context ready",
		"size", size,
		"format", cfg.Format,
		"presentMode", cfg.PresentMode,
		"alphaMode", cfg.AlphaMode)
	return c, nil
}

func (c *Context) initPipeline() error {
	dev := c.gpu.Device

	shader, err := dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "camera-quad",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: quadShader},
	})
	if err != nil {
		return fmt.Errorf("gpu: shader: %w", err)
	}
	defer shader.Release()

	c.sampler, err = dev.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("gpu: sampler: %w", err)
	}

	c.frameLayout, err = dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "frame-bind-layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: frame bind layout: %w", err)
	}

	c.quadLayout, err = dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "quad-bind-layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: quad bind layout: %w", err)
	}

	c.quadBuffer, err = dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "quad-uniform",
		Size:  quadUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: quad uniform: %w", err)
	}

	c.quadGroup, err = dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "quad-bind-group",
		Layout: c.quadLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: c.quadBuffer, Size: quadUniformSize},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: quad bind group: %w", err)
	}

	layout, err := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "camera-quad-layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{c.frameLayout, c.quadLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: pipeline layout: %w", err)
	}
	defer layout.Release()

	c.pipeline, err = dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "camera-quad",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: c.target.load().config.Format,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: pipeline: %w", err)
	}
	return nil
}

// TargetSize returns the surface configuration's current size.
func (c *Context) TargetSize() image.Point {
	t := c.target.load()
	return image.Pt(int(t.config.Width), int(t.config.Height))
}

// Resize records a new target size and marks the surface for
// reconfiguration. Zero sizes are ignored; a minimized window keeps
// the previous configuration.
func (c *Context) Resize(size image.Point) {
	if size.X <= 0 || size.Y <= 0 {
		return
	}
	var changed bool
	c.target.update(func(t *renderTarget) {
		changed = t.config.Width != uint32(size.X) || t.config.Height != uint32(size.Y)
		t.config.Width = uint32(size.X)
		t.config.Height = uint32(size.Y)
	})
	if changed {
		c.needsReconfigure.Store(true)
	}
}

// RequestReconfigure marks the surface for reconfiguration before the
// next acquire, without changing the configured size. Window moves
// use this: the swapchain can go stale across monitors.
func (c *Context) RequestReconfigure() {
	c.needsReconfigure.Store(true)
}

// ApplyPendingReconfigure reconfigures the surface if a resize or
// move flagged it. Call once per loop iteration, before acquiring.
func (c *Context) ApplyPendingReconfigure() {
	if c.needsReconfigure.Swap(false) {
		c.reconfigure()
	}
}

func (c *Context) reconfigure() {
	c.target.view(func(t renderTarget) {
		cfg := t.config
		t.surface.Configure(c.gpu.Adapter, c.gpu.Device, &cfg)
	})
}

// UploadFrame copies a tightly packed RGBA image into a fresh GPU
// texture and rebinds it as the quad's source. rgba must hold exactly
// 4*width*height bytes.
func (c *Context) UploadFrame(rgba []byte, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("gpu: invalid frame size %dx%d", width, height)
	}
	if len(rgba) != 4*width*height {
		return fmt.Errorf("gpu: frame payload %d bytes, want %d", len(rgba), 4*width*height)
	}
	dev := c.gpu.Device

	tex, err := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label: "camera-frame",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: frame texture: %w", err)
	}
	c.gpu.Queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		rgba,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(4 * width),
			RowsPerImage: uint32(height),
		},
		&wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
	)
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("gpu: frame view: %w", err)
	}
	group, err := dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "frame-bind-group",
		Layout: c.frameLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: c.sampler},
		},
	})
	if err != nil {
		view.Release()
		tex.Release()
		return fmt.Errorf("gpu: frame bind group: %w", err)
	}

	c.frameMu.Lock()
	old := [3]interface{ Release() }{c.frameGroup, c.frameView, c.frameTex}
	c.frameTex, c.frameView, c.frameGroup = tex, view, group
	c.frameMu.Unlock()
	for _, r := range old {
		if r != nil {
			r.Release()
		}
	}
	return nil
}

// UpdateQuadLayout uploads the quad placement uniform.
func (c *Context) UpdateQuadLayout(q geom.QuadLayout) {
	c.gpu.Queue.WriteBuffer(c.quadBuffer, 0, wgpu.ToBytes([]geom.QuadLayout{q}))
}

// AcquirePresentable returns the surface's next presentable texture.
// A failed acquire (outdated or lost swapchain) reconfigures the
// surface and retries once; if the retry also fails the error is
// returned and the caller skips this frame.
func (c *Context) AcquirePresentable() (*wgpu.Texture, error) {
	var tex *wgpu.Texture
	var err error
	c.target.view(func(t renderTarget) {
		tex, err = t.surface.GetCurrentTexture()
		if err == nil {
			return
		}
		slog.Debug("gpu: acquire failed, reconfiguring", "err", err)
		cfg := t.config
		t.surface.Configure(c.gpu.Adapter, c.gpu.Device, &cfg)
		tex, err = t.surface.GetCurrentTexture()
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: acquire after reconfigure: %w", err)
	}
	return tex, nil
}

// SubmitDraw records one pass over the presentable texture: clear to
// transparent, draw the camera quad if a frame has been uploaded,
// submit, present. The surface owns the presentable texture; only the
// view created here is released.
func (c *Context) SubmitDraw(target *wgpu.Texture) error {
	view, err := target.CreateView(nil)
	if err != nil {
		return fmt.Errorf("gpu: target view: %w", err)
	}
	defer view.Release()

	cmd, err := c.gpu.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("gpu: command encoder: %w", err)
	}
	defer cmd.Release()

	rp := cmd.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	c.frameMu.Lock()
	group := c.frameGroup
	if group != nil {
		rp.SetPipeline(c.pipeline)
		rp.SetBindGroup(0, group, nil)
		rp.SetBindGroup(1, c.quadGroup, nil)
		rp.Draw(6, 1, 0, 0)
	}
	rp.End()
	rp.Release()
	c.frameMu.Unlock()

	cmdBuffer, err := cmd.Finish(nil)
	if err != nil {
		return fmt.Errorf("gpu: finish: %w", err)
	}
	defer cmdBuffer.Release()
	c.gpu.Queue.Submit(cmdBuffer)

	c.target.view(func(t renderTarget) { t.surface.Present() })
	return nil
}

// Present acquires the next presentable texture and draws the current
// frame to it. An error means this frame is skipped.
func (c *Context) Present() error {
	tex, err := c.AcquirePresentable()
	if err != nil {
		return err
	}
	return c.SubmitDraw(tex)
}

// ClearTarget presents one transparent frame on the current surface.
// Used on the outgoing surface during a retarget so the hidden window
// does not reappear showing a stale camera image.
func (c *Context) ClearTarget() error {
	tex, err := c.AcquirePresentable()
	if err != nil {
		return err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		return fmt.Errorf("gpu: target view: %w", err)
	}
	defer view.Release()

	cmd, err := c.gpu.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("gpu: command encoder: %w", err)
	}
	defer cmd.Release()
	rp := cmd.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	rp.End()
	rp.Release()
	cmdBuffer, err := cmd.Finish(nil)
	if err != nil {
		return fmt.Errorf("gpu: finish: %w", err)
	}
	defer cmdBuffer.Release()
	c.gpu.Queue.Submit(cmdBuffer)

	c.target.view(func(t renderTarget) { t.surface.Present() })
	return nil
}

// Retarget points the context at a new surface of the given size.
// Surface and configuration are swapped as a single value; the caller
// must hold rendering paused so the previous surface is not mid-use
// when it is released.
func (c *Context) Retarget(surface *wgpu.Surface, size image.Point) error {
	caps := surface.GetCapabilities(c.gpu.Adapter)
	if len(caps.Formats) == 0 {
		return fmt.Errorf("gpu: retarget surface reports no formats")
	}
	format := chooseFormat(caps.Formats)
	pipelineFormat := c.target.load().config.Format
	if format != pipelineFormat {
		return fmt.Errorf("gpu: retarget surface format %v, pipeline built for %v",
			format, pipelineFormat)
	}
	cfg := wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(max(size.X, 1)),
		Height:      uint32(max(size.Y, 1)),
		PresentMode: choosePresentMode(caps.PresentModes, c.opts.PresentMode),
		AlphaMode:   chooseAlphaMode(caps.AlphaModes),
	}
	surface.Configure(c.gpu.Adapter, c.gpu.Device, &cfg)

	old := c.target.swap(renderTarget{surface: surface, config: cfg})
	c.needsReconfigure.Store(false)
	if old.surface != nil {
		old.surface.Release()
	}
	slog.Info("gpu: surface retargeted", "size", size)
	return nil
}

// Release frees all GPU resources including the current surface.
func (c *Context) Release() {
	c.frameMu.Lock()
	for _, r := range []interface{ Release() }{c.frameGroup, c.frameView, c.frameTex} {
		if r != nil {
			r.Release()
		}
	}
	c.frameGroup, c.frameView, c.frameTex = nil, nil, nil
	c.frameMu.Unlock()

	for _, r := range []interface{ Release() }{
		c.quadGroup, c.quadBuffer, c.pipeline,
		c.quadLayout, c.frameLayout, c.sampler,
	} {
		if r != nil {
			r.Release()
		}
	}
	old := c.target.swap(renderTarget{})
	if old.surface != nil {
		old.surface.Release()
	}
}

// chooseFormat prefers the first sRGB format, falling back to the
// first supported one.
func chooseFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, f := range formats {
		if f == wgpu.TextureFormatRGBA8UnormSrgb || f == wgpu.TextureFormatBGRA8UnormSrgb {
			return f
		}
	}
	return formats[0]
}

// chooseAlphaMode prefers premultiplied compositing so the overlay
// window's transparent corners composite correctly.
func chooseAlphaMode(modes []wgpu.CompositeAlphaMode) wgpu.CompositeAlphaMode {
	for _, m := range modes {
		if m == wgpu.CompositeAlphaModePremultiplied {
			return m
		}
	}
	if len(modes) == 0 {
		return wgpu.CompositeAlphaModeAuto
	}
	return modes[0]
}

// choosePresentMode uses the requested mode when the surface supports
// it, otherwise the surface's first mode, defaulting to FIFO.
func choosePresentMode(modes []wgpu.PresentMode, want wgpu.PresentMode) wgpu.PresentMode {
	for _, m := range modes {
		if m == want {
			return m
		}
	}
	if len(modes) == 0 {
		return wgpu.PresentModeFifo
	}
	return modes[0]
}
