// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// GstConfig configures the GStreamer capture pipeline.
type GstConfig struct {
	// Device is the capture device path, e.g. /dev/video0.
	// Empty selects the default device.
	Device string

	// Width and Height request a capture resolution. Values above
	// MaxFrameSize are reduced to it.
	Width  int
	Height int

	// Capacity is the frame channel buffer size. 0 means unbuffered;
	// a full channel drops the newest frame rather than blocking the
	// capture callback.
	Capacity int
}

// GstStream captures packed YUYV frames from a V4L2 device through a
// v4l2src → capsfilter(YUY2) → appsink pipeline. The camera's native
// packed format is passed through untouched; colorspace conversion
// happens downstream on the CPU.
type GstStream struct {
	cfg GstConfig

	mu       sync.Mutex
	pipeline *gst.Pipeline
	sink     *app.Sink
	frames   chan Frame
	cancel   context.CancelFunc
	started  bool
	stopped  bool

	seq     atomic.Uint64
	dropped atomic.Uint64
}

// NewGstStream returns an unstarted stream for the given config.
func NewGstStream(cfg GstConfig) *GstStream {
	if cfg.Width <= 0 || cfg.Width > MaxFrameSize.Width {
		cfg.Width = MaxFrameSize.Width
	}
	if cfg.Height <= 0 || cfg.Height > MaxFrameSize.Height {
		cfg.Height = MaxFrameSize.Height
	}
	if cfg.Capacity < 0 {
		cfg.Capacity = 0
	}
	return &GstStream{cfg: cfg}
}

// Start builds the pipeline and begins delivering frames.
// The returned channel is closed when the stream ends.
func (s *GstStream) Start(ctx context.Context) (<-chan Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil, fmt.Errorf("camera: stream already started")
	}

	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("camera: failed to create pipeline: %w", err)
	}

	src, err := gst.NewElement("v4l2src")
	if err != nil {
		return nil, fmt.Errorf("camera: failed to create v4l2src: %w", err)
	}
	if s.cfg.Device != "" {
		src.SetProperty("device", s.cfg.Device)
	}

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("camera: failed to create capsfilter: %w", err)
	}
	capsStr := fmt.Sprintf("video/x-raw,format=YUY2,width=%d,height=%d",
		s.cfg.Width, s.cfg.Height)
	capsfilter.SetProperty("caps", gst.NewCapsFromString(capsStr))

	sink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("camera: failed to create appsink: %w", err)
	}
	sink.SetProperty("sync", false)
	sink.SetProperty("max-buffers", 1)
	sink.SetProperty("drop", true)

	pipeline.AddMany(src, capsfilter, sink.Element)
	if err := gst.ElementLinkMany(src, capsfilter, sink.Element); err != nil {
		return nil, fmt.Errorf("camera: failed to link pipeline elements: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	frames := make(chan Frame, s.cfg.Capacity)

	sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			return s.onSample(streamCtx, sink, frames)
		},
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		cancel()
		return nil, fmt.Errorf("camera: failed to start pipeline: %w", err)
	}

	s.pipeline = pipeline
	s.sink = sink
	s.frames = frames
	s.cancel = cancel
	s.started = true

	go s.watch(streamCtx)

	slog.Info("camera: capture started",
		"device", s.cfg.Device,
		"resolution", fmt.Sprintf("%dx%d", s.cfg.Width, s.cfg.Height),
	)
	return frames, nil
}

// onSample copies the mapped buffer out of GStreamer's ownership,
// stamps it, and hands it to the consumer without blocking.
func (s *GstStream) onSample(ctx context.Context, sink *app.Sink, frames chan<- Frame) gst.FlowReturn {
	if ctx.Err() != nil {
		return gst.FlowEOS
	}
	sample := sink.PullSample()
	if sample == nil {
		slog.Warn("camera: failed to pull sample, skipping frame")
		return gst.FlowOK
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("camera: sample without buffer, skipping frame")
		return gst.FlowOK
	}
	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		slog.Warn("camera: empty buffer, skipping frame")
		return gst.FlowOK
	}
	payload := make([]byte, len(data))
	copy(payload, data)
	buffer.Unmap()

	frame := Frame{
		Seq:       s.seq.Add(1),
		Timestamp: time.Now(),
		Width:     s.cfg.Width,
		Height:    s.cfg.Height,
		Data:      payload,
		TraceID:   uuid.New().String(),
	}

	select {
	case frames <- frame:
	case <-ctx.Done():
		return gst.FlowEOS
	default:
		s.dropped.Add(1)
		slog.Debug("camera: dropping frame, channel full",
			"seq", frame.Seq, "trace_id", frame.TraceID)
	}
	return gst.FlowOK
}

// watch monitors the pipeline bus; a bus error or context
// cancellation ends the stream and closes the frame channel.
func (s *GstStream) watch(ctx context.Context) {
	bus := s.pipeline.GetPipelineBus()
	for {
		if ctx.Err() != nil {
			break
		}
		msg := bus.TimedPop(time.Second)
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageEOS:
			slog.Info("camera: end of stream from device")
			s.teardown()
			return
		case gst.MessageError:
			slog.Error("camera: pipeline error, stopping", "message", msg.String())
			s.teardown()
			return
		}
	}
	s.teardown()
}

func (s *GstStream) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.cancel()
	if err := s.pipeline.SetState(gst.StateNull); err != nil {
		slog.Warn("camera: error stopping pipeline", "err", err)
	}
	close(s.frames)
}

// Stop shuts the pipeline down and closes the frame channel.
// Safe to call multiple times.
func (s *GstStream) Stop() error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return nil
	}
	s.cancel()
	return nil
}

// Stats returns capture counters.
func (s *GstStream) Stats() Stats {
	return Stats{
		Frames:     s.seq.Load(),
		Dropped:    s.dropped.Load(),
		Resolution: fmt.Sprintf("%dx%d", s.cfg.Width, s.cfg.Height),
	}
}
