// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package camera

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SynthConfig configures a synthetic frame source.
type SynthConfig struct {
	Width  int
	Height int

	// Fill is the byte every YUYV position is set to; 128 yields a
	// uniform mid-gray after conversion.
	Fill byte

	// Count is the number of frames to emit before closing the
	// channel. 0 emits until the context is cancelled or Stop is
	// called.
	Count int

	// Interval between frames; 0 emits as fast as the consumer reads.
	Interval time.Duration

	// Capacity is the frame channel buffer size.
	Capacity int
}

// SynthStream is a deterministic in-process Stream used by tests and
// the headless end-to-end path. It produces uniform frames of a fixed
// fill byte, delivered in sequence order, and closes its channel when
// the configured count is reached.
type SynthStream struct {
	cfg SynthConfig

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool

	seq atomic.Uint64
}

// NewSynthStream returns an unstarted synthetic stream.
func NewSynthStream(cfg SynthConfig) *SynthStream {
	if cfg.Width <= 0 {
		cfg.Width = 640
	}
	if cfg.Height <= 0 {
		cfg.Height = 480
	}
	return &SynthStream{cfg: cfg}
}

// Start begins emitting frames on the returned channel.
func (s *SynthStream) Start(ctx context.Context) (<-chan Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil, fmt.Errorf("camera: stream already started")
	}
	streamCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = true

	frames := make(chan Frame, s.cfg.Capacity)
	go s.run(streamCtx, frames)
	return frames, nil
}

func (s *SynthStream) run(ctx context.Context, frames chan<- Frame) {
	defer close(frames)
	payloadLen := 2 * s.cfg.Width * s.cfg.Height
	for i := 0; s.cfg.Count == 0 || i < s.cfg.Count; i++ {
		if s.cfg.Interval > 0 {
			select {
			case <-time.After(s.cfg.Interval):
			case <-ctx.Done():
				return
			}
		}
		payload := make([]byte, payloadLen)
		for j := range payload {
			payload[j] = s.cfg.Fill
		}
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
			return
		}
	}
}

// Stop ends the stream; the frame channel closes once the emit
// goroutine observes the cancellation.
func (s *SynthStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// Stats returns the number of frames emitted so far.
func (s *SynthStream) Stats() Stats {
	return Stats{
		Frames:     s.seq.Load(),
		Resolution: fmt.Sprintf("%dx%d", s.cfg.Width, s.cfg.Height),
	}
}
