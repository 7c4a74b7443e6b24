// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package camera acquires raw YUYV frames from a capture device and
// delivers them over a channel to the render loop.
package camera

import (
	"context"
	"fmt"
	"time"
)

// MaxFrameSize caps the resolution requested from the device.
var MaxFrameSize = struct{ Width, Height int }{1280, 720}

// Frame is one camera exposure in packed YUYV layout (2 bytes per
// pixel, each 4-byte group encoding two horizontal pixels as Y0 U Y1 V).
// A Frame is immutable after creation and consumed exactly once.
type Frame struct {
	// Seq is the monotonic sequence number assigned at capture.
	Seq uint64

	// Timestamp is when the frame was pulled from the device.
	Timestamp time.Time

	// Width and Height are the frame dimensions in pixels.
	Width  int
	Height int

	// Data is the packed YUYV payload, length 2*Width*Height.
	Data []byte

	// TraceID uniquely identifies the frame for logging.
	TraceID string
}

// Validate reports whether the payload length matches the declared
// dimensions. A mismatch indicates a producer bug.
func (f *Frame) Validate() error {
	want := 2 * f.Width * f.Height
	if f.Width <= 0 || f.Height <= 0 || len(f.Data) != want {
		return fmt.Errorf("camera: frame %d payload %d bytes does not match %dx%d (want %d)",
			f.Seq, len(f.Data), f.Width, f.Height, want)
	}
	return nil
}

// Stats holds capture counters. All fields are snapshots; the stream
// updates its internal counters atomically.
type Stats struct {
	// Frames is the total number of frames delivered.
	Frames uint64

	// Dropped is the number of frames discarded because the consumer
	// channel was full.
	Dropped uint64

	// Resolution is the negotiated frame size, e.g. "1280x720".
	Resolution string
}

// Stream is the capture collaborator boundary.
//
// Implementations must guarantee:
//   - Start returns quickly and delivers frames asynchronously.
//   - The returned channel is closed when the stream ends, whether by
//     Stop, context cancellation, or a device failure. Channel close is
//     the only end-of-stream signal; the consumer treats it as a
//     graceful shutdown, never an error.
//   - Frames are delivered in capture order.
//   - Stop is idempotent.
//   - Stats is safe to call from any goroutine.
type Stream interface {
	Start(ctx context.Context) (<-chan Frame, error)
	Stop() error
	Stats() Stats
}
