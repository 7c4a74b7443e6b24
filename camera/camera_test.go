// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package camera

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameValidate(t *testing.T) {
	good := Frame{Width: 4, Height: 2, Data: make([]byte, 16)}
	assert.NoError(t, good.Validate())

	short := Frame{Width: 4, Height: 2, Data: make([]byte, 15)}
	assert.Error(t, short.Validate())

	zero := Frame{Width: 0, Height: 2, Data: nil}
	assert.Error(t, zero.Validate())
}

func TestSynthStreamCount(t *testing.T) {
	s := NewSynthStream(SynthConfig{Width: 64, Height: 32, Fill: 128, Count: 10, Capacity: 4})
	frames, err := s.Start(context.Background())
	require.NoError(t, err)

	var got []Frame
	for f := range frames {
		require.NoError(t, f.Validate())
		got = append(got, f)
	}
	require.Len(t, got, 10)
	for i, f := range got {
		assert.Equal(t, uint64(i+1), f.Seq)
		assert.Equal(t, 64, f.Width)
		assert.Equal(t, 32, f.Height)
	}
	assert.Equal(t, uint64(10), s.Stats().Frames)
}

func TestSynthStreamDeterministicPayload(t *testing.T) {
	s := NewSynthStream(SynthConfig{Width: 8, Height: 4, Fill: 128, Count: 2})
	frames, err := s.Start(context.Background())
	require.NoError(t, err)

	first := <-frames
	second := <-frames
	assert.True(t, bytes.Equal(first.Data, second.Data))
	for _, b := range first.Data {
		require.Equal(t, byte(128), b)
	}
	_, open := <-frames
	assert.False(t, open)
}

func TestSynthStreamStop(t *testing.T) {
	s := NewSynthStream(SynthConfig{Width: 8, Height: 4, Interval: time.Millisecond})
	frames, err := s.Start(context.Background())
	require.NoError(t, err)

	<-frames
	require.NoError(t, s.Stop())

	select {
	case _, open := <-drain(frames):
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("channel did not close after Stop")
	}
}

func TestSynthStreamDoubleStart(t *testing.T) {
	s := NewSynthStream(SynthConfig{Width: 8, Height: 4, Count: 1})
	_, err := s.Start(context.Background())
	require.NoError(t, err)
	_, err = s.Start(context.Background())
	assert.Error(t, err)
}

// drain forwards remaining frames and reports the close.
func drain(in <-chan Frame) <-chan Frame {
	out := make(chan Frame)
	go func() {
		defer close(out)
		for range in {
		}
	}()
	return out
}
