// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestModeStateDefaults(t *testing.T) {
	s := NewModeState(true)
	assert.True(t, s.Background())
	assert.False(t, s.Paused())
	assert.False(t, s.Switching())
}

func TestTryBeginSwapDebounces(t *testing.T) {
	s := NewModeState(true)
	assert.True(t, s.TryBeginSwap())
	assert.False(t, s.TryBeginSwap())
	s.EndSwap()
	assert.True(t, s.TryBeginSwap())
}

func TestPauseAndWaitSeesInFlightFrame(t *testing.T) {
	s := NewModeState(true)
	go func() {
		time.Sleep(2 * time.Millisecond)
		s.MarkFrame()
	}()
	assert.True(t, s.PauseAndWait(time.Second))
	assert.True(t, s.Paused())
}

func TestPauseAndWaitIdleLoopTimesOut(t *testing.T) {
	s := NewModeState(true)
	start := time.Now()
	assert.False(t, s.PauseAndWait(10*time.Millisecond))
	assert.True(t, s.Paused())
	assert.Less(t, time.Since(start), time.Second)
}
