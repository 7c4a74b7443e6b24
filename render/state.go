// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render runs the per-frame render loop and the mode-switch
// protocol that moves rendering between the background window and the
// thumbnail overlay.
package render

import (
	"sync/atomic"
	"time"
)

// ModeState is the shared state between the render loop and the
// mode-switch controller. All fields are atomics; the loop reads them
// every frame without taking locks.
type ModeState struct {
	background atomic.Bool
	paused     atomic.Bool
	switching  atomic.Bool

	// generation counts completed presenting iterations; the pause
	// handshake waits on it instead of a fixed sleep.
	generation atomic.Uint64
}

// NewModeState returns state starting in the given mode.
func NewModeState(background bool) *ModeState {
	s := &ModeState{}
	s.background.Store(background)
	return s
}

// Background reports whether rendering targets the background window.
func (s *ModeState) Background() bool { return s.background.Load() }

// SetBackground records the mode after a completed switch.
func (s *ModeState) SetBackground(v bool) { s.background.Store(v) }

// Paused reports whether the loop should skip frames.
func (s *ModeState) Paused() bool { return s.paused.Load() }

// Resume lets the loop present again.
func (s *ModeState) Resume() { s.paused.Store(false) }

// TryBeginSwap attempts to claim the mode switch. It returns false if
// a switch is already in progress; repeated toggles debounce to
// no-ops instead of queueing.
func (s *ModeState) TryBeginSwap() bool {
	return s.switching.CompareAndSwap(false, true)
}

// EndSwap releases the switch claim.
func (s *ModeState) EndSwap() { s.switching.Store(false) }

// Switching reports whether a mode switch is in progress.
func (s *ModeState) Switching() bool { return s.switching.Load() }

// MarkFrame is called by the loop after each iteration that touched
// the surface.
func (s *ModeState) MarkFrame() { s.generation.Add(1) }

// Generation returns the presenting-iteration counter.
func (s *ModeState) Generation() uint64 { return s.generation.Load() }

// PauseAndWait pauses the loop and waits for any in-flight iteration
// to finish presenting. It returns true as soon as the generation
// counter advances past its value at pause time; if the counter does
// not move within timeout the loop was idle (blocked waiting for a
// frame) and it returns false. Either way it is safe to retarget the
// surface afterwards.
func (s *ModeState) PauseAndWait(timeout time.Duration) bool {
	gen := s.generation.Load()
	s.paused.Store(true)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.generation.Load() != gen {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}
