// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package yuv

import (
	"math/rand"
	"testing"
)

// The conversion runs once per camera frame and must stay well under
// one frame interval at 1280x720.
func BenchmarkToRGBA720p(b *testing.B) {
	const w, h = 1280, 720
	rng := rand.New(rand.NewSource(1))
	src := make([]byte, w*h*BytesPerPixelIn)
	rng.Read(src)
	dst := make([]byte, w*h*BytesPerPixelOut)

	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := ToRGBA(dst, src, w, h); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkToRGBASerial720p(b *testing.B) {
	const w, h = 1280, 720
	rng := rand.New(rand.NewSource(1))
	src := make([]byte, w*h*BytesPerPixelIn)
	rng.Read(src)
	dst := make([]byte, w*h*BytesPerPixelOut)

	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		convertRows(dst, src, w, 0, h)
	}
}
