// Copyright (c) 2026, Camglass Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package yuv converts packed YUYV (YUY2) camera frames to RGBA.
//
// The input layout is 2 bytes per pixel, where each 4-byte group
// encodes two horizontal pixels as Y0 U Y1 V: the two luma samples
// are per-pixel and the chroma pair is shared. The output is 4 bytes
// per pixel, alpha always 255.
//
// Conversion uses the integer BT.601 studio-range transform:
//
//	c = Y - 16; d = U - 128; e = V - 128
//	R = clamp((298c + 409e + 128) >> 8)
//	G = clamp((298c - 100d - 208e + 128) >> 8)
//	B = clamp((298c + 516d + 128) >> 8)
//
// The transform is deterministic: identical input bytes always yield
// identical output bytes. It runs once per camera frame, so conversion
// is parallelized across row bands; every pixel pair is independent.
package yuv

import (
	"fmt"
	"runtime"
	"sync"
)

// BytesPerPixelIn is the packed YUYV input size per pixel.
const BytesPerPixelIn = 2

// BytesPerPixelOut is the RGBA output size per pixel.
const BytesPerPixelOut = 4

// minRowsPerBand keeps goroutine overhead below the per-band work for
// small frames; below this, conversion runs on the calling goroutine.
const minRowsPerBand = 64

// ToRGBA converts a packed YUYV buffer into dst.
//
// width must be even (pixels are encoded in horizontal pairs),
// len(src) must be exactly 2*width*height, and len(dst) must be at
// least 4*width*height. A mismatch is an input-contract violation and
// is reported as an error before any indexing takes place.
func ToRGBA(dst, src []byte, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("yuv: non-positive dimensions %dx%d", width, height)
	}
	if width%2 != 0 {
		return fmt.Errorf("yuv: odd width %d not representable in YUYV", width)
	}
	if len(src) != width*height*BytesPerPixelIn {
		return fmt.Errorf("yuv: source length %d does not match %dx%d (want %d)",
			len(src), width, height, width*height*BytesPerPixelIn)
	}
	if len(dst) < width*height*BytesPerPixelOut {
		return fmt.Errorf("yuv: destination length %d too small for %dx%d (want %d)",
			len(dst), width, height, width*height*BytesPerPixelOut)
	}

	nbands := runtime.GOMAXPROCS(0)
	if height/nbands < minRowsPerBand {
		convertRows(dst, src, width, 0, height)
		return nil
	}

	var wg sync.WaitGroup
	rowsPer := (height + nbands - 1) / nbands
	for start := 0; start < height; start += rowsPer {
		end := min(start+rowsPer, height)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			convertRows(dst, src, width, start, end)
		}(start, end)
	}
	wg.Wait()
	return nil
}

// Convert is the allocating form of [ToRGBA].
func Convert(src []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("yuv: non-positive dimensions %dx%d", width, height)
	}
	dst := make([]byte, width*height*BytesPerPixelOut)
	if err := ToRGBA(dst, src, width, height); err != nil {
		return nil, err
	}
	return dst, nil
}

// convertRows processes rows [start, end). Bounds are guaranteed by
// the validation in ToRGBA.
func convertRows(dst, src []byte, width, start, end int) {
	for row := start; row < end; row++ {
		si := row * width * BytesPerPixelIn
		di := row * width * BytesPerPixelOut
		for x := 0; x < width; x += 2 {
			y0 := int(src[si])
			u := int(src[si+1])
			y1 := int(src[si+2])
			v := int(src[si+3])

			d := u - 128
			e := v - 128
			rOff := 409*e + 128
			gOff := -100*d - 208*e + 128
			bOff := 516*d + 128

			c := 298 * (y0 - 16)
			dst[di] = clamp8((c + rOff) >> 8)
			dst[di+1] = clamp8((c + gOff) >> 8)
			dst[di+2] = clamp8((c + bOff) >> 8)
			dst[di+3] = 255

			c = 298 * (y1 - 16)
			dst[di+4] = clamp8((c + rOff) >> 8)
			dst[di+5] = clamp8((c + gOff) >> 8)
			dst[di+6] = clamp8((c + bOff) >> 8)
			dst[di+7] = 255

			si += 4
			di += 8
		}
	}
}

func clamp8(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
