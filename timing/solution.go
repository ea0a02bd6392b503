// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package timing

import (
	"sort"

	"github.com/go-lpc/barrel/frame"
)

// Segment is the model used from frame counter FC onward.
type Segment struct {
	FC      uint32
	Model   Model
	Quality frame.Quality // NoFit or NoTime, if any
}

// Solution is the piecewise linear time model of a run.
type Solution struct {
	Segs []Segment
}

// At returns the absolute time of the (possibly fractional) frame counter
// fc, together with the quality flags of the segment covering it.
// Frame counters before the first segment use the first segment.
func (sol Solution) At(fc float64) (float64, frame.Quality) {
	if len(sol.Segs) == 0 {
		return FillMS, frame.NoTime
	}
	i := sort.Search(len(sol.Segs), func(i int) bool {
		return float64(sol.Segs[i].FC) > fc
	}) - 1
	if i < 0 {
		i = 0
	}
	seg := sol.Segs[i]
	if seg.Quality.Has(frame.NoTime) {
		return FillMS, seg.Quality
	}
	return seg.Model.At(fc), seg.Quality
}

// Sub returns the absolute time of the i-th of n samples evenly spread
// over the frame fc.
func (sol Solution) Sub(fc uint32, i, n int) (float64, frame.Quality) {
	return sol.At(float64(fc) + float64(i)/float64(n))
}
