// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spectrum

// Rebin redistributes the counts of the bins delimited by old onto the bins
// delimited by edges, weighting each native bin by its overlap with the
// destination bin. A negative (fill) native count overlapping a destination
// bin sets that bin to Fill.
func Rebin(counts, old, edges []float64) []float64 {
	if len(old) != len(counts)+1 {
		panic("spectrum: counts and edges size mismatch")
	}
	if len(edges) < 2 {
		return nil
	}

	out := make([]float64, len(edges)-1)
	for i := range out {
		var (
			a = edges[i]
			b = edges[i+1]
		)
		for j, n := range counts {
			var (
				lo = old[j]
				hi = old[j+1]
				w  = hi - lo
			)
			if hi <= a || b <= lo || w <= 0 {
				continue
			}

			var frac float64
			switch {
			case a <= lo && hi <= b:
				// native bin inside destination bin.
				frac = 1
			case lo <= a && b <= hi:
				// destination bin inside native bin.
				frac = (b - a) / w
			case a < lo:
				// destination bin overlaps the native lower edge.
				frac = (b - lo) / w
			default:
				// destination bin overlaps the native upper edge.
				frac = (hi - a) / w
			}

			if n < 0 {
				out[i] = Fill
				break
			}
			out[i] += frac * n
		}
	}
	return out
}

// Normalize divides the counts by the width of their bin and by the
// accumulation period, yielding counts/keV/s. Fill bins are left untouched.
func Normalize(counts, edges []float64, period float64) {
	for i, n := range counts {
		if n < 0 {
			continue
		}
		counts[i] = n / (edges[i+1] - edges[i]) / period
	}
}
