// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spectrum

import (
	"math"
	"testing"
)

// slowSpectrum returns a slow spectrum with an exponential background and
// a gaussian line at mu channels.
func slowSpectrum(mu, scale float64) []float64 {
	counts := make([]float64, NumSlowBins)
	for i := range counts {
		var (
			lo = sspcEdges[i]
			hi = sspcEdges[i+1]
			ch = 0.5 * (lo + hi)
			dx = ch - mu
		)
		dens := 2000*math.Exp(-ch/150) + 400*math.Exp(-dx*dx/(2*12*12))
		counts[i] = scale * dens * (hi - lo)
	}
	return counts
}

func TestPeak511(t *testing.T) {
	cal := NewCalibrator(DefaultConfig())

	spectra := make([][]float64, 10)
	for i := range spectra {
		spectra[i] = slowSpectrum(213, 1)
	}

	for _, tc := range []struct {
		name    string
		spectra [][]float64
		want    float64
		ok      bool
	}{
		{
			name:    "line",
			spectra: spectra,
			want:    213,
			ok:      true,
		},
		{
			name: "with-fill",
			spectra: append([][]float64{
				func() []float64 {
					s := slowSpectrum(213, 1)
					s[130] = Fill
					return s
				}(),
				make([]float64, 12), // wrong size
			}, spectra...),
			want: 213,
			ok:   true,
		},
		{
			name: "saturated",
			spectra: [][]float64{
				slowSpectrum(213, 100),
				slowSpectrum(213, 100),
				slowSpectrum(213, 100),
				slowSpectrum(213, 100),
			},
		},
		{
			name: "empty",
		},
		{
			name:    "flat",
			spectra: [][]float64{make([]float64, NumSlowBins)},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := cal.Peak511(tc.spectra)
			if ok != tc.ok {
				t.Fatalf("invalid peak status: got=%v, want=%v (peak=%v)", ok, tc.ok, got)
			}
			if !ok {
				return
			}
			if math.Abs(got-tc.want) > 2 {
				t.Fatalf("invalid peak position: got=%v, want=%v", got, tc.want)
			}
		})
	}
}

func TestPeakIndex(t *testing.T) {
	ys := []float64{1, 1, 1, 2, 6, 2, 1, 1, 1}
	got, ok := peakIndex(ys, 1)
	if !ok {
		t.Fatalf("could not locate peak")
	}
	if got != 4 {
		t.Fatalf("invalid peak index: got=%d, want=4", got)
	}

	if _, ok := peakIndex([]float64{1, 2, 3, 4, 5}, 1); ok {
		t.Fatalf("expected no peak on a straight line")
	}
	if _, ok := peakIndex([]float64{1, 2}, 3); ok {
		t.Fatalf("expected no peak on a short window")
	}
}
