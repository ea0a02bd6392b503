// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spectrum

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/fit"
	"gonum.org/v1/gonum/optimize"
)

// PeakConfig holds the parameters of the 511 keV line search.
type PeakConfig struct {
	Lo         int     `yaml:"lo"`         // first slow-spectrum bin of the search window
	Hi         int     `yaml:"hi"`         // last (excluded) bin of the search window
	Saturation float64 `yaml:"saturation"` // maximum summed counts per bin of window width
	Smooth     int     `yaml:"smooth"`     // moving-window width over the second difference
	Half       int     `yaml:"half"`       // half width, in bins, of the fit neighborhood
}

// DefaultPeakConfig returns the flight search parameters.
func DefaultPeakConfig() PeakConfig {
	return PeakConfig{
		Lo:         112,
		Hi:         160,
		Saturation: 1e4,
		Smooth:     5,
		Half:       6,
	}
}

func (pc PeakConfig) Validate() error {
	n := pc.Hi - pc.Lo
	switch {
	case pc.Lo < 0 || pc.Hi > NumSlowBins || n <= 0:
		return fmt.Errorf("spectrum: invalid peak window [%d, %d)", pc.Lo, pc.Hi)
	case pc.Smooth <= 0 || pc.Smooth > n-2:
		return fmt.Errorf("spectrum: invalid peak smoothing width %d", pc.Smooth)
	case pc.Half <= 1:
		return fmt.Errorf("spectrum: invalid peak fit half width %d", pc.Half)
	case !(pc.Saturation > 0):
		return fmt.Errorf("spectrum: invalid peak saturation %v", pc.Saturation)
	}
	return nil
}

// NumSlowBins is the number of native slow-spectrum bins.
const NumSlowBins = 256

// Peak511 locates the 511 keV line in the sum of the given slow spectra,
// accumulated over one period. Spectra with a fill value in the search
// window are skipped.
// It returns the line position in channels, and false when the window is
// saturated or no peak could be fit.
func (cal *Calibrator) Peak511(spectra [][]float64) (float64, bool) {
	var (
		pc    = cal.cfg.Peak
		n     = pc.Hi - pc.Lo
		sum   = make([]float64, n)
		limit = pc.Saturation * float64(n)
		used  = 0
	)

loop:
	for _, spec := range spectra {
		if len(spec) != NumSlowBins {
			continue
		}
		win := spec[pc.Lo:pc.Hi]
		for _, v := range win {
			if v < 0 {
				continue loop
			}
		}
		for i, v := range win {
			sum[i] += v
			if sum[i] > limit {
				return 0, false
			}
		}
		used++
	}
	if used == 0 {
		return 0, false
	}

	var (
		xs = make([]float64, n) // bin centers, channels
		ys = make([]float64, n) // counts per channel
	)
	for i, v := range sum {
		var (
			lo = sspcEdges[pc.Lo+i]
			hi = sspcEdges[pc.Lo+i+1]
		)
		xs[i] = 0.5 * (lo + hi)
		ys[i] = v / (hi - lo)
	}

	c, ok := peakIndex(ys, pc.Smooth)
	if !ok {
		return 0, false
	}

	beg := c - pc.Half
	if beg < 0 {
		beg = 0
	}
	end := c + pc.Half + 1
	if end > n {
		end = n
	}
	return fitPeak(xs[beg:end], ys[beg:end], xs[c], ys[c])
}

// peakIndex returns the index of the center of the moving window holding
// the most negative sum of second differences of ys.
func peakIndex(ys []float64, w int) (int, bool) {
	if len(ys) < w+2 {
		return 0, false
	}
	d2 := make([]float64, len(ys)-2)
	for i := range d2 {
		d2[i] = ys[i] - 2*ys[i+1] + ys[i+2]
	}

	var (
		best = math.Inf(+1)
		ibeg = -1
	)
	for i := 0; i+w <= len(d2); i++ {
		sum := 0.0
		for _, v := range d2[i : i+w] {
			sum += v
		}
		if sum < best {
			best = sum
			ibeg = i
		}
	}
	if ibeg < 0 || best >= 0 {
		return 0, false
	}
	return ibeg + w/2 + 1, true
}

// fitPeak fits a gaussian over a linear background and returns its mean.
// The fit is performed on coordinates scaled to the neighborhood.
func fitPeak(xs, ys []float64, x0, y0 float64) (float64, bool) {
	var (
		span = xs[len(xs)-1] - xs[0]
		ymax = y0
		bkg  = ys[0]
	)
	for _, y := range ys {
		ymax = math.Max(ymax, y)
		bkg = math.Min(bkg, y)
	}
	if !(span > 0 && ymax > 0) {
		return 0, false
	}

	var (
		us = make([]float64, len(xs))
		vs = make([]float64, len(ys))
	)
	for i := range xs {
		us[i] = (xs[i] - x0) / span
		vs[i] = ys[i] / ymax
	}

	res, err := fit.Curve1D(
		fit.Func1D{
			F: func(u float64, ps []float64) float64 {
				var (
					a  = ps[0]
					mu = ps[1]
					s  = ps[2]
					du = u - mu
				)
				return a*math.Exp(-du*du/(2*s*s)) + ps[3] + ps[4]*u
			},
			X:  us,
			Y:  vs,
			Ps: []float64{(y0 - bkg) / ymax, 0, 0.25, bkg / ymax, 0},
		},
		nil, &optimize.NelderMead{},
	)
	if err != nil {
		return 0, false
	}

	var (
		amp = res.X[0]
		mu  = x0 + res.X[1]*span
		sig = res.X[2]
	)
	switch {
	case !(amp > 0), sig == 0, math.IsNaN(mu), mu < xs[0], mu > xs[len(xs)-1]:
		return 0, false
	}
	return mu, true
}
