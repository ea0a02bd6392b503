// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spectrum

import (
	"math"
)

// Energy of the electron-positron annihilation line, keV.
const E511 = 511.0

// Coeffs are the coefficients of the empirical forward model mapping an
// energy E to a channel, for scintillator and DPU temperatures Ts and Td:
//
//	ch = k(Ts) * (off(Td) + gain(Td)*E + nonlin(Td)*E*ln(E))
//
// with k(Ts) = 1/(1 + KT*(Ts-KRef)) and the other terms linear in Td.
type Coeffs struct {
	KT   float64 `yaml:"kt"`
	KRef float64 `yaml:"kref"`

	Off0    float64 `yaml:"off0"`
	Off1    float64 `yaml:"off1"`
	Gain0   float64 `yaml:"gain0"`
	Gain1   float64 `yaml:"gain1"`
	NonLin0 float64 `yaml:"nonlin0"`
	NonLin1 float64 `yaml:"nonlin1"`
}

// DefaultCoeffs returns the ground calibration of the flight detectors.
func DefaultCoeffs() Coeffs {
	return Coeffs{
		KT:      0.0026,
		KRef:    20,
		Off0:    -3,
		Off1:    0.015,
		Gain0:   1.02,
		Gain1:   0.0002,
		NonLin0: -3e-3,
		NonLin1: -1e-5,
	}
}

func (c Coeffs) terms(ts, td float64) (k, off, gain, nl float64) {
	k = 1 / (1 + c.KT*(ts-c.KRef))
	off = c.Off0 + c.Off1*td
	gain = c.Gain0 + c.Gain1*td
	nl = c.NonLin0 + c.NonLin1*td
	return k, off, gain, nl
}

// Channel returns the channel of energy e.
func (c Coeffs) Channel(e, ts, td float64) float64 {
	k, off, gain, nl := c.terms(ts, td)
	return k * (off + gain*e + nl*e*math.Log(e))
}

// Energy inverts the forward model with two Newton-Raphson iterations,
// starting from the linear solution. The result may be negative or NaN
// for channels below the model offset.
func (c Coeffs) Energy(ch, ts, td float64) float64 {
	k, off, gain, nl := c.terms(ts, td)
	y := ch / k
	e := (y - off) / gain
	for i := 0; i < 2; i++ {
		ln := math.Log(e)
		f := off + gain*e + nl*e*ln - y
		df := gain + nl*(ln+1)
		e -= f / df
	}
	return e
}

// fixEdges replaces the invalid edges so that the sequence is strictly
// ascending. Leading invalid edges become non-positive placeholders
// ending at zero, the others are nudged above their predecessor.
func fixEdges(edges []float64) {
	first := -1
	for i, e := range edges {
		if valid(e) {
			first = i
			break
		}
	}
	if first < 0 {
		first = len(edges)
	}
	for i := 0; i < first; i++ {
		edges[i] = -float64(first - 1 - i)
	}
	for i := first + 1; i < len(edges); i++ {
		if !valid(edges[i]) || edges[i] <= edges[i-1] {
			edges[i] = math.Nextafter(edges[i-1], math.Inf(+1))
		}
	}
}

func valid(e float64) bool {
	return e > 0 && !math.IsInf(e, 0)
}
