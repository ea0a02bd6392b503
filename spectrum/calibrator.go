// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spectrum

import (
	"fmt"
)

// Config holds the calibration parameters of a payload.
type Config struct {
	Coeffs  Coeffs     `yaml:"coeffs"`
	Nominal float64    `yaml:"nominal"` // nominal energy scale, keV per model unit
	Peak    PeakConfig `yaml:"peak"`

	// Standard output grids (keV). Empty grids default to the native
	// edges at the nominal scale.
	MSPC []float64 `yaml:"mspc"`
	SSPC []float64 `yaml:"sspc"`
}

// DefaultConfig returns the flight calibration configuration.
func DefaultConfig() Config {
	return Config{
		Coeffs:  DefaultCoeffs(),
		Nominal: 2.4,
		Peak:    DefaultPeakConfig(),
	}
}

// Validate checks the configuration is usable.
func (cfg Config) Validate() error {
	if !(cfg.Nominal > 0) {
		return fmt.Errorf("spectrum: invalid nominal scale %v", cfg.Nominal)
	}
	for _, grid := range []struct {
		name  string
		edges []float64
	}{
		{"mspc", cfg.MSPC},
		{"sspc", cfg.SSPC},
	} {
		if len(grid.edges) == 0 {
			continue
		}
		if len(grid.edges) < 2 {
			return fmt.Errorf("spectrum: %s grid needs at least 2 edges", grid.name)
		}
		for i := 1; i < len(grid.edges); i++ {
			if !(grid.edges[i] > grid.edges[i-1]) {
				return fmt.Errorf("spectrum: %s grid not strictly ascending at edge %d", grid.name, i)
			}
		}
	}
	return cfg.Peak.Validate()
}

// Context holds the conditions under which one spectrum was accumulated.
type Context struct {
	Scint float64 // scintillator temperature, C
	DPU   float64 // DPU temperature, C

	Peak    float64 // 511 keV line position, channels
	HasPeak bool
}

// Spectrum is a calibrated and rebinned spectrum.
type Spectrum struct {
	Kind   Kind
	Edges  []float64 // standard grid edges, keV
	Counts []float64 // counts/keV/s, Fill for poisoned bins
	Scale  float64   // keV per model unit
}

// Calibrator converts raw spectra to calibrated spectra.
type Calibrator struct {
	cfg  Config
	mspc []float64
	sspc []float64
}

// NewCalibrator returns a calibrator for the given configuration.
func NewCalibrator(cfg Config) *Calibrator {
	cal := &Calibrator{cfg: cfg, mspc: cfg.MSPC, sspc: cfg.SSPC}
	if len(cal.mspc) == 0 {
		cal.mspc = StdEdges(Medium, cfg.Nominal)
	}
	if len(cal.sspc) == 0 {
		cal.sspc = StdEdges(Slow, cfg.Nominal)
	}
	return cal
}

// StdEdges returns the standard grid used for spectra of kind k.
func (cal *Calibrator) StdEdges(k Kind) []float64 {
	switch k {
	case Medium:
		return cal.mspc
	case Slow:
		return cal.sspc
	}
	panic(fmt.Errorf("spectrum: invalid kind %d", k))
}

// Scale returns the energy scale (keV per model unit) for ctx:
// 511 over the energy of the located line, or the nominal scale.
func (cal *Calibrator) Scale(ctx Context) float64 {
	if !ctx.HasPeak {
		return cal.cfg.Nominal
	}
	e := cal.cfg.Coeffs.Energy(ctx.Peak, ctx.Scint, ctx.DPU)
	if !valid(e) {
		return cal.cfg.Nominal
	}
	return E511 / e
}

// Edges returns the calibrated energy edges (keV) of the given channel edges.
// The returned edges are strictly ascending.
func (cal *Calibrator) Edges(channels []float64, ctx Context) []float64 {
	var (
		scale = cal.Scale(ctx)
		edges = make([]float64, len(channels))
	)
	for i, ch := range channels {
		edges[i] = scale * cal.cfg.Coeffs.Energy(ch, ctx.Scint, ctx.DPU)
	}
	fixEdges(edges)
	return edges
}

// FSPCEdges returns the calibrated energy edges (keV) of the fast-spectrum bands.
func (cal *Calibrator) FSPCEdges(ctx Context) []float64 {
	return cal.Edges(fspcEdges, ctx)
}

// CalibrateAndRebin calibrates the native bins of the raw spectrum and
// rebins it onto the standard grid, in counts/keV/s.
func (cal *Calibrator) CalibrateAndRebin(k Kind, raw []uint16, ctx Context) Spectrum {
	if got, want := len(raw), k.Bins(); got != want {
		panic(fmt.Errorf("spectrum: invalid %v spectrum size (got=%d, want=%d)", k, got, want))
	}
	var (
		std    = cal.StdEdges(k)
		native = cal.Edges(nativeEdges(k), ctx)
		counts = Rebin(Counts(raw), native, std)
	)
	Normalize(counts, std, k.Period())
	return Spectrum{
		Kind:   k,
		Edges:  std,
		Counts: counts,
		Scale:  cal.Scale(ctx),
	}
}
