// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package l2

import (
	"github.com/go-lpc/barrel/demux"
	"github.com/go-lpc/barrel/rollover"
	"github.com/go-lpc/barrel/spectrum"
	"github.com/go-lpc/barrel/timing"
)

// Products holds the time-stamped records of one payload, in frame
// counter order within each cadence.
type Products struct {
	Payload string

	demux.Emission

	Stamps   []timing.Stamp // one per ephemeris record
	Solution timing.Solution

	MedSpectra  []Spectrum // one per MSPC record
	SlowSpectra []Spectrum // one per SSPC record
	Bands       []Bands    // one per housekeeping page with valid temperatures

	State rollover.State // rollover state at the end of the run
	Stats Stats
}

// Spectrum is a calibrated medium or slow spectrum.
type Spectrum struct {
	demux.Header
	spectrum.Spectrum

	Peak    float64 // 511 keV line position used for the energy scale, channels
	HasPeak bool
}

// Bands holds the calibrated energy edges (keV) of the fast-spectrum bands
// for one housekeeping page.
type Bands struct {
	demux.Header
	Edges []float64
}

// Stats summarizes the processing of one payload.
type Stats struct {
	Frames     int            // candidate frames
	Discarded  int            // bytes discarded while looking for frames
	Rejected   map[string]int // rejected frames, by reason
	OutOfRange int            // decoded frames with at least one out-of-range field

	Demux  demux.Stats
	Timing timing.Stats

	Peaks   int // accumulation periods with a located 511 keV line
	NoPeaks int // accumulation periods without
}

// NumRejected returns the total number of rejected frames.
func (st Stats) NumRejected() int {
	n := 0
	for _, v := range st.Rejected {
		n += v
	}
	return n
}
