// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package demux

import (
	"fmt"

	"github.com/go-lpc/barrel/frame"
)

// Cadence identifies one of the output record streams.
type Cadence uint8

const (
	MISC Cadence = iota // 1 Hz: frame header and PPS
	MAGN                // 4 Hz: magnetometer
	FSPC                // 20 Hz: fast spectra
	EPHM                // mod4: GPS ephemeris
	RCNT                // mod4: rate counters
	MSPC                // mod4: medium spectra
	SSPC                // mod32: slow spectra
	HKPG                // mod40: housekeeping

	NumCadences = int(HKPG) + 1
)

var cadenceNames = [NumCadences]string{
	"misc", "magn", "fspc", "ephm", "rcnt", "mspc", "sspc", "hkpg",
}

func (c Cadence) String() string {
	if int(c) < NumCadences {
		return cadenceNames[c]
	}
	return fmt.Sprintf("cadence(%d)", uint8(c))
}

// Cadences returns all the cadences, in emission order.
func Cadences() []Cadence {
	o := make([]Cadence, NumCadences)
	for i := range o {
		o[i] = Cadence(i)
	}
	return o
}

const (
	MSPCFrames = 4  // frames per medium spectrum
	SSPCFrames = 32 // frames per slow spectrum
	HKFrames   = frame.HKCycle

	NumMSPCBins = MSPCFrames * frame.NumMSPC // 48
	NumSSPCBins = SSPCFrames * frame.NumSSPC // 256
)

// Header is common to all records.
type Header struct {
	FC      uint32        // rollover-corrected frame counter (group base for multi-frame records)
	MS      float64       // absolute time, ms since J2000, filled by the timing stage
	Quality frame.Quality // OR-accumulated record flags
}

// Misc is the 1 Hz record.
type Misc struct {
	Header
	Version uint8
	Source  uint8
	PPS     uint16
}

// Magn is one magnetometer sample. Sub is the sample index within the frame.
type Magn struct {
	Header
	Sub uint8
	B   [3]uint32
}

// FastSpec is one 4-band fast spectrum. Sub is the sample index within the frame.
type FastSpec struct {
	Header
	Sub    uint8
	Counts [4]uint16
}

// Ephm is the GPS ephemeris gathered over one mod4 group.
type Ephm struct {
	Header
	Alt  int32  // mm
	MSOW int32  // ms of GPS week
	Lat  int32  // raw counts
	Lon  int32  // raw counts
	PPS  uint16 // PPS offset of the ms-of-week frame
	Week uint16 // GPS week reported within the group, FillHK otherwise
}

// Rate counter indices within a Rcnt record.
const (
	RateInterrupt = iota
	RateLowLevel
	RatePeakDet
	RateHighLevel
)

// Rcnt holds the 4 rate counters gathered over one mod4 group.
type Rcnt struct {
	Header
	Counts [4]uint16
}

// MedSpec is a 48-channel medium spectrum accumulated over 4 frames.
type MedSpec struct {
	Header
	Counts [NumMSPCBins]uint16
	N      int // number of contributing frames
}

// SlowSpec is a 256-channel slow spectrum accumulated over 32 frames.
type SlowSpec struct {
	Header
	Counts [NumSSPCBins]uint16
	N      int // number of contributing frames
}

// HK is one housekeeping page accumulated over 40 frames.
type HK struct {
	Header
	Analog [frame.NumAnalog]uint16
	Sats   uint16
	Leap   uint16
	Week   uint16
	Term   uint16
	Cmd    uint16
	Modem  uint16
	DCD    uint16
	N      int // number of contributing frames
}

// Temps returns the scintillator and DPU temperatures (Celsius) of the page.
// ok is false when either reading is missing.
func (hk *HK) Temps() (scint, dpu float64, ok bool) {
	var (
		rs = hk.Analog[frame.HKScintTemp]
		rd = hk.Analog[frame.HKDPUTemp]
	)
	if rs == frame.FillHK || rd == frame.FillHK {
		return 0, 0, false
	}
	return frame.Analog(frame.HKScintTemp).Value(rs), frame.Analog(frame.HKDPUTemp).Value(rd), true
}

// Emission lists the records finalized by one call to the synchronizer.
type Emission struct {
	Misc []Misc
	Magn []Magn
	FSPC []FastSpec
	Ephm []Ephm
	Rcnt []Rcnt
	MSPC []MedSpec
	SSPC []SlowSpec
	HKPG []HK
}

// Append appends all the records of o to e.
func (e *Emission) Append(o Emission) {
	e.Misc = append(e.Misc, o.Misc...)
	e.Magn = append(e.Magn, o.Magn...)
	e.FSPC = append(e.FSPC, o.FSPC...)
	e.Ephm = append(e.Ephm, o.Ephm...)
	e.Rcnt = append(e.Rcnt, o.Rcnt...)
	e.MSPC = append(e.MSPC, o.MSPC...)
	e.SSPC = append(e.SSPC, o.SSPC...)
	e.HKPG = append(e.HKPG, o.HKPG...)
}

// Len returns the number of records of cadence c.
func (e *Emission) Len(c Cadence) int {
	switch c {
	case MISC:
		return len(e.Misc)
	case MAGN:
		return len(e.Magn)
	case FSPC:
		return len(e.FSPC)
	case EPHM:
		return len(e.Ephm)
	case RCNT:
		return len(e.Rcnt)
	case MSPC:
		return len(e.MSPC)
	case SSPC:
		return len(e.SSPC)
	case HKPG:
		return len(e.HKPG)
	}
	panic(fmt.Errorf("demux: invalid cadence %d", c))
}

// Empty returns whether e holds no record.
func (e *Emission) Empty() bool {
	for _, c := range Cadences() {
		if e.Len(c) != 0 {
			return false
		}
	}
	return true
}
