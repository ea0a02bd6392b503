// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"fmt"
	"math"
)

// bit widths of the fixed frame fields.
const (
	versionBits = 5
	sourceBits  = 6
	gpsBits     = 32
	ppsBits     = 16
	magBits     = 24
	hkBits      = 16
	fspcBits    = 48
	mspcBits    = 16
	sspcBits    = 16
	rcntBits    = 16
	sumBits     = 16
)

// Fill values. Each lies outside the valid range of its field.
const (
	FillGPS   = math.MinInt32
	FillPPS   = 0xffff
	FillMag   = 0xffffffff
	FillHK    = 0xffff
	FillCount = 0xffff // spectra and rate counters
)

// PPSNotArrived is the PPS value sent when no pulse occurred in the frame.
const PPSNotArrived = 0xffff

// Valid ranges.
const (
	AltMin  = 0
	AltMax  = 50_000_000 // mm
	MSOWMin = 0
	MSOWMax = 604_800_000 - 1

	PPSMax = 999

	MagMin = 1
	MagMax = 1<<magBits - 2

	AnalogMax = 0xfffe
	SatsMax   = 32
	LeapMax   = 63
	WeekMax   = 9999
	TermMax   = 1
	CmdMax    = 0xff
	ModemMax  = 0xff
	DCDMax    = 0xff

	CountMax = 0xfffe // 16-bit spectra and rate counters
)

// Layout describes the instrument-specific parts of the frame format.
type Layout struct {
	// FSPC holds the widths of the 4 fast-spectrum sub-channels.
	// They must add up to 48 bits.
	FSPC [4]uint `yaml:"fspc"`
}

// DefaultLayout is the layout of the flight DPU firmware.
var DefaultLayout = Layout{
	FSPC: [4]uint{16, 12, 12, 8},
}

// Validate checks the layout is consistent with the frame size.
func (lay Layout) Validate() error {
	var n uint
	for i, w := range lay.FSPC {
		if w == 0 || w > 16 {
			return fmt.Errorf("frame: invalid FSPC channel %d width %d", i, w)
		}
		n += w
	}
	if n != fspcBits {
		return fmt.Errorf("frame: invalid FSPC widths %v (sum=%d, want=%d)", lay.FSPC, n, fspcBits)
	}
	return nil
}

// fspcMax returns the largest valid count of the i-th fast-spectrum channel.
// An all-ones counter flags an overflowed accumulator.
func (lay Layout) fspcMax(i int) uint16 {
	return uint16(uint32(1)<<lay.FSPC[i] - 2)
}

func init() {
	const nbits = versionBits + sourceBits + FCBits + gpsBits + ppsBits +
		NumMag*3*magBits + hkBits + NumFSPC*fspcBits +
		NumMSPC*mspcBits + NumSSPC*sspcBits + rcntBits + sumBits
	if nbits != Size*8 {
		panic(fmt.Errorf("frame: inconsistent layout (%d bits, want=%d)", nbits, Size*8))
	}
}
