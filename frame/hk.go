// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

const HKCycle = 40 // housekeeping cycle length, in frames

// HKTag selects the meaning of the housekeeping word of a frame,
// from fc mod 40.
type HKTag uint8

const (
	HKAnalog   HKTag = iota // generic analog sample, see Analog
	HKSatsLeap              // number of satellites, leap seconds
	HKWeek                  // GPS week number
	HKTermCmd               // terminate status, command counter
	HKModemDCD              // modem reset count, DCD count
)

// HKTagOf returns the housekeeping tag associated with frame counter fc.
func HKTagOf(fc uint32) HKTag {
	switch fc % HKCycle {
	case 36:
		return HKSatsLeap
	case 37:
		return HKWeek
	case 38:
		return HKTermCmd
	case 39:
		return HKModemDCD
	}
	return HKAnalog
}

func (tag HKTag) String() string {
	switch tag {
	case HKAnalog:
		return "analog"
	case HKSatsLeap:
		return "sats-leap"
	case HKWeek:
		return "week"
	case HKTermCmd:
		return "term-cmd"
	case HKModemDCD:
		return "modem-dcd"
	}
	return "hk-tag(?)"
}

// HKWord holds the decoded sub-fields of a housekeeping word.
// Analog samples and the GPS week only use A.
type HKWord struct {
	A uint16
	B uint16
}

// Indices of the analog channels used by the spectrum calibration.
const (
	HKScintTemp = 12
	HKDPUTemp   = 17
)

// Channel describes how an analog housekeeping channel is converted
// to physical units: v = raw*Scale + Offset.
type Channel struct {
	Name   string
	Unit   string
	Scale  float64
	Offset float64
}

func (ch Channel) Value(raw uint16) float64 {
	return float64(raw)*ch.Scale + ch.Offset
}

const (
	voltScale = 0.0003052
	tempScale = 0.007629
	tempZero  = -273.15
	currScale = 0.05
)

var analog = [HKCycle - 4]Channel{
	{"V0_VoltAtLoad", "V", voltScale, 0},
	{"V1_Battery", "V", voltScale, 0},
	{"V2_Solar1", "V", voltScale, 0},
	{"V3_POS_DPU", "V", voltScale, 0},
	{"V4_POS_XRayDet", "V", voltScale, 0},
	{"V5_Modem", "V", voltScale, 0},
	{"V6_NEG_XRayDet", "V", -voltScale, 0},
	{"V7_NEG_DPU", "V", -voltScale, 0},
	{"V8_Mag", "V", voltScale, 0},
	{"V9_Solar2", "V", voltScale, 0},
	{"V10_Solar3", "V", voltScale, 0},
	{"V11_Solar4", "V", voltScale, 0},
	{"T0_Scint", "C", tempScale, tempZero},
	{"T1_Mag", "C", tempScale, tempZero},
	{"T2_ChargeCont", "C", tempScale, tempZero},
	{"T3_Battery", "C", tempScale, tempZero},
	{"T4_PowerConv", "C", tempScale, tempZero},
	{"T5_DPU", "C", tempScale, tempZero},
	{"T6_Modem", "C", tempScale, tempZero},
	{"T7_Structure", "C", tempScale, tempZero},
	{"T8_Solar1", "C", tempScale, tempZero},
	{"T9_Solar2", "C", tempScale, tempZero},
	{"T10_Solar3", "C", tempScale, tempZero},
	{"T11_Solar4", "C", tempScale, tempZero},
	{"T12_TermTemp", "C", tempScale, tempZero},
	{"T13_TermBatt", "C", tempScale, tempZero},
	{"T14_TermCap", "C", tempScale, tempZero},
	{"T15_CCStat", "C", tempScale, tempZero},
	{"I0_TotalLoad", "mA", currScale, 0},
	{"I1_TotalSolar", "mA", currScale, 0},
	{"I2_Solar1", "mA", currScale, 0},
	{"I3_POS_DPU", "mA", currScale, 0},
	{"I4_POS_XRayDet", "mA", currScale, 0},
	{"I5_Modem", "mA", currScale, 0},
	{"I6_NEG_XRayDet", "mA", currScale, 0},
	{"I7_NEG_DPU", "mA", currScale, 0},
}

// NumAnalog is the number of analog housekeeping channels in a cycle.
const NumAnalog = len(analog)

// Analog returns the description of the i-th analog channel.
func Analog(i int) Channel { return analog[i] }
