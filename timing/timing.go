// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package timing reconstructs the absolute time base of a payload from
// the sparse GPS time fields carried by its ephemeris records.
//
// The frame counter is mapped to absolute time with a linear model,
//
//	ms = Rate * (fc + Offset)
//
// fit on windows of consecutive ephemeris records. Times are expressed in
// milliseconds since J2000 in the GPS time scale.
package timing // import "github.com/go-lpc/barrel/timing"

import (
	"math"

	"github.com/go-lpc/barrel/frame"
)

const (
	SecondsPerWeek = 604800
	RefOffset      = 630763200 // seconds from the GPS epoch to J2000

	NominalRate = 1000.0 // ms per frame

	msPerWeek = 1000 * SecondsPerWeek

	// PPSWeekThreshold is the PPS offset from which a pair is moved
	// to the following week.
	PPSWeekThreshold = 241
)

// FillMS is the time stamp of records without timing information.
const FillMS = -1e31

// Sample is the raw timing information carried by one ephemeris record.
type Sample struct {
	FC   uint32 // frame counter of the group base
	MSOW int32  // ms of GPS week, frame.FillGPS if missing
	Week uint16 // GPS week, frame.FillHK if missing
	PPS  uint16 // PPS offset of the ms-of-week frame, frame.FillPPS if missing
}

// pairFC returns the frame counter of the frame carrying the ms-of-week.
func (s Sample) pairFC() float64 {
	return float64(s.FC) + float64(frame.GPSTime)
}

// Pair associates a frame counter with an absolute time.
type Pair struct {
	FC float64
	MS float64
}

// PairTime returns the absolute time (ms since J2000) of the start of the
// frame that reported the GPS time (week, msow) with the PPS offset pps.
func PairTime(week uint16, msow int32, pps uint16) float64 {
	ms := 1000*(float64(week)*SecondsPerWeek-RefOffset) + float64(msow) - float64(pps)
	if pps >= PPSWeekThreshold {
		ms += msPerWeek
	}
	return ms
}

// weekTime is the inverse of PairTime: it returns the GPS week and
// ms-of-week a frame starting at ms with the PPS offset pps would report.
func weekTime(ms float64, pps uint16) (uint16, int32) {
	if pps == frame.FillPPS {
		pps = 0
	}
	g := ms + 1000*RefOffset + float64(pps)
	if pps >= PPSWeekThreshold {
		g -= msPerWeek
	}
	g = math.Round(g)
	week := math.Floor(g / msPerWeek)
	return uint16(week), int32(g - week*msPerWeek)
}

// Model is a linear frame-counter to time relation.
type Model struct {
	Rate   float64 // ms per frame
	Offset float64 // frames
}

// At returns the absolute time of fc.
func (m Model) At(fc float64) float64 {
	return m.Rate * (fc + m.Offset)
}

// Stamp is the reconstructed time of one sample.
type Stamp struct {
	FC      uint32
	MS      float64       // absolute time of FC, FillMS if unknown
	Week    uint16        // fitted GPS week
	MSOW    int32         // fitted ms of week
	Quality frame.Quality // NoFit, NoTime, NoGPS, MSReplaced, WeekReplaced
}
