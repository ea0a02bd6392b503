// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package frame decodes and validates the fixed-width telemetry frames
// sent down by a balloon payload.
//
// A frame is 1696 bits long (212 bytes), preceded on the wire by the
// 0xEB90 synchronization word, and terminated by a 16-bit checksum:
//
//	version(5) source(6) fc(21) gps(32) pps(16)
//	4x mag(X,Y,Z: 3x24) hk(16) 20x fspc(48) 12x mspc(16) 8x sspc(16)
//	rcnt(16) checksum(16)
//
// Fields are packed MSB-first.
package frame // import "github.com/go-lpc/barrel/frame"

import (
	"strings"
)

const (
	Size     = 212      // frame size in bytes, sync word excluded
	NumWords = Size / 2 // number of 16-bit words, checksum included

	SyncWord = 0xeb90 // synchronization marker preceding each frame

	NumMag  = 4  // magnetometer samples per frame (4 Hz)
	NumFSPC = 20 // fast spectra per frame (20 Hz)
	NumMSPC = 12 // medium spectrum channels per frame
	NumSSPC = 8  // slow spectrum channels per frame

	FCBits = 21
	FCMax  = 1<<FCBits - 1

	SourceMax = 1<<sourceBits - 1 // largest DPU source id
)

// Sync returns the synchronization marker as it appears on the wire.
func Sync() []byte {
	return []byte{SyncWord >> 8, SyncWord & 0xff}
}

// Frame is a decoded telemetry frame.
// Every range-checked field either holds a valid value or its fill value,
// in which case OutOfRange is set in Quality and the field kind in Bad.
type Frame struct {
	Version uint8
	Source  uint8
	FC      uint32 // raw 21-bit frame counter

	GPS int32  // GPS sub-field, see GPSKind
	PPS uint16 // ms from frame start to GPS pulse-per-second

	Mag  [NumMag][3]uint32 // X,Y,Z raw magnetometer counts
	HK   HKWord            // housekeeping sub-fields, see HKTag
	FSPC [NumFSPC][4]uint16
	MSPC [NumMSPC]uint16
	SSPC [NumSSPC]uint16
	RCNT uint16

	Quality Quality
	Bad     FieldMask
}

// GPSKind returns the meaning of the GPS sub-field of this frame.
func (f *Frame) GPSKind() GPSKind { return GPSKindOf(f.FC) }

// HKTag returns the meaning of the housekeeping word of this frame.
func (f *Frame) HKTag() HKTag { return HKTagOf(f.FC) }

// GPSKind selects the GPS sub-field carried by a frame, from fc mod 4.
type GPSKind uint8

const (
	GPSAltitude GPSKind = iota // altitude, mm
	GPSTime                    // milliseconds of GPS week
	GPSLatitude                // raw latitude counts
	GPSLongitude               // raw longitude counts
)

func GPSKindOf(fc uint32) GPSKind { return GPSKind(fc % 4) }

func (k GPSKind) String() string {
	switch k {
	case GPSAltitude:
		return "altitude"
	case GPSTime:
		return "ms-of-week"
	case GPSLatitude:
		return "latitude"
	case GPSLongitude:
		return "longitude"
	}
	return "gps-kind(?)"
}

// Quality is a set of OR-accumulated flags describing known defects of a record.
type Quality uint32

const (
	FCRoll       Quality = 1 << iota // frame counter rolled over
	NoGPS                            // no valid GPS time in record
	NoFit                            // time stamp from a model not fit to this window
	PartSpec                         // multi-frame group is incomplete
	LowAlt                           // below minimum science altitude
	OutOfRange                       // at least one field replaced by its fill value
	MSReplaced                       // ms-of-week differs from the fitted time
	WeekReplaced                     // GPS week differs from the fitted time
	NoTime                           // no timing information, fill time stamp
)

var qualityNames = []string{
	"fc-roll", "no-gps", "no-fit", "part-spec", "low-alt",
	"out-of-range", "ms-replaced", "week-replaced", "no-time",
}

// Has returns whether all flags of v are set in q.
func (q Quality) Has(v Quality) bool { return q&v == v }

func (q Quality) String() string {
	if q == 0 {
		return "ok"
	}
	var o []string
	for i, name := range qualityNames {
		if q&(1<<i) != 0 {
			o = append(o, name)
		}
	}
	return strings.Join(o, "|")
}

// FieldMask records which field kinds of a frame failed their range check.
type FieldMask uint16

const (
	FieldGPS FieldMask = 1 << iota
	FieldPPS
	FieldMag
	FieldHK
	FieldFSPC
	FieldMSPC
	FieldSSPC
	FieldRCNT
)
