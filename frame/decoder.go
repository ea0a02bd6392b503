// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-daq/tdaq/log"
	"github.com/go-lpc/barrel/internal/sum16"
)

// Reason describes why a frame was rejected.
type Reason uint8

const (
	BadLength Reason = iota + 1
	BadChecksum
	WrongSource
)

func (r Reason) String() string {
	switch r {
	case BadLength:
		return "bad-length"
	case BadChecksum:
		return "bad-checksum"
	case WrongSource:
		return "wrong-source"
	}
	return fmt.Sprintf("reason(%d)", uint8(r))
}

// Reject is the error returned when a whole frame is dropped.
type Reject struct {
	Reason Reason

	Len    int    // length of the rejected buffer (BadLength)
	Recv   uint16 // received checksum (BadChecksum)
	Comp   uint16 // computed checksum (BadChecksum)
	Source uint8  // source id found in the frame (WrongSource)
	Want   uint8  // expected source id (WrongSource)
}

var (
	ErrBadLength   = &Reject{Reason: BadLength}
	ErrBadChecksum = &Reject{Reason: BadChecksum}
	ErrWrongSource = &Reject{Reason: WrongSource}
)

func (r *Reject) Error() string {
	switch r.Reason {
	case BadLength:
		return fmt.Sprintf("frame: invalid frame length (got=%d, want=%d)", r.Len, Size)
	case BadChecksum:
		return fmt.Sprintf("frame: inconsistent checksum: recv=0x%04x comp=0x%04x", r.Recv, r.Comp)
	case WrongSource:
		return fmt.Sprintf("frame: invalid source ID (got=%d, want=%d)", r.Source, r.Want)
	}
	return fmt.Sprintf("frame: rejected (%v)", r.Reason)
}

// Is reports whether target is a *Reject with the same reason.
func (r *Reject) Is(target error) bool {
	t, ok := target.(*Reject)
	return ok && t.Reason == r.Reason
}

// Decode decodes raw with the default layout.
func Decode(raw []byte, src uint8) (Frame, error) {
	return DefaultLayout.Decode(raw, src)
}

// Decode validates the checksum and source id of raw and extracts all the
// fields of the frame. Out-of-range fields are replaced by their fill
// value and flagged; they do not reject the frame.
func (lay Layout) Decode(raw []byte, src uint8) (Frame, error) {
	if len(raw) < Size {
		return Frame{}, &Reject{Reason: BadLength, Len: len(raw)}
	}
	raw = raw[:Size]

	var (
		recv = binary.BigEndian.Uint16(raw[Size-sum16.Size:])
		comp = sum16.Checksum(raw[:Size-sum16.Size])
	)
	if recv != comp {
		return Frame{}, &Reject{Reason: BadChecksum, Recv: recv, Comp: comp}
	}

	var (
		f  Frame
		r  = bitReader{p: raw}
		ok bool
	)

	f.Version = uint8(r.read(versionBits))
	f.Source = uint8(r.read(sourceBits))
	if f.Source != src {
		return Frame{}, &Reject{Reason: WrongSource, Source: f.Source, Want: src}
	}
	f.FC = r.u32(FCBits)

	gps := int32(r.u32(gpsBits))
	switch f.GPSKind() {
	case GPSAltitude:
		f.GPS, ok = inRange(gps, AltMin, AltMax, FillGPS)
		f.check(ok, FieldGPS)
	case GPSTime:
		f.GPS, ok = inRange(gps, MSOWMin, MSOWMax, FillGPS)
		f.check(ok, FieldGPS)
	default:
		f.GPS = gps
	}

	switch pps := r.u16(ppsBits); pps {
	case PPSNotArrived:
		f.PPS = FillPPS
	default:
		f.PPS, ok = inRange(pps, 0, PPSMax, FillPPS)
		f.check(ok, FieldPPS)
	}

	for i := range f.Mag {
		for j := range f.Mag[i] {
			f.Mag[i][j], ok = inRange(r.u32(magBits), MagMin, MagMax, FillMag)
			f.check(ok, FieldMag)
		}
	}

	f.HK, ok = decodeHK(f.HKTag(), r.u16(hkBits))
	f.check(ok, FieldHK)

	for i := range f.FSPC {
		for j, w := range lay.FSPC {
			f.FSPC[i][j], ok = inRange(r.u16(w), 0, lay.fspcMax(j), FillCount)
			f.check(ok, FieldFSPC)
		}
	}

	for i := range f.MSPC {
		f.MSPC[i], ok = inRange(r.u16(mspcBits), 0, CountMax, FillCount)
		f.check(ok, FieldMSPC)
	}

	for i := range f.SSPC {
		f.SSPC[i], ok = inRange(r.u16(sspcBits), 0, CountMax, FillCount)
		f.check(ok, FieldSSPC)
	}

	f.RCNT, ok = inRange(r.u16(rcntBits), 0, CountMax, FillCount)
	f.check(ok, FieldRCNT)

	return f, nil
}

// SourceOf validates the length and checksum of raw and returns the
// source id of the frame, without decoding it.
func SourceOf(raw []byte) (uint8, error) {
	if len(raw) < Size {
		return 0, &Reject{Reason: BadLength, Len: len(raw)}
	}
	var (
		recv = binary.BigEndian.Uint16(raw[Size-sum16.Size:])
		comp = sum16.Checksum(raw[:Size-sum16.Size])
	)
	if recv != comp {
		return 0, &Reject{Reason: BadChecksum, Recv: recv, Comp: comp}
	}
	r := bitReader{p: raw}
	r.read(versionBits)
	return uint8(r.read(sourceBits)), nil
}

func (f *Frame) check(ok bool, field FieldMask) {
	if ok {
		return
	}
	f.Bad |= field
	f.Quality |= OutOfRange
}

func inRange[T int32 | uint16 | uint32](v, lo, hi, fill T) (T, bool) {
	if v < lo || hi < v {
		return fill, false
	}
	return v, true
}

func decodeHK(tag HKTag, w uint16) (HKWord, bool) {
	var (
		hi = w >> 8
		lo = w & 0xff
	)
	switch tag {
	case HKSatsLeap:
		sats, ok1 := inRange(hi, 0, SatsMax, FillHK)
		leap, ok2 := inRange(lo, 0, LeapMax, FillHK)
		return HKWord{A: sats, B: leap}, ok1 && ok2
	case HKWeek:
		week, ok := inRange(w, 0, WeekMax, FillHK)
		return HKWord{A: week}, ok
	case HKTermCmd:
		term, ok1 := inRange(hi, 0, TermMax, FillHK)
		cmd, ok2 := inRange(lo, 0, CmdMax, FillHK)
		return HKWord{A: term, B: cmd}, ok1 && ok2
	case HKModemDCD:
		modem, ok1 := inRange(hi, 0, ModemMax, FillHK)
		dcd, ok2 := inRange(lo, 0, DCDMax, FillHK)
		return HKWord{A: modem, B: dcd}, ok1 && ok2
	default:
		v, ok := inRange(w, 0, AnalogMax, FillHK)
		return HKWord{A: v}, ok
	}
}

// Decoder decodes frames from a single source, logging rejected frames.
type Decoder struct {
	src uint8
	lay Layout
	msg log.MsgStream
}

// NewDecoder creates a decoder for frames sent by source src.
func NewDecoder(src uint8, lay Layout, msg log.MsgStream) *Decoder {
	return &Decoder{src: src, lay: lay, msg: msg}
}

// Decode decodes raw. Rejected frames are reported on the message stream
// and returned as a *Reject error.
func (dec *Decoder) Decode(raw []byte) (Frame, error) {
	f, err := dec.lay.Decode(raw, dec.src)
	if err != nil && dec.msg != nil {
		var rej *Reject
		switch {
		case errors.As(err, &rej) && rej.Reason == WrongSource:
			dec.msg.Warnf("dropping frame from source %d (want=%d)", rej.Source, rej.Want)
		default:
			dec.msg.Warnf("dropping frame: %+v", err)
		}
	}
	return f, err
}
