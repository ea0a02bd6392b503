// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package demux

import (
	"github.com/go-lpc/barrel/frame"
)

// mod4 accumulates the ephemeris, rate counters and medium spectrum of
// one group of 4 frames.
type mod4 struct {
	base uint32
	open bool
	drop bool
	n    int

	ephm Ephm
	rcnt Rcnt
	mspc MedSpec
}

func (g *mod4) reset(base uint32) {
	*g = mod4{base: base, open: true}
	g.ephm = Ephm{
		Header: Header{FC: base},
		Alt:    frame.FillGPS,
		MSOW:   frame.FillGPS,
		Lat:    frame.FillGPS,
		Lon:    frame.FillGPS,
		PPS:    frame.FillPPS,
		Week:   frame.FillHK,
	}
	g.rcnt.FC = base
	for i := range g.rcnt.Counts {
		g.rcnt.Counts[i] = frame.FillCount
	}
	g.mspc.FC = base
	for i := range g.mspc.Counts {
		g.mspc.Counts[i] = frame.FillCount
	}
}

func (g *mod4) add(f *frame.Frame, q frame.Quality) {
	g.n++
	i := f.FC % 4

	g.ephm.Quality |= q | badQ(f, frame.FieldGPS)
	switch f.GPSKind() {
	case frame.GPSAltitude:
		g.ephm.Alt = f.GPS
	case frame.GPSTime:
		g.ephm.MSOW = f.GPS
		g.ephm.PPS = f.PPS
		g.ephm.Quality |= badQ(f, frame.FieldPPS)
	case frame.GPSLatitude:
		g.ephm.Lat = f.GPS
	case frame.GPSLongitude:
		g.ephm.Lon = f.GPS
	}
	if f.HKTag() == frame.HKWeek && f.Bad&frame.FieldHK == 0 {
		g.ephm.Week = f.HK.A
	}

	g.rcnt.Quality |= q | badQ(f, frame.FieldRCNT)
	g.rcnt.Counts[i] = f.RCNT

	g.mspc.Quality |= q | badQ(f, frame.FieldMSPC)
	copy(g.mspc.Counts[i*frame.NumMSPC:], f.MSPC[:])
}

// mod32 accumulates one slow spectrum.
type mod32 struct {
	base uint32
	open bool
	n    int
	sspc SlowSpec
}

func (g *mod32) reset(base uint32) {
	*g = mod32{base: base, open: true}
	g.sspc.FC = base
	for i := range g.sspc.Counts {
		g.sspc.Counts[i] = frame.FillCount
	}
}

func (g *mod32) add(f *frame.Frame, q frame.Quality) {
	g.n++
	i := f.FC % SSPCFrames
	g.sspc.Quality |= q | badQ(f, frame.FieldSSPC)
	copy(g.sspc.Counts[i*frame.NumSSPC:], f.SSPC[:])
}

// mod40 accumulates one housekeeping page.
type mod40 struct {
	base uint32
	open bool
	n    int
	hk   HK
}

func (g *mod40) reset(base uint32) {
	*g = mod40{base: base, open: true}
	g.hk.FC = base
	for i := range g.hk.Analog {
		g.hk.Analog[i] = frame.FillHK
	}
	g.hk.Sats = frame.FillHK
	g.hk.Leap = frame.FillHK
	g.hk.Week = frame.FillHK
	g.hk.Term = frame.FillHK
	g.hk.Cmd = frame.FillHK
	g.hk.Modem = frame.FillHK
	g.hk.DCD = frame.FillHK
}

func (g *mod40) add(f *frame.Frame, q frame.Quality) {
	g.n++
	g.hk.Quality |= q | badQ(f, frame.FieldHK)
	switch f.HKTag() {
	case frame.HKSatsLeap:
		g.hk.Sats, g.hk.Leap = f.HK.A, f.HK.B
	case frame.HKWeek:
		g.hk.Week = f.HK.A
	case frame.HKTermCmd:
		g.hk.Term, g.hk.Cmd = f.HK.A, f.HK.B
	case frame.HKModemDCD:
		g.hk.Modem, g.hk.DCD = f.HK.A, f.HK.B
	default:
		g.hk.Analog[f.FC%HKFrames] = f.HK.A
	}
}
