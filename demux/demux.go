// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package demux synchronizes decoded frames into the per-cadence record
// streams of a payload.
//
// Frames must be admitted in arrival order. The synchronizer corrects the
// frame counter for rollover, drops frames taken below the minimum science
// altitude and gathers the data spread over 4, 32 and 40 consecutive frames
// into single records.
package demux // import "github.com/go-lpc/barrel/demux"

import (
	"github.com/go-daq/tdaq/log"
	"github.com/go-lpc/barrel/frame"
	"github.com/go-lpc/barrel/rollover"
)

const (
	// RollThreshold is the minimum backward jump of the raw frame counter
	// that is interpreted as a rollover.
	RollThreshold = 2_000_000

	// RollOffset is added to every frame counter after a rollover.
	RollOffset = 1 << frame.FCBits
)

// Config holds the synchronizer parameters.
type Config struct {
	MinAlt int32 // minimum science altitude, mm

	// KeepLowAltitude keeps the frames taken below MinAlt, flagged
	// with LowAlt, instead of dropping them.
	KeepLowAltitude bool
}

// Stats counts what happened to the admitted frames.
type Stats struct {
	Frames        int // frames accepted
	LowAlt        int // frames dropped below the minimum altitude
	NonIncreasing int // frames dropped because their counter did not increase
	Rollovers     int

	Records [NumCadences]int // records emitted, per cadence
	Partial [NumCadences]int // partial groups emitted, per cadence
}

// Synchronizer is the frame group state of one payload.
// It is not safe for concurrent use.
type Synchronizer struct {
	cfg Config
	msg log.MsgStream

	rolled  bool   // frame counters are offset by RollOffset
	rollRun bool   // rollover was declared during this run
	last    uint32 // last accepted raw frame counter
	lastOff uint32 // last accepted corrected frame counter
	seen    bool   // whether a frame was accepted during this run

	black map[uint32]struct{} // mod4 group bases below minimum altitude

	g4  mod4
	g32 mod32
	g40 mod40

	Stats Stats
}

// New creates a synchronizer starting from the rollover state st
// saved at the end of the previous run.
func New(cfg Config, st rollover.State, msg log.MsgStream) *Synchronizer {
	if msg == nil {
		msg = log.NewMsgStream("demux", log.LvlInfo, nil)
	}
	return &Synchronizer{
		cfg:    cfg,
		msg:    msg,
		rolled: st.Rolled,
		last:   st.LastFC,
		black:  make(map[uint32]struct{}),
	}
}

// State returns the rollover state to persist for the next run.
func (s *Synchronizer) State() rollover.State {
	return rollover.State{Rolled: s.rolled, LastFC: s.last}
}

// Rolled returns whether frame counters are currently offset by RollOffset.
func (s *Synchronizer) Rolled() bool { return s.rolled }

// Blacklisted returns whether the mod4 group holding the corrected frame
// counter fc was taken below the minimum science altitude.
func (s *Synchronizer) Blacklisted(fc uint32) bool {
	_, ok := s.black[fc-fc%4]
	return ok
}

// Admit feeds one decoded frame to the synchronizer and returns the records
// finalized by it.
func (s *Synchronizer) Admit(f frame.Frame) Emission {
	var (
		em  Emission
		raw = f.FC
	)

	if !s.rolled && s.last > raw && s.last-raw > RollThreshold {
		s.rolled = true
		s.rollRun = true
		s.Stats.Rollovers++
		s.msg.Infof("frame counter rollover: fc=%d -> fc=%d", s.last, raw)
	}

	off := raw
	switch {
	case s.rollRun && raw > s.last && raw-s.last > RollThreshold:
		// straggler from before the rollover.
	case s.rolled:
		off += RollOffset
	}

	if s.seen && off <= s.lastOff {
		s.Stats.NonIncreasing++
		s.msg.Warnf("dropping frame fc=%d: counter not increasing (last=%d)", off, s.lastOff)
		return em
	}
	s.seen = true
	s.last = raw
	s.lastOff = off

	var (
		b4  = off - raw%4
		b32 = off - raw%SSPCFrames
		b40 = off - raw%HKFrames
	)

	if s.g4.open && s.g4.base != b4 {
		s.flush4(&em)
	}
	if s.g32.open && s.g32.base != b32 {
		s.flush32(&em)
	}
	if s.g40.open && s.g40.base != b40 {
		s.flush40(&em)
	}
	if !s.g4.open {
		s.g4.reset(b4)
	}
	if !s.g32.open {
		s.g32.reset(b32)
	}
	if !s.g40.open {
		s.g40.reset(b40)
	}

	if f.GPSKind() == frame.GPSAltitude && f.Bad&frame.FieldGPS == 0 && f.GPS < s.cfg.MinAlt {
		if _, dup := s.black[b4]; !dup {
			s.msg.Debugf("fc=%d: altitude %d mm below minimum %d mm", off, f.GPS, s.cfg.MinAlt)
		}
		s.black[b4] = struct{}{}
	}

	var q frame.Quality
	if s.rolled && off != raw {
		q |= frame.FCRoll
	}
	if _, low := s.black[b4]; low {
		if !s.cfg.KeepLowAltitude {
			s.g4.drop = true
			s.Stats.LowAlt++
			return em
		}
		q |= frame.LowAlt
	}
	s.Stats.Frames++

	s.fanout(&em, &f, off, q)
	return em
}

// Flush finalizes the open groups of every cadence.
// It must be called once the last frame has been admitted.
func (s *Synchronizer) Flush() Emission {
	var em Emission
	if s.g4.open {
		s.flush4(&em)
	}
	if s.g32.open {
		s.flush32(&em)
	}
	if s.g40.open {
		s.flush40(&em)
	}
	return em
}

func (s *Synchronizer) fanout(em *Emission, f *frame.Frame, fc uint32, q frame.Quality) {
	em.Misc = append(em.Misc, Misc{
		Header:  Header{FC: fc, Quality: f.Quality | q},
		Version: f.Version,
		Source:  f.Source,
		PPS:     f.PPS,
	})

	qmag := q | badQ(f, frame.FieldMag)
	for i, b := range f.Mag {
		em.Magn = append(em.Magn, Magn{
			Header: Header{FC: fc, Quality: qmag},
			Sub:    uint8(i),
			B:      b,
		})
	}

	qfspc := q | badQ(f, frame.FieldFSPC)
	for i, c := range f.FSPC {
		em.FSPC = append(em.FSPC, FastSpec{
			Header: Header{FC: fc, Quality: qfspc},
			Sub:    uint8(i),
			Counts: c,
		})
	}
	s.Stats.Records[MISC]++
	s.Stats.Records[MAGN] += frame.NumMag
	s.Stats.Records[FSPC] += frame.NumFSPC

	s.g4.add(f, q)
	s.g32.add(f, q)
	s.g40.add(f, q)
}

func (s *Synchronizer) flush4(em *Emission) {
	g := &s.g4
	g.open = false
	if g.drop {
		s.msg.Debugf("discarding mod4 group fc=%d below minimum altitude", g.base)
		return
	}
	if g.n == 0 {
		return
	}

	if g.ephm.MSOW == frame.FillGPS {
		g.ephm.Quality |= frame.NoGPS
	}
	if g.n < MSPCFrames {
		g.mspc.Quality |= frame.PartSpec
		s.Stats.Partial[MSPC]++
	}
	g.mspc.N = g.n

	em.Ephm = append(em.Ephm, g.ephm)
	em.Rcnt = append(em.Rcnt, g.rcnt)
	em.MSPC = append(em.MSPC, g.mspc)
	s.Stats.Records[EPHM]++
	s.Stats.Records[RCNT]++
	s.Stats.Records[MSPC]++
}

func (s *Synchronizer) flush32(em *Emission) {
	g := &s.g32
	g.open = false
	if g.n == 0 {
		return
	}
	if g.n < SSPCFrames {
		g.sspc.Quality |= frame.PartSpec
		s.Stats.Partial[SSPC]++
	}
	g.sspc.N = g.n
	em.SSPC = append(em.SSPC, g.sspc)
	s.Stats.Records[SSPC]++
}

func (s *Synchronizer) flush40(em *Emission) {
	g := &s.g40
	g.open = false
	if g.n == 0 {
		return
	}
	if g.n < HKFrames {
		g.hk.Quality |= frame.PartSpec
		s.Stats.Partial[HKPG]++
	}
	g.hk.N = g.n
	em.HKPG = append(em.HKPG, g.hk)
	s.Stats.Records[HKPG]++
}

func badQ(f *frame.Frame, field frame.FieldMask) frame.Quality {
	if f.Bad&field != 0 {
		return frame.OutOfRange
	}
	return 0
}
