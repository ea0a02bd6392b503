// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package simu generates synthetic telemetry frames.
package simu // import "github.com/go-lpc/barrel/internal/simu"

import (
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/go-lpc/barrel/frame"
	"github.com/go-lpc/barrel/spectrum"
	"github.com/go-lpc/barrel/timing"
)

// Config describes the simulated payload.
type Config struct {
	Source uint8
	Start  uint32  // raw frame counter of the first frame
	T0     float64 // start time of the first frame, ms since J2000
	Rate   float64 // ms per frame
	PPS    uint16  // PPS offset reported by every frame
	Alt    int32   // altitude, mm

	Scint float64 // scintillator temperature, C
	DPU   float64 // DPU temperature, C
	Peak  float64 // 511 keV line position, channels

	Seed int64
}

// DefaultConfig returns a payload floating at 32 km, on 2026-01-15.
func DefaultConfig() Config {
	return Config{
		Source: 9,
		Start:  1_000_000,
		T0:     821_707_200_000, // 2026-01-15T00:00:00 (GPS)
		Rate:   timing.NominalRate,
		PPS:    120,
		Alt:    32_000_000,
		Scint:  20,
		DPU:    25,
		Peak:   213,
		Seed:   1234,
	}
}

// Generator produces consecutive frames of a simulated payload.
type Generator struct {
	cfg  Config
	lay  frame.Layout
	rnd  *rand.Rand
	n    int64 // number of generated frames
	mspc []float64
	sspc []float64
}

// New returns a new generator.
func New(cfg Config) *Generator {
	if cfg.Rate == 0 {
		cfg.Rate = timing.NominalRate
	}
	return &Generator{
		cfg:  cfg,
		lay:  frame.DefaultLayout,
		rnd:  rand.New(rand.NewSource(cfg.Seed)),
		mspc: expected(spectrum.NativeEdges(spectrum.Medium), cfg.Peak),
		sspc: expected(spectrum.NativeEdges(spectrum.Slow), cfg.Peak),
	}
}

// expected returns the counts per native bin of a spectrum made of a
// falling background and a gaussian line at peak channels.
func expected(edges []float64, peak float64) []float64 {
	counts := make([]float64, len(edges)-1)
	for i := range counts {
		var (
			lo = edges[i]
			hi = edges[i+1]
			ch = 0.5 * (lo + hi)
			dx = ch - peak
		)
		dens := 2000*math.Exp(-ch/150) + 400*math.Exp(-dx*dx/(2*12*12))
		counts[i] = dens * (hi - lo)
	}
	return counts
}

// Time returns the start time (ms since J2000) of the i-th frame.
func (g *Generator) Time(i int64) float64 {
	return g.cfg.T0 + g.cfg.Rate*float64(i)
}

// FC returns the raw frame counter of the i-th frame.
func (g *Generator) FC(i int64) uint32 {
	return uint32((int64(g.cfg.Start) + i) & frame.FCMax)
}

// Next returns the next frame.
func (g *Generator) Next() frame.Frame {
	f := g.Frame(g.n)
	g.n++
	return f
}

// Frame returns the i-th frame of the payload.
func (g *Generator) Frame(i int64) frame.Frame {
	var (
		fc = g.FC(i)
		ms = g.Time(i)
		f  = frame.Frame{
			Version: 3,
			Source:  g.cfg.Source,
			FC:      fc,
			PPS:     g.cfg.PPS,
		}
	)

	week, msow := gpsTime(ms, g.cfg.PPS)
	switch f.GPSKind() {
	case frame.GPSAltitude:
		f.GPS = g.cfg.Alt
	case frame.GPSTime:
		f.GPS = msow
	case frame.GPSLatitude:
		f.GPS = -812_345_678
	case frame.GPSLongitude:
		f.GPS = 1_234_567_890
	}

	for j := range f.Mag {
		for k := range f.Mag[j] {
			f.Mag[j][k] = 0x800000 + uint32(g.rnd.Intn(0x1000)) - 0x800
		}
	}

	switch f.HKTag() {
	case frame.HKSatsLeap:
		f.HK = frame.HKWord{A: 9, B: 18}
	case frame.HKWeek:
		f.HK = frame.HKWord{A: week}
	case frame.HKTermCmd:
		f.HK = frame.HKWord{A: 0, B: uint16(fc/frame.HKCycle) & 0xff}
	case frame.HKModemDCD:
		f.HK = frame.HKWord{}
	default:
		f.HK = frame.HKWord{A: g.analog(int(fc % frame.HKCycle))}
	}

	for j := range f.FSPC {
		for k, w := range g.lay.FSPC {
			hi := 1<<w - 2
			v := 20 + g.rnd.Intn(10)
			if v > hi {
				v = hi
			}
			f.FSPC[j][k] = uint16(v)
		}
	}

	var (
		m4  = int(fc % 4)
		m32 = int(fc % 32)
	)
	for j := range f.MSPC {
		f.MSPC[j] = count(g.mspc[m4*frame.NumMSPC+j])
	}
	for j := range f.SSPC {
		f.SSPC[j] = count(g.sspc[m32*frame.NumSSPC+j])
	}
	f.RCNT = uint16(1000 + g.rnd.Intn(100))

	return f
}

func (g *Generator) analog(i int) uint16 {
	ch := frame.Analog(i)
	switch i {
	case frame.HKScintTemp:
		return raw(ch, g.cfg.Scint)
	case frame.HKDPUTemp:
		return raw(ch, g.cfg.DPU)
	}
	if ch.Unit == "C" {
		return raw(ch, 15)
	}
	return 0x4000
}

// raw returns the raw reading of channel ch for the physical value v.
func raw(ch frame.Channel, v float64) uint16 {
	return uint16(math.Round((v - ch.Offset) / ch.Scale))
}

func count(v float64) uint16 {
	v = math.Round(v)
	if v > frame.CountMax {
		return frame.CountMax
	}
	return uint16(v)
}

// gpsTime returns the GPS week and ms-of-week a frame starting at ms
// reports with the PPS offset pps.
func gpsTime(ms float64, pps uint16) (uint16, int32) {
	const msPerWeek = 1000 * timing.SecondsPerWeek
	g := ms + 1000*timing.RefOffset + float64(pps)
	if pps >= timing.PPSWeekThreshold {
		g -= msPerWeek
	}
	week := math.Floor(g / msPerWeek)
	return uint16(week), int32(g - week*msPerWeek)
}

// Write writes n sync-prefixed frames to w.
func (g *Generator) Write(w io.Writer, n int) error {
	enc := frame.NewEncoder(w, g.lay)
	for i := 0; i < n; i++ {
		f := g.Next()
		err := enc.Encode(&f)
		if err != nil {
			return fmt.Errorf("simu: could not encode frame %d: %w", f.FC, err)
		}
	}
	return nil
}
