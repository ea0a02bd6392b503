// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package l2 runs the level-two reduction of the telemetry of one payload.
//
// A Processor splits the raw telemetry stream into frames, decodes them,
// synchronizes them into per-cadence records, reconstructs the absolute
// time of every record and calibrates the X-ray spectra.
package l2 // import "github.com/go-lpc/barrel/l2"

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-daq/tdaq/log"
	"github.com/go-lpc/barrel/config"
	"github.com/go-lpc/barrel/demux"
	"github.com/go-lpc/barrel/frame"
	"github.com/go-lpc/barrel/internal/rawfile"
	"github.com/go-lpc/barrel/rollover"
	"github.com/go-lpc/barrel/spectrum"
	"github.com/go-lpc/barrel/timing"
)

var (
	cadences = demux.Cadences()
	outcomes = []timing.Outcome{timing.Fitted, timing.Reused, timing.Unfitted}
)

// Config is the processing configuration of one payload.
type Config struct {
	Payload string
	Source  uint8
	Sync    []byte
	Layout  frame.Layout

	Demux    demux.Config
	Timing   timing.Config
	Spectrum spectrum.Config

	// PeakSpectra is the number of consecutive slow spectra summed
	// to locate the 511 keV line.
	PeakSpectra int
}

// DefaultPeakSpectra is the default 511 keV accumulation period,
// in slow spectra (about 34 min).
const DefaultPeakSpectra = 64

// NewConfig returns the processing configuration of payload p.
func NewConfig(cfg config.Config, p config.Payload) (Config, error) {
	sync, err := cfg.Frame.SyncBytes()
	if err != nil {
		return Config{}, fmt.Errorf("l2: %w", err)
	}
	return Config{
		Payload: p.Name,
		Source:  p.Source,
		Sync:    sync,
		Layout:  cfg.Frame.Layout,
		Demux: demux.Config{
			MinAlt:          p.MinAltMM(),
			KeepLowAltitude: p.KeepLowAltitude,
		},
		Timing:      cfg.Timing,
		Spectrum:    cfg.Spectrum,
		PeakSpectra: DefaultPeakSpectra,
	}, nil
}

// Processor reduces the telemetry of one payload.
// Processors share no state and may run concurrently.
type Processor struct {
	cfg   Config
	store rollover.Store
	mon   *Metrics
	msg   log.MsgStream
}

// NewProcessor creates a processor.
// The rollover state is loaded from and saved to store, when not nil.
func NewProcessor(cfg Config, store rollover.Store, mon *Metrics, msg log.MsgStream) *Processor {
	if msg == nil {
		msg = log.NewMsgStream("l2-"+cfg.Payload, log.LvlInfo, nil)
	}
	if len(cfg.Sync) == 0 {
		cfg.Sync = frame.Sync()
	}
	if cfg.Layout == (frame.Layout{}) {
		cfg.Layout = frame.DefaultLayout
	}
	if cfg.PeakSpectra <= 0 {
		cfg.PeakSpectra = DefaultPeakSpectra
	}
	return &Processor{
		cfg:   cfg,
		store: store,
		mon:   mon,
		msg:   msg,
	}
}

// ProcessFile processes the named raw telemetry file.
func (p *Processor) ProcessFile(ctx context.Context, fname string) (*Products, error) {
	f, err := rawfile.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("l2: could not open telemetry for %q: %w", p.cfg.Payload, err)
	}
	defer f.Close()

	if f.Compression != rawfile.None {
		p.msg.Debugf("decompressed %s file %q (%d bytes)", f.Compression, fname, len(f.Bytes()))
	}

	prods, err := p.Process(ctx, f.Bytes())
	if err != nil {
		return nil, err
	}

	err = f.Close()
	if err != nil {
		return nil, fmt.Errorf("l2: could not close telemetry file: %w", err)
	}
	return prods, nil
}

// Process processes a raw telemetry stream.
func (p *Processor) Process(ctx context.Context, raw []byte) (*Products, error) {
	key := rollover.Key(p.cfg.Payload, p.cfg.Source)

	var st rollover.State
	if p.store != nil {
		var err error
		st, err = p.store.Load(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("l2: could not load rollover state of %q: %w", key, err)
		}
	}

	var (
		prods = &Products{
			Payload: p.cfg.Payload,
			Stats:   Stats{Rejected: make(map[string]int)},
		}
		sp   = frame.NewSplitter(raw, p.cfg.Sync, frame.Size, p.msg)
		dec  = frame.NewDecoder(p.cfg.Source, p.cfg.Layout, p.msg)
		sync = demux.New(p.cfg.Demux, st, p.msg)
	)

	for i := 0; ; i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("l2: processing of %q interrupted: %w", p.cfg.Payload, err)
			}
		}

		buf, ok := sp.Next()
		if !ok {
			break
		}

		f, err := dec.Decode(buf)
		if err != nil {
			var rej *frame.Reject
			if !errors.As(err, &rej) {
				return nil, fmt.Errorf("l2: could not decode frame: %w", err)
			}
			prods.Stats.Rejected[rej.Reason.String()]++
			continue
		}
		if f.Quality.Has(frame.OutOfRange) {
			prods.Stats.OutOfRange++
		}
		prods.Emission.Append(sync.Admit(f))
	}
	prods.Emission.Append(sync.Flush())

	prods.Stats.Frames = sp.Frames
	prods.Stats.Discarded = sp.Discarded
	prods.Stats.Demux = sync.Stats
	prods.State = sync.State()

	if p.store != nil {
		err := p.store.Save(ctx, key, prods.State)
		if err != nil {
			return nil, fmt.Errorf("l2: could not save rollover state of %q: %w", key, err)
		}
	}

	p.stamp(prods)
	p.calibrate(prods)

	p.mon.observe(p.cfg.Payload, prods.Stats)
	p.msg.Infof(
		"%s: frames=%d rejected=%d low-alt=%d rollover=%v windows=%v peaks=%d/%d",
		p.cfg.Payload, prods.Stats.Frames, prods.Stats.NumRejected(),
		prods.Stats.Demux.LowAlt, prods.State.Rolled,
		prods.Stats.Timing.Windows,
		prods.Stats.Peaks, prods.Stats.Peaks+prods.Stats.NoPeaks,
	)

	return prods, nil
}

// stamp reconstructs the time base from the ephemeris records and stamps
// the records of every cadence.
func (p *Processor) stamp(prods *Products) {
	samples := make([]timing.Sample, len(prods.Ephm))
	for i, e := range prods.Ephm {
		samples[i] = timing.Sample{
			FC:   e.FC,
			MSOW: e.MSOW,
			Week: e.Week,
			PPS:  e.PPS,
		}
	}

	var (
		tr          = timing.New(p.cfg.Timing, p.msg)
		stamps, sol = tr.FitAndFill(samples)
	)
	prods.Stamps = stamps
	prods.Solution = sol
	prods.Stats.Timing = tr.Stats

	for i := range prods.Ephm {
		prods.Ephm[i].MS = stamps[i].MS
		prods.Ephm[i].Quality |= stamps[i].Quality
	}

	at := func(h *demux.Header) {
		ms, q := sol.At(float64(h.FC))
		h.MS = ms
		h.Quality |= q
	}
	sub := func(h *demux.Header, i, n int) {
		ms, q := sol.Sub(h.FC, i, n)
		h.MS = ms
		h.Quality |= q
	}

	for i := range prods.Misc {
		at(&prods.Misc[i].Header)
	}
	for i := range prods.Magn {
		rec := &prods.Magn[i]
		sub(&rec.Header, int(rec.Sub), frame.NumMag)
	}
	for i := range prods.FSPC {
		rec := &prods.FSPC[i]
		sub(&rec.Header, int(rec.Sub), frame.NumFSPC)
	}
	for i := range prods.Rcnt {
		at(&prods.Rcnt[i].Header)
	}
	for i := range prods.MSPC {
		at(&prods.MSPC[i].Header)
	}
	for i := range prods.SSPC {
		at(&prods.SSPC[i].Header)
	}
	for i := range prods.HKPG {
		at(&prods.HKPG[i].Header)
	}
}

// calibrate calibrates the medium and slow spectra and the fast-spectrum
// bands, using the temperatures of the housekeeping pages.
func (p *Processor) calibrate(prods *Products) {
	var (
		cal   = spectrum.NewCalibrator(p.cfg.Spectrum)
		temps = newTemps(prods.HKPG, p.cfg.Spectrum.Coeffs.KRef)
	)

	prods.Bands = make([]Bands, 0, len(prods.HKPG))
	for i := range prods.HKPG {
		hk := &prods.HKPG[i]
		ts, td, ok := hk.Temps()
		if !ok {
			continue
		}
		prods.Bands = append(prods.Bands, Bands{
			Header: hk.Header,
			Edges:  cal.FSPCEdges(spectrum.Context{Scint: ts, DPU: td}),
		})
	}

	prods.MedSpectra = make([]Spectrum, len(prods.MSPC))
	for i := range prods.MSPC {
		var (
			rec = &prods.MSPC[i]
			ctx = temps.at(rec.FC)
		)
		prods.MedSpectra[i] = Spectrum{
			Header:   rec.Header,
			Spectrum: cal.CalibrateAndRebin(spectrum.Medium, rec.Counts[:], ctx),
		}
	}

	prods.SlowSpectra = make([]Spectrum, len(prods.SSPC))
	for beg := 0; beg < len(prods.SSPC); beg += p.cfg.PeakSpectra {
		end := beg + p.cfg.PeakSpectra
		if end > len(prods.SSPC) {
			end = len(prods.SSPC)
		}
		period := prods.SSPC[beg:end]

		spectra := make([][]float64, 0, len(period))
		for i := range period {
			rec := &period[i]
			if rec.N != demux.SSPCFrames || rec.Quality.Has(frame.PartSpec) {
				continue
			}
			spectra = append(spectra, spectrum.Counts(rec.Counts[:]))
		}

		peak, ok := cal.Peak511(spectra)
		switch {
		case ok:
			prods.Stats.Peaks++
		default:
			prods.Stats.NoPeaks++
			p.msg.Debugf(
				"%s: no 511 keV line in %d slow spectra from fc=%d",
				p.cfg.Payload, len(spectra), period[0].FC,
			)
		}

		for i := range period {
			rec := &period[i]
			ctx := temps.at(rec.FC)
			ctx.Peak = peak
			ctx.HasPeak = ok
			prods.SlowSpectra[beg+i] = Spectrum{
				Header:   rec.Header,
				Spectrum: cal.CalibrateAndRebin(spectrum.Slow, rec.Counts[:], ctx),
				Peak:     peak,
				HasPeak:  ok,
			}
		}
	}
}

// temps looks up the temperatures valid at a given frame counter.
type temps struct {
	fcs  []uint32
	ctxs []spectrum.Context
	ref  float64
}

func newTemps(pages []demux.HK, ref float64) temps {
	o := temps{ref: ref}
	for i := range pages {
		ts, td, ok := pages[i].Temps()
		if !ok {
			continue
		}
		o.fcs = append(o.fcs, pages[i].FC)
		o.ctxs = append(o.ctxs, spectrum.Context{Scint: ts, DPU: td})
	}
	return o
}

// at returns the temperatures of the latest page starting at or before fc.
// Records before the first page use the first page, and the reference
// temperature is used when no page holds valid temperatures.
func (t temps) at(fc uint32) spectrum.Context {
	if len(t.fcs) == 0 {
		return spectrum.Context{Scint: t.ref, DPU: t.ref}
	}
	i := sort.Search(len(t.fcs), func(i int) bool { return t.fcs[i] > fc }) - 1
	if i < 0 {
		i = 0
	}
	return t.ctxs[i]
}
