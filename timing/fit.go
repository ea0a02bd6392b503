// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package timing

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-daq/tdaq/log"
	"github.com/go-lpc/barrel/frame"
	"gonum.org/v1/gonum/stat"
)

// Config holds the parameters of the time reconstruction.
type Config struct {
	Window    int     `yaml:"window"`    // maximum number of samples per fitting window
	Outlier   float64 `yaml:"outlier"`   // maximum distance (ms) of a pair to the median offset
	Tolerance float64 `yaml:"tolerance"` // maximum model jump and tracking residual (ms)
	Replace   float64 `yaml:"replace"`   // ms-of-week difference (ms) flagged as replaced
	MaxSlope  float64 `yaml:"max-slope"` // maximum relative rate deviation of a 2-pair fit
}

// DefaultConfig returns the flight configuration.
func DefaultConfig() Config {
	return Config{
		Window:    2000,
		Outlier:   200,
		Tolerance: 0.5,
		Replace:   1,
		MaxSlope:  0.01,
	}
}

// Validate checks the configuration is usable.
func (cfg Config) Validate() error {
	switch {
	case cfg.Window < 2:
		return fmt.Errorf("timing: invalid window size %d", cfg.Window)
	case !(cfg.Outlier > 0):
		return fmt.Errorf("timing: invalid outlier cut %v", cfg.Outlier)
	case !(cfg.Tolerance > 0):
		return fmt.Errorf("timing: invalid tolerance %v", cfg.Tolerance)
	case !(cfg.Replace > 0):
		return fmt.Errorf("timing: invalid replacement threshold %v", cfg.Replace)
	case !(cfg.MaxSlope > 0):
		return fmt.Errorf("timing: invalid maximum slope deviation %v", cfg.MaxSlope)
	}
	return nil
}

// Outcome describes how a window was time stamped.
type Outcome uint8

const (
	Fitted   Outcome = iota // a new model was fit and accepted
	Reused                  // the previous model was reused
	Unfitted                // no model was available

	numOutcomes
)

func (o Outcome) String() string {
	switch o {
	case Fitted:
		return "fitted"
	case Reused:
		return "reused"
	case Unfitted:
		return "unfitted"
	}
	return fmt.Sprintf("outcome(%d)", uint8(o))
}

// Stats counts the outcomes of the reconstruction.
type Stats struct {
	Windows  [numOutcomes]int
	Pairs    int // usable pairs
	Outliers int // pairs rejected as outliers
}

// Reconstructor fits time models on consecutive windows of samples.
// The last accepted model is carried from one window to the next.
type Reconstructor struct {
	cfg  Config
	msg  log.MsgStream
	prev *Model

	Stats Stats
}

// New returns a new time reconstructor.
func New(cfg Config, msg log.MsgStream) *Reconstructor {
	if msg == nil {
		msg = log.NewMsgStream("timing", log.LvlInfo, nil)
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	return &Reconstructor{cfg: cfg, msg: msg}
}

// FitAndFill stamps samples with the default configuration.
func FitAndFill(samples []Sample) ([]Stamp, Solution) {
	return New(DefaultConfig(), log.NewMsgStream("timing", log.LvlWarning, nil)).FitAndFill(samples)
}

// FitAndFill stamps every sample, processing them in windows of at most
// Config.Window consecutive samples. It returns one stamp per sample and
// the piecewise solution used to stamp the other cadences.
func (r *Reconstructor) FitAndFill(samples []Sample) ([]Stamp, Solution) {
	var (
		stamps = make([]Stamp, len(samples))
		weeks  = fillWeeks(samples)
		sol    Solution
	)

	for beg := 0; beg < len(samples); beg += r.cfg.Window {
		end := beg + r.cfg.Window
		if end > len(samples) {
			end = len(samples)
		}
		seg := r.window(samples[beg:end], weeks[beg:end], stamps[beg:end])
		sol.Segs = append(sol.Segs, seg)
	}

	return stamps, sol
}

func (r *Reconstructor) window(ss []Sample, weeks []uint16, out []Stamp) Segment {
	var (
		pairs = makePairs(ss, weeks)
		kept  = r.reject(pairs)
	)
	r.Stats.Pairs += len(pairs)

	m, outcome := r.choose(kept)
	r.Stats.Windows[outcome]++

	var (
		beg = ss[0].FC
		end = ss[len(ss)-1].FC
	)
	switch outcome {
	case Fitted:
		r.msg.Debugf("window fc=[%d, %d]: rate=%.6f offset=%.3f (pairs=%d/%d)",
			beg, end, m.Rate, m.Offset, len(kept), len(pairs),
		)
	case Reused:
		r.msg.Debugf("window fc=[%d, %d]: reusing previous model (pairs=%d/%d)",
			beg, end, len(kept), len(pairs),
		)
	case Unfitted:
		r.msg.Warnf("window fc=[%d, %d]: no timing information (pairs=%d/%d)",
			beg, end, len(kept), len(pairs),
		)
	}

	seg := Segment{FC: beg, Model: m}
	switch outcome {
	case Reused:
		seg.Quality = frame.NoFit
	case Unfitted:
		seg.Quality = frame.NoTime
	}

	for i, s := range ss {
		out[i] = r.stamp(s, weeks[i], seg)
	}
	return seg
}

// stamp stamps s, week being its reported or propagated GPS week.
func (r *Reconstructor) stamp(s Sample, week uint16, seg Segment) Stamp {
	st := Stamp{FC: s.FC, Quality: seg.Quality}
	if s.MSOW == frame.FillGPS {
		st.Quality |= frame.NoGPS
	}

	if seg.Quality.Has(frame.NoTime) {
		st.MS = FillMS
		st.Week = frame.FillHK
		st.MSOW = frame.FillGPS
		return st
	}

	st.MS = seg.Model.At(float64(s.FC))
	st.Week, st.MSOW = weekTime(seg.Model.At(s.pairFC()), s.PPS)

	if s.MSOW == frame.FillGPS || math.Abs(float64(st.MSOW)-float64(s.MSOW)) > r.cfg.Replace {
		st.Quality |= frame.MSReplaced
	}
	if week == frame.FillHK || st.Week != week {
		st.Quality |= frame.WeekReplaced
	}
	return st
}

func makePairs(ss []Sample, weeks []uint16) []Pair {
	pairs := make([]Pair, 0, len(ss))
	for i, s := range ss {
		if s.MSOW == frame.FillGPS || weeks[i] == frame.FillHK || s.PPS == frame.FillPPS {
			continue
		}
		pairs = append(pairs, Pair{
			FC: s.pairFC(),
			MS: PairTime(weeks[i], s.MSOW, s.PPS),
		})
	}
	return pairs
}

// reject removes the pairs whose offset to the nominal clock is farther
// than Config.Outlier from the median offset.
func (r *Reconstructor) reject(pairs []Pair) []Pair {
	if len(pairs) == 0 {
		return nil
	}
	offs := make([]float64, len(pairs))
	for i, p := range pairs {
		offs[i] = p.MS - NominalRate*p.FC
	}
	med := median(offs)

	kept := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if math.Abs(p.MS-NominalRate*p.FC-med) <= r.cfg.Outlier {
			kept = append(kept, p)
		}
	}
	r.Stats.Outliers += len(pairs) - len(kept)
	return kept
}

func (r *Reconstructor) choose(pairs []Pair) (Model, Outcome) {
	var (
		cand Model
		have bool
	)
	switch {
	case len(pairs) >= 3:
		cand = fit(pairs)
		have = true
	case len(pairs) == 2 && r.prev == nil:
		cand = fit(pairs)
		have = math.Abs(cand.Rate-NominalRate) <= r.cfg.MaxSlope*NominalRate
	}

	if have && r.accept(cand, pairs) {
		r.prev = &cand
		return cand, Fitted
	}

	if r.prev != nil && tracks(*r.prev, pairs, r.cfg.Outlier) {
		return *r.prev, Reused
	}

	return Model{}, Unfitted
}

// accept returns whether the candidate model tracks the pairs and does not
// jump with respect to the previous model, if that one still describes
// the pairs.
func (r *Reconstructor) accept(m Model, pairs []Pair) bool {
	if math.IsNaN(m.Rate) || math.IsInf(m.Rate, 0) || m.Rate <= 0 {
		return false
	}
	if !tracks(m, pairs, r.cfg.Tolerance) {
		return false
	}
	if r.prev == nil || !tracks(*r.prev, pairs, r.cfg.Outlier) {
		return true
	}
	fc := pairs[0].FC
	return math.Abs(m.At(fc)-r.prev.At(fc)) <= r.cfg.Tolerance
}

// tracks returns whether the median absolute residual of the pairs
// with respect to m is within tol.
func tracks(m Model, pairs []Pair, tol float64) bool {
	if len(pairs) == 0 {
		return true
	}
	res := make([]float64, len(pairs))
	for i, p := range pairs {
		res[i] = math.Abs(m.At(p.FC) - p.MS)
	}
	return median(res) <= tol
}

// fit performs an ordinary least squares fit of the pairs.
// Values are centered on the first pair to preserve precision.
func fit(pairs []Pair) Model {
	var (
		x0 = pairs[0].FC
		y0 = pairs[0].MS
		xs = make([]float64, len(pairs))
		ys = make([]float64, len(pairs))
	)
	for i, p := range pairs {
		xs[i] = p.FC - x0
		ys[i] = p.MS - y0
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return Model{
		Rate:   beta,
		Offset: (y0+alpha)/beta - x0,
	}
}

func median(vs []float64) float64 {
	sort.Float64s(vs)
	return stat.Quantile(0.5, stat.Empirical, vs, nil)
}
