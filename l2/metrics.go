// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package l2

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus counters updated by processors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	frames    *prometheus.CounterVec // frames by result
	partial   *prometheus.CounterVec // partial groups by cadence
	records   *prometheus.CounterVec // records by cadence
	windows   *prometheus.CounterVec // timing windows by outcome
	peaks     *prometheus.CounterVec // 511 keV searches by outcome
	rollovers *prometheus.CounterVec
}

// NewMetrics creates the processing metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		frames: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "barrel",
				Name:      "frames_total",
				Help:      "Number of telemetry frames, by processing result",
			},
			[]string{"payload", "result"},
		),
		partial: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "barrel",
				Name:      "partial_groups_total",
				Help:      "Number of multi-frame records emitted with missing frames",
			},
			[]string{"payload", "cadence"},
		),
		records: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "barrel",
				Name:      "records_total",
				Help:      "Number of records emitted, by cadence",
			},
			[]string{"payload", "cadence"},
		),
		windows: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "barrel",
				Name:      "timing_windows_total",
				Help:      "Number of timing windows, by fit outcome",
			},
			[]string{"payload", "outcome"},
		),
		peaks: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "barrel",
				Name:      "peak511_searches_total",
				Help:      "Number of 511 keV line searches, by outcome",
			},
			[]string{"payload", "outcome"},
		),
		rollovers: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "barrel",
				Name:      "rollovers_total",
				Help:      "Number of frame counter rollovers",
			},
			[]string{"payload"},
		),
	}
}

func (m *Metrics) frame(payload, result string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.frames.WithLabelValues(payload, result).Add(float64(n))
}

func (m *Metrics) observe(payload string, st Stats) {
	if m == nil {
		return
	}

	m.frame(payload, "accepted", st.Demux.Frames)
	m.frame(payload, "low-alt", st.Demux.LowAlt)
	m.frame(payload, "non-increasing", st.Demux.NonIncreasing)
	m.frame(payload, "out-of-range", st.OutOfRange)
	for reason, n := range st.Rejected {
		m.frame(payload, reason, n)
	}

	for _, c := range cadences {
		if n := st.Demux.Records[c]; n > 0 {
			m.records.WithLabelValues(payload, c.String()).Add(float64(n))
		}
		if n := st.Demux.Partial[c]; n > 0 {
			m.partial.WithLabelValues(payload, c.String()).Add(float64(n))
		}
	}

	for _, o := range outcomes {
		if n := st.Timing.Windows[o]; n > 0 {
			m.windows.WithLabelValues(payload, o.String()).Add(float64(n))
		}
	}

	if st.Peaks > 0 {
		m.peaks.WithLabelValues(payload, "found").Add(float64(st.Peaks))
	}
	if st.NoPeaks > 0 {
		m.peaks.WithLabelValues(payload, "missing").Add(float64(st.NoPeaks))
	}

	if st.Demux.Rollovers > 0 {
		m.rollovers.WithLabelValues(payload).Add(float64(st.Demux.Rollovers))
	}
}
