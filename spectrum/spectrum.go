// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spectrum calibrates the energy scale of the X-ray spectra and
// rebins them onto standard energy grids.
package spectrum // import "github.com/go-lpc/barrel/spectrum"

import (
	"fmt"

	"github.com/go-lpc/barrel/frame"
)

// Fill is the value of a missing or poisoned spectrum bin.
const Fill = -1e31

// Kind is the kind of accumulated spectrum.
type Kind uint8

const (
	Medium Kind = iota // 48 bins, 4 s
	Slow               // 256 bins, 32 s
)

func (k Kind) String() string {
	switch k {
	case Medium:
		return "mspc"
	case Slow:
		return "sspc"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Period returns the accumulation period of the spectrum, in seconds.
func (k Kind) Period() float64 {
	switch k {
	case Medium:
		return 4
	case Slow:
		return 32
	}
	panic(fmt.Errorf("spectrum: invalid kind %d", k))
}

// Bins returns the number of native bins of the spectrum.
func (k Kind) Bins() int {
	return len(nativeEdges(k)) - 1
}

var (
	mspcEdges = makeEdges(16, 16, 32, 64)
	sspcEdges = makeEdges(64, 1, 2, 4, 8)

	// fspcEdges are the channel boundaries of the 4 fast-spectrum bands.
	fspcEdges = []float64{0, 75, 230, 350, 620}
)

// makeEdges returns the channel edges of groups of n bins of the given widths.
func makeEdges(n int, widths ...float64) []float64 {
	edges := make([]float64, 0, n*len(widths)+1)
	edges = append(edges, 0)
	ch := 0.0
	for _, w := range widths {
		for i := 0; i < n; i++ {
			ch += w
			edges = append(edges, ch)
		}
	}
	return edges
}

func nativeEdges(k Kind) []float64 {
	switch k {
	case Medium:
		return mspcEdges
	case Slow:
		return sspcEdges
	}
	panic(fmt.Errorf("spectrum: invalid kind %d", k))
}

// NativeEdges returns the channel edges of the native bins of the spectrum.
func NativeEdges(k Kind) []float64 {
	return append([]float64(nil), nativeEdges(k)...)
}

// FSPCEdges returns the channel edges of the fast-spectrum bands.
func FSPCEdges() []float64 {
	return append([]float64(nil), fspcEdges...)
}

// StdEdges returns the standard output grid of the spectrum: the native
// edges at the nominal energy scale.
func StdEdges(k Kind, nominal float64) []float64 {
	edges := NativeEdges(k)
	for i := range edges {
		edges[i] *= nominal
	}
	return edges
}

// Counts converts raw spectrum counts, mapping frame.FillCount to Fill.
func Counts(raw []uint16) []float64 {
	o := make([]float64, len(raw))
	for i, v := range raw {
		switch v {
		case frame.FillCount:
			o[i] = Fill
		default:
			o[i] = float64(v)
		}
	}
	return o
}
