// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package emit writes level-two products as one CSV table per cadence.
package emit // import "github.com/go-lpc/barrel/internal/emit"

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-lpc/barrel/demux"
	"github.com/go-lpc/barrel/l2"
	"go-hep.org/x/hep/csvutil"
)

// Name returns the name of the table of cadence c.
func Name(prefix string, c demux.Cadence) string {
	return fmt.Sprintf("%s_%s.csv", prefix, c)
}

// Write writes the products to dir, in tables named after prefix.
// It returns the names of the created files.
func Write(dir, prefix string, prods *l2.Products) ([]string, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("emit: could not create output dir: %w", err)
	}

	fnames := make([]string, 0, demux.NumCadences)
	for _, c := range demux.Cadences() {
		fname := filepath.Join(dir, Name(prefix, c))
		err := writeTable(fname, c, prods)
		if err != nil {
			return fnames, fmt.Errorf("emit: could not write %v table: %w", c, err)
		}
		fnames = append(fnames, fname)
	}
	return fnames, nil
}

func writeTable(fname string, c demux.Cadence, prods *l2.Products) error {
	tbl, err := csvutil.Create(fname)
	if err != nil {
		return err
	}
	defer tbl.Close()
	tbl.Writer.Comma = ','

	hdr := new(strings.Builder)
	fmt.Fprintf(hdr, "# payload: %s\n", prods.Payload)
	fmt.Fprintf(hdr, "# cadence: %v\n", c)

	var rows [][]interface{}
	switch c {
	case demux.MISC:
		hdr.WriteString("# fc,ms,quality,version,source,pps\n")
		for _, r := range prods.Misc {
			rows = append(rows, row(r.Header, r.Version, r.Source, r.PPS))
		}
	case demux.MAGN:
		hdr.WriteString("# fc,ms,quality,sub,bx,by,bz\n")
		for _, r := range prods.Magn {
			rows = append(rows, row(r.Header, r.Sub, r.B[0], r.B[1], r.B[2]))
		}
	case demux.FSPC:
		hdr.WriteString("# fc,ms,quality,sub,lc1,lc2,lc3,lc4\n")
		for _, b := range prods.Bands {
			fmt.Fprintf(hdr, "# bands fc=%d: %s\n", b.FC, join(b.Edges))
		}
		for _, r := range prods.FSPC {
			rows = append(rows, row(r.Header, r.Sub, r.Counts[0], r.Counts[1], r.Counts[2], r.Counts[3]))
		}
	case demux.EPHM:
		hdr.WriteString("# fc,ms,quality,alt,msow,lat,lon,pps,week,fit-week,fit-msow\n")
		for i, r := range prods.Ephm {
			st := prods.Stamps[i]
			rows = append(rows, row(r.Header, r.Alt, r.MSOW, r.Lat, r.Lon, r.PPS, r.Week, st.Week, st.MSOW))
		}
	case demux.RCNT:
		hdr.WriteString("# fc,ms,quality,interrupt,low-level,peak-det,high-level\n")
		for _, r := range prods.Rcnt {
			rows = append(rows, row(r.Header, r.Counts[0], r.Counts[1], r.Counts[2], r.Counts[3]))
		}
	case demux.MSPC:
		rows = spectra(hdr, prods.MedSpectra)
	case demux.SSPC:
		rows = spectra(hdr, prods.SlowSpectra)
	case demux.HKPG:
		hdr.WriteString("# fc,ms,quality,n,analog[36],sats,leap,week,term,cmd,modem,dcd\n")
		for _, r := range prods.HKPG {
			vs := []interface{}{r.N}
			for _, v := range r.Analog {
				vs = append(vs, v)
			}
			vs = append(vs, r.Sats, r.Leap, r.Week, r.Term, r.Cmd, r.Modem, r.DCD)
			rows = append(rows, row(r.Header, vs...))
		}
	default:
		return fmt.Errorf("invalid cadence %v", c)
	}

	err = tbl.WriteHeader(hdr.String())
	if err != nil {
		return err
	}
	for _, r := range rows {
		err = tbl.WriteRow(r...)
		if err != nil {
			return err
		}
	}

	return tbl.Close()
}

func spectra(hdr *strings.Builder, specs []l2.Spectrum) [][]interface{} {
	hdr.WriteString("# fc,ms,quality,scale,peak,counts...\n")
	if len(specs) > 0 {
		fmt.Fprintf(hdr, "# edges (keV): %s\n", join(specs[0].Edges))
	}
	rows := make([][]interface{}, 0, len(specs))
	for _, s := range specs {
		peak := 0.0
		if s.HasPeak {
			peak = s.Peak
		}
		vs := []interface{}{s.Scale, peak}
		for _, v := range s.Counts {
			vs = append(vs, v)
		}
		rows = append(rows, row(s.Header, vs...))
	}
	return rows
}

func row(h demux.Header, vs ...interface{}) []interface{} {
	return append([]interface{}{h.FC, h.MS, uint32(h.Quality)}, vs...)
}

func join(vs []float64) string {
	o := make([]string, len(vs))
	for i, v := range vs {
		o[i] = fmt.Sprintf("%g", v)
	}
	return strings.Join(o, " ")
}
