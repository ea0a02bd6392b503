// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// tlm-dump decodes and displays raw telemetry files.
//
// Usage: tlm-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> tlm-dump -src=9 -n=1 ./testdata/1G_260115.dat
//	=== frame fc=1000000 src=9 version=3 ===
//	GPS:    altitude         32000000
//	PPS:                          120
//	HK:     analog    V0_VoltAtLoad=0x4000
//	[...]
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/barrel/frame"
	"github.com/go-lpc/barrel/internal/rawfile"
)

func main() {
	log.SetPrefix("tlm-dump: ")
	log.SetFlags(0)

	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	var (
		fset = flag.NewFlagSet("tlm-dump", flag.ExitOnError)
		src  = fset.Uint("src", 9, "DPU source id of the frames to decode")
		nmax = fset.Int("n", -1, "maximum number of frames to display (-1: all)")
	)

	fset.Usage = func() {
		fmt.Printf(`tlm-dump decodes and displays raw telemetry files.

Usage: tlm-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> tlm-dump -src=9 -n=1 ./testdata/1G_260115.dat
 === frame fc=1000000 src=9 version=3 ===
 GPS:    altitude        32000000
 PPS:                         120
 [...]

`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input telemetry file")
	}

	if *src > frame.SourceMax {
		log.Fatalf("invalid source id %d (max=%d)", *src, frame.SourceMax)
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, uint8(*src), *nmax)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, src uint8, nmax int) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	f, err := rawfile.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	var (
		sp = frame.NewSplitter(f.Bytes(), frame.Sync(), frame.Size, nil)
		n  = 0
	)
	for nmax < 0 || n < nmax {
		raw, ok := sp.Next()
		if !ok {
			break
		}
		n++

		fr, err := frame.Decode(raw, src)
		if err != nil {
			var rej *frame.Reject
			if !errors.As(err, &rej) {
				return fmt.Errorf("could not decode frame: %w", err)
			}
			fmt.Fprintf(wbuf, "=== rejected frame: %v ===\n", rej)
			continue
		}
		dump(wbuf, &fr)
	}

	if sp.Discarded > 0 {
		fmt.Fprintf(wbuf, "=== discarded %d bytes ===\n", sp.Discarded)
	}

	return wbuf.Flush()
}

func dump(w io.Writer, f *frame.Frame) {
	fmt.Fprintf(w, "=== frame fc=%d src=%d version=%d ===\n", f.FC, f.Source, f.Version)
	fmt.Fprintf(w, "GPS:    %-9s % 15d\n", f.GPSKind(), f.GPS)
	fmt.Fprintf(w, "PPS:    % 25d\n", f.PPS)
	switch tag := f.HKTag(); tag {
	case frame.HKAnalog:
		i := int(f.FC % frame.HKCycle)
		fmt.Fprintf(w, "HK:     %-9s %s=0x%04x\n", tag, frame.Analog(i).Name, f.HK.A)
	case frame.HKWeek:
		fmt.Fprintf(w, "HK:     %-9s % 15d\n", tag, f.HK.A)
	default:
		fmt.Fprintf(w, "HK:     %-9s % 7d % 7d\n", tag, f.HK.A, f.HK.B)
	}
	fmt.Fprintf(w, "RCNT:   % 25d\n", f.RCNT)
	fmt.Fprintf(w, "MAG:   ")
	for _, b := range f.Mag {
		fmt.Fprintf(w, " [0x%06x 0x%06x 0x%06x]", b[0], b[1], b[2])
	}
	fmt.Fprintf(w, "\nFSPC:  ")
	for _, c := range f.FSPC {
		fmt.Fprintf(w, " %v", c)
	}
	fmt.Fprintf(w, "\nMSPC:   %v\n", f.MSPC)
	fmt.Fprintf(w, "SSPC:   %v\n", f.SSPC)
	fmt.Fprintf(w, "Quality: %v\n", f.Quality)
}
