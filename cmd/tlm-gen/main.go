// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tlm-gen writes synthetic raw telemetry.
//
// Usage: tlm-gen [OPTIONS]
//
// Example:
//
//	$> tlm-gen -o 1G_260115.dat.gz -src=9 -n=86400
package main // import "github.com/go-lpc/barrel/cmd/tlm-gen"

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-lpc/barrel/frame"
	"github.com/go-lpc/barrel/internal/rawfile"
	"github.com/go-lpc/barrel/internal/simu"
)

var (
	msg = log.New(os.Stdout, "tlm-gen: ", 0)
)

func main() {
	xmain(os.Args[1:])
}

func xmain(args []string) {
	var (
		fset = flag.NewFlagSet("tlm-gen", flag.ExitOnError)
		def  = simu.DefaultConfig()

		oname = fset.String("o", "out.dat", "path to output raw telemetry file (.gz, .zst: compressed)")
		nfrms = fset.Int("n", 3600, "number of frames to generate")
		src   = fset.Uint("src", uint(def.Source), "DPU source id")
		start = fset.Uint("start", uint(def.Start), "frame counter of the first frame")
		alt   = fset.Float64("alt", float64(def.Alt)*1e-6, "altitude (km)")
		pps   = fset.Uint("pps", uint(def.PPS), "PPS offset (ms)")
		peak  = fset.Float64("peak", def.Peak, "511 keV line position (channels)")
		seed  = fset.Int64("seed", def.Seed, "seed for the pseudo-random number generator")
	)

	fset.Usage = func() {
		fmt.Printf(`Usage: tlm-gen [OPTIONS]

ex:
 $> tlm-gen -o 1G_260115.dat.gz -src=9 -n=86400

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	switch {
	case *src > frame.SourceMax:
		msg.Fatalf("invalid source id %d (max=%d)", *src, frame.SourceMax)
	case *start > frame.FCMax:
		msg.Fatalf("invalid first frame counter %d (max=%d)", *start, frame.FCMax)
	case *pps > frame.PPSMax:
		msg.Fatalf("invalid PPS offset %d (max=%d)", *pps, frame.PPSMax)
	case *nfrms < 0:
		msg.Fatalf("invalid number of frames %d", *nfrms)
	}

	cfg := def
	cfg.Source = uint8(*src)
	cfg.Start = uint32(*start)
	cfg.Alt = int32(*alt * 1e6)
	cfg.PPS = uint16(*pps)
	cfg.Peak = *peak
	cfg.Seed = *seed

	err = process(*oname, cfg, *nfrms)
	if err != nil {
		msg.Fatalf("could not generate telemetry: %+v", err)
	}
}

func process(oname string, cfg simu.Config, n int) error {
	w, err := rawfile.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}
	defer w.Close()

	err = simu.New(cfg).Write(w, n)
	if err != nil {
		return fmt.Errorf("could not write frames: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output file: %w", err)
	}

	msg.Printf("wrote %d frames from source %d to %q", n, cfg.Source, oname)
	return nil
}
