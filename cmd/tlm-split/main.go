// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tlm-split splits a raw telemetry file holding the frames of
// several payloads into n raw files, one per source id.
package main // import "github.com/go-lpc/barrel/cmd/tlm-split"

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-lpc/barrel/frame"
	"github.com/go-lpc/barrel/internal/rawfile"
)

var (
	msg = log.New(os.Stdout, "tlm-split: ", 0)
)

func main() {
	xmain(os.Args[1:])
}

func xmain(args []string) {
	var (
		fset = flag.NewFlagSet("tlm-split", flag.ExitOnError)

		oname = fset.String("o", "out.dat", "path to output raw telemetry file")
	)

	fset.Usage = func() {
		fmt.Printf(`Usage: tlm-split [OPTIONS] file.dat

ex:
 $> tlm-split -o out.dat.gz ./input.dat

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() != 1 {
		fset.Usage()
		msg.Fatalf("missing input raw telemetry file")
	}

	if *oname == "" {
		fset.Usage()
		msg.Fatalf("invalid output raw telemetry file")
	}

	for _, arg := range fset.Args() {
		err := process(*oname, arg)
		if err != nil {
			msg.Fatalf("could not split telemetry file %q: %+v", arg, err)
		}
	}
}

func process(oname, fname string) error {
	f, err := rawfile.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open telemetry file: %w", err)
	}
	defer f.Close()

	type output struct {
		w   *rawfile.Writer
		enc *frame.Encoder
	}
	out := make(map[uint8]output)
	defer func() {
		for _, o := range out {
			_ = o.w.Close()
		}
	}()

	var (
		sp       = frame.NewSplitter(f.Bytes(), frame.Sync(), frame.Size, nil)
		rejected = 0
	)
	for {
		raw, ok := sp.Next()
		if !ok {
			break
		}

		src, err := frame.SourceOf(raw)
		if err != nil {
			var rej *frame.Reject
			if !errors.As(err, &rej) {
				return fmt.Errorf("could not read source id: %w", err)
			}
			rejected++
			continue
		}

		o, ok := out[src]
		if !ok {
			oid := outFileFrom(oname, src)
			msg.Printf("creating output file %q...", oid)
			w, err := rawfile.Create(oid)
			if err != nil {
				return fmt.Errorf("could not create output file: %w", err)
			}
			o = output{w: w, enc: frame.NewEncoder(w, frame.DefaultLayout)}
			out[src] = o
		}

		err = o.enc.EncodeRaw(raw)
		if err != nil {
			return fmt.Errorf("could not encode frame: %w", err)
		}
	}

	if rejected > 0 || sp.Discarded > 0 {
		msg.Printf("rejected %d frames, discarded %d bytes", rejected, sp.Discarded)
	}

	for src, o := range out {
		err := o.w.Close()
		if err != nil {
			return fmt.Errorf("could not close output file for source %d: %w", src, err)
		}
		delete(out, src)
	}

	return nil
}

// outFileFrom inserts the source id before the extensions of fname.
func outFileFrom(fname string, src uint8) string {
	var (
		dir  = filepath.Dir(fname)
		base = filepath.Base(fname)
		ext  = ""
	)
	if i := strings.Index(base, "."); i > 0 {
		base, ext = base[:i], base[i:]
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%02d%s", base, src, ext))
}
