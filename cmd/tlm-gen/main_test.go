// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-lpc/barrel/frame"
	"github.com/go-lpc/barrel/internal/rawfile"
)

func TestGen(t *testing.T) {
	tmpdir, err := os.MkdirTemp("", "tlm-gen-")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpdir)

	for _, tc := range []struct {
		name string
		comp rawfile.Compression
	}{
		{"out.dat", rawfile.None},
		{"out.dat.zst", rawfile.Zstd},
	} {
		t.Run(tc.name, func(t *testing.T) {
			oname := filepath.Join(tmpdir, tc.name)
			xmain([]string{"-o", oname, "-n=50", "-src=12", "-start=2097140"})

			f, err := rawfile.Open(oname)
			if err != nil {
				t.Fatalf("could not open output file: %+v", err)
			}
			defer f.Close()

			if got, want := f.Compression, tc.comp; got != want {
				t.Fatalf("invalid compression: got=%v, want=%v", got, want)
			}

			var (
				sp = frame.NewSplitter(f.Bytes(), frame.Sync(), frame.Size, nil)
				n  = 0
			)
			for {
				raw, ok := sp.Next()
				if !ok {
					break
				}
				fr, err := frame.Decode(raw, 12)
				if err != nil {
					t.Fatalf("could not decode frame %d: %+v", n, err)
				}
				if got, want := fr.FC, uint32(2097140+n)&frame.FCMax; got != want {
					t.Fatalf("invalid frame counter: got=%d, want=%d", got, want)
				}
				n++
			}
			if got, want := n, 50; got != want {
				t.Fatalf("invalid number of frames: got=%d, want=%d", got, want)
			}
		})
	}
}
