// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/go-lpc/barrel/frame"
	"github.com/go-lpc/barrel/timing"
)

const flight = `
date: "260115"
revision: v02
output: /data/l2
store:
  kind: bolt
  path: /data/rollover.db
timing:
  window: 1000
  outlier: 200
  tolerance: 0.5
  replace: 1
  max-slope: 0.01
spectrum:
  nominal: 2.5
payloads:
  - name: 1G
    source: 9
    min-alt: 25
    input: /data/raw/1G_260115.dat.gz
  - name: 1H
    source: 10
    min-alt: 25
    keep-low-alt: true
    input: /data/raw/1H_260115.dat
`

func TestLoad(t *testing.T) {
	tmp, err := os.MkdirTemp("", "barrel-config-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	fname := filepath.Join(tmp, "barrel.yaml")
	err = os.WriteFile(fname, []byte(flight), 0644)
	if err != nil {
		t.Fatalf("could not write config: %+v", err)
	}

	cfg, err := Load(fname)
	if err != nil {
		t.Fatalf("could not load config: %+v", err)
	}

	if got, want := cfg.Date, "260115"; got != want {
		t.Fatalf("invalid date: got=%q, want=%q", got, want)
	}
	if got, want := cfg.Revision, "v02"; got != want {
		t.Fatalf("invalid revision: got=%q, want=%q", got, want)
	}
	if got, want := cfg.Store, (Store{Kind: StoreBolt, Path: "/data/rollover.db"}); got != want {
		t.Fatalf("invalid store: got=%+v, want=%+v", got, want)
	}

	tcfg := timing.DefaultConfig()
	tcfg.Window = 1000
	if got, want := cfg.Timing, tcfg; got != want {
		t.Fatalf("invalid timing config: got=%+v, want=%+v", got, want)
	}

	if got, want := cfg.Spectrum.Nominal, 2.5; got != want {
		t.Fatalf("invalid nominal scale: got=%v, want=%v", got, want)
	}
	if got, want := cfg.Spectrum.Peak.Lo, 112; got != want {
		t.Fatalf("invalid default peak window: got=%d, want=%d", got, want)
	}

	if got, want := cfg.Frame.Layout, frame.DefaultLayout; got != want {
		t.Fatalf("invalid default layout: got=%+v, want=%+v", got, want)
	}
	sync, err := cfg.Frame.SyncBytes()
	if err != nil {
		t.Fatalf("could not decode sync word: %+v", err)
	}
	if !bytes.Equal(sync, frame.Sync()) {
		t.Fatalf("invalid sync word: got=%x, want=%x", sync, frame.Sync())
	}

	want := []Payload{
		{Name: "1G", Source: 9, MinAlt: 25, Input: "/data/raw/1G_260115.dat.gz"},
		{Name: "1H", Source: 10, MinAlt: 25, Input: "/data/raw/1H_260115.dat", KeepLowAltitude: true},
	}
	if !reflect.DeepEqual(cfg.Payloads, want) {
		t.Fatalf("invalid payloads:\ngot= %+v\nwant=%+v", cfg.Payloads, want)
	}
	if got, want := cfg.Payloads[0].Key(), "1G-09"; got != want {
		t.Fatalf("invalid rollover key: got=%q, want=%q", got, want)
	}
	if got, want := cfg.Payloads[0].MinAltMM(), int32(25_000_000); got != want {
		t.Fatalf("invalid minimum altitude: got=%d, want=%d", got, want)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("could not parse empty config: %+v", err)
	}
	if got, want := cfg, Default(); !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid default config:\ngot= %+v\nwant=%+v", got, want)
	}
}

func TestInvalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  string
		err  string
	}{
		{
			name: "unknown-field",
			raw:  "datez: 260115\n",
			err:  "config: could not decode config",
		},
		{
			name: "date",
			raw:  "date: \"2026-01-15\"\n",
			err:  `config: invalid date "2026-01-15" (want yymmdd)`,
		},
		{
			name: "frame-length",
			raw:  "frame:\n  length: 210\n",
			err:  "config: invalid frame length 210 (want=212)",
		},
		{
			name: "sync-hex",
			raw:  "frame:\n  sync: xyz\n",
			err:  `config: invalid sync word "xyz"`,
		},
		{
			name: "layout",
			raw:  "frame:\n  layout:\n    fspc: [16, 16, 16, 8]\n",
			err:  "config: invalid frame layout",
		},
		{
			name: "store-kind",
			raw:  "store:\n  kind: sqlite\n",
			err:  `config: invalid store kind "sqlite"`,
		},
		{
			name: "bolt-path",
			raw:  "store:\n  kind: bolt\n",
			err:  "config: bolt store needs a path",
		},
		{
			name: "mysql-db",
			raw:  "store:\n  kind: mysql\n",
			err:  "config: mysql store needs a database name",
		},
		{
			name: "timing",
			raw:  "timing:\n  window: 1\n",
			err:  "config: timing: invalid window size 1",
		},
		{
			name: "spectrum",
			raw:  "spectrum:\n  nominal: 0\n",
			err:  "config: spectrum: invalid nominal scale 0",
		},
		{
			name: "source",
			raw:  "payloads:\n  - name: 1G\n    source: 64\n",
			err:  `config: invalid source id 64 for payload "1G" (max=63)`,
		},
		{
			name: "no-name",
			raw:  "payloads:\n  - source: 1\n",
			err:  "config: payload 0 has no name",
		},
		{
			name: "duplicate",
			raw:  "payloads:\n  - name: 1G\n  - name: 1G\n",
			err:  `config: duplicate payload "1G"`,
		},
		{
			name: "min-alt",
			raw:  "payloads:\n  - name: 1G\n    min-alt: 60\n",
			err:  `config: invalid minimum altitude 60 km for payload "1G"`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got := err.Error(); !strings.HasPrefix(got, tc.err) {
				t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, tc.err)
			}
		})
	}
}
