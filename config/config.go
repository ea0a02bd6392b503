// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config describes the configuration of a level-two processing run.
package config // import "github.com/go-lpc/barrel/config"

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/go-lpc/barrel/frame"
	"github.com/go-lpc/barrel/rollover"
	"github.com/go-lpc/barrel/spectrum"
	"github.com/go-lpc/barrel/timing"
	"gopkg.in/yaml.v3"
)

// Config is the configuration of a processing run.
type Config struct {
	Date     string `yaml:"date"`     // day of the run, yymmdd
	Revision string `yaml:"revision"` // revision of the produced products
	Output   string `yaml:"output"`   // output directory

	Frame    Frame           `yaml:"frame"`
	Store    Store           `yaml:"store"`
	Timing   timing.Config   `yaml:"timing"`
	Spectrum spectrum.Config `yaml:"spectrum"`
	Payloads []Payload       `yaml:"payloads"`
}

// Frame describes the raw telemetry stream.
type Frame struct {
	Length int          `yaml:"length"` // frame length, sync word excluded, bytes; must be frame.Size
	Sync   string       `yaml:"sync"`   // hex-encoded synchronization word
	Layout frame.Layout `yaml:"layout"`
}

// SyncBytes returns the decoded synchronization word.
func (f Frame) SyncBytes() ([]byte, error) {
	p, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(f.Sync), "0x"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid sync word %q: %w", f.Sync, err)
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("config: empty sync word")
	}
	return p, nil
}

// Store kinds.
const (
	StoreNone  = "none"
	StoreBolt  = "bolt"
	StoreMySQL = "mysql"
)

// Store describes where the rollover state is persisted between runs.
type Store struct {
	Kind string `yaml:"kind"` // none, bolt or mysql
	Path string `yaml:"path"` // bolt database file
	DB   string `yaml:"db"`   // mysql database name
}

// Payload describes one flight payload.
type Payload struct {
	Name   string  `yaml:"name"`
	Source uint8   `yaml:"source"`  // DPU source id
	MinAlt float64 `yaml:"min-alt"` // minimum science altitude, km
	Input  string  `yaml:"input"`   // raw telemetry file

	// KeepLowAltitude keeps frames taken below MinAlt, flagged.
	KeepLowAltitude bool `yaml:"keep-low-alt"`
}

// Key returns the key of the payload in the rollover store.
func (p Payload) Key() string {
	return rollover.Key(p.Name, p.Source)
}

// MinAltMM returns the minimum science altitude in millimeters.
func (p Payload) MinAltMM() int32 {
	return int32(p.MinAlt * 1e6)
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Revision: "v01",
		Output:   ".",
		Frame: Frame{
			Length: frame.Size,
			Sync:   fmt.Sprintf("%04x", frame.SyncWord),
			Layout: frame.DefaultLayout,
		},
		Store:    Store{Kind: StoreNone},
		Timing:   timing.DefaultConfig(),
		Spectrum: spectrum.DefaultConfig(),
	}
}

// Load reads and validates the YAML configuration file fname.
func Load(fname string) (Config, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return Config{}, fmt.Errorf("config: could not read config file: %w", err)
	}

	cfg, err := Parse(raw)
	if err != nil {
		return cfg, fmt.Errorf("config: could not load %q: %w", fname, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML configuration.
// Missing entries keep their default value.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	err := dec.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: could not decode config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

var reDate = regexp.MustCompile(`^[0-9]{6}$`)

// Validate checks the configuration is usable.
func (cfg Config) Validate() error {
	if cfg.Date != "" && !reDate.MatchString(cfg.Date) {
		return fmt.Errorf("config: invalid date %q (want yymmdd)", cfg.Date)
	}

	if cfg.Frame.Length != frame.Size {
		return fmt.Errorf("config: invalid frame length %d (want=%d)", cfg.Frame.Length, frame.Size)
	}
	if _, err := cfg.Frame.SyncBytes(); err != nil {
		return err
	}
	if err := cfg.Frame.Layout.Validate(); err != nil {
		return fmt.Errorf("config: invalid frame layout: %w", err)
	}

	switch cfg.Store.Kind {
	case StoreNone, "":
	case StoreBolt:
		if cfg.Store.Path == "" {
			return fmt.Errorf("config: bolt store needs a path")
		}
	case StoreMySQL:
		if cfg.Store.DB == "" {
			return fmt.Errorf("config: mysql store needs a database name")
		}
	default:
		return fmt.Errorf("config: invalid store kind %q", cfg.Store.Kind)
	}

	if err := cfg.Timing.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Spectrum.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	names := make(map[string]struct{}, len(cfg.Payloads))
	for i, p := range cfg.Payloads {
		if p.Name == "" {
			return fmt.Errorf("config: payload %d has no name", i)
		}
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("config: duplicate payload %q", p.Name)
		}
		names[p.Name] = struct{}{}
		if p.Source > frame.SourceMax {
			return fmt.Errorf("config: invalid source id %d for payload %q (max=%d)", p.Source, p.Name, frame.SourceMax)
		}
		if p.MinAlt < 0 || p.MinAlt*1e6 > frame.AltMax {
			return fmt.Errorf("config: invalid minimum altitude %v km for payload %q", p.MinAlt, p.Name)
		}
	}

	return nil
}
