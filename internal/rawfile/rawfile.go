// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rawfile reads and writes raw telemetry files.
//
// Plain files are memory mapped. Files compressed with gzip or zstd are
// recognized from their magic number and decompressed in memory.
package rawfile // import "github.com/go-lpc/barrel/internal/rawfile"

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-lpc/barrel/internal/mmap"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies the encoding of a raw file.
type Compression uint8

const (
	None Compression = iota
	Gzip
	Zstd
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Detect returns the compression of a file starting with p.
func Detect(p []byte) Compression {
	switch {
	case bytes.HasPrefix(p, gzipMagic):
		return Gzip
	case bytes.HasPrefix(p, zstdMagic):
		return Zstd
	}
	return None
}

// FromName returns the compression implied by the extension of fname.
func FromName(fname string) Compression {
	switch filepath.Ext(fname) {
	case ".gz":
		return Gzip
	case ".zst":
		return Zstd
	}
	return None
}

// File is the decompressed content of a raw file.
type File struct {
	Name        string
	Compression Compression

	data []byte
	mm   *mmap.Handle
}

// Open opens the named raw file.
func Open(fname string) (*File, error) {
	mm, err := mmap.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("rawfile: could not open raw file: %w", err)
	}

	f := &File{
		Name:        fname,
		Compression: Detect(mm.Bytes()),
	}

	switch f.Compression {
	case None:
		f.data = mm.Bytes()
		f.mm = mm
		return f, nil
	case Gzip:
		f.data, err = gunzip(mm.Bytes())
	case Zstd:
		f.data, err = unzstd(mm.Bytes())
	}
	_ = mm.Close()

	if err != nil {
		return nil, fmt.Errorf("rawfile: could not decompress %s file %q: %w", f.Compression, fname, err)
	}
	return f, nil
}

// Bytes returns the decompressed content of the file.
// The returned slice is only valid until Close is called.
func (f *File) Bytes() []byte {
	return f.data
}

// Close releases the resources held by f.
func (f *File) Close() error {
	f.data = nil
	if f.mm == nil {
		return nil
	}
	err := f.mm.Close()
	f.mm = nil
	if err != nil {
		return fmt.Errorf("rawfile: could not close %q: %w", f.Name, err)
	}
	return nil
}

func gunzip(p []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(p))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func unzstd(p []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(p, nil)
}

// Writer writes a raw file, compressed according to its extension.
type Writer struct {
	f  *os.File
	bw *bufio.Writer
	zw io.WriteCloser
	w  io.Writer
}

// Create creates the named raw file.
// Names ending in .gz or .zst are compressed with gzip or zstd.
func Create(fname string) (*Writer, error) {
	f, err := os.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("rawfile: could not create raw file: %w", err)
	}

	w := &Writer{f: f, bw: bufio.NewWriter(f)}
	switch FromName(fname) {
	case Gzip:
		w.zw = gzip.NewWriter(w.bw)
	case Zstd:
		zw, err := zstd.NewWriter(w.bw)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("rawfile: could not create zstd writer: %w", err)
		}
		w.zw = zw
	}

	w.w = w.bw
	if w.zw != nil {
		w.w = w.zw
	}
	return w, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	return w.w.Write(p)
}

// Close flushes and closes the raw file.
func (w *Writer) Close() error {
	defer w.f.Close()

	if w.zw != nil {
		err := w.zw.Close()
		if err != nil {
			return fmt.Errorf("rawfile: could not close compressor: %w", err)
		}
	}

	err := w.bw.Flush()
	if err != nil {
		return fmt.Errorf("rawfile: could not flush raw file: %w", err)
	}

	err = w.f.Close()
	if err != nil {
		return fmt.Errorf("rawfile: could not close raw file: %w", err)
	}
	return nil
}

var (
	_ io.WriteCloser = (*Writer)(nil)
)
