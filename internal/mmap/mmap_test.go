// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mmap // import "github.com/go-lpc/barrel/internal/mmap"

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestHandle(t *testing.T) {
	t.Run("nil-handle", func(t *testing.T) {
		var h *Handle

		_, err := h.ReadAt(nil, 0)
		if !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("invalid read-at error: %+v", err)
		}

		err = h.Close()
		if !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("invalid close error: %+v", err)
		}
	})
	t.Run("nil-data", func(t *testing.T) {
		var h Handle

		_, err := h.ReadAt(nil, 0)
		if !errors.Is(err, errClosed) {
			t.Fatalf("invalid read-at error: %+v", err)
		}

		err = h.Close()
		if err != nil {
			t.Fatalf("error closing nil-data handle: %+v", err)
		}
	})
}

func TestOpen(t *testing.T) {
	tmp, err := os.MkdirTemp("", "barrel-mmap-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	want := []byte{0xeb, 0x90, 1, 2, 3, 4}
	fname := filepath.Join(tmp, "raw.dat")
	err = os.WriteFile(fname, want, 0644)
	if err != nil {
		t.Fatalf("could not create file: %+v", err)
	}

	h, err := Open(fname)
	if err != nil {
		t.Fatalf("could not mmap file: %+v", err)
	}
	defer h.Close()

	if got, want := h.Len(), len(want); got != want {
		t.Fatalf("invalid len: got=%d, want=%d", got, want)
	}

	if got, want := h.At(1), byte(0x90); got != want {
		t.Fatalf("invalid value: got=%d, want=%d", got, want)
	}

	if !bytes.Equal(h.Bytes(), want) {
		t.Fatalf("invalid content:\ngot= %v\nwant=%v", h.Bytes(), want)
	}

	buf := make([]byte, 4)
	n, err := h.ReadAt(buf, 4)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("invalid read-at error: %+v", err)
	}
	if n != 2 || !bytes.Equal(buf[:n], want[4:]) {
		t.Fatalf("invalid read-at: n=%d, buf=%v", n, buf[:n])
	}

	_, err = h.ReadAt(nil, -1)
	if got, want := err.Error(), "mmap: invalid ReadAt offset -1"; got != want {
		t.Fatalf("invalid error: %+v", err)
	}

	err = h.Close()
	if err != nil {
		t.Fatalf("could not close handle: %+v", err)
	}

	_, err = h.ReadAt(buf, 0)
	if !errors.Is(err, errClosed) {
		t.Fatalf("invalid read-at error after close: %+v", err)
	}
}

func TestOpenEmpty(t *testing.T) {
	tmp, err := os.MkdirTemp("", "barrel-mmap-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	fname := filepath.Join(tmp, "empty.dat")
	err = os.WriteFile(fname, nil, 0644)
	if err != nil {
		t.Fatalf("could not create file: %+v", err)
	}

	h, err := Open(fname)
	if err != nil {
		t.Fatalf("could not mmap empty file: %+v", err)
	}
	if got, want := h.Len(), 0; got != want {
		t.Fatalf("invalid len: got=%d, want=%d", got, want)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("could not close handle: %+v", err)
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(os.TempDir(), "barrel-no-such-file.dat"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("invalid error: %+v", err)
	}
}
