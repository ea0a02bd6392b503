// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sum16 implements the 16-bit word-sum checksum closing
// telemetry frames: the sum of all big-endian 16-bit words, mod 0xffff.
package sum16 // import "github.com/go-lpc/barrel/internal/sum16"

import (
	"encoding/binary"
	"hash"
)

const (
	// Size is the size of a checksum in bytes.
	Size = 2

	modulus = 0xffff
)

// Hash16 is the common interface implemented by all 16-bit hash functions.
type Hash16 interface {
	hash.Hash
	Sum16() uint16
}

type digest struct {
	sum uint32
	odd bool // whether a high byte is pending
	hi  byte
}

// New creates a new Hash16 computing the word-sum checksum.
// An odd trailing byte is summed as the high byte of a zero-padded word.
func New() Hash16 {
	return &digest{}
}

func (d *digest) Size() int      { return Size }
func (d *digest) BlockSize() int { return 2 }

func (d *digest) Reset() {
	*d = digest{}
}

func (d *digest) Write(p []byte) (int, error) {
	n := len(p)
	if d.odd && len(p) > 0 {
		d.add(uint32(d.hi)<<8 | uint32(p[0]))
		d.odd = false
		p = p[1:]
	}
	for len(p) >= 2 {
		d.add(uint32(binary.BigEndian.Uint16(p)))
		p = p[2:]
	}
	if len(p) == 1 {
		d.hi = p[0]
		d.odd = true
	}
	return n, nil
}

func (d *digest) add(w uint32) {
	d.sum = (d.sum + w) % modulus
}

func (d *digest) Sum16() uint16 {
	sum := d.sum
	if d.odd {
		sum = (sum + uint32(d.hi)<<8) % modulus
	}
	return uint16(sum)
}

func (d *digest) Sum(in []byte) []byte {
	s := d.Sum16()
	return append(in, byte(s>>8), byte(s))
}

// Checksum returns the word-sum checksum of data.
func Checksum(data []byte) uint16 {
	var d digest
	_, _ = d.Write(data)
	return d.Sum16()
}

var _ Hash16 = (*digest)(nil)
