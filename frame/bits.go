// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

// bitReader reads MSB-first bit fields from a byte slice.
type bitReader struct {
	p   []byte
	pos uint
}

func (r *bitReader) read(n uint) uint64 {
	var v uint64
	for n > 0 {
		var (
			avail = 8 - r.pos%8
			take  = min(avail, n)
			mask  = uint64(1)<<take - 1
			bits  = uint64(r.p[r.pos/8]>>(avail-take)) & mask
		)
		v = v<<take | bits
		r.pos += take
		n -= take
	}
	return v
}

func (r *bitReader) u16(n uint) uint16 { return uint16(r.read(n)) }
func (r *bitReader) u32(n uint) uint32 { return uint32(r.read(n)) }

// bitWriter writes MSB-first bit fields into a zeroed byte slice.
type bitWriter struct {
	p   []byte
	pos uint
}

func (w *bitWriter) write(v uint64, n uint) {
	for n > 0 {
		var (
			avail = 8 - w.pos%8
			take  = min(avail, n)
			mask  = uint64(1)<<take - 1
			bits  = byte((v >> (n - take)) & mask)
		)
		w.p[w.pos/8] |= bits << (avail - take)
		w.pos += take
		n -= take
	}
}
