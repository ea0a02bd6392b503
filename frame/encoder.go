// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"encoding/binary"
	"io"

	"github.com/go-lpc/barrel/internal/sum16"
)

// Encode packs f into a new raw frame using the default layout.
// The checksum is computed and appended.
func Encode(f *Frame) []byte {
	return DefaultLayout.Encode(f)
}

// Encode packs f into a new raw frame, checksum included.
// Quality and Bad are not part of the wire format and are ignored.
func (lay Layout) Encode(f *Frame) []byte {
	raw := make([]byte, Size)
	w := bitWriter{p: raw}

	w.write(uint64(f.Version), versionBits)
	w.write(uint64(f.Source), sourceBits)
	w.write(uint64(f.FC), FCBits)
	w.write(uint64(uint32(f.GPS)), gpsBits)
	w.write(uint64(f.PPS), ppsBits)
	for i := range f.Mag {
		for _, v := range f.Mag[i] {
			w.write(uint64(v), magBits)
		}
	}
	w.write(uint64(encodeHK(f.HKTag(), f.HK)), hkBits)
	for i := range f.FSPC {
		for j, n := range lay.FSPC {
			w.write(uint64(f.FSPC[i][j]), n)
		}
	}
	for _, v := range f.MSPC {
		w.write(uint64(v), mspcBits)
	}
	for _, v := range f.SSPC {
		w.write(uint64(v), sspcBits)
	}
	w.write(uint64(f.RCNT), rcntBits)

	binary.BigEndian.PutUint16(raw[Size-sum16.Size:], sum16.Checksum(raw[:Size-sum16.Size]))
	return raw
}

func encodeHK(tag HKTag, hk HKWord) uint16 {
	switch tag {
	case HKSatsLeap, HKTermCmd, HKModemDCD:
		return u8(hk.A)<<8 | u8(hk.B)
	default:
		return hk.A
	}
}

func u8(v uint16) uint16 {
	if v > 0xff {
		return 0xff
	}
	return v
}

// Encoder writes sync-prefixed frames to an output stream.
type Encoder struct {
	w   io.Writer
	lay Layout
	err error
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer, lay Layout) *Encoder {
	return &Encoder{w: w, lay: lay}
}

// Encode writes the sync word followed by the packed frame.
func (enc *Encoder) Encode(f *Frame) error {
	enc.write(Sync())
	enc.write(enc.lay.Encode(f))
	return enc.err
}

// EncodeRaw writes the sync word followed by an already packed frame.
func (enc *Encoder) EncodeRaw(raw []byte) error {
	enc.write(Sync())
	enc.write(raw)
	return enc.err
}

func (enc *Encoder) write(p []byte) {
	if enc.err != nil {
		return
	}
	_, enc.err = enc.w.Write(p)
}
