// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"bytes"

	"github.com/go-daq/tdaq/log"
)

// Splitter cuts a raw byte stream into candidate frames.
//
// A candidate starts right after a sync marker and is accepted only if it
// is followed by another sync marker (or by the end of the stream) exactly
// size bytes later. Otherwise the splitter re-synchronizes on the next
// marker and the skipped bytes are discarded.
type Splitter struct {
	buf  []byte
	sync []byte
	size int
	pos  int
	msg  log.MsgStream

	Frames    int // number of candidate frames returned
	Discarded int // number of discarded bytes
}

// NewSplitter returns a splitter over buf.
// The returned frames alias buf.
func NewSplitter(buf, sync []byte, size int, msg log.MsgStream) *Splitter {
	return &Splitter{
		buf:  buf,
		sync: sync,
		size: size,
		msg:  msg,
	}
}

// Next returns the next candidate frame, or false at the end of the stream.
func (sp *Splitter) Next() ([]byte, bool) {
	for sp.pos < len(sp.buf) {
		i := bytes.Index(sp.buf[sp.pos:], sp.sync)
		if i < 0 {
			sp.discard(len(sp.buf)-sp.pos, "no sync marker")
			sp.pos = len(sp.buf)
			return nil, false
		}
		if i > 0 {
			sp.discard(i, "junk before sync marker")
		}

		var (
			beg = sp.pos + i + len(sp.sync)
			end = beg + sp.size
		)
		switch {
		case end > len(sp.buf):
			sp.discard(len(sp.buf)-sp.pos-i, "truncated frame")
			sp.pos = len(sp.buf)
			return nil, false

		case end == len(sp.buf), bytes.HasPrefix(sp.buf[end:], sp.sync):
			sp.pos = end
			sp.Frames++
			return sp.buf[beg:end], true
		}

		// frame length mismatch: re-synchronize on the next marker.
		next := bytes.Index(sp.buf[sp.pos+i+1:], sp.sync)
		n := len(sp.buf) - sp.pos - i
		if next >= 0 {
			n = next + 1
		}
		sp.discard(n, "frame length mismatch")
		sp.pos += i + n
	}
	return nil, false
}

func (sp *Splitter) discard(n int, why string) {
	sp.Discarded += n
	if sp.msg != nil {
		sp.msg.Debugf("discarding %d bytes at offset %d: %s", n, sp.pos, why)
	}
}
