// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rollover persists the frame-counter rollover state of a payload
// across processing runs.
package rollover // import "github.com/go-lpc/barrel/rollover"

import (
	"context"
	"encoding/binary"
	"fmt"
)

// State is the rollover state of one payload at the end of a run.
type State struct {
	Rolled bool   // whether the frame counter already wrapped past 2^21
	LastFC uint32 // last raw frame counter seen
}

const stateSize = 5

func (st State) MarshalBinary() ([]byte, error) {
	buf := make([]byte, stateSize)
	if st.Rolled {
		buf[0] = 1
	}
	binary.BigEndian.PutUint32(buf[1:], st.LastFC)
	return buf, nil
}

func (st *State) UnmarshalBinary(p []byte) error {
	if len(p) != stateSize {
		return fmt.Errorf("rollover: invalid state size (got=%d, want=%d)", len(p), stateSize)
	}
	switch p[0] {
	case 0:
		st.Rolled = false
	case 1:
		st.Rolled = true
	default:
		return fmt.Errorf("rollover: invalid rollover flag 0x%x", p[0])
	}
	st.LastFC = binary.BigEndian.Uint32(p[1:])
	return nil
}

// Store loads and saves rollover states, keyed by payload.
// Loading an unknown payload yields the zero State.
type Store interface {
	Load(ctx context.Context, key string) (State, error)
	Save(ctx context.Context, key string, st State) error
}

// Key returns the store key of a payload.
func Key(payload string, src uint8) string {
	return fmt.Sprintf("%s-%02d", payload, src)
}
