// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rollover

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestState(t *testing.T) {
	for _, st := range []State{
		{},
		{Rolled: true},
		{LastFC: 0x1fffff},
		{Rolled: true, LastFC: 1234},
	} {
		raw, err := st.MarshalBinary()
		if err != nil {
			t.Fatalf("could not marshal %+v: %+v", st, err)
		}
		var got State
		err = got.UnmarshalBinary(raw)
		if err != nil {
			t.Fatalf("could not unmarshal %+v: %+v", st, err)
		}
		if got != st {
			t.Fatalf("invalid round-trip: got=%+v, want=%+v", got, st)
		}
	}

	var st State
	for _, raw := range [][]byte{nil, {0, 0, 0, 0}, {2, 0, 0, 0, 0}} {
		if err := st.UnmarshalBinary(raw); err == nil {
			t.Fatalf("expected an error for %v", raw)
		}
	}
}

func TestBoltStore(t *testing.T) {
	tmp, err := os.MkdirTemp("", "barrel-rollover-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	var (
		ctx   = context.Background()
		fname = filepath.Join(tmp, "rollover.db")
		key   = Key("1G", 9)
	)

	if got, want := key, "1G-09"; got != want {
		t.Fatalf("invalid key: got=%q, want=%q", got, want)
	}

	db, err := Open(fname)
	if err != nil {
		t.Fatalf("could not open store: %+v", err)
	}

	st, err := db.Load(ctx, key)
	if err != nil {
		t.Fatalf("could not load state: %+v", err)
	}
	if st != (State{}) {
		t.Fatalf("invalid initial state: %+v", st)
	}

	want := State{Rolled: true, LastFC: 4242}
	err = db.Save(ctx, key, want)
	if err != nil {
		t.Fatalf("could not save state: %+v", err)
	}

	err = db.Close()
	if err != nil {
		t.Fatalf("could not close store: %+v", err)
	}

	db, err = Open(fname)
	if err != nil {
		t.Fatalf("could not re-open store: %+v", err)
	}
	defer db.Close()

	got, err := db.Load(ctx, key)
	if err != nil {
		t.Fatalf("could not load state: %+v", err)
	}
	if got != want {
		t.Fatalf("invalid state: got=%+v, want=%+v", got, want)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := db.Load(cctx, key); err == nil {
		t.Fatalf("expected an error with a canceled context")
	}
}
