// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conddb

import (
	"context"
	"database/sql/driver"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/go-lpc/barrel/internal/fakedb"
	"github.com/go-lpc/barrel/rollover"
)

func init() {
	drvName = "fakedb"
}

func TestOpen(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()
}

func TestLoad(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	for _, tc := range []struct {
		name string
		rows [][]driver.Value
		want rollover.State
	}{
		{
			name: "unknown",
		},
		{
			name: "rolled",
			rows: [][]driver.Value{{true, int64(4242)}},
			want: rollover.State{Rolled: true, LastFC: 4242},
		},
		{
			name: "not-rolled",
			rows: [][]driver.Value{{false, int64(2090000)}},
			want: rollover.State{LastFC: 2090000},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_ = fakedb.Run(context.Background(), fakedb.Rows{
				Names:  []string{"rolled", "last_fc"},
				Values: tc.rows,
			}, func(ctx context.Context) error {
				got, err := db.Load(ctx, "1G-09")
				if err != nil {
					t.Fatalf("could not load rollover state: %+v", err)
				}
				if got != tc.want {
					t.Fatalf("invalid state: got=%+v, want=%+v", got, tc.want)
				}
				return nil
			})
		})
	}
}

func TestSave(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	stmts, err := fakedb.Exec(context.Background(), func(ctx context.Context) error {
		return db.Save(ctx, "1G-09", rollover.State{Rolled: true, LastFC: 12})
	})
	if err != nil {
		t.Fatalf("could not save rollover state: %+v", err)
	}

	if got, want := len(stmts), 1; got != want {
		t.Fatalf("invalid number of statements: got=%d, want=%d", got, want)
	}
	stmt := stmts[0]
	if !strings.HasPrefix(stmt.Query, "INSERT INTO rollover") {
		t.Fatalf("invalid statement: %q", stmt.Query)
	}
	if got, want := stmt.Args[:3], []driver.Value{"1G-09", true, int64(12)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid arguments:\ngot= %#v\nwant=%#v", got, want)
	}
}

func TestRolloverStates(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	var (
		t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		t1 = t0.Add(24 * time.Hour)
	)

	want := []RolloverState{
		{"1G-09", false, 1000, t0},
		{"1H-10", true, 12, t1},
	}
	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"payload", "rolled", "last_fc", "datetime"},
		Values: [][]driver.Value{
			{"1G-09", false, int64(10), t0.Add(-time.Hour)},
			{"1G-09", false, int64(1000), t0},
			{"1H-10", true, int64(12), t1},
		},
	}, func(ctx context.Context) error {
		got, err := db.RolloverStates(ctx)
		if err != nil {
			t.Fatalf("could not retrieve rollover states: %+v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("invalid rollover states:\ngot= %+v\nwant=%+v", got, want)
		}
		return nil
	})
}

func TestRuns(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	run := Run{
		Payload:  "1G-09",
		Date:     "260115",
		Revision: "v01",
		Frames:   86400,
		Rejected: 12,
		Rollover: true,
		Time:     time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC),
	}

	stmts, err := fakedb.Exec(context.Background(), func(ctx context.Context) error {
		return db.LogRun(ctx, run)
	})
	if err != nil {
		t.Fatalf("could not log run: %+v", err)
	}
	if got, want := len(stmts), 1; got != want {
		t.Fatalf("invalid number of statements: got=%d, want=%d", got, want)
	}
	if got, want := stmts[0].Args, []driver.Value{
		run.Payload, run.Date, run.Revision, run.Frames, run.Rejected, run.Rollover, run.Time,
	}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid arguments:\ngot= %#v\nwant=%#v", got, want)
	}

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"payload", "date", "revision", "frames", "rejected", "rollover", "datetime"},
		Values: [][]driver.Value{
			{run.Payload, run.Date, run.Revision, run.Frames, run.Rejected, run.Rollover, run.Time},
		},
	}, func(ctx context.Context) error {
		got, err := db.Runs(ctx, run.Payload)
		if err != nil {
			t.Fatalf("could not retrieve runs: %+v", err)
		}
		if want := []Run{run}; !reflect.DeepEqual(got, want) {
			t.Fatalf("invalid runs:\ngot= %+v\nwant=%+v", got, want)
		}
		return nil
	})
}
