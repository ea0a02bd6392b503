// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fakedb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
)

func TestFakeDB(t *testing.T) {
	db, err := sql.Open("fakedb", "")
	if err != nil {
		t.Fatalf("could not open db: %+v", err)
	}
	defer db.Close()

	err = Run(context.Background(), Rows{
		Names:  []string{"payload", "n"},
		Values: [][]driver.Value{{"1G", int64(1)}, {"1H", int64(2)}},
	}, func(ctx context.Context) error {
		rows, err := db.QueryContext(ctx, "SELECT payload, n FROM runs")
		if err != nil {
			return err
		}
		defer rows.Close()

		var got []string
		for rows.Next() {
			var (
				name string
				n    int64
			)
			if err := rows.Scan(&name, &n); err != nil {
				return err
			}
			got = append(got, name)
		}
		if len(got) != 2 || got[0] != "1G" || got[1] != "1H" {
			t.Fatalf("invalid rows: %v", got)
		}
		return rows.Err()
	})
	if err != nil {
		t.Fatalf("could not query db: %+v", err)
	}

	execs, err := Exec(context.Background(), func(ctx context.Context) error {
		_, err := db.ExecContext(ctx, "INSERT INTO runs (payload) VALUES (?)", "1G")
		return err
	})
	if err != nil {
		t.Fatalf("could not exec statement: %+v", err)
	}
	if len(execs) != 1 || execs[0].Query != "INSERT INTO runs (payload) VALUES (?)" {
		t.Fatalf("invalid statements: %+v", execs)
	}
	if got, want := execs[0].Args, []driver.Value{"1G"}; len(got) != 1 || got[0] != want[0] {
		t.Fatalf("invalid args: got=%v, want=%v", got, want)
	}

	_, err = db.Begin()
	if !errors.Is(err, ErrTx) {
		t.Fatalf("invalid error: got=%v, want=%v", err, ErrTx)
	}
}
