// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conddb holds types to describe the condition database of the
// balloon payloads: rollover states and processing runs.
package conddb // import "github.com/go-lpc/barrel/conddb"

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-lpc/barrel/rollover"
	_ "github.com/go-sql-driver/mysql"
)

var (
	host = "localhost"
	usr  = "username"
	pwd  = "s3cr3t"

	drvName = "mysql"
)

// DB exposes convenience methods to retrieve and store conditions data
// in the payloads database.
type DB struct {
	db   *sql.DB
	name string // name of the conditions database
}

// Open opens a connection to the conditions database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("conddb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		return nil, fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// Load returns the last rollover state stored for the payload key.
// Unknown payloads yield the zero state.
func (db *DB) Load(ctx context.Context, key string) (rollover.State, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var st rollover.State
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT rolled, last_fc FROM rollover WHERE payload=? ORDER BY datetime DESC LIMIT 1",
		key,
	)
	if err != nil {
		return st, fmt.Errorf("conddb: could not query rollover state of %q: %w", key, err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(&st.Rolled, &st.LastFC)
		if err != nil {
			return st, fmt.Errorf("conddb: could not get rollover state of %q: %w", key, err)
		}
	}

	if err := rows.Err(); err != nil {
		return st, fmt.Errorf("conddb: could not scan db for rollover state of %q: %w", key, err)
	}

	if err := ctx.Err(); err != nil {
		return st, fmt.Errorf("conddb: context error while retrieving rollover state of %q: %w", key, err)
	}

	return st, nil
}

// Save stores the rollover state of the payload key.
func (db *DB) Save(ctx context.Context, key string, st rollover.State) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.db.ExecContext(
		ctx,
		"INSERT INTO rollover (payload, rolled, last_fc, datetime) VALUES (?, ?, ?, ?)",
		key, st.Rolled, st.LastFC, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("conddb: could not store rollover state of %q: %w", key, err)
	}
	return nil
}

// RolloverStates returns the last rollover state of every payload.
func (db *DB) RolloverStates(ctx context.Context) ([]RolloverState, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var states []RolloverState
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT payload, rolled, last_fc, datetime FROM rollover ORDER BY payload, datetime",
	)
	if err != nil {
		return states, fmt.Errorf(
			"conddb: could not run rollover query: %w",
			err,
		)
	}
	defer rows.Close()

	for rows.Next() {
		var st RolloverState
		err = rows.Scan(&st.Payload, &st.Rolled, &st.LastFC, &st.Time)
		if err != nil {
			return states, fmt.Errorf(
				"conddb: could not scan rollover states: %w",
				err,
			)
		}
		// keep the last entry of each payload.
		if n := len(states); n > 0 && states[n-1].Payload == st.Payload {
			states[n-1] = st
			continue
		}
		states = append(states, st)
	}

	if err := rows.Err(); err != nil {
		return states, fmt.Errorf(
			"conddb: could not scan db for rollover states: %w",
			err,
		)
	}

	if err := ctx.Err(); err != nil {
		return states, fmt.Errorf(
			"conddb: context error while retrieving rollover states: %w",
			err,
		)
	}

	return states, nil
}

// LogRun records a processing run.
func (db *DB) LogRun(ctx context.Context, run Run) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.db.ExecContext(
		ctx,
		"INSERT INTO runs (payload, date, revision, frames, rejected, rollover, datetime) VALUES (?, ?, ?, ?, ?, ?, ?)",
		run.Payload, run.Date, run.Revision, run.Frames, run.Rejected, run.Rollover, run.Time.UTC(),
	)
	if err != nil {
		return fmt.Errorf("conddb: could not log run %s/%s: %w", run.Payload, run.Date, err)
	}
	return nil
}

// Runs returns the processing runs of the payload, oldest first.
func (db *DB) Runs(ctx context.Context, payload string) ([]Run, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var runs []Run
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT payload, date, revision, frames, rejected, rollover, datetime FROM runs WHERE payload=? ORDER BY datetime",
		payload,
	)
	if err != nil {
		return runs, fmt.Errorf("conddb: could not run runs query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var run Run
		err = rows.Scan(
			&run.Payload, &run.Date, &run.Revision,
			&run.Frames, &run.Rejected, &run.Rollover, &run.Time,
		)
		if err != nil {
			return runs, fmt.Errorf("conddb: could not scan runs: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return runs, fmt.Errorf("conddb: could not scan db for runs: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return runs, fmt.Errorf("conddb: context error while retrieving runs: %w", err)
	}

	return runs, nil
}

var _ rollover.Store = (*DB)(nil)
