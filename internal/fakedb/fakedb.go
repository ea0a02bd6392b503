// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedb registers an in-memory "fakedb" SQL driver serving canned
// rows and recording executed statements.
package fakedb // import "github.com/go-lpc/barrel/internal/fakedb"

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
)

// ErrTx is returned when a transaction is started on the fake database.
var ErrTx = errors.New("fakedb: transactions not supported")

var state struct {
	mu    sync.Mutex
	rows  Rows
	execs []Statement
}

// Statement is a statement executed through the fake database.
type Statement struct {
	Query string
	Args  []driver.Value
}

// Run runs f with the fake database serving rows to every query.
func Run(ctx context.Context, rows Rows, f func(ctx context.Context) error) error {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.rows = rows
	state.execs = nil

	return f(ctx)
}

// Exec runs f and returns the statements it executed.
func Exec(ctx context.Context, f func(ctx context.Context) error) ([]Statement, error) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.rows = Rows{}
	state.execs = nil

	err := f(ctx)
	return state.execs, err
}

func init() {
	sql.Register("fakedb", drv{})
}

type drv struct{}

func (drv) Open(name string) (driver.Conn, error) { return conn{}, nil }

type conn struct{}

func (conn) Prepare(query string) (driver.Stmt, error) { return stmt{query: query}, nil }
func (conn) Close() error { return nil }
func (conn) Begin() (driver.Tx, error) { return nil, ErrTx }

type stmt struct {
	query string
}

func (stmt) Close() error { return nil }
func (stmt) NumInput() int { return -1 }

func (st stmt) Exec(args []driver.Value) (driver.Result, error) {
	state.execs = append(state.execs, Statement{
		Query: st.query,
		Args:  append([]driver.Value(nil), args...),
	})
	return driver.RowsAffected(1), nil
}

func (stmt) Query(args []driver.Value) (driver.Rows, error) {
	return &state.rows, nil
}

// Rows are the rows served to queries, one Values entry per row.
type Rows struct {
	Names  []string
	Values [][]driver.Value
}

func (rows *Rows) Columns() []string { return rows.Names }
func (rows *Rows) Close() error { return nil }

func (rows *Rows) Next(dest []driver.Value) error {
	if len(rows.Values) == 0 {
		return io.EOF
	}
	copy(dest, rows.Values[0])
	rows.Values = rows.Values[1:]
	return nil
}

var (
	_ driver.Driver = drv{}
	_ driver.Conn   = conn{}
	_ driver.Stmt   = stmt{}
	_ driver.Rows   = (*Rows)(nil)
)
