// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command l2-sql inspects the rollover states and processing runs stored
// in the condition database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/go-lpc/barrel/conddb"
	_ "github.com/go-sql-driver/mysql"
)

func main() {
	log.SetPrefix("l2-sql: ")
	log.SetFlags(0)

	var (
		dbname  = flag.String("db", "barrel", "name of the condition database")
		payload = flag.String("payload", "", "payload key to inspect (e.g. 1G-09)")
	)

	flag.Parse()

	db, err := conddb.Open(*dbname)
	if err != nil {
		log.Fatalf("could not open condition db: %+v", err)
	}
	defer db.Close()

	err = doQuery(db, *payload)
	if err != nil {
		log.Fatalf("could not do query: %+v", err)
	}
}

func doQuery(db *conddb.DB, payload string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	states, err := db.RolloverStates(ctx)
	if err != nil {
		return fmt.Errorf("could not retrieve rollover states: %w", err)
	}
	log.Printf("rollover states: %d", len(states))
	for _, st := range states {
		if payload != "" && st.Payload != payload {
			continue
		}
		log.Printf(">>> payload=%s rolled=%v last-fc=%d (%v)",
			st.Payload, st.Rolled, st.LastFC, st.Time.Format(time.RFC3339),
		)
	}

	if payload == "" {
		return nil
	}

	runs, err := db.Runs(ctx, payload)
	if err != nil {
		return fmt.Errorf("could not retrieve runs of %q: %w", payload, err)
	}
	log.Printf("runs: %d", len(runs))
	for i, run := range runs {
		log.Printf("run[%d]: date=%s rev=%s frames=%d rejected=%d rollover=%v (%v)",
			i, run.Date, run.Revision, run.Frames, run.Rejected, run.Rollover,
			run.Time.Format(time.RFC3339),
		)
	}

	return nil
}
