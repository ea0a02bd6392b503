// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command barrel-l2 reduces the raw telemetry of balloon payloads into
// level-two products.
//
// Usage: barrel-l2 [OPTIONS] -cfg barrel.yaml
//
// Example:
//
//	$> barrel-l2 -cfg ./flight.yaml -metrics ./l2.prom
//	barrel-l2-1G INFO processed 1G: frames=86400 rejected=12 out-of-range=3 ...
//	barrel-l2-1G INFO wrote 6 tables to /data/l2
//
// Options:
//
//	-alert float
//	    	fraction of rejected frames or unfitted windows triggering a mail alert (0: disabled)
//	-cfg string
//	    	path to the YAML configuration file
//	-freq duration
//	    	pmon frequency (default 1s)
//	-metrics string
//	    	path to a prometheus text file to write metrics to
//	-pmon
//	    	enable pmon monitoring
//	-v	enable verbose mode
//	-version
//	    	print version and exit
package main // import "github.com/go-lpc/barrel/cmd/barrel-l2"

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/go-daq/tdaq/log"
	"github.com/go-lpc/barrel"
	"github.com/go-lpc/barrel/conddb"
	"github.com/go-lpc/barrel/config"
	"github.com/go-lpc/barrel/internal/emit"
	"github.com/go-lpc/barrel/l2"
	"github.com/go-lpc/barrel/rollover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sbinet/pmon"
	"golang.org/x/sync/errgroup"

	_ "github.com/go-sql-driver/mysql"
)

func main() {
	stdlog.SetPrefix("barrel-l2: ")
	stdlog.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := xmain(ctx, os.Stdout, os.Args[1:])
	if err != nil {
		stdlog.Fatalf("%+v", err)
	}
}

func xmain(ctx context.Context, w io.Writer, args []string) error {
	var (
		fset = flag.NewFlagSet("barrel-l2", flag.ContinueOnError)

		cfgName = fset.String("cfg", "", "path to the YAML configuration file")
		alert   = fset.Float64("alert", 0, "fraction of rejected frames or unfitted windows triggering a mail alert (0: disabled)")
		metrics = fset.String("metrics", "", "path to a prometheus text file to write metrics to")
		doMon   = fset.Bool("pmon", false, "enable pmon monitoring")
		doFreq  = fset.Duration("freq", 1*time.Second, "pmon frequency")
		verbose = fset.Bool("v", false, "enable verbose mode")
		version = fset.Bool("version", false, "print version and exit")
	)

	err := fset.Parse(args)
	if err != nil {
		return fmt.Errorf("could not parse input arguments: %w", err)
	}

	if *version {
		v, sum := barrel.Version()
		fmt.Fprintf(w, "barrel-l2 %s %s\n", v, sum)
		return nil
	}

	if *cfgName == "" {
		fset.Usage()
		return fmt.Errorf("missing configuration file")
	}

	cfg, err := config.Load(*cfgName)
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}

	lvl := log.LvlInfo
	if *verbose {
		lvl = log.LvlDebug
	}

	err = os.MkdirAll(cfg.Output, 0755)
	if err != nil {
		return fmt.Errorf("could not create output directory %q: %w", cfg.Output, err)
	}

	if *doMon {
		err = monitor(filepath.Join(cfg.Output, "barrel-l2-pmon.log"), *doFreq)
		if err != nil {
			return err
		}
	}

	st, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.close()

	var (
		reg = prometheus.NewRegistry()
		mon = l2.NewMetrics(reg)
	)

	grp, ctx := errgroup.WithContext(ctx)
	for i := range cfg.Payloads {
		p := cfg.Payloads[i]
		grp.Go(func() error {
			msg := log.NewMsgStream("barrel-l2-"+p.Name, lvl, w)
			return process(ctx, cfg, p, st, mon, *alert, msg)
		})
	}

	err = grp.Wait()
	if err != nil {
		return fmt.Errorf("could not process payloads: %w", err)
	}

	if *metrics != "" {
		err = prometheus.WriteToTextfile(*metrics, reg)
		if err != nil {
			return fmt.Errorf("could not write metrics: %w", err)
		}
	}

	err = st.close()
	if err != nil {
		return fmt.Errorf("could not close rollover store: %w", err)
	}

	return nil
}

func process(ctx context.Context, cfg config.Config, p config.Payload, st *store, mon *l2.Metrics, alert float64, msg log.MsgStream) error {
	lcfg, err := l2.NewConfig(cfg, p)
	if err != nil {
		return fmt.Errorf("could not configure payload %q: %w", p.Name, err)
	}

	proc := l2.NewProcessor(lcfg, st.Store, mon, msg)
	prods, err := proc.ProcessFile(ctx, p.Input)
	if err != nil {
		return fmt.Errorf("could not process payload %q: %w", p.Name, err)
	}

	prefix := fmt.Sprintf("bar_%s_%s_%s", p.Name, cfg.Date, cfg.Revision)
	fnames, err := emit.Write(cfg.Output, prefix, prods)
	if err != nil {
		return fmt.Errorf("could not write products of payload %q: %w", p.Name, err)
	}
	msg.Infof("wrote %d tables to %s", len(fnames), cfg.Output)
	for _, fname := range fnames {
		msg.Debugf("wrote %s", fname)
	}

	if needAlert(prods.Stats, alert) {
		msg.Warnf("payload %s above alert threshold (%g)", p.Name, alert)
		alertMail(p.Name, prods.Stats)
	}

	if st.db == nil {
		return nil
	}

	err = st.db.LogRun(ctx, conddb.Run{
		Payload:  p.Key(),
		Date:     cfg.Date,
		Revision: cfg.Revision,
		Frames:   int64(prods.Stats.Frames),
		Rejected: int64(prods.Stats.NumRejected()),
		Rollover: prods.State.Rolled,
		Time:     time.Now(),
	})
	if err != nil {
		return fmt.Errorf("could not log run of payload %q: %w", p.Name, err)
	}
	return nil
}

// store is the rollover store of a processing run.
// db is only set for the condition database.
type store struct {
	rollover.Store

	db     *conddb.DB
	closer io.Closer
}

func openStore(cfg config.Store) (*store, error) {
	switch cfg.Kind {
	case config.StoreBolt:
		s, err := rollover.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("could not open rollover store: %w", err)
		}
		return &store{Store: s, closer: s}, nil

	case config.StoreMySQL:
		db, err := conddb.Open(cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("could not open condition db: %w", err)
		}
		return &store{Store: db, db: db, closer: db}, nil

	default:
		return &store{}, nil
	}
}

func (st *store) close() error {
	if st.closer == nil {
		return nil
	}
	err := st.closer.Close()
	st.closer = nil
	return err
}

// monitor records the resource usage of the current process into fname.
// The monitor runs until the process exits.
func monitor(fname string, freq time.Duration) error {
	p, err := pmon.Monitor(os.Getpid())
	if err != nil {
		return fmt.Errorf("could not start monitoring: %w", err)
	}

	f, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("could not create pmon log file: %w", err)
	}
	p.W = f
	p.Freq = freq

	go func() {
		err := p.Run()
		if err != nil {
			stdlog.Printf("could not run pmon: %+v", err)
		}
	}()

	return nil
}
