package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/back2basic/euregiohosting/sniffer/agg"
	"github.com/back2basic/euregiohosting/sniffer/bpfgo"
	"github.com/back2basic/euregiohosting/sniffer/capture"
	"github.com/back2basic/euregiohosting/sniffer/config"
	"github.com/back2basic/euregiohosting/sniffer/dns"
	"github.com/back2basic/euregiohosting/sniffer/live"
	"github.com/back2basic/euregiohosting/sniffer/logging"
	"github.com/back2basic/euregiohosting/sniffer/prom"
	"github.com/back2basic/euregiohosting/sniffer/report"
	"github.com/back2basic/euregiohosting/sniffer/storage"
)

const bpfPollInterval = time.Second

func main() {
	opts, err := config.Parse(os.Args[1:])
	if err != nil {
		code, msg := config.ExitCode(err)
		if msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}
	if err := logging.Configure(opts.LogOutput, opts.LogLevel); err != nil {
		logging.For("main").Fatalw("configure logging", "error", err)
	}
	defer logging.Sync()
	log := logging.For("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, log); err != nil {
		log.Fatalw("sniffer failed", "error", err)
	}
}

func classifier(opts *config.Options) (*capture.Classifier, error) {
	locals, err := opts.Locals()
	if err != nil {
		return nil, err
	}
	if len(locals) > 0 || opts.Interface == "" {
		return &capture.Classifier{Local: locals}, nil
	}
	return capture.NewClassifier(opts.Interface)
}

func run(ctx context.Context, opts *config.Options, log *zap.SugaredLogger) error {
	clk := clock.New()
	table, err := agg.NewTable(opts.Capacity, clk)
	if err != nil {
		return err
	}
	cls, err := classifier(opts)
	if err != nil {
		return err
	}

	hostname, err := os.Hostname()
	if err != nil {
		log.Warnw("get hostname", "error", err)
	}

	// Open the capture before anything runs in the background so a failing
	// source returns without goroutines to wait for.
	var pump func(ctx context.Context)
	switch {
	case opts.BPFObject != "":
		h, err := bpfgo.Load(opts.Interface, opts.BPFObject)
		if err != nil {
			return err
		}
		defer h.Close()
		pump = func(ctx context.Context) {
			h.Poll(ctx, bpfPollInterval, cls, table, clk)
		}

	default:
		src, err := openSource(opts)
		if err != nil {
			return err
		}
		defer src.Close()
		pump = func(ctx context.Context) {
			dec := &capture.Decoder{Classifier: cls, Now: clk.Now}
			n := capture.Run(ctx, src.Packets, dec, table)
			log.Infow("capture stopped", "observations", n, "pairs", table.Len())
		}
	}

	var store *storage.Store
	if opts.SQLitePath != "" {
		store, err = storage.Open(opts.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	// Background consumers stop when the capture ends or on a signal. The
	// deferred wait runs before the store is closed so the final flush
	// still has a database.
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()
	spawn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	if store != nil {
		a := &agg.Aggregator{
			Table:    table,
			Store:    store,
			Resolver: dns.New(dns.DefaultSize, dns.DefaultTTL),
			Hostname: hostname,
			Clock:    clk,
		}
		if aw := storage.NewAppwrite(opts.Appwrite); aw != nil {
			a.Pusher = aw
		}
		spawn(func() { a.Run(ctx, opts.FlushInterval, opts.ExternalInterval) })
	}

	spawn(func() { report.Run(ctx, opts.ReportPath, table, opts.ReportInterval, clk) })

	if opts.LiveInterval > 0 {
		l := live.New(table, os.Stdout, opts.LiveInterval, clk)
		spawn(func() { l.Run(ctx) })
	}

	if opts.MetricsAddr != "" {
		c := prom.New(table)
		spawn(func() {
			if err := prom.Serve(ctx, opts.MetricsAddr, c); err != nil {
				log.Errorw("metrics server", "error", err)
			}
		})
	}

	pump(ctx)

	cancel()
	wg.Wait()
	log.Infow("shutdown complete", "report", opts.ReportPath)
	return nil
}

func openSource(opts *config.Options) (*capture.Source, error) {
	if opts.PcapFile != "" {
		return capture.OpenFile(opts.PcapFile)
	}
	return capture.OpenLive(opts.Interface)
}
