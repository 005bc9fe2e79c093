// Package agg owns the per-pair records and periodically persists them.
package agg

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/back2basic/euregiohosting/sniffer/logging"
	"github.com/back2basic/euregiohosting/sniffer/model"
)

// Resolver names the remote side of a pair.
type Resolver interface {
	Resolve(ctx context.Context, addr string) string
}

// PairStore is the local persistence, normally a *storage.Store.
type PairStore interface {
	SavePairs(rows []model.AggregatedRecord) error
	Pairs(since int64) ([]model.AggregatedRecord, error)
}

// Pusher is the external store, normally a *storage.Appwrite.
type Pusher interface {
	Push(rows []model.AggregatedRecord) error
}

// Aggregator persists table snapshots into SQLite and pushes the stored
// rows to the external store.
type Aggregator struct {
	Table    *Table
	Store    PairStore
	Pusher   Pusher
	Resolver Resolver
	Hostname string
	Clock    clock.Clock
}

func (a *Aggregator) clock() clock.Clock {
	if a.Clock == nil {
		return clock.New()
	}
	return a.Clock
}

// FlushOnce performs a single synchronous flush of the current snapshot.
func (a *Aggregator) FlushOnce(ctx context.Context) {
	a.flush(ctx)
}

// Run flushes every flushInterval and pushes on externalInterval aligned to
// the wall clock, until ctx is done. A final flush runs on the way out.
func (a *Aggregator) Run(ctx context.Context, flushInterval, externalInterval time.Duration) {
	clk := a.clock()
	flushTicker := clk.Ticker(flushInterval)
	defer flushTicker.Stop()

	extTimer := alignedTimer(clk, externalInterval)
	defer extTimer.Stop()

	var extTicker *clock.Ticker
	extC := func() <-chan time.Time {
		if extTicker != nil {
			return extTicker.C
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			if extTicker != nil {
				extTicker.Stop()
			}
			a.flush(context.Background())
			return

		case <-flushTicker.C:
			a.flush(ctx)

		case <-extTimer.C:
			a.push()
			extTicker = clk.Ticker(externalInterval)

		case <-extC():
			a.push()
		}
	}
}

func (a *Aggregator) flush(ctx context.Context) {
	if a.Store == nil {
		return
	}
	log := logging.For("agg")

	entries := a.Table.Snapshot()
	if len(entries) == 0 {
		return
	}

	now := a.clock().Now().UTC().Truncate(time.Minute).Unix()
	rows := make([]model.AggregatedRecord, 0, len(entries))
	for _, e := range entries {
		r := model.AggregatedRecord{
			Pair:      e.Pair,
			Info:      e.Info,
			Hostname:  a.Hostname,
			UpdatedAt: now,
		}
		if a.Resolver != nil {
			r.DNS = a.Resolver.Resolve(ctx, r.Remote())
		}
		rows = append(rows, r)
	}

	if err := a.Store.SavePairs(rows); err != nil {
		log.Errorw("flush failed", "pairs", len(rows), "error", err)
		return
	}
	log.Debugw("flushed", "pairs", len(rows))
}

func (a *Aggregator) push() {
	if a.Store == nil || a.Pusher == nil {
		return
	}
	log := logging.For("agg")

	midnight := a.clock().Now().UTC().Truncate(24 * time.Hour).Unix()
	rows, err := a.Store.Pairs(midnight)
	if err != nil {
		log.Errorw("daily query failed", "error", err)
		return
	}
	if len(rows) == 0 {
		return
	}
	if err := a.Pusher.Push(rows); err != nil {
		log.Errorw("external push failed", "error", err)
	}
}

func alignedTimer(clk clock.Clock, d time.Duration) *clock.Timer {
	now := clk.Now()
	next := now.Truncate(d).Add(d)
	return clk.Timer(next.Sub(now))
}
