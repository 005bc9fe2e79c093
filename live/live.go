// Package live prints the compact per-pair view on a timer.
package live

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/back2basic/euregiohosting/sniffer/agg"
	"github.com/back2basic/euregiohosting/sniffer/format"
)

const endpointWidth = 50

type Live struct {
	table    *agg.Table
	out      io.Writer
	interval time.Duration
	clock    clock.Clock
}

func New(table *agg.Table, out io.Writer, interval time.Duration, clk clock.Clock) *Live {
	if clk == nil {
		clk = clock.New()
	}
	return &Live{table: table, out: out, interval: interval, clock: clk}
}

func (l *Live) Run(ctx context.Context) {
	ticker := l.clock.Ticker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.PrintStats()
		}
	}
}

// PrintStats writes one compact line per tracked pair.
func (l *Live) PrintStats() {
	entries := l.table.Snapshot()
	fmt.Fprintf(l.out, "---- LIVE TRAFFIC (%d pairs, %d evicted) ----\n", len(entries), l.table.Evicted())
	for _, e := range entries {
		fmt.Fprintf(l.out, "%s %s\n", format.Left(e.Pair.PrintGUI(), endpointWidth), e.Info.PrintGUI())
	}
	fmt.Fprintln(l.out, "-------------------------------------------")
}

