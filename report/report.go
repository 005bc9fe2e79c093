// Package report writes the fixed-width report file, one row per pair.
package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/back2basic/euregiohosting/sniffer/agg"
	"github.com/back2basic/euregiohosting/sniffer/format"
	"github.com/back2basic/euregiohosting/sniffer/logging"
)

// Header returns the column titles, aligned with short address rows.
func Header() string {
	ts := len(format.TimestampLayout)
	title := "|" + format.Center("Src IP address", 25) +
		"|" + format.Center("Src port", 10) +
		"|" + format.Center("Dst IP address", 25) +
		"|" + format.Center("Dst port", 10) +
		"|" + format.Center("Layer 4", 9) +
		"|" + format.Center("Layer 7", 9) +
		"|" + format.Center("Packets", 12) +
		"|" + format.Center("Bytes", 12) +
		"|" + format.Center("Initial timestamp", ts+2) +
		"|" + format.Center("Final timestamp", ts+2) +
		"|"
	rule := strings.Repeat("-", len(title))
	return rule + "\n" + title + "\n" + rule + "\n"
}

// Write renders entries to w.
func Write(w io.Writer, entries []agg.Entry) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Header()); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(bw, "%s%s\n", e.Pair, e.Info); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile replaces the report at path.
func WriteFile(path string, entries []agg.Entry) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, entries); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Run rewrites the report from table every interval and once more when ctx
// is done.
func Run(ctx context.Context, path string, table *agg.Table, interval time.Duration, clk clock.Clock) {
	if clk == nil {
		clk = clock.New()
	}
	log := logging.For("report")
	write := func() {
		entries := table.Snapshot()
		if err := WriteFile(path, entries); err != nil {
			log.Errorw("report failed", "path", path, "error", err)
			return
		}
		log.Debugw("report written", "path", path, "pairs", len(entries))
	}

	ticker := clk.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			write()
			return
		case <-ticker.C:
			write()
		}
	}
}
