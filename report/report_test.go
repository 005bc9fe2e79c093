package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/back2basic/euregiohosting/sniffer/agg"
	"github.com/back2basic/euregiohosting/sniffer/model"
)

func table(t *testing.T) *agg.Table {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 3, 7, 10, 0, 0, 0, time.Local))
	tbl, err := agg.NewTable(10, clk)
	require.NoError(t, err)

	tbl.Observe(model.Observation{
		Pair:        model.AddressPortPair{Address1: "192.168.1.10", Port1: 40000, Address2: "1.1.1.1", Port2: 53, TransProtocol: model.TransUDP},
		AppProtocol: model.AppDNS,
		Bytes:       1500,
	})
	tbl.Observe(model.Observation{
		Pair:  model.AddressPortPair{Address1: "2001:db8:85a3:1234:5678:8a2e:370:7334", Port1: 443, Address2: "2001:db8::1", Port2: 50000, TransProtocol: model.TransTCP},
		Bytes: 60,
	})
	return tbl
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, table(t).Snapshot()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[1], "Src IP address")

	short, long := lines[3], lines[4]
	assert.Equal(t, len(short), len(long))
	assert.True(t, strings.HasPrefix(short, "|      192.168.1.10       |   40000  |"))
	assert.Contains(t, short, "|   DNS   |         1  |    1.5 kB  | 07/03/2024 10:00:00 | 07/03/2024 10:00:00 |")
	assert.True(t, strings.HasSuffix(short, "|"+strings.Repeat(" ", 40)))
	assert.True(t, strings.HasSuffix(long, "|"))
	assert.Contains(t, long, "  Other  ")
}

func TestHeaderMatchesShortRowWidth(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, table(t).Snapshot()[:1]))
	lines := strings.Split(buf.String(), "\n")

	row := strings.TrimRight(lines[3], " ")
	assert.Equal(t, len(lines[1]), len(row))
}

func TestWriteFileAndRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	tbl := table(t)

	require.NoError(t, WriteFile(path, tbl.Snapshot()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(string(data), "\n"))

	require.NoError(t, os.Remove(path))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(ctx, path, tbl, time.Minute, clock.NewMock())
	}()
	cancel()
	<-done

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
