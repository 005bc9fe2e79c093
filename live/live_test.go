package live

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/back2basic/euregiohosting/sniffer/agg"
	"github.com/back2basic/euregiohosting/sniffer/model"
)

func TestPrintStats(t *testing.T) {
	clk := clock.NewMock()
	tbl, err := agg.NewTable(10, clk)
	require.NoError(t, err)
	pair := model.AddressPortPair{Address1: "192.168.1.10", Port1: 40000, Address2: "1.1.1.1", Port2: 53, TransProtocol: model.TransUDP}
	tbl.Observe(model.Observation{Pair: pair, AppProtocol: model.AppDNS, Bytes: 1500, Packets: 3})

	var buf bytes.Buffer
	New(tbl, &buf, time.Second, clk).PrintStats()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "1 pairs")

	info, _ := tbl.Get(pair)
	assert.True(t, strings.HasPrefix(lines[1], "192.168.1.10:40000 -> 1.1.1.1:53 "))
	assert.True(t, strings.HasSuffix(lines[1], info.PrintGUI()))
	assert.Equal(t, 50+1+len(info.PrintGUI()), len(lines[1]))
	assert.NotContains(t, lines[1], "|")
}

type syncBuffer struct {
	ch chan string
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.ch <- string(p)
	return len(p), nil
}

func TestRunTicks(t *testing.T) {
	clk := clock.NewMock()
	tbl, err := agg.NewTable(10, clk)
	require.NoError(t, err)

	out := &syncBuffer{ch: make(chan string, 16)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go New(tbl, out, time.Second, clk).Run(ctx)

	require.Eventually(t, func() bool {
		clk.Add(time.Second)
		return len(out.ch) > 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, <-out.ch, "LIVE TRAFFIC")
}
