// Package prom exposes the per-pair counters to Prometheus.
package prom

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"lukechampine.com/uint128"

	"github.com/back2basic/euregiohosting/sniffer/agg"
	"github.com/back2basic/euregiohosting/sniffer/logging"
)

var pairLabels = []string{"address1", "port1", "address2", "port2", "transport", "application", "traffic"}

type Collector struct {
	table *agg.Table

	bytes   *prometheus.Desc
	packets *prometheus.Desc
	pairs   *prometheus.Desc
}

func New(table *agg.Table) *Collector {
	return &Collector{
		table: table,
		bytes: prometheus.NewDesc(
			"sniffer_pair_bytes",
			"Bytes transmitted between an address:port pair",
			pairLabels,
			nil,
		),
		packets: prometheus.NewDesc(
			"sniffer_pair_packets",
			"Packets transmitted between an address:port pair",
			pairLabels,
			nil,
		),
		pairs: prometheus.NewDesc(
			"sniffer_pairs",
			"Tracked address:port pairs",
			nil,
			nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bytes
	ch <- c.packets
	ch <- c.pairs
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	entries := c.table.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.pairs, prometheus.GaugeValue, float64(len(entries)))

	for _, e := range entries {
		labels := []string{
			e.Pair.Address1,
			strconv.Itoa(int(e.Pair.Port1)),
			e.Pair.Address2,
			strconv.Itoa(int(e.Pair.Port2)),
			e.Pair.TransProtocol.String(),
			e.Info.AppProtocol.String(),
			e.Info.TrafficType.String(),
		}
		ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.CounterValue, toFloat(e.Info.TransmittedBytes), labels...)
		ch <- prometheus.MustNewConstMetric(c.packets, prometheus.CounterValue, toFloat(e.Info.TransmittedPackets), labels...)
	}
}

func toFloat(u uint128.Uint128) float64 {
	if u.Hi == 0 {
		return float64(u.Lo)
	}
	f, _ := new(big.Float).SetInt(u.Big()).Float64()
	return f
}

// Serve registers c on a private registry and serves /metrics on addr until
// ctx is done.
func Serve(ctx context.Context, addr string, c *Collector) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.For("prom").Infow("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
