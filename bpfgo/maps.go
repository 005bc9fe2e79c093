package bpfgo

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cilium/ebpf"
	"go.uber.org/multierr"

	"github.com/back2basic/euregiohosting/sniffer/capture"
	"github.com/back2basic/euregiohosting/sniffer/logging"
	"github.com/back2basic/euregiohosting/sniffer/model"
)

const (
	familyIPv4 = 4
	familyIPv6 = 6

	ipProtoTCP = 6
	ipProtoUDP = 17
)

// PairKey mirrors the key of the pair_stats map. IPv4 addresses occupy the
// first four bytes of the address fields; ports are in network byte order.
type PairKey struct {
	Addr1  [16]byte
	Addr2  [16]byte
	Port1  [2]byte
	Port2  [2]byte
	Proto  uint8
	Family uint8
	_      [2]byte
}

// PairStats mirrors the value of the pair_stats map.
type PairStats struct {
	Packets uint64
	Bytes   uint64
}

func (k PairKey) addrs() (netip.Addr, netip.Addr) {
	if k.Family == familyIPv4 {
		return netip.AddrFrom4([4]byte(k.Addr1[:4])), netip.AddrFrom4([4]byte(k.Addr2[:4]))
	}
	return netip.AddrFrom16(k.Addr1).Unmap(), netip.AddrFrom16(k.Addr2).Unmap()
}

// Pair decodes k into the aggregation key.
func (k PairKey) Pair() model.AddressPortPair {
	a1, a2 := k.addrs()
	p := model.AddressPortPair{
		Address1:      a1.String(),
		Address2:      a2.String(),
		TransProtocol: model.TransOther,
	}
	switch k.Proto {
	case ipProtoTCP:
		p.TransProtocol = model.TransTCP
	case ipProtoUDP:
		p.TransProtocol = model.TransUDP
	}
	if p.TransProtocol != model.TransOther {
		p.Port1 = binary.BigEndian.Uint16(k.Port1[:])
		p.Port2 = binary.BigEndian.Uint16(k.Port2[:])
	}
	return p
}

// Observation turns one map entry into an observation stamped at ts.
func (k PairKey) Observation(st PairStats, c *capture.Classifier, ts time.Time) model.Observation {
	pair := k.Pair()
	traffic := model.TrafficOther
	if c != nil {
		src, dst := k.addrs()
		traffic = c.Traffic(src, dst)
	}
	return model.Observation{
		Pair:        pair,
		AppProtocol: model.AppProtocolFromPorts(pair.Port1, pair.Port2),
		TrafficType: traffic,
		Packets:     st.Packets,
		Bytes:       st.Bytes,
		Timestamp:   ts,
	}
}

// entryTaker is the part of *ebpf.Map that Drain removes entries through.
type entryTaker interface {
	LookupAndDelete(key, valueOut interface{}) error
	Delete(key interface{}) error
}

// Drain moves every non-zero entry of m into sink and deletes it, so the
// kernel restarts counting from zero. It returns the number of entries
// delivered.
//
// Entries are taken with an atomic lookup-and-delete so packets counted
// between the iteration and the removal are not lost. Kernels without
// lookup-and-delete on hash maps fall back to the iterated value and a
// plain delete.
func Drain(m *ebpf.Map, c *capture.Classifier, ts time.Time, sink capture.Sink) (int, error) {
	var (
		key   PairKey
		val   PairStats
		keys  []PairKey
		stats []PairStats
	)
	it := m.Iterate()
	for it.Next(&key, &val) {
		if val.Packets == 0 && val.Bytes == 0 {
			continue
		}
		keys = append(keys, key)
		stats = append(stats, val)
	}
	if err := it.Err(); err != nil {
		return 0, err
	}
	return take(m, keys, stats, c, ts, sink)
}

func take(m entryTaker, keys []PairKey, seen []PairStats, c *capture.Classifier, ts time.Time, sink capture.Sink) (int, error) {
	var (
		n    int
		errs error
	)
	atomic := true
	for i := range keys {
		k := keys[i]
		st := seen[i]
		if atomic {
			err := m.LookupAndDelete(&k, &st)
			switch {
			case err == nil:
			case errors.Is(err, ebpf.ErrKeyNotExist):
				continue
			case errors.Is(err, ebpf.ErrNotSupported):
				atomic = false
			default:
				errs = multierr.Append(errs, fmt.Errorf("take %s: %w", k.Pair().PrintGUI(), err))
				continue
			}
		}
		if !atomic {
			st = seen[i]
			if err := m.Delete(&k); err != nil {
				if !errors.Is(err, ebpf.ErrKeyNotExist) {
					errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", k.Pair().PrintGUI(), err))
				}
				continue
			}
		}
		sink.Observe(k.Observation(st, c, ts))
		n++
	}
	return n, errs
}

// Poll drains h every interval until ctx is done.
func (h *Handles) Poll(ctx context.Context, interval time.Duration, c *capture.Classifier, sink capture.Sink, clk clock.Clock) {
	if clk == nil {
		clk = clock.New()
	}
	log := logging.For("bpf")
	ticker := clk.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := Drain(h.Pairs, c, clk.Now(), sink)
			if err != nil {
				log.Warnw("drain pair map", "pairs", n, "error", err)
				continue
			}
			log.Debugw("drained pair map", "pairs", n)
		}
	}
}
