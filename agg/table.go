package agg

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"lukechampine.com/uint128"

	"github.com/back2basic/euregiohosting/sniffer/format"
	"github.com/back2basic/euregiohosting/sniffer/logging"
	"github.com/back2basic/euregiohosting/sniffer/model"
)

type slot struct {
	info model.InfoAddressPortPair
	last time.Time
}

// Entry is a snapshot of one tracked pair.
type Entry struct {
	Pair model.AddressPortPair
	Info model.InfoAddressPortPair
}

// Table owns the records of every tracked pair. Writers go through
// Observe; readers only ever get copies from Snapshot.
type Table struct {
	mu      sync.Mutex
	lru     *simplelru.LRU[model.AddressPortPair, *slot]
	evicted uint64
	clock   clock.Clock
}

// NewTable returns a table holding at most capacity pairs. The least
// recently observed pair is dropped when it is full.
func NewTable(capacity int, clk clock.Clock) (*Table, error) {
	if clk == nil {
		clk = clock.New()
	}
	t := &Table{clock: clk}
	l, err := simplelru.NewLRU[model.AddressPortPair, *slot](capacity, nil)
	if err != nil {
		return nil, err
	}
	t.lru = l
	return t, nil
}

// Observe accounts obs to its pair, creating the record on first sight.
func (t *Table) Observe(obs model.Observation) {
	ts := obs.Timestamp
	if ts.IsZero() {
		ts = t.clock.Now()
	}
	packets := obs.Packets
	if packets == 0 {
		packets = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.lru.Get(obs.Pair)
	if !ok {
		stamp := format.Timestamp(ts)
		if t.lru.Add(obs.Pair, &slot{
			info: model.InfoAddressPortPair{
				TransmittedBytes:   uint128.From64(obs.Bytes),
				TransmittedPackets: uint128.From64(packets),
				InitialTimestamp:   stamp,
				FinalTimestamp:     stamp,
				TransProtocol:      obs.Pair.TransProtocol,
				AppProtocol:        obs.AppProtocol,
				VeryLongAddress:    obs.Pair.VeryLong(),
				TrafficType:        obs.TrafficType,
			},
			last: ts,
		}) {
			t.evicted++
		}
		return
	}

	s.info.TransmittedBytes = addSat(s.info.TransmittedBytes, obs.Bytes)
	s.info.TransmittedPackets = addSat(s.info.TransmittedPackets, packets)
	if ts.After(s.last) {
		s.last = ts
		s.info.FinalTimestamp = format.Timestamp(ts)
	}
	if s.info.AppProtocol == model.AppOther && obs.AppProtocol != model.AppOther {
		s.info.AppProtocol = obs.AppProtocol
	}
}

// Get returns a copy of the record of pair.
func (t *Table) Get(pair model.AddressPortPair) (model.InfoAddressPortPair, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.lru.Peek(pair)
	if !ok {
		return model.InfoAddressPortPair{}, false
	}
	return s.info, true
}

// Snapshot copies every record, least recently observed first.
func (t *Table) Snapshot() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := t.lru.Keys()
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		s, _ := t.lru.Peek(k)
		out = append(out, Entry{Pair: k, Info: s.info})
	}
	return out
}

// Len returns the number of tracked pairs.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lru.Len()
}

// Evicted returns how many pairs were dropped for capacity.
func (t *Table) Evicted() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.evicted
}

// Clear drops every record.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.lru.Len()
	t.lru.Purge()
	logging.For("agg").Debugw("table cleared", "pairs", n)
}

// addSat adds n to c, sticking at the maximum instead of wrapping.
func addSat(c uint128.Uint128, n uint64) uint128.Uint128 {
	if uint128.Max.Sub(c).Cmp64(n) < 0 {
		return uint128.Max
	}
	return c.Add64(n)
}
