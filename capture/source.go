package capture

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/back2basic/euregiohosting/sniffer/logging"
	"github.com/back2basic/euregiohosting/sniffer/model"
)

// Sink receives observations, normally an *agg.Table.
type Sink interface {
	Observe(model.Observation)
}

// Source is an open capture.
type Source struct {
	Packets *gopacket.PacketSource
	closer  io.Closer
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// OpenFile replays a pcap file.
func OpenFile(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pcap: %w", err)
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read pcap header %s: %w", path, err)
	}
	return &Source{
		Packets: gopacket.NewPacketSource(r, r.LinkType()),
		closer:  f,
	}, nil
}

// OpenLive captures on iface through an AF_PACKET socket.
func OpenLive(iface string) (*Source, error) {
	h, err := pcapgo.NewEthernetHandle(iface)
	if err != nil {
		return nil, fmt.Errorf("capture on %s: %w", iface, err)
	}
	return &Source{
		Packets: gopacket.NewPacketSource(h, layers.LayerTypeEthernet),
		closer:  closerFunc(func() error { h.Close(); return nil }),
	}, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Run feeds every decodable packet of src into sink until ctx is done or the
// source is exhausted. It returns the number of observations delivered.
func Run(ctx context.Context, src *gopacket.PacketSource, dec *Decoder, sink Sink) int {
	log := logging.For("capture")
	packets := src.Packets()
	n := 0
	for {
		select {
		case <-ctx.Done():
			return n
		case p, ok := <-packets:
			if !ok {
				log.Infow("capture source exhausted", "observations", n)
				return n
			}
			if obs, ok := dec.Decode(p); ok {
				sink.Observe(obs)
				n++
			}
		}
	}
}
