// Package capture turns captured frames into per-pair observations.
package capture

import (
	"net/netip"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/back2basic/euregiohosting/sniffer/model"
)

// Decoder converts packets into observations.
type Decoder struct {
	Classifier *Classifier
	// Now stamps packets that carry no capture timestamp.
	Now func() time.Time
}

// Decode returns the observation for packet. ok is false for packets that
// carry no IP layer.
func (d *Decoder) Decode(packet gopacket.Packet) (obs model.Observation, ok bool) {
	var src, dst netip.Addr
	switch ip := packet.NetworkLayer().(type) {
	case *layers.IPv4:
		src, _ = netip.AddrFromSlice(ip.SrcIP.To4())
		dst, _ = netip.AddrFromSlice(ip.DstIP.To4())
	case *layers.IPv6:
		src, _ = netip.AddrFromSlice(ip.SrcIP)
		dst, _ = netip.AddrFromSlice(ip.DstIP)
	default:
		return obs, false
	}

	pair := model.AddressPortPair{
		Address1:      src.String(),
		Address2:      dst.String(),
		TransProtocol: model.TransOther,
	}
	switch tl := packet.TransportLayer().(type) {
	case *layers.TCP:
		pair.Port1, pair.Port2 = uint16(tl.SrcPort), uint16(tl.DstPort)
		pair.TransProtocol = model.TransTCP
	case *layers.UDP:
		pair.Port1, pair.Port2 = uint16(tl.SrcPort), uint16(tl.DstPort)
		pair.TransProtocol = model.TransUDP
	}

	md := packet.Metadata()
	length := md.Length
	if length == 0 {
		length = len(packet.Data())
	}
	ts := md.Timestamp
	if ts.IsZero() {
		ts = d.now()
	}

	traffic := model.TrafficOther
	if d.Classifier != nil {
		traffic = d.Classifier.Traffic(src, dst)
	}

	return model.Observation{
		Pair:        pair,
		AppProtocol: model.AppProtocolFromPorts(pair.Port1, pair.Port2),
		TrafficType: traffic,
		Packets:     1,
		Bytes:       uint64(length),
		Timestamp:   ts,
	}, true
}

func (d *Decoder) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
