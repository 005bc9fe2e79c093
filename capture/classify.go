package capture

import (
	"net"
	"net/netip"

	"github.com/back2basic/euregiohosting/sniffer/model"
)

// Classifier decides the TrafficType of a packet from the addresses of the
// sniffed host.
type Classifier struct {
	Local []netip.Addr
}

// NewClassifier collects the unicast addresses configured on iface.
func NewClassifier(iface string) (*Classifier, error) {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, err
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return nil, err
	}
	c := &Classifier{}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok {
			if ip, ok := netip.AddrFromSlice(ipnet.IP); ok {
				c.Local = append(c.Local, ip.Unmap())
			}
		}
	}
	return c, nil
}

func (c *Classifier) isLocal(a netip.Addr) bool {
	for _, l := range c.Local {
		if l == a {
			return true
		}
	}
	return false
}

var limitedBroadcast = netip.AddrFrom4([4]byte{255, 255, 255, 255})

// Traffic classifies a packet going from src to dst.
func (c *Classifier) Traffic(src, dst netip.Addr) model.TrafficType {
	src, dst = src.Unmap(), dst.Unmap()
	switch {
	case dst.IsMulticast():
		return model.TrafficMulticast
	case dst == limitedBroadcast:
		return model.TrafficBroadcast
	case c.isLocal(src):
		return model.TrafficOutgoing
	case c.isLocal(dst):
		return model.TrafficIncoming
	default:
		return model.TrafficOther
	}
}
