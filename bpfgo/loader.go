// Package bpfgo loads the kernel-side pair counters and drains them into
// the aggregation table.
package bpfgo

import (
	"fmt"
	"net"
	"os"
	"syscall"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"go.uber.org/multierr"

	"github.com/back2basic/euregiohosting/sniffer/logging"
)

const (
	bpfFsMount = "/sys/fs/bpf"

	PinPairStats = "/sys/fs/bpf/sniffer_pair_stats"

	mapPairStats = "pair_stats"
	progXDP      = "xdp_pairs"
	progTCEgress = "tc_pairs_egress"
)

type Handles struct {
	Coll    *ebpf.Collection
	Pairs   *ebpf.Map
	XDPLink link.Link
	TCLink  link.Link
}

func (h *Handles) Close() error {
	var err error
	if h.XDPLink != nil {
		err = multierr.Append(err, h.XDPLink.Close())
	}
	if h.TCLink != nil {
		err = multierr.Append(err, h.TCLink.Close())
	}
	if h.Coll != nil {
		h.Coll.Close()
	}
	UnloadPinned()
	return err
}

func ensureBPFFS() {
	if fi, err := os.Stat(bpfFsMount); err != nil || !fi.IsDir() {
		_ = os.MkdirAll(bpfFsMount, 0755)
	}
	_ = syscall.Mount("bpf", bpfFsMount, "bpf", 0, "")
}

// Load attaches the XDP ingress and TCX egress programs of objPath to iface
// and pins the pair map.
func Load(iface, objPath string) (*Handles, error) {
	ensureBPFFS()

	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, fmt.Errorf("get interface %s: %w", iface, err)
	}

	spec, err := ebpf.LoadCollectionSpec(objPath)
	if err != nil {
		return nil, fmt.Errorf("load BPF spec: %w", err)
	}

	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		return nil, fmt.Errorf("new collection: %w", err)
	}
	h := &Handles{Coll: coll}

	xdpProg := coll.Programs[progXDP]
	tcProg := coll.Programs[progTCEgress]
	h.Pairs = coll.Maps[mapPairStats]
	if xdpProg == nil || tcProg == nil || h.Pairs == nil {
		h.Close()
		return nil, fmt.Errorf("object %s lacks %s, %s or map %s", objPath, progXDP, progTCEgress, mapPairStats)
	}

	h.XDPLink, err = link.AttachXDP(link.XDPOptions{
		Program:   xdpProg,
		Interface: ifi.Index,
		Flags:     link.XDPGenericMode,
	})
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("attach XDP: %w", err)
	}

	h.TCLink, err = link.AttachTCX(link.TCXOptions{
		Program:   tcProg,
		Interface: ifi.Index,
		Attach:    ebpf.AttachTCXEgress,
	})
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("attach TC: %w", err)
	}

	if err := h.Pairs.Pin(PinPairStats); err != nil {
		h.Close()
		return nil, fmt.Errorf("pin %s: %w", mapPairStats, err)
	}

	logging.For("bpf").Infow("BPF loaded", "interface", iface, "object", objPath)
	return h, nil
}

func UnloadPinned() {
	_ = os.Remove(PinPairStats)
}
