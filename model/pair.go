package model

import (
	"fmt"
	"strconv"
	"time"

	"github.com/back2basic/euregiohosting/sniffer/format"
)

// Widths of the address column in the report. Rows whose addresses do not
// fit the short column use the long one; the difference (2*20) is what
// InfoAddressPortPair pads back for short rows.
const (
	veryLongAddressLen = 25
	longAddressWidth   = 45
	portWidth          = 8
)

// AddressPortPair identifies one flow: both endpoints and the transport
// protocol. It is comparable and used as the aggregation key.
type AddressPortPair struct {
	Address1      string
	Port1         uint16
	Address2      string
	Port2         uint16
	TransProtocol TransProtocol
}

// VeryLong reports whether either address is too long for the short column.
func (p AddressPortPair) VeryLong() bool {
	return len(p.Address1) > veryLongAddressLen || len(p.Address2) > veryLongAddressLen
}

// String renders the address columns of a report row.
func (p AddressPortPair) String() string {
	w := veryLongAddressLen
	if p.VeryLong() {
		w = longAddressWidth
	}
	return "|" + format.Center(p.Address1, w) +
		"|" + format.Right(strconv.Itoa(int(p.Port1)), portWidth) +
		"  |" + format.Center(p.Address2, w) +
		"|" + format.Right(strconv.Itoa(int(p.Port2)), portWidth) +
		"  |"
}

// PrintGUI is the compact endpoint label used by the live display.
func (p AddressPortPair) PrintGUI() string {
	return fmt.Sprintf("%s:%d -> %s:%d", p.Address1, p.Port1, p.Address2, p.Port2)
}

// Observation is one accounting unit handed by a capture source to the
// aggregation table.
type Observation struct {
	Pair        AddressPortPair
	AppProtocol AppProtocol
	TrafficType TrafficType
	Packets     uint64
	Bytes       uint64
	Timestamp   time.Time
}
