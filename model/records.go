package model

import (
	"fmt"
	"strings"

	"lukechampine.com/uint128"

	"github.com/back2basic/euregiohosting/sniffer/format"
)

// Layout constants of the record columns. guiWidth is the prefix kept by
// PrintGUI (protocol, app, packets and bytes columns with their pipes);
// shortAddressPad compensates for the narrower address column of rows that
// are not VeryLong. Both are tied to the report table layout.
const (
	guiWidth        = 46
	shortAddressPad = 40
)

// InfoAddressPortPair accumulates the statistics of a single address:port
// pair and renders them for the report file and the live display.
type InfoAddressPortPair struct {
	// Bytes transmitted between the pair.
	TransmittedBytes uint128.Uint128
	// Packets transmitted between the pair.
	TransmittedPackets uint128.Uint128
	// First exchange featuring the pair.
	InitialTimestamp string
	// Latest exchange featuring the pair.
	FinalTimestamp string
	TransProtocol  TransProtocol
	AppProtocol    AppProtocol
	// Set when either address is longer than the short report column.
	VeryLongAddress bool
	TrafficType     TrafficType
}

func (i InfoAddressPortPair) appLabel() string {
	if i.AppProtocol == AppOther {
		return "Other"
	}
	return i.AppProtocol.String()
}

// String renders the record columns of a report row.
func (i InfoAddressPortPair) String() string {
	s := fmt.Sprintf("   %s   |%s|%s  |%s  | %s | %s |",
		i.TransProtocol,
		format.Center(i.appLabel(), 9),
		format.Right(i.TransmittedPackets.String(), 10),
		format.Right(format.Bytes(i.TransmittedBytes), 10),
		i.InitialTimestamp, i.FinalTimestamp)
	if i.VeryLongAddress {
		return s
	}
	return s + strings.Repeat(" ", shortAddressPad)
}

// PrintGUI is the compact form of String for the live display: the leading
// columns without separators.
func (i InfoAddressPortPair) PrintGUI() string {
	s := i.String()
	if len(s) < guiWidth {
		panic(fmt.Sprintf("model: record line %q shorter than %d", s, guiWidth))
	}
	return strings.ReplaceAll(s[:guiWidth], "|", "")
}
