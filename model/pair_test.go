package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairString(t *testing.T) {
	p := AddressPortPair{
		Address1:      "192.168.1.10",
		Port1:         51000,
		Address2:      "1.1.1.1",
		Port2:         53,
		TransProtocol: TransUDP,
	}
	assert.False(t, p.VeryLong())
	assert.Equal(t,
		"|      192.168.1.10       |   51000  |         1.1.1.1         |      53  |",
		p.String())
}

func TestPairStringVeryLong(t *testing.T) {
	short := AddressPortPair{Address1: "10.0.0.1", Port1: 1, Address2: "10.0.0.2", Port2: 2}
	long := AddressPortPair{
		Address1: "2001:db8:85a3:1234:5678:8a2e:370:7334",
		Port1:    1,
		Address2: "10.0.0.2",
		Port2:    2,
	}
	assert.True(t, long.VeryLong())
	assert.Equal(t, len(short.String())+40, len(long.String()))
}

func TestPairRowWidthIsStable(t *testing.T) {
	rec := InfoAddressPortPair{TransProtocol: TransTCP, InitialTimestamp: "a", FinalTimestamp: "b"}

	short := AddressPortPair{Address1: "10.0.0.1", Address2: "10.0.0.2"}
	rec.VeryLongAddress = short.VeryLong()
	shortRow := short.String() + rec.String()

	long := AddressPortPair{Address1: strings.Repeat("f", 30), Address2: "10.0.0.2"}
	rec.VeryLongAddress = long.VeryLong()
	longRow := long.String() + rec.String()

	assert.Equal(t, len(shortRow), len(longRow))
}

func TestPairPrintGUI(t *testing.T) {
	p := AddressPortPair{Address1: "10.0.0.1", Port1: 443, Address2: "10.0.0.2", Port2: 50000}
	assert.Equal(t, "10.0.0.1:443 -> 10.0.0.2:50000", p.PrintGUI())
}

func TestAppProtocolFromPorts(t *testing.T) {
	assert.Equal(t, AppHTTPS, AppProtocolFromPorts(50000, 443))
	assert.Equal(t, AppDNS, AppProtocolFromPorts(53, 443))
	assert.Equal(t, AppOther, AppProtocolFromPorts(50000, 50001))
	assert.Equal(t, AppMDNS, AppProtocolFromPort(5353))
}

func TestLabelRoundTrip(t *testing.T) {
	for p := AppOther; p <= AppMDNS; p++ {
		assert.Equal(t, p, ParseAppProtocol(p.String()))
	}
	for _, p := range []TransProtocol{TransTCP, TransUDP, TransOther} {
		assert.Equal(t, p, ParseTransProtocol(p.String()))
	}
	for tt := TrafficOther; tt <= TrafficBroadcast; tt++ {
		assert.Equal(t, tt, ParseTrafficType(tt.String()))
	}
	assert.Equal(t, "Other", AppProtocol(200).String())
}
