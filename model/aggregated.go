package model

// AggregatedRecord is a pair as persisted by storage: the record plus the
// reverse lookup of its remote side and the host that captured it.
type AggregatedRecord struct {
	Pair      AddressPortPair
	Info      InfoAddressPortPair
	Hostname  string
	DNS       string
	UpdatedAt int64
}

// Remote returns the address of the side that is not the sniffed host.
func (r AggregatedRecord) Remote() string {
	if r.Info.TrafficType == TrafficOutgoing {
		return r.Pair.Address2
	}
	return r.Pair.Address1
}
