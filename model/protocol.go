package model

// TransProtocol is the transport layer protocol carried by a pair.
type TransProtocol uint8

const (
	TransOther TransProtocol = iota
	TransTCP
	TransUDP
)

func (p TransProtocol) String() string {
	switch p {
	case TransTCP:
		return "TCP"
	case TransUDP:
		return "UDP"
	default:
		return "Other"
	}
}

// ParseTransProtocol is the inverse of TransProtocol.String. Unknown labels
// map to TransOther.
func ParseTransProtocol(s string) TransProtocol {
	switch s {
	case "TCP":
		return TransTCP
	case "UDP":
		return TransUDP
	default:
		return TransOther
	}
}

// AppProtocol is the application layer protocol guessed from the ports of a
// pair. AppOther is the unclassified label.
type AppProtocol uint8

const (
	AppOther AppProtocol = iota
	AppFTP
	AppSSH
	AppTelnet
	AppSMTP
	AppTACACS
	AppDNS
	AppDHCP
	AppTFTP
	AppHTTP
	AppPOP
	AppNTP
	AppNetBIOS
	AppIMAP
	AppSNMP
	AppBGP
	AppLDAP
	AppHTTPS
	AppLDAPS
	AppFTPS
	AppIMAPS
	AppPOP3S
	AppSSDP
	AppXMPP
	AppMDNS
)

var appNames = [...]string{
	AppOther:   "Other",
	AppFTP:     "FTP",
	AppSSH:     "SSH",
	AppTelnet:  "Telnet",
	AppSMTP:    "SMTP",
	AppTACACS:  "TACACS",
	AppDNS:     "DNS",
	AppDHCP:    "DHCP",
	AppTFTP:    "TFTP",
	AppHTTP:    "HTTP",
	AppPOP:     "POP",
	AppNTP:     "NTP",
	AppNetBIOS: "NetBIOS",
	AppIMAP:    "IMAP",
	AppSNMP:    "SNMP",
	AppBGP:     "BGP",
	AppLDAP:    "LDAP",
	AppHTTPS:   "HTTPS",
	AppLDAPS:   "LDAPS",
	AppFTPS:    "FTPS",
	AppIMAPS:   "IMAPS",
	AppPOP3S:   "POP3S",
	AppSSDP:    "SSDP",
	AppXMPP:    "XMPP",
	AppMDNS:    "mDNS",
}

func (p AppProtocol) String() string {
	if int(p) < len(appNames) {
		return appNames[p]
	}
	return appNames[AppOther]
}

// ParseAppProtocol is the inverse of AppProtocol.String. Unknown labels map
// to AppOther.
func ParseAppProtocol(s string) AppProtocol {
	for i, name := range appNames {
		if name == s {
			return AppProtocol(i)
		}
	}
	return AppOther
}

// AppProtocolFromPort maps a well-known port to its application protocol.
func AppProtocolFromPort(port uint16) AppProtocol {
	switch port {
	case 20, 21:
		return AppFTP
	case 22:
		return AppSSH
	case 23:
		return AppTelnet
	case 25:
		return AppSMTP
	case 49:
		return AppTACACS
	case 53:
		return AppDNS
	case 67, 68:
		return AppDHCP
	case 69:
		return AppTFTP
	case 80, 8080:
		return AppHTTP
	case 109, 110:
		return AppPOP
	case 123:
		return AppNTP
	case 137, 138, 139:
		return AppNetBIOS
	case 143, 220:
		return AppIMAP
	case 161, 162, 199:
		return AppSNMP
	case 179:
		return AppBGP
	case 389:
		return AppLDAP
	case 443:
		return AppHTTPS
	case 636:
		return AppLDAPS
	case 989, 990:
		return AppFTPS
	case 993:
		return AppIMAPS
	case 995:
		return AppPOP3S
	case 1900:
		return AppSSDP
	case 5222:
		return AppXMPP
	case 5353:
		return AppMDNS
	default:
		return AppOther
	}
}

// AppProtocolFromPorts classifies by the first port, falling back to the
// second one.
func AppProtocolFromPorts(port1, port2 uint16) AppProtocol {
	if p := AppProtocolFromPort(port1); p != AppOther {
		return p
	}
	return AppProtocolFromPort(port2)
}

// TrafficType tells which side of a pair is the sniffed host.
type TrafficType uint8

const (
	TrafficOther TrafficType = iota
	TrafficIncoming
	TrafficOutgoing
	TrafficMulticast
	TrafficBroadcast
)

func (t TrafficType) String() string {
	switch t {
	case TrafficIncoming:
		return "incoming"
	case TrafficOutgoing:
		return "outgoing"
	case TrafficMulticast:
		return "multicast"
	case TrafficBroadcast:
		return "broadcast"
	default:
		return "other"
	}
}

// ParseTrafficType is the inverse of TrafficType.String.
func ParseTrafficType(s string) TrafficType {
	switch s {
	case "incoming":
		return TrafficIncoming
	case "outgoing":
		return TrafficOutgoing
	case "multicast":
		return TrafficMulticast
	case "broadcast":
		return TrafficBroadcast
	default:
		return TrafficOther
	}
}
