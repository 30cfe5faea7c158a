package expr

import (
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/evilsocket/go-nftnl/binaryutil"
)

// PayloadBase selects which packet header a payload expression reads from.
type PayloadBase uint32

// Possible PayloadBase values.
const (
	PayloadBaseLLHeader        PayloadBase = unix.NFT_PAYLOAD_LL_HEADER
	PayloadBaseNetworkHeader   PayloadBase = unix.NFT_PAYLOAD_NETWORK_HEADER
	PayloadBaseTransportHeader PayloadBase = unix.NFT_PAYLOAD_TRANSPORT_HEADER
)

// HeaderField identifies a fixed-width field within a packet header.
type HeaderField struct {
	Base   PayloadBase
	Offset uint32
	Len    uint32
}

// Well-known header fields.
var (
	EthernetDaddr = HeaderField{PayloadBaseLLHeader, 0, 6}
	EthernetSaddr = HeaderField{PayloadBaseLLHeader, 6, 6}
	EthernetType  = HeaderField{PayloadBaseLLHeader, 12, 2}

	IPv4TTL      = HeaderField{PayloadBaseNetworkHeader, 8, 1}
	IPv4Protocol = HeaderField{PayloadBaseNetworkHeader, 9, 1}
	IPv4Saddr    = HeaderField{PayloadBaseNetworkHeader, 12, 4}
	IPv4Daddr    = HeaderField{PayloadBaseNetworkHeader, 16, 4}

	IPv6NextHeader = HeaderField{PayloadBaseNetworkHeader, 6, 1}
	IPv6HopLimit   = HeaderField{PayloadBaseNetworkHeader, 7, 1}
	IPv6Saddr      = HeaderField{PayloadBaseNetworkHeader, 8, 16}
	IPv6Daddr      = HeaderField{PayloadBaseNetworkHeader, 24, 16}

	TCPSport = HeaderField{PayloadBaseTransportHeader, 0, 2}
	TCPDport = HeaderField{PayloadBaseTransportHeader, 2, 2}

	UDPSport = HeaderField{PayloadBaseTransportHeader, 0, 2}
	UDPDport = HeaderField{PayloadBaseTransportHeader, 2, 2}
	UDPLen   = HeaderField{PayloadBaseTransportHeader, 4, 2}

	ICMPv6Type     = HeaderField{PayloadBaseTransportHeader, 0, 1}
	ICMPv6Code     = HeaderField{PayloadBaseTransportHeader, 1, 1}
	ICMPv6Checksum = HeaderField{PayloadBaseTransportHeader, 2, 2}
)

// Payload loads Field from the packet into register 1.
type Payload struct {
	Field HeaderField
}

func (e *Payload) marshal(fam byte) ([]byte, error) {
	data, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NFTA_PAYLOAD_DREG, Data: binaryutil.BigEndian.PutUint32(uint32(Reg1))},
		{Type: unix.NFTA_PAYLOAD_BASE, Data: binaryutil.BigEndian.PutUint32(uint32(e.Field.Base))},
		{Type: unix.NFTA_PAYLOAD_OFFSET, Data: binaryutil.BigEndian.PutUint32(e.Field.Offset)},
		{Type: unix.NFTA_PAYLOAD_LEN, Data: binaryutil.BigEndian.PutUint32(e.Field.Len)},
	})
	if err != nil {
		return nil, err
	}
	return exprBytes("payload", data)
}
