package expr

import (
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/evilsocket/go-nftnl/binaryutil"
)

// NatType is the translation direction of a nat expression.
type NatType uint32

// Possible NatType values.
const (
	NatTypeSourceNAT NatType = unix.NFT_NAT_SNAT
	NatTypeDestNAT   NatType = unix.NFT_NAT_DNAT
)

// Nat rewrites the packet's source or destination. AddrRegister names the
// register holding the replacement address. PortRegister, if nonzero, names
// the register holding the replacement port. Family is the NFPROTO_* family
// of the address, which may differ from the table's family for inet tables.
type Nat struct {
	Type         NatType
	Family       uint32
	AddrRegister Register
	PortRegister Register
}

func (e *Nat) marshal(fam byte) ([]byte, error) {
	attrs := []netlink.Attribute{
		{Type: unix.NFTA_NAT_TYPE, Data: binaryutil.BigEndian.PutUint32(uint32(e.Type))},
		{Type: unix.NFTA_NAT_FAMILY, Data: binaryutil.BigEndian.PutUint32(e.Family)},
		{Type: unix.NFTA_NAT_REG_ADDR_MIN, Data: binaryutil.BigEndian.PutUint32(uint32(e.AddrRegister))},
	}
	if e.PortRegister != 0 {
		attrs = append(attrs, netlink.Attribute{Type: unix.NFTA_NAT_REG_PROTO_MIN, Data: binaryutil.BigEndian.PutUint32(uint32(e.PortRegister))})
	}
	data, err := netlink.MarshalAttributes(attrs)
	if err != nil {
		return nil, err
	}
	return exprBytes("nat", data)
}
