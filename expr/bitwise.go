package expr

import (
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/evilsocket/go-nftnl/binaryutil"
)

// Bitwise computes (reg1 & Mask) ^ Xor and stores the result back in
// register 1. Mask and Xor must have the same length; mismatched lengths are
// a programming error and panic.
type Bitwise struct {
	Mask []byte
	Xor  []byte
}

func (e *Bitwise) marshal(fam byte) ([]byte, error) {
	if len(e.Mask) != len(e.Xor) {
		panic("bitwise: mask and xor length mismatch")
	}
	mask, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NFTA_DATA_VALUE, Data: e.Mask},
	})
	if err != nil {
		return nil, err
	}
	xor, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NFTA_DATA_VALUE, Data: e.Xor},
	})
	if err != nil {
		return nil, err
	}
	data, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NFTA_BITWISE_SREG, Data: binaryutil.BigEndian.PutUint32(uint32(Reg1))},
		{Type: unix.NFTA_BITWISE_DREG, Data: binaryutil.BigEndian.PutUint32(uint32(Reg1))},
		{Type: unix.NFTA_BITWISE_LEN, Data: binaryutil.BigEndian.PutUint32(uint32(len(e.Mask)))},
		{Type: unix.NLA_F_NESTED | unix.NFTA_BITWISE_MASK, Data: mask},
		{Type: unix.NLA_F_NESTED | unix.NFTA_BITWISE_XOR, Data: xor},
	})
	if err != nil {
		return nil, err
	}
	return exprBytes("bitwise", data)
}
