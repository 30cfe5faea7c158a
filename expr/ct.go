package expr

import (
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/evilsocket/go-nftnl/binaryutil"
)

// CtKey selects a conntrack entry field.
type CtKey uint32

// Possible CtKey values.
const (
	CtKeyState  CtKey = unix.NFT_CT_STATE
	CtKeyStatus CtKey = unix.NFT_CT_STATUS
	CtKeyMark   CtKey = unix.NFT_CT_MARK
	CtKeyZone   CtKey = unix.NFT_CT_ZONE
)

// Conntrack state bits, usable as a Bitwise mask over CtKeyState.
const (
	CtStateInvalid     uint32 = 0x01
	CtStateEstablished uint32 = 0x02
	CtStateRelated     uint32 = 0x04
	CtStateNew         uint32 = 0x08
	CtStateUntracked   uint32 = 0x40
)

// Ct loads the conntrack field selected by Key into register 1, or, with
// Write set, stores register 1 into that field.
type Ct struct {
	Key   CtKey
	Write bool
}

func (e *Ct) marshal(fam byte) ([]byte, error) {
	regType := uint16(unix.NFTA_CT_DREG)
	if e.Write {
		regType = unix.NFTA_CT_SREG
	}
	data, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NFTA_CT_KEY, Data: binaryutil.BigEndian.PutUint32(uint32(e.Key))},
		{Type: regType, Data: binaryutil.BigEndian.PutUint32(uint32(Reg1))},
	})
	if err != nil {
		return nil, err
	}
	return exprBytes("ct", data)
}
