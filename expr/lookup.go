package expr

import (
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/evilsocket/go-nftnl/binaryutil"
)

// Lookup checks whether the contents of register 1 are a member of the
// named set. The set is identified both by name and by its batch-local ID so
// that rules may reference anonymous sets created in the same transaction.
type Lookup struct {
	SetName string
	SetID   uint32
}

func (e *Lookup) marshal(fam byte) ([]byte, error) {
	data, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NFTA_LOOKUP_SET, Data: []byte(e.SetName + "\x00")},
		{Type: unix.NFTA_LOOKUP_SET_ID, Data: binaryutil.BigEndian.PutUint32(e.SetID)},
		{Type: unix.NFTA_LOOKUP_SREG, Data: binaryutil.BigEndian.PutUint32(uint32(Reg1))},
	})
	if err != nil {
		return nil, err
	}
	return exprBytes("lookup", data)
}
