package expr

import (
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/evilsocket/go-nftnl/binaryutil"
)

// FibFlags select which packet addresses a fib expression queries the
// routing table with.
type FibFlags uint32

// Possible FibFlags values, combinable with bitwise or.
const (
	FibSaddr   FibFlags = unix.NFTA_FIB_F_SADDR
	FibDaddr   FibFlags = unix.NFTA_FIB_F_DADDR
	FibMark    FibFlags = unix.NFTA_FIB_F_MARK
	FibIif     FibFlags = unix.NFTA_FIB_F_IIF
	FibOif     FibFlags = unix.NFTA_FIB_F_OIF
	FibPresent FibFlags = unix.NFTA_FIB_F_PRESENT
)

// FibResult selects what a fib expression stores in register 1.
type FibResult uint32

// Possible FibResult values.
const (
	FibResultOif      FibResult = unix.NFT_FIB_RESULT_OIF
	FibResultOifName  FibResult = unix.NFT_FIB_RESULT_OIFNAME
	FibResultAddrType FibResult = unix.NFT_FIB_RESULT_ADDRTYPE
)

// Fib queries the routing table with the packet addresses selected by Flags
// and loads the Result into register 1.
type Fib struct {
	Flags  FibFlags
	Result FibResult
}

func (e *Fib) marshal(fam byte) ([]byte, error) {
	data, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NFTA_FIB_DREG, Data: binaryutil.BigEndian.PutUint32(uint32(Reg1))},
		{Type: unix.NFTA_FIB_RESULT, Data: binaryutil.BigEndian.PutUint32(uint32(e.Result))},
		{Type: unix.NFTA_FIB_FLAGS, Data: binaryutil.BigEndian.PutUint32(uint32(e.Flags))},
	})
	if err != nil {
		return nil, err
	}
	return exprBytes("fib", data)
}
