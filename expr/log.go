package expr

import (
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/evilsocket/go-nftnl/binaryutil"
)

// Log sends the packet to the kernel logging facility and continues
// evaluation. Group, if set, directs the packet to the given nfnetlink_log
// group instead of the kernel log ring.
type Log struct {
	Group *uint16
}

func (e *Log) marshal(fam byte) ([]byte, error) {
	var attrs []netlink.Attribute
	if e.Group != nil {
		attrs = append(attrs, netlink.Attribute{Type: unix.NFTA_LOG_GROUP, Data: binaryutil.BigEndian.PutUint16(*e.Group)})
	}
	data, err := netlink.MarshalAttributes(attrs)
	if err != nil {
		return nil, err
	}
	return exprBytes("log", data)
}
