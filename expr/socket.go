package expr

import (
	"github.com/mdlayher/netlink"

	"github.com/evilsocket/go-nftnl/binaryutil"
)

// nft_socket attributes, not yet exported by x/sys/unix.
const (
	nftaSocketKey   uint16 = 1
	nftaSocketDreg  uint16 = 2
	nftaSocketLevel uint16 = 3
)

// SocketKey selects an originating socket attribute.
type SocketKey uint32

// Possible SocketKey values.
const (
	SocketKeyTransparent SocketKey = 0
	SocketKeyMark        SocketKey = 1
	SocketKeyWildcard    SocketKey = 2
	SocketKeyCgroupV2    SocketKey = 3
)

// Socket loads the originating socket attribute selected by Key into
// register 1. Level is the cgroupv2 ancestor level and is only emitted for
// SocketKeyCgroupV2.
type Socket struct {
	Key   SocketKey
	Level uint32
}

func (e *Socket) marshal(fam byte) ([]byte, error) {
	attrs := []netlink.Attribute{
		{Type: nftaSocketKey, Data: binaryutil.BigEndian.PutUint32(uint32(e.Key))},
		{Type: nftaSocketDreg, Data: binaryutil.BigEndian.PutUint32(uint32(Reg1))},
	}
	if e.Key == SocketKeyCgroupV2 {
		attrs = append(attrs, netlink.Attribute{Type: nftaSocketLevel, Data: binaryutil.BigEndian.PutUint32(e.Level)})
	}
	data, err := netlink.MarshalAttributes(attrs)
	if err != nil {
		return nil, err
	}
	return exprBytes("socket", data)
}
