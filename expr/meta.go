package expr

import (
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/evilsocket/go-nftnl/binaryutil"
)

// MetaKey selects a packet metadata field.
type MetaKey uint32

// Possible MetaKey values.
const (
	MetaKeyProtocol MetaKey = unix.NFT_META_PROTOCOL
	MetaKeyMark     MetaKey = unix.NFT_META_MARK
	MetaKeyIif      MetaKey = unix.NFT_META_IIF
	MetaKeyOif      MetaKey = unix.NFT_META_OIF
	MetaKeyIifName  MetaKey = unix.NFT_META_IIFNAME
	MetaKeyOifName  MetaKey = unix.NFT_META_OIFNAME
	MetaKeyIifType  MetaKey = unix.NFT_META_IIFTYPE
	MetaKeyOifType  MetaKey = unix.NFT_META_OIFTYPE
	MetaKeySkuid    MetaKey = unix.NFT_META_SKUID
	MetaKeySkgid    MetaKey = unix.NFT_META_SKGID
	MetaKeyNfProto  MetaKey = unix.NFT_META_NFPROTO
	MetaKeyL4Proto  MetaKey = unix.NFT_META_L4PROTO
	MetaKeyCgroup   MetaKey = unix.NFT_META_CGROUP
	MetaKeyPRandom  MetaKey = unix.NFT_META_PRANDOM
)

// Meta loads the packet metadata field selected by Key into register 1.
type Meta struct {
	Key MetaKey
}

func (e *Meta) marshal(fam byte) ([]byte, error) {
	data, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NFTA_META_KEY, Data: binaryutil.BigEndian.PutUint32(uint32(e.Key))},
		{Type: unix.NFTA_META_DREG, Data: binaryutil.BigEndian.PutUint32(uint32(Reg1))},
	})
	if err != nil {
		return nil, err
	}
	return exprBytes("meta", data)
}
