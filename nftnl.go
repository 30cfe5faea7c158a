// Package nftnl builds nf_tables netlink messages and submits them to the
// kernel in atomic batch transactions.
//
// Tables, chains, rules and sets serialize themselves into netlink frames.
// A Batch collects frames into kernel-sized pages, and a Conn ships the
// finalized pages over a netfilter netlink socket and collects the kernel's
// acknowledgments.
package nftnl

import (
	"math"
	"os"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/evilsocket/go-nftnl/binaryutil"
)

// ProtoFamily is an nftables table address family.
type ProtoFamily byte

// Possible ProtoFamily values.
const (
	ProtoUnspec ProtoFamily = unix.NFPROTO_UNSPEC
	ProtoInet   ProtoFamily = unix.NFPROTO_INET
	ProtoIPv4   ProtoFamily = unix.NFPROTO_IPV4
	ProtoIPv6   ProtoFamily = unix.NFPROTO_IPV6
	ProtoArp    ProtoFamily = unix.NFPROTO_ARP
	ProtoNetDev ProtoFamily = unix.NFPROTO_NETDEV
	ProtoBridge ProtoFamily = unix.NFPROTO_BRIDGE
)

// MsgType is the direction of a batch operation on an object.
type MsgType int

// Possible MsgType values.
const (
	MsgAdd MsgType = iota
	MsgDel
)

// Msg is any object that can serialize itself into an nf_tables netlink
// frame for inclusion in a batch.
type Msg interface {
	message(op MsgType, seq uint32) ([]byte, error)
}

const (
	nlmsgHdrLen    = 16 // unix.NLMSG_HDRLEN
	nfgenmsgLen    = 4
	nlmsgAlignMask = unix.NLMSG_ALIGNTO - 1
)

// DefaultPageSize is the batch page size used unless WithPageSize overrides
// it. It matches the kernel's preferred receive buffer for nfnetlink
// batches.
var DefaultPageSize = uint32(os.Getpagesize() * 32)

// maxMsgSize bounds a single netlink message. Messages larger than this
// cannot be represented and are a programming error.
var maxMsgSize = math.MaxUint16 + uint32(os.Getpagesize())

func nlmsgAlign(n uint32) uint32 {
	return (n + nlmsgAlignMask) &^ uint32(nlmsgAlignMask)
}

// netlinkMessage serializes a complete netlink frame: nlmsghdr in host byte
// order, then an nfgenmsg with res_id in big endian, then the attribute
// payload, padded to the netlink alignment.
func netlinkMessage(hdrType uint16, flags netlink.HeaderFlags, seq uint32, fam ProtoFamily, resID uint16, payload []byte) []byte {
	length := nlmsgHdrLen + nfgenmsgLen + uint32(len(payload))
	buf := make([]byte, 0, nlmsgAlign(length))
	buf = append(buf, binaryutil.NativeEndian.PutUint32(length)...)
	buf = append(buf, binaryutil.NativeEndian.PutUint16(hdrType)...)
	buf = append(buf, binaryutil.NativeEndian.PutUint16(uint16(flags))...)
	buf = append(buf, binaryutil.NativeEndian.PutUint32(seq)...)
	buf = append(buf, binaryutil.NativeEndian.PutUint32(0)...) // pid filled by the kernel
	buf = append(buf, byte(fam), unix.NFNETLINK_V0)
	buf = append(buf, binaryutil.BigEndian.PutUint16(resID)...)
	buf = append(buf, payload...)
	for uint32(len(buf)) < nlmsgAlign(length) {
		buf = append(buf, 0)
	}
	return buf
}

// objectMessage frames an nf_tables object message of the given NFT_MSG_*
// subtype.
func objectMessage(msgType uint16, flags netlink.HeaderFlags, seq uint32, fam ProtoFamily, payload []byte) []byte {
	hdrType := uint16(unix.NFNL_SUBSYS_NFTABLES)<<8 | msgType
	return netlinkMessage(hdrType, flags, seq, fam, 0, payload)
}
