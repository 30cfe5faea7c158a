package nftnl

import (
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

// Table is a top-level container for chains, rules and sets within one
// address family.
type Table struct {
	name   string
	family ProtoFamily
}

// NewTable returns a table with the given name in the given family.
func NewTable(name string, family ProtoFamily) *Table {
	return &Table{name: name, family: family}
}

// Name returns the table's name.
func (t *Table) Name() string { return t.name }

// Family returns the table's address family.
func (t *Table) Family() ProtoFamily { return t.family }

func (t *Table) message(op MsgType, seq uint32) ([]byte, error) {
	payload, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NFTA_TABLE_NAME, Data: []byte(t.name + "\x00")},
	})
	if err != nil {
		return nil, err
	}
	msgType := uint16(unix.NFT_MSG_NEWTABLE)
	flags := netlink.Request | netlink.Acknowledge | netlink.Create
	if op == MsgDel {
		msgType = unix.NFT_MSG_DELTABLE
		flags = netlink.Request | netlink.Acknowledge
	}
	return objectMessage(msgType, flags, seq, t.family, payload), nil
}

// tableListRequest frames a dump request for the tables of the given family.
// ProtoUnspec lists tables of every family.
func tableListRequest(family ProtoFamily, seq uint32) []byte {
	hdrType := uint16(unix.NFNL_SUBSYS_NFTABLES)<<8 | unix.NFT_MSG_GETTABLE
	return netlinkMessage(hdrType, netlink.Request|netlink.Dump, seq, family, 0, nil)
}
