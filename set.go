package nftnl

import (
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/evilsocket/go-nftnl/binaryutil"
	"github.com/evilsocket/go-nftnl/expr"
)

// SetKeyType describes the data type of a set's keys. The magic value is
// nft's datatype identifier, which userspace tools use to print elements.
type SetKeyType struct {
	magic  uint32
	keyLen uint32
}

// Possible SetKeyType values.
var (
	SetKeyTypeIPv4 = SetKeyType{magic: 7, keyLen: 4}
	SetKeyTypeIPv6 = SetKeyType{magic: 8, keyLen: 16}
)

// Set is a keyed collection that rules can test register contents against
// with a lookup expression.
type Set struct {
	table     *Table
	name      string
	id        uint32
	keyType   SetKeyType
	anonymous bool
	constant  bool
	elements  [][]byte
}

// NewSet returns an empty set. The id must be unique within the batch the
// set is added in; rules created in the same batch reference the set by it.
func NewSet(table *Table, name string, id uint32, keyType SetKeyType) *Set {
	return &Set{table: table, name: name, id: id, keyType: keyType}
}

// Name returns the set's name.
func (s *Set) Name() string { return s.name }

// SetAnonymous marks the set as bound to the rule that references it. The
// kernel removes anonymous sets when that rule is removed. Anonymous sets
// are implicitly constant.
func (s *Set) SetAnonymous() *Set {
	s.anonymous = true
	s.constant = true
	return s
}

// SetConstant marks the set's contents as immutable once the transaction
// commits.
func (s *Set) SetConstant() *Set {
	s.constant = true
	return s
}

// Add appends a key to the set's element list. The key must have the set
// key type's length.
func (s *Set) Add(key []byte) *Set {
	if uint32(len(key)) != s.keyType.keyLen {
		panic("set: element length does not match key type")
	}
	s.elements = append(s.elements, key)
	return s
}

// Lookup returns a lookup expression matching register 1 against the set.
func (s *Set) Lookup() *expr.Lookup {
	return &expr.Lookup{SetName: s.name, SetID: s.id}
}

func (s *Set) message(op MsgType, seq uint32) ([]byte, error) {
	var flags uint32
	if s.anonymous {
		flags |= unix.NFT_SET_ANONYMOUS
	}
	if s.constant {
		flags |= unix.NFT_SET_CONSTANT
	}
	payload, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NFTA_SET_TABLE, Data: []byte(s.table.name + "\x00")},
		{Type: unix.NFTA_SET_NAME, Data: []byte(s.name + "\x00")},
		{Type: unix.NFTA_SET_ID, Data: binaryutil.BigEndian.PutUint32(s.id)},
		{Type: unix.NFTA_SET_FLAGS, Data: binaryutil.BigEndian.PutUint32(flags)},
		{Type: unix.NFTA_SET_KEY_TYPE, Data: binaryutil.BigEndian.PutUint32(s.keyType.magic)},
		{Type: unix.NFTA_SET_KEY_LEN, Data: binaryutil.BigEndian.PutUint32(s.keyType.keyLen)},
	})
	if err != nil {
		return nil, err
	}
	msgType := uint16(unix.NFT_MSG_NEWSET)
	flagsHdr := netlink.Request | netlink.Acknowledge | netlink.Create | netlink.Append
	if op == MsgDel {
		msgType = unix.NFT_MSG_DELSET
		flagsHdr = netlink.Request | netlink.Acknowledge
	}
	return objectMessage(msgType, flagsHdr, seq, s.table.family, payload), nil
}

// marshalElem serializes one element as a list member.
func marshalElem(key []byte) ([]byte, error) {
	keyData, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NFTA_DATA_VALUE, Data: key},
	})
	if err != nil {
		return nil, err
	}
	return netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NLA_F_NESTED | unix.NFTA_SET_ELEM_KEY, Data: keyData},
	})
}

// setElemsMsg is one element list message holding a slice of the set's
// elements.
type setElemsMsg struct {
	set   *Set
	elems [][]byte
}

func (m *setElemsMsg) message(op MsgType, seq uint32) ([]byte, error) {
	var members []netlink.Attribute
	for _, key := range m.elems {
		b, err := marshalElem(key)
		if err != nil {
			return nil, err
		}
		members = append(members, netlink.Attribute{Type: unix.NLA_F_NESTED | unix.NFTA_LIST_ELEM, Data: b})
	}
	list, err := netlink.MarshalAttributes(members)
	if err != nil {
		return nil, err
	}
	payload, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NFTA_SET_ELEM_LIST_TABLE, Data: []byte(m.set.table.name + "\x00")},
		{Type: unix.NFTA_SET_ELEM_LIST_SET, Data: []byte(m.set.name + "\x00")},
		{Type: unix.NLA_F_NESTED | unix.NFTA_SET_ELEM_LIST_ELEMENTS, Data: list},
	})
	if err != nil {
		return nil, err
	}
	msgType := uint16(unix.NFT_MSG_NEWSETELEM)
	flags := netlink.Request | netlink.Acknowledge | netlink.Create | netlink.Excl
	if op == MsgDel {
		msgType = unix.NFT_MSG_DELSETELEM
		flags = netlink.Request | netlink.Acknowledge
	}
	return objectMessage(msgType, flags, seq, m.set.table.family, payload), nil
}

// SetElemsIter walks a set's elements, yielding element list messages that
// each stay within a byte budget. Yield returns nil once every element has
// been consumed.
type SetElemsIter struct {
	set    *Set
	budget uint32
	next   int
}

// ElemsIter returns an iterator over the set's elements. budget bounds the
// payload size of each yielded message.
func (s *Set) ElemsIter(budget uint32) *SetElemsIter {
	return &SetElemsIter{set: s, budget: budget}
}

// Yield returns the next element list message, packing elements greedily up
// to the iterator's budget. Every message carries at least one element even
// if that element alone exceeds the budget.
func (it *SetElemsIter) Yield() Msg {
	if it.next >= len(it.set.elements) {
		return nil
	}
	// Per-element wire cost: the list member header plus the nested key
	// attribute headers around the padded key.
	const elemOverhead = 4 + 4 + 4
	var used uint32
	start := it.next
	for it.next < len(it.set.elements) {
		cost := elemOverhead + nlmsgAlign(uint32(len(it.set.elements[it.next])))
		if it.next > start && used+cost > it.budget {
			break
		}
		used += cost
		it.next++
	}
	return &setElemsMsg{set: it.set, elems: it.set.elements[start:it.next]}
}
