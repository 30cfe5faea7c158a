package nftnl

import (
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/evilsocket/go-nftnl/binaryutil"
	"github.com/evilsocket/go-nftnl/expr"
)

// Rule is an ordered list of expressions evaluated against packets
// traversing a chain.
type Rule struct {
	chain    *Chain
	exprs    []expr.Any
	handle   uint64
	position uint64
}

// NewRule returns an empty rule in chain.
func NewRule(chain *Chain) *Rule {
	return &Rule{chain: chain}
}

// Chain returns the chain the rule belongs to.
func (r *Rule) Chain() *Chain { return r.chain }

// AddExpr appends e to the rule's expression list.
func (r *Rule) AddExpr(e expr.Any) *Rule {
	r.exprs = append(r.exprs, e)
	return r
}

// SetHandle sets the kernel handle identifying an existing rule, for
// deletion.
func (r *Rule) SetHandle(handle uint64) *Rule {
	r.handle = handle
	return r
}

// SetPosition makes the rule insert after the existing rule with the given
// handle instead of appending at the end of the chain.
func (r *Rule) SetPosition(handle uint64) *Rule {
	r.position = handle
	return r
}

func (r *Rule) message(op MsgType, seq uint32) ([]byte, error) {
	fam := r.chain.table.family
	var elems []netlink.Attribute
	for _, e := range r.exprs {
		b, err := expr.Marshal(byte(fam), e)
		if err != nil {
			return nil, err
		}
		elems = append(elems, netlink.Attribute{Type: unix.NLA_F_NESTED | unix.NFTA_LIST_ELEM, Data: b})
	}
	exprList, err := netlink.MarshalAttributes(elems)
	if err != nil {
		return nil, err
	}
	attrs := []netlink.Attribute{
		{Type: unix.NFTA_RULE_TABLE, Data: []byte(r.chain.table.name + "\x00")},
		{Type: unix.NFTA_RULE_CHAIN, Data: []byte(r.chain.name + "\x00")},
		{Type: unix.NLA_F_NESTED | unix.NFTA_RULE_EXPRESSIONS, Data: exprList},
	}
	if r.handle != 0 {
		attrs = append(attrs, netlink.Attribute{Type: unix.NFTA_RULE_HANDLE, Data: binaryutil.BigEndian.PutUint64(r.handle)})
	}
	if r.position != 0 {
		attrs = append(attrs, netlink.Attribute{Type: unix.NFTA_RULE_POSITION, Data: binaryutil.BigEndian.PutUint64(r.position)})
	}
	payload, err := netlink.MarshalAttributes(attrs)
	if err != nil {
		return nil, err
	}
	msgType := uint16(unix.NFT_MSG_NEWRULE)
	flags := netlink.Request | netlink.Acknowledge | netlink.Create | netlink.Append | netlink.Excl
	if op == MsgDel {
		msgType = unix.NFT_MSG_DELRULE
		flags = netlink.Request | netlink.Acknowledge
	}
	return objectMessage(msgType, flags, seq, fam, payload), nil
}
