package nftnl

import (
	"errors"
	"fmt"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/evilsocket/go-nftnl/binaryutil"
)

// ChainType determines what a base chain may do with packets.
type ChainType string

// Possible ChainType values.
const (
	ChainTypeFilter ChainType = "filter"
	ChainTypeRoute  ChainType = "route"
	ChainTypeNat    ChainType = "nat"
)

// Hook is a netfilter packet-path attachment point.
type Hook uint32

// Possible Hook values.
const (
	HookPreRouting  Hook = unix.NF_INET_PRE_ROUTING
	HookIn          Hook = unix.NF_INET_LOCAL_IN
	HookForward     Hook = unix.NF_INET_FORWARD
	HookOut         Hook = unix.NF_INET_LOCAL_OUT
	HookPostRouting Hook = unix.NF_INET_POST_ROUTING
	HookIngress     Hook = unix.NF_NETDEV_INGRESS
)

// Policy is a base chain's default verdict.
type Policy uint32

// Possible Policy values.
const (
	PolicyDrop   Policy = 0 // NF_DROP
	PolicyAccept Policy = 1 // NF_ACCEPT
)

// Base chain configuration errors.
var (
	ErrMissingChainType   = errors.New("base chain has no type")
	ErrMissingHook        = errors.New("base chain has no hook")
	ErrMissingPriority    = errors.New("base chain has no priority")
	ErrInvalidCombination = errors.New("chain type not valid for this family and hook")
	ErrInvalidPriority    = errors.New("priority not valid for this family and hook")
)

// Priority orders base chains attached to the same hook. A priority is
// either a raw numeric value or one of the named nft priorities, optionally
// shifted by an offset. Named priorities resolve to family and hook specific
// values when the chain is serialized.
type Priority struct {
	name   string
	value  int32
	offset int32
}

// PriorityValue returns a raw numeric priority.
func PriorityValue(v int32) Priority {
	return Priority{value: v}
}

// The named nft priorities.
var (
	PriorityRaw      = Priority{name: "raw"}
	PriorityMangle   = Priority{name: "mangle"}
	PriorityDstNat   = Priority{name: "dstnat"}
	PriorityFilter   = Priority{name: "filter"}
	PrioritySecurity = Priority{name: "security"}
	PrioritySrcNat   = Priority{name: "srcnat"}
	PriorityOut      = Priority{name: "out"}
)

// Offset returns p shifted by off. Resolution fails if the shifted value
// does not fit in an int32.
func (p Priority) Offset(off int32) Priority {
	p.offset += off
	return p
}

// resolve maps p to its numeric value for the given family and hook.
func (p Priority) resolve(fam ProtoFamily, hook Hook) (int32, error) {
	if p.name == "" {
		return p.value, nil
	}
	base, err := p.resolveName(fam, hook)
	if err != nil {
		return 0, err
	}
	v := int64(base) + int64(p.offset)
	if int64(int32(v)) != v {
		return 0, fmt.Errorf("priority %s offset %d overflows", p.name, p.offset)
	}
	return int32(v), nil
}

func (p Priority) resolveName(fam ProtoFamily, hook Hook) (int32, error) {
	if fam == ProtoBridge {
		switch {
		case p.name == "dstnat" && hook == HookPreRouting:
			return -300, nil
		case p.name == "filter":
			return -200, nil
		case p.name == "out" && hook == HookOut:
			return 100, nil
		case p.name == "srcnat" && hook == HookPostRouting:
			return 300, nil
		}
		return 0, fmt.Errorf("priority %s not defined for bridge hook %d", p.name, hook)
	}
	switch p.name {
	case "filter":
		switch fam {
		case ProtoInet, ProtoIPv4, ProtoIPv6, ProtoArp, ProtoNetDev:
			return 0, nil
		}
		return 0, fmt.Errorf("priority filter not defined for family %d", fam)
	case "raw", "mangle", "dstnat", "security", "srcnat":
		if fam != ProtoInet && fam != ProtoIPv4 && fam != ProtoIPv6 {
			return 0, fmt.Errorf("priority %s not defined for family %d", p.name, fam)
		}
	default:
		return 0, fmt.Errorf("unknown priority %q", p.name)
	}
	switch p.name {
	case "raw":
		return -300, nil
	case "mangle":
		return -150, nil
	case "dstnat":
		if hook != HookPreRouting {
			return 0, fmt.Errorf("priority dstnat only defined for the prerouting hook")
		}
		return -100, nil
	case "security":
		return 50, nil
	default: // srcnat
		if hook != HookPostRouting {
			return 0, fmt.Errorf("priority srcnat only defined for the postrouting hook")
		}
		return 100, nil
	}
}

// Chain is a container for rules within a table. A chain with a hook,
// priority and type is a base chain that receives packets from the kernel;
// without them it is a regular chain reachable only via jump and goto.
type Chain struct {
	table     *Table
	name      string
	chainType ChainType
	hook      *Hook
	priority  *Priority
	policy    *Policy
	device    string
}

// NewChain returns a regular chain with the given name in table.
func NewChain(table *Table, name string) *Chain {
	return &Chain{table: table, name: name}
}

// Name returns the chain's name.
func (c *Chain) Name() string { return c.name }

// Table returns the table the chain belongs to.
func (c *Chain) Table() *Table { return c.table }

// SetType sets the chain's type, making it a base chain.
func (c *Chain) SetType(t ChainType) *Chain {
	c.chainType = t
	return c
}

// SetHook attaches the chain to hook, making it a base chain. A base chain
// also needs a priority and a type before it can be serialized.
func (c *Chain) SetHook(hook Hook) *Chain {
	c.hook = &hook
	return c
}

// SetPriority orders the chain relative to other chains on the same hook.
func (c *Chain) SetPriority(prio Priority) *Chain {
	c.priority = &prio
	return c
}

// SetPolicy sets the chain's default verdict.
func (c *Chain) SetPolicy(p Policy) *Chain {
	c.policy = &p
	return c
}

// SetDevice binds the chain to a network device. Only meaningful for
// netdev family chains on the ingress hook.
func (c *Chain) SetDevice(dev string) *Chain {
	c.device = dev
	return c
}

// validate checks a base chain's configuration and resolves its priority.
// Regular chains always validate.
func (c *Chain) validate() (int32, error) {
	if c.chainType == "" && c.hook == nil && c.priority == nil {
		return 0, nil
	}
	if c.chainType == "" {
		return 0, ErrMissingChainType
	}
	if c.hook == nil {
		return 0, ErrMissingHook
	}
	if c.priority == nil {
		return 0, ErrMissingPriority
	}
	fam, hook := c.table.family, *c.hook
	if !validCombination(c.chainType, fam, hook) {
		return 0, ErrInvalidCombination
	}
	prio, err := c.priority.resolve(fam, hook)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPriority, err)
	}
	// Nat base chains below conntrack's priority would see packets before
	// connection tracking has classified them.
	if c.chainType == ChainTypeNat && prio <= -200 {
		return 0, fmt.Errorf("%w: nat chains must have priority above -200", ErrInvalidPriority)
	}
	return prio, nil
}

func validCombination(t ChainType, fam ProtoFamily, hook Hook) bool {
	switch t {
	case ChainTypeFilter:
		if fam == ProtoArp {
			return hook == HookIn || hook == HookOut
		}
		return true
	case ChainTypeNat:
		if fam != ProtoInet && fam != ProtoIPv4 && fam != ProtoIPv6 {
			return false
		}
		return hook == HookPreRouting || hook == HookIn || hook == HookOut || hook == HookPostRouting
	case ChainTypeRoute:
		if fam != ProtoInet && fam != ProtoIPv4 && fam != ProtoIPv6 {
			return false
		}
		return hook == HookOut
	}
	return false
}

func (c *Chain) message(op MsgType, seq uint32) ([]byte, error) {
	prio, err := c.validate()
	if err != nil {
		return nil, err
	}
	attrs := []netlink.Attribute{
		{Type: unix.NFTA_CHAIN_TABLE, Data: []byte(c.table.name + "\x00")},
		{Type: unix.NFTA_CHAIN_NAME, Data: []byte(c.name + "\x00")},
	}
	if op == MsgAdd && c.hook != nil {
		hookAttrs := []netlink.Attribute{
			{Type: unix.NFTA_HOOK_HOOKNUM, Data: binaryutil.BigEndian.PutUint32(uint32(*c.hook))},
			{Type: unix.NFTA_HOOK_PRIORITY, Data: binaryutil.BigEndian.PutUint32(uint32(prio))},
		}
		if c.device != "" {
			hookAttrs = append(hookAttrs, netlink.Attribute{Type: unix.NFTA_HOOK_DEV, Data: []byte(c.device + "\x00")})
		}
		hookData, err := netlink.MarshalAttributes(hookAttrs)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs,
			netlink.Attribute{Type: unix.NLA_F_NESTED | unix.NFTA_CHAIN_HOOK, Data: hookData},
			netlink.Attribute{Type: unix.NFTA_CHAIN_TYPE, Data: []byte(string(c.chainType) + "\x00")},
		)
		if c.policy != nil {
			attrs = append(attrs, netlink.Attribute{Type: unix.NFTA_CHAIN_POLICY, Data: binaryutil.BigEndian.PutUint32(uint32(*c.policy))})
		}
	}
	payload, err := netlink.MarshalAttributes(attrs)
	if err != nil {
		return nil, err
	}
	msgType := uint16(unix.NFT_MSG_NEWCHAIN)
	flags := netlink.Request | netlink.Acknowledge | netlink.Create
	if op == MsgDel {
		msgType = unix.NFT_MSG_DELCHAIN
		flags = netlink.Request | netlink.Acknowledge
	}
	return objectMessage(msgType, flags, seq, c.table.family, payload), nil
}
