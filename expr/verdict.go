package expr

import (
	"math"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/evilsocket/go-nftnl/binaryutil"
)

// VerdictKind is the outcome a verdict expression produces for a packet.
type VerdictKind int32

// Possible VerdictKind values. The negative values are nf_tables internal
// verdicts, the non-negative ones the netfilter hook verdicts.
const (
	VerdictReturn VerdictKind = iota - 5
	VerdictGoto
	VerdictJump
	VerdictBreak
	VerdictContinue
	VerdictDrop
	VerdictAccept
	VerdictStolen
	VerdictQueue
)

// VerdictReject rejects the packet with an ICMP message instead of silently
// dropping it. It has no wire verdict code of its own; it is emitted as a
// reject expression.
const VerdictReject VerdictKind = math.MinInt32

// Reject types, per nft_reject.
const (
	rejectTypeICMPUnreach  uint32 = unix.NFT_REJECT_ICMP_UNREACH
	rejectTypeTCPRst       uint32 = unix.NFT_REJECT_TCP_RST
	rejectTypeICMPXUnreach uint32 = unix.NFT_REJECT_ICMPX_UNREACH
)

// Family-agnostic ICMP unreachable codes, per nft_reject ICMPX.
const (
	RejectCodeNoRoute         uint8 = 0
	RejectCodePortUnreach     uint8 = 1
	RejectCodeHostUnreach     uint8 = 2
	RejectCodeAdminProhibited uint8 = 3
)

// Verdict ends rule evaluation with Kind. Chain names the target chain for
// goto and jump verdicts. RejectCode selects the ICMP code for reject
// verdicts; the zero value rejects with "no route to host".
type Verdict struct {
	Kind       VerdictKind
	Chain      string
	RejectCode uint8
}

func (e *Verdict) marshal(fam byte) ([]byte, error) {
	if e.Kind == VerdictReject {
		return e.marshalReject(fam)
	}
	attrs := []netlink.Attribute{
		{Type: unix.NFTA_VERDICT_CODE, Data: binaryutil.BigEndian.PutUint32(uint32(e.Kind))},
	}
	if e.Chain != "" {
		attrs = append(attrs, netlink.Attribute{Type: unix.NFTA_VERDICT_CHAIN, Data: []byte(e.Chain + "\x00")})
	}
	verdictData, err := netlink.MarshalAttributes(attrs)
	if err != nil {
		return nil, err
	}
	immData, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NLA_F_NESTED | unix.NFTA_DATA_VERDICT, Data: verdictData},
	})
	if err != nil {
		return nil, err
	}
	data, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NFTA_IMMEDIATE_DREG, Data: binaryutil.BigEndian.PutUint32(uint32(RegVerdict))},
		{Type: unix.NLA_F_NESTED | unix.NFTA_IMMEDIATE_DATA, Data: immData},
	})
	if err != nil {
		return nil, err
	}
	return exprBytes("immediate", data)
}

// marshalReject emits a reject expression. The inet and bridge families
// dispatch to per-protocol reject implementations themselves, so they take
// the family-agnostic ICMPX codes; the single-protocol families take the
// protocol's own codes.
func (e *Verdict) marshalReject(fam byte) ([]byte, error) {
	rejectType := rejectTypeICMPUnreach
	switch fam {
	case unix.NFPROTO_INET, unix.NFPROTO_BRIDGE:
		rejectType = rejectTypeICMPXUnreach
	}
	data, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NFTA_REJECT_TYPE, Data: binaryutil.BigEndian.PutUint32(rejectType)},
		{Type: unix.NFTA_REJECT_ICMP_CODE, Data: []byte{e.RejectCode}},
	})
	if err != nil {
		return nil, err
	}
	return exprBytes("reject", data)
}
