// Package expr provides nftables rule expressions.
package expr

import (
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

// Register is an nftables register. Expressions read their operands from and
// write their results to registers. The verdict register holds a rule verdict
// instead of data.
type Register uint32

const (
	// RegVerdict is the verdict register.
	RegVerdict Register = unix.NFT_REG_VERDICT
	Reg1       Register = unix.NFT_REG_1
	Reg2       Register = unix.NFT_REG_2
	Reg3       Register = unix.NFT_REG_3
	Reg4       Register = unix.NFT_REG_4
)

// Any is an interface for any expression.
type Any interface {
	marshal(fam byte) ([]byte, error)
}

// Marshal serializes the specified expression into a netlink attribute tree
// for inclusion in a rule, for the given table family.
func Marshal(fam byte, e Any) ([]byte, error) {
	return e.marshal(fam)
}

// exprBytes wraps the serialized payload of an expression with its name,
// building the NFTA_LIST_ELEM body shared by all expression kinds.
func exprBytes(name string, data []byte) ([]byte, error) {
	return netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.NFTA_EXPR_NAME, Data: []byte(name + "\x00")},
		{Type: unix.NLA_F_NESTED | unix.NFTA_EXPR_DATA, Data: data},
	})
}
