package expr

// Masq rewrites the packet's source address to the outgoing interface's
// address, like SNAT but without a fixed replacement address.
type Masq struct{}

func (e *Masq) marshal(fam byte) ([]byte, error) {
	return exprBytes("masq", nil)
}
