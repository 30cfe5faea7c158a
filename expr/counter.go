package expr

// Counter counts the packets and bytes that reach it. Both counters start
// at zero.
type Counter struct{}

func (e *Counter) marshal(fam byte) ([]byte, error) {
	return exprBytes("counter", nil)
}
