package expr

import "net"

// The functions below build comparison operands in the byte order the kernel
// expects for the corresponding payload fields. Multi-byte integer fields are
// serialized least significant byte first.

// U8 returns v as a one-byte comparison operand.
func U8(v uint8) []byte {
	return []byte{v}
}

// U16 returns v as a two-byte comparison operand.
func U16(v uint16) []byte {
	return []byte{byte(v), byte(v >> 8)}
}

// U32 returns v as a four-byte comparison operand.
func U32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// IPv4 returns ip as a four-byte comparison operand in network byte order.
// It returns nil if ip is not an IPv4 address.
func IPv4(ip net.IP) []byte {
	v4 := ip.To4()
	if v4 == nil {
		return nil
	}
	out := make([]byte, net.IPv4len)
	copy(out, v4)
	return out
}

// IPv6 returns ip as a sixteen-byte comparison operand in network byte order.
func IPv6(ip net.IP) []byte {
	out := make([]byte, net.IPv6len)
	copy(out, ip.To16())
	return out
}

// String returns s as a comparison operand without a trailing NUL.
func String(s string) []byte {
	return []byte(s)
}

// IfaceName returns name as a comparison operand for interface name meta
// fields. The kernel stores interface names NUL terminated, so an exact
// match must include the terminator.
func IfaceName(name string) []byte {
	return append([]byte(name), 0)
}

// IfacePrefix returns prefix as a comparison operand matching all interface
// names that start with prefix.
func IfacePrefix(prefix string) []byte {
	return []byte(prefix)
}
