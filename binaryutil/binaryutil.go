// Package binaryutil contains convenience wrappers around encoding/binary.
package binaryutil

import (
	"bytes"
	"encoding/binary"

	"github.com/josharian/native"
)

// ByteOrder is like binary.ByteOrder, but allocates memory and returns byte
// slices, for convenience.
type ByteOrder interface {
	PutUint16(v uint16) []byte
	PutUint32(v uint32) []byte
	PutUint64(v uint64) []byte
	Uint16(b []byte) uint16
	Uint32(b []byte) uint32
	Uint64(b []byte) uint64
}

// NativeEndian is either little endian or big endian, depending on the native
// endian-ness. Netlink message headers are encoded in host byte order.
var NativeEndian ByteOrder = order{native.Endian}

// BigEndian is like binary.BigEndian, but allocates memory and returns byte
// slices, for convenience. Netlink attribute values use big endian.
var BigEndian ByteOrder = order{binary.BigEndian}

// LittleEndian is like binary.LittleEndian, but allocates memory and returns
// byte slices, for convenience.
var LittleEndian ByteOrder = order{binary.LittleEndian}

type order struct {
	bo binary.ByteOrder
}

func (o order) PutUint16(v uint16) []byte {
	buf := make([]byte, 2)
	o.bo.PutUint16(buf, v)
	return buf
}

func (o order) PutUint32(v uint32) []byte {
	buf := make([]byte, 4)
	o.bo.PutUint32(buf, v)
	return buf
}

func (o order) PutUint64(v uint64) []byte {
	buf := make([]byte, 8)
	o.bo.PutUint64(buf, v)
	return buf
}

func (o order) Uint16(b []byte) uint16 {
	return o.bo.Uint16(b)
}

func (o order) Uint32(b []byte) uint32 {
	return o.bo.Uint32(b)
}

func (o order) Uint64(b []byte) uint64 {
	return o.bo.Uint64(b)
}

// For dealing with types not supported by the encoding/binary interface.

func PutInt32(v int32) []byte {
	return NativeEndian.PutUint32(uint32(v))
}

func Int32(b []byte) int32 {
	return int32(NativeEndian.Uint32(b))
}

func PutString(s string) []byte {
	return []byte(s)
}

func String(b []byte) string {
	return string(bytes.TrimRight(b, "\x00"))
}
