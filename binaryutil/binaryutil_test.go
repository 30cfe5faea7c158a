package binaryutil

import (
	"bytes"
	"testing"
)

func TestBigEndian(t *testing.T) {
	if got, want := BigEndian.PutUint16(0x1234), []byte{0x12, 0x34}; !bytes.Equal(got, want) {
		t.Errorf("PutUint16(0x1234) = %x, want %x", got, want)
	}
	if got, want := BigEndian.PutUint32(0x12345678), []byte{0x12, 0x34, 0x56, 0x78}; !bytes.Equal(got, want) {
		t.Errorf("PutUint32(0x12345678) = %x, want %x", got, want)
	}
	if got, want := BigEndian.Uint32([]byte{0x12, 0x34, 0x56, 0x78}), uint32(0x12345678); got != want {
		t.Errorf("Uint32 = %x, want %x", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, bo := range []ByteOrder{NativeEndian, BigEndian, LittleEndian} {
		if got, want := bo.Uint16(bo.PutUint16(0xcafe)), uint16(0xcafe); got != want {
			t.Errorf("Uint16 round trip = %x, want %x", got, want)
		}
		if got, want := bo.Uint32(bo.PutUint32(0xdeadbeef)), uint32(0xdeadbeef); got != want {
			t.Errorf("Uint32 round trip = %x, want %x", got, want)
		}
		if got, want := bo.Uint64(bo.PutUint64(0xdeadbeefcafebabe)), uint64(0xdeadbeefcafebabe); got != want {
			t.Errorf("Uint64 round trip = %x, want %x", got, want)
		}
	}
}

func TestInt32(t *testing.T) {
	if got, want := Int32(PutInt32(-300)), int32(-300); got != want {
		t.Errorf("Int32 round trip = %d, want %d", got, want)
	}
}

func TestString(t *testing.T) {
	if got, want := String([]byte{'e', 't', 'h', '0', 0, 0}), "eth0"; got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}
