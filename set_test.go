package nftnl

import (
	"net"
	"testing"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/evilsocket/go-nftnl/binaryutil"
	"github.com/evilsocket/go-nftnl/expr"
)

func TestSetAddRejectsWrongKeyLength(t *testing.T) {
	s := NewSet(NewTable("t", ProtoInet), "hosts", 1, SetKeyTypeIPv4)
	defer func() {
		if recover() == nil {
			t.Fatal("adding a 16 byte key to an IPv4 set did not panic")
		}
	}()
	s.Add(expr.IPv6(net.ParseIP("2001:db8::1")))
}

func TestSetMessage(t *testing.T) {
	s := NewSet(NewTable("t", ProtoInet), "hosts", 7, SetKeyTypeIPv4).SetAnonymous()
	b, err := s.message(MsgAdd, 2)
	if err != nil {
		t.Fatal(err)
	}
	attrs, err := netlink.UnmarshalAttributes(b[nlmsgHdrLen+nfgenmsgLen:])
	if err != nil {
		t.Fatal(err)
	}
	byType := map[uint16][]byte{}
	for _, a := range attrs {
		byType[a.Type] = a.Data
	}
	if got, want := binaryutil.String(byType[unix.NFTA_SET_NAME]), "hosts"; got != want {
		t.Errorf("set name = %q, want %q", got, want)
	}
	if got, want := binaryutil.BigEndian.Uint32(byType[unix.NFTA_SET_ID]), uint32(7); got != want {
		t.Errorf("set id = %d, want %d", got, want)
	}
	flags := binaryutil.BigEndian.Uint32(byType[unix.NFTA_SET_FLAGS])
	if flags&unix.NFT_SET_ANONYMOUS == 0 || flags&unix.NFT_SET_CONSTANT == 0 {
		t.Errorf("anonymous set flags = %#x, want anonymous and constant", flags)
	}
	if got, want := binaryutil.BigEndian.Uint32(byType[unix.NFTA_SET_KEY_LEN]), uint32(4); got != want {
		t.Errorf("key len = %d, want %d", got, want)
	}
}

func TestSetElemsIterPacksWithinBudget(t *testing.T) {
	s := NewSet(NewTable("t", ProtoInet), "hosts", 1, SetKeyTypeIPv4)
	for i := 0; i < 100; i++ {
		s.Add(expr.U32(uint32(i)))
	}
	iter := s.ElemsIter(256)
	var msgs []*setElemsMsg
	total := 0
	for {
		m := iter.Yield()
		if m == nil {
			break
		}
		em := m.(*setElemsMsg)
		if len(em.elems) == 0 {
			t.Fatal("iterator yielded an empty message")
		}
		total += len(em.elems)
		msgs = append(msgs, em)
	}
	if total != 100 {
		t.Fatalf("iterator yielded %d elements, want 100", total)
	}
	if len(msgs) < 2 {
		t.Fatalf("100 elements under a 256 byte budget fit in %d message, want several", len(msgs))
	}
	for i, m := range msgs {
		b, err := m.message(MsgAdd, uint32(i+1))
		if err != nil {
			t.Fatalf("serializing element message: %v", err)
		}
		if len(b) > 256+nlmsgHdrLen+nfgenmsgLen+64 {
			t.Errorf("element message %d is %d bytes, far over budget", i, len(b))
		}
	}
}

func TestSetElemsIterYieldsOversizedElementAlone(t *testing.T) {
	s := NewSet(NewTable("t", ProtoInet), "hosts", 1, SetKeyTypeIPv6)
	s.Add(expr.IPv6(net.ParseIP("2001:db8::1")))
	s.Add(expr.IPv6(net.ParseIP("2001:db8::2")))
	iter := s.ElemsIter(8)
	var n int
	for iter.Yield() != nil {
		n++
	}
	if n != 2 {
		t.Fatalf("oversized elements yielded %d messages, want one each", n)
	}
}

func TestSetElemsMessageStructure(t *testing.T) {
	s := NewSet(NewTable("t", ProtoInet), "hosts", 1, SetKeyTypeIPv4)
	s.Add(expr.IPv4(net.ParseIP("192.0.2.1")))
	m := s.ElemsIter(DefaultPageSize).Yield()
	b, err := m.message(MsgAdd, 3)
	if err != nil {
		t.Fatal(err)
	}
	wantType := uint16(unix.NFNL_SUBSYS_NFTABLES)<<8 | unix.NFT_MSG_NEWSETELEM
	if got := binaryutil.NativeEndian.Uint16(b[4:6]); got != wantType {
		t.Fatalf("message type = %#x, want %#x", got, wantType)
	}
	attrs, err := netlink.UnmarshalAttributes(b[nlmsgHdrLen+nfgenmsgLen:])
	if err != nil {
		t.Fatal(err)
	}
	if got, want := binaryutil.String(attrs[1].Data), "hosts"; got != want {
		t.Errorf("element list set name = %q, want %q", got, want)
	}
	members, err := netlink.UnmarshalAttributes(attrs[2].Data)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 {
		t.Fatalf("element list has %d members, want 1", len(members))
	}
	elem, err := netlink.UnmarshalAttributes(members[0].Data)
	if err != nil {
		t.Fatal(err)
	}
	key, err := netlink.UnmarshalAttributes(elem[0].Data)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := key[0].Data, []byte{192, 0, 2, 1}; string(got) != string(want) {
		t.Errorf("element key = %x, want %x", got, want)
	}
}

func TestSetLookupExpr(t *testing.T) {
	s := NewSet(NewTable("t", ProtoInet), "blocklist", 9, SetKeyTypeIPv4)
	l := s.Lookup()
	if l.SetName != "blocklist" || l.SetID != 9 {
		t.Errorf("Lookup() = %+v, want name blocklist id 9", l)
	}
}

func TestBatchAddSetElems(t *testing.T) {
	s := NewSet(NewTable("t", ProtoInet), "hosts", 1, SetKeyTypeIPv4)
	for i := 0; i < 8; i++ {
		s.Add(expr.U32(uint32(i)))
	}
	b := NewBatch(WithAckFraming(true))
	if err := b.Add(s, MsgAdd); err != nil {
		t.Fatalf("adding set: %v", err)
	}
	if err := b.AddSetElems(s, MsgAdd); err != nil {
		t.Fatalf("adding set elements: %v", err)
	}
	frames := walkFrames(t, b.Finalize().Chunks())
	var sawElems bool
	for _, f := range frames {
		if f.typ == uint16(unix.NFNL_SUBSYS_NFTABLES)<<8|unix.NFT_MSG_NEWSETELEM {
			sawElems = true
		}
	}
	if !sawElems {
		t.Fatal("batch contains no set element message")
	}
}
