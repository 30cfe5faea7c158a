package nftnl

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/evilsocket/go-nftnl/binaryutil"
	"github.com/evilsocket/go-nftnl/expr"
)

// frame is a decoded netlink message header plus the nfgenmsg family byte.
type frame struct {
	length uint32
	typ    uint16
	flags  netlink.HeaderFlags
	seq    uint32
	family ProtoFamily
}

// walkFrames decodes every netlink frame in the given chunks, in order.
func walkFrames(t *testing.T, chunks [][]byte) []frame {
	t.Helper()
	var frames []frame
	for _, chunk := range chunks {
		for len(chunk) > 0 {
			if len(chunk) < nlmsgHdrLen+nfgenmsgLen {
				t.Fatalf("truncated frame of %d bytes", len(chunk))
			}
			f := frame{
				length: binaryutil.NativeEndian.Uint32(chunk[0:4]),
				typ:    binaryutil.NativeEndian.Uint16(chunk[4:6]),
				flags:  netlink.HeaderFlags(binaryutil.NativeEndian.Uint16(chunk[6:8])),
				seq:    binaryutil.NativeEndian.Uint32(chunk[8:12]),
				family: ProtoFamily(chunk[16]),
			}
			if f.length < nlmsgHdrLen || nlmsgAlign(f.length) > uint32(len(chunk)) {
				t.Fatalf("frame length %d out of bounds for chunk of %d bytes", f.length, len(chunk))
			}
			frames = append(frames, f)
			chunk = chunk[nlmsgAlign(f.length):]
		}
	}
	return frames
}

func addTables(t *testing.T, b *Batch, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := b.Add(NewTable("t", ProtoInet), MsgAdd); err != nil {
			t.Fatalf("adding table: %v", err)
		}
	}
}

func TestBatchSequencingWithAckFraming(t *testing.T) {
	b := NewBatch(WithAckFraming(true))
	addTables(t, b, 3)
	fb := b.Finalize()

	if diff := cmp.Diff([]uint32{1, 2, 3, 4, 5}, fb.SequenceNumbers()); diff != "" {
		t.Errorf("sequence numbers mismatch (-want +got):\n%s", diff)
	}
	frames := walkFrames(t, fb.Chunks())
	if len(frames) != 5 {
		t.Fatalf("batch has %d frames, want 5", len(frames))
	}
	begin, end := frames[0], frames[4]
	if begin.typ != unix.NFNL_MSG_BATCH_BEGIN || begin.seq != 1 {
		t.Errorf("begin frame type %#x seq %d, want %#x seq 1", begin.typ, begin.seq, unix.NFNL_MSG_BATCH_BEGIN)
	}
	if begin.flags&netlink.Acknowledge == 0 {
		t.Error("begin frame does not request an acknowledgment")
	}
	if end.typ != unix.NFNL_MSG_BATCH_END || end.seq != 5 {
		t.Errorf("end frame type %#x seq %d, want %#x seq 5", end.typ, end.seq, unix.NFNL_MSG_BATCH_END)
	}
}

func TestBatchSequencingWithoutAckFraming(t *testing.T) {
	b := NewBatch(WithAckFraming(false))
	addTables(t, b, 3)
	fb := b.Finalize()

	if diff := cmp.Diff([]uint32{1, 2, 3}, fb.SequenceNumbers()); diff != "" {
		t.Errorf("sequence numbers mismatch (-want +got):\n%s", diff)
	}
	frames := walkFrames(t, fb.Chunks())
	if len(frames) != 5 {
		t.Fatalf("batch has %d frames, want 5", len(frames))
	}
	begin, end := frames[0], frames[4]
	if begin.seq != 0 || end.seq != 0 {
		t.Errorf("framing seqs = %d, %d, want 0, 0", begin.seq, end.seq)
	}
	if begin.flags&netlink.Acknowledge != 0 {
		t.Error("begin frame requests an acknowledgment on a kernel that ignores it")
	}
	for i, want := range []uint32{1, 2, 3} {
		if got := frames[i+1].seq; got != want {
			t.Errorf("object frame %d seq = %d, want %d", i, got, want)
		}
	}
}

func TestBatchPaging(t *testing.T) {
	const pageSize = 128
	b := NewBatch(WithAckFraming(true), WithPageSize(pageSize))
	addTables(t, b, 10)
	fb := b.Finalize()

	chunks := fb.Chunks()
	if len(chunks) < 2 {
		t.Fatalf("10 messages in %d byte pages produced %d chunks, want several", pageSize, len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > pageSize {
			t.Errorf("chunk %d is %d bytes, exceeds page size %d", i, len(chunk), pageSize)
		}
	}
	frames := walkFrames(t, chunks)
	if len(frames) != 12 {
		t.Fatalf("batch has %d frames, want 12", len(frames))
	}
	var prev uint32
	for _, f := range frames {
		if f.seq < prev {
			t.Fatalf("sequence numbers not monotonic: %d after %d", f.seq, prev)
		}
		prev = f.seq
	}
}

func TestBatchAddAfterFinalizePanics(t *testing.T) {
	b := NewBatch(WithAckFraming(true))
	b.Finalize()
	defer func() {
		if recover() == nil {
			t.Fatal("add after finalize did not panic")
		}
	}()
	b.Add(NewTable("t", ProtoInet), MsgAdd)
}

func TestBatchFinalizeTwicePanics(t *testing.T) {
	b := NewBatch(WithAckFraming(true))
	b.Finalize()
	defer func() {
		if recover() == nil {
			t.Fatal("second finalize did not panic")
		}
	}()
	b.Finalize()
}

func TestWithPageSizeTooSmallPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("undersized page did not panic")
		}
	}()
	WithPageSize(8)
}

func TestWithPageSizeOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("overflowing page size did not panic")
		}
	}()
	WithPageSize(math.MaxUint32)
}

func TestBatchPropagatesMessageErrors(t *testing.T) {
	b := NewBatch(WithAckFraming(true))
	broken := NewChain(NewTable("t", ProtoInet), "c").SetHook(HookIn).SetPriority(PriorityFilter)
	if err := b.Add(broken, MsgAdd); err == nil {
		t.Fatal("adding an invalid base chain did not error")
	}
}

func TestEndToEndScenario(t *testing.T) {
	tbl := NewTable("t", ProtoInet)
	ch := NewChain(tbl, "out").
		SetType(ChainTypeFilter).
		SetHook(HookOut).
		SetPriority(PriorityValue(0)).
		SetPolicy(PolicyAccept)
	rule := NewRule(ch).
		AddExpr(&expr.Meta{Key: expr.MetaKeyL4Proto}).
		AddExpr(&expr.Cmp{Op: expr.CmpOpEq, Data: expr.U8(unix.IPPROTO_TCP)}).
		AddExpr(&expr.Counter{}).
		AddExpr(&expr.Verdict{Kind: expr.VerdictAccept})

	b := NewBatch(WithAckFraming(true))
	for _, msg := range []Msg{tbl, ch, rule} {
		if err := b.Add(msg, MsgAdd); err != nil {
			t.Fatalf("adding message: %v", err)
		}
	}
	frames := walkFrames(t, b.Finalize().Chunks())

	if len(frames) != 5 {
		t.Fatalf("batch has %d frames, want 5", len(frames))
	}
	if frames[0].typ != unix.NFNL_MSG_BATCH_BEGIN {
		t.Errorf("first frame type = %#x, want batch begin", frames[0].typ)
	}
	if frames[4].typ != unix.NFNL_MSG_BATCH_END {
		t.Errorf("last frame type = %#x, want batch end", frames[4].typ)
	}
	wantTypes := []uint16{
		uint16(unix.NFNL_SUBSYS_NFTABLES)<<8 | unix.NFT_MSG_NEWTABLE,
		uint16(unix.NFNL_SUBSYS_NFTABLES)<<8 | unix.NFT_MSG_NEWCHAIN,
		uint16(unix.NFNL_SUBSYS_NFTABLES)<<8 | unix.NFT_MSG_NEWRULE,
	}
	var prevSeq uint32
	for i, want := range wantTypes {
		f := frames[i+1]
		if f.typ != want {
			t.Errorf("object frame %d type = %#x, want %#x", i, f.typ, want)
		}
		if f.family != ProtoInet {
			t.Errorf("object frame %d family = %d, want %d", i, f.family, ProtoInet)
		}
		if f.seq <= prevSeq {
			t.Errorf("object frame %d seq = %d, not increasing past %d", i, f.seq, prevSeq)
		}
		prevSeq = f.seq
	}
}
