package nftnl

import (
	"fmt"
	"math"

	"github.com/mdlayher/netlink"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Batch collects nf_tables messages into one atomic transaction. Messages
// are framed into pages suitable for scatter-gather submission; the kernel
// applies either all of the batch or none of it.
//
// A batch is not safe for concurrent use.
type Batch struct {
	pageSize   uint32
	ackFraming bool

	pages     [][]byte
	page      []byte
	seq       uint32
	finalized bool
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithPageSize overrides the default page size. Pages must at least hold
// the batch framing messages and must leave room for a maximum-sized
// message without overflowing; violating either is a programming error and
// panics.
func WithPageSize(size uint32) BatchOption {
	if size < 2*(nlmsgHdrLen+nfgenmsgLen) {
		panic(fmt.Sprintf("batch page size %d cannot hold the framing messages", size))
	}
	if size > math.MaxUint32-maxMsgSize {
		panic(fmt.Sprintf("batch page size %d overflows when combined with the maximum message size", size))
	}
	return func(b *Batch) {
		b.pageSize = size
	}
}

// WithAckFraming overrides the kernel probe for acknowledgment of the batch
// framing messages. Useful for talking to a kernel other than the one the
// process runs under.
func WithAckFraming(ack bool) BatchOption {
	return func(b *Batch) {
		b.ackFraming = ack
	}
}

// NewBatch returns a batch with the begin framing message already written.
// Sequence numbers start at 1.
func NewBatch(opts ...BatchOption) *Batch {
	b := &Batch{
		pageSize:   DefaultPageSize,
		ackFraming: AckFramingMessages(),
	}
	for _, o := range opts {
		o(b)
	}
	b.seq = 1
	b.writeFraming(unix.NFNL_MSG_BATCH_BEGIN)
	return b
}

// writeFraming appends a batch begin or end message. When the kernel
// acknowledges framing messages, they request an acknowledgment and consume
// a sequence number like object messages do. On older kernels they carry
// sequence number 0 and are invisible to ack correlation.
func (b *Batch) writeFraming(msgType uint16) {
	flags := netlink.Request
	seq := uint32(0)
	if b.ackFraming {
		flags |= netlink.Acknowledge
		seq = b.seq
		b.seq++
	}
	frame := netlinkMessage(msgType, flags, seq, ProtoUnspec, unix.NFNL_SUBSYS_NFTABLES, nil)
	b.append(frame)
}

// append adds a serialized frame to the current page, sealing the page
// first when the frame would not fit.
func (b *Batch) append(frame []byte) {
	if len(b.page) > 0 && uint32(len(b.page)+len(frame)) > b.pageSize {
		b.pages = append(b.pages, b.page)
		b.page = nil
	}
	b.page = append(b.page, frame...)
}

// Add serializes msg as an op and appends it to the batch.
func (b *Batch) Add(msg Msg, op MsgType) error {
	if b.finalized {
		panic("batch: add after finalize")
	}
	frame, err := msg.message(op, b.seq)
	if err != nil {
		return err
	}
	if uint32(len(frame)) > maxMsgSize {
		return fmt.Errorf("message of %d bytes exceeds the maximum message size", len(frame))
	}
	log.WithFields(log.Fields{
		"seq":   b.seq,
		"bytes": len(frame),
	}).Trace("batch: appended message")
	b.seq++
	b.append(frame)
	return nil
}

// AddSetElems appends the elements of set to the batch, split across as
// many element list messages as the page size requires.
func (b *Batch) AddSetElems(set *Set, op MsgType) error {
	iter := set.ElemsIter(b.pageSize / 2)
	for {
		msg := iter.Yield()
		if msg == nil {
			return nil
		}
		if err := b.Add(msg, op); err != nil {
			return err
		}
	}
}

// Finalize writes the end framing message and seals the batch. The batch
// must not be used afterwards; further adds panic.
func (b *Batch) Finalize() *FinalizedBatch {
	if b.finalized {
		panic("batch: finalize called twice")
	}
	b.writeFraming(unix.NFNL_MSG_BATCH_END)
	b.finalized = true
	if len(b.page) > 0 {
		b.pages = append(b.pages, b.page)
		b.page = nil
	}
	// Every consumed sequence number expects one acknowledgment. The
	// framing messages only consumed one when the kernel acks them.
	seqs := make([]uint32, 0, b.seq-1)
	for s := uint32(1); s < b.seq; s++ {
		seqs = append(seqs, s)
	}
	log.WithFields(log.Fields{
		"pages": len(b.pages),
		"acks":  len(seqs),
	}).Debug("batch: finalized")
	return &FinalizedBatch{pages: b.pages, ackSeqs: seqs}
}

// FinalizedBatch is a sealed batch ready for submission.
type FinalizedBatch struct {
	pages   [][]byte
	ackSeqs []uint32
}

// Chunks returns the batch's pages in submission order. The returned slices
// alias the batch's internal buffers and must not be modified.
func (fb *FinalizedBatch) Chunks() [][]byte {
	return fb.pages
}

// SequenceNumbers returns the sequence numbers the kernel will acknowledge,
// in ascending order.
func (fb *FinalizedBatch) SequenceNumbers() []uint32 {
	return fb.ackSeqs
}
