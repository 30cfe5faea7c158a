package nftnl

import (
	"fmt"

	"github.com/mdlayher/netlink"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/evilsocket/go-nftnl/binaryutil"
)

// Conn is a netfilter netlink socket for submitting batches and querying
// the kernel's table state.
type Conn struct {
	nl *netlink.Conn
}

// ConnOption configures a Conn.
type ConnOption func(*netlink.Config)

// WithNetNSFd opens the socket inside the network namespace identified by
// the given file descriptor.
func WithNetNSFd(fd int) ConnOption {
	return func(cfg *netlink.Config) {
		cfg.NetNS = fd
	}
}

// Dial opens a netfilter netlink socket.
func Dial(opts ...ConnOption) (*Conn, error) {
	cfg := &netlink.Config{}
	for _, o := range opts {
		o(cfg)
	}
	nl, err := netlink.Dial(unix.NETLINK_NETFILTER, cfg)
	if err != nil {
		return nil, fmt.Errorf("dialing netfilter socket: %w", err)
	}
	return &Conn{nl: nl}, nil
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	return c.nl.Close()
}

// sendChunks writes all chunks to the socket in one scatter-gather call.
func (c *Conn) sendChunks(chunks [][]byte) error {
	rc, err := c.nl.SyscallConn()
	if err != nil {
		return err
	}
	var werr error
	err = rc.Write(func(fd uintptr) bool {
		_, werr = unix.Writev(int(fd), chunks)
		return true
	})
	if err != nil {
		return err
	}
	return werr
}

// reply is one decoded kernel reply header. For NLMSG_ERROR replies, errno
// holds the raw (negated) error code from the payload; zero means a plain
// acknowledgment.
type reply struct {
	typ   uint16
	seq   uint32
	errno int32
}

// classify validates the reply against the expected sequence number and
// returns the kernel's verdict for it.
func (r reply) classify(seq uint32) error {
	if r.seq != seq {
		return fmt.Errorf("reply for sequence %d, expected %d", r.seq, seq)
	}
	if r.typ != unix.NLMSG_ERROR {
		return fmt.Errorf("unexpected reply type %d", r.typ)
	}
	if r.errno != 0 {
		return unix.Errno(-r.errno)
	}
	return nil
}

// parseReplies walks one received datagram and decodes every netlink
// message header in it, keeping kernel NACKs intact instead of turning
// them into transport errors, so callers can correlate them by sequence
// number.
func parseReplies(b []byte) ([]reply, error) {
	var replies []reply
	for len(b) > 0 {
		if len(b) < nlmsgHdrLen {
			return nil, fmt.Errorf("truncated reply of %d bytes", len(b))
		}
		length := binaryutil.NativeEndian.Uint32(b[0:4])
		if length < nlmsgHdrLen || length > uint32(len(b)) {
			return nil, fmt.Errorf("reply length %d out of bounds for %d byte datagram", length, len(b))
		}
		r := reply{
			typ: binaryutil.NativeEndian.Uint16(b[4:6]),
			seq: binaryutil.NativeEndian.Uint32(b[8:12]),
		}
		if r.typ == unix.NLMSG_ERROR {
			if length < nlmsgHdrLen+4 {
				return nil, fmt.Errorf("error reply of %d bytes is too short", length)
			}
			r.errno = binaryutil.Int32(b[nlmsgHdrLen : nlmsgHdrLen+4])
		}
		replies = append(replies, r)
		adv := nlmsgAlign(length)
		if adv > uint32(len(b)) {
			adv = uint32(len(b))
		}
		b = b[adv:]
	}
	return replies, nil
}

// receiveReplies reads one datagram from the socket and decodes the reply
// headers in it.
func (c *Conn) receiveReplies() ([]reply, error) {
	rc, err := c.nl.SyscallConn()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, maxMsgSize)
	var (
		n    int
		rerr error
	)
	err = rc.Read(func(fd uintptr) bool {
		n, _, rerr = unix.Recvfrom(int(fd), buf, 0)
		return rerr != unix.EAGAIN
	})
	if err != nil {
		return nil, err
	}
	if rerr != nil {
		return nil, rerr
	}
	return parseReplies(buf[:n])
}

// SendBatch submits a finalized batch and waits for one acknowledgment per
// sequence number in the batch. The first kernel error aborts the wait; the
// kernel has already rolled the transaction back by the time it reports one.
func (c *Conn) SendBatch(fb *FinalizedBatch) error {
	if err := c.sendChunks(fb.Chunks()); err != nil {
		return fmt.Errorf("sending batch: %w", err)
	}
	expected := fb.SequenceNumbers()
	log.WithField("acks", len(expected)).Trace("conn: awaiting batch acknowledgments")
	var pending []reply
	for _, seq := range expected {
		if len(pending) == 0 {
			replies, err := c.receiveReplies()
			if err != nil {
				return fmt.Errorf("receiving acknowledgment for sequence %d: %w", seq, err)
			}
			pending = replies
		}
		r := pending[0]
		pending = pending[1:]
		if err := r.classify(seq); err != nil {
			return fmt.Errorf("batch message %d rejected: %w", seq, err)
		}
	}
	return nil
}

// Sequence numbers of the throwaway batch sent by BatchSupported.
const (
	probeBeginSeq = 1
	probeSetSeq   = 2
	probeEndSeq   = 3
)

// batchSupported classifies the probe's replies. A kernel that rejects the
// framing messages themselves does not understand batching. The probe's
// bare set message is malformed on purpose and every kernel NACKs it; a
// NACK carrying its sequence number means the framing around it was
// understood and only the set was rejected.
func batchSupported(replies []reply) bool {
	for _, r := range replies {
		if r.typ != unix.NLMSG_ERROR || r.errno == 0 {
			continue
		}
		if r.seq == probeBeginSeq || r.seq == probeEndSeq {
			return false
		}
	}
	return true
}

// BatchSupported probes whether the kernel accepts nf_tables batch
// transactions. It submits a throwaway batch holding a bare set message
// and correlates the kernel's error replies by sequence number.
func (c *Conn) BatchSupported() (bool, error) {
	begin := netlinkMessage(unix.NFNL_MSG_BATCH_BEGIN, netlink.Request, probeBeginSeq, ProtoUnspec, unix.NFNL_SUBSYS_NFTABLES, nil)
	probe := objectMessage(unix.NFT_MSG_NEWSET, netlink.Request|netlink.Acknowledge, probeSetSeq, ProtoIPv4, nil)
	end := netlinkMessage(unix.NFNL_MSG_BATCH_END, netlink.Request, probeEndSeq, ProtoUnspec, unix.NFNL_SUBSYS_NFTABLES, nil)
	payload := append(append(begin, probe...), end...)
	if err := c.sendChunks([][]byte{payload}); err != nil {
		return false, fmt.Errorf("sending probe: %w", err)
	}
	replies, err := c.receiveReplies()
	if err != nil {
		return false, fmt.Errorf("receiving probe reply: %w", err)
	}
	return batchSupported(replies), nil
}

// ListTables returns the tables of the given family. ProtoUnspec lists
// every family.
func (c *Conn) ListTables(family ProtoFamily) ([]*Table, error) {
	if err := c.sendChunks([][]byte{tableListRequest(family, 1)}); err != nil {
		return nil, fmt.Errorf("sending table dump request: %w", err)
	}
	var tables []*Table
	for {
		msgs, err := c.nl.Receive()
		if err != nil {
			return nil, fmt.Errorf("receiving table dump: %w", err)
		}
		for _, msg := range msgs {
			switch msg.Header.Type {
			case netlink.Done, netlink.Error:
				return tables, nil
			}
			t, err := unmarshalTable(msg)
			if err != nil {
				return nil, err
			}
			tables = append(tables, t)
		}
	}
}

// unmarshalTable decodes one NFT_MSG_NEWTABLE dump reply.
func unmarshalTable(msg netlink.Message) (*Table, error) {
	if len(msg.Data) < nfgenmsgLen {
		return nil, fmt.Errorf("table dump reply of %d bytes is too short", len(msg.Data))
	}
	fam := ProtoFamily(msg.Data[0])
	attrs, err := netlink.UnmarshalAttributes(msg.Data[nfgenmsgLen:])
	if err != nil {
		return nil, fmt.Errorf("decoding table attributes: %w", err)
	}
	t := &Table{family: fam}
	for _, attr := range attrs {
		if attr.Type == unix.NFTA_TABLE_NAME {
			t.name = binaryutil.String(attr.Data)
		}
	}
	return t, nil
}
