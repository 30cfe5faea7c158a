package nftnl_test

import (
	"testing"

	"github.com/evilsocket/go-nftnl"
	"github.com/evilsocket/go-nftnl/expr"
	"github.com/evilsocket/go-nftnl/internal/nftest"
)

// TestSendBatchSystem commits a table, chain and rule to a real kernel
// inside a throwaway namespace and reads the table back.
func TestSendBatchSystem(t *testing.T) {
	nftest.SkipIfNotPrivileged(t)
	c, ns := nftest.OpenSystemConn(t)
	defer nftest.CleanupSystemConn(t, ns)
	defer c.Close()

	tbl := nftnl.NewTable("go-nftnl-test", nftnl.ProtoInet)
	ch := nftnl.NewChain(tbl, "input").
		SetType(nftnl.ChainTypeFilter).
		SetHook(nftnl.HookIn).
		SetPriority(nftnl.PriorityFilter).
		SetPolicy(nftnl.PolicyAccept)
	rule := nftnl.NewRule(ch).
		AddExpr(&expr.Meta{Key: expr.MetaKeyL4Proto}).
		AddExpr(&expr.Cmp{Op: expr.CmpOpEq, Data: expr.U8(6)}).
		AddExpr(&expr.Counter{}).
		AddExpr(&expr.Verdict{Kind: expr.VerdictAccept})

	b := nftnl.NewBatch()
	for _, msg := range []nftnl.Msg{tbl, ch, rule} {
		if err := b.Add(msg, nftnl.MsgAdd); err != nil {
			t.Fatalf("adding message: %v", err)
		}
	}
	if err := c.SendBatch(b.Finalize()); err != nil {
		t.Fatalf("sending batch: %v", err)
	}

	tables, err := c.ListTables(nftnl.ProtoInet)
	if err != nil {
		t.Fatalf("listing tables: %v", err)
	}
	for _, got := range tables {
		if got.Name() == tbl.Name() {
			return
		}
	}
	t.Fatalf("table %q not found after commit", tbl.Name())
}

func TestBatchSupportedSystem(t *testing.T) {
	nftest.SkipIfNotPrivileged(t)
	c, ns := nftest.OpenSystemConn(t)
	defer nftest.CleanupSystemConn(t, ns)
	defer c.Close()

	ok, err := c.BatchSupported()
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if !ok {
		t.Fatal("current kernels are expected to support batching")
	}
}
