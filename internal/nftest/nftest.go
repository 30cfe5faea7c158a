// Package nftest provides helpers for tests that talk to a real kernel.
package nftest

import (
	"os"
	"runtime"
	"testing"

	"github.com/vishvananda/netns"

	"github.com/evilsocket/go-nftnl"
)

// SkipIfNotPrivileged skips the calling test unless privileged tests were
// requested. Creating network namespaces needs root or CAP_SYS_ADMIN, which
// restricted environments such as containers may not grant.
func SkipIfNotPrivileged(t *testing.T) {
	if os.Getenv("PRIVILEGED_TESTS") == "" {
		t.Skip("Set PRIVILEGED_TESTS to 1 and run as root to launch these tests.")
	}
}

// OpenSystemConn opens a netfilter connection inside a fresh network
// namespace, so the test cannot disturb the host's tables.
func OpenSystemConn(t *testing.T) (*nftnl.Conn, netns.NsHandle) {
	t.Helper()
	// Namespace operations are thread-local, so the goroutine must stay on
	// this thread until CleanupSystemConn undoes the lock.
	runtime.LockOSThread()

	ns, err := netns.New()
	if err != nil {
		t.Fatalf("netns.New() failed: %v", err)
	}
	c, err := nftnl.Dial(nftnl.WithNetNSFd(int(ns)))
	if err != nil {
		t.Fatalf("nftnl.Dial() failed: %v", err)
	}
	return c, ns
}

// CleanupSystemConn closes the namespace opened by OpenSystemConn.
func CleanupSystemConn(t *testing.T, ns netns.NsHandle) {
	defer runtime.UnlockOSThread()

	if err := ns.Close(); err != nil {
		t.Fatalf("closing namespace: %v", err)
	}
}
