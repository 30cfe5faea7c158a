//go:build nftnldebug

package nftnl

const debugChecks = true
