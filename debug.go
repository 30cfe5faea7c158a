//go:build !nftnldebug

package nftnl

// debugChecks enables panics on conditions that are tolerated in production
// builds. Enabled with the nftnldebug build tag.
const debugChecks = false
