package nftnl

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Kernels from 6.10 on acknowledge the batch begin and end framing messages
// themselves when NLM_F_ACK is set on them. Requesting those acks on older
// kernels would desynchronize the ack stream, so the flag is only set after
// probing the running kernel once.
var ackFraming struct {
	once      sync.Once
	supported bool
}

// AckFramingMessages reports whether the running kernel acknowledges batch
// framing messages. The kernel version is probed once and cached.
func AckFramingMessages() bool {
	ackFraming.once.Do(func() {
		ackFraming.supported = probeAckFraming()
	})
	return ackFraming.supported
}

func probeAckFraming() bool {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		if debugChecks {
			panic(fmt.Sprintf("uname: %v", err))
		}
		log.WithError(err).Debug("uname failed, assuming current kernel")
		return true
	}
	release := unix.ByteSliceToString(uts.Release[:])
	major, minor, err := parseKernelRelease(release)
	if err != nil {
		if debugChecks {
			panic(fmt.Sprintf("unparsable kernel release %q: %v", release, err))
		}
		log.WithField("release", release).Debug("unparsable kernel release, assuming current kernel")
		return true
	}
	return major > 6 || (major == 6 && minor >= 10)
}

// parseKernelRelease extracts the major and minor version from a kernel
// release string such as "6.10.4-arch1-1".
func parseKernelRelease(release string) (major, minor int, err error) {
	parts := strings.SplitN(release, ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("release %q has no minor version", release)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("major version of %q: %v", release, err)
	}
	// The minor component may carry a non-numeric suffix, as in "6.10-rc3".
	minorStr := parts[1]
	if i := strings.IndexFunc(minorStr, func(r rune) bool { return r < '0' || r > '9' }); i != -1 {
		minorStr = minorStr[:i]
	}
	minor, err = strconv.Atoi(minorStr)
	if err != nil {
		return 0, 0, fmt.Errorf("minor version of %q: %v", release, err)
	}
	return major, minor, nil
}
