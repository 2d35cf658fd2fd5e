//go:build unix

package peer

import (
	"os/signal"
	"syscall"
)

// controlReuseAddr sets SO_REUSEADDR on the listening socket before bind,
// so a restarted node can rebind its port immediately instead of waiting
// out the previous socket's TIME_WAIT.
func controlReuseAddr(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// ignoreBrokenPipe globally ignores SIGPIPE so that writes to a peer that
// has closed its end fail with an EPIPE error return instead of
// terminating the process.
func ignoreBrokenPipe() {
	signal.Ignore(syscall.SIGPIPE)
}
