//go:build !unix

package peer

import "syscall"

// controlReuseAddr is a no-op on non-unix platforms; SO_REUSEADDR has no
// standard equivalent meaning on Windows (where SO_REUSEADDR already
// behaves permissively by default).
func controlReuseAddr(_, _ string, _ syscall.RawConn) error {
	return nil
}

// ignoreBrokenPipe is a no-op on non-unix platforms; there is no SIGPIPE.
func ignoreBrokenPipe() {}
