// Package errcode classifies socket errors returned by the operating system
// into the few kinds the game cares about.
package errcode

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// IsTimeout returns true if the error is a dial or I/O timeout,
// including an expired context deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// IsRefused returns true if the remote side actively refused the connection.
func IsRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

// IsClosed returns true if the error is caused by closing the connection,
// either locally or by the remote side.
func IsClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// IsLocalClosed returns true if the connection was closed on our side.
func IsLocalClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
