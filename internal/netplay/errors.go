package netplay

import (
	"errors"
	"fmt"

	"github.com/dmksnnk/skirmish/internal/errcode"
)

// Errors recorded by [Manager] and returned from [Manager.LastError].
// Recorded errors wrap one of these together with the underlying cause.
var (
	ErrBind           = errors.New("failed to start server")
	ErrAccept         = errors.New("error accepting connections")
	ErrTimedOut       = errors.New("connection timed out, check if the host is online and on the same network")
	ErrRefused        = errors.New("connection refused, check if the host is online and on the same network")
	ErrJoin           = errors.New("error joining game")
	ErrConnectionLost = errors.New("connection lost")
	ErrBusy           = errors.New("session already active, disconnect first")
)

// classifyJoinError maps a dial error to one of the join failure kinds.
func classifyJoinError(err error) error {
	switch {
	case errcode.IsRefused(err):
		return fmt.Errorf("%w: %w", ErrRefused, err)
	case errcode.IsTimeout(err):
		return fmt.Errorf("%w: %w", ErrTimedOut, err)
	default:
		return fmt.Errorf("%w: %w", ErrJoin, err)
	}
}
