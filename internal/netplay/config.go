package netplay

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/dmksnnk/skirmish/internal/platform"
	"github.com/dmksnnk/skirmish/internal/session"
	"golang.org/x/time/rate"
)

// DefaultPort is the port a game is hosted on unless told otherwise.
const DefaultPort = 5555

const (
	defaultJoinTimeout  = 5 * time.Second
	defaultWriteTimeout = time.Second
)

// Dialer opens outgoing connections. [net.Dialer] satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Listener opens the hosting socket. [platform.AllInterfacesListener] satisfies it.
type Listener interface {
	ListenTCP(ctx context.Context, port int) (net.Listener, error)
}

// CodeGenerator produces session codes. [session.Generator] satisfies it.
type CodeGenerator interface {
	Generate() session.Code
}

type Config struct {
	// Logger specifies an optional logger.
	// If nil, [slog.Default] will be used.
	Logger *slog.Logger
	// Port is used by Host when called with port 0, and by Join when the address has no port.
	// If zero, [DefaultPort] is used.
	Port int
	// JoinTimeout bounds connecting to a host.
	// If zero, 5 seconds is used.
	JoinTimeout time.Duration
	// WriteTimeout bounds writing a single snapshot.
	// If zero, 1 second is used. Negative disables the deadline.
	WriteTimeout time.Duration
	// ProbeAddr is the address used to detect the local IP for [Manager.ConnectionInfo].
	// If empty, [platform.DefaultProbeAddr] is used.
	ProbeAddr string
	// MaxSendRate limits outgoing snapshots per second.
	// Snapshots above the rate are dropped. Zero means no limit.
	MaxSendRate rate.Limit
	// Dialer is used by Join. If nil, a zero [net.Dialer] is used.
	Dialer Dialer
	// Listener is used by Host. If nil, [platform.AllInterfacesListener] is used.
	Listener Listener
	// Codes generates session codes. If nil, a generator seeded from the global source is used.
	Codes CodeGenerator
	// ErrHandlers are called when an error is recorded.
	// They run on the goroutine which hit the error, without internal locks held,
	// and must not call [Manager.Disconnect].
	ErrHandlers []func(error)
}

// NewManager creates a new idle manager.
func (c Config) NewManager() *Manager {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.JoinTimeout == 0 {
		c.JoinTimeout = defaultJoinTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.ProbeAddr == "" {
		c.ProbeAddr = platform.DefaultProbeAddr
	}
	if c.Dialer == nil {
		c.Dialer = &net.Dialer{}
	}
	if c.Listener == nil {
		c.Listener = platform.AllInterfacesListener{}
	}
	if c.Codes == nil {
		c.Codes = defaultCodes{}
	}

	var limiter *rate.Limiter
	if c.MaxSendRate > 0 {
		limiter = rate.NewLimiter(c.MaxSendRate, 1)
	}

	m := &Manager{
		cfg:     c,
		logger:  logger,
		codec:   NewCodec(),
		limiter: limiter,
		peer:    platform.NewMailbox[Snapshot](),
	}

	m.peer.NotifyPut(func(s Snapshot, first bool) {
		if first {
			m.logger.Debug("first peer snapshot", slog.Any("snapshot", s))
		}
	})

	return m
}

type defaultCodes struct{}

func (defaultCodes) Generate() session.Code {
	return session.NewCode()
}
