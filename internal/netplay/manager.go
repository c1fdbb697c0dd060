package netplay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmksnnk/skirmish/internal/errcode"
	"github.com/dmksnnk/skirmish/internal/platform"
	"github.com/dmksnnk/skirmish/internal/session"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ConnectionInfo is what a host shows to the player so the peer can join.
type ConnectionInfo struct {
	IP   string
	Port int
	Code session.Code
}

// Manager owns the sockets of one side of a two-player game.
//
// Host, Join and Disconnect must be called from one goroutine, the game loop:
// Host or Join, then SendSnapshot and PeerSnapshot every tick, then Disconnect.
// SendSnapshot and the accessors are safe for concurrent use.
type Manager struct {
	cfg     Config
	logger  *slog.Logger
	codec   *Codec
	limiter *rate.Limiter
	peer    *platform.Mailbox[Snapshot]

	mu       sync.Mutex
	state    State
	isHost   bool
	port     int
	code     session.Code
	listener net.Listener
	conn     net.Conn
	lastErr  error

	wg sync.WaitGroup
}

// Host starts listening on all interfaces on the given port and returns a new session code.
// Port 0 means [Config.Port]. The bound port is reported by [Manager.ConnectionInfo].
// Peers are accepted in the background. On failure it returns the zero code,
// the reason is available from [Manager.LastError].
func (m *Manager) Host(port int) session.Code {
	m.mu.Lock()
	if m.busyLocked() {
		m.lastErr = ErrBusy
		m.mu.Unlock()
		m.handleError(ErrBusy)
		return session.Code{}
	}

	if port == 0 {
		port = m.cfg.Port
	}

	ln, err := m.cfg.Listener.ListenTCP(context.Background(), port)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrBind, err)
		m.state = StateError
		m.lastErr = err
		m.mu.Unlock()

		m.logger.Error("host game", slog.Any("error", err))
		m.handleError(err)
		return session.Code{}
	}

	m.listener = ln
	m.isHost = true
	m.port = ln.Addr().(*net.TCPAddr).Port
	m.code = m.cfg.Codes.Generate()
	m.lastErr = nil
	m.state = StateHosting
	code, boundPort := m.code, m.port

	m.wg.Add(1)
	go m.acceptLoop(ln)
	m.mu.Unlock()

	m.logger.Info("hosting game", slog.Int("port", boundPort), slog.String("code", code.String()))

	return code
}

// acceptLoop accepts peers until the listener is closed.
// Only one peer is served at a time, others are closed right away.
func (m *Manager) acceptLoop(ln net.Listener) {
	defer m.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errcode.IsLocalClosed(err) {
				return
			}

			m.failListener(ln, fmt.Errorf("%w: %w", ErrAccept, err))
			return
		}

		m.mu.Lock()
		if m.listener != ln {
			m.mu.Unlock()
			conn.Close()
			return
		}

		if m.conn != nil {
			m.mu.Unlock()
			m.logger.Warn("reject connection, peer already connected", slog.String("remote", conn.RemoteAddr().String()))
			conn.Close()
			continue
		}

		logger := m.startLocked(conn)
		m.mu.Unlock()

		logger.Info("peer connected")
	}
}

// Join connects to a host. addr is "host" or "host:port", [Config.Port] is used if port is missing.
// It blocks for at most [Config.JoinTimeout] and reports whether the connection was established.
// Failure kinds are distinguishable with errors.Is on [Manager.LastError]:
// [ErrTimedOut], [ErrRefused] or [ErrJoin].
func (m *Manager) Join(ctx context.Context, addr string) bool {
	m.mu.Lock()
	if m.busyLocked() {
		m.lastErr = ErrBusy
		m.mu.Unlock()
		m.handleError(ErrBusy)
		return false
	}

	address, err := joinAddress(addr, m.cfg.Port)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrJoin, err)
		m.state = StateError
		m.lastErr = err
		m.mu.Unlock()
		m.handleError(err)
		return false
	}

	m.state = StateConnecting
	m.lastErr = nil
	m.mu.Unlock()

	m.logger.Debug("joining game", slog.String("address", address))

	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.JoinTimeout)
	defer cancel()

	conn, err := m.cfg.Dialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		err = classifyJoinError(err)

		m.mu.Lock()
		// Disconnect was called while dialing.
		if m.state != StateConnecting {
			m.mu.Unlock()
			return false
		}
		m.state = StateError
		m.lastErr = err
		m.mu.Unlock()

		m.logger.Warn("join game", slog.String("address", address), slog.Any("error", err))
		m.handleError(err)
		return false
	}

	m.mu.Lock()
	if m.state != StateConnecting {
		m.mu.Unlock()
		conn.Close()
		return false
	}

	logger := m.startLocked(conn)
	m.mu.Unlock()

	logger.Info("joined game")

	return true
}

// startLocked makes conn the peer connection and starts receiving from it.
func (m *Manager) startLocked(conn net.Conn) *slog.Logger {
	logger := m.logger.With(
		slog.String("conn_id", uuid.NewString()),
		slog.String("remote", conn.RemoteAddr().String()),
	)

	m.conn = conn
	m.state = StateConnected
	m.lastErr = nil

	m.wg.Add(1)
	go m.receiveLoop(conn, logger)

	return logger
}

// SendSnapshot sends s to the peer if connected, otherwise it does nothing.
// A failed write marks the connection as lost, there are no retries.
func (m *Manager) SendSnapshot(s Snapshot) {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return
	}

	if m.limiter != nil && !m.limiter.Allow() {
		return
	}

	msg, err := m.codec.Marshal(s)
	if err != nil {
		m.logger.Warn("drop snapshot", slog.Any("error", err))
		return
	}

	if m.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
	}

	if _, err := conn.Write(msg); err != nil {
		m.failConn(m.logger, conn, fmt.Errorf("%w: send: %w", ErrConnectionLost, err))
	}
}

func (m *Manager) receiveLoop(conn net.Conn, logger *slog.Logger) {
	defer m.wg.Done()
	defer logger.Debug("receive loop finished")

	scanner := newMessageScanner(conn)
	for scanner.Scan() {
		s, err := m.codec.Unmarshal(scanner.Bytes())
		if err != nil {
			m.failConn(logger, conn, fmt.Errorf("%w: %w", ErrConnectionLost, err))
			return
		}

		m.peer.Put(s)
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}

	m.failConn(logger, conn, fmt.Errorf("%w: receive: %w", ErrConnectionLost, err))
}

// failConn tears down conn and records err, unless conn is no longer
// the peer connection, e.g. after Disconnect.
func (m *Manager) failConn(logger *slog.Logger, conn net.Conn, err error) {
	m.mu.Lock()
	if m.conn != conn {
		m.mu.Unlock()
		return
	}

	m.conn = nil
	m.state = StateDisconnected
	m.lastErr = err
	m.mu.Unlock()

	_ = conn.Close()

	if errcode.IsClosed(err) {
		logger.Info("peer closed connection", slog.Any("error", err))
	} else {
		logger.Warn("connection lost", slog.Any("error", err))
	}
	m.handleError(err)
}

// failListener stops hosting after an unexpected accept error.
// A connected peer is kept.
func (m *Manager) failListener(ln net.Listener, err error) {
	m.mu.Lock()
	if m.listener != ln {
		m.mu.Unlock()
		return
	}

	m.listener = nil
	if m.conn == nil {
		m.state = StateError
	}
	m.lastErr = err
	m.mu.Unlock()

	_ = ln.Close()

	m.logger.Error("stop accepting", slog.Any("error", err))
	m.handleError(err)
}

// Disconnect closes all sockets, waits for background goroutines
// and resets the manager to idle. It is safe to call in any state.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	ln, conn := m.listener, m.conn
	m.listener = nil
	m.conn = nil
	m.state = StateIdle
	m.isHost = false
	m.port = 0
	m.code = session.Code{}
	m.lastErr = nil
	m.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}

	m.wg.Wait()
	m.peer.Clear()

	if ln != nil || conn != nil {
		m.logger.Info("disconnected")
	}
}

// PeerSnapshot returns the latest snapshot received from the peer.
// The second result is false if nothing has been received yet.
func (m *Manager) PeerSnapshot() (Snapshot, bool) {
	return m.peer.Get()
}

// ConnectionInfo returns the address and code to share with the peer.
// The second result is false if not hosting.
func (m *Manager) ConnectionInfo() (ConnectionInfo, bool) {
	m.mu.Lock()
	isHost, port, code := m.isHost, m.port, m.code
	m.mu.Unlock()

	if !isHost {
		return ConnectionInfo{}, false
	}

	return ConnectionInfo{
		IP:   platform.OutboundIP(context.Background(), m.cfg.ProbeAddr),
		Port: port,
		Code: code,
	}, true
}

// IsConnected reports whether there is a live peer connection.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.conn != nil
}

// IsHost reports whether the manager is hosting a game.
func (m *Manager) IsHost() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.isHost
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Code returns the session code of the hosted game, or the zero code.
func (m *Manager) Code() session.Code {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.code
}

// LastError returns the most recent error, or nil.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastErr
}

func (m *Manager) busyLocked() bool {
	return m.listener != nil || m.conn != nil || m.state == StateConnecting
}

func (m *Manager) handleError(err error) {
	for _, handler := range m.cfg.ErrHandlers {
		handler(err)
	}
}

// joinAddress adds port to addr if it has no port.
func joinAddress(addr string, port int) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", errors.New("empty address")
	}

	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr, nil
	}

	host := strings.TrimSuffix(strings.TrimPrefix(addr, "["), "]")
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}
