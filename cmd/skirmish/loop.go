package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmksnnk/skirmish/internal/netplay"
	"golang.org/x/sync/errgroup"
)

const (
	worldWidth  = 800
	worldHeight = 600
	playerSize  = 50
	playerSpeed = 5
)

// square is the local player, moved without input so the loop can run headless.
type square struct {
	x, y float64
	dx   float64
}

func newSquare() square {
	return square{
		x:  worldWidth/2 - playerSize/2,
		y:  worldHeight - playerSize,
		dx: playerSpeed,
	}
}

// step moves the square along the floor, bouncing off the walls.
func (s *square) step() {
	s.x += s.dx
	switch {
	case s.x < 0:
		s.x = 0
		s.dx = -s.dx
	case s.x > worldWidth-playerSize:
		s.x = worldWidth - playerSize
		s.dx = -s.dx
	}
}

func (s square) snapshot() netplay.Snapshot {
	return netplay.Snapshot{X: s.x, Y: s.y, Width: playerSize, Height: playerSize}
}

// gameLoop sends the local pose every tick and periodically reports the peer's pose.
type gameLoop struct {
	Manager          *netplay.Manager
	TickRate         int
	StatusInterval   time.Duration
	Logger           *slog.Logger
	StopOnDisconnect bool
}

// Run blocks until ctx is done, or, with StopOnDisconnect, until the connection is lost.
func (l gameLoop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		ticker := time.NewTicker(time.Second / time.Duration(l.TickRate))
		defer ticker.Stop()

		player := newSquare()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}

			player.step()
			l.Manager.SendSnapshot(player.snapshot())

			if l.StopOnDisconnect && l.Manager.State() == netplay.StateDisconnected {
				l.Logger.Warn("host left the game", "error", l.Manager.LastError())
				cancel()
				return nil
			}
		}
	})

	eg.Go(func() error {
		ticker := time.NewTicker(l.StatusInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}

			l.logStatus()
		}
	})

	return eg.Wait()
}

func (l gameLoop) logStatus() {
	state := l.Manager.State()
	peer, ok := l.Manager.PeerSnapshot()
	if !ok {
		l.Logger.Info("no peer yet", slog.String("state", state.String()))
		return
	}

	l.Logger.Info("peer",
		slog.String("state", state.String()),
		slog.Group("pose",
			slog.Float64("x", peer.X),
			slog.Float64("y", peer.Y),
			slog.Float64("width", peer.Width),
			slog.Float64("height", peer.Height),
		),
	)
}
