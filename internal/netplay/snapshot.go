// Package netplay synchronizes player state between two game instances
// over a single TCP connection.
//
// One side hosts, the other joins. Each side streams its own [Snapshot]
// every tick and reads back the latest snapshot received from the peer.
// Delivery is best-effort: failures downgrade the connection state and are
// reported through [Manager.LastError], never returned to the game loop.
package netplay

// Snapshot is a player's pose for one transmission.
type Snapshot struct {
	X      float64 `form:"x"`
	Y      float64 `form:"y"`
	Width  float64 `form:"width"`
	Height float64 `form:"height"`
}
