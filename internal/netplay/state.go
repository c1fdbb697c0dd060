package netplay

// State is the connection state of a [Manager].
type State int

const (
	StateIdle State = iota
	StateHosting
	StateConnecting
	StateConnected
	StateDisconnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHosting:
		return "hosting"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
