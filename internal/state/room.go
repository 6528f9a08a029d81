package state

// ConnState is the connection status of a session.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
	Closed
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Room is the presence side of a session: how many participants share the
// canvas and whether we are connected to it. Drawing never changes it.
type Room struct {
	Participants int
	State        ConnState
}

// ApplyPresence adjusts the participant count by delta (+1 join, -1 leave).
// The count never goes below zero.
func (r *Room) ApplyPresence(delta int) {
	r.Participants += delta
	if r.Participants < 0 {
		r.Participants = 0
	}
}
