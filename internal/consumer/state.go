package consumer

// State is the consumer's position in its connect/consume cycle.
type State int32

// Consumer states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateIdle
	StateProcessing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// Healthy reports whether the consumer holds a live channel.
func (s State) Healthy() bool {
	return s == StateIdle || s == StateProcessing
}
