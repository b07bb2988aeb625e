package lobby

// connState is a connection's position in the Unauthenticated ->
// Authenticated -> Draining state machine.
type connState int32

const (
	stateUnauthenticated connState = iota
	stateAuthenticated
	stateDraining
)

func (s connState) String() string {
	switch s {
	case stateUnauthenticated:
		return "UNAUTHENTICATED"
	case stateAuthenticated:
		return "AUTHENTICATED"
	case stateDraining:
		return "DRAINING"
	default:
		return "UNKNOWN"
	}
}
