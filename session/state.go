package session

// State is the lifecycle position of a Manager.
type State int

const (
	Unauthenticated State = iota
	Authenticated
	Refreshing
	Expired
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}
