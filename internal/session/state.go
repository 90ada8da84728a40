package session

import "github.com/apartment-mgmt/resident/internal/domain"

type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	default:
		return "unauthenticated"
	}
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	State        State
	AccessToken  string
	RefreshToken string
	User         *domain.User
	Loading      bool
}

// LoginResult is what a successful Login hands back to the caller.
type LoginResult struct {
	Access  string
	Refresh string
	User    domain.User
}
