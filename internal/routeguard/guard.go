// Package routeguard decides, from a session snapshot, whether a requested
// view renders, waits, or redirects.  Decide is pure: no state, no side
// effects.
package routeguard

import (
	"github.com/iliyamo/lms-client/internal/model"
	"github.com/iliyamo/lms-client/internal/session"
)

// Outcome of a navigation decision.
type Outcome int

const (
	// Pending renders nothing while the session is still bootstrapping.
	Pending Outcome = iota
	// Render shows the requested view.
	Render
	// Redirect sends the client to Decision.Location.
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is the guard's answer for one navigation.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Decide applies, in order: loading waits; unauthenticated goes to login;
// an empty allowed set or a member role renders; anyone else lands on
// their own role's default view.
func Decide(snap session.Snapshot, allowed []model.Role) Decision {
	if snap.Loading {
		return Decision{Outcome: Pending}
	}
	if !snap.IsAuthenticated {
		return Decision{Outcome: Redirect, Location: session.ViewLogin}
	}
	if len(allowed) == 0 {
		return Decision{Outcome: Render}
	}
	role := snap.Role()
	for _, r := range allowed {
		if r == role {
			return Decision{Outcome: Render}
		}
	}
	return Decision{Outcome: Redirect, Location: model.LandingPath(role)}
}
