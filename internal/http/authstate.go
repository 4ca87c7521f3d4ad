package httpapi

// AuthState is the two-state automaton driven by session presence.
// Handlers never branch on it directly; the routing decision below
// is the single consumer.
type AuthState int

const (
	Unauthenticated AuthState = iota
	Authenticated
)

// RouteClass labels what a route requires.
type RouteClass int

const (
	// PublicRoute is reachable in either state (health, metrics,
	// sign-up, sign-in).
	PublicRoute RouteClass = iota
	// PrivateRoute requires an authenticated session.
	PrivateRoute
)

// Permit is the pure routing decision: given the automaton state and
// the class of the requested route, may the request proceed?
func Permit(state AuthState, class RouteClass) bool {
	switch class {
	case PublicRoute:
		return true
	case PrivateRoute:
		return state == Authenticated
	default:
		return false
	}
}
