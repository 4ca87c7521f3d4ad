package httpapi

import "testing"

func TestPermit(t *testing.T) {
	cases := []struct {
		state AuthState
		class RouteClass
		want  bool
	}{
		{Unauthenticated, PublicRoute, true},
		{Unauthenticated, PrivateRoute, false},
		{Authenticated, PublicRoute, true},
		{Authenticated, PrivateRoute, true},
	}
	for _, tc := range cases {
		if got := Permit(tc.state, tc.class); got != tc.want {
			t.Errorf("Permit(%v, %v) = %v, want %v", tc.state, tc.class, got, tc.want)
		}
	}
}
