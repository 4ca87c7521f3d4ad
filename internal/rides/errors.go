package rides

import "fmt"

// ValidationError reports a locally rejected input. It is raised
// before any store call and is never retried automatically.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

func validationErr(reason string) error {
	return &ValidationError{Reason: reason}
}

const (
	ReasonMissingField  = "missing field"
	ReasonInvalidSeats  = "invalid seats"
	ReasonInvalidPrice  = "invalid price"
	ReasonPastDeparture = "past departure"
	ReasonEmptyMessage  = "empty message"
)
