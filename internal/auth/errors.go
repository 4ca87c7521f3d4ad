package auth

import "fmt"

// AuthError kinds map provider failures onto a fixed set of
// user-facing messages. Raw provider errors never reach the client.
type AuthErrorKind string

const (
	KindInvalidEmail  AuthErrorKind = "invalid_email"
	KindUserNotFound  AuthErrorKind = "user_not_found"
	KindWrongPassword AuthErrorKind = "wrong_password"
	KindEmailTaken    AuthErrorKind = "email_taken"
	KindOther         AuthErrorKind = "other"
)

type AuthError struct {
	Kind AuthErrorKind
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth failed: %s", e.Kind)
}

// UserMessage is the fixed text shown for the error kind.
func (e *AuthError) UserMessage() string {
	switch e.Kind {
	case KindInvalidEmail:
		return "Please enter a valid email address."
	case KindUserNotFound:
		return "No account exists for this email."
	case KindWrongPassword:
		return "Incorrect password. Please try again."
	case KindEmailTaken:
		return "An account with this email already exists."
	default:
		return "Sign-in failed. Please try again."
	}
}

func authErr(kind AuthErrorKind) error {
	return &AuthError{Kind: kind}
}
