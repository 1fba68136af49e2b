package contracts

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrUnauthorized means the API rejected the token (401/403); the caller should force logout
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNoChannels is returned by derivation when a dataset has no channels
	ErrNoChannels = errors.New("dataset has no channels")

	// ErrMissingToken is returned when a fetch is attempted without a token
	ErrMissingToken = errors.New("missing bearer token")

	// ErrStaleResult marks a completion discarded because its session is no longer current
	ErrStaleResult = errors.New("result discarded: session changed while in flight")

	// ErrNotInitializing is returned when restore runs outside the startup state
	ErrNotInitializing = errors.New("session already initialized")
)

// AuthenticationError is a failed login
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return "authentication failed: " + e.Reason
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// RegistrationError is a failed registration
type RegistrationError struct {
	Reason string
	Err    error
}

func (e *RegistrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registration failed: %s: %v", e.Reason, e.Err)
	}
	return "registration failed: " + e.Reason
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// UnauthorizedError is a 401/403 answer. It matches ErrUnauthorized with errors.Is.
type UnauthorizedError struct {
	StatusCode int
	Detail     string
}

func (e *UnauthorizedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("unauthorized (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("unauthorized (status %d)", e.StatusCode)
}

func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// ServiceError is any non-2xx answer other than 401/403, or a transport failure.
// StatusCode is 0 when no response was received.
type ServiceError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *ServiceError) Error() string {
	msg := "mmm api service error"
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ServiceError) Unwrap() error { return e.Err }

// MalformedResponse is a 2xx body that does not match the expected shape
type MalformedResponse struct {
	Detail string
	Err    error
}

func (e *MalformedResponse) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Detail, e.Err)
	}
	return "malformed response: " + e.Detail
}

func (e *MalformedResponse) Unwrap() error { return e.Err }

// RecoveryAction tells the user what to do next
type RecoveryAction string

const (
	ActionNone           RecoveryAction = ""
	ActionRetryLogin     RecoveryAction = "retry_login"
	ActionResubmit       RecoveryAction = "resubmit"
	ActionLogoutAndRetry RecoveryAction = "logout_and_retry"
	ActionReload         RecoveryAction = "reload"
)

// Problem is the user-visible rendering of an error
type Problem struct {
	Message string         `json:"message"`
	Action  RecoveryAction `json:"action,omitempty"`
}

// UserMessage maps an error to its user-visible message and recovery action
func UserMessage(err error) Problem {
	if err == nil {
		return Problem{}
	}

	var authErr *AuthenticationError
	var regErr *RegistrationError
	var svcErr *ServiceError
	var malformed *MalformedResponse

	switch {
	case errors.As(err, &authErr):
		return Problem{Message: authErr.Reason, Action: ActionRetryLogin}
	case errors.As(err, &regErr):
		return Problem{Message: regErr.Reason, Action: ActionResubmit}
	case errors.Is(err, ErrUnauthorized):
		return Problem{Message: "Your session has expired. Please log in again.", Action: ActionLogoutAndRetry}
	case errors.Is(err, ErrMissingToken):
		return Problem{Message: "Please log in to continue.", Action: ActionRetryLogin}
	case errors.Is(err, ErrNoChannels):
		return Problem{Message: "No channel data is available yet.", Action: ActionReload}
	case errors.As(err, &malformed):
		return Problem{Message: "The analytics service returned an unexpected response.", Action: ActionReload}
	case errors.As(err, &svcErr):
		return Problem{Message: "Failed to load MMM data. Please try again.", Action: ActionReload}
	default:
		return Problem{Message: "Something went wrong. Please try again.", Action: ActionReload}
	}
}
