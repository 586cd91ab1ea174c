// Package apierror classifies every failure of the session and request layer
// into one of five kinds, each carrying a message that is safe to show a user.
package apierror

import (
	"fmt"
)

// Kind identifies which class of failure an Error represents.
type Kind int

const (
	// KindAPI is any non-2xx response that is not an authentication problem.
	KindAPI Kind = iota
	// KindNetwork means the server could not be reached.
	KindNetwork
	// KindTimeout means the request deadline fired before a response arrived.
	KindTimeout
	// KindAuthFailure means the identity endpoint rejected the supplied credentials.
	KindAuthFailure
	// KindSessionExpired means the refresh token was rejected or a retried request was still unauthorized.
	KindSessionExpired
)

func (k Kind) String() string {
	switch k {
	case KindAPI:
		return "api_error"
	case KindNetwork:
		return "network_error"
	case KindTimeout:
		return "timeout_error"
	case KindAuthFailure:
		return "auth_failure"
	case KindSessionExpired:
		return "session_expired"
	default:
		return "unknown"
	}
}

// Display messages.
const (
	MsgNetwork        = "Unable to reach the server. Please check your internet connection."
	MsgTimeout        = "The request timed out. Please check your connection and try again."
	MsgSessionExpired = "Your session has expired. Please sign in again."
	MsgAuthFailure    = "Invalid credentials."
	MsgMissingFields  = "Authentication response was missing required fields."
)

// Error is the single error type returned by the session manager and the dispatcher.
type Error struct {
	Kind    Kind
	Status  int            // HTTP status, zero for transport failures
	Message string         // Human readable, stable for a given Kind unless the server supplied one
	Details map[string]any // Decoded error body, if it was a JSON object
	Err     error          // Underlying cause
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrAPI            = &Error{Kind: KindAPI}
	ErrNetwork        = &Error{Kind: KindNetwork, Message: MsgNetwork}
	ErrTimeout        = &Error{Kind: KindTimeout, Message: MsgTimeout}
	ErrAuthFailure    = &Error{Kind: KindAuthFailure, Message: MsgAuthFailure}
	ErrSessionExpired = &Error{Kind: KindSessionExpired, Message: MsgSessionExpired}
)

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status != 0 {
		return fmt.Sprintf("Request failed with status %d.", e.Status)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind. A target with a
// non-zero Status additionally has to match the status.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Status == 0 || t.Status == e.Status
}

func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Message: MsgNetwork, Err: err}
}

func Timeout(err error) *Error {
	return &Error{Kind: KindTimeout, Message: MsgTimeout, Err: err}
}

// AuthFailure builds a login rejection. An empty message falls back to MsgAuthFailure.
func AuthFailure(status int, message string) *Error {
	if message == "" {
		message = MsgAuthFailure
	}
	return &Error{Kind: KindAuthFailure, Status: status, Message: message}
}

// SessionExpired builds a terminal session error wrapping the reason, if any.
func SessionExpired(cause error) *Error {
	return &Error{Kind: KindSessionExpired, Status: 401, Message: MsgSessionExpired, Err: cause}
}

func API(status int, message string, details map[string]any) *Error {
	if message == "" {
		message = fmt.Sprintf("Request failed with status %d.", status)
	}
	return &Error{Kind: KindAPI, Status: status, Message: message, Details: details}
}
