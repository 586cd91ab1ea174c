package apierror

import (
	"context"
	"errors"
	"net"
)

// Classify maps a transport-level failure onto an *Error. An error that is
// already classified is returned unchanged; nil stays nil. Anything that is
// not a deadline is a network failure.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout(err)
	}

	return Network(err)
}

// KindOf returns the Kind of err after classification.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return 0, false
	}
	return Classify(err).Kind, true
}

// Message returns the display message for any error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return Classify(err).Error()
}

// IsTerminal reports whether err ends the session and requires re-authentication.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrAuthFailure)
}
