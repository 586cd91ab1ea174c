package main

import (
	"errors"
	"os"

	"github.com/jrsteele09/go-auth-client/apierror"
	"github.com/jrsteele09/go-auth-client/internal/config"
)

// Exit codes for scripting.
const (
	ExitCodeSuccess      = 0
	ExitCodeError        = 1
	ExitCodeAuthRequired = 2
	ExitCodeAuthFailed   = 3
)

func main() {
	if err := newRootCmd(config.New()).Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.Is(err, apierror.ErrSessionExpired):
		return ExitCodeAuthRequired
	case errors.Is(err, apierror.ErrAuthFailure):
		return ExitCodeAuthFailed
	default:
		return ExitCodeError
	}
}
