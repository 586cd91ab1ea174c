package main

import (
	"fmt"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-auth-client/credentials/filestore"
	"github.com/jrsteele09/go-auth-client/dispatch"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/notifications"
	"github.com/jrsteele09/go-auth-client/profile"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// app is the composition root shared by every command.
type app struct {
	store   *filestore.Store
	session *session.Manager
	api     *dispatch.Dispatcher
	profile *profile.Service
	inbox   *notifications.Service
}

func newApp(c config.Config) (*app, error) {
	store, err := filestore.New(c.GetSessionDir(), c.GetSessionSlot())
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	manager := session.New(store, c.GetBaseURL(),
		session.WithExpiryBuffer(c.GetExpiryBuffer()),
		session.WithRefreshTimeout(c.GetRefreshTimeout()),
		session.WithRequestTimeout(c.GetRequestTimeout()),
	)
	api := dispatch.New(c.GetBaseURL(), manager, dispatch.WithTimeout(c.GetRequestTimeout()))

	return &app{
		store:   store,
		session: manager,
		api:     api,
		profile: profile.New(manager, api),
		inbox:   notifications.New(api),
	}, nil
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
