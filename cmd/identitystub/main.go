package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/identitystub"
	"github.com/jrsteele09/go-auth-client/notifications"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	demoPhone  = "+233200000000"
	demoSecret = "sankofa"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running identity stub")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Identity stub stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c.GetLogLevel())
	displayAppname(c.GetAppName() + " stub")

	stub := identitystub.New(
		identitystub.WithSigningSecret(c.GetStubSigningSecret()),
		identitystub.WithAccessTTL(c.GetStubAccessTTL()),
		identitystub.WithRefreshRotation(),
	)
	if err := seed(stub); err != nil {
		return err
	}

	server := &http.Server{Addr: c.GetStubAddr(), Handler: stub}
	errs := make(chan error, 1)
	go func() {
		errs <- listenAndServe(server)
	}()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

// seed registers a demo member with a couple of notifications.
func seed(stub *identitystub.Server) error {
	member, err := stub.AddMember(demoSecret, identity.Identity{
		PhoneNumber: demoPhone,
		FullName:    "Demo Member",
		Email:       "demo@sankofa.local",
	})
	if err != nil {
		return fmt.Errorf("seed member: %w", err)
	}

	now := time.Now().UTC()
	stub.AddNotification(member.ID, notifications.Notification{
		ID: "welcome", Title: "Welcome", Body: "Your account is ready.", Category: "account", CreatedAt: now.Add(-time.Hour),
	})
	stub.AddNotification(member.ID, notifications.Notification{
		ID: "kyc", Title: "Verify your identity", Body: "Upload a photo ID to unlock withdrawals.", Category: "kyc", ActionURL: "/kyc", CreatedAt: now,
	})

	log.Info().Str("phone", member.PhoneNumber).Str("secret", demoSecret).Msg("Seeded demo member")
	return nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Identity stub listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
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
