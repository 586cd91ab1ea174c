package identitystub

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"
)

type contextKey string

const memberIDKey contextKey = "member_id"

const (
	green      = "\033[32m"
	blue       = "\033[34m"
	cyan       = "\033[36m"
	yellow     = "\033[33m"
	magenta    = "\033[35m"
	gray       = "\033[90m"
	resetColor = "\033[0m"
)

var methodColors = map[string]string{
	"GET":    green,
	"POST":   blue,
	"PUT":    cyan,
	"DELETE": yellow,
	"PATCH":  magenta,
}

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

func (s *Server) APIMiddleware(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	chained := []func(http.HandlerFunc) http.HandlerFunc{
		s.RecoverMiddleware,
		s.LoggingMiddleware,
		s.LatencyMiddleware,
	}
	return append(chained, mw...)
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		color, ok := methodColors[r.Method]
		if !ok {
			color = gray
		}
		s.logger.Debug().Msgf("[%s%-7s%s] %s", color, r.Method, resetColor, r.URL.Path)
		next(w, r)
	}
}

// LatencyMiddleware holds the response back by the configured latency, or
// until the client gives up.
func (s *Server) LatencyMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if latency := s.currentLatency(); latency > 0 {
			timer := time.NewTimer(latency)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-r.Context().Done():
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).Msg("handler panicked")
				writeDetail(w, http.StatusInternalServerError, "Internal server error.")
			}
		}()
		next(w, r)
	}
}

// RequireBearer verifies the access token and puts the member id on the
// request context.
func (s *Server) RequireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		claims, err := s.signer.Verify(raw)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}

		memberID, _ := claims["sub"].(string)
		if _, found := s.member(memberID); !found {
			writeDetail(w, http.StatusUnauthorized, "User not found")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), memberIDKey, memberID)))
	}
}

func memberIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(memberIDKey).(string)
	return id
}
