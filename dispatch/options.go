package dispatch

import (
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds each attempt of a request.
const DefaultTimeout = 20 * time.Second

type Option func(*Dispatcher)

func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) {
		if client != nil {
			d.client = client
		}
	}
}

// WithTimeout sets the per-attempt deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithRequestIDFunc replaces the generator for X-Request-ID values.
func WithRequestIDFunc(newID func() string) Option {
	return func(d *Dispatcher) {
		d.newRequestID = newID
	}
}

// RequestOption adjusts a single call.
type RequestOption func(*requestOptions)

type requestOptions struct {
	query  url.Values
	header http.Header
}

// WithQuery appends query parameters to the request URL.
func WithQuery(query url.Values) RequestOption {
	return func(o *requestOptions) {
		for key, values := range query {
			for _, value := range values {
				o.query.Add(key, value)
			}
		}
	}
}

// WithHeader sets an extra header. Authorization cannot be overridden.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.header.Set(key, value)
	}
}
