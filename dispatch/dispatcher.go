// Package dispatch sends authenticated requests to the API. Each logical call
// gets a bearer token from the session, a per-attempt deadline and at most one
// retry after a reactive refresh.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-client/apierror"
	"github.com/jrsteele09/go-auth-client/internal/transport"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	headerRequestID   = "X-Request-ID"
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
	maxRetries        = 1
)

// Session is the part of the session manager the dispatcher relies on. It
// never sees the refresh token.
type Session interface {
	AccessToken(ctx context.Context, allowProactiveRefresh bool) (string, error)
	RefreshRejected(ctx context.Context, rejected string) error
	Expire()
}

var _ Session = (*session.Manager)(nil)

type Dispatcher struct {
	baseURL      string
	session      Session
	client       *http.Client
	timeout      time.Duration
	logger       zerolog.Logger
	newRequestID func() string
}

// pending is one logical call. It is replayed byte for byte on retry.
type pending struct {
	method    string
	url       string
	body      []byte
	header    http.Header
	requestID string
}

func New(baseURL string, sess Session, options ...Option) *Dispatcher {
	d := &Dispatcher{
		baseURL:      strings.TrimRight(baseURL, "/"),
		session:      sess,
		client:       http.DefaultClient,
		timeout:      DefaultTimeout,
		logger:       log.Logger,
		newRequestID: uuid.NewString,
	}

	for _, opt := range options {
		opt(d)
	}

	return d
}

// Execute sends method to path with body encoded as JSON (nil sends no body).
// Every failure is an *apierror.Error.
func (d *Dispatcher) Execute(ctx context.Context, method, path string, body any, options ...RequestOption) (*Result, error) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			apiErr := apierror.API(0, "The request could not be encoded.", nil)
			apiErr.Err = errors.Wrap(err, "[Dispatcher.Execute] failed to encode body")
			return nil, apiErr
		}
		payload = encoded
	}

	req, err := d.prepare(method, path, payload, options)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.header.Set(headerContentType, contentTypeJSON)
	}

	return d.do(ctx, req, 0)
}

func (d *Dispatcher) Get(ctx context.Context, path string, options ...RequestOption) (*Result, error) {
	return d.Execute(ctx, http.MethodGet, path, nil, options...)
}

func (d *Dispatcher) Post(ctx context.Context, path string, body any, options ...RequestOption) (*Result, error) {
	return d.Execute(ctx, http.MethodPost, path, body, options...)
}

func (d *Dispatcher) Patch(ctx context.Context, path string, body any, options ...RequestOption) (*Result, error) {
	return d.Execute(ctx, http.MethodPatch, path, body, options...)
}

func (d *Dispatcher) Delete(ctx context.Context, path string, options ...RequestOption) (*Result, error) {
	return d.Execute(ctx, http.MethodDelete, path, nil, options...)
}

func (d *Dispatcher) prepare(method, path string, payload []byte, options []RequestOption) (*pending, error) {
	opts := requestOptions{query: url.Values{}, header: http.Header{}}
	for _, opt := range options {
		opt(&opts)
	}

	target, err := url.Parse(d.baseURL + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, apierror.Network(errors.Wrap(err, "[Dispatcher.prepare] invalid request url"))
	}
	if len(opts.query) > 0 {
		query := target.Query()
		for key, values := range opts.query {
			for _, value := range values {
				query.Add(key, value)
			}
		}
		target.RawQuery = query.Encode()
	}

	opts.header.Del("Authorization")
	opts.header.Set("Accept", contentTypeJSON)

	return &pending{
		method:    method,
		url:       target.String(),
		body:      payload,
		header:    opts.header,
		requestID: d.newRequestID(),
	}, nil
}

// do performs one attempt. attempt is 0 for the first send and 1 for the
// single retry that follows a successful reactive refresh.
func (d *Dispatcher) do(ctx context.Context, req *pending, attempt int) (*Result, error) {
	accessToken, err := d.session.AccessToken(ctx, attempt == 0)
	if err != nil {
		return nil, apierror.Classify(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, bodyReader(req.body))
	if err != nil {
		return nil, apierror.Network(errors.Wrap(err, "[Dispatcher.do] failed to build request"))
	}
	for key, values := range req.header {
		httpReq.Header[key] = append([]string(nil), values...)
	}
	httpReq.Header.Set(headerRequestID, req.requestID)
	if accessToken != "" {
		(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(httpReq)
	}

	resp, err := transport.Send(d.client, httpReq, d.timeout)
	if err != nil {
		d.logger.Warn().Err(err).Str("method", req.method).Str("url", req.url).Int("attempt", attempt).Str("request_id", req.requestID).Msg("request failed")
		return nil, err
	}

	d.logger.Debug().Str("method", req.method).Str("url", req.url).Int("status", resp.Status).Int("attempt", attempt).Str("request_id", req.requestID).Msg("request complete")

	if resp.Status == http.StatusUnauthorized {
		return d.reauthorize(ctx, req, attempt, accessToken, resp)
	}
	if !resp.OK() {
		return nil, apierror.FromResponse(resp.Status, resp.Body)
	}
	return newResult(resp), nil
}

// reauthorize handles a 401 for the token rejected: refresh (unless another
// request already replaced that token) and retry once, or end the session.
func (d *Dispatcher) reauthorize(ctx context.Context, req *pending, attempt int, rejected string, resp *transport.Response) (*Result, error) {
	rejection := apierror.FromResponse(resp.Status, resp.Body)

	if attempt >= maxRetries {
		d.logger.Info().Str("url", req.url).Str("request_id", req.requestID).Msg("retried request still unauthorized, expiring session")
		d.session.Expire()
		return nil, apierror.SessionExpired(rejection)
	}

	if err := d.session.RefreshRejected(ctx, rejected); err != nil {
		d.logger.Info().Err(err).Str("request_id", req.requestID).Msg("reactive refresh failed")
		if errors.Is(err, apierror.ErrSessionExpired) {
			return nil, apierror.Classify(err)
		}
		return nil, apierror.SessionExpired(err)
	}

	return d.do(ctx, req, attempt+1)
}

func bodyReader(body []byte) io.Reader {
	if body == nil {
		return nil
	}
	return bytes.NewReader(body)
}
