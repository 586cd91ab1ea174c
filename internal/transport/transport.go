// Package transport sends HTTP requests under a deadline and turns every
// transport failure into a classified *apierror.Error.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jrsteele09/go-auth-client/apierror"
	"github.com/pkg/errors"
)

// maxBodyBytes caps how much of a response body is read into memory.
const maxBodyBytes = 10 << 20

// Response is a completely read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Empty reports a 204 or a body with no content.
func (r *Response) Empty() bool {
	return r.Status == http.StatusNoContent || len(bytes.TrimSpace(r.Body)) == 0
}

// Send performs req with a deadline of timeout and reads the whole body before
// the deadline is released. A fired deadline is reported as a timeout, every
// other failure as a network error.
func Send(client *http.Client, req *http.Request, timeout time.Duration) (*Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	defer cancel()

	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classify(ctx, err)
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}, nil
}

// PostJSON posts body as JSON with Accept and Content-Type set.
func PostJSON(ctx context.Context, client *http.Client, url string, body any, timeout time.Duration) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		apiErr := apierror.API(0, "The request could not be encoded.", nil)
		apiErr.Err = errors.Wrap(err, "[transport.PostJSON] failed to encode body")
		return nil, apiErr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, apierror.Network(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return Send(client, req, timeout)
}

func classify(ctx context.Context, err error) *apierror.Error {
	if ctxErr := ctx.Err(); ctxErr == context.DeadlineExceeded {
		return apierror.Timeout(fmt.Errorf("%w: %w", ctxErr, err))
	}
	return apierror.Classify(err)
}
