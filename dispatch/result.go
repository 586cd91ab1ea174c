package dispatch

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-auth-client/apierror"
	"github.com/jrsteele09/go-auth-client/internal/transport"
	"github.com/pkg/errors"
)

// Result is a successful (2xx) response. A body that is not JSON is kept as
// text instead of failing the call.
type Result struct {
	Status int
	Header http.Header
	Body   []byte
}

func newResult(resp *transport.Response) *Result {
	return &Result{Status: resp.Status, Header: resp.Header, Body: resp.Body}
}

// Empty reports a 204 or an empty body, which callers treat as no value.
func (r *Result) Empty() bool {
	return r.Status == http.StatusNoContent || len(bytes.TrimSpace(r.Body)) == 0
}

// JSON reports whether the body is well-formed JSON.
func (r *Result) JSON() bool {
	return !r.Empty() && json.Valid(r.Body)
}

// Text returns the body verbatim.
func (r *Result) Text() string {
	return string(r.Body)
}

// Decode unmarshals the body into v. An empty result leaves v untouched.
func (r *Result) Decode(v any) error {
	if r.Empty() {
		return nil
	}
	if !r.JSON() {
		if s, ok := v.(*string); ok {
			*s = r.Text()
			return nil
		}
		apiErr := apierror.API(r.Status, "The server response was not valid JSON.", nil)
		apiErr.Err = errors.New("[Result.Decode] body is not JSON")
		return apiErr
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		apiErr := apierror.API(r.Status, "The server response could not be read.", nil)
		apiErr.Err = errors.Wrap(err, "[Result.Decode] failed to decode body")
		return apiErr
	}
	return nil
}

// Decode is the typed form of Result.Decode. An empty result yields the zero value.
func Decode[T any](r *Result) (T, error) {
	var value T
	if r == nil {
		return value, nil
	}
	err := r.Decode(&value)
	return value, err
}
