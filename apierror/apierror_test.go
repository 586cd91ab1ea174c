package apierror_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jrsteele09/go-auth-client/apierror"
	"github.com/stretchr/testify/require"
)

type timeoutNetError struct{}

func (timeoutNetError) Error() string   { return "i/o timeout" }
func (timeoutNetError) Timeout() bool   { return true }
func (timeoutNetError) Temporary() bool { return true }

var _ net.Error = timeoutNetError{}

func TestClassify(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.Nil(t, apierror.Classify(nil))
	})

	t.Run("deadline is timeout", func(t *testing.T) {
		err := apierror.Classify(fmt.Errorf("Post: %w", context.DeadlineExceeded))
		require.Equal(t, apierror.KindTimeout, err.Kind)
		require.Equal(t, apierror.MsgTimeout, err.Error())
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("net timeout is timeout", func(t *testing.T) {
		err := apierror.Classify(&net.OpError{Op: "dial", Err: timeoutNetError{}})
		require.ErrorIs(t, err, apierror.ErrTimeout)
	})

	t.Run("connection refused is network", func(t *testing.T) {
		err := apierror.Classify(&net.OpError{Op: "dial", Err: errors.New("connection refused")})
		require.ErrorIs(t, err, apierror.ErrNetwork)
		require.Equal(t, apierror.MsgNetwork, err.Error())
	})

	t.Run("classified errors pass through", func(t *testing.T) {
		original := apierror.SessionExpired(nil)
		wrapped := fmt.Errorf("dispatch: %w", original)
		require.Same(t, original, apierror.Classify(wrapped))
	})
}

func TestError_Is(t *testing.T) {
	err := apierror.API(404, "Not found.", nil)
	require.ErrorIs(t, err, apierror.ErrAPI)
	require.ErrorIs(t, err, &apierror.Error{Kind: apierror.KindAPI, Status: 404})
	require.NotErrorIs(t, err, &apierror.Error{Kind: apierror.KindAPI, Status: 500})
	require.NotErrorIs(t, err, apierror.ErrSessionExpired)

	require.True(t, apierror.IsTerminal(apierror.AuthFailure(400, "")))
	require.True(t, apierror.IsTerminal(apierror.SessionExpired(nil)))
	require.False(t, apierror.IsTerminal(apierror.Network(nil)))
}

func TestAuthFailure_DefaultMessage(t *testing.T) {
	require.Equal(t, apierror.MsgAuthFailure, apierror.AuthFailure(401, "").Error())
	require.Equal(t, "Account locked.", apierror.AuthFailure(401, "Account locked.").Error())
}

func TestFromResponse(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"detail string", 400, `{"detail":"Group is full."}`, "Group is full."},
		{"message string", 409, `{"message":"Duplicate."}`, "Duplicate."},
		{"detail list", 400, `{"detail":["First problem.","Second."]}`, "First problem."},
		{"detail preferred over message", 400, `{"message":"m","detail":"d"}`, "d"},
		{"first string field in document order", 400, `{"zeta":"from zeta","alpha":"from alpha"}`, "from zeta"},
		{"first field list", 400, `{"count":3,"phone_number":["Enter a valid phone number."],"name":"x"}`, "Enter a valid phone number."},
		{"empty strings skipped", 400, `{"a":"","b":"used"}`, "used"},
		{"no strings", 500, `{"code":17}`, "Request failed with status 500."},
		{"not json", 502, `<html>Bad Gateway</html>`, "Request failed with status 502."},
		{"empty body", 503, ``, "Request failed with status 503."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := apierror.FromResponse(tt.status, []byte(tt.body))
			require.Equal(t, apierror.KindAPI, err.Kind)
			require.Equal(t, tt.status, err.Status)
			require.Equal(t, tt.message, err.Message)
		})
	}

	t.Run("details carry the decoded body", func(t *testing.T) {
		err := apierror.FromResponse(400, []byte(`{"detail":"bad","field":"amount"}`))
		require.Equal(t, "amount", err.Details["field"])
	})
}

func TestKind_String(t *testing.T) {
	require.Equal(t, "session_expired", apierror.KindSessionExpired.String())
	require.Equal(t, "unknown", apierror.Kind(42).String())
}

func TestMessage(t *testing.T) {
	require.Equal(t, "", apierror.Message(nil))
	require.Equal(t, apierror.MsgNetwork, apierror.Message(errors.New("boom")))
	kind, ok := apierror.KindOf(apierror.Timeout(nil))
	require.True(t, ok)
	require.Equal(t, apierror.KindTimeout, kind)
}
