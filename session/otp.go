package session

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jrsteele09/go-auth-client/apierror"
	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/jrsteele09/go-auth-client/internal/transport"
)

// Registration is the outcome of a sign-up. The account still has to be
// verified with a one-time code before it can sign in.
type Registration struct {
	PhoneNumber string
	Message     string
	User        *identity.Identity
}

// Register creates a member account for a phone number.
func (m *Manager) Register(ctx context.Context, phone, fullName, email string) (*Registration, error) {
	normalized := identity.NormalizePhone(phone)
	body := authmodel.RegisterRequest{
		PhoneNumber: normalized,
		FullName:    strings.TrimSpace(fullName),
		Email:       strings.TrimSpace(email),
	}

	resp, err := transport.PostJSON(ctx, m.client, m.url(m.endpoints.Register), body, m.requestTimeout)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apierror.FromResponse(resp.Status, resp.Body)
	}

	result := &Registration{PhoneNumber: normalized}
	if resp.Empty() {
		return result, nil
	}

	var payload authmodel.RegisterResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		m.logger.Warn().Err(err).Msg("registration response was not JSON")
		return result, nil
	}
	result.Message = payload.Message
	result.User = payload.User
	if payload.User != nil && payload.User.PhoneNumber != "" {
		result.PhoneNumber = payload.User.PhoneNumber
	}
	return result, nil
}

// RequestOTP asks the server to send a one-time code to phone.
func (m *Manager) RequestOTP(ctx context.Context, phone string, purpose authmodel.OTPPurpose) error {
	if purpose == "" {
		purpose = authmodel.OTPLogin
	}
	body := authmodel.OTPRequest{
		PhoneNumber: identity.NormalizePhone(phone),
		Purpose:     purpose,
	}

	resp, err := transport.PostJSON(ctx, m.client, m.url(m.endpoints.OTPRequest), body, m.requestTimeout)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return apierror.FromResponse(resp.Status, resp.Body)
	}
	return nil
}

// VerifyOTP checks a one-time code. A successful verification signs the
// principal in exactly as Login does.
func (m *Manager) VerifyOTP(ctx context.Context, phone, code string, purpose authmodel.OTPPurpose) (*identity.Identity, error) {
	if purpose == "" {
		purpose = authmodel.OTPLogin
	}
	body := authmodel.OTPVerifyRequest{
		PhoneNumber: identity.NormalizePhone(phone),
		Code:        strings.TrimSpace(code),
		Purpose:     purpose,
	}

	resp, err := transport.PostJSON(ctx, m.client, m.url(m.endpoints.OTPVerify), body, m.requestTimeout)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apierror.FromResponse(resp.Status, resp.Body)
	}

	return m.establish(resp, "[Manager.VerifyOTP]")
}
