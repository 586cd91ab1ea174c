// Package authmodel defines the JSON bodies exchanged with the identity endpoints.
package authmodel

// Default endpoint paths, relative to the API base URL.
const (
	PathToken      = "/auth/token"
	PathRefresh    = "/auth/token/refresh"
	PathMe         = "/auth/me"
	PathRegister   = "/auth/register"
	PathOTPRequest = "/auth/otp/request"
	PathOTPVerify  = "/auth/otp/verify"
)

// LoginRequest is the body of POST /auth/token.
type LoginRequest struct {
	// Identifier is the phone number or email the principal signs in with.
	// Example: "+233200000000"
	Identifier string `json:"identifier"`

	// Secret is the password or PIN.
	// Security: Never log or expose this value
	Secret string `json:"secret"`
}

// RefreshRequest is the body of POST /auth/token/refresh.
type RefreshRequest struct {
	// Refresh is the long-lived refresh token issued at login.
	Refresh string `json:"refresh"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	PhoneNumber string `json:"phone_number"`
	FullName    string `json:"full_name"`
	Email       string `json:"email,omitempty"`
}

// OTPPurpose says what a one-time code will be used for.
type OTPPurpose string

const (
	OTPLogin        OTPPurpose = "login"
	OTPRegistration OTPPurpose = "registration"
)

// OTPRequest is the body of POST /auth/otp/request.
type OTPRequest struct {
	PhoneNumber string     `json:"phone_number"`
	Purpose     OTPPurpose `json:"purpose"`
}

// OTPVerifyRequest is the body of POST /auth/otp/verify.
type OTPVerifyRequest struct {
	PhoneNumber string     `json:"phone_number"`
	Code        string     `json:"code"`
	Purpose     OTPPurpose `json:"purpose"`
}
