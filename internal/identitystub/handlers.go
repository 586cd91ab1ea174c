package identitystub

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/identity"
)

// TokenHandler signs a member in with an identifier and secret.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.loginCalls.Add(1)

		var req authmodel.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		if req.Identifier == "" || req.Secret == "" {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				"identifier": {"This field is required."},
			})
			return
		}

		m, ok := s.lookup(req.Identifier)
		if !ok || !CheckSecretHash(req.Secret, m.secretHash) {
			writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
			return
		}

		s.signIn(w, m.identity.ID, false)
	}
}

// RefreshHandler exchanges a refresh token for a new access token.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls.Add(1)

		var req authmodel.RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
			writeDetail(w, http.StatusBadRequest, "Refresh token is required.")
			return
		}

		memberID, ok := s.redeem(req.Refresh)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
			return
		}

		access, err := s.IssueAccessToken(memberID)
		if err != nil {
			s.logger.Err(err).Msg("failed to issue access token")
			writeDetail(w, http.StatusInternalServerError, "Could not issue token.")
			return
		}

		resp := authmodel.RefreshResponse{Access: access}
		if s.rotate {
			_, refresh, err := s.issuePair(memberID)
			if err != nil {
				s.logger.Err(err).Msg("failed to rotate refresh token")
				writeDetail(w, http.StatusInternalServerError, "Could not issue token.")
				return
			}
			resp.Refresh = refresh
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// MeHandler returns the bearer's profile.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.member(memberIDFrom(r))
		if !ok {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		writeJSON(w, http.StatusOK, id)
	}
}

// RegisterHandler creates an OTP-only member and sends a registration code.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authmodel.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		if strings.TrimSpace(req.PhoneNumber) == "" || strings.TrimSpace(req.FullName) == "" {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				"phone_number": {"Phone number and full name are required."},
			})
			return
		}

		created, err := s.AddMember("", identity.Identity{
			PhoneNumber: req.PhoneNumber,
			FullName:    req.FullName,
			Email:       req.Email,
		})
		if err == ErrMemberExists {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				"phone_number": {"A user with this phone number already exists."},
			})
			return
		}
		if err != nil {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}

		s.storeOTP(created.PhoneNumber, authmodel.OTPRegistration)
		writeJSON(w, http.StatusCreated, authmodel.RegisterResponse{
			Message: "Registration successful. Verify the code sent to your phone.",
			User:    &created,
		})
	}
}

// OTPRequestHandler issues a one-time code to a known phone number.
func (s *Server) OTPRequestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authmodel.OTPRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhoneNumber == "" {
			writeDetail(w, http.StatusBadRequest, "Phone number is required.")
			return
		}

		m, ok := s.lookup(req.PhoneNumber)
		if !ok {
			writeDetail(w, http.StatusBadRequest, "No account found for this phone number.")
			return
		}

		purpose := req.Purpose
		if purpose == "" {
			purpose = authmodel.OTPLogin
		}
		s.storeOTP(m.identity.PhoneNumber, purpose)
		writeDetail(w, http.StatusOK, "OTP sent.")
	}
}

// OTPVerifyHandler checks a code and signs the member in.
func (s *Server) OTPVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authmodel.OTPVerifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhoneNumber == "" || req.Code == "" {
			writeDetail(w, http.StatusBadRequest, "Phone number and code are required.")
			return
		}

		m, ok := s.lookup(req.PhoneNumber)
		if !ok || !s.consumeOTP(m.identity.PhoneNumber, req.Code) {
			writeDetail(w, http.StatusBadRequest, "Invalid or expired code.")
			return
		}

		s.signIn(w, m.identity.ID, true)
	}
}

// NotificationsHandler lists the bearer's inbox, newest first.
func (s *Server) NotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Notifications(memberIDFrom(r)))
	}
}

func (s *Server) MarkReadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID := memberIDFrom(r)
		notificationID := r.PathValue("id")

		s.lock.Lock()
		defer s.lock.Unlock()

		for i := range s.inbox[memberID] {
			if s.inbox[memberID][i].ID == notificationID {
				s.inbox[memberID][i].Read = true
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeDetail(w, http.StatusNotFound, "Notification not found.")
	}
}

func (s *Server) MarkAllReadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID := memberIDFrom(r)

		s.lock.Lock()
		for i := range s.inbox[memberID] {
			s.inbox[memberID][i].Read = true
		}
		s.lock.Unlock()

		w.WriteHeader(http.StatusNoContent)
	}
}

// signIn issues a token pair. OTP sign-ins report the principal as "user",
// password sign-ins as "identity".
func (s *Server) signIn(w http.ResponseWriter, memberID string, asUser bool) {
	access, refresh, err := s.issuePair(memberID)
	if err != nil {
		s.logger.Err(err).Msg("failed to issue token pair")
		writeDetail(w, http.StatusInternalServerError, "Could not issue token.")
		return
	}

	principal := s.touchLogin(memberID)
	resp := authmodel.TokenResponse{Access: access, Refresh: refresh}
	if asUser {
		resp.User = &principal
	} else {
		resp.Identity = &principal
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) storeOTP(phone string, purpose authmodel.OTPPurpose) {
	err := s.otps.Upsert(phone, &PendingOTP{
		Code:     s.otpCode,
		Purpose:  purpose,
		IssuedAt: s.nowFunc(),
	})
	if err != nil {
		s.logger.Err(err).Str("phone", phone).Msg("failed to store code")
	}
}

// consumeOTP redeems a code once. Expired codes are discarded.
func (s *Server) consumeOTP(phone, code string) bool {
	pending, err := s.otps.Get(phone)
	if err != nil {
		return false
	}
	if pending.Expired(s.nowFunc(), s.otpTTL) {
		_ = s.otps.Delete(phone)
		return false
	}
	if pending.Code != strings.TrimSpace(code) {
		return false
	}
	_ = s.otps.Delete(phone)
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, authmodel.ErrorResponse{Detail: detail})
}
