package server

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/skillsync/skillsync-server/auth"
	"github.com/skillsync/skillsync-server/internal/apperrors"
	"github.com/skillsync/skillsync-server/users"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// securityContext extracts request provenance for audit records.
func securityContext(r *http.Request) auth.SecurityContext {
	ip := r.Header.Get("X-Forwarded-For")
	if ip != "" {
		// First hop is the client when behind a proxy.
		if idx := strings.Index(ip, ","); idx >= 0 {
			ip = ip[:idx]
		}
		ip = strings.TrimSpace(ip)
	} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	} else {
		ip = r.RemoteAddr
	}
	return auth.SecurityContext{
		IPAddress: ip,
		UserAgent: r.Header.Get("User-Agent"),
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input auth.RegisterInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, s.logger, err)
		return
	}
	result, err := s.authService.Register(r.Context(), input, securityContext(r))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input auth.LoginInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, s.logger, err)
		return
	}
	result, err := s.authService.Login(r.Context(), input, securityContext(r))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var input refreshRequest
	if err := decodeBody(r, &input); err != nil {
		writeError(w, s.logger, err)
		return
	}
	pair, err := s.authService.Refresh(r.Context(), input.RefreshToken, securityContext(r))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var input refreshRequest
	if err := decodeBody(r, &input); err != nil {
		writeError(w, s.logger, err)
		return
	}
	result, err := s.authService.Logout(r.Context(), input.RefreshToken, securityContext(r))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var input auth.ForgotPasswordInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, s.logger, err)
		return
	}
	result, err := s.authService.ForgotPassword(r.Context(), input)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var input auth.VerifyOTPInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, s.logger, err)
		return
	}
	result, err := s.authService.VerifyOTP(r.Context(), input)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var input auth.ResetPasswordInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, s.logger, err)
		return
	}
	result, err := s.authService.ResetPassword(r.Context(), input)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListSessions lists the caller's sessions. Admins may pass ?userId=
// to inspect another account.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, s.logger, apperrors.ErrInvalidAccessToken)
		return
	}

	targetUserID := claims.UserID
	if requested := r.URL.Query().Get("userId"); requested != "" && requested != claims.UserID {
		if err := s.requireAdmin(r); err != nil {
			writeError(w, s.logger, err)
			return
		}
		targetUserID = requested
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "perPage", 20)

	result, err := s.authService.ListSessionsForUser(r.Context(), targetUserID, page, perPage)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRevokeSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, s.logger, apperrors.ErrInvalidAccessToken)
		return
	}

	targetUserID := claims.UserID
	if requested := r.URL.Query().Get("userId"); requested != "" && requested != claims.UserID {
		if err := s.requireAdmin(r); err != nil {
			writeError(w, s.logger, err)
			return
		}
		targetUserID = requested
	}

	sessionID := chi.URLParam(r, "id")
	if err := s.authService.RevokeSessionByID(r.Context(), targetUserID, sessionID); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, auth.MessageResult{Message: "Session revoked"})
}

// handleRevokeAllSessions revokes every session of the caller except the one
// backing the presented access token.
func (s *Server) handleRevokeAllSessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, s.logger, apperrors.ErrInvalidAccessToken)
		return
	}

	if _, err := s.authService.RevokeAllSessionsExcept(r.Context(), claims.UserID, claims.SessionID); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, auth.MessageResult{Message: "All other sessions revoked"})
}

func (s *Server) requireAdmin(r *http.Request) error {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		return apperrors.ErrInvalidAccessToken
	}
	user, err := s.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		return apperrors.ErrInvalidAccessToken
	}
	if user.Role != users.RoleAdmin {
		return errors.Wrap(apperrors.ErrUnauthorized, "insufficient permissions")
	}
	return nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
