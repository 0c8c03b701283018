// Package auth implements the Session Authority: login, registration,
// refresh-token rotation with reuse detection, logout, and bulk
// revocation. It is the only component that mutates session state.
package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/skillsync/skillsync-server/audit"
	"github.com/skillsync/skillsync-server/internal/apperrors"
	"github.com/skillsync/skillsync-server/internal/config"
	"github.com/skillsync/skillsync-server/internal/kv"
	"github.com/skillsync/skillsync-server/mail"
	"github.com/skillsync/skillsync-server/sessions"
	"github.com/skillsync/skillsync-server/token"
	"github.com/skillsync/skillsync-server/users"
)

const otpDigits = 6

// Deps holds all collaborator dependencies for the Service.
type Deps struct {
	Users    users.Repo      // Account storage
	Sessions *sessions.Store // Per-session auth state
	Codes    kv.Store        // One-time password storage
	Codec    *token.Codec    // Token signing and verification
	Audit    audit.Sink      // Security event recording (fire-and-forget)
	Mailer   mail.Mailer     // Notifications (fire-and-forget)
}

// Service orchestrates the session lifecycle. Its operations are invoked
// concurrently across many clients; correctness of the rotation state
// machine relies on the session store's atomic compare-and-swap rather
// than any in-process lock.
type Service struct {
	deps      Deps
	otpExpiry time.Duration
	validate  *validator.Validate
	nowTime   func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(deps Deps, cfg config.AuthConfig, options ...ServiceOption) (*Service, error) {
	if deps.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("[NewService] Sessions store is required")
	}
	if deps.Codes == nil {
		return nil, errors.New("[NewService] Codes store is required")
	}
	if deps.Codec == nil {
		return nil, errors.New("[NewService] Codec is required")
	}
	if deps.Audit == nil {
		return nil, errors.New("[NewService] Audit sink is required")
	}
	if deps.Mailer == nil {
		return nil, errors.New("[NewService] Mailer is required")
	}

	service := &Service{
		deps:      deps,
		otpExpiry: cfg.GetOTPExpiry(),
		validate:  validator.New(),
		nowTime:   time.Now,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Register creates a new account and logs it straight in, returning the
// sanitized user plus a fresh token pair. The welcome email is best
// effort and never fails the registration.
func (s *Service) Register(ctx context.Context, input RegisterInput, sc SecurityContext) (*AuthResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.BadRequestf("invalid registration input: %v", err)
	}

	if _, err := s.deps.Users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.ErrEmailTaken
	} else if !apperrors.IsNotFound(err) {
		return nil, errors.Wrap(err, "[Service.Register] GetByEmail")
	}

	if err := users.ValidatePasswordStrength(input.Password); err != nil {
		return nil, apperrors.BadRequestf("%v", err)
	}

	passwordHash, err := users.HashPassword(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register] HashPassword")
	}

	role := input.Role
	if role == "" {
		role = users.RoleMentee
	}

	now := s.nowTime()
	user := &users.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.deps.Users.Create(ctx, user); err != nil {
		return nil, errors.Wrap(err, "[Service.Register] Create")
	}

	pair, _, err := s.issueSession(ctx, user, sc)
	if err != nil {
		return nil, err
	}

	s.deps.Audit.LogRegistration(ctx, audit.RegistrationEvent{
		UserID:    user.ID,
		Email:     user.Email,
		IPAddress: sc.IPAddress,
		UserAgent: sc.UserAgent,
	})

	if err := s.deps.Mailer.SendWelcomeEmail(ctx, user.Email, user.FirstName); err != nil {
		log.Warn().Err(err).Str("email", user.Email).Msg("failed to send welcome email")
	}

	return &AuthResult{User: user.Sanitized(), TokenPair: *pair}, nil
}

// Login verifies credentials and issues a fresh session. Unknown accounts
// and wrong passwords fail with the same error so responses cannot be
// used to enumerate accounts.
func (s *Service) Login(ctx context.Context, input LoginInput, sc SecurityContext) (*AuthResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.BadRequestf("invalid login input: %v", err)
	}

	user, err := s.deps.Users.GetByEmail(ctx, input.Email)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] GetByEmail")
	}

	if !users.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountInactive
	}

	pair, meta, err := s.issueSession(ctx, user, sc)
	if err != nil {
		return nil, err
	}

	s.deps.Audit.LogLogin(ctx, audit.LoginEvent{
		UserID:    user.ID,
		Email:     user.Email,
		SessionID: meta.SessionID,
		IPAddress: sc.IPAddress,
		UserAgent: sc.UserAgent,
	})

	if err := s.deps.Mailer.SendLoginEmail(ctx, user.Email, sc.IPAddress, sc.UserAgent, s.nowTime()); err != nil {
		log.Warn().Err(err).Str("email", user.Email).Msg("failed to send login email")
	}

	return &AuthResult{User: user.Sanitized(), TokenPair: *pair}, nil
}

// Refresh rotates a refresh token. A token that decodes but no longer
// matches the session's current token id is evidence of leakage: the
// whole session is revoked, not just the one call. Simultaneous use of
// the same token is indistinguishable from replay and punished
// identically — the store's compare-and-swap guarantees at most one
// winner.
func (s *Service) Refresh(ctx context.Context, refreshToken string, sc SecurityContext) (*TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	payload, err := s.deps.Codec.VerifyRefresh(refreshToken)
	if err != nil || payload.Kind != token.KindRefresh {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	revoked, err := s.deps.Sessions.IsRevoked(ctx, payload.SessionID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] IsRevoked")
	}
	if revoked {
		s.deps.Audit.LogRefreshToken(ctx, audit.RefreshEvent{
			UserID:        payload.UserID,
			Email:         payload.Email,
			SessionID:     payload.SessionID,
			Success:       false,
			FailureReason: reasonSessionRevoked,
			IPAddress:     sc.IPAddress,
			UserAgent:     sc.UserAgent,
		})
		return nil, apperrors.ErrInvalidRefreshToken
	}

	newTokenID := uuid.New().String()
	ttl := s.deps.Codec.RefreshExpiry()
	rotated, err := s.deps.Sessions.Rotate(ctx, payload.SessionID, payload.TokenID, newTokenID, ttl)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] Rotate")
	}
	if !rotated {
		// Reuse event: poison the session so every descendant token dies
		// with it.
		if err := s.deps.Sessions.Revoke(ctx, payload.SessionID, ttl); err != nil {
			return nil, errors.Wrap(err, "[Service.Refresh] Revoke after reuse")
		}
		s.deps.Audit.RecordTokenReuseAttempt(ctx, audit.ReuseAttempt{
			UserID:    payload.UserID,
			SessionID: payload.SessionID,
			TokenID:   payload.TokenID,
		})
		s.deps.Audit.LogRefreshToken(ctx, audit.RefreshEvent{
			UserID:        payload.UserID,
			Email:         payload.Email,
			SessionID:     payload.SessionID,
			Success:       false,
			FailureReason: reasonTokenReuse,
			IPAddress:     sc.IPAddress,
			UserAgent:     sc.UserAgent,
		})
		return nil, apperrors.ErrInvalidRefreshToken
	}

	pair, err := s.signPair(payload.UserID, payload.Email, payload.SessionID, payload.Family, newTokenID)
	if err != nil {
		return nil, err
	}

	s.deps.Audit.LogRefreshToken(ctx, audit.RefreshEvent{
		UserID:    payload.UserID,
		Email:     payload.Email,
		SessionID: payload.SessionID,
		Success:   true,
		IPAddress: sc.IPAddress,
		UserAgent: sc.UserAgent,
	})

	return pair, nil
}

// Logout revokes the token's session. It is idempotent: logging out an
// already-revoked session still reports success, as long as the token
// decodes and is the refresh type. The revocation record's retention is
// bounded by the token's remaining lifetime.
func (s *Service) Logout(ctx context.Context, refreshToken string, sc SecurityContext) (*MessageResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	payload, err := s.deps.Codec.VerifyRefresh(refreshToken)
	if err != nil || payload.Kind != token.KindRefresh {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	ttl := payload.ExpiresAt.Sub(s.nowTime())
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.deps.Sessions.Revoke(ctx, payload.SessionID, ttl); err != nil {
		return nil, errors.Wrap(err, "[Service.Logout] Revoke")
	}
	if err := s.deps.Sessions.DeleteCurrent(ctx, payload.SessionID); err != nil {
		return nil, errors.Wrap(err, "[Service.Logout] DeleteCurrent")
	}

	s.deps.Audit.LogLogout(ctx, audit.LogoutEvent{
		UserID:    payload.UserID,
		Email:     payload.Email,
		SessionID: payload.SessionID,
		IPAddress: sc.IPAddress,
		UserAgent: sc.UserAgent,
	})

	return &MessageResult{Message: MsgLogoutSuccessful}, nil
}

// ListSessionsForUser enumerates a user's sessions, newest first. Read
// only; expired records are pruned by the store on the way through.
func (s *Service) ListSessionsForUser(ctx context.Context, userID string, page, perPage int) (*SessionPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	metas, err := s.deps.Sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.ListSessionsForUser] ListByUser")
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})

	total := len(metas)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return &SessionPage{
		Sessions:  metas[start:end],
		Total:     total,
		Page:      page,
		PerPage:   perPage,
		PageCount: (total + perPage - 1) / perPage,
	}, nil
}

// RevokeSessionByID revokes one session directly, outside the refresh
// flow. Role checks (owner vs admin) live at the calling boundary; the
// Authority only refuses to touch sessions that do not belong to the
// given user.
func (s *Service) RevokeSessionByID(ctx context.Context, userID, sessionID string) error {
	meta, err := s.deps.Sessions.Get(ctx, sessionID)
	if errors.Is(err, kv.ErrNotFound) {
		return apperrors.ErrSessionNotFound
	}
	if err != nil {
		return errors.Wrap(err, "[Service.RevokeSessionByID] Get")
	}
	if meta.UserID != userID {
		return apperrors.ErrSessionNotFound
	}

	if err := s.deps.Sessions.Revoke(ctx, sessionID, s.deps.Codec.RefreshExpiry()); err != nil {
		return errors.Wrap(err, "[Service.RevokeSessionByID] Revoke")
	}
	if err := s.deps.Sessions.DeleteCurrent(ctx, sessionID); err != nil {
		return errors.Wrap(err, "[Service.RevokeSessionByID] DeleteCurrent")
	}
	return nil
}

// RevokeAllSessionsExcept implements "log out everywhere else", returning
// how many sessions were revoked.
func (s *Service) RevokeAllSessionsExcept(ctx context.Context, userID, exceptSessionID string) (int, error) {
	metas, err := s.deps.Sessions.ListByUser(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "[Service.RevokeAllSessionsExcept] ListByUser")
	}

	count := 0
	ttl := s.deps.Codec.RefreshExpiry()
	for _, meta := range metas {
		if meta.SessionID == exceptSessionID || meta.Revoked {
			continue
		}
		if err := s.deps.Sessions.Revoke(ctx, meta.SessionID, ttl); err != nil {
			return count, errors.Wrap(err, "[Service.RevokeAllSessionsExcept] Revoke")
		}
		if err := s.deps.Sessions.DeleteCurrent(ctx, meta.SessionID); err != nil {
			return count, errors.Wrap(err, "[Service.RevokeAllSessionsExcept] DeleteCurrent")
		}
		count++
	}
	return count, nil
}

// ForgotPassword stores a short-lived OTP and emails it. The response is
// identical whether or not the account exists.
func (s *Service) ForgotPassword(ctx context.Context, input ForgotPasswordInput) (*MessageResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.BadRequestf("invalid input: %v", err)
	}

	user, err := s.deps.Users.GetByEmail(ctx, input.Email)
	switch {
	case err == nil:
		otp, err := generateOTP()
		if err != nil {
			return nil, errors.Wrap(err, "[Service.ForgotPassword] generateOTP")
		}
		if err := s.deps.Codes.Set(ctx, otpKey(user.Email), otp, s.otpExpiry); err != nil {
			return nil, errors.Wrap(err, "[Service.ForgotPassword] store OTP")
		}
		if err := s.deps.Mailer.SendOtpEmail(ctx, user.Email, otp); err != nil {
			log.Warn().Err(err).Str("email", user.Email).Msg("failed to send OTP email")
		}
	case apperrors.IsNotFound(err):
		// Same message as the success path.
	default:
		return nil, errors.Wrap(err, "[Service.ForgotPassword] GetByEmail")
	}

	return &MessageResult{Message: MsgOTPSent}, nil
}

// VerifyOTP compares the submitted code with the stored one. Absent and
// wrong codes produce the same answer.
func (s *Service) VerifyOTP(ctx context.Context, input VerifyOTPInput) (*OTPResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.BadRequestf("invalid input: %v", err)
	}

	stored, err := s.deps.Codes.Get(ctx, otpKey(input.Email))
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, errors.Wrap(err, "[Service.VerifyOTP] Get")
	}
	if err != nil || stored != input.OTP {
		return &OTPResult{Valid: false, Message: MsgOTPInvalid}, nil
	}
	return &OTPResult{Valid: true, Message: MsgOTPVerified}, nil
}

// ResetPassword verifies the OTP, stores the new password hash, and
// invalidates the code.
func (s *Service) ResetPassword(ctx context.Context, input ResetPasswordInput) (*MessageResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.BadRequestf("invalid input: %v", err)
	}

	stored, err := s.deps.Codes.Get(ctx, otpKey(input.Email))
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, errors.Wrap(err, "[Service.ResetPassword] Get")
	}
	if err != nil || stored != input.OTP {
		return nil, apperrors.ErrInvalidOTP
	}

	if err := users.ValidatePasswordStrength(input.NewPassword); err != nil {
		return nil, apperrors.BadRequestf("%v", err)
	}

	user, err := s.deps.Users.GetByEmail(ctx, input.Email)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.ErrInvalidOTP
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.ResetPassword] GetByEmail")
	}

	passwordHash, err := users.HashPassword(input.NewPassword)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.ResetPassword] HashPassword")
	}
	if err := s.deps.Users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return nil, errors.Wrap(err, "[Service.ResetPassword] UpdatePassword")
	}
	_ = s.deps.Codes.Del(ctx, otpKey(input.Email))

	return &MessageResult{Message: MsgPasswordReset}, nil
}

// issueSession mints a new session record with a fresh session id, token
// family, and token id, then signs the pair.
func (s *Service) issueSession(ctx context.Context, user *users.User, sc SecurityContext) (*TokenPair, *sessions.Metadata, error) {
	meta := sessions.Metadata{
		SessionID: uuid.New().String(),
		UserID:    user.ID,
		Email:     user.Email,
		Family:    uuid.New().String(),
		CreatedAt: s.nowTime(),
		IPAddress: sc.IPAddress,
		UserAgent: sc.UserAgent,
	}
	tokenID := uuid.New().String()

	if err := s.deps.Sessions.Create(ctx, meta, tokenID, s.deps.Codec.RefreshExpiry()); err != nil {
		return nil, nil, errors.Wrap(err, "[Service.issueSession] Create")
	}

	pair, err := s.signPair(user.ID, user.Email, meta.SessionID, meta.Family, tokenID)
	if err != nil {
		return nil, nil, err
	}
	return pair, &meta, nil
}

func (s *Service) signPair(userID, email, sessionID, family, tokenID string) (*TokenPair, error) {
	payload := token.Payload{
		UserID:    userID,
		Email:     email,
		SessionID: sessionID,
		Family:    family,
		TokenID:   tokenID,
	}

	accessToken, err := s.deps.Codec.SignAccess(payload)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.signPair] SignAccess")
	}
	refreshToken, err := s.deps.Codec.SignRefresh(payload)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.signPair] SignRefresh")
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func otpKey(email string) string {
	return "otp:" + email
}

func generateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n), nil
}
