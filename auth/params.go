package auth

import (
	"github.com/skillsync/skillsync-server/sessions"
	"github.com/skillsync/skillsync-server/users"
)

// Fixed user-facing messages. ForgotPassword's message is identical
// whether or not the account exists, so responses cannot be used to
// enumerate accounts.
const (
	MsgLogoutSuccessful = "Logout successful"
	MsgOTPSent          = "If an account exists, an OTP has been sent to your email"
	MsgOTPVerified      = "OTP verified successfully"
	MsgOTPInvalid       = "Invalid or expired OTP"
	MsgPasswordReset    = "Password has been reset successfully"
)

// Internal failure reasons reported to the audit sink. Callers only ever
// see the generic unauthorized error.
const (
	reasonSessionRevoked = "Session has been revoked"
	reasonTokenReuse     = "Refresh token reuse detected"
)

// SecurityContext carries request provenance for audit records and login
// notifications. It never influences the auth decision itself.
type SecurityContext struct {
	IPAddress string
	UserAgent string
}

type RegisterInput struct {
	Email     string     `json:"email" validate:"required,email"`
	Password  string     `json:"password" validate:"required"`
	FirstName string     `json:"first_name" validate:"required"`
	LastName  string     `json:"last_name" validate:"required"`
	Role      users.Role `json:"role" validate:"omitempty,oneof=mentee mentor"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthResult struct {
	User *users.User `json:"user"`
	TokenPair
}

type MessageResult struct {
	Message string `json:"message"`
}

type OTPResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPInput struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

type ResetPasswordInput struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type SessionPage struct {
	Sessions  []*sessions.Metadata `json:"sessions"`
	Total     int                  `json:"total"`
	Page      int                  `json:"page"`
	PerPage   int                  `json:"per_page"`
	PageCount int                  `json:"page_count"`
}
