// Package audit records security events emitted by the Session Authority.
// Delivery is fire-and-forget: sinks never return errors and must never
// block or fail the auth operation that produced the event.
package audit

import "context"

type ReuseAttempt struct {
	UserID    string
	SessionID string
	TokenID   string
}

type LogoutEvent struct {
	UserID    string
	Email     string
	SessionID string
	IPAddress string
	UserAgent string
}

type RefreshEvent struct {
	UserID        string
	Email         string
	SessionID     string
	Success       bool
	FailureReason string
	IPAddress     string
	UserAgent     string
}

type RegistrationEvent struct {
	UserID    string
	Email     string
	IPAddress string
	UserAgent string
}

type LoginEvent struct {
	UserID    string
	Email     string
	SessionID string
	IPAddress string
	UserAgent string
}

type Sink interface {
	RecordTokenReuseAttempt(ctx context.Context, event ReuseAttempt)
	LogLogout(ctx context.Context, event LogoutEvent)
	LogRefreshToken(ctx context.Context, event RefreshEvent)
	LogRegistration(ctx context.Context, event RegistrationEvent)
	LogLogin(ctx context.Context, event LoginEvent)
}
