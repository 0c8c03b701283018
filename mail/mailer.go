// Package mail sends transactional notifications. The Session Authority
// invokes every method fire-and-forget: failures are logged by the caller
// and never surfaced to the end user.
package mail

import (
	"context"
	"time"
)

type Mailer interface {
	SendWelcomeEmail(ctx context.Context, to, firstName string) error
	SendLoginEmail(ctx context.Context, to, ipAddress, userAgent string, at time.Time) error
	SendOtpEmail(ctx context.Context, to, otp string) error
}
