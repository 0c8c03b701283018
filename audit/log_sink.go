package audit

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// LogSink writes audit events as structured log lines and keeps security
// counters for operational visibility.
type LogSink struct {
	logger zerolog.Logger

	reuseAttempts prometheus.Counter
	refreshes     *prometheus.CounterVec
	logins        prometheus.Counter
	logouts       prometheus.Counter
	registrations prometheus.Counter
}

var _ Sink = (*LogSink)(nil)

func NewLogSink(logger zerolog.Logger, reg prometheus.Registerer) *LogSink {
	factory := promauto.With(reg)
	return &LogSink{
		logger: logger.With().Str("component", "audit").Logger(),
		reuseAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_token_reuse_attempts_total",
			Help: "Refresh token replay/reuse events detected.",
		}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_refresh_total",
			Help: "Refresh token rotations by result.",
		}, []string{"result"}),
		logins: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Successful logins.",
		}),
		logouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_logouts_total",
			Help: "Logouts.",
		}),
		registrations: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Account registrations.",
		}),
	}
}

func (s *LogSink) RecordTokenReuseAttempt(_ context.Context, event ReuseAttempt) {
	s.reuseAttempts.Inc()
	s.logger.Warn().
		Str("event", "token_reuse_attempt").
		Str("user_id", event.UserID).
		Str("session_id", event.SessionID).
		Str("token_id", event.TokenID).
		Msg("refresh token reuse detected, session revoked")
}

func (s *LogSink) LogLogout(_ context.Context, event LogoutEvent) {
	s.logouts.Inc()
	s.logger.Info().
		Str("event", "logout").
		Str("user_id", event.UserID).
		Str("email", event.Email).
		Str("session_id", event.SessionID).
		Str("ip_address", event.IPAddress).
		Str("user_agent", event.UserAgent).
		Msg("session logged out")
}

func (s *LogSink) LogRefreshToken(_ context.Context, event RefreshEvent) {
	if event.Success {
		s.refreshes.WithLabelValues("success").Inc()
		s.logger.Info().
			Str("event", "refresh").
			Str("user_id", event.UserID).
			Str("session_id", event.SessionID).
			Msg("refresh token rotated")
		return
	}
	s.refreshes.WithLabelValues("failure").Inc()
	s.logger.Warn().
		Str("event", "refresh").
		Str("user_id", event.UserID).
		Str("session_id", event.SessionID).
		Str("failure_reason", event.FailureReason).
		Msg("refresh token rejected")
}

func (s *LogSink) LogRegistration(_ context.Context, event RegistrationEvent) {
	s.registrations.Inc()
	s.logger.Info().
		Str("event", "registration").
		Str("user_id", event.UserID).
		Str("email", event.Email).
		Str("ip_address", event.IPAddress).
		Msg("account registered")
}

func (s *LogSink) LogLogin(_ context.Context, event LoginEvent) {
	s.logins.Inc()
	s.logger.Info().
		Str("event", "login").
		Str("user_id", event.UserID).
		Str("email", event.Email).
		Str("session_id", event.SessionID).
		Str("ip_address", event.IPAddress).
		Msg("user logged in")
}
