// Package mailfake provides a recording mail.Mailer for tests.
package mailfake

import (
	"context"
	"sync"
	"time"

	"github.com/skillsync/skillsync-server/mail"
)

var _ mail.Mailer = (*FakeMailer)(nil)

type SentMail struct {
	Kind string // "welcome", "login", "otp"
	To   string
	OTP  string
}

type FakeMailer struct {
	mu   sync.Mutex
	Sent []SentMail

	// FailAll makes every send return an error, for verifying that mail
	// failures never surface to auth callers.
	FailAll error
}

func NewFakeMailer() *FakeMailer {
	return &FakeMailer{}
}

func (m *FakeMailer) SendWelcomeEmail(_ context.Context, to, _ string) error {
	return m.record(SentMail{Kind: "welcome", To: to})
}

func (m *FakeMailer) SendLoginEmail(_ context.Context, to, _, _ string, _ time.Time) error {
	return m.record(SentMail{Kind: "login", To: to})
}

func (m *FakeMailer) SendOtpEmail(_ context.Context, to, otp string) error {
	return m.record(SentMail{Kind: "otp", To: to, OTP: otp})
}

func (m *FakeMailer) record(sent SentMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll != nil {
		return m.FailAll
	}
	m.Sent = append(m.Sent, sent)
	return nil
}

// SentTo returns all mail of the given kind sent to the address.
func (m *FakeMailer) SentTo(kind, to string) []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := make([]SentMail, 0)
	for _, sent := range m.Sent {
		if sent.Kind == kind && sent.To == to {
			matched = append(matched, sent)
		}
	}
	return matched
}
