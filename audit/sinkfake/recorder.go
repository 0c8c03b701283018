// Package sinkfake provides a recording audit.Sink for tests.
package sinkfake

import (
	"context"
	"sync"

	"github.com/skillsync/skillsync-server/audit"
)

var _ audit.Sink = (*Recorder)(nil)

type Recorder struct {
	mu            sync.Mutex
	ReuseAttempts []audit.ReuseAttempt
	Logouts       []audit.LogoutEvent
	Refreshes     []audit.RefreshEvent
	Registrations []audit.RegistrationEvent
	Logins        []audit.LoginEvent
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) RecordTokenReuseAttempt(_ context.Context, event audit.ReuseAttempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ReuseAttempts = append(r.ReuseAttempts, event)
}

func (r *Recorder) LogLogout(_ context.Context, event audit.LogoutEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Logouts = append(r.Logouts, event)
}

func (r *Recorder) LogRefreshToken(_ context.Context, event audit.RefreshEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Refreshes = append(r.Refreshes, event)
}

func (r *Recorder) LogRegistration(_ context.Context, event audit.RegistrationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Registrations = append(r.Registrations, event)
}

func (r *Recorder) LogLogin(_ context.Context, event audit.LoginEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Logins = append(r.Logins, event)
}

// FailedRefreshes returns recorded refresh events with Success == false.
func (r *Recorder) FailedRefreshes() []audit.RefreshEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	failed := make([]audit.RefreshEvent, 0)
	for _, event := range r.Refreshes {
		if !event.Success {
			failed = append(failed, event)
		}
	}
	return failed
}
