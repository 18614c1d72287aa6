package events

import (
	"context"
	"time"

	"github.com/MagicalPanda8123/synapse-auth-service/pkg/bus"
)

// Subjects published by the auth service
const (
	SubjectAccountRegistered      = "account.registered"
	SubjectPasswordResetRequested = "account.password.reset.requested"
	SubjectPasswordChanged        = "account.password.changed"
)

// AccountRegisteredEvent notifies the notification service that a
// verification code should be delivered
type AccountRegisteredEvent struct {
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// PasswordResetRequestedEvent carries the reset code for out-of-band delivery
type PasswordResetRequestedEvent struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// PasswordChangedEvent notifies listeners that all sessions were revoked
type PasswordChangedEvent struct {
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits auth domain events over the message bus. Publishing is
// fire-and-forget from the caller's perspective: a failed publish is the
// caller's to log, never to fail a committed flow on.
type Publisher struct {
	bus *bus.Bus
}

// NewPublisher creates a new event publisher
func NewPublisher(b *bus.Bus) *Publisher {
	return &Publisher{bus: b}
}

// AccountRegistered publishes a registration event carrying the verification code
func (p *Publisher) AccountRegistered(ctx context.Context, email, username, code string) error {
	return p.bus.Publish(ctx, SubjectAccountRegistered, AccountRegisteredEvent{
		Email:     email,
		Username:  username,
		Code:      code,
		Timestamp: time.Now().UTC(),
	})
}

// PasswordResetRequested publishes a reset-requested event carrying the reset code
func (p *Publisher) PasswordResetRequested(ctx context.Context, email, code string) error {
	return p.bus.Publish(ctx, SubjectPasswordResetRequested, PasswordResetRequestedEvent{
		Email:     email,
		Code:      code,
		Timestamp: time.Now().UTC(),
	})
}

// PasswordChanged publishes a password-changed event
func (p *Publisher) PasswordChanged(ctx context.Context, email string) error {
	return p.bus.Publish(ctx, SubjectPasswordChanged, PasswordChangedEvent{
		Email:     email,
		Timestamp: time.Now().UTC(),
	})
}
