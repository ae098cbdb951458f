package main

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []MailMessage
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) messages() []MailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MailMessage(nil), m.sent...)
}

func TestUserHooksAfterCreate(t *testing.T) {
	t.Run("should welcome a new user", func(t *testing.T) {
		mailer := &recordingMailer{}
		newUserHooks(mailer, "http://app").afterCreate(context.Background(), &User{Email: "a@example.com"})

		sent := mailer.messages()
		require.Len(t, sent, 1)
		assert.Equal(t, "a@example.com", sent[0].To)
		assert.Equal(t, "Welcome to Risk Analysis Platform", sent[0].Subject)
	})
	t.Run("should stay quiet when the record carries a reset token", func(t *testing.T) {
		mailer := &recordingMailer{}
		newUserHooks(mailer, "http://app").afterCreate(context.Background(), &User{Email: "a@example.com", PasswordResetToken: "abc"})
		assert.Empty(t, mailer.messages())
	})
	t.Run("should swallow send failures", func(t *testing.T) {
		mailer := &recordingMailer{err: errors.New("smtp down")}
		assert.NotPanics(t, func() {
			newUserHooks(mailer, "http://app").afterCreate(context.Background(), &User{Email: "a@example.com"})
		})
	})
}

func TestUserHooksAfterUpdate(t *testing.T) {
	t.Run("a newly set token should send exactly one reset mail", func(t *testing.T) {
		mailer := &recordingMailer{}
		hooks := newUserHooks(mailer, "https://osh.example.com")

		original := &User{Email: "a@example.com"}
		updated := *original
		updated.PasswordResetToken = "tok123"
		hooks.afterUpdate(context.Background(), original, &updated)

		sent := mailer.messages()
		require.Len(t, sent, 1)
		assert.Equal(t, "Password Reset Request", sent[0].Subject)
		assert.Contains(t, sent[0].HTML, "https://osh.example.com/reset-password/tok123")
		assert.Contains(t, sent[0].HTML, "This link expires in 1 hour.")

		again := updated
		again.Name = "renamed"
		hooks.afterUpdate(context.Background(), &updated, &again)
		assert.Len(t, mailer.messages(), 1)
	})
	t.Run("clearing the token should not send mail", func(t *testing.T) {
		mailer := &recordingMailer{}
		newUserHooks(mailer, "http://app").afterUpdate(context.Background(), &User{PasswordResetToken: "old"}, &User{})
		assert.Empty(t, mailer.messages())
	})
	t.Run("a replaced token should send a new mail", func(t *testing.T) {
		mailer := &recordingMailer{}
		newUserHooks(mailer, "http://app").afterUpdate(context.Background(), &User{PasswordResetToken: "old"}, &User{PasswordResetToken: "new"})
		require.Len(t, mailer.messages(), 1)
		assert.Contains(t, mailer.messages()[0].HTML, "/reset-password/new")
	})
}
