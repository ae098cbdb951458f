package main

import (
	"context"
	"fmt"
	"html"
	"log/slog"
)

// userHooks sends mail in reaction to user record changes. Send failures are
// logged and never retried.
type userHooks struct {
	mailer Mailer
	appURL string
}

func newUserHooks(mailer Mailer, appURL string) *userHooks {
	return &userHooks{mailer: mailer, appURL: appURL}
}

// afterCreate welcomes a new user unless the record already carries a reset token.
func (h *userHooks) afterCreate(ctx context.Context, u *User) {
	if u.PasswordResetToken != "" {
		return
	}
	msg := MailMessage{
		To:      u.Email,
		Subject: "Welcome to Risk Analysis Platform",
		HTML:    "<h1>Welcome!</h1><p>Your account has been created successfully. You can now log in and start creating analyses.</p>",
	}
	if err := h.mailer.Send(ctx, msg); err != nil {
		slog.Error("could not send welcome mail", "user", u.ID, "err", err)
	}
}

// afterUpdate mails a reset link when the reset token was newly set.
func (h *userHooks) afterUpdate(ctx context.Context, original, updated *User) {
	if updated.PasswordResetToken == "" || updated.PasswordResetToken == original.PasswordResetToken {
		return
	}
	if err := h.mailer.Send(ctx, resetMail(updated.Email, h.resetLink(updated.PasswordResetToken))); err != nil {
		slog.Error("could not send password reset mail", "user", updated.ID, "err", err)
	}
}

func (h *userHooks) resetLink(token string) string {
	return h.appURL + "/reset-password/" + token
}

func resetMail(to, link string) MailMessage {
	return MailMessage{
		To:      to,
		Subject: "Password Reset Request",
		HTML: fmt.Sprintf("<h1>Password Reset</h1><p>Click the link below to reset your password:</p>"+
			"<p><a href='%s'>Reset Password</a></p><p>This link expires in 1 hour.</p>"+
			"<p>If you didn't request this, please ignore this email.</p>", html.EscapeString(link)),
	}
}
