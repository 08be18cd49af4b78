// Package mail delivers verification and password reset links.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"dojo-hub/internal/domain"

	"github.com/resend/resend-go/v3"
)

const (
	verifyPath = "/verify-email"
	resetPath  = "/reset-password"
)

// emailSender is the part of the Resend client used here.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendMailer sends mail through the Resend API.
type ResendMailer struct {
	emails    emailSender
	fromEmail string
	appURL    string
}

// NewResendMailer creates a mailer for the given API key. fromEmail must be on
// a domain verified in Resend; appURL is the public base used for links.
func NewResendMailer(apiKey, fromEmail, appURL string) *ResendMailer {
	client := resend.NewClient(apiKey)
	return &ResendMailer{
		emails:    client.Emails,
		fromEmail: fromEmail,
		appURL:    strings.TrimRight(appURL, "/"),
	}
}

// SendVerification mails an email confirmation link.
func (m *ResendMailer) SendVerification(ctx context.Context, toEmail, token string) error {
	link := buildLink(m.appURL, verifyPath, token)
	return m.send(ctx, toEmail, "Confirm your email", "Confirm your email address", link,
		"Open the link below to confirm the email address for your dojo account.")
}

// SendPasswordReset mails a password reset link.
func (m *ResendMailer) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	link := buildLink(m.appURL, resetPath, token)
	return m.send(ctx, toEmail, "Reset your password", "Password reset request", link,
		"We received a request to reset your password. The link expires in one hour. If you didn't ask for this, ignore this email.")
}

func (m *ResendMailer) send(ctx context.Context, toEmail, subject, heading, link, body string) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("dojo <%s>", m.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    renderHTML(heading, body, link),
		Text:    fmt.Sprintf("%s\n\n%s\n", body, link),
	}

	if _, err := m.emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send %q mail: %w", subject, err)
	}
	return nil
}

func buildLink(appURL, path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", appURL, path, url.QueryEscape(token))
}

func renderHTML(heading, body, link string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family:Arial,Helvetica,sans-serif;">
  <h2>%s</h2>
  <p>%s</p>
  <p><a href="%s">%s</a></p>
</body>
</html>`, heading, body, link, link)
}

// LogMailer logs links instead of sending them. Used when no API key is set.
// The token is only written to the log when revealTokens is set, which is
// meant for local development.
type LogMailer struct {
	appURL       string
	revealTokens bool
	logger       *slog.Logger
}

// NewLogMailer creates a log-only mailer.
func NewLogMailer(appURL string, revealTokens bool, logger *slog.Logger) *LogMailer {
	return &LogMailer{appURL: strings.TrimRight(appURL, "/"), revealTokens: revealTokens, logger: logger}
}

func (m *LogMailer) SendVerification(ctx context.Context, toEmail, token string) error {
	m.logger.InfoContext(ctx, "mail delivery disabled, verification link not sent",
		"to", toEmail, "link", m.link(verifyPath, token))
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	m.logger.InfoContext(ctx, "mail delivery disabled, reset link not sent",
		"to", toEmail, "link", m.link(resetPath, token))
	return nil
}

func (m *LogMailer) link(path, token string) string {
	if !m.revealTokens {
		return m.appURL + path
	}
	return buildLink(m.appURL, path, token)
}

var (
	_ domain.Mailer = (*ResendMailer)(nil)
	_ domain.Mailer = (*LogMailer)(nil)
)
