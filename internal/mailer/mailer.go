// Package mailer delivers the confirmation and password-reset emails.
// Each operation renders a fixed HTML body around a constructed link and
// hands off to an SMTP transport.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/textproto"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Error variables
var (
	// ErrAuthFailed signals rejected SMTP credentials, an operator error.
	ErrAuthFailed = errors.New("email authentication failed")
	// ErrSendFailed covers every other transport failure.
	ErrSendFailed = errors.New("failed to send email")
)

var (
	confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<h1>Email Confirmation</h1>
<p>Please click the link below to confirm your email:</p>
<a href="{{.Link}}">{{.Link}}</a>
`))

	passwordResetTmpl = template.Must(template.New("reset").Parse(`
<h1>Password Reset</h1>
<p>You requested a password reset. Please click the link below to verify your email and set a new password:</p>
<a href="{{.Link}}">Reset Password</a>
<p>If you did not request this, please ignore this email.</p>
<p>This link will expire in 1 hour.</p>
`))
)

// Sender is the transport behind the mailer. *gomail.Dialer implements it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer renders and sends account emails.
type Mailer struct {
	sender    Sender
	from      string
	serverURL string
	clientURL string
	log       *zap.SugaredLogger
}

// New creates a Mailer over an authenticated SMTP dialer.
// Confirmation links point at the server (the confirm endpoint is an HTTP
// redirect); reset links point at the client reset page.
func New(host string, port int, user, pass, from, serverURL, clientURL string, log *zap.SugaredLogger) *Mailer {
	if from == "" {
		from = user
	}
	return &Mailer{
		sender:    gomail.NewDialer(host, port, user, pass),
		from:      from,
		serverURL: serverURL,
		clientURL: clientURL,
		log:       log,
	}
}

// NewWithSender creates a Mailer with a custom transport.
func NewWithSender(sender Sender, from, serverURL, clientURL string, log *zap.SugaredLogger) *Mailer {
	return &Mailer{
		sender:    sender,
		from:      from,
		serverURL: serverURL,
		clientURL: clientURL,
		log:       log,
	}
}

// SendConfirmation emails the confirmation link embedding the given token.
func (m *Mailer) SendConfirmation(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/api/auth/confirm-email?token=%s", m.serverURL, token)

	body, err := render(confirmationTmpl, link)
	if err != nil {
		return err
	}

	return m.send(ctx, email, "Confirm your email", body)
}

// SendPasswordReset emails the reset link embedding the given token.
func (m *Mailer) SendPasswordReset(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.clientURL, token)

	body, err := render(passwordResetTmpl, link)
	if err != nil {
		return err
	}

	return m.send(ctx, email, "Reset Password Request", body)
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		m.log.Errorw("failed to send email", "to", to, "subject", subject, "err", err)
		return classify(err)
	}

	m.log.Infow("email sent", "to", to, "subject", subject)
	return nil
}

func render(tmpl *template.Template, link string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Link string }{Link: link}); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return buf.String(), nil
}

// classify splits credential rejections from every other transport failure
// so callers can tell an operator misconfiguration apart from a flaky send.
func classify(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case 530, 534, 535:
			return fmt.Errorf("%w: %v", ErrAuthFailed, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrSendFailed, err)
}
