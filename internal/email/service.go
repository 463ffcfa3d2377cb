package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Service sends transactional mail over SMTP
type Service struct {
	dialer     *gomail.Dialer
	from       string
	appBaseURL string
}

func NewService(host string, port int, username, password, from, appBaseURL string) *Service {
	return &Service{
		dialer:     gomail.NewDialer(host, port, username, password),
		from:       from,
		appBaseURL: appBaseURL,
	}
}

// SendPasswordResetEmail mails the reset link for a freshly issued token
func (s *Service) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	resetLink := fmt.Sprintf("%s/auth/reset/%s", s.appBaseURL, token)

	body := fmt.Sprintf(`You are receiving this email because you (or someone else) have requested the reset of the password for your account.

Please click on the following link, or paste this into your browser to complete the process:

%s

If you did not request this, please ignore this email and your password will remain unchanged.
`, resetLink)

	return s.send(ctx, to, "Reset your password", body)
}

// SendPasswordChangedEmail confirms a completed password change
func (s *Service) SendPasswordChangedEmail(ctx context.Context, to string) error {
	body := fmt.Sprintf("Hello,\n\nThis is a confirmation that the password for your account %s has just been changed.\n", to)
	return s.send(ctx, to, "Your password has been changed", body)
}

func (s *Service) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
