// internal/services/mail_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/ideamarket-backend/internal/config"
	"github.com/javajoker/ideamarket-backend/internal/i18n"
)

// Mailer delivers sign-in codes.
type Mailer interface {
	SendOneTimeCode(ctx context.Context, to, code string) error
}

type MailService struct {
	config *config.Config
	lang   string
}

func NewMailService(config *config.Config) *MailService {
	return &MailService{config: config, lang: config.I18n.DefaultLocale}
}

const oneTimeCodeTemplate = `
<!DOCTYPE html>
<html>
<body>
	<h2>{{.Subject}}</h2>
	<p style="font-size:24px;letter-spacing:4px"><strong>{{.Code}}</strong></p>
	<p>{{.PlatformName}}</p>
</body>
</html>`

func (s *MailService) SendOneTimeCode(ctx context.Context, to, code string) error {
	subject := i18n.T(s.lang, i18n.KeyAuthCodeMailSubject)

	body, err := s.renderTemplate(oneTimeCodeTemplate, map[string]interface{}{
		"Subject":      subject,
		"Code":         code,
		"PlatformName": s.config.Email.FromName,
	})
	if err != nil {
		return fmt.Errorf("render mail: %w", err)
	}

	return s.sendEmail(ctx, to, subject, body)
}

func (s *MailService) sendEmail(ctx context.Context, to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, log instead
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("SMTP not configured, email not sent")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, body))

	addr := net.JoinHostPort(s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *MailService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
