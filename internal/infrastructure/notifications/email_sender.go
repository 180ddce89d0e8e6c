package notifications

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"regexp"
	"strconv"
	"strings"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// SendMailFunc matches smtp.SendMail
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPEmailSender delivers one-time codes by email
type SMTPEmailSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	sendMail SendMailFunc
}

// NewSMTPEmailSender creates a new email sender
func NewSMTPEmailSender(host string, port int, username, password, from string) (*SMTPEmailSender, error) {
	return NewSMTPEmailSenderWithOptions(host, port, username, password, from, smtp.SendMail)
}

// NewSMTPEmailSenderWithOptions allows replacing the transport in tests
func NewSMTPEmailSenderWithOptions(host string, port int, username, password, from string, sendMail SendMailFunc) (*SMTPEmailSender, error) {
	if host == "" {
		return nil, fmt.Errorf("SMTP_HOST must be set")
	}
	if sendMail == nil {
		sendMail = smtp.SendMail
	}
	return &SMTPEmailSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		sendMail: sendMail,
	}, nil
}

var _ providers.CodeSender = (*SMTPEmailSender)(nil)

// Channel implements providers.CodeSender
func (s *SMTPEmailSender) Channel() entities.OTPChannel {
	return entities.OTPChannelEmail
}

// Supports implements providers.CodeSender
func (s *SMTPEmailSender) Supports(identifier string) bool {
	return emailPattern.MatchString(identifier)
}

// Send implements providers.CodeSender. net/smtp has no context support so
// ctx is only checked before dialing.
func (s *SMTPEmailSender) Send(ctx context.Context, identifier, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	if err := s.sendMail(addr, auth, s.from, []string{identifier}, buildMessage(s.from, identifier, code)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func buildMessage(from, to, code string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Your OTP Code\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString("Your OTP is: " + code + "\r\n")
	return []byte(b.String())
}
