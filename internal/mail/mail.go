package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"time"

	"github.com/campuscare/backend/internal/config"
	"github.com/campuscare/backend/internal/logger"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers HTML mail through an SMTP relay.
type SMTPSender struct {
	addr    string
	auth    smtp.Auth
	from    string
	timeout time.Duration
	send    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		addr:    cfg.Host + ":" + cfg.Port,
		auth:    auth,
		from:    cfg.From,
		timeout: cfg.Timeout,
		send:    smtp.SendMail,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("mail: empty recipient")
	}
	body := buildMessage(s.from, msg)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// smtp.SendMail has no context; the send keeps running after a timeout
	// but the caller is released.
	done := make(chan error, 1)
	go func() { done <- s.send(s.addr, s.auth, s.from, []string{msg.To}, body) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send timed out: %w", ctx.Err())
	}
}

func buildMessage(from string, msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: CampusCare <%s>\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.HTML)
	b.WriteString("\r\n")
	return b.Bytes()
}

// LogSender is used when SMTP is not configured; it only logs.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	logger.Info("Email delivery disabled, dropping message", map[string]interface{}{
		"to":      msg.To,
		"subject": msg.Subject,
	})
	return nil
}
