package mailer

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config is explicit SMTP configuration handed to NewSMTPSender; there is
// no process-wide mail state.
type Config struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name"`
	// SendDelay is the pause enforced between consecutive sends to stay
	// under provider rate limits.
	SendDelay time.Duration `json:"send_delay"`
}

// Message is one outbound certificate email.
type Message struct {
	To             string
	Subject        string
	HTMLBody       string
	AttachmentPath string
}

// Sender delivers certificate emails.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Verify(ctx context.Context) error
}

// SMTPSender sends through a plain SMTP relay. Sends are serialized and
// spaced by the configured delay.
type SMTPSender struct {
	config Config
	logger *zap.Logger

	mu       sync.Mutex
	lastSend time.Time
}

func NewSMTPSender(config Config, logger *zap.Logger) *SMTPSender {
	if config.SendDelay <= 0 {
		config.SendDelay = time.Second
	}
	return &SMTPSender{config: config, logger: logger}
}

// Send builds a MIME message (HTML body plus optional base64 attachment)
// and submits it. Consecutive calls wait out the configured send delay.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wait := s.config.SendDelay - time.Since(s.lastSend); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	body, err := s.buildMessage(msg)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	if err := smtp.SendMail(addr, auth, s.config.FromAddress, []string{msg.To}, body); err != nil {
		s.logger.Error("email send failed", zap.String("to", msg.To), zap.Error(err))
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	s.lastSend = time.Now()

	s.logger.Info("email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// Verify dials the relay and completes an SMTP handshake without sending.
func (s *SMTPSender) Verify(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to reach smtp server %s: %w", addr, err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
			return fmt.Errorf("starttls failed: %w", err)
		}
	}
	if s.config.Username != "" {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp authentication failed: %w", err)
		}
	}
	return client.Quit()
}

func (s *SMTPSender) buildMessage(msg Message) ([]byte, error) {
	var b strings.Builder
	boundary := "certificate-portal-boundary"

	from := s.config.FromAddress
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress)
	}
	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary))

	b.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.HTMLBody)
	b.WriteString("\r\n")

	if msg.AttachmentPath != "" {
		data, err := os.ReadFile(msg.AttachmentPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment: %w", err)
		}
		filename := filepath.Base(msg.AttachmentPath)
		contentType := mime.TypeByExtension(filepath.Ext(filename))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		b.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		b.WriteString(fmt.Sprintf("Content-Type: %s; name=%q\r\n", contentType, filename))
		b.WriteString("Content-Transfer-Encoding: base64\r\n")
		b.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n\r\n", filename))

		encoded := base64.StdEncoding.EncodeToString(data)
		for len(encoded) > 0 {
			n := 76
			if n > len(encoded) {
				n = len(encoded)
			}
			b.WriteString(encoded[:n])
			b.WriteString("\r\n")
			encoded = encoded[n:]
		}
	}

	b.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return []byte(b.String()), nil
}
