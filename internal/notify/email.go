package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"time"

	"github.com/aifoundary/aifoundary/internal/config"
	"github.com/aifoundary/aifoundary/internal/domain"
	"github.com/aifoundary/aifoundary/internal/report"
)

const emailTimeout = 30 * time.Second

// Email sends a plain-text scan summary over SMTP
type Email struct {
	config     config.EmailConfig
	repository string
	mode       domain.Mode
	logger     *log.Logger
}

// NewEmail creates an email sink
func NewEmail(cfg config.EmailConfig, repository string, mode domain.Mode, logger *log.Logger) *Email {
	if logger == nil {
		logger = log.Default()
	}
	return &Email{
		config:     cfg,
		repository: repository,
		mode:       mode,
		logger:     logger,
	}
}

// Name implements report.Sink.
func (e *Email) Name() string {
	return "email"
}

// Report implements report.Sink. A single delivery attempt is made.
func (e *Email) Report(ctx context.Context, result *domain.ScanResult) error {
	if result.Empty() || !e.config.Enabled {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", e.config.SMTPHost, e.config.SMTPPort)
	message := e.buildMessage(e.buildSubject(result), e.buildBody(result))

	if err := e.sendWithTimeout(ctx, addr, message, emailTimeout); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	e.logger.Printf("Email summary sent to %s", e.config.ToAddress)
	return nil
}

func (e *Email) buildSubject(result *domain.ScanResult) string {
	repo := e.repository
	if repo == "" {
		repo = "scan"
	}
	return fmt.Sprintf("[AIFoundary] %s - %d risks in %d files (%s)",
		repo, result.FindingCount(), result.Len(), e.mode)
}

func (e *Email) buildBody(result *domain.ScanResult) string {
	var buf bytes.Buffer
	buf.WriteString(report.FormatConsole(result))
	buf.WriteString("\n")
	buf.WriteString(commentFooter)
	buf.WriteString("\n")
	return buf.String()
}

func (e *Email) buildMessage(subject, body string) []byte {
	var buf bytes.Buffer

	// Headers
	buf.WriteString(fmt.Sprintf("From: %s <%s>\r\n", e.config.FromName, e.config.FromAddress))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", e.config.ToAddress))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	buf.WriteString(fmt.Sprintf("Message-ID: <%d@%s>\r\n", time.Now().UnixNano(), e.config.SMTPHost))
	buf.WriteString("\r\n")

	buf.WriteString(body)

	return buf.Bytes()
}

func (e *Email) sendWithTimeout(ctx context.Context, addr string, message []byte, timeout time.Duration) error {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to SMTP server: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(timeout))

	client, err := smtp.NewClient(conn, e.config.SMTPHost)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Quit()

	// Submission port expects STARTTLS
	if e.config.SMTPPort == 587 {
		tlsConfig := &tls.Config{ServerName: e.config.SMTPHost}
		if err = client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starting TLS: %w", err)
		}
	}

	if e.config.SMTPUser != "" && e.config.SMTPPassword != "" {
		auth := smtp.PlainAuth("", e.config.SMTPUser, e.config.SMTPPassword, e.config.SMTPHost)
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	if err = client.Mail(e.config.FromAddress); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err = client.Rcpt(e.config.ToAddress); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("getting data writer: %w", err)
	}
	if _, err = writer.Write(message); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}

	return writer.Close()
}
