package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/sheetwatch/sheetwatch/internal/config"
	"github.com/sheetwatch/sheetwatch/internal/timeutil"
	"github.com/sheetwatch/sheetwatch/pkg/models"
)

const (
	smtpSecurityNone     = "none"
	smtpSecurityStartTLS = "starttls"
	smtpSecurityTLS      = "tls"
)

// EmailNotifier renders a plain-text body and delivers it over SMTP.
type EmailNotifier struct {
	opts Options
}

func (n *EmailNotifier) Send(ctx context.Context, rows []models.RowData) error {
	body := n.buildMessage(rows)
	if err := SendMail(ctx, n.opts.SMTP, n.opts.Rule.EmailRecipient, n.opts.Rule.EmailSubject, body); err != nil {
		return fmt.Errorf("email send error: %w", err)
	}
	return nil
}

func (n *EmailNotifier) buildMessage(rows []models.RowData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", n.opts.Rule.Title)
	fmt.Fprintf(&b, "該当件数: %d件\n\n", len(rows))
	b.WriteString("--------------------\n\n")

	for _, row := range rows {
		dateInfo := ""
		if row.Date != "" {
			dateInfo = fmt.Sprintf("日付: %s\n", row.Date)
		}
		fmt.Fprintf(&b, "【%d行目】%s", row.RowNumber, dateInfo)

		if row.RowURL != "" {
			fmt.Fprintf(&b, "リンク: %s\n", row.RowURL)
		}

		for _, column := range row.Columns {
			fmt.Fprintf(&b, "[%s列] %s\n", column.Letter, column.Value)
		}

		b.WriteString("\n")
	}

	b.WriteString("--------------------\n")
	fmt.Fprintf(&b, "送信日時: %s", n.sendTimestamp())
	return b.String()
}

func (n *EmailNotifier) sendTimestamp() string {
	now := n.opts.now()
	loc, err := timeutil.Location(n.opts.Rule.Timezone)
	if err != nil {
		return now.Format(timeutil.FormatDateTime)
	}
	return now.In(loc).Format(timeutil.FormatDateTime)
}

// SendMail delivers one plain-text message via the configured SMTP server.
// Also used by the runner's operator side channel.
func SendMail(ctx context.Context, cfg config.SMTPConfig, recipient, subject, body string) error {
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		return fmt.Errorf("smtp is not configured")
	}

	headers := []string{
		fmt.Sprintf("From: %s", cfg.From),
		fmt.Sprintf("To: %s", recipient),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
	}
	if cfg.ReplyTo != "" {
		headers = append(headers, fmt.Sprintf("Reply-To: %s", cfg.ReplyTo))
	}
	message := []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body)

	client, err := smtpConnect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(recipient); err != nil {
		return err
	}
	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write(message); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func smtpConnect(ctx context.Context, cfg config.SMTPConfig) (*smtp.Client, error) {
	security := strings.ToLower(strings.TrimSpace(cfg.Security))
	switch security {
	case smtpSecurityNone, smtpSecurityStartTLS, smtpSecurityTLS:
	default:
		security = smtpSecurityStartTLS
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	address := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dialer := &net.Dialer{Timeout: timeout}
	var (
		conn net.Conn
		err  error
	)
	if security == smtpSecurityTLS {
		tlsConfig := &tls.Config{ServerName: cfg.Host, InsecureSkipVerify: cfg.SkipTLSVerify} // #nosec G402
		conn, err = tls.DialWithDialer(dialer, "tcp", address, tlsConfig)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", address)
	}
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(timeout))
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if security == smtpSecurityStartTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			_ = client.Close()
			return nil, fmt.Errorf("smtp server does not support STARTTLS")
		}
		tlsConfig := &tls.Config{ServerName: cfg.Host, InsecureSkipVerify: cfg.SkipTLSVerify} // #nosec G402
		if err := client.StartTLS(tlsConfig); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	if cfg.Username != "" {
		auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		if err := client.Auth(auth); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return client, nil
}
