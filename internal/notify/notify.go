// Package notify delivers benchmark lifecycle notices. Failures here never
// block the workflow; callers treat notification as best-effort.
package notify

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/eigenhq/slowking/internal/domain"
)

// Notifier announces something about a benchmark run.
type Notifier interface {
	Send(bm *domain.Benchmark, message string) error
}

// LogNotifier writes notices to the structured log.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(log *slog.Logger) LogNotifier {
	return LogNotifier{log: log}
}

// Send logs the notice.
func (n LogNotifier) Send(bm *domain.Benchmark, message string) error {
	n.log.Info("benchmark notification", "benchmark", bm.Name, "message", message)
	return nil
}

// SMTPNotifier emails notices through a plain SMTP relay such as a local
// mailhog instance. No auth: the relay is assumed to sit inside the
// deployment.
type SMTPNotifier struct {
	addr string
	from string
	to   []string
}

// NewSMTPNotifier constructs an SMTPNotifier for host:port.
func NewSMTPNotifier(addr, from string, to []string) SMTPNotifier {
	return SMTPNotifier{addr: addr, from: from, to: to}
}

// Send emails the notice.
func (n SMTPNotifier) Send(bm *domain.Benchmark, message string) error {
	body := fmt.Sprintf("From: %s\r\nSubject: benchmark %s\r\n\r\n%s\r\n", n.from, bm.Name, message)
	if err := smtp.SendMail(n.addr, nil, n.from, n.to, []byte(body)); err != nil {
		return fmt.Errorf("notify: send mail: %w", err)
	}
	return nil
}
