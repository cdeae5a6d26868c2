// Package alert raises operator notifications for data quality issues and
// fatal pipeline failures. Every alert is logged as a warning; email
// delivery is attempted additionally when sender, receiver, and SMTP server
// are all configured. Email failure is itself only logged — an alert path
// problem must never take down the run that triggered it.
package alert

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Settings holds the delivery configuration for a Notifier.
type Settings struct {
	Sender   string
	Receiver string // comma-separated list accepted
	Server   string
	Port     int
	User     string
	Password string
}

// Notifier delivers alert messages.
type Notifier struct {
	log      *zap.SugaredLogger
	settings Settings

	// sendMail is swappable in tests; defaults to smtp.SendMail.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewNotifier(log *zap.SugaredLogger, settings Settings) *Notifier {
	return &Notifier{log: log, settings: settings, sendMail: smtp.SendMail}
}

// Send raises an alert with the given subject and issue list.
func (n *Notifier) Send(subject string, issues []string) {
	body := composeBody(issues)
	n.log.Warnw("ALERT", "subject", subject, "body", body)

	if !n.emailConfigured() {
		n.log.Warnw("email alert configuration incomplete, alert not sent via email")
		return
	}

	recipients := splitRecipients(n.settings.Receiver)
	msg := composeMessage(n.settings.Sender, n.settings.Receiver, subject, body)

	var auth smtp.Auth
	if n.settings.User != "" && n.settings.Password != "" {
		auth = smtp.PlainAuth("", n.settings.User, n.settings.Password, n.settings.Server)
	}

	addr := fmt.Sprintf("%s:%d", n.settings.Server, n.settings.Port)
	if err := n.sendMail(addr, auth, n.settings.Sender, recipients, msg); err != nil {
		n.log.Errorw("failed to send alert email", "server", addr, "error", err)
		return
	}
	n.log.Infow("alert email sent", "to", n.settings.Receiver)
}

func (n *Notifier) emailConfigured() bool {
	return n.settings.Sender != "" && n.settings.Receiver != "" && n.settings.Server != ""
}

// composeBody renders the issue list as a bulleted plain-text body.
func composeBody(issues []string) string {
	var b strings.Builder
	b.WriteString("The following issues were detected during the Telco DWH ETL process:\n\n")
	for _, issue := range issues {
		b.WriteString("- ")
		b.WriteString(issue)
		b.WriteString("\n")
	}
	return b.String()
}

func composeMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func splitRecipients(receiver string) []string {
	parts := strings.Split(receiver, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
