// Package notify escalates relay failures to the operators by mail.
package notify

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/bridgeworks/slackrelay/internal/logger"
)

// Mailer sends plain-text escalation mail through an MTA, no auth. A
// Mailer with an empty address drops everything (mail disabled).
type Mailer struct {
	addr string
	from string
	to   []string
	log  logger.Logger
	send func(addr, from string, to []string, msg []byte) error
}

func NewMailer(addr, from string, to []string, log logger.Logger) *Mailer {
	return &Mailer{
		addr: addr,
		from: from,
		to:   to,
		log:  log,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// SendError mails the operators about a lost message or a dead worker.
// Failures are logged, never propagated: escalation is best effort and
// must not take the relay down with it.
func (m *Mailer) SendError(subject string, args ...string) {
	if m.addr == "" {
		m.log.Debug("mail disabled, dropping escalation", logger.String("subject", subject))
		return
	}

	body := "Please investigate. Args are:\n\n" + strings.Join(args, "\n")
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nDate: %s\r\n\r\n%s\r\n",
		m.from,
		strings.Join(m.to, ", "),
		subject,
		time.Now().Format(time.RFC1123Z),
		body)

	if err := m.send(m.addr, m.from, m.to, []byte(msg)); err != nil {
		m.log.Error("sending escalation mail failed",
			logger.String("subject", subject), logger.Error(err))
		return
	}
	m.log.Info("escalation mail sent", logger.String("subject", subject))
}
