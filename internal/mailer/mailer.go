// Package mailer sends plain-text mail through an SMTP relay.  Template
// rendering is out of scope; bodies arrive fully composed on the queue.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer holds the relay coordinates.
type Mailer struct {
	Addr string // host:port of the SMTP relay
	From string // From address of outgoing mail
}

func New(host, port, from string) *Mailer {
	return &Mailer{Addr: host + ":" + port, From: from}
}

// Send delivers one message.  The relay is assumed to accept unauthenticated
// submissions from this host (typical for an internal relay or a sidecar
// like mailhog in development).
func (m *Mailer) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
