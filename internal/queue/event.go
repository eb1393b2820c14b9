// Package queue defines message payloads exchanged over the message broker
// and the names of the queues that carry them.
package queue

// Queue names.  Both queues are declared durable and carry persistent JSON
// messages.
const (
	EmailQueue      = "email.send"
	AuthEventsQueue = "auth.events"
)

// EmailMessage is published when the API wants an email delivered.  The
// body is already composed plain text; the worker only hands it to the
// SMTP relay.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// AuthEvent is the analytics record emitted on login and registration
// attempts.  Downstream consumers persist these without querying the
// primary database.
type AuthEvent struct {
	Event     string `json:"event"` // "register", "login", "login_failed"
	UserID    uint64 `json:"user_id,omitempty"`
	Email     string `json:"email"`
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	At        string `json:"at"` // RFC 3339 UTC
}
