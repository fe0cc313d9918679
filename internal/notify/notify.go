// Package notify carries user-facing notices and navigation requests from the
// session engine to whatever renders them.
package notify

import (
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notice is a dismissible, non-blocking message.
type Notice struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func NewNotice(severity Severity, message string) Notice {
	return Notice{
		ID:        uuid.NewString(),
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// Sink receives transient notices.
type Sink interface {
	Notify(n Notice)
}

// Navigator moves the UI to another route.
type Navigator interface {
	Navigate(path string)
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(Notice) {}

func (Discard) Navigate(string) {}
