// Package notification composes training lifecycle messages and delivers
// them over the mail and database channels.
package notification

import (
	"context"
	"strings"
)

// Channel is a delivery route for a notification.
type Channel string

const (
	ChannelMail     Channel = "mail"
	ChannelDatabase Channel = "database"
)

// Recipient is a mailbox with an optional display name.
type Recipient struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// Message is the content to be delivered by a Provider.
type Message struct {
	Event      string    `json:"event"`
	TrainingID int64     `json:"training_id"`
	Subject    string    `json:"subject"`
	Lines      []string  `json:"lines"`
	To         Recipient `json:"to"`
	Bcc        []string  `json:"bcc,omitempty"`
	// Contact is the area's address members should reply to; may be empty.
	Contact string `json:"contact,omitempty"`
}

// Body renders the lines as plain text paragraphs.
func (m Message) Body() string {
	return strings.Join(m.Lines, "\n\n")
}

// Provider is the interface for notification delivery backends.
type Provider interface {
	// Name returns the provider identifier (e.g. "smtp").
	Name() string
	// Send delivers the message using the provider's transport.
	Send(ctx context.Context, msg Message) error
}
