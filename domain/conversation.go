// Package domain contains core concepts of the messaging system.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

type ConversationType int

const (
	Direct ConversationType = 1
	Group  ConversationType = 2
	Self   ConversationType = 3
)

func (t ConversationType) Valid() bool {
	return t == Direct || t == Group || t == Self
}

// Conversation is the hydrated view handed to callers: recipients are the
// participants other than the requesting user, never the requester itself.
// That projection is the contract the client relies on to decide
// "who am I talking to".
type Conversation struct {
	ID         string
	Type       ConversationType
	CreatorID  string
	Recipients []Recipient
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Recipient is an explicit projection of a User for conversation display.
// Avatar bytes are intentionally absent; clients fetch them lazily.
type Recipient struct {
	ID          string
	Username    string
	DisplayName string
	HasAvatar   bool
}
