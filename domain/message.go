// This file defines Message entities and related rules.
// Messages are immutable once posted and validated by the engine.
package domain

import "time"

// Message represents one chat message, enriched with the author's display
// fields when returned to callers.
type Message struct {
	ID                string
	ConversationID    string
	AuthorID          string
	AuthorUsername    string
	AuthorDisplayName string
	Content           string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
