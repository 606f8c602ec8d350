package domain

import "time"

type CreateConversationCommand struct {
	CreatorID      string
	Type           ConversationType
	ParticipantIDs []string
}

type PostMessageCommand struct {
	ConversationID string
	AuthorID       string
	Content        string
	CreatedAt      time.Time
}

type GetMessagesCommand struct {
	ConversationID string
	RequesterID    string
	Limit          int
	Offset         int
}
