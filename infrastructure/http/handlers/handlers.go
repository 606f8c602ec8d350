// Package handlers contains the gin handlers of the public REST and
// WebSocket API. Handlers translate between wire DTOs and domain types;
// all rules live behind the service interfaces.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"dm-lab/domain"
	"dm-lab/errors"
)

func fail(c *gin.Context, err error) {
	c.JSON(errors.MapToHTTPStatus(err), gin.H{"message": err.Error()})
}

type RecipientDTO struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	HasAvatar   bool   `json:"has_avatar"`
}

type ConversationDTO struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	CreatorID  string         `json:"creator_id"`
	Recipients []RecipientDTO `json:"recipients"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

type MessageDTO struct {
	ID                string `json:"id"`
	ConversationID    string `json:"conversation_id"`
	AuthorID          string `json:"author_id"`
	AuthorUsername    string `json:"author_username"`
	AuthorDisplayName string `json:"author_display_name,omitempty"`
	Content           string `json:"content"`
	CreatedAt         string `json:"created_at"`
}

type UserDTO struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	HasAvatar   bool   `json:"has_avatar"`
	CreatedAt   string `json:"created_at"`
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func conversationTypeName(t domain.ConversationType) string {
	switch t {
	case domain.Direct:
		return "DIRECT"
	case domain.Group:
		return "GROUP"
	case domain.Self:
		return "SELF"
	}
	return "UNKNOWN"
}

func parseConversationType(s string) (domain.ConversationType, error) {
	switch s {
	case "DIRECT":
		return domain.Direct, nil
	case "GROUP":
		return domain.Group, nil
	case "SELF":
		return domain.Self, nil
	}
	return 0, errors.ErrInvalidConversationType
}

func toRecipientDTO(r domain.Recipient) RecipientDTO {
	return RecipientDTO{
		ID:          r.ID,
		Username:    r.Username,
		DisplayName: r.DisplayName,
		HasAvatar:   r.HasAvatar,
	}
}

func toConversationDTO(c domain.Conversation) ConversationDTO {
	return ConversationDTO{
		ID:         c.ID,
		Type:       conversationTypeName(c.Type),
		CreatorID:  c.CreatorID,
		Recipients: lo.Map(c.Recipients, func(r domain.Recipient, _ int) RecipientDTO { return toRecipientDTO(r) }),
		CreatedAt:  c.CreatedAt.Format(timeLayout),
		UpdatedAt:  c.UpdatedAt.Format(timeLayout),
	}
}

func toConversationDTOs(conversations []domain.Conversation) []ConversationDTO {
	return lo.Map(conversations, func(c domain.Conversation, _ int) ConversationDTO { return toConversationDTO(c) })
}

func toMessageDTO(m domain.Message) MessageDTO {
	return MessageDTO{
		ID:                m.ID,
		ConversationID:    m.ConversationID,
		AuthorID:          m.AuthorID,
		AuthorUsername:    m.AuthorUsername,
		AuthorDisplayName: m.AuthorDisplayName,
		Content:           m.Content,
		CreatedAt:         m.CreatedAt.Format(timeLayout),
	}
}

func toMessageDTOs(messages []domain.Message) []MessageDTO {
	return lo.Map(messages, func(m domain.Message, _ int) MessageDTO { return toMessageDTO(m) })
}

func toUserDTO(u domain.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		HasAvatar:   len(u.Avatar) > 0,
		CreatedAt:   u.CreatedAt.Format(timeLayout),
	}
}
