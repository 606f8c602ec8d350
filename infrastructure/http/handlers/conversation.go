package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dm-lab/auth"
	"dm-lab/domain"
	"dm-lab/services"
)

type ConversationHandler struct {
	Chat services.IChatService
}

type createConversationReq struct {
	Type           string   `json:"type" binding:"required"`
	ParticipantIDs []string `json:"participant_ids"`
}

func (h *ConversationHandler) Create(c *gin.Context) {
	var req createConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	conversationType, err := parseConversationType(req.Type)
	if err != nil {
		fail(c, err)
		return
	}

	conversation, err := h.Chat.CreateConversation(domain.CreateConversationCommand{
		CreatorID:      auth.MustUserID(c),
		Type:           conversationType,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toConversationDTO(conversation))
}

func (h *ConversationHandler) List(c *gin.Context) {
	conversations, err := h.Chat.ListConversations(auth.MustUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toConversationDTOs(conversations)})
}

func (h *ConversationHandler) Get(c *gin.Context) {
	conversation, err := h.Chat.GetConversation(c.Param("id"), auth.MustUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toConversationDTO(conversation))
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	if err := h.Chat.DeleteConversation(c.Param("id"), auth.MustUserID(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) ListMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.Chat.GetMessages(domain.GetMessagesCommand{
		ConversationID: c.Param("id"),
		RequesterID:    auth.MustUserID(c),
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toMessageDTOs(messages)})
}

type sendMessageReq struct {
	Content string `json:"content" binding:"required"`
}

func (h *ConversationHandler) SendMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	message, err := h.Chat.SendMessage(domain.PostMessageCommand{
		ConversationID: c.Param("id"),
		AuthorID:       auth.MustUserID(c),
		Content:        req.Content,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMessageDTO(message))
}
