package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"dm-lab/auth"
	"dm-lab/domain"
	"dm-lab/errors"
	"dm-lab/mocks"
)

func newConversationRouter(t *testing.T, chat *mocks.MockIChatService) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := &ConversationHandler{Chat: chat}
	router := gin.New()
	authed := router.Group("/api", auth.Middleware())
	authed.POST("/conversations", handler.Create)
	authed.GET("/conversations", handler.List)
	authed.POST("/conversations/:id/messages", handler.SendMessage)
	authed.GET("/conversations/:id/messages", handler.ListMessages)

	token, err := auth.GenerateToken("alice-id", time.Hour)
	require.NoError(t, err)
	return router, token
}

func TestConversationHandler_Create(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	chat := mocks.NewMockIChatService(ctrl)
	router, token := newConversationRouter(t, chat)

	chat.EXPECT().
		CreateConversation(domain.CreateConversationCommand{
			CreatorID:      "alice-id",
			Type:           domain.Direct,
			ParticipantIDs: []string{"bob-id"},
		}).
		Return(domain.Conversation{
			ID:         "conv-1",
			Type:       domain.Direct,
			CreatorID:  "alice-id",
			Recipients: []domain.Recipient{{ID: "bob-id", Username: "bob"}},
		}, nil).
		Times(1)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/conversations",
		strings.NewReader(`{"type":"DIRECT","participant_ids":["bob-id"]}`))
	r.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, r)

	req.Equal(http.StatusCreated, w.Code)
	req.Contains(w.Body.String(), `"conv-1"`)
	req.Contains(w.Body.String(), `"DIRECT"`)
}

func TestConversationHandler_Create_UnknownType(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	chat := mocks.NewMockIChatService(ctrl)
	router, token := newConversationRouter(t, chat)

	// The service is never reached.
	chat.EXPECT().CreateConversation(gomock.Any()).Times(0)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/conversations",
		strings.NewReader(`{"type":"BROADCAST"}`))
	r.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, r)

	req.Equal(http.StatusBadRequest, w.Code)
}

func TestConversationHandler_SendMessage_ErrorMapping(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	chat := mocks.NewMockIChatService(ctrl)
	router, token := newConversationRouter(t, chat)

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"outsider is forbidden", errors.ErrNotParticipant, http.StatusForbidden},
		{"unknown conversation", errors.ErrConversationNotFound, http.StatusNotFound},
		{"blank content", errors.ErrEmptyContent, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			chat.EXPECT().SendMessage(gomock.Any()).Return(domain.Message{}, tt.serviceErr).Times(1)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/conversations/conv-1/messages",
				strings.NewReader(`{"content":"hi"}`))
			r.Header.Set("Authorization", "Bearer "+token)
			router.ServeHTTP(w, r)

			req.Equal(tt.wantStatus, w.Code)
		})
	}
}

func TestConversationHandler_ListMessages_Pagination(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	chat := mocks.NewMockIChatService(ctrl)
	router, token := newConversationRouter(t, chat)

	chat.EXPECT().
		GetMessages(domain.GetMessagesCommand{
			ConversationID: "conv-1",
			RequesterID:    "alice-id",
			Limit:          10,
			Offset:         20,
		}).
		Return([]domain.Message{{ID: "msg-1", ConversationID: "conv-1", Content: "hello"}}, nil).
		Times(1)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/conversations/conv-1/messages?limit=10&offset=20", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, r)

	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), `"msg-1"`)
}

func TestConversationHandler_RequiresAuthentication(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	chat := mocks.NewMockIChatService(ctrl)
	router, _ := newConversationRouter(t, chat)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	router.ServeHTTP(w, r)

	req.Equal(http.StatusUnauthorized, w.Code)
}
