package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"dm-lab/auth"
	"dm-lab/domain/event"
	"dm-lab/services"
	"dm-lab/sink"
)

const wsWriteTimeout = 10 * time.Second

// WSEvent is one frame pushed to the client. Type carries the logical
// channel name (new-message-<id>, new-conversation-<id>,
// new-notification-<id>) so clients can route without inspecting the data.
type WSEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// wsClientFrame is what clients may send upstream. Today that is only the
// focus declaration driving notification suppression.
type wsClientFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

type WSHandler struct {
	Chat services.IChatService
	// BufferSize is the per-session event buffer between fan-out and the
	// write pump.
	BufferSize int
	// SkipOriginVerify bypasses the cross-origin check. Development only;
	// production deployments configure proper origins instead.
	SkipOriginVerify bool
}

// Handle upgrades the connection and registers the session. Browser native
// WebSocket cannot set an Authorization header, so the token travels as a
// query parameter.
func (h *WSHandler) Handle(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
		return
	}
	claims, err := auth.ValidateToken(tokenStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}

	opts := &websocket.AcceptOptions{InsecureSkipVerify: h.SkipOriginVerify}
	conn, err := websocket.Accept(c.Writer, c.Request, opts)
	if err != nil {
		return // Accept already wrote the error response
	}

	sessionID := uuid.NewString()
	sessionSink := sink.NewSessionSink(h.BufferSize)

	h.Chat.Connect(sessionID, claims.UserID, sessionSink)
	defer h.Chat.Disconnect(sessionID)
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	go h.writePump(ctx, cancel, conn, sessionSink)

	// Read loop: processes focus frames and, as a side effect, keeps
	// control frames (close/ping/pong) flowing.
	for {
		var frame wsClientFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return
		}
		if frame.Type == "focus" {
			h.Chat.Focus(sessionID, frame.ConversationID)
		}
	}
}

func (h *WSHandler) writePump(ctx context.Context, cancel context.CancelFunc,
	conn *websocket.Conn, sessionSink *sink.SessionSink) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-sessionSink.Events:
			writeCtx, writeCancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := wsjson.Write(writeCtx, conn, WSEvent{Type: evt.Channel(), Data: toEventData(evt)})
			writeCancel()
			if err != nil {
				// Dead socket: stop the read loop too.
				cancel()
				return
			}
		}
	}
}

func toEventData(evt event.DomainEvent) interface{} {
	switch e := evt.(type) {
	case event.MessagePosted:
		return toMessageDTO(e.Message)
	case event.ConversationCreated:
		return toConversationDTOs(e.Conversations)
	case event.NotificationRaised:
		return toMessageDTO(e.Message)
	}
	return nil
}
