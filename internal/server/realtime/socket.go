package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"devfolio/internal/logging"
	"devfolio/internal/server/auth"
	"devfolio/internal/server/models"
)

// authWait bounds how long an unauthenticated socket may sit idle.
const authWait = 15 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The HTTP API is token-authenticated, not cookie-authenticated, so
	// cross-origin upgrades carry no ambient credentials.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Chat is the messaging surface the socket handler needs from the service
// layer.
type Chat interface {
	GetConversation(ctx context.Context, callerID, conversationID int64) (*models.Conversation, error)
	SendMessage(ctx context.Context, senderID, conversationID int64, content string) (*models.Message, error)
	MarkRead(ctx context.Context, callerID, conversationID int64, ids []int64) ([]int64, error)
}

// ConnectionLister yields a user's accepted connections so presence changes
// can be pushed to the people who care.
type ConnectionLister interface {
	ListConnections(ctx context.Context, userID int64) ([]*models.Connection, error)
}

// SocketHandler upgrades HTTP requests to websocket sessions and runs the
// chat event protocol over them.
type SocketHandler struct {
	hub         *Hub
	presence    *PresenceRegistry
	chat        Chat
	connections ConnectionLister
	jwtSecret   []byte
	logger      logging.Logger
}

func NewSocketHandler(hub *Hub, presence *PresenceRegistry, chat Chat, connections ConnectionLister, jwtSecret []byte, logger logging.Logger) *SocketHandler {
	return &SocketHandler{
		hub:         hub,
		presence:    presence,
		chat:        chat,
		connections: connections,
		jwtSecret:   jwtSecret,
		logger:      logger,
	}
}

// Handle is the gin endpoint for GET /ws.
func (h *SocketHandler) Handle(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}
	go h.serve(ws)
}

// serve runs the read loop for one socket. The first event must be
// authenticate; everything else is rejected until then.
func (h *SocketHandler) serve(ws *websocket.Conn) {
	ctx := context.Background()

	conn, err := h.authenticate(ws)
	if err != nil {
		_ = ws.WriteMessage(websocket.TextMessage, encodeEvent(EventError, errorPayload{Message: "authentication required"}))
		_ = ws.Close()
		return
	}

	h.hub.Attach(conn)
	if err := h.presence.SetOnline(ctx, conn.UserID, conn.ID); err != nil {
		h.logger.Warn(ctx, "presence mirror set failed", "user_id", conn.UserID, "error", err)
	}
	_ = conn.Send(encodeEvent(EventAuthenticated, presencePayload{UserID: conn.UserID}))
	h.notifyConnections(ctx, conn.UserID, EventUserOnline)

	defer func() {
		h.hub.Detach(conn)
		conn.Close(websocket.CloseNormalClosure, "bye")
		// A replaced session no longer owns the presence entry; only a real
		// disconnect clears it and fans out user-offline.
		wentOffline, err := h.presence.SetOffline(ctx, conn.UserID, conn.ID)
		if err != nil {
			h.logger.Warn(ctx, "presence mirror clear failed", "user_id", conn.UserID, "error", err)
		}
		if wentOffline {
			h.notifyConnections(ctx, conn.UserID, EventUserOffline)
		}
	}()

	ws.SetReadLimit(maxInboundSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		if err := h.presence.Refresh(ctx, conn.UserID); err != nil {
			h.logger.Debug(ctx, "presence refresh failed", "user_id", conn.UserID, "error", err)
		}
		return nil
	})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			_ = conn.Send(encodeEvent(EventError, errorPayload{Message: "malformed event"}))
			continue
		}
		h.dispatch(ctx, conn, &ev)
	}
}

// authenticate waits for the authenticate event and validates its JWT.
func (h *SocketHandler) authenticate(ws *websocket.Conn) (*Connection, error) {
	_ = ws.SetReadDeadline(time.Now().Add(authWait))
	defer ws.SetReadDeadline(time.Time{})

	_, raw, err := ws.ReadMessage()
	if err != nil {
		return nil, err
	}

	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, err
	}
	if ev.Type != EventAuthenticate {
		return nil, websocket.ErrBadHandshake
	}

	var payload authenticatePayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return nil, err
	}
	claims, err := auth.ParseToken(payload.Token, h.jwtSecret)
	if err != nil {
		return nil, err
	}
	return NewConnection(claims.UserID, ws), nil
}

func (h *SocketHandler) dispatch(ctx context.Context, conn *Connection, ev *Event) {
	switch ev.Type {
	case EventJoinConversation:
		h.handleJoin(ctx, conn, ev.Data)
	case EventLeaveConversation:
		h.handleLeave(conn, ev.Data)
	case EventSendMessage:
		h.handleSendMessage(ctx, conn, ev.Data)
	case EventTyping:
		h.handleTyping(conn, ev.Data)
	case EventMarkRead:
		h.handleMarkRead(ctx, conn, ev.Data)
	default:
		_ = conn.Send(encodeEvent(EventError, errorPayload{Message: "unknown event type"}))
	}
}

func (h *SocketHandler) handleJoin(ctx context.Context, conn *Connection, data json.RawMessage) {
	var payload joinPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		_ = conn.Send(encodeEvent(EventError, errorPayload{Message: "malformed payload"}))
		return
	}
	// Membership check doubles as existence check.
	if _, err := h.chat.GetConversation(ctx, conn.UserID, payload.ConversationID); err != nil {
		_ = conn.Send(encodeEvent(EventError, errorPayload{Message: "cannot join conversation"}))
		return
	}
	h.hub.Join(payload.ConversationID, conn)
}

func (h *SocketHandler) handleLeave(conn *Connection, data json.RawMessage) {
	var payload joinPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		_ = conn.Send(encodeEvent(EventError, errorPayload{Message: "malformed payload"}))
		return
	}
	h.hub.Leave(payload.ConversationID, conn)
}

// handleSendMessage persists first, then fans out. Sessions joined to the
// conversation get the full message; a counterpart that is online but not
// watching gets a truncated preview on their personal channel instead.
func (h *SocketHandler) handleSendMessage(ctx context.Context, conn *Connection, data json.RawMessage) {
	var payload sendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		_ = conn.Send(encodeEvent(EventError, errorPayload{Message: "malformed payload"}))
		return
	}

	msg, err := h.chat.SendMessage(ctx, conn.UserID, payload.ConversationID, payload.Content)
	if err != nil {
		_ = conn.Send(encodeEvent(EventError, errorPayload{Message: "message not sent"}))
		return
	}

	h.hub.Broadcast(msg.ConversationID, encodeEvent(EventNewMessage, messageToPayload(msg)), 0)

	conv, err := h.chat.GetConversation(ctx, conn.UserID, msg.ConversationID)
	if err != nil {
		h.logger.Warn(ctx, "conversation lookup after send failed", "conversation_id", msg.ConversationID, "error", err)
		return
	}
	receiverID := conv.Counterpart(conn.UserID)
	if h.presence.IsOnline(receiverID) && !h.hub.InRoom(msg.ConversationID, receiverID) {
		h.hub.NotifyUser(receiverID, encodeEvent(EventMessageNotification, notificationPayload{
			ConversationID: msg.ConversationID,
			SenderID:       msg.SenderID,
			Preview:        Preview(msg.Content),
		}))
	}
}

func (h *SocketHandler) handleTyping(conn *Connection, data json.RawMessage) {
	var payload typingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		_ = conn.Send(encodeEvent(EventError, errorPayload{Message: "malformed payload"}))
		return
	}
	h.hub.Broadcast(payload.ConversationID, encodeEvent(EventUserTyping, userTypingPayload{
		ConversationID: payload.ConversationID,
		UserID:         conn.UserID,
		IsTyping:       payload.IsTyping,
	}), conn.UserID)
}

func (h *SocketHandler) handleMarkRead(ctx context.Context, conn *Connection, data json.RawMessage) {
	var payload markReadPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		_ = conn.Send(encodeEvent(EventError, errorPayload{Message: "malformed payload"}))
		return
	}

	flipped, err := h.chat.MarkRead(ctx, conn.UserID, payload.ConversationID, payload.MessageIDs)
	if err != nil {
		_ = conn.Send(encodeEvent(EventError, errorPayload{Message: "mark read failed"}))
		return
	}
	if len(flipped) == 0 {
		return
	}
	h.hub.Broadcast(payload.ConversationID, encodeEvent(EventMessagesRead, messagesReadPayload{
		ConversationID: payload.ConversationID,
		ReaderID:       conn.UserID,
		MessageIDs:     flipped,
	}), conn.UserID)
}

// notifyConnections pushes a presence event to every connected counterpart
// that currently holds a live session. Failures are silent; presence events
// are best-effort.
func (h *SocketHandler) notifyConnections(ctx context.Context, userID int64, eventType string) {
	conns, err := h.connections.ListConnections(ctx, userID)
	if err != nil {
		h.logger.Warn(ctx, "connection list for presence fan-out failed", "user_id", userID, "error", err)
		return
	}
	payload := encodeEvent(eventType, presencePayload{UserID: userID})
	for _, c := range conns {
		counterpart := c.UserAID
		if counterpart == userID {
			counterpart = c.UserBID
		}
		if h.presence.IsOnline(counterpart) {
			h.hub.NotifyUser(counterpart, payload)
		}
	}
}
