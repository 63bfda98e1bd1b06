package realtime

import (
	"encoding/json"
	"time"

	"devfolio/internal/server/models"
)

// Client-sent event types.
const (
	EventAuthenticate      = "authenticate"
	EventJoinConversation  = "join-conversation"
	EventLeaveConversation = "leave-conversation"
	EventSendMessage       = "send-message"
	EventTyping            = "typing"
	EventMarkRead          = "mark-read"
)

// Server-emitted event types.
const (
	EventAuthenticated       = "authenticated"
	EventUserOnline          = "user-online"
	EventUserOffline         = "user-offline"
	EventNewMessage          = "new-message"
	EventMessageNotification = "message-notification"
	EventUserTyping          = "user-typing"
	EventMessagesRead        = "messages-read"
	EventError               = "error"
)

// previewLimit caps notification previews in runes, not bytes.
const previewLimit = 120

// Event is the wire envelope in both directions.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type authenticatePayload struct {
	Token string `json:"token"`
}

type joinPayload struct {
	ConversationID int64 `json:"conversationId"`
}

type sendMessagePayload struct {
	ConversationID int64  `json:"conversationId"`
	Content        string `json:"content"`
}

type typingPayload struct {
	ConversationID int64 `json:"conversationId"`
	IsTyping       bool  `json:"isTyping"`
}

type markReadPayload struct {
	ConversationID int64   `json:"conversationId"`
	MessageIDs     []int64 `json:"messageIds"`
}

type messagePayload struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	SenderID       int64     `json:"senderId"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
}

type notificationPayload struct {
	ConversationID int64  `json:"conversationId"`
	SenderID       int64  `json:"senderId"`
	Preview        string `json:"preview"`
}

type presencePayload struct {
	UserID int64 `json:"userId"`
}

type userTypingPayload struct {
	ConversationID int64 `json:"conversationId"`
	UserID         int64 `json:"userId"`
	IsTyping       bool  `json:"isTyping"`
}

type messagesReadPayload struct {
	ConversationID int64   `json:"conversationId"`
	ReaderID       int64   `json:"readerId"`
	MessageIDs     []int64 `json:"messageIds"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func messageToPayload(m *models.Message) messagePayload {
	return messagePayload{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Read:           m.Read,
		CreatedAt:      m.CreatedAt,
	}
}

// Preview truncates content for lightweight notifications.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLimit {
		return content
	}
	return string(runes[:previewLimit])
}

func encodeEvent(eventType string, payload any) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	out, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		return nil
	}
	return out
}
