package services

import (
	"context"
	"database/sql"
	"time"

	"devfolio/internal/common"
	"devfolio/internal/server/models"
	"devfolio/internal/server/repositories/repomanager"
)

// ChatService implements direct messaging: canonical conversation lookup,
// message persistence, history, and one-way read receipts. Live delivery is
// layered on top by the realtime package; this service only guarantees the
// database write.
type ChatService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewChatService(db *sql.DB, m repomanager.RepositoryManager) *ChatService {
	return &ChatService{db: db, repomanager: m}
}

// GetOrCreateConversation returns the canonical conversation between the
// caller and the other user. Concurrent first contact from both directions
// resolves to the same row via the unique index on the normalized pair.
func (s *ChatService) GetOrCreateConversation(ctx context.Context, callerID, otherID int64) (*models.Conversation, error) {
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, otherID); err != nil {
		return nil, err
	}
	return s.repomanager.Conversations(s.db).GetOrCreate(ctx, callerID, otherID)
}

// GetConversation returns a conversation the caller participates in.
func (s *ChatService) GetConversation(ctx context.Context, callerID, conversationID int64) (*models.Conversation, error) {
	conv, err := s.repomanager.Conversations(s.db).GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(callerID) {
		return nil, common.ErrForbidden
	}
	return conv, nil
}

// ListConversations returns the caller's conversations, most recently active
// first.
func (s *ChatService) ListConversations(ctx context.Context, callerID int64, limit, offset int) ([]*models.Conversation, error) {
	return s.repomanager.Conversations(s.db).ListForUser(ctx, callerID, limit, offset)
}

// SendMessage persists a message from senderID in the given conversation and
// bumps the conversation's last-activity timestamp. The sender must be a
// participant. Returns the stored message; any live broadcast happens after
// this returns, so durability never depends on delivery.
func (s *ChatService) SendMessage(ctx context.Context, senderID, conversationID int64, content string) (*models.Message, error) {
	if content == "" {
		return nil, common.ErrValidation
	}

	conv, err := s.repomanager.Conversations(s.db).GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, common.ErrForbidden
	}

	msg, err := s.repomanager.Messages(s.db).Create(ctx, &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	})
	if err != nil {
		return nil, err
	}

	// A failed touch leaves ordering slightly stale but the message is
	// already durable, so do not fail the send.
	_ = s.repomanager.Conversations(s.db).TouchLastMessage(ctx, conversationID, time.Now())

	return msg, nil
}

// History returns messages newest-first, paged. The caller must be a
// participant.
func (s *ChatService) History(ctx context.Context, callerID, conversationID int64, limit, offset int) ([]*models.Message, error) {
	conv, err := s.repomanager.Conversations(s.db).GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(callerID) {
		return nil, common.ErrForbidden
	}
	return s.repomanager.Messages(s.db).ListByConversation(ctx, conversationID, limit, offset)
}

// MarkRead flips unread messages in the conversation to read, excluding the
// caller's own messages. When ids is non-empty only those messages are
// considered. Returns the ids actually flipped so the realtime layer can
// notify the counterpart.
func (s *ChatService) MarkRead(ctx context.Context, callerID, conversationID int64, ids []int64) ([]int64, error) {
	conv, err := s.repomanager.Conversations(s.db).GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(callerID) {
		return nil, common.ErrForbidden
	}
	return s.repomanager.Messages(s.db).MarkRead(ctx, conversationID, callerID, ids)
}

// UnreadCount returns how many messages addressed to the caller in the
// conversation are still unread.
func (s *ChatService) UnreadCount(ctx context.Context, callerID, conversationID int64) (int, error) {
	return s.repomanager.Messages(s.db).UnreadCount(ctx, conversationID, callerID)
}
