package models

import "time"

// Conversation is the canonical pairing of two users for message grouping.
// UserAID < UserBID always holds; the pair is normalized before insert and a
// unique index on (user_a_id, user_b_id) guarantees a single row per pair.
type Conversation struct {
	ID            int64
	UserAID       int64
	UserBID       int64
	LastMessageAt time.Time
	CreatedAt     time.Time
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// Counterpart returns the other participant's id. The caller must already be
// a participant.
func (c *Conversation) Counterpart(userID int64) int64 {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}

// NormalizePair orders two user ids ascending so lookups are idempotent
// regardless of call direction.
func NormalizePair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}
