package models

import "time"

// Message belongs to exactly one conversation. Rows are immutable after
// insert except for the Read flag, which moves one way: unread to read.
type Message struct {
	ID             int64
	ConversationID int64
	SenderID       int64
	Content        string
	Read           bool
	CreatedAt      time.Time
}
