package models

import "time"

// Connection request states. Accepted and rejected are terminal.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// ConnectionRequest is a directed proposal from Sender to Receiver.
// Only pending requests may transition, and only to accepted or rejected.
type ConnectionRequest struct {
	ID         int64
	SenderID   int64
	ReceiverID int64
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Connection is the undirected relationship created when a request is
// accepted. UserAID < UserBID always holds.
type Connection struct {
	ID        int64
	UserAID   int64
	UserBID   int64
	CreatedAt time.Time
}
