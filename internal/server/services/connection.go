package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"devfolio/internal/common"
	"devfolio/internal/dbx"
	"devfolio/internal/server/models"
	"devfolio/internal/server/repositories/repomanager"
)

// ConnectionService implements the friend-request workflow: a directed
// pending request that the receiver resolves, producing an undirected
// connection on accept.
type ConnectionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewConnectionService(db *sql.DB, m repomanager.RepositoryManager) *ConnectionService {
	return &ConnectionService{db: db, repomanager: m}
}

// SendRequest creates a pending request from sender to receiver. At most one
// pending request may exist per pair in either direction, and already
// connected pairs cannot request again.
func (s *ConnectionService) SendRequest(ctx context.Context, senderID, receiverID int64) (*models.ConnectionRequest, error) {
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot connect to yourself", common.ErrValidation)
	}

	repo := s.repomanager.Connections(s.db)

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, receiverID); err != nil {
		return nil, err
	}

	connected, err := repo.Connected(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if connected {
		return nil, fmt.Errorf("%w: already connected", common.ErrConflict)
	}

	req, err := repo.CreateRequest(ctx, senderID, receiverID)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("%w: a pending request already exists", common.ErrConflict)
		}
		return nil, err
	}
	return req, nil
}

// AcceptRequest resolves a pending request and creates the connection. Only
// the receiver may accept; the status flip and the connection insert commit
// together or not at all.
func (s *ConnectionService) AcceptRequest(ctx context.Context, callerID, requestID int64) (*models.Connection, error) {
	req, err := s.repomanager.Connections(s.db).GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ReceiverID != callerID {
		return nil, common.ErrForbidden
	}
	if req.Status != models.RequestPending {
		return nil, fmt.Errorf("%w: request already resolved", common.ErrConflict)
	}

	var conn *models.Connection
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Connections(tx)
		if err := repoTx.UpdateRequestStatus(ctx, requestID, models.RequestAccepted); err != nil {
			return err
		}
		var createErr error
		conn, createErr = repoTx.CreateConnection(ctx, req.SenderID, req.ReceiverID)
		return createErr
	}); err != nil {
		return nil, err
	}
	return conn, nil
}

// RejectRequest resolves a pending request without creating a connection.
// Only the receiver may reject.
func (s *ConnectionService) RejectRequest(ctx context.Context, callerID, requestID int64) error {
	req, err := s.repomanager.Connections(s.db).GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.ReceiverID != callerID {
		return common.ErrForbidden
	}
	if req.Status != models.RequestPending {
		return fmt.Errorf("%w: request already resolved", common.ErrConflict)
	}
	return s.repomanager.Connections(s.db).UpdateRequestStatus(ctx, requestID, models.RequestRejected)
}

// ListPendingRequests returns pending requests addressed to the caller.
func (s *ConnectionService) ListPendingRequests(ctx context.Context, callerID int64) ([]*models.ConnectionRequest, error) {
	return s.repomanager.Connections(s.db).ListPendingForReceiver(ctx, callerID)
}

// ListConnections returns the caller's accepted connections.
func (s *ConnectionService) ListConnections(ctx context.Context, callerID int64) ([]*models.Connection, error) {
	return s.repomanager.Connections(s.db).ListConnections(ctx, callerID)
}

// Connected reports whether two users share an accepted connection.
func (s *ConnectionService) Connected(ctx context.Context, a, b int64) (bool, error) {
	return s.repomanager.Connections(s.db).Connected(ctx, a, b)
}
