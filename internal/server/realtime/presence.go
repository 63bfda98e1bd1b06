package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// PresenceRegistry tracks which users currently hold a live socket session.
// Entries are keyed by session so a replaced session's late cleanup cannot
// wipe the presence of its successor. The in-process map is authoritative for
// this server; an optional Redis mirror keeps TTL-guarded entries so
// operators can inspect liveness and stale sessions self-expire if a
// disconnect event is lost.
type PresenceRegistry struct {
	mu     sync.RWMutex
	online map[int64]string

	client *redis.Client
	ttl    time.Duration
}

// NewPresenceRegistry builds a registry. client may be nil to run without the
// Redis mirror.
func NewPresenceRegistry(client *redis.Client, ttl time.Duration) *PresenceRegistry {
	return &PresenceRegistry{
		online: make(map[int64]string),
		client: client,
		ttl:    ttl,
	}
}

func presenceKey(userID int64) string {
	return fmt.Sprintf("presence:%d", userID)
}

// SetOnline marks the user online under the given session. A later session
// for the same user supersedes the earlier one. Mirror failures are returned
// so the caller can log them; local state is updated regardless.
func (p *PresenceRegistry) SetOnline(ctx context.Context, userID int64, sessionID string) error {
	p.mu.Lock()
	p.online[userID] = sessionID
	p.mu.Unlock()

	if p.client == nil {
		return nil
	}
	return p.client.Set(ctx, presenceKey(userID), "1", p.ttl).Err()
}

// SetOffline clears the user's presence only if sessionID still owns it, and
// reports whether the user actually went offline. A replaced session's
// cleanup arriving after its successor's SetOnline is a no-op.
func (p *PresenceRegistry) SetOffline(ctx context.Context, userID int64, sessionID string) (bool, error) {
	p.mu.Lock()
	current, ok := p.online[userID]
	if !ok || current != sessionID {
		p.mu.Unlock()
		return false, nil
	}
	delete(p.online, userID)
	p.mu.Unlock()

	if p.client == nil {
		return true, nil
	}
	return true, p.client.Del(ctx, presenceKey(userID)).Err()
}

// Lookup returns the session currently holding the user's presence.
func (p *PresenceRegistry) Lookup(userID int64) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	sessionID, ok := p.online[userID]
	return sessionID, ok
}

// Refresh extends the Redis TTL for a user that is still connected. No-op
// without the mirror.
func (p *PresenceRegistry) Refresh(ctx context.Context, userID int64) error {
	p.mu.RLock()
	_, ok := p.online[userID]
	p.mu.RUnlock()
	if !ok || p.client == nil {
		return nil
	}
	return p.client.Expire(ctx, presenceKey(userID), p.ttl).Err()
}

// IsOnline reports local liveness.
func (p *PresenceRegistry) IsOnline(userID int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.online[userID]
	return ok
}

// OnlineUsers returns a snapshot of locally online user ids.
func (p *PresenceRegistry) OnlineUsers() []int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]int64, 0, len(p.online))
	for id := range p.online {
		out = append(out, id)
	}
	return out
}
