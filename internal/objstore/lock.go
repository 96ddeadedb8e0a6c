package objstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// lockInfo is the JSON body of a publish lock object.
type lockInfo struct {
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PublishLock serializes snapshot publishers through conditional writes on
// a lock object. Without it two snapshot runs racing on the same key could
// interleave a compress and an upload from different catalog versions.
type PublishLock struct {
	client  *Client
	key     string
	ttl     time.Duration
	ownerID string
	etag    string
}

// NewPublishLock creates a publish lock on the given key.
func NewPublishLock(client *Client, key string, ttl time.Duration) *PublishLock {
	return &PublishLock{
		client:  client,
		key:     key,
		ttl:     ttl,
		ownerID: uuid.New().String(),
	}
}

// Acquire attempts to take the lock.
// Returns (true, nil) if acquired, (false, nil) if another publisher holds
// an unexpired lock.
func (l *PublishLock) Acquire(ctx context.Context) (bool, error) {
	data, err := json.Marshal(lockInfo{Owner: l.ownerID, ExpiresAt: time.Now().Add(l.ttl)})
	if err != nil {
		return false, fmt.Errorf("acquire lock: marshal: %w", err)
	}

	created, etag, err := l.client.putIfNoneMatch(ctx, l.key, data, "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if created {
		l.etag = etag
		return true, nil
	}

	// Lock object exists; take it over only if expired
	current, oldEtag, err := l.read(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire lock: read: %w", err)
	}
	if current != nil && time.Now().Before(current.ExpiresAt) {
		return false, nil
	}

	stolen, newEtag, err := l.client.putIfMatch(ctx, l.key, data, oldEtag, "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lock: take over: %w", err)
	}
	if !stolen {
		return false, nil
	}
	l.etag = newEtag
	return true, nil
}

// Release deletes the lock if this instance still owns it.
func (l *PublishLock) Release(ctx context.Context) error {
	current, _, err := l.read(ctx)
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if current == nil {
		// Lock already gone
		return nil
	}
	if current.Owner != l.ownerID {
		// Lock was taken over after our TTL expired; leave it alone
		return nil
	}
	return l.client.Delete(ctx, l.key)
}

// read fetches the lock object. A missing object returns (nil, "", nil);
// unparseable lock data is treated as expired.
func (l *PublishLock) read(ctx context.Context) (*lockInfo, string, error) {
	data, err := l.client.Download(ctx, l.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", nil
		}
		return nil, "", err
	}

	etag, err := l.client.Head(ctx, l.key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, "", err
	}

	var info lockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, etag, nil
	}
	return &info, etag, nil
}
