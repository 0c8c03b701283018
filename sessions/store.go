// Package sessions owns per-session authentication state: the single
// currently-valid refresh token id, the monotonic revocation flag, and
// session metadata for enumeration. The Session Authority is the only
// writer of these keys.
package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/skillsync/skillsync-server/internal/kv"
)

// revokedFlag is the stored value of a revoked session's flag key.
const revokedFlag = "1"

// Metadata describes one logical login instance. UserID and Email are
// immutable for the session's life; Revoked is derived from the flag key
// when sessions are read back.
type Metadata struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Family    string    `json:"family"`
	CreatedAt time.Time `json:"created_at"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Revoked   bool      `json:"revoked"`
}

func currentTokenKey(sessionID string) string { return "session:" + sessionID + ":current-jti" }
func revokedKey(sessionID string) string      { return "session:" + sessionID + ":revoked" }
func metaKey(sessionID string) string         { return "session:" + sessionID + ":meta" }
func userIndexKey(userID string) string       { return "user:" + userID + ":sessions" }

// Store persists session state in a shared TTL-capable key-value store.
type Store struct {
	kv kv.Store
}

func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// Create writes a fresh session record: current token id, metadata, and
// the per-user index entry. The ttl bounds the session to the refresh
// token's lifetime.
func (s *Store) Create(ctx context.Context, meta Metadata, tokenID string, ttl time.Duration) error {
	if err := s.kv.Set(ctx, currentTokenKey(meta.SessionID), tokenID, ttl); err != nil {
		return errors.Wrap(err, "[Store.Create] set current token id")
	}
	if err := s.writeMeta(ctx, meta, ttl); err != nil {
		return err
	}
	if err := s.kv.SAdd(ctx, userIndexKey(meta.UserID), meta.SessionID); err != nil {
		return errors.Wrap(err, "[Store.Create] index session")
	}
	return nil
}

// CurrentTokenID returns the jti of the one refresh token currently valid
// for the session, or kv.ErrNotFound when none exists.
func (s *Store) CurrentTokenID(ctx context.Context, sessionID string) (string, error) {
	return s.kv.Get(ctx, currentTokenKey(sessionID))
}

// Rotate atomically replaces the current token id with newTokenID,
// provided it still equals oldTokenID. Exactly one of any set of
// concurrent callers presenting the same token can win; losers must be
// treated as reuse events. On success the metadata TTL is renewed so the
// session record outlives its newest token.
func (s *Store) Rotate(ctx context.Context, sessionID, oldTokenID, newTokenID string, ttl time.Duration) (bool, error) {
	swapped, err := s.kv.CompareAndSwap(ctx, currentTokenKey(sessionID), oldTokenID, newTokenID, ttl)
	if err != nil {
		return false, errors.Wrap(err, "[Store.Rotate] compare and swap")
	}
	if !swapped {
		return false, nil
	}

	// Best effort: a session that keeps rotating keeps its metadata alive.
	if meta, metaErr := s.Get(ctx, sessionID); metaErr == nil {
		_ = s.writeMeta(ctx, *meta, ttl)
	}
	return true, nil
}

// IsRevoked reports whether the session has been permanently revoked.
func (s *Store) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	val, err := s.kv.Get(ctx, revokedKey(sessionID))
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "[Store.IsRevoked] get revoked flag")
	}
	return val == revokedFlag, nil
}

// Revoke permanently kills the session. The flag's retention is bounded by
// ttl; there is no point revoking past the token's natural expiry.
func (s *Store) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	return errors.Wrap(s.kv.Set(ctx, revokedKey(sessionID), revokedFlag, ttl), "[Store.Revoke] set revoked flag")
}

// DeleteCurrent removes the current token id entry so a captured old token
// can never be mistaken for current.
func (s *Store) DeleteCurrent(ctx context.Context, sessionID string) error {
	return errors.Wrap(s.kv.Del(ctx, currentTokenKey(sessionID)), "[Store.DeleteCurrent] delete current token id")
}

// Get loads session metadata, with the revocation flag folded in.
// Returns kv.ErrNotFound when the session record has expired or never
// existed.
func (s *Store) Get(ctx context.Context, sessionID string) (*Metadata, error) {
	raw, err := s.kv.Get(ctx, metaKey(sessionID))
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, errors.Wrap(err, "[Store.Get] unmarshal metadata")
	}

	revoked, err := s.IsRevoked(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	meta.Revoked = revoked
	return &meta, nil
}

// ListByUser enumerates the user's sessions via the index, pruning entries
// whose records have expired out of the store.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]*Metadata, error) {
	ids, err := s.kv.SMembers(ctx, userIndexKey(userID))
	if err != nil {
		return nil, errors.Wrap(err, "[Store.ListByUser] read index")
	}

	metas := make([]*Metadata, 0, len(ids))
	for _, id := range ids {
		meta, err := s.Get(ctx, id)
		if errors.Is(err, kv.ErrNotFound) {
			_ = s.kv.SRem(ctx, userIndexKey(userID), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

func (s *Store) writeMeta(ctx context.Context, meta Metadata, ttl time.Duration) error {
	meta.Revoked = false // derived at read time, never stored
	data, err := json.Marshal(meta)
	if err != nil {
		return errors.Wrap(err, "[Store.writeMeta] marshal metadata")
	}
	return errors.Wrap(s.kv.Set(ctx, metaKey(meta.SessionID), string(data), ttl), "[Store.writeMeta] set metadata")
}
