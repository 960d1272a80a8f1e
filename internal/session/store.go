package session

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"

	"social-client/internal/models"
	"social-client/internal/store"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyUserID       = "user_id"
	keyUsername     = "username"
	keyDisplayName  = "display_name"
	keyAvatarURL    = "avatar_url"
	keyEmail        = "email"
	keyFirstLogin   = "first_login"
)

// Store persists the signed-in session and keeps an in-memory copy.
type Store struct {
	kv store.KV

	mu      sync.RWMutex
	current models.Session

	subMu       sync.Mutex
	subscribers []chan struct{}
}

// NewStore creates a session store on kv's session namespace.
func NewStore(kv store.KV) *Store {
	return &Store{kv: kv}
}

// Load restores the session from durable storage.
func (s *Store) Load(ctx context.Context) (models.Session, error) {
	fields := map[string]string{}
	for _, key := range []string{keyAccessToken, keyRefreshToken, keyUserID, keyUsername, keyDisplayName, keyAvatarURL, keyEmail, keyFirstLogin} {
		val, ok, err := s.kv.Get(ctx, store.NamespaceSession, key)
		if err != nil {
			return models.Session{}, fmt.Errorf("load session %s: %w", key, err)
		}
		if ok {
			fields[key] = val
		}
	}

	firstLogin, _ := strconv.ParseBool(fields[keyFirstLogin])
	sess := models.Session{
		AccessToken:  fields[keyAccessToken],
		RefreshToken: fields[keyRefreshToken],
		UserID:       fields[keyUserID],
		Username:     fields[keyUsername],
		DisplayName:  fields[keyDisplayName],
		AvatarURL:    fields[keyAvatarURL],
		Email:        fields[keyEmail],
		FirstLogin:   firstLogin,
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return sess, nil
}

// Save replaces the session and persists every field.
func (s *Store) Save(ctx context.Context, sess models.Session) error {
	fields := map[string]string{
		keyAccessToken:  sess.AccessToken,
		keyRefreshToken: sess.RefreshToken,
		keyUserID:       sess.UserID,
		keyUsername:     sess.Username,
		keyDisplayName:  sess.DisplayName,
		keyAvatarURL:    sess.AvatarURL,
		keyEmail:        sess.Email,
		keyFirstLogin:   strconv.FormatBool(sess.FirstLogin),
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	for key, val := range fields {
		if err := s.kv.Set(ctx, store.NamespaceSession, key, val); err != nil {
			return fmt.Errorf("save session %s: %w", key, err)
		}
	}
	return nil
}

// UpdateTokens replaces both tokens, keeping the identity fields.
func (s *Store) UpdateTokens(ctx context.Context, access, refresh string) error {
	s.mu.Lock()
	s.current.AccessToken = access
	if refresh != "" {
		s.current.RefreshToken = refresh
	}
	refresh = s.current.RefreshToken
	s.mu.Unlock()

	if err := s.kv.Set(ctx, store.NamespaceSession, keyAccessToken, access); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	if err := s.kv.Set(ctx, store.NamespaceSession, keyRefreshToken, refresh); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// Clear forgets the session in memory and on disk.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.current = models.Session{}
	s.mu.Unlock()

	if err := s.kv.Clear(ctx, store.NamespaceSession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Expire clears the session and raises the session-expired event.
func (s *Store) Expire(ctx context.Context) {
	if err := s.Clear(ctx); err != nil {
		log.Printf("session: clear on expiry failed: %v", err)
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	log.Printf("session: expired, notifying %d subscribers", len(s.subscribers))
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Expired returns a channel receiving one value per session expiry.
func (s *Store) Expired() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.subMu.Unlock()
	return ch
}

// Current returns a copy of the session.
func (s *Store) Current() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.AccessToken
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.RefreshToken
}

func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.UserID
}

// LoggedIn reports whether an access token is present.
func (s *Store) LoggedIn() bool {
	return s.AccessToken() != ""
}
