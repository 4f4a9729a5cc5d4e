// Package session provides server-side session management for authenticated
// teachers. It defines the Store interface for session persistence and the
// Session type that binds an opaque token to a username.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// tokenBytes is the number of random bytes per session token (256 bits).
const tokenBytes = 32

// Session represents an active teacher session.
type Session struct {
	// Token is the opaque session identifier carried in the client cookie.
	Token string

	// Username identifies the teacher that owns the session.
	Username string

	// CreatedAt is when the session was established.
	CreatedAt time.Time

	// ExpiresAt is when the session expires.
	ExpiresAt time.Time
}

// Store defines the interface for session persistence.
type Store interface {
	// Create generates a fresh token, persists a session for username,
	// and returns it.
	Create(ctx context.Context, username string) (*Session, error)

	// Get retrieves a session by token. Returns nil, nil if not found or expired.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes a session. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error

	// Close stops background routines and releases resources.
	Close() error
}

// generateToken returns a URL-safe token drawn from crypto/rand.
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
