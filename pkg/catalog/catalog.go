// Package catalog holds the in-memory activity catalog and its roster
// operations. The catalog has no notion of identity; authentication is
// enforced by the API layer.
package catalog

import (
	"errors"
	"sync"
)

// Roster operation errors. The API layer maps these to HTTP status codes.
var (
	// ErrNotFound indicates the named activity does not exist.
	ErrNotFound = errors.New("activity not found")

	// ErrAlreadyRegistered indicates the email is already on the roster.
	ErrAlreadyRegistered = errors.New("student is already signed up")

	// ErrNotRegistered indicates the email is not on the roster.
	ErrNotRegistered = errors.New("student is not signed up for this activity")

	// ErrFull indicates the roster is at max_participants.
	// Returned only when capacity enforcement is enabled.
	ErrFull = errors.New("activity is full")
)

// Activity is a named extracurricular offering with a capacity and roster.
// JSON field names match the wire format clients already consume.
type Activity struct {
	Description     string   `json:"description" yaml:"description"`
	Schedule        string   `json:"schedule" yaml:"schedule"`
	MaxParticipants int      `json:"max_participants" yaml:"max_participants"`
	Participants    []string `json:"participants" yaml:"participants"`
}

// Catalog is a mutable, mutex-guarded mapping of activity name to Activity.
// Activities are seeded at construction and never created or deleted at
// runtime; only rosters change.
type Catalog struct {
	mu              sync.RWMutex
	activities      map[string]*Activity
	enforceCapacity bool
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithCapacityEnforcement makes Signup reject rosters already at
// max_participants. The default mirrors the original service, which stores
// the cap but never checks it.
func WithCapacityEnforcement() Option {
	return func(c *Catalog) {
		c.enforceCapacity = true
	}
}

// New creates a Catalog from seed data. The seed is deep-copied, so callers
// may reuse or mutate it afterwards.
func New(seed map[string]Activity, opts ...Option) *Catalog {
	c := &Catalog{
		activities: make(map[string]*Activity, len(seed)),
	}
	for name, act := range seed {
		copied := act
		copied.Participants = append([]string(nil), act.Participants...)
		c.activities[name] = &copied
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns a snapshot of all activities keyed by name. Rosters are
// copied; mutating the result does not affect the catalog.
func (c *Catalog) List() map[string]Activity {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]Activity, len(c.activities))
	for name, act := range c.activities {
		copied := *act
		copied.Participants = append([]string(nil), act.Participants...)
		out[name] = copied
	}
	return out
}

// Signup appends email to the named activity's roster.
// Returns ErrNotFound for an unknown activity, ErrAlreadyRegistered if the
// email is already on the roster, and ErrFull when capacity enforcement is
// enabled and the roster is at max_participants.
func (c *Catalog) Signup(name, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	act, ok := c.activities[name]
	if !ok {
		return ErrNotFound
	}
	for _, p := range act.Participants {
		if p == email {
			return ErrAlreadyRegistered
		}
	}
	if c.enforceCapacity && len(act.Participants) >= act.MaxParticipants {
		return ErrFull
	}
	act.Participants = append(act.Participants, email)
	return nil
}

// Unregister removes email from the named activity's roster.
// Returns ErrNotFound for an unknown activity and ErrNotRegistered if the
// email is not on the roster.
func (c *Catalog) Unregister(name, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	act, ok := c.activities[name]
	if !ok {
		return ErrNotFound
	}
	for i, p := range act.Participants {
		if p == email {
			act.Participants = append(act.Participants[:i], act.Participants[i+1:]...)
			return nil
		}
	}
	return ErrNotRegistered
}
